// Package auth handles user registration and login, password hashing,
// and bearer token issuance/validation. Passwords are hashed with a
// memory-hard KDF (Argon2id); tokens are HS256 JWTs.
package auth

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/corvus-faas/control-plane/db"
	"github.com/corvus-faas/control-plane/models"
)

// ErrInvalidCredentials covers both "email not found" and "password
// mismatch". the two are never distinguished in an error returned to
// the caller, collapsing to the same generic reason to avoid leaking
// which emails are registered.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// ErrDuplicateEmail is returned by Register when the email is already taken.
var ErrDuplicateEmail = errors.New("auth: email already registered")

// ErrUserNotFound is returned by FindByUUID when no user matches.
var ErrUserNotFound = errors.New("auth: user not found")

const tokenTTL = 24 * time.Hour

// argon2 parameters. time=1, memory=64MB, threads=4, keyLen=32 is the
// configuration recommended by the Argon2 RFC draft for interactive
// login hashing, balancing cost against request latency.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// Service is the auth layer's public surface: registration, login, token
// issuance, token validation, and user lookup by UUID.
type Service struct {
	database *db.Database
	secret   []byte
}

// NewService constructs a Service bound to the shared catalog
// connection pool and the configured signing secret.
func NewService(database *db.Database, secret string) *Service {
	return &Service{database: database, secret: []byte(secret)}
}

// Register creates a new user with the given email and password and
// immediately issues a token for them, so a fresh registration can
// call authenticated endpoints without a separate login. Fails with
// ErrDuplicateEmail if the email is already registered.
func (service *Service) Register(email, password string) (*models.User, string, error) {
	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		UUID:         uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
	}

	query := `INSERT INTO users (uuid, email, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at`
	err = service.database.Conn().QueryRow(query, user.UUID, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if isUniqueViolation(err) {
		return nil, "", ErrDuplicateEmail
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to insert user %q: %w", email, err)
	}

	token, err := service.issueToken(user.UUID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

// Login looks up a user by email, verifies the password, and issues a
// token on success. Both "no such email" and "wrong password" collapse
// to ErrInvalidCredentials.
func (service *Service) Login(email, password string) (*models.User, string, error) {
	var user models.User
	query := `SELECT id, uuid, email, password_hash, created_at FROM users WHERE email = $1`
	err := service.database.Conn().QueryRow(query, email).Scan(
		&user.ID, &user.UUID, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user %q: %w", email, err)
	}

	if !verifyPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := service.issueToken(user.UUID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return &user, token, nil
}

// FindByUUID looks up a user by their public UUID. Used by the HTTP
// middleware after a token has already been decoded, to confirm the
// subject still exists.
func (service *Service) FindByUUID(userUUID string) (*models.User, error) {
	var user models.User
	query := `SELECT id, uuid, email, password_hash, created_at FROM users WHERE uuid = $1`
	err := service.database.Conn().QueryRow(query, userUUID).Scan(
		&user.ID, &user.UUID, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %q: %w", userUUID, err)
	}
	return &user, nil
}

// issueToken signs a JWT with sub=userUUID, iat=now, exp=now+24h, using
// the service's configured secret.
func (service *Service) issueToken(userUUID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userUUID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(service.secret)
}

// ValidateToken decodes and verifies tokenString against the service's
// secret, returning the subject (user UUID) on success. Any decode or
// validation failure (bad signature, expired, malformed) is collapsed
// into a single error, so the client-facing response never reveals
// which check failed.
func (service *Service) ValidateToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return service.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid or expired token")
	}
	return claims.Subject, nil
}

// hashPassword derives an Argon2id digest of password under a fresh
// random salt, and encodes both together so verifyPassword can recover the
// salt later without a separate column.
func hashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	digest := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("%s$%s",
		encodeHex(salt),
		encodeHex(digest),
	), nil
}

// verifyPassword recomputes the Argon2id digest of password using the
// salt embedded in storedHash and compares it against the stored digest.
func verifyPassword(password, storedHash string) bool {
	salt, digest, ok := splitHash(storedHash)
	if !ok {
		return false
	}
	candidate := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return constantTimeEqual(candidate, digest)
}
