// Package models defines the data structures (structs) shared across the application.
// this package has no imports from other internal packages, making it the
// foundation of the dependency graph. other packages (catalog, deploy, handlers, invoke) import from here.
package models

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// User is a registered platform account. Created by registration,
// referenced but never mutated by the deploy/invoke core paths.
type User struct {
	// ID is the internal auto-incrementing primary key, never exposed over the API.
	ID int64 `json:"-" db:"id"`

	// UUID is the public identifier for this user. It doubles as the
	// invocation namespace: /invoke/<UUID>/<name>.
	UUID string `json:"uuid" db:"uuid"`

	// Email must be unique across all users; enforced by a unique index,
	// not by application code.
	Email string `json:"email" db:"email"`

	// PasswordHash is an Argon2 digest, never serialized to JSON.
	PasswordHash string `json:"-" db:"password_hash"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Function is a registered deployment target: a name owned by a user,
// paired with the runtime it was first registered with (a re-deploy
// rebuilds the image but leaves the catalog row untouched).
// Invariant: (owner_id, name) unique, enforced by the catalog's storage
// layer (a composite unique index), not by application code.
type Function struct {
	ID        int64     `json:"-" db:"id"`
	UUID      string    `json:"uuid" db:"uuid"`
	Name      string    `json:"name" db:"name"`
	Runtime   string    `json:"runtime" db:"runtime"`
	OwnerID   int64     `json:"-" db:"owner_id"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// DeployableBundle is the transient payload carried by a single /deploy
// request. unlike Deployment in a persisted sense, this never touches
// disk as a whole struct; Content is unpacked and discarded by the
// deployment pipeline once the image is built.
type DeployableBundle struct {
	// Name is the function name requested by the client, taken from the
	// multipart field or the request path, before config.json is even read.
	Name string

	// Runtime is the fallback runtime, used only if config.json omits one.
	Runtime string

	// Content is the raw ZIP bytes. Constraint: len(Content) <= max_function_size.
	Content []byte

	// UserUUID identifies the owner performing this deploy.
	UserUUID string
}

// BundleConfig is parsed from the config.json file found somewhere
// inside a DeployableBundle's ZIP content. Env must be present (even if
// empty) per the deployment pipeline's validation step.
type BundleConfig struct {
	FunctionName string            `json:"function_name"`
	Runtime      string            `json:"runtime"`
	Env          map[string]string `json:"env"`
}

// InstanceRecord is what the instance cache stores: the live address of
// a running container, keyed by FunctionKey. It exists only in the
// cache, never in the catalog, and expires independently of it.
type InstanceRecord struct {
	Key  string
	Addr string
}

// ContainerSpec describes everything the container runtime needs to
// start a single function instance. Grouped into a struct (rather
// than a long argument list) so the signature of docker.Client.Run
// stays stable as more knobs are added later.
type ContainerSpec struct {
	// ContainerPort is the port the function process listens on inside
	// the container. Fixed at 8080 for every function by convention.
	ContainerPort int

	// BindPort is the host port the container's port is published to.
	// chosen randomly in [8000, 9000) by the invocation scheduler.
	BindPort int

	// ContainerName must be unique on the host; used both as the Docker
	// container name and, since containers on the same network can
	// resolve each other by name, as the DNS host part of the instance
	// address returned to callers.
	ContainerName string

	// TimeoutSeconds bounds how long the container is allowed to live
	// before the runtime force-removes it.
	TimeoutSeconds int

	// Network is the Docker network the container joins, so the proxy
	// (itself running in a container on the same network) can reach it
	// by container name.
	Network string
}

// FunctionKey derives the image tag / cache key for a (user, name) pair:
// name + "-" + the first 8 hex characters of an MD5 digest of the
// user's UUID. Must be deterministic for a given UUID so that repeated
// deploys and invokes of the same function always resolve to the same
// image tag.
func FunctionKey(userUUID, name string) string {
	sum := md5.Sum([]byte(userUUID))
	return name + "-" + hex.EncodeToString(sum[:])[:8]
}
