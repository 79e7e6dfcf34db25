package auth

import "testing"

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := hashPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("hashPassword returned error: %v", err)
	}

	if !verifyPassword("correct-horse-battery-staple", hash) {
		t.Fatal("verifyPassword rejected the correct password")
	}
	if verifyPassword("wrong-password", hash) {
		t.Fatal("verifyPassword accepted an incorrect password")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	first, err := hashPassword("same-password")
	if err != nil {
		t.Fatalf("hashPassword returned error: %v", err)
	}
	second, err := hashPassword("same-password")
	if err != nil {
		t.Fatalf("hashPassword returned error: %v", err)
	}
	if first == second {
		t.Fatal("expected two hashes of the same password to differ due to random salts")
	}
}

func TestSplitHashRejectsMalformedInput(t *testing.T) {
	if _, _, ok := splitHash("not-a-valid-hash"); ok {
		t.Fatal("expected splitHash to reject a string with no '$' separator")
	}
	if _, _, ok := splitHash("zz$zz"); ok {
		t.Fatal("expected splitHash to reject non-hex salt/digest")
	}
}

func TestVerifyPasswordRejectsMalformedStoredHash(t *testing.T) {
	if verifyPassword("anything", "garbage") {
		t.Fatal("expected verifyPassword to reject a malformed stored hash")
	}
}
