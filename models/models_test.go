package models

import "testing"

func TestFunctionKeyDeterministic(t *testing.T) {
	uuid := "11111111-2222-3333-4444-555555555555"
	first := FunctionKey(uuid, "hello")
	second := FunctionKey(uuid, "hello")
	if first != second {
		t.Fatalf("FunctionKey is not deterministic: %q != %q", first, second)
	}
}

func TestFunctionKeyNamespacesDistinctUsers(t *testing.T) {
	keyForUserOne := FunctionKey("11111111-2222-3333-4444-555555555555", "hello")
	keyForUserTwo := FunctionKey("66666666-7777-8888-9999-000000000000", "hello")
	if keyForUserOne == keyForUserTwo {
		t.Fatalf("expected distinct function keys for distinct users, got %q for both", keyForUserOne)
	}
}

func TestFunctionKeyFormat(t *testing.T) {
	key := FunctionKey("11111111-2222-3333-4444-555555555555", "hello")
	const prefix = "hello-"
	if len(key) != len(prefix)+8 {
		t.Fatalf("FunctionKey() = %q, want %d characters", key, len(prefix)+8)
	}
	if key[:len(prefix)] != prefix {
		t.Fatalf("FunctionKey() = %q, want prefix %q", key, prefix)
	}
}
