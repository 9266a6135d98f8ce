package auth

import "testing"

func TestHashPasswordAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("admin123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "" || hash == "admin123" {
		t.Fatalf("expected opaque hash, got %q", hash)
	}
	if !CheckPassword("admin123", hash) {
		t.Fatalf("expected password check to pass")
	}
	if CheckPassword("admin124", hash) {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestCheckPasswordEmptyStored(t *testing.T) {
	if CheckPassword("anything", "") {
		t.Fatalf("empty stored hash must never match")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatalf("expected empty password to fail")
	}
}
