package utils

import (
	"strings"
	"testing"
)

func TestPasswordHashAndCheck(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash %q does not look like bcrypt", hash)
	}

	if !CheckPassword("correct horse battery staple", hash) {
		t.Error("CheckPassword rejected the original password")
	}
	if CheckPassword("wrong password", hash) {
		t.Error("CheckPassword accepted a wrong password")
	}
	if CheckPassword("", hash) {
		t.Error("CheckPassword accepted an empty password")
	}
}

func TestHashPassword_Salted(t *testing.T) {
	h1, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical, salt is missing")
	}
}

func TestCheckPassword_GarbageHash(t *testing.T) {
	if CheckPassword("anything", "not-a-bcrypt-hash") {
		t.Error("CheckPassword accepted a malformed hash")
	}
}
