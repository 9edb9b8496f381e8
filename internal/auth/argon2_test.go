package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndVerifyCorrectPassword(t *testing.T) {
	password := "correct-horse-battery-staple"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$") {
		t.Errorf("hash has unexpected format: %s", hash)
	}

	ok, err := VerifyPassword(password, hash)
	if err != nil {
		t.Fatalf("VerifyPassword() error: %v", err)
	}
	if !ok {
		t.Error("VerifyPassword() returned false for correct password")
	}
}

func TestRejectWrongPassword(t *testing.T) {
	hash, err := HashPassword("real-password")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}

	ok, err := VerifyPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword() error: %v", err)
	}
	if ok {
		t.Error("VerifyPassword() returned true for wrong password")
	}
}

func TestSamePasswordDifferentSalts(t *testing.T) {
	password := "same-password"

	h1, _ := HashPassword(password)
	h2, _ := HashPassword(password)
	if h1 == h2 {
		t.Error("same password produced identical hashes (salts should differ)")
	}

	ok1, _ := VerifyPassword(password, h1)
	ok2, _ := VerifyPassword(password, h2)
	if !ok1 || !ok2 {
		t.Error("same password should verify against both hashes")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, bad := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
	} {
		if _, err := VerifyPassword("pw", bad); !errors.Is(err, ErrMalformedHash) {
			t.Errorf("VerifyPassword(%q): expected ErrMalformedHash, got %v", bad, err)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	current, _ := HashPassword("pw")
	if NeedsRehash(current) {
		t.Error("fresh hash should not need rehash")
	}

	weaker := encodeHash("pw", []byte("0123456789abcdef"), hashParams{memory: 1024, time: 1, threads: 1, keyLen: 32})
	if !NeedsRehash(weaker) {
		t.Error("hash with old parameters should need rehash")
	}
	if ok, _ := VerifyPassword("pw", weaker); !ok {
		t.Error("hash with old parameters should still verify")
	}
}
