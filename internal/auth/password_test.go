package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// newTestPasswordService uses bcrypt's minimum cost so tests run in
// milliseconds instead of ~250ms per hash.
func newTestPasswordService(t *testing.T) *PasswordService {
	t.Helper()
	ps, err := NewPasswordService(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordService: %v", err)
	}
	return ps
}

func TestNewPasswordService_CostBounds(t *testing.T) {
	if _, err := NewPasswordService(2); err == nil {
		t.Error("cost 2 should be rejected")
	}
	if _, err := NewPasswordService(40); err == nil {
		t.Error("cost 40 should be rejected")
	}

	ps, err := NewPasswordService(0)
	if err != nil {
		t.Fatalf("NewPasswordService(0) error = %v", err)
	}
	if ps.cost != DefaultBcryptCost {
		t.Errorf("cost = %d, want %d", ps.cost, DefaultBcryptCost)
	}
}

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService(t)

	hash, err := ps.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("Hash() = %q, want bcrypt $2a$ prefix", hash)
	}
	if strings.Contains(hash, "password123") {
		t.Error("hash contains the plaintext")
	}
}

func TestHash_Salted(t *testing.T) {
	ps := newTestPasswordService(t)

	a, _ := ps.Hash("same")
	b, _ := ps.Hash("same")
	if a == b {
		t.Error("two hashes of the same password are equal; salt missing")
	}
}

func TestHash_TooLong(t *testing.T) {
	ps := newTestPasswordService(t)

	if _, err := ps.Hash(strings.Repeat("x", MaxPasswordBytes+1)); err == nil {
		t.Error("Hash() should reject passwords over 72 bytes")
	}
	if _, err := ps.Hash(strings.Repeat("x", MaxPasswordBytes)); err != nil {
		t.Errorf("Hash() rejected a 72-byte password: %v", err)
	}
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestVerify(t *testing.T) {
	ps := newTestPasswordService(t)
	hash, err := ps.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name    string
		hash    string
		input   string
		wantErr error
	}{
		{"match", hash, "correct horse", nil},
		{"mismatch", hash, "battery staple", ErrPasswordMismatch},
		{"empty hash never matches", "", "", ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ps.Verify(tt.hash, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	ps := newTestPasswordService(t)

	err := ps.Verify("not-a-bcrypt-hash", "x")
	if err == nil {
		t.Fatal("Verify() should fail on a malformed hash")
	}
	if errors.Is(err, ErrPasswordMismatch) {
		t.Error("a malformed hash is a storage problem, not a wrong password")
	}
}
