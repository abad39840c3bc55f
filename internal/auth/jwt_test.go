package auth

import (
	"errors"
	"testing"
	"time"
)

const testAccount = "0x8ba1f109551bd432803012645ac136ddd64dba72"

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, time.Hour, testAccount, "farmer", false)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.AccountID != testAccount {
		t.Errorf("expected account %s, got %s", testAccount, claims.AccountID)
	}
	if claims.Subject != testAccount {
		t.Errorf("expected subject %s, got %s", testAccount, claims.Subject)
	}
	if claims.Username != "farmer" {
		t.Errorf("expected username 'farmer', got %q", claims.Username)
	}
	if claims.Admin {
		t.Error("expected non-admin claims")
	}
	if claims.ID == "" {
		t.Error("expected a JTI")
	}
}

func TestTokensAreUnique(t *testing.T) {
	a, _ := GenerateToken("s", time.Hour, testAccount, "owner", true)
	b, _ := GenerateToken("s", time.Hour, testAccount, "owner", true)

	ca, _ := ValidateToken("s", a)
	cb, _ := ValidateToken("s", b)
	if ca.ID == cb.ID {
		t.Error("expected distinct JTIs for separate logins")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", time.Hour, testAccount, "owner", true)

	_, err := ValidateToken("secret2", token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	token, _ := GenerateToken("secret", time.Nanosecond, testAccount, "owner", false)
	time.Sleep(1100 * time.Millisecond)

	if _, err := ValidateToken("secret", token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected expired token to be rejected, got %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	tests := []struct {
		name   string
		expiry time.Duration
		want   time.Duration
	}{
		{"default", 0, DefaultTokenExpiry},
		{"configured", 2 * time.Hour, 2 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _ := GenerateToken("test", tt.expiry, testAccount, "test", false)
			claims, err := ValidateToken("test", token)
			if err != nil {
				t.Fatalf("ValidateToken: %v", err)
			}

			// Should be within a few seconds.
			diff := time.Now().Add(tt.want).Sub(claims.ExpiresAt.Time)
			if diff < -5*time.Second || diff > 5*time.Second {
				t.Errorf("token expiry too far from expected: diff=%v", diff)
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the password")
	}

	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Errorf("CheckPassword with right password: %v", err)
	}
	if err := CheckPassword(hash, "battery staple"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("expected ErrPasswordMismatch, got %v", err)
	}
}
