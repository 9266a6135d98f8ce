package usertoken

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef-test"

func TestNewManagerValidates(t *testing.T) {
	if _, err := NewManager(Config{Secret: "short", TTL: time.Hour}); err == nil {
		t.Fatalf("expected short secret to fail")
	}
	if _, err := NewManager(Config{Secret: testSecret}); err == nil {
		t.Fatalf("expected missing ttl to fail")
	}
}

func TestIssueAndVerify(t *testing.T) {
	m, err := NewManager(Config{Secret: testSecret, TTL: time.Hour})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, exp, err := m.Issue("1", "tok-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiry, got %v", exp)
	}
	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "1" || claims.TokenID != "tok-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m, err := NewManager(Config{Secret: testSecret, TTL: time.Minute, Leeway: time.Second})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	issuedAt := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issuedAt }
	token, _, err := m.Issue("1", "tok-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	m.now = time.Now
	if _, err := m.Verify(token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestVerifyRejectsForeignSignatures(t *testing.T) {
	m, err := NewManager(Config{Secret: testSecret, TTL: time.Hour})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	other, err := NewManager(Config{Secret: "another-secret-value", TTL: time.Hour})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, _, err := other.Issue("1", "tok-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(token); err == nil {
		t.Fatalf("expected signature from another secret to fail")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "1",
		Issuer:    defaultIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := m.Verify(unsigned); err == nil {
		t.Fatalf("expected alg=none token to fail")
	}
}
