package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

func buildToken(t *testing.T, issuer, audience string, now time.Time, ttl time.Duration) jwt.Token {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Subject("user-id").
		Issuer(issuer).
		Audience([]string{audience}).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	return tok
}

func TestTokenValidatorAccepts(t *testing.T) {
	now := time.Now()
	v := TokenValidator{Issuer: "backend-kiraya", Audience: "kiraya-frontend", Algorithm: jwa.HS256}
	tok := buildToken(t, "backend-kiraya", "kiraya-frontend", now, time.Minute)
	if err := v.Validate(tok, jwa.HS256, now); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestTokenValidatorRejectsIssuerMismatch(t *testing.T) {
	now := time.Now()
	v := TokenValidator{Issuer: "backend-kiraya", Audience: "kiraya-frontend", Algorithm: jwa.HS256}
	tok := buildToken(t, "someone-else", "kiraya-frontend", now, time.Minute)
	if err := v.Validate(tok, jwa.HS256, now); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestTokenValidatorRejectsAudienceMismatch(t *testing.T) {
	now := time.Now()
	v := TokenValidator{Issuer: "backend-kiraya", Audience: "kiraya-frontend", Algorithm: jwa.HS256}
	tok := buildToken(t, "backend-kiraya", "other-app", now, time.Minute)
	if err := v.Validate(tok, jwa.HS256, now); err == nil {
		t.Fatal("expected audience mismatch error")
	}
}

func TestTokenValidatorRejectsExpired(t *testing.T) {
	now := time.Now()
	v := TokenValidator{Issuer: "backend-kiraya", Audience: "kiraya-frontend", Algorithm: jwa.HS256}
	tok := buildToken(t, "backend-kiraya", "kiraya-frontend", now.Add(-2*time.Minute), time.Minute)
	if err := v.Validate(tok, jwa.HS256, now); err == nil {
		t.Fatal("expected expired token error")
	}
}

func TestTokenValidatorClockSkew(t *testing.T) {
	now := time.Now()
	tok := buildToken(t, "backend-kiraya", "kiraya-frontend", now.Add(-90*time.Second), time.Minute)

	strict := TokenValidator{Issuer: "backend-kiraya", Audience: "kiraya-frontend", Algorithm: jwa.HS256}
	if err := strict.Validate(tok, jwa.HS256, now); err == nil {
		t.Fatal("expected expired token error without skew")
	}

	lenient := strict
	lenient.ClockSkew = time.Minute
	if err := lenient.Validate(tok, jwa.HS256, now); err != nil {
		t.Fatalf("validate with skew: %v", err)
	}
}

func TestTokenValidatorRejectsMissingAlgorithm(t *testing.T) {
	now := time.Now()
	v := TokenValidator{Algorithm: jwa.HS256}
	tok := buildToken(t, "", "", now, time.Minute)
	if err := v.Validate(tok, "", now); err == nil {
		t.Fatal("expected missing algorithm error")
	}
	if err := v.Validate(tok, jwa.HS384, now); err == nil {
		t.Fatal("expected algorithm mismatch error")
	}
	if err := v.Validate(nil, jwa.HS256, now); err == nil {
		t.Fatal("expected nil token error")
	}
}
