package oidc

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// GoogleIssuer is the OIDC issuer for Google ID tokens.
const GoogleIssuer = "https://accounts.google.com"

// Claims are the fields extracted from a verified ID token. Subject is the
// stable Google account id used to resolve users; Email and Name are
// informational and are only read at first sign-in.
type Claims struct {
	Subject string
	Email   string
	Name    string
}

// Verifier validates an externally-issued ID token and extracts claims.
// It is satisfied by *GoogleVerifier and by test fakes.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

// GoogleVerifier checks Google ID tokens against Google's published keys and
// the configured OAuth client id (audience).
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier discovers Google's OIDC configuration and returns a
// verifier bound to the given client id.
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	provider, err := oidc.NewProvider(ctx, GoogleIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return &GoogleVerifier{verifier: verifier}, nil
}

// Verify validates signature, expiry and audience of the raw ID token and
// returns its claims. All failures look the same to the caller so the
// response cannot be used as an oracle for which check failed.
func (v *GoogleVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("id token verification failed: %w", err)
	}
	var c struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&c); err != nil {
		return nil, fmt.Errorf("id token verification failed: %w", err)
	}
	return &Claims{Subject: idToken.Subject, Email: c.Email, Name: c.Name}, nil
}
