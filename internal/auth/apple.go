package auth

import (
	"context"
	"errors"
)

// AppleVerifier validates an Apple identity token and returns the stable
// Apple user id plus the email Apple shared. Verification against Apple's
// JWKS happens outside this service.
type AppleVerifier interface {
	Verify(ctx context.Context, identityToken string) (appleID, email string, err error)
}

var ErrAppleNotConfigured = errors.New("apple sign-in is not configured")

type disabledAppleVerifier struct{}

func (disabledAppleVerifier) Verify(context.Context, string) (string, string, error) {
	return "", "", ErrAppleNotConfigured
}

// NewDisabledAppleVerifier is used when no Apple credentials are deployed;
// the sign-in endpoint then fails cleanly instead of panicking on nil.
func NewDisabledAppleVerifier() AppleVerifier {
	return disabledAppleVerifier{}
}
