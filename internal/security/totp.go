package security

import (
	"fmt"
	"strings"

	"github.com/pquerna/otp/totp"
)

// GenerateTOTPSecret creates a new TOTP secret for an admin account.
func GenerateTOTPSecret(accountName string) (string, error) {
	key, errGenerate := totp.Generate(totp.GenerateOpts{
		Issuer:      "postforge",
		AccountName: accountName,
	})
	if errGenerate != nil {
		return "", fmt.Errorf("security: generate totp secret: %w", errGenerate)
	}
	return key.Secret(), nil
}

// ValidateTOTP reports whether the code matches the secret.
func ValidateTOTP(secret, code string) bool {
	secret = strings.TrimSpace(secret)
	code = strings.TrimSpace(code)
	if secret == "" || code == "" {
		return false
	}
	return totp.Validate(code, secret)
}
