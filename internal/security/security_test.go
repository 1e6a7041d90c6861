package security

import (
	"testing"
	"time"
)

func TestPasswordRoundTrip(t *testing.T) {
	hashed, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hashed, "hunter22") {
		t.Fatal("expected correct password to match")
	}
	if CheckPassword(hashed, "wrong") {
		t.Fatal("expected wrong password to fail")
	}
}

func TestAdminTokenRoundTrip(t *testing.T) {
	token, err := SignAdminToken("secret", 7, time.Hour)
	if err != nil {
		t.Fatalf("SignAdminToken: %v", err)
	}

	claims, err := ParseAdminToken("secret", token)
	if err != nil {
		t.Fatalf("ParseAdminToken: %v", err)
	}
	if claims.AdminID != 7 {
		t.Fatalf("expected admin_id=7, got %d", claims.AdminID)
	}

	if _, errWrong := ParseAdminToken("other-secret", token); errWrong == nil {
		t.Fatal("expected parse failure with wrong secret")
	}
}

func TestExpiredToken(t *testing.T) {
	token, err := SignAdminToken("secret", 7, -time.Minute)
	if err != nil {
		t.Fatalf("SignAdminToken: %v", err)
	}
	if _, errParse := ParseAdminToken("secret", token); errParse == nil {
		t.Fatal("expected parse failure for expired token")
	}
}

func TestValidateTOTPEmpty(t *testing.T) {
	if ValidateTOTP("", "123456") {
		t.Fatal("empty secret must not validate")
	}
	if ValidateTOTP("JBSWY3DPEHPK3PXP", "") {
		t.Fatal("empty code must not validate")
	}
}
