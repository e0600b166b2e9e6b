package models

import "time"

// OTP is the single live verification code of an email address.
// VerifiedAt is set once the code passed the password-reset check.
type OTP struct {
	Email            string
	VerificationCode string
	VerifiedAt       *time.Time
	CreatedAt        time.Time
}
