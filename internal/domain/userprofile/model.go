package userprofile

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Profile is the gateway's record of a patient account, keyed by the
// patient's health directed identifier.
type Profile struct {
	HDID            string     `json:"hdid"`
	Email           *string    `json:"email,omitempty"`
	AcceptedTermsAt *time.Time `json:"accepted_terms_at,omitempty"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

const maxHDIDLen = 64

// Validate checks the fields a caller may set.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.HDID) == "" {
		return fmt.Errorf("%w: hdid is required", ErrInvalid)
	}
	if len(p.HDID) > maxHDIDLen {
		return fmt.Errorf("%w: hdid exceeds %d characters", ErrInvalid, maxHDIDLen)
	}
	if p.Email != nil && *p.Email != "" {
		if _, err := mail.ParseAddress(*p.Email); err != nil {
			return fmt.Errorf("%w: invalid email %q", ErrInvalid, *p.Email)
		}
	}
	return nil
}
