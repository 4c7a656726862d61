package domain

import "time"

type CredentialPurpose string

const (
	CredentialPurposePasswordReset CredentialPurpose = "password_reset"
	CredentialPurposeSignupVerify  CredentialPurpose = "signup_verify"
)

func (p CredentialPurpose) Valid() bool {
	switch p {
	case CredentialPurposePasswordReset, CredentialPurposeSignupVerify:
		return true
	default:
		return false
	}
}

type CredentialStatus string

const (
	CredentialStatusPending  CredentialStatus = "pending"
	CredentialStatusConsumed CredentialStatus = "consumed"
	CredentialStatusExpired  CredentialStatus = "expired"
)

// OneTimeCredential is a short numeric code proving control of an email identity.
// Only the SHA-256 of the code is stored.
type OneTimeCredential struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Identity   string            `gorm:"size:255;not null;index:idx_otc_identity_purpose" json:"identity"`
	Purpose    CredentialPurpose `gorm:"size:32;not null;index:idx_otc_identity_purpose" json:"purpose"`
	CodeHash   string            `gorm:"size:128;not null;index" json:"-"`
	ExpiresAt  time.Time         `gorm:"not null;index" json:"expires_at"`
	ConsumedAt *time.Time        `gorm:"index" json:"consumed_at,omitempty"`
	Superseded bool              `gorm:"not null;default:false" json:"superseded"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func (c *OneTimeCredential) Status(now time.Time) CredentialStatus {
	if c.ConsumedAt != nil {
		return CredentialStatusConsumed
	}
	if !now.Before(c.ExpiresAt) {
		return CredentialStatusExpired
	}
	return CredentialStatusPending
}

// CredentialTicket is minted when a credential is verified and authorizes one follow-up
// action (password change, account creation) for the same identity and purpose.
type CredentialTicket struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	CredentialID uint              `gorm:"not null;index" json:"credential_id"`
	Identity     string            `gorm:"size:255;not null;index" json:"identity"`
	Purpose      CredentialPurpose `gorm:"size:32;not null" json:"purpose"`
	TicketHash   string            `gorm:"size:128;uniqueIndex;not null" json:"-"`
	ExpiresAt    time.Time         `gorm:"not null;index" json:"expires_at"`
	RedeemedAt   *time.Time        `json:"redeemed_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

type CredentialStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Consumed int64 `json:"consumed"`
	Expired  int64 `json:"expired"`
	Tickets  int64 `json:"tickets"`
}
