package models

import "time"

type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusApproved VerificationStatus = "approved"
	StatusRejected VerificationStatus = "rejected"
)

// Terminal reports whether no further review is expected for the status.
func (s VerificationStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Visitor claims a local's referral code with a travel ticket.
type Visitor struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	Name               string             `json:"name"`
	Phone              string             `json:"phone"`
	Email              string             `json:"email"`
	ReferralCodeUsed   string             `gorm:"index" json:"referral_code_used"`
	OriginCity         string             `json:"origin_city"`
	TravelDate         string             `json:"travel_date"`
	ReturnDate         *string            `json:"return_date"`
	TicketFilename     string             `json:"ticket_filename"`
	VerificationStatus VerificationStatus `gorm:"size:20;default:'pending';index" json:"verification_status"`
	CreatedAt          time.Time          `gorm:"index" json:"created_at"`
	ReviewedAt         *time.Time         `json:"reviewed_at,omitempty"`
}

func (Visitor) TableName() string { return "visitors" }
