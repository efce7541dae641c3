package models

import "time"

// Local is a resident who sponsors visitors through their referral code.
type Local struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Pincode      string    `gorm:"size:6" json:"pincode"`
	ReferralCode string    `gorm:"uniqueIndex;not null" json:"referral_code"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (Local) TableName() string { return "locals" }
