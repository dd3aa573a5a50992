// Package models defines the data models.
package models

import (
	"time"
)

// Coupon is one purchased waffle coupon.
type Coupon struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	CouponID           string     `gorm:"column:coupon_id;type:varchar(16);uniqueIndex;not null" json:"coupon_id"`
	CustomerName       string     `gorm:"type:varchar(100);not null" json:"customer_name"`
	PhoneNumber        string     `gorm:"type:varchar(15);not null;index" json:"phone_number"`
	Amount             float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentType        string     `gorm:"type:varchar(10);not null" json:"payment_type"`
	PaymentID          *string    `gorm:"type:varchar(255);uniqueIndex" json:"payment_id,omitempty"`
	TransactionID      *string    `gorm:"type:varchar(255);uniqueIndex" json:"transaction_id,omitempty"`
	VerificationStatus string     `gorm:"type:varchar(10);not null;default:'Pending';index" json:"verification_status"`
	Status             string     `gorm:"type:varchar(10);not null;default:'Unused';index" json:"status"`
	RedeemedAt         *time.Time `json:"redeemed_at,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name.
func (Coupon) TableName() string {
	return "coupons"
}

// Payment types.
const (
	PaymentTypeOnline = "Online"
	PaymentTypeCash   = "Cash"
)

// Redemption status.
const (
	CouponStatusUnused   = "Unused"
	CouponStatusRedeemed = "Redeemed"
)

// Verification status.
const (
	VerificationPending  = "Pending"
	VerificationVerified = "Verified"
)

// IsRedeemable reports whether the coupon can be redeemed now.
func (c *Coupon) IsRedeemable() bool {
	return c.VerificationStatus == VerificationVerified && c.Status == CouponStatusUnused
}
