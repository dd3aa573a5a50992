// Package upi builds UPI deep links.
package upi

import (
	"net/url"
	"strconv"
)

// Config holds the merchant's UPI identity.
type Config struct {
	MerchantID   string `mapstructure:"merchant_id"`
	MerchantName string `mapstructure:"merchant_name"`
}

// Builder renders upi://pay deep links for the configured merchant.
type Builder struct {
	config *Config
}

// NewBuilder creates a Builder.
func NewBuilder(config *Config) *Builder {
	return &Builder{config: config}
}

// PaymentLink returns a deep link that opens a UPI app with the payee
// and amount prefilled. Amount is in rupees.
func (b *Builder) PaymentLink(amount float64) string {
	params := url.Values{}
	params.Set("pa", b.config.MerchantID)
	params.Set("pn", b.config.MerchantName)
	params.Set("am", strconv.FormatFloat(amount, 'f', 2, 64))
	params.Set("cu", "INR")
	return "upi://pay?" + params.Encode()
}
