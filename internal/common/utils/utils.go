// Package utils provides small shared helpers.
package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// ValidatePhone reports whether phone is a 10-digit Indian mobile number.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// NormalizeName trims surrounding whitespace and caps the length at max runes.
func NormalizeName(name string, max int) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > max {
		return string(runes[:max])
	}
	return name
}

// GenerateReceiptID builds a gateway receipt identifier from the current time.
func GenerateReceiptID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixMilli())
}

// RupeesToPaise converts a rupee amount to paise.
func RupeesToPaise(rupees float64) int64 {
	return int64(rupees * 100)
}

// FormatRupees formats a paise amount as rupees with two decimals.
func FormatRupees(paise int64) string {
	return fmt.Sprintf("%.2f", float64(paise)/100)
}

// FormatAmount renders a rupee amount for UPI links and display.
func FormatAmount(rupees float64) string {
	return strconv.FormatFloat(rupees, 'f', 2, 64)
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Int64Ptr returns a pointer to i.
func Int64Ptr(i int64) *int64 {
	return &i
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// SafeString dereferences s, returning "" for nil.
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Contains reports whether slice contains item.
func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// Pagination carries list paging parameters.
type Pagination struct {
	Page     int   `json:"page" form:"page"`
	PageSize int   `json:"page_size" form:"page_size"`
	Total    int64 `json:"total"`
}

// GetOffset returns the row offset for the current page.
func (p *Pagination) GetOffset() int {
	return (p.Page - 1) * p.PageSize
}

// GetLimit returns the page size.
func (p *Pagination) GetLimit() int {
	return p.PageSize
}

// Normalize clamps page and page size into valid bounds.
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
}
