package coupon

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/wafflefiesta/waffle-fiesta-backend/internal/models"
)

// QRPayload is the JSON embedded in every coupon QR code.
type QRPayload struct {
	CouponID string `json:"couponId"`
}

// Scan outcomes.
const (
	ScanResultValid    = "valid"
	ScanResultNotFound = "not_found"
	ScanResultPending  = "pending"
	ScanResultRedeemed = "redeemed"
)

// ScanResult classifies a scanned code for the staff scanner.
type ScanResult struct {
	Result string         `json:"result"`
	Coupon *models.Coupon `json:"coupon,omitempty"`
}

// ParseScan extracts a coupon code from scanner input. Input is either
// the QR JSON payload or a bare coupon code typed by hand.
func ParseScan(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidQRPayload
	}
	if strings.HasPrefix(raw, "{") {
		var payload QRPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil || payload.CouponID == "" {
			return "", ErrInvalidQRPayload
		}
		return strings.ToUpper(strings.TrimSpace(payload.CouponID)), nil
	}
	return strings.ToUpper(raw), nil
}

// Scan looks up scanner input and classifies the coupon's state.
func (s *CouponService) Scan(ctx context.Context, raw string) (*ScanResult, error) {
	code, err := ParseScan(raw)
	if err != nil {
		return nil, err
	}

	coupon, err := s.Get(ctx, code)
	if err != nil {
		if err == ErrCouponNotFound {
			return &ScanResult{Result: ScanResultNotFound}, nil
		}
		return nil, err
	}

	switch {
	case coupon.VerificationStatus != models.VerificationVerified:
		return &ScanResult{Result: ScanResultPending, Coupon: coupon}, nil
	case coupon.Status == models.CouponStatusRedeemed:
		return &ScanResult{Result: ScanResultRedeemed, Coupon: coupon}, nil
	default:
		return &ScanResult{Result: ScanResultValid, Coupon: coupon}, nil
	}
}

// EncodeQRPayload renders the QR JSON for a coupon code.
func EncodeQRPayload(code string) string {
	data, _ := json.Marshal(QRPayload{CouponID: code})
	return string(data)
}

// QRCodePNG renders the coupon's QR code as a PNG. The coupon must
// exist.
func (s *CouponService) QRCodePNG(ctx context.Context, code string) ([]byte, error) {
	coupon, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.qrGen.GeneratePNG(EncodeQRPayload(coupon.CouponID))
}
