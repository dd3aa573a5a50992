package coupon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wafflefiesta/waffle-fiesta-backend/internal/models"
)

func TestParseScan(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"qr payload", `{"couponId":"WF2026ABC123"}`, "WF2026ABC123", false},
		{"bare code", "WF2026ABC123", "WF2026ABC123", false},
		{"lowercase typed code", "wf2026abc123", "WF2026ABC123", false},
		{"surrounding space", "  WF2026ABC123  ", "WF2026ABC123", false},
		{"empty", "", "", true},
		{"broken json", `{"couponId":`, "", true},
		{"json without coupon", `{"foo":"bar"}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScan(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidQRPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeQRPayload(t *testing.T) {
	payload := EncodeQRPayload("WF2026ABC123")

	assert.JSONEq(t, `{"couponId":"WF2026ABC123"}`, payload)

	// Round trip through the scanner path.
	code, err := ParseScan(payload)
	require.NoError(t, err)
	assert.Equal(t, "WF2026ABC123", code)
}

func TestCouponService_Scan_Classification(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)
	ctx := context.Background()

	valid, err := svc.Issue(ctx, onlineIssueRequest())
	require.NoError(t, err)

	pending, err := svc.Issue(ctx, onlineIssueRequest(func(r *IssueRequest) {
		r.VerificationStatus = models.VerificationPending
		r.PhoneNumber = "9876543211"
	}))
	require.NoError(t, err)

	redeemed, err := svc.Issue(ctx, onlineIssueRequest(func(r *IssueRequest) {
		r.PhoneNumber = "9876543212"
	}))
	require.NoError(t, err)
	_, err = svc.Redeem(ctx, redeemed.CouponID, 1, "10.0.0.1")
	require.NoError(t, err)

	result, err := svc.Scan(ctx, EncodeQRPayload(valid.CouponID))
	require.NoError(t, err)
	assert.Equal(t, ScanResultValid, result.Result)
	require.NotNil(t, result.Coupon)

	result, err = svc.Scan(ctx, EncodeQRPayload(pending.CouponID))
	require.NoError(t, err)
	assert.Equal(t, ScanResultPending, result.Result)

	result, err = svc.Scan(ctx, EncodeQRPayload(redeemed.CouponID))
	require.NoError(t, err)
	assert.Equal(t, ScanResultRedeemed, result.Result)

	result, err = svc.Scan(ctx, `{"couponId":"WF2026NOPE99"}`)
	require.NoError(t, err)
	assert.Equal(t, ScanResultNotFound, result.Result)
	assert.Nil(t, result.Coupon)
}

func TestCouponService_Scan_BadPayload(t *testing.T) {
	db := setupCouponTestDB(t)
	svc := newTestCouponService(t, db)

	_, err := svc.Scan(context.Background(), "{broken")

	assert.ErrorIs(t, err, ErrInvalidQRPayload)
}
