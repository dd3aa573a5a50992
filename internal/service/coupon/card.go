package coupon

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/wafflefiesta/waffle-fiesta-backend/internal/models"
)

// CardPDF renders a printable A6 coupon card with the QR code, for
// attendees who want a paper copy.
func (s *CouponService) CardPDF(ctx context.Context, code string) ([]byte, error) {
	coupon, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	png, err := s.qrGen.GeneratePNG(EncodeQRPayload(coupon.CouponID))
	if err != nil {
		return nil, err
	}

	return renderCard(coupon, png)
}

func renderCard(coupon *models.Coupon, qrPNG []byte) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A6", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Waffle Fiesta", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Waffle Coupon", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pageW, _ := pdf.GetPageSize()
	qrSize := 50.0
	pdf.ImageOptions("qr", (pageW-qrSize)/2, pdf.GetY(), qrSize, qrSize, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + qrSize + 4)

	pdf.SetFont("Courier", "B", 14)
	pdf.CellFormat(0, 8, coupon.CouponID, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, coupon.CustomerName, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Rs. %.2f", coupon.Amount), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "I", 8)
	pdf.Ln(2)
	pdf.CellFormat(0, 5, "Show this code at the counter to collect your waffle.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render coupon card: %w", err)
	}
	return buf.Bytes(), nil
}
