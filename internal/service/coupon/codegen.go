package coupon

import (
	"fmt"
	"time"

	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/crypto"
)

const (
	codePrefix  = "WF"
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeSuffix  = 6
)

// GenerateCode returns a candidate coupon code: "WF", the four digit
// year, then six random characters from A-Z0-9. Uniqueness is enforced
// by the database, callers retry on collision.
func GenerateCode(now time.Time) string {
	return fmt.Sprintf("%s%d%s", codePrefix, now.Year(), crypto.RandomString(codeCharset, codeSuffix))
}
