package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/errors"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/response"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/middleware"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/service/coupon"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func createTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func createTestContextWithParam(name, value string) (*gin.Context, *httptest.ResponseRecorder) {
	c, w := createTestContext()
	c.Params = gin.Params{{Key: name, Value: value}}
	return c, w
}

func createTestContextWithQuery(query string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return c, w
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func TestHandleError_NilError(t *testing.T) {
	c, _ := createTestContext()

	assert.False(t, HandleError(c, nil))
}

func TestHandleError_AppError(t *testing.T) {
	c, w := createTestContext()

	handled := HandleError(c, errors.ErrCouponNotFound)

	assert.True(t, handled)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(w)
	assert.Equal(t, errors.ErrCouponNotFound.Code, resp.Code)
}

// Service sentinels are AppErrors, so domain failures reaching the
// shared helpers carry their stable codes to the client.
func TestHandleError_ServiceSentinel(t *testing.T) {
	c, w := createTestContext()

	handled := HandleError(c, coupon.ErrCouponAlreadyRedeemed)

	assert.True(t, handled)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(w)
	assert.Equal(t, errors.ErrCouponAlreadyRedeemed.Code, resp.Code)
}

func TestHandleError_GenericError(t *testing.T) {
	c, w := createTestContext()

	handled := HandleError(c, assert.AnError)

	assert.True(t, handled)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleErrorWithMessage(t *testing.T) {
	c, w := createTestContext()

	HandleErrorWithMessage(c, assert.AnError, "operation failed")

	resp := parseResponse(w)
	assert.Equal(t, "operation failed", resp.Message)
}

func TestMustSucceed_Success(t *testing.T) {
	c, w := createTestContext()

	MustSucceed(c, nil, gin.H{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(w)
	assert.Equal(t, 0, resp.Code)
}

func TestMustSucceedPage(t *testing.T) {
	c, w := createTestContext()

	MustSucceedPage(c, nil, []string{"a"}, 10, 1, 20)

	resp := parseResponse(w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(10), data["total"])
}

func TestRequireAdminID_Authenticated(t *testing.T) {
	c, _ := createTestContext()
	c.Set(middleware.ContextKeyAdminID, int64(42))

	adminID, ok := RequireAdminID(c)

	assert.True(t, ok)
	assert.Equal(t, int64(42), adminID)
}

func TestRequireAdminID_NotAuthenticated(t *testing.T) {
	c, w := createTestContext()

	_, ok := RequireAdminID(c)

	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestParseCode(t *testing.T) {
	c, _ := createTestContextWithParam("code", " wf2026ab12cd ")

	code, ok := ParseCode(c)

	assert.True(t, ok)
	assert.Equal(t, "WF2026AB12CD", code)
}

func TestParseCode_Missing(t *testing.T) {
	c, w := createTestContextWithParam("code", "")

	_, ok := ParseCode(c)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseID_Valid(t *testing.T) {
	c, _ := createTestContextWithParam("id", "12345")

	id, ok := ParseID(c, "coupon")

	assert.True(t, ok)
	assert.Equal(t, int64(12345), id)
}

func TestParseID_Invalid(t *testing.T) {
	c, w := createTestContextWithParam("id", "invalid")

	_, ok := ParseID(c, "coupon")

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBindPagination_Defaults(t *testing.T) {
	c, _ := createTestContextWithQuery("")

	p := BindPagination(c)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
}

func TestBindPagination_Normalize(t *testing.T) {
	c, _ := createTestContextWithQuery("page=-1&page_size=999")

	p := BindPagination(c)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 200, p.PageSize)
}
