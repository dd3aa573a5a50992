// Package handler provides shared helpers for API handlers: error
// handling, auth checks and parameter parsing.
package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/errors"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/response"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/utils"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/middleware"
)

// HandleError sends an error response for err and reports whether it did.
// Returns false when err is nil, meaning the caller can continue.
//
//	result, err := service.DoSomething(ctx)
//	if handler.HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(c, appErr.Code, appErr.Message)
		return true
	}
	response.InternalError(c, err.Error())
	return true
}

// HandleErrorWithMessage is HandleError with a custom message for
// non-AppError errors, hiding internal detail from the client.
func HandleErrorWithMessage(c *gin.Context, err error, message string) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(c, appErr.Code, appErr.Message)
		return true
	}
	response.InternalError(c, message)
	return true
}

// MustSucceed sends an error response on err, otherwise a success
// envelope with data. The caller must return after invoking it.
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedWithMessage is MustSucceed with a custom success message.
func MustSucceedWithMessage(c *gin.Context, err error, message string, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.SuccessWithMessage(c, message, data)
}

// MustSucceedPage is the paginated variant of MustSucceed.
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// RequireAdminID returns the authenticated admin id, sending a 401
// response and returning false when the request is not authenticated.
//
//	adminID, ok := handler.RequireAdminID(c)
//	if !ok {
//	    return
//	}
func RequireAdminID(c *gin.Context) (int64, bool) {
	adminID := middleware.GetAdminID(c)
	if adminID == 0 {
		response.Unauthorized(c, "login required")
		return 0, false
	}
	return adminID, true
}

// ParseCode reads the "code" path parameter as an uppercase coupon code.
// Sends a 400 response and returns false when it is missing.
func ParseCode(c *gin.Context) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	if code == "" {
		response.BadRequest(c, "coupon code required")
		return "", false
	}
	return code, true
}

// ParseID parses the path parameter "id" as int64.
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid "+resourceName+" id")
		return 0, false
	}
	return id, true
}

// BindPagination binds and normalizes paging query parameters.
// Defaults to page=1, page_size=20.
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	p.Normalize()
	return p
}
