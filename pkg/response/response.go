package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess        = 0
	CodeParamError     = 400
	CodeUnauthorized   = 401
	CodeForbidden      = 403
	CodeNotFound       = 404
	CodeServerError    = 500
	CodeNotImplemented = 501
	CodeBusinessError  = 1000
)

// Business codes. The HTTP status stays 200; clients branch on Code.
const (
	CodeRequestNotFound     = 1001
	CodeAlreadyResolved     = 1002
	CodeBalanceNotEnough    = 1003
	CodeUserExists          = 1004
	CodeUserNotFound        = 1005
	CodeInvalidAmount       = 1006
	CodeTaskNotFound        = 1007
	CodeTransactionNotFound = 1008
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// Abort writes the envelope with an explicit HTTP status and stops the
// handler chain. Used by middleware.
func Abort(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

func BusinessError(c *gin.Context, code int, message string) {
	Error(c, code, message)
}

func NotImplemented(c *gin.Context, message string) {
	c.JSON(http.StatusNotImplemented, Response{
		Code:    CodeNotImplemented,
		Message: message,
	})
}
