package response

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the machine-readable error envelope every endpoint uses.
// Error is a stable reason code for clients to branch on; Detail is
// free-form context for operators.
type ErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Error sends an error response with a reason code.
func Error(c *gin.Context, statusCode int, code, detail string) {
	c.JSON(statusCode, ErrorBody{Error: code, Detail: detail})
}

// OK sends a 200 response with the given payload.
func OK(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}
