package response

import "github.com/gin-gonic/gin"

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Meta       interface{} `json:"meta,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Paged returns a success response carrying list metadata
func Paged(statusCode int, data, meta interface{}) Response {
	r := Success(statusCode, data)
	r.Meta = meta
	return r
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// OK writes a success envelope with the given status
func OK(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Success(statusCode, data))
}

// Fail writes an error envelope and stops the handler chain
func Fail(c *gin.Context, statusCode int, err string) {
	c.AbortWithStatusJSON(statusCode, Error(statusCode, err))
}
