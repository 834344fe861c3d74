package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Envelope is the one shape every endpoint answers with. Data and Error
// are mutually exclusive; Meta always carries the request id so client
// error reports can be matched against the logs.
type Envelope struct {
	Data  any      `json:"data"`
	Error *Problem `json:"error,omitempty"`
	Meta  Meta     `json:"metadata"`
}

// Problem is the error half of the envelope: a stable machine-readable
// code plus a human message, optionally with per-field details.
type Problem struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Meta carries request tracing information.
type Meta struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// Success sends data wrapped in the envelope.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Envelope{Data: data, Meta: meta(c)})
}

// Fail sends an error code with its canonical message.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, Envelope{
		Error: &Problem{Code: code, Message: GetMessage(code)},
		Meta:  meta(c),
	})
}

// FailWithFields sends an error code with per-field details attached,
// used for validation and readiness blockers.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, Envelope{
		Error: &Problem{Code: code, Message: GetMessage(code), Fields: fields},
		Meta:  meta(c),
	})
}

// AbortFail stops the middleware chain and sends an error envelope.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, Envelope{
		Error: &Problem{Code: code, Message: GetMessage(code)},
		Meta:  meta(c),
	})
}

func meta(c *gin.Context) Meta {
	id := c.GetString(ContextKeyRequestID)
	if id == "" {
		// Middleware not applied on this route; still emit something
		// correlatable.
		id = uuid.New().String()
	}
	return Meta{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
