// File: internal/middleware/rawbody.go
package middleware

import (
	"errors"
	"io"
	"net/http"

	"identity_sync_backend/internal/common"

	"github.com/gin-gonic/gin"
)

// RawBodyContextKey is the Gin context key holding the unparsed request body.
const RawBodyContextKey = "rawBody"

// RawBody buffers the request body exactly as received, capped at maxBytes.
// Signature checks need the original bytes, so it is mounted only on routes that verify
// them and no other middleware may consume the body before it.
func RawBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				common.RespondWithError(c, common.ErrPayloadTooLarge)
				return
			}
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("The request body could not be read."))
			return
		}
		c.Set(RawBodyContextKey, body)
		c.Next()
	}
}

// RawBodyFromContext returns the bytes stored by RawBody.
func RawBodyFromContext(c *gin.Context) ([]byte, bool) {
	v, ok := c.Get(RawBodyContextKey)
	if !ok {
		return nil, false
	}
	body, ok := v.([]byte)
	return body, ok
}
