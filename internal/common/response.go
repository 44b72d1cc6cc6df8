// File: internal/common/response.go
package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AckResponse is the body providers receive when a delivery is accepted.
type AckResponse struct {
	Message string `json:"message"`
}

// RespondWithError sends a JSON error response. Errors that are not APIErrors are
// reported as a generic 500 without their text, so internals never leak to callers.
func RespondWithError(c *gin.Context, err error) {
	apiErr, ok := IsAPIError(err)
	if !ok {
		_ = c.Error(err)
		apiErr = ErrInternalServer
	}
	c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
}

// RespondAck sends 200 {"message":"ok"}.
func RespondAck(c *gin.Context) {
	c.JSON(http.StatusOK, AckResponse{Message: "ok"})
}
