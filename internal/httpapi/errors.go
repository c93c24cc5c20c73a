package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/logo-gallery/internal/guard"
)

// statusFor maps the guard's error taxonomy to an HTTP status.
func statusFor(err error) int {
	var (
		verr *guard.ValidationError
		cerr *guard.ConflictError
	)
	switch {
	case errors.As(err, &cerr):
		return http.StatusConflict
	case errors.As(err, &verr):
		if verr.Reason == guard.ReasonDuplicate || verr.Reason == guard.ReasonSimilar {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	var (
		verr *guard.ValidationError
		cerr *guard.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(status, ErrorResponse{Error: verr.Message, Reason: string(verr.Reason), SimilarityInfo: verr.Similarity})
	case errors.As(err, &cerr):
		c.JSON(status, ErrorResponse{Error: "Duplicate file detected", Reason: string(guard.ReasonDuplicate)})
	default:
		// Storage details stay in the logs.
		c.JSON(status, ErrorResponse{Error: "Internal server error"})
	}
}
