package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	bankdomain "github.com/novotnytom/ocrinvoices/internal/bank/domain"
	"github.com/novotnytom/ocrinvoices/internal/batch"
	"github.com/novotnytom/ocrinvoices/internal/ocr"
	overviewdomain "github.com/novotnytom/ocrinvoices/internal/overview/domain"
	profiledomain "github.com/novotnytom/ocrinvoices/internal/profile/domain"
	queuedomain "github.com/novotnytom/ocrinvoices/internal/queue/domain"
)

type apiError struct {
	status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string { return e.Message }

func invalidRequestError() *apiError {
	return &apiError{status: http.StatusBadRequest, Code: "invalid_request", Message: "invalid request"}
}

func newValidationError(code, message string) *apiError {
	return &apiError{status: http.StatusBadRequest, Code: code, Message: message}
}

var notFoundErrors = []error{
	profiledomain.ErrNotFound,
	profiledomain.ErrImageNotFound,
	queuedomain.ErrNotFound,
	queuedomain.ErrImageNotFound,
	overviewdomain.ErrNotFound,
	bankdomain.ErrBatchNotFound,
	bankdomain.ErrOperationNotFound,
	batch.ErrImageNotFound,
}

var badRequestErrors = []error{
	profiledomain.ErrInvalidName,
	profiledomain.ErrInvalidZones,
	queuedomain.ErrInvalidName,
	overviewdomain.ErrMissingID,
	overviewdomain.ErrInvalidID,
	bankdomain.ErrInvalidName,
	bankdomain.ErrInvalidXML,
	batch.ErrInvalidZip,
	ocr.ErrInvalidImage,
}

// AbortWithError maps domain errors onto HTTP statuses. Storage corruption is
// reported distinctly so operators can tell it from plain failures.
func AbortWithError(c *gin.Context, err error) {
	var api *apiError
	if errors.As(err, &api) {
		c.AbortWithStatusJSON(api.status, gin.H{"error": api})
		return
	}

	for _, sentinel := range notFoundErrors {
		if errors.Is(err, sentinel) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": gin.H{
				"code":    "not_found",
				"message": err.Error(),
			}})
			return
		}
	}

	for _, sentinel := range badRequestErrors {
		if errors.Is(err, sentinel) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": gin.H{
				"code":    "bad_request",
				"message": err.Error(),
			}})
			return
		}
	}

	if errors.Is(err, queuedomain.ErrCorrupted) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "storage_corrupted",
			"message": err.Error(),
		}})
		return
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": gin.H{
		"code":    "internal_error",
		"message": "internal error",
	}})
}
