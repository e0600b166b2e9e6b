package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/gin-gonic/gin"
)

const internalMessage = "Something went wrong. Please try again later."

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrDuplicateName),
		errors.Is(err, common.ErrDuplicateEmail),
		errors.Is(err, common.ErrInvalidOTP),
		errors.Is(err, common.ErrNoOTPRecord),
		errors.Is(err, common.ErrOTPNotVerified),
		errors.Is(err, common.ErrNoFile):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrBlobMissing):
		return http.StatusNotFound
	case errors.Is(err, common.ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers {"success": false, "message": ...}. subject names the
// missing thing in 404 messages ("Folder", "File", "User").
func (s *Server) writeError(c *gin.Context, err error, subject string) {
	status := statusFor(err)
	body := gin.H{"success": false}

	var cascade *common.CascadeError
	var validation *common.ValidationError
	switch {
	case errors.As(err, &cascade):
		body["message"] = "Error deleting folder or files"
		body["remaining"] = cascade.Remaining
		body["retryable"] = cascade.Retryable()
	case errors.As(err, &validation):
		body["message"] = validation.Reason
	case status == http.StatusNotFound && errors.Is(err, common.ErrorNotFound) && subject != "":
		body["message"] = subject + " not found"
	case status == http.StatusServiceUnavailable:
		body["message"] = common.ErrTimeout.Error()
		body["retryable"] = true
	case errors.Is(err, common.ErrBlobDelete):
		body["message"] = common.ErrBlobDelete.Error()
	case status == http.StatusInternalServerError:
		body["message"] = internalMessage
	default:
		body["message"] = rootMessage(err)
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, body)
}

// rootMessage returns the text of the first known sentinel in err's chain.
func rootMessage(err error) string {
	for _, known := range []error{
		common.ErrDuplicateName, common.ErrDuplicateEmail, common.ErrInvalidOTP,
		common.ErrNoOTPRecord, common.ErrOTPNotVerified, common.ErrNoFile,
		common.ErrInvalidCredentials, common.ErrInvalidToken, common.ErrTokenExpired,
		common.ErrorUnauthorized, common.ErrBlobMissing, common.ErrorNotFound,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}
