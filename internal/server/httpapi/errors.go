package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/dmitrijs2005/neuroresume/internal/logging"
	"github.com/gin-gonic/gin"
)

// Error codes carried in the envelope.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeNotFound           = "NOT_FOUND"
	CodeDuplicateIdentity  = "DUPLICATE_IDENTITY"
	CodeSessionClosed      = "SESSION_CLOSED"
	CodeAlreadyCompleted   = "ALREADY_COMPLETED"
	CodeUpstreamFailure    = "UPSTREAM_FAILURE"
	CodeUpstreamTimeout    = "UPSTREAM_TIMEOUT"
	CodeNotSupported       = "NOT_SUPPORTED"
	CodeInternal           = "INTERNAL_ERROR"
)

type errorResponse struct {
	Code          string            `json:"code"`
	Message       string            `json:"message"`
	Details       map[string]string `json:"details,omitempty"`
	CorrelationID string            `json:"correlationId,omitempty"`
}

type errorKind struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters: the first matching kind wins.
var errorKinds = []errorKind{
	{common.ErrValidation, http.StatusBadRequest, CodeValidation, "validation failed"},
	{common.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials, "invalid username or password"},
	{common.ErrInvalidToken, http.StatusUnauthorized, CodeInvalidToken, "invalid or expired token"},
	{common.ErrTokenExpired, http.StatusUnauthorized, CodeInvalidToken, "invalid or expired token"},
	{common.ErrorUnauthorized, http.StatusUnauthorized, CodeUnauthenticated, "authentication required"},
	{common.ErrorNotFound, http.StatusNotFound, CodeNotFound, "resource not found"},
	{common.ErrDuplicateIdentity, http.StatusConflict, CodeDuplicateIdentity, "username or email already registered"},
	{common.ErrSessionClosed, http.StatusConflict, CodeSessionClosed, "session is completed and accepts no messages"},
	{common.ErrAlreadyCompleted, http.StatusConflict, CodeAlreadyCompleted, "session is already completed"},
	{common.ErrUpstreamTimeout, http.StatusGatewayTimeout, CodeUpstreamTimeout, "upstream service timed out"},
	{common.ErrUpstreamFailure, http.StatusBadGateway, CodeUpstreamFailure, "upstream service failed"},
	{common.ErrNotSupported, http.StatusNotImplemented, CodeNotSupported, "not supported by this server"},
}

// writeError renders err as the error envelope and aborts the chain.
// Unclassified errors are logged and answered with a correlation id.
func writeError(c *gin.Context, logger logging.Logger, err error) {
	ctx := c.Request.Context()
	log := logging.FromContext(ctx, logger)

	for _, k := range errorKinds {
		if !errors.Is(err, k.target) {
			continue
		}
		resp := errorResponse{Code: k.code, Message: k.message}
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			resp.Details = verr.Fields
		}
		if k.status >= http.StatusInternalServerError {
			log.Warn(ctx, "upstream error", "error", err, "path", c.Request.URL.Path)
		}
		c.AbortWithStatusJSON(k.status, resp)
		return
	}

	log.Error(ctx, "internal server error", "error", err, "path", c.Request.URL.Path)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
		Code:          CodeInternal,
		Message:       "internal server error",
		CorrelationID: requestID(c),
	})
}
