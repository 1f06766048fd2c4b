package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roomfinder/internal/domain"
	"github.com/kailas-cloud/roomfinder/internal/logger"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest            = "bad_request"
	CodeUnauthorized          = "unauthorized"
	CodeValidationFailed      = "validation_failed"
	CodeNotFound              = "not_found"
	CodeTimeout               = "timeout"
	CodeRateLimited           = "rate_limited"
	CodeEmbeddingProvider     = "embedding_provider_error"
	CodeStoreUnavailable      = "store_unavailable"
	CodeClassifierUnavailable = "classifier_unavailable"
	CodeInternalError         = "internal_error"
)

const (
	internalErrorMessage  = "internal error"
	searchTimedOutMessage = "search timed out"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// errorHandlers are consulted in order; rate limiting precedes provider errors
// because an upstream 429 carries both sentinels.
var errorHandlers = []errorHandler{
	validationHandler,
	sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, CodeTimeout),
	sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
	sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProvider),
	sentinelHandler(domain.ErrStoreUnavailable, http.StatusBadGateway, CodeStoreUnavailable),
	sentinelHandler(domain.ErrClassifierUnavailable, http.StatusBadGateway, CodeClassifierUnavailable),
	sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.String("stage", string(domain.StageOf(err))), zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, internalErrorMessage, domain.StageOf(err))
}

// validationHandler exposes the rejected field, which is safe to show to the client.
func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	msg := domain.ErrValidation.Error()
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Error()
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, msg, "")
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The client sees only the sentinel text, never the wrapped internals.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		if sentinel == domain.ErrTimeout {
			msg = searchTimedOutMessage
		}
		writeError(w, status, code, msg, domain.StageOf(err))
		return true
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, stage domain.Stage) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
		Stage:   string(stage),
	})
}
