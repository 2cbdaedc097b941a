package response

import (
	"encoding/json"
	"net/http"

	apperror "github.com/chtmcooks/auth-service/domain/error"
	"github.com/chtmcooks/auth-service/infrastructure/service/logger"
)

type Envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Code    string      `json:"code,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	WriteJSON(w, statusCode, Envelope{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

func Error(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, Envelope{
		Status:  false,
		Message: message,
	})
}

// FromError writes err using its application error code. Anything that is not an
// AppError is reported as an internal error without its text.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.AsAppError(err)
	WriteJSON(w, apperror.GetHTTPStatusCode(appErr), Envelope{
		Status:  false,
		Message: appErr.Message,
		Code:    string(appErr.Code),
		TraceID: logger.CorrelationID(r.Context()),
	})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}
