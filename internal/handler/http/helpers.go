package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
)

type successEnvelope struct {
	Result resultBody `json:"result"`
}

type resultBody struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    rpc.Kind         `json:"code"`
	Message string           `json:"message"`
	Details []rpc.FieldError `json:"details,omitempty"`
}

// respondWithError writes err in the error envelope. Anything that is not
// an *rpc.Error is reported as a generic failure.
func respondWithError(w http.ResponseWriter, code int, err error) {
	body := errorBody{Code: rpc.KindDataAccess, Message: rpc.MsgOperationFailed}
	var e *rpc.Error
	if errors.As(err, &e) {
		body = errorBody{Code: e.Kind, Message: e.Message, Details: e.Fields}
	}
	respondWithJSON(w, code, errorEnvelope{Error: body})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("http: failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"OPERATION_FAILED","message":"operation failed"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("http: failed to write JSON response")
	}
}

func mapErrorToStatusCode(err error) int {
	switch rpc.KindOf(err) {
	case rpc.KindValidation:
		return http.StatusBadRequest
	case rpc.KindPrecondition:
		return http.StatusConflict
	case rpc.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
