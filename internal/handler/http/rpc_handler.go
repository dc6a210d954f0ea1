package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/rpc"
)

const maxBodyBytes = 1 << 20

// RPCHandler exposes a procedure registry over HTTP: queries are called
// with GET and a JSON "input" query parameter, mutations with POST and a
// JSON body.
type RPCHandler struct {
	registry *rpc.Registry
}

func NewRPCHandler(registry *rpc.Registry) *RPCHandler {
	return &RPCHandler{registry: registry}
}

func (h *RPCHandler) RegisterRoutes(router chi.Router) {
	router.Get("/{procedure}", h.handleCall)
	router.Post("/{procedure}", h.handleCall)
}

func (h *RPCHandler) handleCall(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "procedure")

	proc, ok := h.registry.Lookup(name)
	if !ok {
		log.Warn().Str("procedure", name).Msg("http: unknown procedure")
		respondWithError(w, http.StatusNotFound, rpc.ProcedureNotFound(name))
		return
	}

	want := http.MethodGet
	if proc.Type == rpc.TypeMutation {
		want = http.MethodPost
	}
	if r.Method != want {
		w.Header().Set("Allow", want)
		respondWithError(w, http.StatusMethodNotAllowed,
			rpc.InvalidField("method", string(proc.Type)+" procedures must be called with "+want))
		return
	}

	var raw json.RawMessage
	if r.Method == http.MethodGet {
		if input := r.URL.Query().Get("input"); input != "" {
			raw = json.RawMessage(input)
		}
	} else {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			log.Warn().Err(err).Str("procedure", name).Msg("http: failed to read request body")
			respondWithError(w, http.StatusBadRequest, rpc.InvalidField("input", "unreadable request body"))
			return
		}
		raw = body
	}

	result, err := h.registry.Call(r.Context(), name, raw)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), err)
		return
	}

	respondWithJSON(w, http.StatusOK, successEnvelope{Result: resultBody{Data: result}})
}
