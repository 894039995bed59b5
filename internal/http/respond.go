package http

import (
	"encoding/json"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/loader"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// LoadFailure is how a failed loader is rendered.
type LoadFailure struct {
	Kind    loader.FailureKind `json:"kind"`
	Message string             `json:"message"`
}

// LoadResponse wraps any remote resource with its loading status.
type LoadResponse[T any] struct {
	Status loader.Status `json:"status"`
	Data   *T            `json:"data,omitempty"`
	Error  *LoadFailure  `json:"error,omitempty"`
}

func loadResponse[S, T any](state loader.State[S], render func(S) T) LoadResponse[T] {
	resp := LoadResponse[T]{Status: state.Status}
	if v, ok := state.Loaded(); ok {
		data := render(v)
		resp.Data = &data
	}
	if state.Failure != nil {
		resp.Error = &LoadFailure{Kind: state.Failure.Kind, Message: state.Failure.Message}
	}
	return resp
}

// statusFor maps a loader status onto the HTTP status of a read.
func statusFor(s loader.Status) int {
	if s == loader.StatusLoading || s == loader.StatusNotStarted {
		return http.StatusAccepted
	}
	return http.StatusOK
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}
