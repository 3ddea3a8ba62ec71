package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Nzyazin/invest/internal/core/logger"
	"github.com/Nzyazin/invest/internal/core/middleware"
	"github.com/Nzyazin/invest/internal/core/repository"
	"github.com/Nzyazin/invest/internal/core/session"
	"github.com/Nzyazin/invest/internal/core/usecase"
)

// GatewayFactory binds a backend gateway to the caller's session.
type GatewayFactory func(sess *session.Context) repository.BackendGateway

type ErrorResponse struct {
	Error string `json:"error"`
}

func requestSession(w http.ResponseWriter, r *http.Request) (*session.Context, bool) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok || !sess.IsAuthenticated() {
		respondWithError(w, http.StatusUnauthorized, repository.ErrUnauthorized.Error())
		return nil, false
	}
	return sess, true
}

// handleGatewayError maps backend and use case errors to a status code and
// the message the user should see.
func handleGatewayError(w http.ResponseWriter, log logger.Logger, op string, err error) {
	var apiErr *repository.APIError
	switch {
	case errors.Is(err, repository.ErrUnauthorized):
		log.Warn("Backend refused credential", logger.StringField("operation", op))
		respondWithError(w, http.StatusUnauthorized, repository.ErrUnauthorized.Error())
	case errors.Is(err, usecase.ErrPlanLocked):
		respondWithError(w, http.StatusForbidden, "This plan is locked")
	case errors.Is(err, usecase.ErrPlanNotFound):
		respondWithError(w, http.StatusNotFound, "Plan not found")
	case errors.As(err, &apiErr):
		log.Warn("Backend rejected request",
			logger.StringField("operation", op),
			logger.IntField("status", apiErr.StatusCode),
			logger.StringField("message", apiErr.Message))
		code := http.StatusBadRequest
		if apiErr.StatusCode >= http.StatusInternalServerError {
			code = http.StatusBadGateway
		}
		respondWithError(w, code, apiErr.Message)
	default:
		log.Error("Backend call failed", logger.StringField("operation", op), logger.ErrorField("error", err))
		respondWithError(w, http.StatusBadGateway, repository.ErrTransport.Error())
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal Server Error"}`)) // Fallback response
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
