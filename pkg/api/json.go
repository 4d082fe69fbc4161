package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/model"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 8 << 20

// Response is the envelope of every reply
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to write response",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, status int, msg string, data any) {
	h.writeJSON(w, r, status, Response{
		Success: false,
		Message: msg,
		Data:    data,
	})
}

// badRequest reports malformed requests. Validation errors name the first
// failing field.
func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fe := validationErrors[0]
		h.errorResponse(w, r, http.StatusBadRequest,
			fmt.Sprintf("field %s failed %q validation", fe.Namespace(), fe.Tag()), nil)
		return
	}
	h.errorResponse(w, r, http.StatusBadRequest, err.Error(), nil)
}

// invalidInput reports every problem of a rejected roster input
func (h *Handler) invalidInput(w http.ResponseWriter, r *http.Request, cfgErr *model.ConfigError) {
	problems := make([]string, 0, len(cfgErr.Problems))
	for _, p := range cfgErr.Problems {
		problems = append(problems, p.String())
	}
	h.errorResponse(w, r, http.StatusUnprocessableEntity, "invalid roster input", problems)
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("Internal server error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	h.errorResponse(w, r, http.StatusInternalServerError, "internal server error", nil)
}
