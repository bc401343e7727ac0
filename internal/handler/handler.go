package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"ancillary-api/internal/model"

	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// requestLogger returns the request-scoped logger stored by the RequestID
// middleware, tagged with the handler name. Requests that did not pass
// through the middleware log through fallback.
func requestLogger(r *http.Request, fallback zerolog.Logger, name string) zerolog.Logger {
	l := zerolog.Ctx(r.Context())
	if l.GetLevel() == zerolog.Disabled {
		return fallback
	}
	return l.With().Str("handler", name).Logger()
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Warn().Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: http.StatusText(status), Code: code, Message: message})
}

// writeServiceError maps a service error to a response. Domain errors keep
// their status; anything else is logged and answered with fallback.
func writeServiceError(w http.ResponseWriter, err error, fallback int, fallbackMessage string, logger zerolog.Logger) {
	var de *model.DomainError
	if errors.As(err, &de) {
		switch de.Kind {
		case model.KindValidation, model.KindInvalidState:
			writeError(w, http.StatusBadRequest, de.Code, de.Message, logger)
			return
		case model.KindNotFound:
			writeError(w, http.StatusNotFound, de.Code, de.Message, logger)
			return
		}
	}

	logger.Error().Err(err).Int("status", fallback).Msg(fallbackMessage)
	code := model.ErrCodeInternalError
	if de != nil && de.Code != "" {
		code = de.Code
	}
	writeJSON(w, fallback, model.ErrorResponse{Error: http.StatusText(fallback), Code: code, Message: fallbackMessage})
}

// writeList writes items as a JSON array. Validation errors are reported;
// any other failure is logged and answered with an empty array.
func writeList[T any](w http.ResponseWriter, items []T, err error, message string, logger zerolog.Logger) {
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			writeServiceError(w, err, http.StatusBadRequest, message, logger)
			return
		}
		logger.Error().Err(err).Msg(message)
		items = nil
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger zerolog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var de *model.DomainError
		if errors.As(err, &de) {
			writeError(w, http.StatusBadRequest, de.Code, de.Message, logger)
			return false
		}
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}
