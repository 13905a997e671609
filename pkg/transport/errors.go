package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/raywall/fast-simulator-toolkit/pkg/analytics"
	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
	"github.com/raywall/fast-simulator-toolkit/pkg/pattern"
	"github.com/raywall/fast-simulator-toolkit/pkg/simulator"
	"github.com/raywall/fast-simulator-toolkit/pkg/store"
)

// statusFor traduz erros de domínio em códigos HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, simulator.ErrNoAppliedScenario):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, simulator.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, simulator.ErrValidation),
		errors.Is(err, simulator.ErrScenarioInactive),
		errors.Is(err, simulator.ErrScenarioApplied),
		errors.Is(err, failure.ErrInvalidConfiguration),
		errors.Is(err, analytics.ErrInsufficientData),
		errors.Is(err, analytics.ErrInvalidInput),
		errors.Is(err, pattern.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Msg("Erro interno")
		writeError(w, status, "erro interno do servidor")
		return
	}
	writeError(w, status, err.Error())
}
