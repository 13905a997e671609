package transport

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/raywall/fast-simulator-toolkit/pkg/analytics"
	"github.com/raywall/fast-simulator-toolkit/pkg/failure"
)

type simulateRequest struct {
	OriginalParams  failure.ParameterMap   `json:"original_params"`
	AdvancedConfig  failure.AdvancedConfig `json:"advanced_config"`
	DurationSeconds int                    `json:"duration_seconds"`
	SampleRate      int                    `json:"sample_rate"`
}

type predictRequest struct {
	History       []float64 `json:"history"`
	Threshold     float64   `json:"threshold"`
	ParameterName string    `json:"parameter_name"`
	FutureSteps   int       `json:"future_steps"`
}

type predictResponse struct {
	ParameterName string `json:"parameter_name"`
	analytics.Prediction
}

func (s *Server) pattern(w http.ResponseWriter, r *http.Request) {
	base, err := queryFloat(r, "base_value", 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	duration, err := queryInt(r, "duration_seconds", 60)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rate, err := queryInt(r, "sample_rate", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := analytics.PatternReport(base, mux.Vars(r)["type"], duration, rate, s.opts.Service.Engine().Random())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) simulateAdvanced(w http.ResponseWriter, r *http.Request) {
	req := simulateRequest{DurationSeconds: 60, SampleRate: 1}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.OriginalParams) == 0 {
		writeError(w, http.StatusBadRequest, "original_params obrigatório")
		return
	}

	sim, err := analytics.SimulateAdvanced(req.OriginalParams, req.AdvancedConfig, req.DurationSeconds, req.SampleRate,
		s.opts.Clock(), failure.WithRandom(s.opts.Service.Engine().Random()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

func (s *Server) predictFailure(w http.ResponseWriter, r *http.Request) {
	req := predictRequest{FutureSteps: 10}
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := analytics.Forecast(req.History, req.Threshold, req.FutureSteps)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{ParameterName: req.ParameterName, Prediction: p})
}

func (s *Server) failureTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"failure_types": failure.FailureCatalog()})
}

func (s *Server) noiseTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"noise_types": failure.NoiseCatalog()})
}

func (s *Server) testEngine(w http.ResponseWriter, r *http.Request) {
	res, err := analytics.Demo(s.opts.Clock())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// history devolve os registros de perturbação mais recentes.
func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil || limit <= 0 {
		writeError(w, http.StatusBadRequest, "parâmetro 'limit' deve ser inteiro positivo")
		return
	}
	recs, err := s.opts.History.Recent(r.Context(), limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
