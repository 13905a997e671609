package transport

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/raywall/fast-simulator-toolkit/pkg/simulator"
)

type applyRequest struct {
	ScenarioID string `json:"scenario_id"`
}

func (s *Server) listScenarios(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	skip, limit, ok := page(w, r)
	if !ok {
		return
	}
	scs, err := s.opts.Service.ListScenarios(r.Context(), uid, skip, limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scs)
}

func (s *Server) createScenario(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	var in simulator.ScenarioInput
	if !decodeBody(w, r, &in) {
		return
	}
	sc, err := s.opts.Service.CreateScenario(r.Context(), uid, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (s *Server) getScenario(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	sc, err := s.opts.Service.GetScenario(r.Context(), uid, mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) updateScenario(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	var patch simulator.ScenarioPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	sc, err := s.opts.Service.UpdateScenario(r.Context(), uid, mux.Vars(r)["id"], patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) deleteScenario(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	if err := s.opts.Service.DeleteScenario(r.Context(), uid, mux.Vars(r)["id"]); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) scenariosBySimulator(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	scs, err := s.opts.Service.ListScenariosBySimulator(r.Context(), uid, mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scs)
}

func (s *Server) applyScenario(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	var req applyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ScenarioID == "" {
		writeError(w, http.StatusBadRequest, "scenario_id obrigatório")
		return
	}
	res, err := s.opts.Service.ApplyScenario(r.Context(), uid, req.ScenarioID, mux.Vars(r)["simulator_id"])
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) releaseScenario(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	res, err := s.opts.Service.ReleaseScenario(r.Context(), uid, mux.Vars(r)["simulator_id"])
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) currentResponse(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	cur, err := s.opts.Service.CurrentResponse(r.Context(), uid, mux.Vars(r)["id"], s.opts.Clock())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}
