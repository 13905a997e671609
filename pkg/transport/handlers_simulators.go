package transport

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/raywall/fast-simulator-toolkit/pkg/simulator"
)

func (s *Server) simulatorData(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	resp, err := s.opts.Service.GetSimulatorData(r.Context(), vars["user_id"], vars["simulator_name"], s.opts.Clock())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listSimulators(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	skip, limit, ok := page(w, r)
	if !ok {
		return
	}
	sims, err := s.opts.Service.ListSimulators(r.Context(), uid, skip, limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sims)
}

func (s *Server) createSimulator(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	var in simulator.SimulatorInput
	if !decodeBody(w, r, &in) {
		return
	}
	sim, err := s.opts.Service.CreateSimulator(r.Context(), uid, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sim)
}

func (s *Server) getSimulator(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	sim, err := s.opts.Service.GetSimulator(r.Context(), uid, mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

func (s *Server) updateSimulator(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	var patch simulator.SimulatorPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	sim, err := s.opts.Service.UpdateSimulator(r.Context(), uid, mux.Vars(r)["id"], patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

func (s *Server) deleteSimulator(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	if err := s.opts.Service.DeleteSimulator(r.Context(), uid, mux.Vars(r)["id"]); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleSimulator(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	sim, err := s.opts.Service.ToggleSimulator(r.Context(), uid, mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

// page lê skip e limit da query string.
func page(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	skip, err := queryInt(r, "skip", 0)
	if err == nil && skip < 0 {
		err = fmt.Errorf("parâmetro 'skip' não pode ser negativo")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	return skip, limit, true
}
