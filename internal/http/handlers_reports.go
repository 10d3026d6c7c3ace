package http

import (
	"net/http"

	"obras/internal/ledger"
)

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loader.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loader.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger.Dashboard(snap))
}

type projectReportsResponse struct {
	Projects []ledger.ProjectReport `json:"projects"`
	Totals   ledger.ProjectTotals   `json:"totals"`
}

func (s *Server) handleProjectReports(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loader.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows := ledger.ProjectReports(snap)
	writeJSON(w, http.StatusOK, projectReportsResponse{
		Projects: rows,
		Totals:   ledger.SumProjectReports(rows),
	})
}

type collaboratorReportsResponse struct {
	Collaborators []ledger.CollaboratorReport `json:"collaborators"`
}

func (s *Server) handleCollaboratorReports(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loader.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collaboratorReportsResponse{
		Collaborators: ledger.CollaboratorReports(snap),
	})
}

func (s *Server) handleProjectReport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loader.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	project, ok := snap.ProjectByID(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "project not found"})
		return
	}
	writeJSON(w, http.StatusOK, ledger.ProjectRow(project, snap))
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loader.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Settings)
}
