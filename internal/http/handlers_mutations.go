package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"obras/internal/core"
	"obras/internal/store"
)

// Request bodies are capped well above any realistic record size.
const maxBodyBytes = 10 << 20

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeBadRequest(w, "failed to read request body")
		return nil, false
	}
	return body, true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	table, err := pathTable(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	rec, err := core.DecodeRecord(table, body)
	if err != nil {
		if errors.Is(err, core.ErrUnknownTable) {
			writeError(w, r, err)
		} else {
			writeBadRequest(w, err.Error())
		}
		return
	}

	stored, err := s.gateway.Create(r.Context(), table, rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	table, err := pathTable(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		writeBadRequest(w, "request body must be a JSON array")
		return
	}
	recs := make([]core.Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := core.DecodeRecord(table, raw)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		recs = append(recs, rec)
	}

	stored, err := s.gateway.CreateBatch(r.Context(), table, recs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	table, err := pathTable(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var fields store.Fields
	if err := json.Unmarshal(body, &fields); err != nil {
		writeBadRequest(w, "request body must be a JSON object")
		return
	}

	if err := s.gateway.Update(r.Context(), table, r.PathValue("id"), fields); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDelete removes one record. Deleting a project cascades over its
// child rows.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	table, err := pathTable(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := r.PathValue("id")

	if table == core.TableProjects {
		err = s.gateway.DeleteProjectCascade(r.Context(), id)
	} else {
		err = s.gateway.Delete(r.Context(), table, id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var settings core.Settings
	if err := json.Unmarshal(body, &settings); err != nil {
		writeBadRequest(w, "request body must be a settings object")
		return
	}
	if err := s.gateway.SaveSettings(r.Context(), settings); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.gateway.ExportJSON(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="obras-backup.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := s.gateway.ImportSnapshot(r.Context(), body); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.gateway.Reset(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
