package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"Ventosa/internal/catalog"
	"Ventosa/internal/session"

	"go.uber.org/zap"
)

type Input struct {
	Project string `json:"project"`
	Author  string `json:"author"`
	Title   string `json:"title"`
	Notes   string `json:"notes"`
	catalog.SearchRequest
}

type Handler struct {
	Catalog  catalog.Catalog
	Policy   catalog.TolerancePolicy
	Sessions *session.Store
	Log      *zap.Logger
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	st := h.Sessions.Load(r)
	crit, policy, err := catalog.Resolve(st, input.SearchRequest, h.Policy)
	if errors.Is(err, catalog.ErrNoForce) {
		http.Error(w, "Determine the suction force first", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	err = Render(&buf, Document{
		Title:    input.Title,
		Project:  input.Project,
		Author:   input.Author,
		Notes:    input.Notes,
		Date:     time.Now(),
		State:    st,
		Criteria: crit,
		Policy:   policy,
		Result:   h.Catalog.Filter(crit, policy),
	})
	if err != nil {
		h.Log.Error("render report", zap.Error(err))
		http.Error(w, "Report generation error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"ventosas.pdf\"")
	w.Write(buf.Bytes())
}
