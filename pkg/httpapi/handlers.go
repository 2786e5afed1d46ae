package httpapi

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/store"
)

const maxBodyBytes = 1 << 20

type formSummary struct {
	Handle string `json:"handle"`
	Title  string `json:"title,omitempty"`
	Store  bool   `json:"store"`
}

type formDetail struct {
	Form     model.FormDefinition `json:"form"`
	Defaults model.SubmissionData `json:"defaults"`
	Honeypot honeypotDetail       `json:"honeypot"`
	Visible  []string             `json:"visible"`
}

type honeypotDetail struct {
	Handle string `json:"handle"`
	ID     string `json:"id"`
}

type submitResponse struct {
	Success bool                 `json:"success"`
	Data    model.SubmissionData `json:"data"`
	Visible []string             `json:"visible,omitempty"`
}

type validateResponse struct {
	Field  string   `json:"field"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func (s *Server) listForms(w http.ResponseWriter, _ *http.Request) {
	all := s.catalog.All()
	out := make([]formSummary, 0, len(all))
	for _, form := range all {
		out = append(out, formSummary{Handle: form.Handle, Title: form.Title, Store: form.Store})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getForm(w http.ResponseWriter, r *http.Request) {
	c, err := s.component(chi.URLParam(r, "handle"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	c.Mount()
	visible, err := c.Visible()
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, formDetail{
		Form:     c.Form(),
		Defaults: c.Data(),
		Honeypot: honeypotDetail{Handle: c.Honeypot().Handle, ID: c.Honeypot().ID},
		Visible:  visible,
	})
}

// submit answers 200 for success and for silent failures alike.
func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	c, err := s.component(chi.URLParam(r, "handle"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	data, err := decodeBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	c.Fill(data)

	result, err := c.Submit(r.Context(), r.Referer())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Success: c.Flash(),
		Data:    result.Data,
		Visible: result.Visible,
	})
}

func (s *Server) validateField(w http.ResponseWriter, r *http.Request) {
	c, err := s.component(chi.URLParam(r, "handle"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	field := chi.URLParam(r, "field")

	// Body: {"value": ..., "data": {...current values...}}
	body, err := decodeBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	current, _ := body["data"].(map[string]any)
	c.Fill(current)

	messages, err := realtime(r.Context(), c, field, body["value"])
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	status := http.StatusOK
	if len(messages) > 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, validateResponse{Field: field, Valid: len(messages) == 0, Errors: messages})
}

// decodeBody reads a JSON object. Whole numbers decode as int.
func decodeBody(r *http.Request) (model.SubmissionData, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return model.SubmissionData{}, nil
	}
	return store.DecodeData(raw)
}
