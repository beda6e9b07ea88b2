package v1

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oysterfarm/books/internal/dictionary"
	"github.com/oysterfarm/books/internal/ledger"
	"github.com/oysterfarm/books/internal/service/journal"
)

func (s *Server) postEntry(w http.ResponseWriter, r *http.Request) {
	var req postEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	in, err := toEntryInput(req)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	entry, err := s.journalSvc.PostEntry(r.Context(), in)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	entriesPostedTotal.WithLabelValues(entry.TransactionType).Inc()
	toJSON(w, http.StatusCreated, toEntryResponse(entry))
}

// validateEntry runs the posting rules without persisting anything.
func (s *Server) validateEntry(w http.ResponseWriter, r *http.Request) {
	var req postEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	in, err := toEntryInput(req)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	verrs, err := s.journalSvc.Validate(r.Context(), in.Lines, in.TemplateKey)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if verrs == nil {
		verrs = []journal.ValidationError{}
	}
	toJSON(w, http.StatusOK, validationResultResponse{Valid: len(verrs) == 0, Violations: verrs})
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	kind := ledger.EntryKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = ledger.KindJournal
	}
	entries, err := s.journalSvc.ListEntries(r.Context(), kind)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid entry id")
		return
	}
	e, err := s.journalSvc.GetEntry(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toEntryResponse(e))
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid entry id")
		return
	}
	if err := s.journalSvc.DeleteEntry(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTemplates(w http.ResponseWriter, _ *http.Request) {
	tpls := dictionary.Templates()
	out := make([]templateResponse, 0, len(tpls))
	for _, t := range tpls {
		out = append(out, toTemplateResponse(t))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	t, ok := dictionary.TemplateByKey(key)
	if !ok {
		writeErr(w, http.StatusNotFound, "no template with key "+key, "not_found")
		return
	}
	toJSON(w, http.StatusOK, toTemplateResponse(t))
}
