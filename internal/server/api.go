package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/portion/internal/report"
	"github.com/leapstack-labs/portion/internal/state"
	"github.com/leapstack-labs/portion/pkg/document"
	"github.com/leapstack-labs/portion/pkg/parser"
	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/leapstack-labs/portion/pkg/unit"
)

const (
	maxRequestBody   = 8 << 20
	defaultListLimit = 50
	sessionName      = "portion"
	styleKey         = "style"
)

var errNoStore = errors.New("no state store configured")

type parseRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Style  string `json:"style"`
	Save   bool   `json:"save"`
}

type scaleRequest struct {
	Text   string `json:"text"`
	Factor string `json:"factor"`
	Style  string `json:"style"`
}

type scaleResponse struct {
	Text   string      `json:"text"`
	Factor ratio.Ratio `json:"factor"`
}

type preferences struct {
	Style string `json:"style"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	return json.NewDecoder(r.Body).Decode(v)
}

// style picks the unit style of a request: an explicit value, then the
// session preference, then the server default.
func (s *Server) style(r *http.Request, explicit string) (unit.Style, error) {
	if explicit != "" {
		return unit.ParseStyle(explicit)
	}
	if session, err := s.sessionStore.Get(r, sessionName); err == nil {
		if v, ok := session.Values[styleKey].(string); ok {
			if st, err := unit.ParseStyle(v); err == nil {
				return st, nil
			}
		}
	}
	return s.cfg.Style, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	style, err := s.style(r, req.Style)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Save && s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errNoStore)
		return
	}

	doc := document.ParseWith(s.parser, req.Text)
	s.metrics.ObserveDocument("api", doc)
	rep := report.New(req.Source, doc, style)

	if req.Save {
		rec := state.NewDocument(req.Source, doc, style)
		if err := s.store.SaveDocument(r.Context(), rec); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		rep.DocumentID = rec.ID
		s.notifier.Broadcast(notifierEvent(rec))
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleScale(w http.ResponseWriter, r *http.Request) {
	var req scaleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	style, err := s.style(r, req.Style)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Factor == "" {
		req.Factor = "1"
	}
	factor, err := parser.Factor(req.Factor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	doc := document.ParseWith(s.parser, req.Text)
	s.metrics.ObserveDocument("api", doc)
	writeJSON(w, http.StatusOK, scaleResponse{
		Text:   document.Scale(doc, factor, style),
		Factor: factor,
	})
}

func (s *Server) handleBest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	style, err := s.style(r, q.Get("style"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	best, err := report.NewBest(s.parser, q.Get("q"), style)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, best)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	style, err := s.style(r, q.Get("style"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	conv, err := report.Convert(s.parser, q.Get("q"), q.Get("to"), style)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	var filter *unit.Dimension
	if name := r.URL.Query().Get("dimension"); name != "" {
		d, err := unit.ParseDimension(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		filter = &d
	}

	units := report.Units(s.parser.Resolver(), filter)
	writeJSON(w, http.StatusOK, units)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	style, _ := s.style(r, "")
	writeJSON(w, http.StatusOK, preferences{Style: style.String()})
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferences
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	style, err := unit.ParseStyle(req.Style)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	session, _ := s.sessionStore.Get(r, sessionName)
	session.Values[styleKey] = style.String()
	if err := session.Save(r, w); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, preferences{Style: style.String()})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errNoStore)
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		limit = n
	}

	docs, err := s.store.ListDocuments(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if docs == nil {
		docs = []*state.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errNoStore)
		return
	}
	doc, err := s.store.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, state.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errNoStore)
		return
	}
	err := s.store.DeleteDocument(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, state.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
