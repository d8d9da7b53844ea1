package server

import (
	"context"
	"net/http"

	"github.com/leapstack-labs/portion/internal/server/notifier"
	"github.com/leapstack-labs/portion/internal/state"
	"github.com/leapstack-labs/portion/pkg/document"
	"github.com/leapstack-labs/portion/pkg/parser"
	"github.com/starfederation/datastar-go/datastar"
)

const pageDocuments = 20

// parseSignals are the scratch pad signals sent by the page.
type parseSignals struct {
	Text   string `json:"text"`
	Factor string `json:"factor"`
	Style  string `json:"style"`
}

func notifierEvent(rec *state.Document) notifier.Event {
	return notifier.Event{DocumentID: rec.ID, Source: rec.Source}
}

func (s *Server) recentDocuments(ctx context.Context) ([]*state.Document, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListDocuments(ctx, pageDocuments)
}

// handleIndex renders the scratch pad with the recent documents.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	style, _ := s.style(r, "")
	docs, err := s.recentDocuments(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page := IndexPage(indexView{
		Title:     "Scratch pad",
		Style:     style,
		Documents: docs,
		Stored:    s.store != nil,
	})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleUpdates is the long-lived SSE stream of the index page. It does not
// send an initial state; the page is rendered with it.
func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(updates)
	s.metrics.Subscribers.Inc()
	defer s.metrics.Subscribers.Dec()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			if s.store == nil {
				continue
			}
			docs, err := s.recentDocuments(ctx)
			if err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if err := sse.PatchElementTempl(DocumentList(docs)); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// handleUIParse parses the scratch pad text and patches the result view.
func (s *Server) handleUIParse(w http.ResponseWriter, r *http.Request) {
	// Signals must be read before the SSE writer takes over the request.
	var signals parseSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.PatchElementTempl(ResultView(resultView{Error: "Failed to read signals: " + err.Error()}))
		return
	}
	sse := datastar.NewSSE(w, r)

	style, err := s.style(r, signals.Style)
	if err != nil {
		_ = sse.PatchElementTempl(ResultView(resultView{Error: err.Error()}))
		return
	}
	if signals.Factor == "" {
		signals.Factor = "1"
	}
	factor, err := parser.Factor(signals.Factor)
	if err != nil {
		_ = sse.PatchElementTempl(ResultView(resultView{Error: err.Error()}))
		return
	}

	doc := document.ParseWith(s.parser, signals.Text)
	s.metrics.ObserveDocument("ui", doc)
	if err := sse.PatchElementTempl(ResultView(resultView{
		Doc:       doc,
		Style:     style,
		Converted: document.Scale(doc, factor, style),
		Factor:    factor.String(),
	})); err != nil {
		_ = sse.ConsoleError(err)
	}
}
