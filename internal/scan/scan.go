// Package scan loads and parses many inputs concurrently.
package scan

import (
	"context"
	"log/slog"
	"time"

	"github.com/leapstack-labs/portion/internal/source"
	"github.com/leapstack-labs/portion/pkg/document"
	"github.com/leapstack-labs/portion/pkg/parser"
	"golang.org/x/sync/errgroup"
)

// Result is one scanned input.
type Result struct {
	Name     string
	Doc      *document.Document
	Duration time.Duration
}

// Scanner parses inputs with a shared parser.
type Scanner struct {
	Parser      *parser.Parser
	Loader      *source.Loader
	Concurrency int
	Logger      *slog.Logger
}

// Files loads and parses names with at most Concurrency inputs in flight.
// Results keep the order of names. The first load error cancels the rest.
func (s *Scanner) Files(ctx context.Context, names []string) ([]Result, error) {
	results := make([]Result, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Concurrency, 1))
	for i, name := range names {
		g.Go(func() error {
			in, err := s.loader().Load(gctx, name)
			if err != nil {
				return err
			}
			results[i] = s.Text(in.Name, in.Text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Text parses one already loaded text.
func (s *Scanner) Text(name, text string) Result {
	start := time.Now()
	doc := document.ParseWith(s.parser(), text)
	elapsed := time.Since(start)

	s.logger().Debug("scanned input",
		slog.String("name", name),
		slog.Int("tokens", len(doc.Tokens)),
		slog.Int("diagnostics", len(doc.Diagnostics)),
		slog.Duration("elapsed", elapsed))

	return Result{Name: name, Doc: doc, Duration: elapsed}
}

func (s *Scanner) parser() *parser.Parser {
	if s.Parser == nil {
		return parser.New()
	}
	return s.Parser
}

func (s *Scanner) loader() *source.Loader {
	if s.Loader == nil {
		return source.NewLoader()
	}
	return s.Loader
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
