package server

import (
	_ "embed"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
)

//go:embed static/app.js
var appJS string

// minifyJS minifies browser JavaScript with esbuild.
func minifyJS(src string) (string, error) {
	result := api.Transform(src, api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            api.ES2020,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		var msgs []string
		for _, err := range result.Errors {
			if err.Location == nil {
				msgs = append(msgs, err.Text)
				continue
			}
			msgs = append(msgs, fmt.Sprintf("%d:%d: %s", err.Location.Line, err.Location.Column, err.Text))
		}
		return "", fmt.Errorf("esbuild errors:\n%s", strings.Join(msgs, "\n"))
	}
	return string(result.Code), nil
}

var minifiedAppJS = sync.OnceValues(func() (string, error) {
	return minifyJS(appJS)
})

func (s *Server) handleAppJS(w http.ResponseWriter, _ *http.Request) {
	js, err := minifiedAppJS()
	if err != nil {
		s.logger.Error("failed to minify app.js", "error", err)
		js = appJS
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(js))
}
