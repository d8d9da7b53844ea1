// Package source loads the texts portion scans: files, standard input and
// web pages. HTML is decoded to UTF-8 and reduced to markdown text first.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Stdin is the name that selects standard input.
const Stdin = "-"

// maxBody caps how much of a file or page is read.
const maxBody = 8 << 20

// Input is a loaded text.
type Input struct {
	Name string
	Text string
}

// Loader reads inputs.
type Loader struct {
	// HTML forces HTML handling regardless of extension or content type.
	HTML   bool
	Client *http.Client
	Stdin  io.Reader
}

// NewLoader returns a loader with a 30 second HTTP timeout.
func NewLoader() *Loader {
	return &Loader{
		Client: &http.Client{Timeout: 30 * time.Second},
		Stdin:  os.Stdin,
	}
}

// IsURL reports whether name is an http or https URL.
func IsURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

// Load reads name, which is "-", a URL or a file path.
func (l *Loader) Load(ctx context.Context, name string) (Input, error) {
	switch {
	case name == Stdin:
		data, err := io.ReadAll(io.LimitReader(l.Stdin, maxBody))
		if err != nil {
			return Input{}, fmt.Errorf("failed to read stdin: %w", err)
		}
		return l.decode("stdin", data, "")
	case IsURL(name):
		return l.fetch(ctx, name)
	default:
		data, err := os.ReadFile(name)
		if err != nil {
			return Input{}, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return l.decode(name, data, contentTypeForExt(name))
	}
}

func (l *Loader) fetch(ctx context.Context, pageURL string) (Input, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Input{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "portion/1.0")

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Input{}, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Input{}, fmt.Errorf("failed to fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Input{}, fmt.Errorf("failed to read %s: %w", pageURL, err)
	}
	return l.decode(pageURL, data, resp.Header.Get("Content-Type"))
}

func (l *Loader) decode(name string, data []byte, contentType string) (Input, error) {
	isHTML := l.HTML || isHTMLType(contentType)
	if !isHTML && contentType == "" {
		isHTML = sniffHTML(data)
	}
	if !isHTML {
		return Input{Name: name, Text: string(data)}, nil
	}
	if contentType == "" {
		contentType = "text/html"
	}

	r, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		return Input{}, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return Input{}, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	text, err := HTMLToText(string(decoded))
	if err != nil {
		return Input{}, fmt.Errorf("failed to convert %s: %w", name, err)
	}
	return Input{Name: name, Text: text}, nil
}

// HTMLToText converts an HTML page to markdown. When the page has an
// <article> or <main> element only that element is kept.
func HTMLToText(page string) (string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", err
	}

	content := page
	for _, tag := range []string{"article", "main"} {
		if n := findElement(doc, tag); n != nil {
			var sb strings.Builder
			if err := html.Render(&sb, n); err != nil {
				return "", err
			}
			content = sb.String()
			break
		}
	}

	md, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md) + "\n", nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func contentTypeForExt(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return "text/html"
	case "":
		return ""
	}
	return "text/plain"
}

func isHTMLType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func sniffHTML(data []byte) bool {
	return strings.HasPrefix(http.DetectContentType(data), "text/html")
}
