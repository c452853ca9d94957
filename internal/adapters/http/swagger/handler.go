// Package swagger serves the OpenAPI document of the tipping API and a ReDoc
// page that renders it.
package swagger

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/tipping/pkg/logger"
)

// ErrServe wraps failures writing a docs response.
var ErrServe = errors.New("swagger serve failed")

// RedocURL is where the ReDoc bundle is loaded from.
const RedocURL = "https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"

// Routes served by Register.
const (
	DocsPath    = "/api-docs"
	OpenAPIPath = "/openapi.yaml"
)

// Register attaches the docs routes to mux. Both answer GET and HEAD only;
// other methods get 404 like the rest of the API.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc(DocsPath, document("text/html; charset=utf-8", []byte(indexHTML)))
	mux.HandleFunc(OpenAPIPath, document("application/yaml; charset=utf-8", OpenAPI))
}

func document(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-cache")
		if r.Method == http.MethodHead {
			return
		}
		if _, err := w.Write(body); err != nil {
			logger.Get().Named("swagger").Debug(r.Context(), "docs write failed",
				logger.String("path", r.URL.Path),
				logger.Error(fmt.Errorf("%w: %w", ErrServe, err)),
			)
		}
	}
}

const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Tipping Point API - ReDoc</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="` + RedocURL + `"></script>
    <script>Redoc.init('` + OpenAPIPath + `', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`
