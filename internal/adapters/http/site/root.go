// Package site serves the embedded viewer page.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded viewer at / to mux. Paths that do not name
// an embedded file return 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", http.FileServer(FS()))
}
