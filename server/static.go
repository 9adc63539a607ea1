package server

import (
	_ "embed"
	"net/http"
)

// The demo interface is a single self-contained page embedded in the
// binary. It talks to the three panel endpoints with plain fetch calls.
//
//go:embed ui/index.html
var indexHTML []byte

func serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}
