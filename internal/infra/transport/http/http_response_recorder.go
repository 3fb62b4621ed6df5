package http

import (
	"fmt"
	"net/http"
)

// ResponseRecorder wraps http.ResponseWriter to capture the status and size of a response.
type ResponseRecorder struct {
	http.ResponseWriter
	Status    int
	BytesSent int

	wroteHeader bool
}

// NewResponseRecorder wraps w, or returns w itself if it already is a recorder,
// so stacked middlewares observe the same response.
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	if rec, ok := w.(*ResponseRecorder); ok {
		return rec
	}

	return &ResponseRecorder{ResponseWriter: w, Status: http.StatusOK}
}

// WriteHeader records the first status written.
func (w *ResponseRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.Status = code
		w.wroteHeader = true
	}

	w.ResponseWriter.WriteHeader(code)
}

func (w *ResponseRecorder) Write(b []byte) (int, error) {
	w.wroteHeader = true

	n, err := w.ResponseWriter.Write(b)
	w.BytesSent += n

	if err != nil {
		return n, fmt.Errorf("write: %w", err)
	}

	return n, nil
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *ResponseRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// route returns the mux pattern that served r. ServeMux sets it on the request it was handed.
func route(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}

	return r.Pattern
}
