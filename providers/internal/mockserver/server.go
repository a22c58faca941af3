// Package mockserver is a scripted stand-in for the Generative Language API,
// used by provider tests.
//
// Each incoming call consumes the next Step from the script. Steps describe
// a whole response (status, headers, body) or a stream (SSE records written
// in frames, optionally cut off mid-stream).
package mockserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// Step is one scripted response.
type Step struct {
	Status int
	Header http.Header
	Body   string

	// Records are written as SSE data events when non-empty.
	Records []string

	// FrameSize splits the SSE stream into writes of at most this many
	// bytes, each flushed. Zero writes every record in its own frame.
	FrameSize int

	// DropAfter aborts the connection after that many records. Zero sends all.
	DropAfter int

	// Trailing records are sent after Records.
	Trailing []string

	// Handler, when set, serves the call instead of the fields above.
	Handler http.HandlerFunc
}

// Request is a recorded incoming call.
type Request struct {
	Method string
	Model  string
	Task   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Server is an httptest.Server that replays a script.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	script   []Step
	requests []Request
}

// New starts a server that is closed when the test ends.
func New(tb testing.TB, steps ...Step) *Server {
	tb.Helper()

	s := &Server{script: steps}
	r := mux.NewRouter()
	r.HandleFunc("/{version}/models", s.handle).Methods(http.MethodGet)
	r.HandleFunc("/{version}/models/{call}", s.handle).Methods(http.MethodPost)
	r.HandleFunc("/{version}/tunedModels/{call}", s.handle).Methods(http.MethodPost)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route")
	})

	s.Server = httptest.NewServer(r)
	tb.Cleanup(s.Close)
	return s
}

// Enqueue appends steps to the script.
func (s *Server) Enqueue(steps ...Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append(s.script, steps...)
}

// Requests returns a copy of the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Hits reports how many calls were received.
func (s *Server) Hits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	model, task, _ := strings.Cut(vars["call"], ":")
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Model:  model,
		Task:   task,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	var step Step
	ok := len(s.script) > 0
	if ok {
		step, s.script = s.script[0], s.script[1:]
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "mockserver: script exhausted")
		return
	}
	if step.Handler != nil {
		step.Handler(w, r)
		return
	}
	if len(step.Records) > 0 {
		writeStream(w, step)
		return
	}

	for k, v := range step.Header {
		w.Header()[k] = v
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	status := step.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	io.WriteString(w, step.Body)
}

func writeStream(w http.ResponseWriter, step Step) {
	flusher, _ := w.(http.Flusher)
	for k, v := range step.Header {
		w.Header()[k] = v
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)

	records := step.Records
	drop := step.DropAfter > 0 && step.DropAfter < len(records)
	if drop {
		records = records[:step.DropAfter]
	} else {
		records = append(append([]string(nil), records...), step.Trailing...)
	}

	if step.FrameSize <= 0 {
		for _, rec := range records {
			fmt.Fprintf(w, "data: %s\r\n\r\n", rec)
			flush(flusher)
		}
	} else {
		var stream strings.Builder
		for _, rec := range records {
			fmt.Fprintf(&stream, "data: %s\r\n\r\n", rec)
		}
		for payload := stream.String(); len(payload) > 0; {
			n := min(step.FrameSize, len(payload))
			io.WriteString(w, payload[:n])
			flush(flusher)
			payload = payload[n:]
		}
	}

	if drop {
		panic(http.ErrAbortHandler)
	}
}

func flush(f http.Flusher) {
	if f != nil {
		f.Flush()
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": status, "message": message, "status": code},
	})
}
