package testutils

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// CompleteStream is a full producer stream with two iterations that ends
// with the answer "42".
const CompleteStream = `data: {"type":"metadata","root_model":"test-model","max_iterations":5}

data: {"type":"token","iteration":1,"content":"look"}

data: {"type":"iteration","iteration":1,"response":"look","iteration_time":0.5,"code_blocks":[{"code":"print(len(context))","result":{"stdout":"42"}}]}

data: {"type":"iteration","iteration":2,"response":"FINAL(42)","final_answer":"42","iteration_time":0.25}

data: {"type":"complete"}

`

// ErrorStream is a producer stream that fails after one token.
const ErrorStream = `data: {"type":"token","iteration":1,"content":"look"}

data: {"type":"error","message":"backend exploded"}

`

// Producer is a fake RLM producer serving a fixed stream on /api/process.
type Producer struct {
	*httptest.Server

	mu     sync.Mutex
	bodies []string
}

// NewProducer starts a producer that answers every run with stream.
func NewProducer(stream string) *Producer {
	p := &Producer{}
	p.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/process" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		p.mu.Lock()
		p.bodies = append(p.bodies, string(body))
		p.mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, stream)
	}))
	return p
}

// Requests returns the JSON bodies of the runs started so far.
func (p *Producer) Requests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.bodies...)
}
