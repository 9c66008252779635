package llm

import (
	"context"
	"sync"
)

// Call is one request seen by a MockGenerator.
type Call struct {
	System  string
	User    string
	Options Options
}

// Reply is one scripted MockGenerator answer.
type Reply struct {
	Text string
	Err  error
}

// MockGenerator answers from a script. Replies are consumed in order; once
// the script runs out the last reply repeats. A Responder, when set, takes
// precedence over the script.
type MockGenerator struct {
	mu        sync.Mutex
	script    []Reply
	calls     []Call
	Responder func(system, user string) (string, error)
}

func NewMockGenerator(replies ...Reply) *MockGenerator {
	return &MockGenerator{script: replies}
}

// Texts is shorthand for a script of successful replies.
func Texts(texts ...string) []Reply {
	replies := make([]Reply, len(texts))
	for i, t := range texts {
		replies[i] = Reply{Text: t}
	}
	return replies
}

func (m *MockGenerator) Generate(ctx context.Context, system, user string, opts Options) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := len(m.calls)
	m.calls = append(m.calls, Call{System: system, User: user, Options: opts})

	if err := ctx.Err(); err != nil {
		return "", newCallError("mock", err)
	}
	if m.Responder != nil {
		return m.Responder(system, user)
	}
	if len(m.script) == 0 {
		return "", nil
	}
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	r := m.script[idx]
	return r.Text, r.Err
}

// Calls returns a copy of every request received so far.
func (m *MockGenerator) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
