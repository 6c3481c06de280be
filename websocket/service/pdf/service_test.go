package pdf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"corvex/render"
	ws "corvex/websocket"
)

type recorder struct {
	mu       sync.Mutex
	messages []*ws.ServiceMessage
}

func (r *recorder) WriteJSON(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, v.(*ws.ServiceMessage))
	return nil
}

// wait returns the first message for action, waiting for it to arrive.
func (r *recorder) wait(t *testing.T, action string) *ws.ServiceMessage {
	t.Helper()
	var found *ws.ServiceMessage
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, msg := range r.messages {
			if msg.Action == action {
				found = msg
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	return found
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var actions []string
	for _, msg := range r.messages {
		actions = append(actions, msg.Action)
	}
	return actions
}

type fakeRenderer func(ctx context.Context, content string, log io.Writer) ([]byte, error)

func (f fakeRenderer) RenderTo(ctx context.Context, content string, log io.Writer) ([]byte, error) {
	return f(ctx, content, log)
}

// blockingRenderer runs until its context ends.
var blockingRenderer = fakeRenderer(func(ctx context.Context, _ string, _ io.Writer) ([]byte, error) {
	<-ctx.Done()
	return nil, fmt.Errorf("render cancelled: %w", ctx.Err())
})

func newTestService(t *testing.T, r Renderer) (*PDFService, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := NewService(r, zaptest.NewLogger(t).Sugar())
	s.Register(rec)
	t.Cleanup(func() { s.Cleanup(nil) })
	return s, rec
}

func TestPDFService_Name(t *testing.T) {
	assert.Equal(t, "pdf", NewService(nil, nil).Name())
}

func TestPDFService_Generate(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	s, rec := newTestService(t, fakeRenderer(func(_ context.Context, content string, log io.Writer) ([]byte, error) {
		assert.Equal(t, "hello", content)
		assert.Nil(t, log)
		return pdf, nil
	}))

	s.HandleTextMessage("r1", actionGenerate, json.RawMessage(`{"content":"hello"}`))

	msg := rec.wait(t, actionGenerate)
	assert.Equal(t, "pdf", msg.Service)
	assert.Equal(t, "r1", msg.Id)
	assert.Empty(t, msg.Error)

	var result resultData
	require.NoError(t, json.Unmarshal(msg.Data, &result))
	assert.Equal(t, pdf, result.PDF)
}

func TestPDFService_Stream(t *testing.T) {
	s, rec := newTestService(t, fakeRenderer(func(_ context.Context, _ string, log io.Writer) ([]byte, error) {
		if assert.NotNil(t, log) {
			_, err := io.WriteString(log, "This is pdfTeX\n")
			assert.NoError(t, err)
		}
		return []byte("%PDF"), nil
	}))

	s.HandleTextMessage("r2", actionGenerate, json.RawMessage(`{"content":"x","stream":true}`))
	rec.wait(t, actionGenerate)

	logMsg := rec.wait(t, actionLog)
	assert.Equal(t, "r2", logMsg.Id)
	assert.JSONEq(t, `"This is pdfTeX\n"`, string(logMsg.Data))
	assert.Equal(t, []string{actionLog, actionGenerate}, rec.actions())
}

func TestPDFService_RenderError(t *testing.T) {
	s, rec := newTestService(t, fakeRenderer(func(context.Context, string, io.Writer) ([]byte, error) {
		return nil, &render.RenderError{ExitCode: 1, Diagnostic: "! Undefined control sequence."}
	}))

	s.HandleTextMessage("r3", actionGenerate, json.RawMessage(`{"content":"\\foo"}`))

	msg := rec.wait(t, actionGenerate)
	assert.Equal(t, "RenderError", msg.Kind)
	assert.NotEmpty(t, msg.Error)
	assert.JSONEq(t, `{"diagnostic":"! Undefined control sequence."}`, string(msg.Data))
}

func TestPDFService_ReplyEncodingFailure(t *testing.T) {
	s, rec := newTestService(t, blockingRenderer)

	s.reply("r7", actionGenerate, map[string]any{"pdf": make(chan int)})

	msg := rec.wait(t, actionGenerate)
	assert.Equal(t, "r7", msg.Id)
	assert.Equal(t, "IoError", msg.Kind)
	assert.NotEmpty(t, msg.Error)
	assert.Empty(t, msg.Data)
}

func TestPDFService_InvalidRequest(t *testing.T) {
	s, rec := newTestService(t, blockingRenderer)

	s.HandleTextMessage("r4", actionGenerate, json.RawMessage(`not json`))
	msg := rec.wait(t, actionGenerate)
	assert.Equal(t, kindInvalidRequest, msg.Kind)

	s.HandleTextMessage("r5", "compile", nil)
	msg = rec.wait(t, "compile")
	assert.Equal(t, kindInvalidRequest, msg.Kind)
}

func TestPDFService_Cancel(t *testing.T) {
	s, rec := newTestService(t, blockingRenderer)

	s.HandleTextMessage("r6", actionGenerate, json.RawMessage(`{"content":"x"}`))
	require.Eventually(t, func() bool {
		s.Lock()
		defer s.Unlock()
		return s.jobs["r6"] != nil
	}, time.Second, 5*time.Millisecond)

	s.HandleTextMessage("r6", actionGenerate, json.RawMessage(`{"content":"x"}`))
	dup := rec.wait(t, actionGenerate)
	assert.Equal(t, kindInvalidRequest, dup.Kind)

	s.HandleTextMessage("r6", actionCancel, nil)
	require.Eventually(t, func() bool { return len(rec.actions()) == 2 }, 5*time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	msg := rec.messages[1]
	rec.mu.Unlock()
	assert.Equal(t, "Cancelled", msg.Kind)
}

func TestPDFService_CleanupStopsRenders(t *testing.T) {
	rec := &recorder{}
	s := NewService(blockingRenderer, zaptest.NewLogger(t).Sugar())
	s.Register(rec)

	s.HandleTextMessage("a", actionGenerate, json.RawMessage(`{"content":"x"}`))
	s.HandleTextMessage("b", actionGenerate, json.RawMessage(`{"content":"y"}`))

	done := make(chan struct{})
	go func() {
		s.Cleanup(io.EOF)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Cleanup did not return")
	}

	s.Lock()
	assert.Empty(t, s.jobs)
	s.Unlock()
	assert.Len(t, rec.actions(), 2)
}
