package pdf

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"corvex/metrics"
	"corvex/render"
	"corvex/utils"
	ws "corvex/websocket"
)

const (
	actionGenerate = "generate_pdf"
	actionCancel   = "cancel_pdf"
	actionLog      = "log"

	kindInvalidRequest = "InvalidRequest"
)

// Renderer is the part of render.Renderer the service needs.
type Renderer interface {
	RenderTo(ctx context.Context, content string, log io.Writer) ([]byte, error)
}

type generateData struct {
	Content string `json:"content"`
	// Stream asks for engine console output as "log" messages.
	Stream bool `json:"stream,omitempty"`
}

type resultData struct {
	PDF []byte `json:"pdf"`
}

type errorData struct {
	Diagnostic string `json:"diagnostic,omitempty"`
}

// PDFService renders LaTeX sent over the websocket. Each request renders in
// its own goroutine; replies carry the request id.
type PDFService struct {
	conn     ws.Writer
	renderer Renderer

	ctx    context.Context
	cancel context.CancelFunc

	jobs map[string]context.CancelFunc
	*sync.Mutex
	wg sync.WaitGroup

	*zap.SugaredLogger
}

func NewService(renderer Renderer, logger *zap.SugaredLogger) *PDFService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PDFService{
		renderer:      renderer,
		ctx:           ctx,
		cancel:        cancel,
		jobs:          make(map[string]context.CancelFunc),
		Mutex:         new(sync.Mutex),
		SugaredLogger: logger,
	}
}

func (s *PDFService) Register(conn ws.Writer) {
	s.conn = conn
}

func (s *PDFService) Name() string {
	return "pdf"
}

func (s *PDFService) HandleTextMessage(id, action string, data json.RawMessage) {
	switch action {
	case actionGenerate:
		s.handleGenerate(id, data)
	case actionCancel:
		s.handleCancel(id)
	default:
		s.handleError(id, action, kindInvalidRequest, errors.New("unknown action "+action), "")
	}
}

// Cleanup cancels running renders and waits for them to exit.
func (s *PDFService) Cleanup(err error) {
	s.Debugw("cleanup", "reason", err)
	s.cancel()
	s.wg.Wait()
}

func (s *PDFService) handleGenerate(id string, data json.RawMessage) {
	var d generateData
	if err := json.Unmarshal(data, &d); err != nil {
		s.handleError(id, actionGenerate, kindInvalidRequest, err, "")
		return
	}

	s.Lock()
	if _, running := s.jobs[id]; running {
		s.Unlock()
		s.handleError(id, actionGenerate, kindInvalidRequest, errors.New("a render with this id is already running"), "")
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.jobs[id] = cancel
	s.wg.Add(1)
	s.Unlock()

	go func() {
		defer s.wg.Done()
		defer func() {
			s.Lock()
			delete(s.jobs, id)
			s.Unlock()
			cancel()
		}()

		var log io.Writer
		if d.Stream {
			log = &utils.WebsocketWriter{Service: s.Name(), Id: id, Action: actionLog, Conn: s.conn}
		}
		s.generate(ctx, id, d.Content, log)
	}()
}

func (s *PDFService) generate(ctx context.Context, id, content string, log io.Writer) {
	start := time.Now()
	pdf, err := s.renderer.RenderTo(ctx, content, log)
	metrics.RecordRender(render.Kind(err), time.Since(start), len(pdf))

	if err != nil {
		var renderErr *render.RenderError
		diagnostic := ""
		if errors.As(err, &renderErr) {
			diagnostic = renderErr.Diagnostic
		}
		s.handleError(id, actionGenerate, render.Kind(err), err, diagnostic)
		return
	}

	s.Infow("rendered pdf", "id", id, "bytes", len(pdf), "elapsed", time.Since(start))
	s.reply(id, actionGenerate, resultData{PDF: pdf})
}

func (s *PDFService) reply(id, action string, result any) {
	payload, err := json.Marshal(result)
	if err != nil {
		s.handleError(id, action, render.Kind(err), err, "")
		return
	}

	s.conn.WriteJSON(&ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  action,
		Data:    payload,
	})
}

func (s *PDFService) handleCancel(id string) {
	s.Lock()
	cancel, running := s.jobs[id]
	s.Unlock()

	if !running {
		s.Debugw("no render to cancel", "id", id)
		return
	}
	cancel()
}

func (s *PDFService) handleError(id, action, kind string, err error, diagnostic string) {
	s.Warnw(action+" failed", "id", id, "kind", kind, "error", err)

	msg := &ws.ServiceMessage{
		Service: s.Name(),
		Id:      id,
		Action:  action,
		Error:   err.Error(),
		Kind:    kind,
	}
	if diagnostic != "" {
		if data, err := json.Marshal(errorData{Diagnostic: diagnostic}); err == nil {
			msg.Data = data
		}
	}
	s.conn.WriteJSON(msg)
}
