package websocket

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"corvex/metrics"
)

const maxCheckInterval = 10 * time.Second

// Options configures a websocket server.
type Options struct {
	// Timeout closes the connection after this long without a message to
	// an active service. Zero disables it.
	Timeout     time.Duration
	CheckOrigin func(r *http.Request) bool
	Logger      *zap.SugaredLogger
}

func (o Options) logger() *zap.SugaredLogger {
	if o.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return o.Logger
}

type Server struct {
	*Conn
	ID string

	// only touched from the dispatch goroutine after Start
	services       map[string]Service
	activeServices map[string]bool

	timeout    time.Duration
	lastActive atomic.Int64
	log        *zap.SugaredLogger
}

func NewServer(w http.ResponseWriter, r *http.Request, opts Options) (*Server, error) {
	conn, err := NewConn(w, r, opts)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := opts.logger().With("conn", id)
	conn.log = log

	server := &Server{
		Conn:           conn,
		ID:             id,
		services:       make(map[string]Service),
		activeServices: make(map[string]bool),
		timeout:        opts.Timeout,
		log:            log,
	}
	server.touch()

	return server, nil
}

// Register adds a service whose messages count as activity.
func (s *Server) Register(service Service) {
	s.RegisterPassive(service)
	s.activeServices[service.Name()] = true
}

// RegisterPassive adds a service whose messages do not keep the connection alive.
func (s *Server) RegisterPassive(service Service) {
	if _, exists := s.services[service.Name()]; exists {
		s.log.Warnf("service %s already registered", service.Name())
		return
	}

	service.Register(s.Conn)
	s.services[service.Name()] = service
}

func (s *Server) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Server) idle() time.Duration {
	return time.Since(time.Unix(0, s.lastActive.Load()))
}

func (s *Server) checkTimeout(done <-chan struct{}) {
	interval := s.timeout / 4
	switch {
	case interval > maxCheckInterval:
		interval = maxCheckInterval
	case interval <= 0:
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if s.idle() > s.timeout {
				s.log.Infow("closing idle connection", "idle", s.idle())
				s.Close()
				return
			}
		}
	}
}

// Start serves the connection and blocks until it is closed. Every registered
// service is cleaned up before Start returns.
func (s *Server) Start() {
	metrics.ConnectionOpened()
	defer metrics.ConnectionClosed()
	s.log.Info("connection opened")

	done := make(chan struct{})
	if s.timeout > 0 {
		go s.checkTimeout(done)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for msg := range s.TextMessage {
			if s.activeServices[msg.Service] {
				s.touch()
			}
			service, exists := s.services[msg.Service]
			if !exists {
				s.log.Debugw("no such service", "service", msg.Service)
				continue
			}
			service.HandleTextMessage(msg.Id, msg.Action, msg.Data)
		}
	}()

	err := s.StartDispatch()
	wg.Wait()
	close(done)

	for _, service := range s.services {
		service.Cleanup(err)
	}
	s.Close()
	s.log.Infow("connection closed", "reason", err)
}
