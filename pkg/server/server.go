package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/parsisolution/autocomplete/internal/logger"
	"github.com/parsisolution/autocomplete/pkg/config"
	"github.com/parsisolution/autocomplete/pkg/suggest"
	"github.com/parsisolution/autocomplete/pkg/word"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles the IPC for trigger completions
type Server struct {
	mu         sync.RWMutex
	engine     suggest.ISuggester
	config     *config.Config
	configPath string

	decoder *msgpack.Decoder
	writer  *bufio.Writer
	encoder *msgpack.Encoder
	logger  *log.Logger
}

// NewServer creates a completion server reading requests from r and writing
// responses to w, normally stdin and stdout.
func NewServer(engine suggest.ISuggester, cfg *config.Config, configPath string, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	writer := bufio.NewWriter(w)
	return &Server{
		engine:     engine,
		config:     cfg,
		configPath: configPath,
		decoder:    msgpack.NewDecoder(bufio.NewReader(r)),
		writer:     writer,
		encoder:    msgpack.NewEncoder(writer),
		logger:     logger.New(logger.Server),
	}
}

// Start announces readiness and serves requests until the input is closed
// or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Debug("Starting Server.")
	s.send(StatusResponse{Status: "ready", Triggers: s.triggerCount()})

	for {
		if ctx.Err() != nil {
			return nil
		}

		var request Request
		if err := s.decoder.Decode(&request); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				s.logger.Debug("Client disconnected (EOF)")
				return nil
			}
			s.logger.Errorf("Decoding request: %v", err)
			return fmt.Errorf("decoding request: %w", err)
		}
		s.handleRequest(ctx, request)
	}
}

// Apply builds an engine from cfg and swaps it in. The previous engine stays
// in place when cfg is invalid.
func (s *Server) Apply(cfg *config.Config) error {
	engine, err := suggest.New(cfg.SuggestTriggers())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine = engine
	s.config = cfg
	s.logger.Debugf("Engine swapped: %d triggers", len(cfg.Triggers))
	return nil
}

// Reload re-reads the config file the server was started with.
func (s *Server) Reload() error {
	if s.configPath == "" {
		return errors.New("no config file to reload")
	}
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		return err
	}
	return s.Apply(cfg)
}

func (s *Server) current() (suggest.ISuggester, *config.Config) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine, s.config
}

func (s *Server) triggerCount() int {
	engine, _ := s.current()
	if engine == nil {
		return 0
	}
	return len(engine.Triggers())
}

func (s *Server) handleRequest(ctx context.Context, request Request) {
	switch request.Action {
	case ActionSuggest:
		s.handleSuggest(ctx, request)
	case ActionReplace:
		s.handleReplace(request)
	case ActionReload:
		if err := s.Reload(); err != nil {
			s.logger.Warnf("Reload failed: %v", err)
			s.sendError(request.ID, err.Error(), CodeInternal)
			return
		}
		s.send(StatusResponse{ID: request.ID, Status: "reloaded", Triggers: s.triggerCount()})
	case ActionHealth:
		s.send(StatusResponse{ID: request.ID, Status: "ok", Triggers: s.triggerCount()})
	default:
		s.sendError(request.ID, fmt.Sprintf("Unknown action: %s", request.Action), CodeBadRequest)
	}
}

// validateText checks the shared text/position fields of a request.
func (s *Server) validateText(request Request, maxText int) error {
	size := utf8.RuneCountInString(request.Text)
	if maxText > 0 && size > maxText {
		return fmt.Errorf("text exceeds maximum length of %d characters", maxText)
	}
	if request.Position < 0 || request.Position > size {
		return fmt.Errorf("position %d out of range [0, %d]", request.Position, size)
	}
	return nil
}

func (s *Server) handleSuggest(ctx context.Context, request Request) {
	engine, cfg := s.current()
	if engine == nil {
		s.sendError(request.ID, "no engine loaded", CodeInternal)
		return
	}
	if err := s.validateText(request, cfg.Server.MaxText); err != nil {
		s.logger.Debug("Rejected request", "id", request.ID, "err", err)
		s.sendError(request.ID, err.Error(), CodeBadRequest)
		return
	}

	if cfg.Server.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Server.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	start := time.Now()
	suggestions, err := engine.Suggest(ctx, request.Text, request.Position)
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, suggest.ErrNotFound):
		s.sendError(request.ID, err.Error(), CodeNotFound)
		return
	case err != nil:
		s.logger.Errorf("Suggest failed for request %s: %v", request.ID, err)
		s.sendError(request.ID, err.Error(), CodeInternal)
		return
	}

	s.send(SuggestResponse{
		ID:          request.ID,
		Suggestions: suggestions,
		Count:       len(suggestions),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleReplace(request Request) {
	_, cfg := s.current()
	if err := s.validateText(request, cfg.Server.MaxText); err != nil {
		s.sendError(request.ID, err.Error(), CodeBadRequest)
		return
	}

	result := word.Replace(request.Text, request.Position, request.Value, request.RemoveTrailing, request.SpaceAfter)
	s.send(ReplaceResponse{ID: request.ID, Result: result})
}

// send encodes the response and flushes it so the client sees it right away.
func (s *Server) send(response any) {
	if err := s.encoder.Encode(response); err != nil {
		s.logger.Errorf("Encoding response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		s.logger.Errorf("Writing response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{
		ID:    id,
		Error: message,
		Code:  code,
	})
}
