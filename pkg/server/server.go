package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/glideserve/internal/utils"
	"github.com/bastiangx/glideserve/pkg/autocommit"
	"github.com/bastiangx/glideserve/pkg/config"
	"github.com/bastiangx/glideserve/pkg/engine"
	"github.com/bastiangx/glideserve/pkg/gesture"
	"github.com/bastiangx/glideserve/pkg/glide"
	"github.com/bastiangx/glideserve/pkg/layout"
	"github.com/bastiangx/glideserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

const defaultLimit = 10

// Server handles the IPC for one engine.
type Server struct {
	engine     *engine.Engine
	configPath string

	mu     sync.RWMutex
	config *config.Config

	reader  io.Reader
	writeMu sync.Mutex
	enc     *msgpack.Encoder

	// background requests still owed a response
	pending sync.WaitGroup
}

// NewServer creates a server on stdin/stdout. configPath may be empty, in
// which case config changes are not persisted or watched.
func NewServer(e *engine.Engine, cfg *config.Config, configPath string) *Server {
	return NewServerWithIO(e, cfg, configPath, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server on the given streams.
func NewServerWithIO(e *engine.Engine, cfg *config.Config, configPath string, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		engine:     e,
		configPath: configPath,
		config:     cfg,
		reader:     bufio.NewReader(r),
		enc:        msgpack.NewEncoder(w),
	}
}

// Start serves requests until the input stream ends, then waits for every
// background request to be answered.
func (s *Server) Start() error {
	log.Debug("Starting Server.")

	if s.configPath != "" {
		w := config.NewWatcher(s.configPath, s.Config())
		w.OnChange(func(_, next *config.Config) { s.applyConfig(next) })
		if err := w.Start(); err != nil {
			log.Warnf("Config hot reload disabled: %v", err)
		} else {
			defer w.Close()
		}
	}

	s.send(Response{Status: statusReady})

	dec := msgpack.NewDecoder(s.reader)
	defer s.pending.Wait()
	for {
		var raw msgpack.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Errorf("Reading from stdin: %v", err)
			return err
		}
		var req Request
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			log.Errorf("Unmarshaling request: %v", err)
			s.sendError("", "invalid msgpack request")
			continue
		}
		s.handleRequest(req)
	}
}

// Config returns the active config.
func (s *Server) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *Server) applyConfig(next *config.Config) {
	s.mu.Lock()
	s.config = next
	s.mu.Unlock()
	s.engine.SetTier(next.AutoCommit.Tier)
	log.Debugf("Applied config: tier=%s max_limit=%d", next.AutoCommit.Tier, next.Server.MaxLimit)
}

func (s *Server) handleRequest(req Request) {
	switch req.Op {
	case "suggest":
		s.handleSuggest(req)
	case "glide":
		s.handleGlide(req)
	case "layout":
		s.handleLayout(req)
	case "accept":
		s.handleAccept(req)
	case "commit":
		s.handleCommit(req)
	case "config":
		s.handleConfig(req)
	case "health":
		s.send(Response{ID: req.ID, Status: statusOK})
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown op: %q", req.Op))
	}
}

func (s *Server) send(resp Response) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.enc.Encode(resp); err != nil {
		log.Errorf("Encoding response %s: %v", resp.ID, err)
	}
}

func (s *Server) sendError(id, message string) {
	s.send(Response{ID: id, Status: statusError, Error: message})
}

// limit clamps a requested count to the configured maximum.
func (s *Server) limit(requested int) int {
	return utils.ClampLimit(requested, defaultLimit, s.Config().Server.MaxLimit)
}

func (s *Server) validInput(input string) error {
	cfg := s.Config().Server
	n := utf8.RuneCountInString(input)
	if n < cfg.MinPrefix || n == 0 {
		return fmt.Errorf("input must be at least %d characters", max(cfg.MinPrefix, 1))
	}
	if n > cfg.MaxPrefix {
		return fmt.Errorf("input exceeds maximum length of %d characters", cfg.MaxPrefix)
	}
	return nil
}

func (s *Server) handleSuggest(req Request) {
	if err := s.validInput(req.Input); err != nil {
		s.sendError(req.ID, err.Error())
		return
	}
	start := time.Now()
	s.pending.Add(1)
	_, err := s.engine.RequestSuggestions(context.Background(), req.Input, s.limit(req.Limit),
		func(p engine.Published[[]suggest.Candidate], err error) {
			defer s.pending.Done()
			resp := Response{ID: req.ID, Seq: p.Seq, TimeTaken: time.Since(start).Microseconds()}
			switch {
			case errors.Is(err, engine.ErrStale):
				resp.Status = statusStale
			case err != nil:
				resp.Status, resp.Error = statusError, err.Error()
			default:
				resp.Status = statusOK
				resp.Suggestions = toSuggestions(p.Value)
				resp.Count = len(resp.Suggestions)
			}
			s.send(resp)
		})
	if err != nil {
		s.pending.Done()
		s.sendError(req.ID, err.Error())
	}
}

func (s *Server) handleGlide(req Request) {
	ix := s.engine.Layout()
	if !ix.Ready() {
		s.sendError(req.ID, engine.ErrLayoutNotReady.Error())
		return
	}
	if maxPoints := s.Config().Server.MaxPoints; maxPoints > 0 && len(req.Points) > maxPoints {
		s.sendError(req.ID, fmt.Sprintf("trace has %d points, limit is %d", len(req.Points), maxPoints))
		return
	}
	g := gesture.New()
	g.SetDistanceThreshold(ix.DistanceThreshold())
	for _, p := range req.Points {
		g.AddPoint(p[0], p[1])
	}

	start := time.Now()
	s.pending.Add(1)
	_, err := s.engine.RequestGesture(context.Background(), g, s.limit(req.Limit),
		func(p engine.Published[[]glide.Result], err error) {
			defer s.pending.Done()
			resp := Response{ID: req.ID, Seq: p.Seq, TimeTaken: time.Since(start).Microseconds()}
			switch {
			case errors.Is(err, engine.ErrStale):
				resp.Status = statusStale
			case err != nil:
				resp.Status, resp.Error = statusError, err.Error()
			default:
				resp.Status = statusOK
				resp.Glide = toGlideResults(p.Value)
				resp.Count = len(resp.Glide)
			}
			s.send(resp)
		})
	if err != nil {
		s.pending.Done()
		s.sendError(req.ID, err.Error())
	}
}

func (s *Server) handleLayout(req Request) {
	start := time.Now()
	var ix *layout.Index
	switch {
	case len(req.Keys) > 0:
		keys := make([]layout.Key, 0, len(req.Keys))
		for _, k := range req.Keys {
			r, size := utf8.DecodeRuneInString(k.Char)
			if size == 0 || r == utf8.RuneError {
				continue
			}
			keys = append(keys, layout.KeyFromBounds(r, k.Left, k.Top, k.Right, k.Bottom))
		}
		ix = layout.NewIndex(req.Subtype, keys)
	case req.KeyWidth > 0 && req.KeyHeight > 0:
		ix = layout.QWERTY(req.Subtype, req.KeyWidth, req.KeyHeight)
	default:
		s.sendError(req.ID, "layout needs keys or key dimensions")
		return
	}
	if !ix.Ready() {
		s.sendError(req.ID, "layout has no usable keys")
		return
	}
	s.engine.SetLayout(ix)
	if err := s.engine.ReloadUser(context.Background()); err != nil {
		log.Warnf("Loading user words for %s: %v", ix.Subtype(), err)
	}
	s.send(Response{ID: req.ID, Status: statusOK, Count: ix.Len(), TimeTaken: time.Since(start).Microseconds()})
}

func parseProvider(name string) suggest.ProviderKind {
	switch strings.ToLower(name) {
	case "emoji":
		return suggest.ProviderEmoji
	case "clipboard":
		return suggest.ProviderClipboard
	}
	return suggest.ProviderWord
}

func (s *Server) handleAccept(req Request) {
	if req.Word == "" {
		s.sendError(req.ID, "missing 'w' parameter")
		return
	}
	start := time.Now()
	c := suggest.Candidate{Word: req.Word, Provider: parseProvider(req.Provider)}
	if err := s.engine.Accept(context.Background(), c); err != nil {
		log.Errorf("Accept %q: %v", req.Word, err)
		s.sendError(req.ID, err.Error())
		return
	}
	s.send(Response{ID: req.ID, Status: statusOK, TimeTaken: time.Since(start).Microseconds()})
}

func (s *Server) handleCommit(req Request) {
	if err := s.validInput(req.Input); err != nil {
		s.sendError(req.ID, err.Error())
		return
	}
	start := time.Now()
	cands, err := s.engine.Suggest(context.Background(), req.Input, s.limit(req.Limit))
	if err != nil {
		s.sendError(req.ID, err.Error())
		return
	}
	d := s.engine.AutoCommit(cands, req.Input)
	resp := Response{
		ID:          req.ID,
		Status:      statusOK,
		Suggestions: toSuggestions(cands),
		Count:       len(cands),
		Commit: &CommitDecision{
			Commit: d.Commit,
			Rule:   d.Rule.String(),
			Tier:   s.engine.Tier().String(),
		},
	}
	if d.Commit {
		resp.Commit.Word = d.Candidate.Word
	}
	resp.TimeTaken = time.Since(start).Microseconds()
	s.send(resp)
}

func (s *Server) handleConfig(req Request) {
	if req.Clip != "" {
		if clip := s.engine.Providers().Clipboard; clip != nil {
			clip.SetText(req.Clip)
		}
	}

	var tier *autocommit.Tier
	if req.Tier != "" {
		t, err := autocommit.ParseTier(req.Tier)
		if err != nil {
			s.sendError(req.ID, err.Error())
			return
		}
		tier = &t
	}
	if tier == nil && req.MaxLimit == nil {
		s.send(Response{ID: req.ID, Status: statusOK})
		return
	}

	s.mu.RLock()
	next := *s.config
	s.mu.RUnlock()
	if err := next.Update(s.configPath, tier, req.MaxLimit); err != nil {
		if !errors.Is(err, config.ErrNotSaved) {
			s.sendError(req.ID, err.Error())
			return
		}
		log.Warnf("Failed to persist config to %s: %v", s.configPath, err)
	}
	s.applyConfig(&next)
	s.send(Response{ID: req.ID, Status: statusOK})
}

func toSuggestions(cands []suggest.Candidate) []Suggestion {
	ranks := utils.CreateRankList(len(cands))
	out := make([]Suggestion, len(cands))
	for i, c := range cands {
		out[i] = Suggestion{
			Word:       c.Word,
			Rank:       ranks[i],
			Confidence: c.Confidence,
			Kind:       c.Kind.String(),
			Provider:   c.Provider.String(),
			User:       c.FromUserDictionary,
		}
	}
	return out
}

func toGlideResults(res []glide.Result) []GlideResult {
	ranks := utils.CreateRankList(len(res))
	out := make([]GlideResult, len(res))
	for i, r := range res {
		out[i] = GlideResult{Word: r.Word, Rank: ranks[i], Cost: r.Cost}
	}
	return out
}
