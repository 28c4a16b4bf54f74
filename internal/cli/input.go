// Package cli handles cmd line input and suggestions for DBG and testing various features
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/glideserve/internal/logger"
	"github.com/bastiangx/glideserve/internal/utils"
	"github.com/bastiangx/glideserve/pkg/autocommit"
	"github.com/bastiangx/glideserve/pkg/engine"
	"github.com/bastiangx/glideserve/pkg/glide"
	"github.com/bastiangx/glideserve/pkg/suggest"
	"github.com/charmbracelet/log"
)

// InputHandler reads typed text and commands from stdin and prints what the
// engine suggests for them.
//
// Commands:
//
//	:glide word    score a synthetic clean trace of word
//	:tier name     switch the auto-commit tier
//	:accept word   report word as picked
//	:clip text     set the clipboard text
type InputHandler struct {
	engine          *engine.Engine
	log             *log.Logger
	minPrefixLength int
	maxPrefixLength int
	suggestLimit    int
	noFilter        bool
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(e *engine.Engine, minLength, maxLength, limit int, noFilter bool) *InputHandler {
	return &InputHandler{
		engine:          e,
		log:             logger.New(""),
		minPrefixLength: minLength,
		maxPrefixLength: maxLength,
		suggestLimit:    utils.ClampLimit(limit, 10, 0),
		noFilter:        noFilter,
	}
}

// Start begins the interface loop on stdin.
func (h *InputHandler) Start() error {
	h.log.Print("GlideServe CLI [BETA]")
	h.log.Print("type something and press Enter to see the suggestions, :glide word for a trace (Ctrl+C to exit):")
	return h.run(os.Stdin)
}

func (h *InputHandler) run(r io.Reader) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			h.handleLine(line)
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func (h *InputHandler) handleLine(line string) {
	if !strings.HasPrefix(line, ":") {
		h.handleInput(line)
		return
	}
	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "glide":
		h.handleGlide(arg)
	case "tier":
		tier, err := autocommit.ParseTier(arg)
		if err != nil {
			h.log.Error(err)
			return
		}
		h.engine.SetTier(tier)
		h.log.Printf("Auto-commit tier: %s", tier)
	case "accept":
		if err := h.engine.Accept(context.Background(), suggest.Candidate{Word: arg, Provider: suggest.ProviderWord}); err != nil {
			h.log.Errorf("Accept failed: %v", err)
			return
		}
		h.log.Printf("Accepted '%s'", arg)
	case "clip":
		if clip := h.engine.Providers().Clipboard; clip != nil {
			clip.SetText(arg)
		}
	default:
		h.log.Errorf("Unknown command: :%s", cmd)
	}
}

// handleInput ranks a composing word and shows the auto-commit decision for
// the top candidate.
func (h *InputHandler) handleInput(prefix string) {
	n := utf8.RuneCountInString(prefix)
	if n < h.minPrefixLength {
		h.log.Errorf("Prefix too short: %s", prefix)
		return
	}
	if n > h.maxPrefixLength {
		h.log.Errorf("Prefix too long: %s", prefix)
		return
	}
	if !h.noFilter && !utils.IsValidInput(prefix) {
		h.log.Warnf("No suggestions found for prefix: '%s' (filtered out)", prefix)
		return
	}

	start := time.Now()
	suggestions, err := h.engine.Suggest(context.Background(), prefix, h.suggestLimit)
	if err != nil {
		h.log.Error(err)
		return
	}
	h.log.Debugf("Took [ %v ] for prefix '%s'", time.Since(start), prefix)

	if len(suggestions) == 0 {
		h.log.Warnf("No suggestions found for prefix: '%s'", prefix)
		return
	}

	h.log.Printf("Found %d suggestions for prefix '%s':", len(suggestions), prefix)
	for i, s := range suggestions {
		clWord := fmt.Sprintf("\033[38;5;75m%s\033[0m", s.Word)
		h.log.Printf("%2d. %-40s (%s/%s, conf: %.3f)", i+1, clWord, s.Provider, s.Kind, s.Confidence)
	}
	d := h.engine.AutoCommit(suggestions, prefix)
	if d.Commit {
		h.log.Printf("auto-commit '%s' [%s, %s]", d.Candidate.Word, d.Rule, h.engine.Tier())
	} else {
		h.log.Printf("no auto-commit [%s, %s]", d.Rule, h.engine.Tier())
	}
}

// handleGlide draws the ideal trace of word through the current layout and
// feeds it to the recognizer, as a finger tracing it exactly would.
func (h *InputHandler) handleGlide(word string) {
	ix := h.engine.Layout()
	if word == "" || !ix.Ready() {
		h.log.Error("usage: :glide word (needs a layout)")
		return
	}
	paths := glide.IdealGestures(word, ix, glide.DefaultLoopFactor)
	if len(paths) == 0 {
		h.log.Warnf("'%s' has no keys on layout %s", word, ix.Subtype())
		return
	}

	buf := h.engine.Buffer()
	buf.Clear()
	for _, p := range paths[0] {
		buf.AddPoint(p.X, p.Y)
	}

	start := time.Now()
	res, err := h.engine.Recognize(context.Background(), buf, h.suggestLimit)
	buf.Clear()
	if err != nil {
		h.log.Error(err)
		return
	}
	h.log.Debugf("Took [ %v ] for trace '%s'", time.Since(start), word)
	if len(res) == 0 {
		h.log.Warnf("No glide candidates for '%s'", word)
		return
	}
	for i, r := range res {
		clWord := fmt.Sprintf("\033[38;5;75m%s\033[0m", r.Word)
		h.log.Printf("%2d. %-40s (cost: %.4g)", i+1, clWord, r.Cost)
	}
}
