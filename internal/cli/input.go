// Package cli provides an interactive input handler for debugging triggers in real-time
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/shlex"
	"github.com/parsisolution/autocomplete/pkg/config"
	"github.com/parsisolution/autocomplete/pkg/suggest"
	"github.com/parsisolution/autocomplete/pkg/word"
)

const help = `type text and press Enter to see suggestions for its last word, or:
  /at <text> <pos>                       suggest at a cursor position
  /replace <text> <pos> <value> [flags]  replace the word at pos (-trailing, -space)
  /triggers                              list configured triggers
  /help                                  show this message`

// InputHandler reads lines from in and prints suggestions to out.
// Replace defaults come from the [cli] config section.
type InputHandler struct {
	suggester      suggest.ISuggester
	removeTrailing bool
	spaceAfter     bool

	in       io.Reader
	out      *log.Logger
	renderer *lipgloss.Renderer
}

// NewInputHandler handles initialization of the InputHandler.
func NewInputHandler(suggester suggest.ISuggester, cfg config.CliConfig, in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		suggester:      suggester,
		removeTrailing: cfg.RemoveTrailing,
		spaceAfter:     cfg.SpaceAfter,
		in:             in,
		out: log.NewWithOptions(out, log.Options{
			ReportTimestamp: false,
			ReportCaller:    false,
		}),
		renderer: lipgloss.NewRenderer(out),
	}
}

// Start begins the interface loop. It returns nil once the input is exhausted.
func (h *InputHandler) Start(ctx context.Context) error {
	h.out.Print("Autocomplete CLI")
	h.out.Print(help)

	scanner := bufio.NewScanner(h.in)
	for {
		h.out.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := h.handleInput(ctx, line); err != nil {
			h.out.Error(err.Error())
		}
	}
}

func (h *InputHandler) handleInput(ctx context.Context, line string) error {
	if !strings.HasPrefix(line, "/") {
		return h.suggest(ctx, line, utf8.RuneCountInString(line))
	}

	args, err := shlex.Split(line[1:])
	if err != nil {
		return fmt.Errorf("parsing command: %w", err)
	}
	if len(args) == 0 {
		return errors.New("empty command")
	}

	switch args[0] {
	case "at":
		if len(args) != 3 {
			return errors.New("usage: /at <text> <pos>")
		}
		pos, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid position %q", args[2])
		}
		return h.suggest(ctx, args[1], pos)
	case "replace":
		return h.replace(args[1:])
	case "triggers":
		h.listTriggers()
		return nil
	case "help":
		h.out.Print(help)
		return nil
	default:
		return fmt.Errorf("unknown command %q, try /help", args[0])
	}
}

func (h *InputHandler) suggest(ctx context.Context, text string, position int) error {
	start := time.Now()
	suggestions, err := h.suggester.Suggest(ctx, text, position)
	log.Debugf("Took [ %v ] for %q at %d", time.Since(start), text, position)

	if errors.Is(err, suggest.ErrNotFound) {
		h.out.Warnf("No trigger matches %q", word.Current(text, position))
		return nil
	}
	if err != nil {
		return err
	}
	if len(suggestions) == 0 {
		h.out.Warnf("No suggestions for %q", word.Current(text, position))
		return nil
	}

	h.out.Printf("Found %d suggestions for %q:", len(suggestions), word.Current(text, position))
	for i, s := range suggestions {
		h.out.Printf("%2d. %s", i+1, h.render(s))
	}
	return nil
}

// render paints the trigger faint and the display text in the suggestion's color.
func (h *InputHandler) render(s suggest.Suggestion) string {
	display := h.renderer.NewStyle().Bold(true)
	if s.Color != "" {
		display = display.Foreground(lipgloss.Color(s.Color))
	}
	return h.renderer.NewStyle().Faint(true).Render(s.Trigger) + display.Render(s.Display)
}

func (h *InputHandler) replace(args []string) error {
	fs := flag.NewFlagSet("replace", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	removeTrailing := fs.Bool("trailing", h.removeTrailing, "drop the rest of the word behind the cursor")
	spaceAfter := fs.Bool("space", h.spaceAfter, "insert a space after the value")

	// flags may follow the positional arguments
	var flags, positional []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") && len(arg) > 1 {
			flags = append(flags, arg)
		} else {
			positional = append(positional, arg)
		}
	}
	if err := fs.Parse(flags); err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	if len(positional) != 3 {
		return errors.New("usage: /replace <text> <pos> <value> [-trailing] [-space]")
	}

	pos, err := strconv.Atoi(positional[1])
	if err != nil {
		return fmt.Errorf("invalid position %q", positional[1])
	}

	result := word.Replace(positional[0], pos, positional[2], *removeTrailing, *spaceAfter)
	h.out.Printf("%q (before: %d, after: %d)", result.Text, result.Before, result.After)
	return nil
}

func (h *InputHandler) listTriggers() {
	for i, t := range h.suggester.Triggers() {
		kind := "list"
		switch t.Source.(type) {
		case *suggest.Tree:
			kind = "tree"
		case suggest.ResolverFunc:
			kind = "resolver"
		}
		line := fmt.Sprintf("%2d. %s (%s)", i+1, h.render(suggest.Suggestion{Color: t.Color, Display: t.Trigger}), kind)
		if t.Pattern != "" {
			line += " pattern " + t.Pattern
		}
		h.out.Print(line)
	}
}
