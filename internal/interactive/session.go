package interactive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/crimson-sun/headlinescore/internal/model"
)

// Scorer sends a batch of headlines for classification.
type Scorer interface {
	ScoreHeadlines(ctx context.Context, headlines []string) ([]string, error)
}

const helpText = `Commands:
  add [text]       append a headline (empty if no text)
  edit N text      replace headline N
  delete N         remove headline N
  list             show all headlines
  classify         score the non-empty headlines
  help             show this help
  quit             leave
`

// Session is a line-oriented editing loop over a List. Headline numbers
// shown to the user start at 1.
type Session struct {
	list   *List
	scorer Scorer
	in     *bufio.Scanner
	out    io.Writer
}

// NewSession creates a session reading commands from in and writing to out.
func NewSession(scorer Scorer, in io.Reader, out io.Writer) *Session {
	return &Session{
		list:   NewList(),
		scorer: scorer,
		in:     bufio.NewScanner(in),
		out:    out,
	}
}

// List exposes the headlines being edited.
func (s *Session) List() *List { return s.list }

// Run processes commands until quit, end of input, or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Headline Sentiment")
	fmt.Fprint(s.out, "Add, edit, or remove headlines and then run \"classify\". Type \"help\" for commands.\n\n")
	s.printList()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, "> ")
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}
		if quit := s.execute(ctx, s.in.Text()); quit {
			return nil
		}
	}
}

// execute runs one command line and reports whether the session should end.
func (s *Session) execute(ctx context.Context, line string) bool {
	cmd, rest := splitCommand(line)
	switch cmd {
	case "":
	case "add", "a":
		s.list.Add(rest)
		s.printList()
	case "edit", "e":
		pos, text := splitCommand(rest)
		i, err := s.position(pos)
		if err == nil {
			err = s.list.Edit(i, text)
		}
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return false
		}
		s.printList()
	case "delete", "del", "d":
		i, err := s.position(rest)
		if err == nil {
			err = s.list.Delete(i)
		}
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return false
		}
		s.printList()
	case "list", "ls", "l":
		s.printList()
	case "classify", "c":
		s.classify(ctx)
	case "help", "h", "?":
		fmt.Fprint(s.out, helpText)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command %q. Type \"help\" for commands.\n", cmd)
	}
	return false
}

func (s *Session) classify(ctx context.Context) {
	clean := s.list.Submission()
	if len(clean) == 0 {
		fmt.Fprintln(s.out, "Please enter at least one headline.")
		return
	}

	labels, err := s.scorer.ScoreHeadlines(ctx, clean)
	if err != nil {
		slog.Debug("scoring request failed", "error", err, "batch_size", len(clean))
		fmt.Fprintf(s.out, "API error: %v\n", err)
		return
	}

	fmt.Fprintln(s.out, "Results")
	writeTable(s.out, model.Pair(clean, labels))
}

func (s *Session) printList() {
	items := s.list.Items()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "(no headlines)")
		return
	}
	for i, h := range items {
		if h == "" {
			h = "(empty)"
		}
		fmt.Fprintf(s.out, "  Headline %d: %s\n", i+1, h)
	}
}

// position parses a user-facing 1-based headline number.
func (s *Session) position(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("expected a headline number, got %q", arg)
	}
	return n - 1, nil
}

func writeTable(w io.Writer, rows []model.Scored) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Headline\tSentiment")
	fmt.Fprintln(tw, "--------\t---------")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r.Headline, r.Label)
	}
	tw.Flush()
}

// splitCommand returns the first word of line, lowercased, and the trimmed
// remainder.
func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	cmd, rest, _ := strings.Cut(line, " ")
	return strings.ToLower(cmd), strings.TrimSpace(rest)
}
