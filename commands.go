package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"

	"scenepatch/patch"
)

// cliEnv is what every command gets to work with.
type cliEnv struct {
	cfg    Config
	logger *Logger
	docs   *documentLoader
	stdout io.Writer
	stderr io.Writer
}

// A command returns the exit code; a non-nil error is printed to stderr.
type command func(env *cliEnv, args []string) (int, error)

var commands = map[string]command{
	"diff":    runDiff,
	"apply":   runApply,
	"side":    runSide,
	"view":    runView,
	"summary": runSummary,
	"serve":   runServe,
}

func newFlagSet(env *cliEnv, name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	fs.Usage = func() {
		fmt.Fprintf(env.stderr, "usage: scenepatch %s %s\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// parseArgs parses flags and checks the positional argument count.
func parseArgs(fs *flag.FlagSet, args []string, want int) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != want {
		fs.Usage()
		return errUsage
	}
	return nil
}

func (env *cliEnv) loadPair(oldArg, newArg string) (Document, Document, error) {
	oldDoc, err := env.docs.Load(oldArg)
	if err != nil {
		return Document{}, Document{}, err
	}
	newDoc, err := env.docs.Load(newArg)
	if err != nil {
		return Document{}, Document{}, err
	}
	return oldDoc, newDoc, nil
}

func runDiff(env *cliEnv, args []string) (int, error) {
	fs := newFlagSet(env, "diff", "[-U n] [-name f] [-color auto|always|never] OLD NEW")
	contextLines := fs.Int("U", env.cfg.ContextLines, "lines of context around each change")
	name := fs.String("name", "", "file name for the diff headers (default: NEW's name)")
	colorMode := fs.String("color", "auto", "colour output: auto, always or never")
	if err := parseArgs(fs, args, 2); err != nil {
		return 2, err
	}
	colorize, err := shouldColor(*colorMode, env.stdout)
	if err != nil {
		return 2, err
	}

	oldDoc, newDoc, err := env.loadPair(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return 2, err
	}
	filename := *name
	if filename == "" {
		filename = newDoc.Name
	}

	result := patch.FormatText(oldDoc.Text, newDoc.Text, filename, *contextLines)
	if err := writeUnified(env.stdout, result.UnifiedDiff, colorize); err != nil {
		return 2, err
	}
	env.logger.Info("diff generated", map[string]any{
		"additions": result.Additions,
		"deletions": result.Deletions,
		"hunks":     len(result.Hunks),
		"name":      filename,
	})
	if len(result.Hunks) > 0 {
		return 1, nil
	}
	return 0, nil
}

func runApply(env *cliEnv, args []string) (int, error) {
	fs := newFlagSet(env, "apply", "[-fuzzy] [-best-effort] [-threshold n] [-o file] ORIGINAL PATCH")
	fuzzy := fs.Bool("fuzzy", false, "locate drifted hunks by similarity")
	bestEffort := fs.Bool("best-effort", false, "with -fuzzy, write the text even when some hunks fail")
	threshold := fs.Float64("threshold", env.cfg.Fuzzy.Threshold, "minimum similarity (0-100) for multi-line hunks")
	output := fs.String("o", "", "write the patched text to file instead of stdout")
	if err := parseArgs(fs, args, 2); err != nil {
		return 2, err
	}
	if *threshold < 0 || *threshold > 100 {
		return 2, fmt.Errorf("threshold must be within 0-100, got %v", *threshold)
	}

	original, patchDoc, err := env.loadPair(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return 2, err
	}

	mode := patch.Exact
	if *fuzzy {
		mode = patch.Fuzzy
	}
	opts := env.cfg.ApplyOptions(mode, *bestEffort)
	opts.Threshold = *threshold

	outcome, err := patch.ApplyText(original.Text, patchDoc.Text, opts)
	if err != nil {
		return 2, err
	}
	for _, hunkErr := range outcome.Errors {
		fmt.Fprintf(env.stderr, "%v\n", hunkErr)
	}
	env.logger.Info("patch applied", map[string]any{
		"applied": len(outcome.Applied),
		"failed":  len(outcome.Errors),
		"mode":    mode.String(),
		"success": outcome.Success,
	})

	if text, ok := outcome.Text(); ok {
		if err := writeOutput(env.stdout, *output, text); err != nil {
			return 2, err
		}
	}
	if !outcome.Success {
		return 1, nil
	}
	return 0, nil
}

func runSide(env *cliEnv, args []string) (int, error) {
	fs := newFlagSet(env, "side", "[-width n] OLD NEW")
	width := fs.Int("width", env.cfg.SideBySide.Width, "maximum characters per column (0 = no limit)")
	if err := parseArgs(fs, args, 2); err != nil {
		return 2, err
	}
	oldDoc, newDoc, err := env.loadPair(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return 2, err
	}

	rows := patch.SideBySideText(oldDoc.Text, newDoc.Text, *width)
	if _, err := io.WriteString(env.stdout, renderSideTable(rows)); err != nil {
		return 2, err
	}
	return 0, nil
}

func runSummary(env *cliEnv, args []string) (int, error) {
	fs := newFlagSet(env, "summary", "PATCH")
	if err := parseArgs(fs, args, 1); err != nil {
		return 2, err
	}
	doc, err := env.docs.Load(fs.Arg(0))
	if err != nil {
		return 2, err
	}

	summary := patch.Summarize(doc.Text)
	var b strings.Builder
	fmt.Fprintf(&b, "%d changes: +%d -%d\n", summary.TotalChanges, summary.Additions, summary.Deletions)
	if len(summary.AddedLines) > 0 {
		b.WriteString("added:\n")
		for _, line := range summary.AddedLines {
			b.WriteString("  + " + line + "\n")
		}
	}
	if len(summary.DeletedLines) > 0 {
		b.WriteString("deleted:\n")
		for _, line := range summary.DeletedLines {
			b.WriteString("  - " + line + "\n")
		}
	}
	if _, err := io.WriteString(env.stdout, b.String()); err != nil {
		return 2, err
	}
	return 0, nil
}

func runView(env *cliEnv, args []string) (int, error) {
	fs := newFlagSet(env, "view", "[-width n] [-watch] OLD NEW")
	width := fs.Int("width", 0, "maximum characters per column (0 = fit the panels)")
	watch := fs.Bool("watch", false, "reload when either file changes")
	if err := parseArgs(fs, args, 2); err != nil {
		return 2, err
	}
	oldDoc, newDoc, err := env.loadPair(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return 2, err
	}

	model := NewModel(oldDoc, newDoc, *width, env.logger)
	if *watch {
		if oldDoc.Path == "" || newDoc.Path == "" {
			return 2, errors.New("-watch needs both documents to be files")
		}
		watcher, err := NewWatcher(oldDoc.Path, newDoc.Path)
		if err != nil {
			return 2, fmt.Errorf("start watcher: %w", err)
		}
		defer watcher.Close()
		model.watcher = watcher
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return 2, fmt.Errorf("run program: %w", err)
	}
	return 0, nil
}

func runServe(env *cliEnv, args []string) (int, error) {
	fs := newFlagSet(env, "serve", "[-addr host:port]")
	addr := fs.String("addr", env.cfg.Server.Addr, "listen address")
	if err := parseArgs(fs, args, 0); err != nil {
		return 2, err
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           NewServer(env.cfg, env.logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		env.logger.Info("listening", map[string]any{"addr": *addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return 2, fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return 2, fmt.Errorf("shutdown: %w", err)
	}
	env.logger.Info("server stopped", statsFields(env.logger.Stats(), nil))
	return 0, nil
}

// shouldColor resolves the -color flag. "auto" colours only terminals and honours NO_COLOR.
func shouldColor(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		f, ok := w.(*os.File)
		if !ok {
			return false, nil
		}
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()), nil
	default:
		return false, fmt.Errorf("-color must be auto, always or never, got %q", mode)
	}
}

// writeUnified writes diff text, colouring each line by its role when colorize is set.
func writeUnified(w io.Writer, unified string, colorize bool) error {
	if !colorize {
		_, err := io.WriteString(w, unified)
		return err
	}

	header := color.New(color.Bold)
	hunk := color.New(color.FgCyan)
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	marker := color.New(color.Faint)
	for _, c := range []*color.Color{header, hunk, added, removed, marker} {
		c.EnableColor()
	}

	var b strings.Builder
	for i, line := range patch.SplitLines(unified) {
		text := strings.TrimSuffix(line, "\n")
		var c *color.Color
		switch {
		case i < 2:
			c = header
		case strings.HasPrefix(text, "@@"):
			c = hunk
		case strings.HasPrefix(text, "+"):
			c = added
		case strings.HasPrefix(text, "-"):
			c = removed
		case strings.HasPrefix(text, `\`):
			c = marker
		}
		if c != nil {
			text = c.Sprint(text)
		}
		b.WriteString(text)
		if strings.HasSuffix(line, "\n") {
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// writeOutput writes text to path, or to stdout when path is empty.
func writeOutput(stdout io.Writer, path, text string) error {
	if path == "" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// renderSideTable lays rows out as two plain columns.
func renderSideTable(rows []patch.Row) string {
	leftWidth := 0
	for _, row := range rows {
		leftWidth = max(leftWidth, runewidth.StringWidth(expandTabs(row.Left)))
	}

	var b strings.Builder
	for _, row := range rows {
		leftMark, rightMark := rowMarkers(row)
		left := fitWidth(expandTabs(row.Left), leftWidth)
		line := fmt.Sprintf("%4s %c %s | %4s %c %s",
			lineLabel(row.LeftLine), leftMark, left,
			lineLabel(row.RightLine), rightMark, expandTabs(row.Right))
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}
	return b.String()
}

func rowMarkers(row patch.Row) (left, right rune) {
	left, right = ' ', ' '
	switch row.Kind {
	case patch.RowDelete:
		left = '-'
	case patch.RowAdd:
		right = '+'
	case patch.RowModify:
		if row.LeftLine > 0 {
			left = '-'
		}
		if row.RightLine > 0 {
			right = '+'
		}
	}
	return left, right
}

func lineLabel(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprint(n)
}
