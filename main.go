package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const appVersion = "1.0.0"

const usageText = `usage: scenepatch [-config file] [-debug] <command> [flags] [args]

commands:
  diff    [-U n] [-name f] [-color auto|always|never] OLD NEW
  apply   [-fuzzy] [-best-effort] [-threshold n] [-o file] ORIGINAL PATCH
  side    [-width n] OLD NEW
  view    [-width n] [-watch] OLD NEW
  summary PATCH
  serve   [-addr host:port]
  version

Documents are file paths, - for stdin, REV:path for a committed file or :path for a staged one.
`

// errUsage marks argument errors; the usage text has already been printed.
var errUsage = errors.New("invalid usage")

func main() {
	os.Exit(runCLI(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// runCLI runs one command and returns the process exit code.
func runCLI(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if handled := handleCLIArgs(args, stdout); handled {
		return 0
	}

	global := flag.NewFlagSet("scenepatch", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usageText) }
	configPath := global.String("config", "", "config file (default ./"+defaultConfigFile+")")
	debug := global.Bool("debug", false, "log at debug level regardless of the config")
	if err := global.Parse(args); err != nil {
		return 2
	}
	rest := global.Args()
	if len(rest) == 0 {
		fmt.Fprint(stderr, usageText)
		return 2
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	level, _ := ParseLogLevel(cfg.Log.Level)

	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", rest[0], usageText)
		return 2
	}

	var logger *Logger
	if rest[0] == "serve" {
		logger = NewWriterLogger(level, stderr)
	} else {
		logger = initLogger(level, stderr)
	}
	if *debug {
		logger.SetLevel(slog.LevelDebug)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil {
			fmt.Fprintf(stderr, "warning: close logger: %v\n", closeErr)
		}
	}()

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "failed to get working directory: %v\n", err)
		return 2
	}

	env := &cliEnv{
		cfg:    cfg,
		logger: logger,
		docs:   newDocumentLoader(wd, stdin),
		stdout: stdout,
		stderr: stderr,
	}
	logger.Info("scenepatch starting", map[string]any{
		"command": rest[0],
		"version": appVersion,
	})

	code, err := cmd(env, rest[1:])
	if err != nil {
		if !errors.Is(err, errUsage) {
			logger.Error("command failed", err, map[string]any{"command": rest[0]})
			fmt.Fprintf(stderr, "scenepatch %s: %v\n", rest[0], err)
		}
		if code == 0 {
			code = 2
		}
	}
	logger.Debug("scenepatch finished", statsFields(logger.Stats(), map[string]any{
		"command": rest[0],
		"exit":    code,
	}))
	return code
}

func initLogger(level slog.Level, stderr io.Writer) *Logger {
	logger, err := NewLogger(level)
	if err != nil {
		fmt.Fprintf(stderr, "warning: %v\n", err)
		logger.SetOutput(stderr)
	}
	return logger
}

func handleCLIArgs(args []string, stdout io.Writer) bool {
	if len(args) == 0 {
		fmt.Fprint(stdout, usageText)
		return true
	}
	switch {
	case isHelpArg(args[0]):
		printVersion(stdout)
		fmt.Fprint(stdout, usageText)
		return true
	case strings.EqualFold(args[0], "version") || args[0] == "--version":
		printVersion(stdout)
		return true
	}
	return false
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "scenepatch %s\n", appVersion)
}

func isHelpArg(arg string) bool {
	return strings.EqualFold(arg, "help") || arg == "-h" || arg == "--help"
}
