// Command quiz plays a quiz in the terminal. Progress is kept under the
// user config directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/quizforge/backend/internal/domain/quizsession"
	"github.com/quizforge/backend/internal/mastery"
	"github.com/quizforge/backend/internal/service"
	"github.com/quizforge/backend/internal/source"
	"github.com/quizforge/backend/internal/tui"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2

	localLearner = "local"
)

// runProgram is replaced in tests.
var runProgram = func(m tui.Model, stdout io.Writer) (tui.Model, error) {
	final, err := tea.NewProgram(m, tea.WithOutput(stdout)).Run()
	if err != nil {
		return m, err
	}
	return final.(tui.Model), nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("quiz", flag.ContinueOnError)
	fs.SetOutput(stderr)
	topic := fs.String("topic", "", "Topic to practise")
	dir := fs.String("dir", "", "Directory of extra YAML topics")
	dataDir := fs.String("data", "", "Directory for mastery files (default: user config dir)")
	noShuffle := fs.Bool("no-shuffle", false, "Keep questions and options in file order")
	maxQuestions := fs.Int("max", 0, "Maximum number of questions, 0 for all")
	reset := fs.Bool("reset", false, "Forget the progress on -topic and exit")
	list := fs.Bool("list", false, "List the topics and exit")
	noColor := fs.Bool("no-color", false, "Disable colors")
	verbose := fs.Bool("v", false, "Log warnings to stderr")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	level := slog.LevelError + 1
	if *verbose {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	fallback := source.NewFallback(*dir)
	if *list {
		return listTopics(fallback, stdout, stderr)
	}
	if *topic == "" {
		fmt.Fprintln(stderr, "quiz: -topic is required (see -list)")
		fs.Usage()
		return exitUsage
	}
	if *maxQuestions < 0 {
		fmt.Fprintln(stderr, "quiz: -max must not be negative")
		return exitUsage
	}

	masteryDir, err := resolveDataDir(*dataDir)
	if err != nil {
		fmt.Fprintf(stderr, "quiz: %v\n", err)
		return exitError
	}
	files := mastery.NewFilePersistence(masteryDir)
	backend := service.MasteryBackendFunc(func(string) mastery.Persistence { return files })
	quiz := service.NewQuizService(nil, fallback, backend, logger, 24*time.Hour)

	ctx := context.Background()
	if *reset {
		quiz.ResetMastery(ctx, localLearner, *topic)
		fmt.Fprintf(stdout, "Progress on %s cleared.\n", *topic)
		return exitOK
	}

	cfg := quizsession.DefaultConfig()
	if *noShuffle {
		cfg.ShuffleQuestions = false
		cfg.ShuffleOptions = false
	}
	if *maxQuestions > 0 {
		cfg.MaxQuestions = maxQuestions
	}

	sess, err := quiz.StartSession(ctx, localLearner, *topic, cfg)
	if errors.Is(err, source.ErrNoQuestions) {
		fmt.Fprintf(stderr, "quiz: unknown topic %q (see -list)\n", *topic)
		return exitUsage
	}
	if err != nil {
		fmt.Fprintf(stderr, "quiz: %v\n", err)
		return exitError
	}

	final, err := runProgram(tui.New(ctx, sess, tui.Options{NoColor: *noColor}), stdout)
	if err != nil {
		fmt.Fprintf(stderr, "quiz: %v\n", err)
		return exitError
	}

	s := final.Summary()
	fmt.Fprintf(stdout, "%s: %d/%d correct, %d mastered question(s) skipped.\n", *topic, s.Correct, s.Total, s.Hidden)
	return exitOK
}

func listTopics(fallback *source.FallbackSource, stdout, stderr io.Writer) int {
	topics, err := fallback.Topics()
	if err != nil {
		fmt.Fprintf(stderr, "quiz: %v\n", err)
		return exitError
	}
	for _, t := range topics {
		fmt.Fprintf(stdout, "%-12s %-28s %d questions\n", t.Name, t.DisplayName, t.Questions)
	}
	return exitOK
}

func resolveDataDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, "quizforge"), nil
}
