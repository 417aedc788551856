package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/tunescout/internal/config"
	"github.com/mmcdole/tunescout/internal/domain"
	"github.com/mmcdole/tunescout/internal/feed"
	"github.com/mmcdole/tunescout/internal/log"
	"github.com/mmcdole/tunescout/internal/recommend"
	"github.com/mmcdole/tunescout/internal/store"
	"github.com/mmcdole/tunescout/internal/tui"
	"github.com/mmcdole/tunescout/internal/tui/styles"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

type options struct {
	configPath   string
	playlistID   int
	pageSize     int
	pages        int
	rate         time.Duration
	headless     bool
	clearHistory bool
	check        bool
}

func main() {
	var (
		showVersion bool
		opts        options
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&opts.configPath, "config", "", "path to config file")
	flag.IntVar(&opts.playlistID, "playlist", 0, "playlist id; prints recommendations without the TUI")
	flag.IntVar(&opts.pageSize, "page-size", 0, "recommendations per page (default from config)")
	flag.IntVar(&opts.pages, "pages", 0, "stop after this many pages (0 = all)")
	flag.DurationVar(&opts.rate, "rate", 0, "minimum delay between page requests")
	flag.BoolVar(&opts.headless, "headless", false, "print recommendations instead of starting the TUI")
	flag.BoolVar(&opts.clearHistory, "clear-history", false, "delete the query history and exit")
	flag.BoolVar(&opts.check, "check", false, "check that the recommendation service is reachable and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("tunescout %s\n", Version)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	// Load configuration
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadConfigFrom(opts.configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if opts.clearHistory {
		if err := config.ClearHistory(cfg); err != nil {
			return err
		}
		fmt.Println("✓ History cleared")
		return nil
	}

	if opts.check {
		return checkServiceWithSpinner(cfg.Server.URL)
	}

	// Setup logger
	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting tunescout", "version", Version, "server", cfg.Server.URL)

	repo, err := recommend.NewRepository(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create recommendation client: %w", err)
	}

	ctrl := feed.NewController(repo, logger, cfg.Server.Timeout)
	defer ctrl.Close()

	if opts.headless || opts.playlistID > 0 || !term.IsTerminal(int(os.Stdout.Fd())) {
		return runHeadless(ctrl, cfg, opts, os.Stdout, logger)
	}

	return runTUI(ctrl, cfg, logger)
}

func runTUI(ctrl *feed.Controller, cfg *config.Config, logger *slog.Logger) error {
	if !styles.UseTheme(cfg.UI.Theme) {
		logger.Warn("unknown theme, using default", "theme", cfg.UI.Theme)
	}

	hs, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	var history domain.HistoryStore
	if hs != nil {
		defer hs.Close()
		history = hs
	}

	model := tui.NewModel(ctrl, history, logger, tui.Options{
		DefaultPlaylistID: cfg.Paging.DefaultPlaylistID,
		DefaultPageSize:   cfg.Paging.DefaultPageSize,
		HistoryMax:        cfg.History.Max,
		ShowRequestIDs:    cfg.UI.ShowRequestIDs,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// openHistory opens the configured history file, falling back to an
// in-memory store when it cannot be opened. It returns nil when history is
// disabled.
func openHistory(cfg *config.Config, logger *slog.Logger) (*store.HistoryStore, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}

	hs, err := store.NewHistoryStore(cfg.History.File, cfg.History.Max)
	if err == nil {
		return hs, nil
	}

	// History is optional; keep it in memory for this run
	logger.Warn("failed to open history, using memory only", "error", err)
	hs, err = store.NewHistoryStore("", cfg.History.Max)
	if err != nil {
		return nil, fmt.Errorf("failed to create history: %w", err)
	}
	return hs, nil
}

// runHeadless prints every recommendation as "track<TAB>artists".
func runHeadless(ctrl *feed.Controller, cfg *config.Config, opts options, out io.Writer, logger *slog.Logger) error {
	q := feed.Query{
		PlaylistID: cfg.Paging.DefaultPlaylistID,
		PageSize:   cfg.Paging.DefaultPageSize,
	}
	if opts.playlistID > 0 {
		q.PlaylistID = opts.playlistID
	}
	if opts.pageSize > 0 {
		q.PageSize = opts.pageSize
	}

	var limiter *rate.Limiter
	if opts.rate > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.rate), 1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := bufio.NewWriter(out)
	defer w.Flush()

	count := 0
	err := ctrl.Drain(ctx, q, opts.pages, limiter, func(tracks []domain.Track) error {
		for _, t := range tracks {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", tsvField(t.Title()), tsvField(t.Artists)); err != nil {
				return err
			}
		}
		count += len(tracks)
		return w.Flush()
	})

	logger.Info("headless run finished", "playlist_id", q.PlaylistID, "tracks", count, "error", err)
	return err
}

// tsvField keeps a value on one line and one column.
func tsvField(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}

// checkServiceWithSpinner probes the service with a visual spinner
func checkServiceWithSpinner(serverURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	type result struct {
		message string
		err     error
	}
	resultCh := make(chan result, 1)

	go func() {
		message, err := recommend.Probe(ctx, serverURL)
		resultCh <- result{message, err}
	}()

	frame := 0
	fmt.Printf("\r%s Checking %s...", styles.SpinnerFrames[frame], serverURL)

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case res := <-resultCh:
			fmt.Print(clearSpinnerLine)
			if res.err != nil {
				fmt.Printf("✗ %s\n", domain.UserMessage(res.err))
				return res.err
			}
			fmt.Printf("✓ %s\n", res.message)
			return nil

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Checking %s...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)], serverURL)

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return fmt.Errorf("check timed out")
		}
	}
}
