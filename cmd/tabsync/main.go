package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jask/tabsync/internal/config"
	"github.com/jask/tabsync/internal/database"
	"github.com/jask/tabsync/internal/database/repository"
	"github.com/jask/tabsync/internal/engine"
	"github.com/jask/tabsync/internal/logging"
	"github.com/jask/tabsync/internal/service"
	"github.com/jask/tabsync/internal/tui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tabsync: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) (err error) {
	fs := config.Flags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if write, _ := fs.GetBool("write-config"); write {
		return config.Save(cfg)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir db dir: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { err = multierr.Append(err, db.Close()) }()
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	journal := repository.NewDirectiveRepo(db)
	snapshots := repository.NewSnapshotRepo(db)
	if n, _ := fs.GetInt("history"); n > 0 {
		return printHistory(ctx, os.Stdout, journal, n)
	}
	if reset, _ := fs.GetBool("reset"); reset {
		if err := snapshots.Clear(ctx); err != nil {
			return fmt.Errorf("reset snapshot: %w", err)
		}
		log.Info("stored snapshot discarded")
	}
	defer func() {
		if cfg.Database.JournalKeep <= 0 {
			return
		}
		n, perr := journal.Prune(context.Background(), cfg.Database.JournalKeep)
		if perr != nil {
			log.Warn("prune journal", zap.Error(perr))
			return
		}
		log.Debug("pruned journal", zap.Int64("removed", n))
	}()

	eng, seq, err := service.Restore(ctx, snapshots, journal, engine.UUIDGenerator(), log)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	src, err := openSource(cfg.Transport.Source)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	directives := make(chan []byte, 16)
	go func() {
		if err := service.ReadDirectives(ctx, src, directives); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("directive stream", zap.Error(err))
			return
		}
		log.Info("directive stream closed", zap.String("source", cfg.Transport.Source))
	}()

	coord := &service.Coordinator{
		Engine:     eng,
		Journal:    journal,
		Snapshots:  snapshots,
		Log:        log,
		JournalSeq: seq,
	}

	if cfg.UI.Headless {
		coord.Renderer = service.RendererFunc(func(u engine.Update) { logUpdate(log, u) })
		return ignoreCanceled(coord.Run(ctx, directives, nil))
	}

	selections := make(chan service.SelectRequest, 16)
	model := tui.New(ctx, selections, tui.Options{ShowDeprecated: cfg.UI.ShowDeprecated})
	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.Transport.Source == "-" {
		opts = append(opts, tea.WithInputTTY())
	}
	p := tea.NewProgram(model, opts...)
	coord.Renderer = tui.Renderer(p)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return coord.Run(gctx, directives, selections) })
	g.Go(func() error {
		defer stop()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	return ignoreCanceled(g.Wait())
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.UI.Headless || cfg.Log.File == "" {
		log, _, err := logging.New(cfg.Log.Level, cfg.Log.Development)
		return log, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir log dir: %w", err)
	}
	return logging.NewFile(cfg.Log.File, cfg.Log.Level)
}

func openSource(source string) (io.ReadCloser, error) {
	if source == "" || source == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open directive source: %w", err)
	}
	return f, nil
}

// printHistory writes the newest n journal entries, oldest first.
func printHistory(ctx context.Context, w io.Writer, journal *repository.DirectiveRepo, n int) error {
	entries, err := journal.Recent(ctx, n)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRECEIVED\tSTATUS\tKIND\tACTIVE\tOUTCOME")
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		outcome := e.Transition
		if e.Status == repository.StatusRejected {
			outcome = e.Error
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", e.Seq, e.ReceivedAt.Format(time.RFC3339), e.Status, e.Kind, e.Active, outcome)
	}
	return tw.Flush()
}

func logUpdate(log *zap.Logger, u engine.Update) {
	if !u.Changed() && len(u.Created) == 0 {
		return
	}
	tabs := make([]string, 0, len(u.Containers))
	for _, c := range u.Containers {
		tabs = append(tabs, c.ServedID)
	}
	sel := u.SelectedContainer()
	log.Info("render",
		zap.String("transition", string(u.Transition)),
		zap.Strings("tabs", tabs),
		zap.String("selected", sel.ServedID),
		zap.String("path", sel.Path),
	)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
