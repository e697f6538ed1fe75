package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"docent/cmd/docent/ui"
	"docent/internal/config"
	"docent/internal/coordinator"
	"docent/internal/events"
	"docent/internal/logging"
	"docent/internal/narration"
	"docent/internal/session"
	"docent/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scripts []string

// runCmd starts the interactive guide
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive guide",
	RunE:  runGuide,
}

func openStore() (*store.LocalStore, error) {
	s, err := store.NewLocalStore(cfg.Store.DatabasePath, logs.Get(logging.CategoryStore))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

// loadDocents reads every script into a home feed entry. Ids follow the
// order the scripts were given in.
func loadDocents(paths []string) ([]ui.Docent, error) {
	docents := make([]ui.Docent, 0, len(paths))
	for i, path := range paths {
		doc, err := narration.LoadFile(path)
		if err != nil {
			return nil, err
		}
		docents = append(docents, ui.Docent{
			ID:    int64(i + 1),
			Title: scriptTitle(path),
			Index: narration.NewIndex(doc),
		})
	}
	return docents, nil
}

func scriptTitle(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.ReplaceAll(strings.ReplaceAll(base, "_", " "), "-", " ")
}

func runGuide(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	paths := scripts
	if len(paths) == 0 && cfg.Playback.Script != "" {
		paths = []string{cfg.Playback.Script}
	}
	docents, err := loadDocents(paths)
	if err != nil {
		return err
	}
	logs.Get(logging.CategoryNarration).Info("scripts loaded", zap.Int("count", len(docents)))

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	bus := events.NewBus(logs.Get(logging.CategoryBus))
	loop := coordinator.NewLoop()
	defer loop.Close()

	app := coordinator.New(coordinator.Deps{
		Bus:        bus,
		Gate:       session.NewGate(st, bus, logs.Get(logging.CategorySession)),
		Likes:      st,
		Folders:    st,
		Dashboard:  st,
		Saves:      st,
		FolderEdit: st,
		Records:    st,
		Highlights: st,
		Docents:    ui.Catalog(docents),
		Scheduler:  loop,
		Logger:     logs.Get(logging.CategoryNavigation),
	})
	defer app.Close()
	app.Start(ctx)

	model := ui.New(ui.Options{
		App:       app,
		Loop:      loop,
		Sources:   st,
		Docents:   docents,
		Theme:     cfg.UI.Theme,
		ShowStack: cfg.UI.ShowStack,
		Tick:      cfg.GetTickInterval(),
		SeekStep:  cfg.GetSeekStep(),
		Logger:    logs.Get(logging.CategoryUI),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	watcher, err := config.NewWatcher(configPath, func(next *config.Config) {
		if err := logs.SetLevel(next.Logging.Level); err != nil {
			logger.Warn("ignoring log level from config", zap.Error(err))
		}
		p.Send(ui.ThemeMsg{Theme: next.UI.Theme, ShowStack: next.UI.ShowStack})
	}, logs.Get(logging.CategoryConfig))
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		logger.Warn("config hot reload disabled", zap.Error(err))
	}
	defer watcher.Stop()

	logger.Info("starting guide", zap.String("db", st.Path()))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("guide exited: %w", err)
	}
	return nil
}

func newGate(st *store.LocalStore) *session.Gate {
	return session.NewGate(st, events.NewBus(logs.Get(logging.CategoryBus)), logs.Get(logging.CategorySession))
}
