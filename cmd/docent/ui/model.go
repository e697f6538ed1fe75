package ui

import (
	"context"
	"time"

	"docent/internal/coordinator"
	"docent/internal/events"
	"docent/internal/feature"
	"docent/internal/lifecycle"
	"docent/internal/narration"
	"docent/internal/navigation"
	"docent/internal/types"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Docent is one narration the home feed offers.
type Docent struct {
	ID    int64
	Title string
	Index *narration.Index
}

// Catalog is the set of docents the home feed offers. The coordinator uses
// it to refuse screens for docents that do not exist.
type Catalog []Docent

// HasDocent reports whether id is in the catalog.
func (c Catalog) HasDocent(id int64) bool {
	for _, d := range c {
		if d.ID == id {
			return true
		}
	}
	return false
}

// Sources are the read side of the local repository the list screens show.
type Sources interface {
	feature.FolderSource
	feature.RecordSource
	feature.HighlightSource
	feature.LikeSource
}

// Options configures New.
type Options struct {
	App       *coordinator.AppCoordinator
	Loop      *coordinator.Loop
	Sources   Sources
	Docents   []Docent
	Theme     string
	ShowStack bool
	Tick      time.Duration
	SeekStep  time.Duration
	Logger    *zap.Logger
}

// screenState is what the UI keeps per attached screen.
type screenState struct {
	screen     *navigation.Screen
	cursor     int
	docent     *Docent
	likes      *feature.LikeCache
	player     *feature.Player
	folders    *feature.List[types.Folder]
	records    *feature.List[types.Record]
	highlights *feature.List[types.Highlight]
	liked      *feature.List[types.LikedItem]
}

type prompt struct {
	label  string
	input  textinput.Model
	submit func(string)
}

// state is shared by every copy of Model so completions running inside
// Update can mutate it.
type state struct {
	screens  map[uuid.UUID]*screenState
	flash    string
	flashErr bool
	prompt   *prompt
	lastTick time.Time
	release  lifecycle.ReleaseFunc
}

// Model is the bubbletea model.
type Model struct {
	app       *coordinator.AppCoordinator
	loop      *coordinator.Loop
	sched     coordinator.Scheduler
	sources   Sources
	docents   []Docent
	styles    Styles
	showStack bool
	tick      time.Duration
	seekStep  time.Duration
	logger    *zap.Logger

	width    int
	height   int
	progress progress.Model
	viewport viewport.Model
	st       *state
}

type (
	tickMsg      time.Time
	loopReadyMsg struct{}
	loopDoneMsg  struct{}
)

// ThemeMsg switches palette while running; the config watcher sends it.
type ThemeMsg struct {
	Theme     string
	ShowStack bool
}

// New builds the model. The coordinator must already be started.
func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Tick <= 0 {
		opts.Tick = 250 * time.Millisecond
	}
	if opts.SeekStep <= 0 {
		opts.SeekStep = 5 * time.Second
	}
	var sched coordinator.Scheduler = coordinator.Inline{}
	if opts.Loop != nil {
		sched = opts.Loop
	}

	m := Model{
		app:       opts.App,
		loop:      opts.Loop,
		sched:     sched,
		sources:   opts.Sources,
		docents:   opts.Docents,
		styles:    NewStyles(ThemeFor(opts.Theme)),
		showStack: opts.ShowStack,
		tick:      opts.Tick,
		seekStep:  opts.SeekStep,
		logger:    opts.Logger,
		width:     80,
		height:    24,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		viewport:  viewport.New(76, 12),
		st: &state{
			screens: make(map[uuid.UUID]*screenState),
		},
	}
	m.st.release = m.app.Observe(func(coordinator.Snapshot) { m.prune() })
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tickCmd()}
	if m.loop != nil {
		cmds = append(cmds, waitLoop(m.loop))
	}
	return tea.Batch(cmds...)
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// waitLoop parks until coordinator work is queued for the UI goroutine.
func waitLoop(loop *coordinator.Loop) tea.Cmd {
	return func() tea.Msg {
		if loop.Wait(context.Background()) {
			return loopReadyMsg{}
		}
		return loopDoneMsg{}
	}
}

// current returns the UI state of the top screen, creating it on first use.
func (m Model) current() *screenState {
	top := m.app.Snapshot().Top
	if top == nil {
		return nil
	}
	if ss, ok := m.st.screens[top.ID]; ok {
		return ss
	}

	ss := &screenState{screen: top}
	ctx := context.Background()
	bus := m.app.Bus()
	params := top.Params
	ss.docent = m.docent(params.DocentID)

	switch top.Route {
	case navigation.RouteHome, navigation.RouteEntry:
		ss.likes = feature.NewLikeCache(top.Scope, bus)
		if m.sources != nil {
			var ids []int64
			if top.Route == navigation.RouteEntry {
				ids = append(ids, params.DocentID)
			} else {
				for _, d := range m.docents {
					ids = append(ids, d.ID)
				}
			}
			ss.likes.Load(ctx, m.sched, m.sources, events.TargetArtwork, ids...)
		}
	case navigation.RoutePlayer:
		if ss.docent != nil {
			ss.player = feature.NewPlayer(ss.docent.Index, m.seekStep)
		}
	case navigation.RouteSave:
		if m.sources != nil {
			ss.folders = feature.NewFolderList(ctx, top.Scope, bus, m.sched, m.sources)
		}
		if params.FolderID != nil {
			for i, f := range params.Folders {
				if f.ID == *params.FolderID {
					ss.cursor = i
				}
			}
		}
	case navigation.RouteRecord:
		if m.sources != nil {
			ss.records = feature.NewRecordList(ctx, top.Scope, bus, m.sched, m.sources)
		}
	case navigation.RouteUnderline:
		if m.sources != nil {
			ss.highlights = feature.NewHighlightList(ctx, top.Scope, bus, m.sched, m.sources, params.DocentID)
		}
	case navigation.RouteLike:
		if m.sources != nil {
			ss.liked = feature.NewLikeList(ctx, top.Scope, bus, m.sched, m.sources, "")
		}
	}
	m.st.screens[top.ID] = ss
	return ss
}

// prune forgets screens the coordinator has detached.
func (m Model) prune() {
	for id, ss := range m.st.screens {
		if !ss.screen.Alive() {
			delete(m.st.screens, id)
		}
	}
}

func (m Model) docent(id int64) *Docent {
	for i := range m.docents {
		if m.docents[i].ID == id {
			return &m.docents[i]
		}
	}
	return nil
}

func (m Model) setFlash(msg string) {
	m.st.flash = msg
	m.st.flashErr = false
}

func (m Model) setError(err error) {
	if err == nil {
		return
	}
	m.st.flash = err.Error()
	m.st.flashErr = true
	m.logger.Debug("ui error", zap.Error(err))
}

func (m Model) ask(label string, submit func(string)) tea.Cmd {
	in := textinput.New()
	in.Prompt = label + ": "
	in.CharLimit = 80
	m.st.prompt = &prompt{label: label, input: in, submit: submit}
	return m.st.prompt.input.Focus()
}
