package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"docent/internal/events"
	"docent/internal/lifecycle"
	"docent/internal/navigation"
	"docent/internal/session"
	"docent/internal/types"

	"go.uber.org/zap"
)

var (
	ErrInvalidTransition = errors.New("transition not allowed")
	ErrNotStarted        = errors.New("coordinator not started")
	ErrNotAttached       = errors.New("screen is not attached")
	ErrNotActive         = errors.New("screen is not receiving input")
	ErrMissingDocent     = errors.New("no docent to show")
	ErrUnknownFolder     = errors.New("folder does not exist")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnavailable       = errors.New("collaborator not configured")
)

// pushes lists, per route on top, which routes may be pushed or presented
// over it. Home and Launch are only ever reached by resetting the stack.
var pushes = map[navigation.Route][]navigation.Route{
	navigation.RouteHome:    {navigation.RouteEntry, navigation.RouteCamera, navigation.RouteSidebar},
	navigation.RouteCamera:  {navigation.RouteEntry},
	navigation.RouteEntry:   {navigation.RouteChat, navigation.RoutePlayer},
	navigation.RoutePlayer:  {navigation.RouteSave, navigation.RouteUnderline},
	navigation.RouteSidebar: {navigation.RouteLike, navigation.RouteSave, navigation.RouteUnderline, navigation.RouteRecord},
}

// CanTransition reports whether to may be opened while from is on top.
func CanTransition(from, to navigation.Route) bool {
	for _, r := range pushes[from] {
		if r == to {
			return true
		}
	}
	return false
}

// Deps are the collaborators an AppCoordinator drives. Any service may be nil;
// operations needing it then fail with ErrUnavailable. A nil Docents accepts
// every positive docent id.
type Deps struct {
	Bus        EventBus
	Gate       *session.Gate
	Likes      LikeToggler
	Folders    FolderLister
	Dashboard  DashboardProvider
	Saves      SaveService
	FolderEdit FolderEditor
	Records    RecordService
	Highlights HighlightService
	Docents    DocentResolver
	Scheduler  Scheduler
	Logger     *zap.Logger
}

// Snapshot is a read-only view of navigation and shared data for renderers.
type Snapshot struct {
	Routes    []navigation.Route
	Overlay   navigation.Route
	Top       *navigation.Screen
	User      types.UserInfo
	Folders   []types.Folder
	Dashboard *types.DashboardSummary
}

// AppCoordinator owns the navigation state and builds every screen.
//
// Everything except Observe must be called on the UI goroutine; collaborator
// results are brought back there through the Scheduler.
type AppCoordinator struct {
	bus    EventBus
	gate   *session.Gate
	sched  Scheduler
	logger *zap.Logger

	likeSvc      LikeToggler
	folderSvc    FolderLister
	dashSvc      DashboardProvider
	saveSvc      SaveService
	editSvc      FolderEditor
	recordSvc    RecordService
	highlightSvc HighlightService
	docents      DocentResolver

	ctx     context.Context
	cancel  context.CancelFunc
	started bool

	state  navigation.State
	scope  *lifecycle.Scope
	user   types.UserInfo
	shared sharedData

	obsMu     sync.Mutex
	observers []*observer
}

type observer struct {
	fn       func(Snapshot)
	released bool
}

// New creates a coordinator. Nothing is on the stack until Start.
func New(deps Deps) *AppCoordinator {
	if deps.Bus == nil {
		deps.Bus = events.NewBus(deps.Logger)
	}
	if deps.Scheduler == nil {
		deps.Scheduler = Inline{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AppCoordinator{
		bus:          deps.Bus,
		gate:         deps.Gate,
		sched:        deps.Scheduler,
		logger:       deps.Logger,
		likeSvc:      deps.Likes,
		folderSvc:    deps.Folders,
		dashSvc:      deps.Dashboard,
		saveSvc:      deps.Saves,
		editSvc:      deps.FolderEdit,
		recordSvc:    deps.Records,
		highlightSvc: deps.Highlights,
		docents:      deps.Docents,
		ctx:          ctx,
		cancel:       cancel,
		scope:        lifecycle.NewScope(),
	}
}

// Start puts Launch on the stack, binds the session gate to ForceLogout and
// checks for a stored credential; a resumed session goes straight to Home.
// Calling Start again does nothing.
func (a *AppCoordinator) Start(ctx context.Context) {
	if a.started {
		return
	}
	a.started = true
	a.cancel()
	a.ctx, a.cancel = context.WithCancel(ctx)

	launch := navigation.NewScreen(navigation.RouteLaunch, navigation.Params{})
	_ = a.state.Reset(launch)
	a.bindShared()
	if a.gate != nil {
		a.scope.Track(a.gate.Bind(a.bus, a))
	}
	a.logger.Info("coordinator started")
	a.notify()

	if a.gate == nil {
		return
	}
	checkCtx := a.ctx
	a.sched.Background(func() {
		out, err := a.gate.CheckAutoLogin(checkCtx)
		a.sched.Main(func() {
			if !launch.Alive() {
				return
			}
			if err != nil {
				a.logger.Warn("session check failed", zap.Error(err))
				return
			}
			a.logger.Info("session check", zap.Stringer("outcome", out.Status))
			if out.Status == session.StatusResumed {
				a.enterHome(out.User)
			}
		})
	})
}

// Started reports whether Start has run.
func (a *AppCoordinator) Started() bool { return a.started }

// Close releases the coordinator's subscriptions, detaches every screen and
// cancels in-flight collaborator calls.
func (a *AppCoordinator) Close() {
	a.cancel()
	a.scope.Close()
	if o := a.state.Overlay(); o != nil {
		o.Scope.Close()
	}
	for _, s := range a.state.Screens() {
		s.Scope.Close()
	}
}

// Bus returns the event bus features subscribe to.
func (a *AppCoordinator) Bus() EventBus { return a.bus }

// User returns the signed-in user, or the zero value at Launch.
func (a *AppCoordinator) User() types.UserInfo { return a.user }

// Push opens s over the current top after checking the transition table.
// Opening a stack screen from an overlay dismisses the overlay first.
func (a *AppCoordinator) Push(s *navigation.Screen) error {
	if !a.started {
		return ErrNotStarted
	}
	if s == nil {
		return navigation.ErrNilScreen
	}
	if s.Route.IsOverlay() {
		return fmt.Errorf("push %s: %w", s.Route, navigation.ErrOverlayRoute)
	}
	from := a.state.Top()
	if !CanTransition(from.Route, s.Route) {
		return fmt.Errorf("%s -> %s: %w", from.Route, s.Route, ErrInvalidTransition)
	}
	if a.state.Overlay() != nil {
		_, _ = a.state.Dismiss(nil)
	}
	if err := a.state.Push(s); err != nil {
		return err
	}

	a.logger.Debug("push", zap.Stringer("screen", s), zap.Int("depth", a.state.Depth()))
	a.notify()
	return nil
}

// Pop goes back one level. With an overlay presented that means dismissing
// it. Popping the root is a no-op reported as false.
func (a *AppCoordinator) Pop() bool {
	if a.state.Overlay() != nil {
		return a.Dismiss() == nil
	}
	popped, ok := a.state.Pop()
	if !ok {
		a.logger.Debug("pop at root ignored", zap.Int("depth", a.state.Depth()))
		return false
	}
	a.logger.Debug("pop", zap.Stringer("screen", popped), zap.Int("depth", a.state.Depth()))
	a.notify()
	return true
}

// Present shows an overlay over the current top.
func (a *AppCoordinator) Present(s *navigation.Screen) error {
	if !a.started {
		return ErrNotStarted
	}
	if s == nil {
		return navigation.ErrNilScreen
	}
	from := a.state.Top()
	if !CanTransition(from.Route, s.Route) {
		return fmt.Errorf("%s -> %s: %w", from.Route, s.Route, ErrInvalidTransition)
	}
	if err := a.state.Present(s); err != nil {
		return err
	}
	a.logger.Debug("present", zap.Stringer("screen", s))
	a.notify()
	return nil
}

// Dismiss removes the presented overlay.
func (a *AppCoordinator) Dismiss() error {
	dismissed, err := a.state.Dismiss(nil)
	if err != nil {
		return err
	}
	a.logger.Debug("dismiss", zap.Stringer("screen", dismissed))
	a.notify()
	return nil
}

// PopToHome drops the overlay and every screen above Home.
func (a *AppCoordinator) PopToHome() error {
	if !a.state.Contains(navigation.RouteHome) {
		return fmt.Errorf("pop to home: %w", ErrInvalidTransition)
	}
	if a.state.Overlay() != nil {
		_, _ = a.state.Dismiss(nil)
	}
	removed, err := a.state.PopTo(navigation.RouteHome)
	if err != nil {
		return err
	}
	a.logger.Debug("pop to home", zap.Int("removed", len(removed)))
	a.notify()
	return nil
}

// ResetToLaunch detaches every screen, overlay included, and leaves exactly
// [Launch]. Cached user data is dropped with them.
func (a *AppCoordinator) ResetToLaunch() {
	_ = a.state.Reset(navigation.NewScreen(navigation.RouteLaunch, navigation.Params{}))
	a.user = types.UserInfo{}
	a.shared.reset()
	a.logger.Info("navigation reset to launch")
	a.notify()
}

func (a *AppCoordinator) enterHome(user types.UserInfo) {
	a.user = user
	_ = a.state.Reset(navigation.NewScreen(navigation.RouteHome, navigation.Params{User: user}))
	a.notify()
	a.scheduleRefresh()
}

// Current returns the coordinator view of the screen receiving input.
func (a *AppCoordinator) Current() *ScreenCoordinator {
	top := a.state.Top()
	if top == nil {
		return nil
	}
	return a.View(top)
}

// View binds a coordinator view to s.
func (a *AppCoordinator) View(s *navigation.Screen) *ScreenCoordinator {
	return &ScreenCoordinator{app: a, screen: s}
}

// Snapshot describes the current navigation state.
func (a *AppCoordinator) Snapshot() Snapshot {
	snap := Snapshot{
		Routes:    a.state.Routes(),
		Top:       a.state.Top(),
		User:      a.user,
		Folders:   a.shared.folderList(),
		Dashboard: a.shared.dashboardCopy(),
	}
	if o := a.state.Overlay(); o != nil {
		snap.Overlay = o.Route
	}
	return snap
}

// Observe registers fn to receive a Snapshot after every navigation or shared
// data change. fn runs on the UI goroutine.
func (a *AppCoordinator) Observe(fn func(Snapshot)) lifecycle.ReleaseFunc {
	o := &observer{fn: fn}
	a.obsMu.Lock()
	a.observers = append(a.observers, o)
	a.obsMu.Unlock()

	return func() {
		a.obsMu.Lock()
		defer a.obsMu.Unlock()
		o.released = true
		for i, cur := range a.observers {
			if cur == o {
				a.observers = append(a.observers[:i:i], a.observers[i+1:]...)
				break
			}
		}
	}
}

func (a *AppCoordinator) notify() {
	a.obsMu.Lock()
	list := make([]*observer, len(a.observers))
	copy(list, a.observers)
	a.obsMu.Unlock()
	if len(list) == 0 {
		return
	}

	snap := a.Snapshot()
	for _, o := range list {
		a.obsMu.Lock()
		released := o.released
		a.obsMu.Unlock()
		if !released {
			o.fn(snap)
		}
	}
}

var _ session.Resetter = (*AppCoordinator)(nil)
