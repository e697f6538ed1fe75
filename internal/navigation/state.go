package navigation

import (
	"errors"
	"fmt"
	"time"

	"docent/internal/lifecycle"
	"docent/internal/types"

	"github.com/google/uuid"
)

var (
	ErrNilScreen       = errors.New("nil screen")
	ErrOverlayRoute    = errors.New("overlay routes must be presented, not pushed")
	ErrNotOverlay      = errors.New("route cannot be presented as an overlay")
	ErrOverlayActive   = errors.New("an overlay is already presented")
	ErrNoOverlay       = errors.New("no overlay is presented")
	ErrNotPresented    = errors.New("screen is not the presented overlay")
	ErrRouteNotInStack = errors.New("route is not in the stack")
)

// Params carries the ids a screen was opened with plus any shared data that
// was already resolved when it was built.
type Params struct {
	DocentID  int64
	FolderID  *int64
	Folders   []types.Folder
	Dashboard *types.DashboardSummary
	User      types.UserInfo
}

// Screen is one entry of the navigation history. Its Scope closes when the
// screen leaves the stack, releasing everything the screen subscribed to.
type Screen struct {
	ID       uuid.UUID
	Route    Route
	Params   Params
	Scope    *lifecycle.Scope
	OpenedAt time.Time
}

// NewScreen creates a screen with a fresh scope.
func NewScreen(route Route, params Params) *Screen {
	return &Screen{
		ID:       uuid.New(),
		Route:    route,
		Params:   params,
		Scope:    lifecycle.NewScope(),
		OpenedAt: time.Now(),
	}
}

// Alive reports whether the screen is still attached.
func (s *Screen) Alive() bool {
	return s != nil && s.Scope.Alive()
}

func (s *Screen) String() string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s#%s", s.Route, s.ID.String()[:8])
}

// State is the navigation stack plus an optional overlay. It is not
// synchronized; the coordinator mutates it from the UI loop only.
type State struct {
	stack   []*Screen
	overlay *Screen
}

// Push appends s to the stack.
func (st *State) Push(s *Screen) error {
	if s == nil {
		return ErrNilScreen
	}
	if s.Route.IsOverlay() {
		return fmt.Errorf("%s: %w", s.Route, ErrOverlayRoute)
	}
	st.stack = append(st.stack, s)
	return nil
}

// Pop removes the top of the stack. The root screen is never popped: with one
// or zero screens Pop reports false and changes nothing.
func (st *State) Pop() (*Screen, bool) {
	if len(st.stack) <= 1 {
		return nil, false
	}
	top := st.stack[len(st.stack)-1]
	st.stack[len(st.stack)-1] = nil
	st.stack = st.stack[:len(st.stack)-1]
	top.Scope.Close()
	return top, true
}

// PopTo pops until route is on top and returns the removed screens, top first.
func (st *State) PopTo(route Route) ([]*Screen, error) {
	target := -1
	for i := len(st.stack) - 1; i >= 0; i-- {
		if st.stack[i].Route == route {
			target = i
			break
		}
	}
	if target < 0 {
		return nil, fmt.Errorf("%s: %w", route, ErrRouteNotInStack)
	}

	var removed []*Screen
	for len(st.stack)-1 > target {
		s, _ := st.Pop()
		removed = append(removed, s)
	}
	return removed, nil
}

// Present shows s as the overlay.
func (st *State) Present(s *Screen) error {
	if s == nil {
		return ErrNilScreen
	}
	if !s.Route.IsOverlay() {
		return fmt.Errorf("%s: %w", s.Route, ErrNotOverlay)
	}
	if st.overlay != nil {
		return fmt.Errorf("%s over %s: %w", s.Route, st.overlay.Route, ErrOverlayActive)
	}
	st.overlay = s
	return nil
}

// Dismiss removes the overlay. A nil argument dismisses whatever is presented.
func (st *State) Dismiss(s *Screen) (*Screen, error) {
	if st.overlay == nil {
		return nil, ErrNoOverlay
	}
	if s != nil && s != st.overlay {
		return nil, fmt.Errorf("%s: %w", s, ErrNotPresented)
	}
	dismissed := st.overlay
	st.overlay = nil
	dismissed.Scope.Close()
	return dismissed, nil
}

// Reset closes every screen, overlay included, and leaves root alone on the
// stack.
func (st *State) Reset(root *Screen) error {
	if root == nil {
		return ErrNilScreen
	}
	if root.Route.IsOverlay() {
		return fmt.Errorf("%s: %w", root.Route, ErrOverlayRoute)
	}
	if st.overlay != nil {
		st.overlay.Scope.Close()
		st.overlay = nil
	}
	for i := len(st.stack) - 1; i >= 0; i-- {
		st.stack[i].Scope.Close()
	}
	st.stack = []*Screen{root}
	return nil
}

// Top returns the screen receiving input: the overlay if one is presented,
// else the top of the stack.
func (st *State) Top() *Screen {
	if st.overlay != nil {
		return st.overlay
	}
	return st.StackTop()
}

// StackTop returns the top of the stack, ignoring any overlay.
func (st *State) StackTop() *Screen {
	if len(st.stack) == 0 {
		return nil
	}
	return st.stack[len(st.stack)-1]
}

// Overlay returns the presented overlay, if any.
func (st *State) Overlay() *Screen { return st.overlay }

// Depth is the number of stacked screens, overlay excluded.
func (st *State) Depth() int { return len(st.stack) }

// Routes lists the stacked routes from root to top.
func (st *State) Routes() []Route {
	routes := make([]Route, len(st.stack))
	for i, s := range st.stack {
		routes[i] = s.Route
	}
	return routes
}

// Screens returns a copy of the stack from root to top.
func (st *State) Screens() []*Screen {
	out := make([]*Screen, len(st.stack))
	copy(out, st.stack)
	return out
}

// Contains reports whether route is anywhere in the stack or is the overlay.
func (st *State) Contains(route Route) bool {
	if st.overlay != nil && st.overlay.Route == route {
		return true
	}
	for _, s := range st.stack {
		if s.Route == route {
			return true
		}
	}
	return false
}
