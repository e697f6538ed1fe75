package coordinator

import (
	"context"
	"fmt"
	"strings"

	"docent/internal/events"
	"docent/internal/lifecycle"
	"docent/internal/navigation"
	"docent/internal/types"

	"go.uber.org/zap"
)

// ScreenCoordinator is the router as seen from one screen. It implements
// every capability interface; each screen holds it as the one interface its
// feature declares. It does not own the AppCoordinator.
type ScreenCoordinator struct {
	app    *AppCoordinator
	screen *navigation.Screen
}

// Screen returns the screen this view is bound to.
func (v *ScreenCoordinator) Screen() *navigation.Screen { return v.screen }

// attached is required before any operation runs.
func (v *ScreenCoordinator) attached() error {
	if !v.app.started {
		return ErrNotStarted
	}
	if !v.screen.Alive() {
		return fmt.Errorf("%s: %w", v.screen, ErrNotAttached)
	}
	return nil
}

// active is required before navigation: only the screen receiving input may
// navigate.
func (v *ScreenCoordinator) active() error {
	if err := v.attached(); err != nil {
		return err
	}
	if v.app.state.Top() != v.screen {
		return fmt.Errorf("%s: %w", v.screen, ErrNotActive)
	}
	return nil
}

// open builds the destination screen and pushes or presents it. A screen that
// could not be attached is discarded with its scope closed.
func (v *ScreenCoordinator) open(route navigation.Route, params navigation.Params) error {
	if err := v.active(); err != nil {
		return v.decline(route, err)
	}
	params.User = v.app.user
	s := navigation.NewScreen(route, params)

	var err error
	if route.IsOverlay() {
		err = v.app.Present(s)
	} else {
		err = v.app.Push(s)
	}
	if err != nil {
		s.Scope.Close()
		return v.decline(route, err)
	}
	return nil
}

// resolve fails for ids that name no docent, so no screen is built for one.
func (v *ScreenCoordinator) resolve(docentID int64) error {
	if docentID <= 0 {
		return ErrMissingDocent
	}
	if v.app.docents != nil && !v.app.docents.HasDocent(docentID) {
		return fmt.Errorf("docent %d: %w", docentID, ErrMissingDocent)
	}
	return nil
}

func (v *ScreenCoordinator) decline(route navigation.Route, err error) error {
	v.app.logger.Debug("navigation declined",
		zap.Stringer("from", v.screen),
		zap.String("to", string(route)),
		zap.Error(err))
	return err
}

// Launch

func (v *ScreenCoordinator) CompleteLogin(token string, user types.UserInfo) error {
	if err := v.active(); err != nil {
		return v.decline(navigation.RouteHome, err)
	}
	if v.screen.Route != navigation.RouteLaunch {
		return v.decline(navigation.RouteHome, fmt.Errorf("login from %s: %w", v.screen.Route, ErrInvalidTransition))
	}
	if v.app.gate == nil {
		return ErrUnavailable
	}
	if err := v.app.gate.Login(v.app.ctx, token, user); err != nil {
		return err
	}
	v.app.enterHome(user)
	return nil
}

// Home, Camera and Entry

func (v *ScreenCoordinator) ShowEntry(docentID int64) error {
	if err := v.resolve(docentID); err != nil {
		return v.decline(navigation.RouteEntry, err)
	}
	return v.open(navigation.RouteEntry, navigation.Params{DocentID: docentID})
}

func (v *ScreenCoordinator) ShowCamera() error {
	return v.open(navigation.RouteCamera, navigation.Params{})
}

func (v *ScreenCoordinator) ShowSidebar() error {
	return v.open(navigation.RouteSidebar, navigation.Params{Dashboard: v.app.shared.dashboardCopy()})
}

// ShowRecognized replaces the camera with the entry of what it recognized.
func (v *ScreenCoordinator) ShowRecognized(docentID int64) error {
	return v.ShowEntry(docentID)
}

func (v *ScreenCoordinator) DismissCamera() error {
	return v.dismissSelf(navigation.RouteCamera)
}

func (v *ScreenCoordinator) DismissSidebar() error {
	return v.dismissSelf(navigation.RouteSidebar)
}

func (v *ScreenCoordinator) dismissSelf(route navigation.Route) error {
	if err := v.active(); err != nil {
		return err
	}
	if v.screen.Route != route {
		return fmt.Errorf("%s is not %s: %w", v.screen, route, navigation.ErrNotPresented)
	}
	return v.app.Dismiss()
}

func (v *ScreenCoordinator) ShowChat(docentID int64) error {
	if err := v.resolve(docentID); err != nil {
		return v.decline(navigation.RouteChat, err)
	}
	return v.open(navigation.RouteChat, navigation.Params{DocentID: docentID})
}

func (v *ScreenCoordinator) ShowPlayer(docentID int64) error {
	if err := v.resolve(docentID); err != nil {
		return v.decline(navigation.RoutePlayer, err)
	}
	return v.open(navigation.RoutePlayer, navigation.Params{DocentID: docentID})
}

// Player

// ShowSave opens the save screen for docentID, optionally with folderID
// selected. The current folder list is handed to the new screen.
func (v *ScreenCoordinator) ShowSave(docentID int64, folderID *int64) error {
	if err := v.resolve(docentID); err != nil {
		return v.decline(navigation.RouteSave, err)
	}
	if folderID != nil && v.app.shared.loaded && !v.app.shared.hasFolder(*folderID) {
		return v.decline(navigation.RouteSave, fmt.Errorf("folder %d: %w", *folderID, ErrUnknownFolder))
	}
	var selected *int64
	if folderID != nil {
		id := *folderID
		selected = &id
	}
	return v.open(navigation.RouteSave, navigation.Params{
		DocentID: docentID,
		FolderID: selected,
		Folders:  v.app.shared.folderList(),
	})
}

func (v *ScreenCoordinator) ShowUnderline(docentID int64) error {
	if err := v.resolve(docentID); err != nil {
		return v.decline(navigation.RouteUnderline, err)
	}
	return v.open(navigation.RouteUnderline, navigation.Params{DocentID: docentID})
}

// Folders returns the latest known folder list.
func (v *ScreenCoordinator) Folders() []types.Folder {
	if v.app.shared.loaded {
		return v.app.shared.folderList()
	}
	return v.screen.Params.Folders
}

// Sidebar

func (v *ScreenCoordinator) ShowLikes() error {
	return v.open(navigation.RouteLike, navigation.Params{})
}

func (v *ScreenCoordinator) ShowSaved() error {
	return v.open(navigation.RouteSave, navigation.Params{Folders: v.app.shared.folderList()})
}

func (v *ScreenCoordinator) ShowUnderlines() error {
	return v.open(navigation.RouteUnderline, navigation.Params{})
}

func (v *ScreenCoordinator) ShowRecords() error {
	return v.open(navigation.RouteRecord, navigation.Params{})
}

// Dashboard returns the counts the sidebar was opened with.
func (v *ScreenCoordinator) Dashboard() *types.DashboardSummary {
	return v.screen.Params.Dashboard
}

// Logout clears the credential and publishes ForceLogout, which resets
// navigation to Launch.
func (v *ScreenCoordinator) Logout() error {
	if err := v.attached(); err != nil {
		return err
	}
	if v.app.gate == nil {
		return ErrUnavailable
	}
	return v.app.gate.Logout(v.app.ctx)
}

// Back and PopToHome

func (v *ScreenCoordinator) Back() bool {
	if v.active() != nil {
		return false
	}
	return v.app.Pop()
}

func (v *ScreenCoordinator) PopToHome() error {
	if err := v.active(); err != nil {
		return err
	}
	return v.app.PopToHome()
}

// Data operations. Each runs its collaborator call in the background, then on
// the UI goroutine publishes the matching domain event on success and hands
// the result to done if the screen is still attached. The event is published
// even if the screen is gone, since the change happened regardless.

func (v *ScreenCoordinator) ToggleLike(kind events.TargetKind, id int64, done func(bool, error)) {
	svc := v.app.likeSvc
	dispatch(v, "toggle_like", svc != nil,
		func(ctx context.Context) (bool, error) {
			if !kind.Valid() {
				return false, fmt.Errorf("target kind %q: %w", kind, ErrInvalidInput)
			}
			return svc.ToggleLike(ctx, kind, id)
		},
		func(liked bool) events.Event {
			return events.LikeStatusChanged{TargetID: id, TargetKind: kind, IsLiked: liked}
		},
		done)
}

func (v *ScreenCoordinator) SaveDocent(docentID int64, folderID *int64, done func(bool, error)) {
	svc := v.app.saveSvc
	dispatch(v, "save_docent", svc != nil,
		func(ctx context.Context) (bool, error) {
			if docentID <= 0 {
				return false, ErrMissingDocent
			}
			return svc.SaveDocent(ctx, docentID, folderID)
		},
		func(saved bool) events.Event {
			return events.DocentSaved{DocentID: docentID, FolderID: folderID, IsSaved: saved}
		},
		done)
}

func (v *ScreenCoordinator) CreateFolder(name string, done func(types.Folder, error)) {
	svc := v.app.editSvc
	dispatch(v, "create_folder", svc != nil,
		func(ctx context.Context) (types.Folder, error) {
			if strings.TrimSpace(name) == "" {
				return types.Folder{}, fmt.Errorf("folder name: %w", ErrInvalidInput)
			}
			return svc.CreateFolder(ctx, name)
		},
		func(f types.Folder) events.Event {
			return events.FolderUpdated{Action: events.FolderCreated, FolderID: f.ID}
		},
		done)
}

func (v *ScreenCoordinator) RenameFolder(folderID int64, name string, done func(error)) {
	svc := v.app.editSvc
	dispatch(v, "rename_folder", svc != nil,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, svc.RenameFolder(ctx, folderID, name)
		},
		func(struct{}) events.Event {
			return events.FolderUpdated{Action: events.FolderUpdatedAction, FolderID: folderID}
		},
		errOnly(done))
}

func (v *ScreenCoordinator) DeleteFolder(folderID int64, done func(error)) {
	svc := v.app.editSvc
	dispatch(v, "delete_folder", svc != nil,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, svc.DeleteFolder(ctx, folderID)
		},
		func(struct{}) events.Event {
			return events.FolderUpdated{Action: events.FolderDeleted, FolderID: folderID}
		},
		errOnly(done))
}

func (v *ScreenCoordinator) CreateRecord(title, note string, done func(types.Record, error)) {
	svc := v.app.recordSvc
	dispatch(v, "create_record", svc != nil,
		func(ctx context.Context) (types.Record, error) {
			return svc.CreateRecord(ctx, title, note)
		},
		func(r types.Record) events.Event {
			return events.RecordUpdated{Action: events.RecordCreated, RecordID: r.ID}
		},
		done)
}

func (v *ScreenCoordinator) DeleteRecord(recordID int64, done func(error)) {
	svc := v.app.recordSvc
	dispatch(v, "delete_record", svc != nil,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, svc.DeleteRecord(ctx, recordID)
		},
		func(struct{}) events.Event {
			return events.RecordUpdated{Action: events.RecordDeleted, RecordID: recordID}
		},
		errOnly(done))
}

func (v *ScreenCoordinator) AddHighlight(docentID, paragraphID int64, text string, done func(types.Highlight, error)) {
	svc := v.app.highlightSvc
	dispatch(v, "add_highlight", svc != nil,
		func(ctx context.Context) (types.Highlight, error) {
			if docentID <= 0 {
				return types.Highlight{}, ErrMissingDocent
			}
			return svc.AddHighlight(ctx, docentID, paragraphID, text)
		},
		func(h types.Highlight) events.Event {
			return events.HighlightStatusChanged{HighlightID: h.ID, Action: events.HighlightCreated}
		},
		done)
}

func (v *ScreenCoordinator) RemoveHighlight(highlightID string, done func(error)) {
	svc := v.app.highlightSvc
	dispatch(v, "remove_highlight", svc != nil,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, svc.RemoveHighlight(ctx, highlightID)
		},
		func(struct{}) events.Event {
			return events.HighlightStatusChanged{HighlightID: highlightID, Action: events.HighlightDeleted}
		},
		errOnly(done))
}

func errOnly(done func(error)) func(struct{}, error) {
	if done == nil {
		return nil
	}
	return func(_ struct{}, err error) { done(err) }
}

func dispatch[T any](
	v *ScreenCoordinator,
	op string,
	available bool,
	call func(context.Context) (T, error),
	event func(T) events.Event,
	done func(T, error),
) {
	a := v.app
	deliver := lifecycle.Guard2(v.screen.Scope, func(r T, err error) {
		if done != nil {
			done(r, err)
		}
	})

	if err := v.attached(); err != nil {
		a.logger.Debug("operation on detached screen", zap.String("op", op), zap.Error(err))
		return
	}
	if !available {
		a.sched.Main(func() {
			var zero T
			deliver(zero, fmt.Errorf("%s: %w", op, ErrUnavailable))
		})
		return
	}

	ctx := a.ctx
	a.sched.Background(func() {
		r, err := call(ctx)
		a.sched.Main(func() {
			if err != nil {
				a.logger.Debug("operation failed", zap.String("op", op), zap.Error(err))
			} else if e := event(r); e != nil {
				a.bus.Publish(e)
			}
			deliver(r, err)
		})
	})
}

var (
	_ LaunchCoordinator    = (*ScreenCoordinator)(nil)
	_ HomeCoordinator      = (*ScreenCoordinator)(nil)
	_ CameraCoordinator    = (*ScreenCoordinator)(nil)
	_ EntryCoordinator     = (*ScreenCoordinator)(nil)
	_ ChatCoordinator      = (*ScreenCoordinator)(nil)
	_ PlayerCoordinator    = (*ScreenCoordinator)(nil)
	_ LikeCoordinator      = (*ScreenCoordinator)(nil)
	_ SaveCoordinator      = (*ScreenCoordinator)(nil)
	_ RecordCoordinator    = (*ScreenCoordinator)(nil)
	_ UnderlineCoordinator = (*ScreenCoordinator)(nil)
	_ SidebarCoordinator   = (*ScreenCoordinator)(nil)
)
