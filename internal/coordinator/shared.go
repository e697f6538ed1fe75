package coordinator

import (
	"context"
	"fmt"

	"docent/internal/events"
	"docent/internal/types"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// sharedData is what screens need already resolved when they are built:
// the folder list for Save and the dashboard counts for the sidebar.
// It is touched only on the UI goroutine.
type sharedData struct {
	folders   []types.Folder
	dashboard *types.DashboardSummary
	loaded    bool
	// generation changes on reset so results fetched for a previous
	// session are dropped.
	generation uint64
}

func (d *sharedData) reset() {
	d.folders = nil
	d.dashboard = nil
	d.loaded = false
	d.generation++
}

func (d *sharedData) folderList() []types.Folder {
	if d.folders == nil {
		return nil
	}
	out := make([]types.Folder, len(d.folders))
	copy(out, d.folders)
	return out
}

func (d *sharedData) dashboardCopy() *types.DashboardSummary {
	if d.dashboard == nil {
		return nil
	}
	c := *d.dashboard
	return &c
}

func (d *sharedData) hasFolder(id int64) bool {
	for _, f := range d.folders {
		if f.ID == id {
			return true
		}
	}
	return false
}

// refreshKinds are the events after which folders or counts may be stale.
var refreshKinds = []events.Kind{
	events.KindLikeStatusChanged,
	events.KindDocentSaved,
	events.KindFolderUpdated,
	events.KindRecordUpdated,
	events.KindHighlightStatusChanged,
}

func (a *AppCoordinator) bindShared() {
	refresh := func(events.Event) error {
		a.scheduleRefresh()
		return nil
	}
	for _, k := range refreshKinds {
		a.scope.Track(a.bus.Subscribe(k, refresh))
	}
}

// Refresh reloads the shared data now. Call it on the UI goroutine.
func (a *AppCoordinator) Refresh(ctx context.Context) error {
	folders, dash, err := a.fetchShared(ctx)
	if err != nil {
		return err
	}
	a.applyShared(folders, dash)
	return nil
}

func (a *AppCoordinator) scheduleRefresh() {
	if a.folderSvc == nil && a.dashSvc == nil {
		return
	}
	gen := a.shared.generation
	ctx := a.ctx
	a.sched.Background(func() {
		folders, dash, err := a.fetchShared(ctx)
		a.sched.Main(func() {
			if gen != a.shared.generation {
				return
			}
			if err != nil {
				a.logger.Warn("shared data refresh failed", zap.Error(err))
				return
			}
			a.applyShared(folders, dash)
		})
	})
}

// fetchShared loads folders and the dashboard concurrently.
func (a *AppCoordinator) fetchShared(ctx context.Context) ([]types.Folder, *types.DashboardSummary, error) {
	var (
		folders []types.Folder
		dash    *types.DashboardSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	if a.folderSvc != nil {
		g.Go(func() error {
			f, err := a.folderSvc.Folders(gctx)
			if err != nil {
				return fmt.Errorf("fetch folders: %w", err)
			}
			folders = f
			return nil
		})
	}
	if a.dashSvc != nil {
		g.Go(func() error {
			d, err := a.dashSvc.DashboardSummary(gctx)
			if err != nil {
				return fmt.Errorf("fetch dashboard: %w", err)
			}
			dash = &d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return folders, dash, nil
}

func (a *AppCoordinator) applyShared(folders []types.Folder, dash *types.DashboardSummary) {
	if a.folderSvc != nil {
		if folders == nil {
			folders = []types.Folder{}
		}
		a.shared.folders = folders
	}
	if a.dashSvc != nil {
		a.shared.dashboard = dash
	}
	a.shared.loaded = true
	a.logger.Debug("shared data refreshed",
		zap.Int("folders", len(a.shared.folders)),
		zap.Bool("dashboard", a.shared.dashboard != nil))
	a.notify()
}
