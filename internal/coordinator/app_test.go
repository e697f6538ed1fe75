package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"docent/internal/events"
	"docent/internal/navigation"
	"docent/internal/session"
	"docent/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var visitor = types.UserInfo{ID: 9, Nickname: "visitor"}

// fakeServices is an in-memory stand-in for every collaborator.
type fakeServices struct {
	mu         sync.Mutex
	likes      map[string]bool
	folders    []types.Folder
	nextID     int64
	saved      map[int64]bool
	records    int
	highlights int
	fetches    int
	failLikes  error
}

func newFakeServices() *fakeServices {
	return &fakeServices{likes: map[string]bool{}, saved: map[int64]bool{}, nextID: 100}
}

func (f *fakeServices) ToggleLike(_ context.Context, kind events.TargetKind, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLikes != nil {
		return false, f.failLikes
	}
	key := fmt.Sprintf("%s/%d", kind, id)
	f.likes[key] = !f.likes[key]
	return f.likes[key], nil
}

func (f *fakeServices) Folders(context.Context) ([]types.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	out := make([]types.Folder, len(f.folders))
	copy(out, f.folders)
	return out, nil
}

func (f *fakeServices) DashboardSummary(context.Context) (types.DashboardSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	liked := 0
	for _, v := range f.likes {
		if v {
			liked++
		}
	}
	return types.DashboardSummary{Likes: liked, Saved: len(f.saved), Records: f.records, Highlights: f.highlights}, nil
}

func (f *fakeServices) SaveDocent(_ context.Context, docentID int64, _ *int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved[docentID] {
		delete(f.saved, docentID)
		return false, nil
	}
	f.saved[docentID] = true
	return true, nil
}

func (f *fakeServices) CreateFolder(_ context.Context, name string) (types.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	folder := types.Folder{ID: f.nextID, Name: name}
	f.folders = append(f.folders, folder)
	return folder, nil
}

func (f *fakeServices) RenameFolder(_ context.Context, id int64, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.folders {
		if f.folders[i].ID == id {
			f.folders[i].Name = name
			return nil
		}
	}
	return errors.New("no such folder")
}

func (f *fakeServices) DeleteFolder(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.folders {
		if f.folders[i].ID == id {
			f.folders = append(f.folders[:i], f.folders[i+1:]...)
			return nil
		}
	}
	return errors.New("no such folder")
}

func (f *fakeServices) CreateRecord(_ context.Context, title, note string) (types.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records++
	f.nextID++
	return types.Record{ID: f.nextID, Title: title, Note: note}, nil
}

func (f *fakeServices) DeleteRecord(context.Context, int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records--
	return nil
}

func (f *fakeServices) AddHighlight(_ context.Context, docentID, paragraphID int64, text string) (types.Highlight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.highlights++
	return types.Highlight{ID: fmt.Sprintf("h-%d", f.highlights), DocentID: docentID, ParagraphID: paragraphID, Text: text}, nil
}

func (f *fakeServices) RemoveHighlight(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.highlights--
	return nil
}

// manualScheduler queues both kinds of work until the test runs it.
type manualScheduler struct {
	queue []func()
}

func (m *manualScheduler) Background(fn func()) { m.queue = append(m.queue, fn) }
func (m *manualScheduler) Main(fn func())       { m.queue = append(m.queue, fn) }

func (m *manualScheduler) runAll() {
	for len(m.queue) > 0 {
		fn := m.queue[0]
		m.queue = m.queue[1:]
		fn()
	}
}

type harness struct {
	app   *AppCoordinator
	bus   *events.Bus
	svc   *fakeServices
	creds *session.MemoryCredentials
}

func newHarness(t *testing.T, resumed bool, sched Scheduler) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	bus := events.NewBus(logger)
	creds := session.NewMemoryCredentials()
	if resumed {
		require.NoError(t, creds.Set(context.Background(), session.Credential{Token: "tok", User: visitor}))
	}
	svc := newFakeServices()
	app := New(Deps{
		Bus:        bus,
		Gate:       session.NewGate(creds, bus, logger),
		Likes:      svc,
		Folders:    svc,
		Dashboard:  svc,
		Saves:      svc,
		FolderEdit: svc,
		Records:    svc,
		Highlights: svc,
		Scheduler:  sched,
		Logger:     logger,
	})
	app.Start(context.Background())
	t.Cleanup(app.Close)
	return &harness{app: app, bus: bus, svc: svc, creds: creds}
}

func collect[E events.Event](t *testing.T, bus *events.Bus) *[]E {
	t.Helper()
	var got []E
	sub := events.On(bus, func(e E) error {
		got = append(got, e)
		return nil
	})
	t.Cleanup(sub.Release)
	return &got
}

func TestStartResumesSessionToHome(t *testing.T) {
	h := newHarness(t, true, nil)
	assert.Equal(t, []navigation.Route{navigation.RouteHome}, h.app.Snapshot().Routes)
	assert.Equal(t, visitor, h.app.User())
}

func TestStartWithoutCredentialStaysAtLaunch(t *testing.T) {
	h := newHarness(t, false, nil)
	assert.Equal(t, []navigation.Route{navigation.RouteLaunch}, h.app.Snapshot().Routes)

	require.NoError(t, h.app.Current().CompleteLogin("fresh", visitor))
	assert.Equal(t, []navigation.Route{navigation.RouteHome}, h.app.Snapshot().Routes)

	cred, err := h.creds.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", cred.Token)
}

func TestStartIsIdempotent(t *testing.T) {
	h := newHarness(t, true, nil)
	require.NoError(t, h.app.Current().ShowEntry(3))

	h.app.Start(context.Background())
	assert.Equal(t, []navigation.Route{navigation.RouteHome, navigation.RouteEntry}, h.app.Snapshot().Routes)
	assert.Equal(t, 1, h.bus.Stats().ByKind[events.KindForceLogout])
}

func TestToggleLikePublishesExactlyOneEventPerCall(t *testing.T) {
	h := newHarness(t, true, nil)
	got := collect[events.LikeStatusChanged](t, h.bus)

	var results []bool
	home := h.app.Current()
	home.ToggleLike(events.TargetExhibition, 7, func(liked bool, err error) {
		require.NoError(t, err)
		results = append(results, liked)
	})
	require.Len(t, *got, 1)
	assert.Equal(t, events.LikeStatusChanged{TargetID: 7, TargetKind: events.TargetExhibition, IsLiked: true}, (*got)[0])

	home.ToggleLike(events.TargetExhibition, 7, func(liked bool, err error) {
		require.NoError(t, err)
		results = append(results, liked)
	})
	require.Len(t, *got, 2)
	assert.False(t, (*got)[1].IsLiked)
	assert.Equal(t, []bool{true, false}, results)
}

func TestToggleLikeFailureDoesNotPublish(t *testing.T) {
	h := newHarness(t, true, nil)
	h.svc.failLikes = errors.New("offline")
	got := collect[events.LikeStatusChanged](t, h.bus)

	var gotErr error
	h.app.Current().ToggleLike(events.TargetArtwork, 1, func(_ bool, err error) { gotErr = err })
	assert.EqualError(t, gotErr, "offline")
	assert.Empty(t, *got)

	h.app.Current().ToggleLike(events.TargetKind("poster"), 1, func(_ bool, err error) { gotErr = err })
	assert.ErrorIs(t, gotErr, ErrInvalidInput)
}

func TestForceLogoutResetsToLaunch(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T, app *AppCoordinator)
	}{
		{"depth 1", func(*testing.T, *AppCoordinator) {}},
		{"depth 3", func(t *testing.T, app *AppCoordinator) {
			require.NoError(t, app.Current().ShowEntry(1))
			require.NoError(t, app.Current().ShowPlayer(1))
		}},
		{"overlay presented", func(t *testing.T, app *AppCoordinator) {
			require.NoError(t, app.Current().ShowEntry(1))
			require.NoError(t, app.Current().ShowPlayer(1))
			require.NoError(t, app.PopToHome())
			require.NoError(t, app.Current().ShowSidebar())
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, true, nil)
			tt.build(t, h.app)
			before := h.app.state.Screens()
			if o := h.app.state.Overlay(); o != nil {
				before = append(before, o)
			}

			h.bus.Publish(events.ForceLogout{})

			snap := h.app.Snapshot()
			assert.Equal(t, []navigation.Route{navigation.RouteLaunch}, snap.Routes)
			assert.Empty(t, snap.Overlay)
			assert.True(t, snap.User.IsZero())
			for _, s := range before {
				assert.False(t, s.Alive(), s.String())
			}
			_, err := h.creds.Get(context.Background())
			assert.ErrorIs(t, err, session.ErrNoCredential)
		})
	}
}

func TestLogoutFromSidebar(t *testing.T) {
	h := newHarness(t, true, nil)
	require.NoError(t, h.app.Current().ShowSidebar())
	require.NoError(t, h.app.Current().Logout())
	assert.Equal(t, []navigation.Route{navigation.RouteLaunch}, h.app.Snapshot().Routes)
}

func TestPopAtLaunchIsNoop(t *testing.T) {
	h := newHarness(t, false, nil)
	assert.False(t, h.app.Pop())
	assert.Equal(t, []navigation.Route{navigation.RouteLaunch}, h.app.Snapshot().Routes)
}

type knownDocents map[int64]bool

func (k knownDocents) HasDocent(id int64) bool { return k[id] }

func TestUnknownDocentIsDeclined(t *testing.T) {
	logger := zaptest.NewLogger(t)
	creds := session.NewMemoryCredentials()
	require.NoError(t, creds.Set(context.Background(), session.Credential{Token: "tok", User: visitor}))
	bus := events.NewBus(logger)
	app := New(Deps{
		Bus:     bus,
		Gate:    session.NewGate(creds, bus, logger),
		Docents: knownDocents{8: true},
		Logger:  logger,
	})
	app.Start(context.Background())
	t.Cleanup(app.Close)

	home := app.Current()
	assert.ErrorIs(t, home.ShowEntry(999), ErrMissingDocent)
	assert.Equal(t, []navigation.Route{navigation.RouteHome}, app.Snapshot().Routes)

	require.NoError(t, home.ShowCamera())
	camera := app.Current()
	assert.ErrorIs(t, camera.ShowRecognized(999), ErrMissingDocent)
	assert.Equal(t, navigation.RouteCamera, app.Snapshot().Overlay)

	require.NoError(t, camera.ShowRecognized(8))
	entry := app.Current()
	assert.ErrorIs(t, entry.ShowPlayer(999), ErrMissingDocent)
	assert.ErrorIs(t, entry.ShowChat(999), ErrMissingDocent)
	require.NoError(t, entry.ShowPlayer(8))
	player := app.Current()
	assert.ErrorIs(t, player.ShowSave(999, nil), ErrMissingDocent)
	assert.ErrorIs(t, player.ShowUnderline(999), ErrMissingDocent)
	assert.Equal(t, []navigation.Route{navigation.RouteHome, navigation.RouteEntry, navigation.RoutePlayer},
		app.Snapshot().Routes)
}

func TestInvalidTransitionsAreDeclined(t *testing.T) {
	h := newHarness(t, true, nil)
	home := h.app.Current()

	err := home.ShowPlayer(1)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = home.ShowEntry(0)
	assert.ErrorIs(t, err, ErrMissingDocent)

	err = h.app.Push(navigation.NewScreen(navigation.RouteHome, navigation.Params{}))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, []navigation.Route{navigation.RouteHome}, h.app.Snapshot().Routes)

	err = home.CompleteLogin("tok", visitor)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStaleViewsCannotNavigate(t *testing.T) {
	h := newHarness(t, true, nil)
	home := h.app.Current()
	require.NoError(t, home.ShowEntry(4))
	entry := h.app.Current()

	assert.ErrorIs(t, home.ShowCamera(), ErrNotActive)

	require.True(t, entry.Back())
	assert.ErrorIs(t, entry.ShowChat(4), ErrNotAttached)
	assert.False(t, entry.Back())
	assert.Equal(t, []navigation.Route{navigation.RouteHome}, h.app.Snapshot().Routes)
}

func TestCameraRecognitionReplacesOverlay(t *testing.T) {
	h := newHarness(t, true, nil)
	require.NoError(t, h.app.Current().ShowCamera())
	camera := h.app.Current()
	assert.Equal(t, navigation.RouteCamera, camera.Screen().Route)

	require.NoError(t, camera.ShowRecognized(12))
	snap := h.app.Snapshot()
	assert.Equal(t, []navigation.Route{navigation.RouteHome, navigation.RouteEntry}, snap.Routes)
	assert.Empty(t, snap.Overlay)
	assert.False(t, camera.Screen().Alive())
	assert.Equal(t, int64(12), snap.Top.Params.DocentID)
}

func TestSidebarDestinationsPopToHome(t *testing.T) {
	open := map[string]func(SidebarCoordinator) error{
		"likes":      SidebarCoordinator.ShowLikes,
		"saved":      SidebarCoordinator.ShowSaved,
		"underlines": SidebarCoordinator.ShowUnderlines,
		"records":    SidebarCoordinator.ShowRecords,
	}
	for name, fn := range open {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, true, nil)
			require.NoError(t, h.app.Current().ShowSidebar())
			require.NoError(t, fn(h.app.Current()))
			assert.Len(t, h.app.Snapshot().Routes, 2)
			assert.Empty(t, h.app.Snapshot().Overlay)

			require.NoError(t, h.app.Current().PopToHome())
			assert.Equal(t, []navigation.Route{navigation.RouteHome}, h.app.Snapshot().Routes)
		})
	}
}

func TestPopDismissesOverlayFirst(t *testing.T) {
	h := newHarness(t, true, nil)
	require.NoError(t, h.app.Current().ShowEntry(1))
	require.NoError(t, h.app.PopToHome())
	require.NoError(t, h.app.Current().ShowCamera())

	assert.True(t, h.app.Pop())
	snap := h.app.Snapshot()
	assert.Empty(t, snap.Overlay)
	assert.Equal(t, []navigation.Route{navigation.RouteHome}, snap.Routes)
}

func TestLateCompletionIsDroppedButEventStillPublished(t *testing.T) {
	sched := &manualScheduler{}
	h := newHarness(t, true, sched)
	sched.runAll()
	require.Equal(t, []navigation.Route{navigation.RouteHome}, h.app.Snapshot().Routes)

	got := collect[events.LikeStatusChanged](t, h.bus)
	require.NoError(t, h.app.Current().ShowEntry(5))
	entry := h.app.Current()

	called := false
	entry.ToggleLike(events.TargetArtwork, 5, func(bool, error) { called = true })
	require.True(t, entry.Back())
	sched.runAll()

	assert.False(t, called)
	assert.Len(t, *got, 1)
}

func TestSharedDataRefreshesOnDomainEvents(t *testing.T) {
	h := newHarness(t, true, nil)
	require.NoError(t, h.app.Current().ShowEntry(8))
	require.NoError(t, h.app.Current().ShowPlayer(8))
	player := h.app.Current()
	assert.Empty(t, player.Folders())

	require.NoError(t, player.ShowSave(8, nil))
	save := h.app.Current()
	folderEvents := collect[events.FolderUpdated](t, h.bus)

	var created types.Folder
	save.CreateFolder("Favourites", func(f types.Folder, err error) {
		require.NoError(t, err)
		created = f
	})
	require.Len(t, save.Folders(), 1)
	assert.Equal(t, "Favourites", save.Folders()[0].Name)

	var saved bool
	save.SaveDocent(8, &created.ID, func(ok bool, err error) {
		require.NoError(t, err)
		saved = ok
	})
	assert.True(t, saved)
	assert.Equal(t, 1, h.app.Snapshot().Dashboard.Saved)

	renamed := false
	save.RenameFolder(created.ID, "Best", func(err error) { renamed = err == nil })
	assert.True(t, renamed)
	assert.Equal(t, "Best", save.Folders()[0].Name)
	assert.Equal(t, []events.FolderUpdated{
		{Action: events.FolderCreated, FolderID: created.ID},
		{Action: events.FolderUpdatedAction, FolderID: created.ID},
	}, *folderEvents)

	require.True(t, save.Back())
	missing := int64(404)
	assert.ErrorIs(t, player.ShowSave(8, &missing), ErrUnknownFolder)
	require.NoError(t, player.ShowSave(8, &created.ID))
	assert.Len(t, h.app.Current().Screen().Params.Folders, 1)
}

func TestSidebarReceivesDashboardAtConstruction(t *testing.T) {
	h := newHarness(t, true, nil)
	h.app.Current().ToggleLike(events.TargetArtist, 2, nil)
	require.NoError(t, h.app.Current().ShowSidebar())

	dash := h.app.Current().Dashboard()
	require.NotNil(t, dash)
	assert.Equal(t, 1, dash.Likes)
}

func TestRecordAndHighlightEvents(t *testing.T) {
	h := newHarness(t, true, nil)
	records := collect[events.RecordUpdated](t, h.bus)
	highlights := collect[events.HighlightStatusChanged](t, h.bus)

	require.NoError(t, h.app.Current().ShowSidebar())
	require.NoError(t, h.app.Current().ShowRecords())
	rec := h.app.Current()
	var record types.Record
	rec.CreateRecord("Orangerie", "", func(r types.Record, err error) {
		require.NoError(t, err)
		record = r
	})
	rec.DeleteRecord(record.ID, nil)
	require.NoError(t, rec.PopToHome())

	require.NoError(t, h.app.Current().ShowEntry(3))
	require.NoError(t, h.app.Current().ShowPlayer(3))
	var hl types.Highlight
	h.app.Current().AddHighlight(3, 1, "blue", func(got types.Highlight, err error) {
		require.NoError(t, err)
		hl = got
	})
	require.NoError(t, h.app.Current().ShowUnderline(3))
	h.app.Current().RemoveHighlight(hl.ID, nil)

	assert.Equal(t, []events.RecordUpdated{
		{Action: events.RecordCreated, RecordID: record.ID},
		{Action: events.RecordDeleted, RecordID: record.ID},
	}, *records)
	assert.Equal(t, []events.HighlightStatusChanged{
		{HighlightID: hl.ID, Action: events.HighlightCreated},
		{HighlightID: hl.ID, Action: events.HighlightDeleted},
	}, *highlights)
}

func TestMissingCollaboratorReportsUnavailable(t *testing.T) {
	bus := events.NewBus(nil)
	creds := session.NewMemoryCredentials()
	require.NoError(t, creds.Set(context.Background(), session.Credential{Token: "t"}))
	app := New(Deps{Bus: bus, Gate: session.NewGate(creds, bus, nil)})
	app.Start(context.Background())
	defer app.Close()

	var gotErr error
	app.Current().ToggleLike(events.TargetArtwork, 1, func(_ bool, err error) { gotErr = err })
	assert.ErrorIs(t, gotErr, ErrUnavailable)
	assert.Nil(t, app.Snapshot().Folders)
}

func TestObserveReceivesSnapshots(t *testing.T) {
	h := newHarness(t, true, nil)
	var seen [][]navigation.Route
	release := h.app.Observe(func(s Snapshot) { seen = append(seen, s.Routes) })

	require.NoError(t, h.app.Current().ShowEntry(1))
	h.app.Pop()
	release()
	require.NoError(t, h.app.Current().ShowEntry(2))

	assert.Equal(t, [][]navigation.Route{
		{navigation.RouteHome, navigation.RouteEntry},
		{navigation.RouteHome},
	}, seen)
}

func TestPushBeforeStart(t *testing.T) {
	app := New(Deps{})
	err := app.Push(navigation.NewScreen(navigation.RouteEntry, navigation.Params{}))
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.Nil(t, app.Current())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(navigation.RouteEntry, navigation.RoutePlayer))
	assert.True(t, CanTransition(navigation.RouteSidebar, navigation.RouteRecord))
	assert.False(t, CanTransition(navigation.RouteLaunch, navigation.RouteEntry))
	assert.False(t, CanTransition(navigation.RoutePlayer, navigation.RouteCamera))
}
