package feature

import (
	"context"
	"errors"
	"testing"
	"time"

	"docent/internal/events"
	"docent/internal/lifecycle"
	"docent/internal/narration"
	"docent/internal/store"
	"docent/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newStore(t *testing.T) *store.LocalStore {
	t.Helper()
	s, err := store.NewLocalStore(":memory:", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLikeCacheConvergesAcrossScreens(t *testing.T) {
	bus := events.NewBus(nil)
	feed := lifecycle.NewScope()
	entry := lifecycle.NewScope()
	feedLikes := NewLikeCache(feed, bus)
	entryLikes := NewLikeCache(entry, bus)
	feedLikes.Seed(events.TargetArtwork, 3, false)

	bus.Publish(events.LikeStatusChanged{TargetID: 3, TargetKind: events.TargetArtwork, IsLiked: true})

	for _, c := range []*LikeCache{feedLikes, entryLikes} {
		liked, known := c.Liked(events.TargetArtwork, 3)
		assert.True(t, known)
		assert.True(t, liked)
	}
	_, known := feedLikes.Liked(events.TargetArtist, 3)
	assert.False(t, known)

	entry.Close()
	bus.Publish(events.LikeStatusChanged{TargetID: 3, TargetKind: events.TargetArtwork, IsLiked: false})
	liked, _ := entryLikes.Liked(events.TargetArtwork, 3)
	assert.True(t, liked, "closed scope must not receive updates")
	liked, _ = feedLikes.Liked(events.TargetArtwork, 3)
	assert.False(t, liked)
	assert.Equal(t, 1, feed.Len())
}

func TestLikeCacheLoadsStoredFlags(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	bus := events.NewBus(nil)
	scope := lifecycle.NewScope()
	defer scope.Close()

	_, err := s.ToggleLike(ctx, events.TargetArtwork, 3)
	require.NoError(t, err)

	c := NewLikeCache(scope, bus)
	c.Seed(events.TargetArtwork, 4, true)
	c.Load(ctx, nil, s, events.TargetArtwork, 3, 4, 5)

	liked, known := c.Liked(events.TargetArtwork, 3)
	assert.True(t, known)
	assert.True(t, liked)
	liked, _ = c.Liked(events.TargetArtwork, 4)
	assert.True(t, liked, "a flag already set is kept")
	liked, known = c.Liked(events.TargetArtwork, 5)
	assert.True(t, known)
	assert.False(t, liked)
	assert.NoError(t, c.Err())

	closed := lifecycle.NewScope()
	late := NewLikeCache(closed, bus)
	closed.Close()
	late.Load(ctx, nil, s, events.TargetArtwork, 3)
	assert.Equal(t, 0, late.Len())
}

func TestFolderListReloadsOnEvents(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	bus := events.NewBus(nil)
	scope := lifecycle.NewScope()

	folders := NewFolderList(ctx, scope, bus, nil, s)
	assert.Equal(t, 1, folders.Loads())
	assert.Empty(t, folders.Items())

	var changes int
	folders.OnChange(func([]types.Folder, error) { changes++ })

	f, err := s.CreateFolder(ctx, "Sketches")
	require.NoError(t, err)
	bus.Publish(events.FolderUpdated{Action: events.FolderCreated, FolderID: f.ID})
	require.Len(t, folders.Items(), 1)

	_, err = s.SaveDocent(ctx, 21, &f.ID)
	require.NoError(t, err)
	bus.Publish(events.DocentSaved{DocentID: 21, FolderID: &f.ID, IsSaved: true})
	assert.Equal(t, 1, folders.Items()[0].DocentCount)
	assert.Equal(t, 2, changes)

	scope.Close()
	bus.Publish(events.FolderUpdated{Action: events.FolderDeleted, FolderID: f.ID})
	assert.Equal(t, 3, folders.Loads())
	assert.Equal(t, 0, bus.Stats().SubscriberCount)
}

func TestRecordAndHighlightLists(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	bus := events.NewBus(nil)
	scope := lifecycle.NewScope()
	defer scope.Close()

	records := NewRecordList(ctx, scope, bus, nil, s)
	highlights := NewHighlightList(ctx, scope, bus, nil, s, 4)

	r, err := s.CreateRecord(ctx, "Tate", "")
	require.NoError(t, err)
	bus.Publish(events.RecordUpdated{Action: events.RecordCreated, RecordID: r.ID})
	assert.Len(t, records.Items(), 1)

	h, err := s.AddHighlight(ctx, 4, 1, "golden light")
	require.NoError(t, err)
	_, err = s.AddHighlight(ctx, 5, 1, "other docent")
	require.NoError(t, err)
	bus.Publish(events.HighlightStatusChanged{HighlightID: h.ID, Action: events.HighlightCreated})
	require.Len(t, highlights.Items(), 1)
	assert.Equal(t, "golden light", highlights.Items()[0].Text)
	assert.Equal(t, 2, records.Loads())
	assert.Equal(t, 2, highlights.Loads())
}

func TestLikeListFollowsToggles(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	bus := events.NewBus(nil)
	scope := lifecycle.NewScope()
	defer scope.Close()

	likes := NewLikeList(ctx, scope, bus, nil, s, events.TargetExhibition)
	liked, err := s.ToggleLike(ctx, events.TargetExhibition, 7)
	require.NoError(t, err)
	bus.Publish(events.LikeStatusChanged{TargetID: 7, TargetKind: events.TargetExhibition, IsLiked: liked})

	require.Len(t, likes.Items(), 1)
	assert.Equal(t, int64(7), likes.Items()[0].TargetID)
}

func TestListKeepsItemsOnFailedReload(t *testing.T) {
	bus := events.NewBus(nil)
	scope := lifecycle.NewScope()
	defer scope.Close()

	fail := false
	load := func(context.Context) ([]int, error) {
		if fail {
			return nil, errors.New("offline")
		}
		return []int{1, 2}, nil
	}
	l := NewList(context.Background(), scope, bus, nil, load, events.KindRecordUpdated)
	fail = true
	bus.Publish(events.RecordUpdated{Action: events.RecordDeleted, RecordID: 1})

	assert.EqualError(t, l.Err(), "offline")
	assert.Equal(t, []int{1, 2}, l.Items())
}

func sec(s float64) time.Duration { return narration.Seconds(s) }

func testScript(t *testing.T) *narration.Index {
	t.Helper()
	doc, err := narration.NewDocument([]narration.Paragraph{
		{ID: 1, Start: 0, End: sec(10), Sentences: []narration.Sentence{
			{Start: 0, Text: "First."},
			{Start: sec(4), Text: "Second."},
		}},
		{ID: 2, Start: sec(15), End: sec(20), Sentences: []narration.Sentence{
			{Start: sec(15), Text: "Third."},
		}},
	})
	require.NoError(t, err)
	return narration.NewIndex(doc)
}

func TestPlayerAdvanceReportsChanges(t *testing.T) {
	p := NewPlayer(testScript(t), 5*time.Second)
	assert.Equal(t, narration.Position{Paragraph: 0, Sentence: 0}, p.Position())

	_, changed := p.Advance(time.Second)
	assert.False(t, changed, "paused player does not move")

	p.Play()
	pos, changed := p.Advance(sec(4))
	assert.True(t, changed)
	assert.Equal(t, narration.Position{Paragraph: 0, Sentence: 1}, pos)

	_, changed = p.Advance(sec(1))
	assert.False(t, changed)

	pos, _ = p.Advance(sec(7))
	assert.Equal(t, narration.None, pos, "12s is in the gap")

	pos, _ = p.Advance(time.Minute)
	assert.Equal(t, narration.Position{Paragraph: 1, Sentence: 0}, pos)
	assert.True(t, p.Ended())
	assert.False(t, p.Playing())
	assert.Equal(t, sec(20), p.At())

	p.Play()
	assert.Equal(t, time.Duration(0), p.At(), "play after end restarts")
}

func TestPlayerSeek(t *testing.T) {
	p := NewPlayer(testScript(t), 5*time.Second)

	pos, changed := p.SeekBy(1)
	assert.True(t, changed)
	assert.Equal(t, narration.Position{Paragraph: 0, Sentence: 1}, pos)

	p.SeekBy(-10)
	assert.Equal(t, time.Duration(0), p.At())

	p.Seek(sec(16))
	para, ok := p.Paragraph()
	require.True(t, ok)
	assert.Equal(t, int64(2), para.ID)
	s, ok := p.Sentence()
	require.True(t, ok)
	assert.Equal(t, "Third.", s.Text)

	assert.True(t, p.Toggle())
	assert.False(t, p.Toggle())
	assert.Equal(t, 2, p.Document().Len())
}
