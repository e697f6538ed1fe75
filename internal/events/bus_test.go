package events

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	bus := NewBus(nil)
	var order []int

	for i := 1; i <= 3; i++ {
		i := i
		bus.Subscribe(KindForceLogout, func(Event) error {
			order = append(order, i)
			return nil
		})
	}

	bus.Publish(ForceLogout{})

	// Synchronous: everything has run by the time Publish returns.
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestPublishOnlyMatchingKind(t *testing.T) {
	bus := NewBus(nil)
	var likes, folders int
	bus.Subscribe(KindLikeStatusChanged, func(Event) error { likes++; return nil })
	bus.Subscribe(KindFolderUpdated, func(Event) error { folders++; return nil })

	bus.Publish(LikeStatusChanged{TargetID: 7, TargetKind: TargetExhibition, IsLiked: true})

	assert.Equal(t, 1, likes)
	assert.Equal(t, 0, folders)
}

func TestSubscriberAddedDuringPublishIsNotCalled(t *testing.T) {
	bus := NewBus(nil)
	var late int

	bus.Subscribe(KindRecordUpdated, func(Event) error {
		bus.Subscribe(KindRecordUpdated, func(Event) error {
			late++
			return nil
		})
		return nil
	})

	bus.Publish(RecordUpdated{Action: RecordCreated, RecordID: 1})
	assert.Equal(t, 0, late)

	bus.Publish(RecordUpdated{Action: RecordCreated, RecordID: 2})
	assert.Equal(t, 1, late)
}

func TestReleaseDuringPublishSkipsLaterHandler(t *testing.T) {
	bus := NewBus(nil)
	var second *Subscription
	var secondCalls int

	bus.Subscribe(KindForceLogout, func(Event) error {
		second.Release()
		return nil
	})
	second = bus.Subscribe(KindForceLogout, func(Event) error {
		secondCalls++
		return nil
	})

	bus.Publish(ForceLogout{})
	bus.Publish(ForceLogout{})

	assert.Equal(t, 0, secondCalls)
	assert.True(t, second.Released())
}

func TestReleaseFromAnotherGoroutineSkipsPendingHandler(t *testing.T) {
	bus := NewBus(nil)
	entered := make(chan struct{})
	resume := make(chan struct{})
	var secondCalls atomic.Int64

	bus.Subscribe(KindForceLogout, func(Event) error {
		close(entered)
		<-resume
		return nil
	})
	second := bus.Subscribe(KindForceLogout, func(Event) error {
		secondCalls.Add(1)
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.Publish(ForceLogout{})
	}()

	<-entered
	second.Release()
	close(resume)
	<-done

	assert.Equal(t, int64(0), secondCalls.Load())
}

func TestSelfReleaseInsideHandler(t *testing.T) {
	bus := NewBus(nil)
	var calls int
	var sub *Subscription
	sub = bus.Subscribe(KindForceLogout, func(Event) error {
		calls++
		sub.Release()
		return nil
	})

	bus.Publish(ForceLogout{})
	bus.Publish(ForceLogout{})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Stats().SubscriberCount)
}

func TestReleaseIsIdempotent(t *testing.T) {
	bus := NewBus(nil)
	sub := bus.Subscribe(KindForceLogout, func(Event) error { return nil })
	other := bus.Subscribe(KindForceLogout, func(Event) error { return nil })

	sub.Release()
	sub.Release()

	stats := bus.Stats()
	assert.Equal(t, 1, stats.SubscriberCount)
	assert.Equal(t, 1, stats.ByKind[KindForceLogout])
	assert.False(t, other.Released())

	var nilSub *Subscription
	assert.NotPanics(t, nilSub.Release)
}

func TestHandlerFailuresAreIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	bus := NewBus(zap.New(core))
	var reached []string

	bus.Subscribe(KindDocentSaved, func(Event) error {
		reached = append(reached, "erroring")
		return errors.New("cache unavailable")
	})
	bus.Subscribe(KindDocentSaved, func(Event) error {
		reached = append(reached, "panicking")
		panic("nil receiver")
	})
	bus.Subscribe(KindDocentSaved, func(Event) error {
		reached = append(reached, "healthy")
		return nil
	})

	require.NotPanics(t, func() {
		bus.Publish(DocentSaved{DocentID: 3, IsSaved: true})
	})

	assert.Equal(t, []string{"erroring", "panicking", "healthy"}, reached)
	stats := bus.Stats()
	assert.Equal(t, uint64(2), stats.HandlerFailures)
	assert.Equal(t, uint64(1), stats.TotalDelivered)
	assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("event handler panicked").Len())
}

func TestTypedOn(t *testing.T) {
	bus := NewBus(nil)
	var got LikeStatusChanged

	On(bus, func(e LikeStatusChanged) error {
		got = e
		return nil
	})

	bus.Publish(LikeStatusChanged{TargetID: 7, TargetKind: TargetArtwork, IsLiked: true})
	assert.Equal(t, LikeStatusChanged{TargetID: 7, TargetKind: TargetArtwork, IsLiked: true}, got)
}

func TestPublishNilIsIgnored(t *testing.T) {
	bus := NewBus(nil)
	bus.Publish(nil)
	assert.Equal(t, uint64(0), bus.Stats().TotalPublished)
}

func TestConcurrentReleaseAndPublish(t *testing.T) {
	bus := NewBus(nil)
	var calls atomic.Int64

	subs := make([]*Subscription, 50)
	for i := range subs {
		subs[i] = bus.Subscribe(KindHighlightStatusChanged, func(Event) error {
			calls.Add(1)
			return nil
		})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			bus.Publish(HighlightStatusChanged{HighlightID: "h", Action: HighlightCreated})
		}
	}()
	go func() {
		defer wg.Done()
		for _, s := range subs {
			s.Release()
		}
	}()
	wg.Wait()

	// Everything released: nothing further is delivered.
	before := calls.Load()
	bus.Publish(HighlightStatusChanged{HighlightID: "h", Action: HighlightDeleted})
	assert.Equal(t, before, calls.Load())
	assert.Equal(t, 0, bus.Stats().SubscriberCount)
}

func TestDescribe(t *testing.T) {
	folder := int64(4)
	assert.Equal(t, "DocentSaved{docent=1 folder=4 saved=true}", Describe(DocentSaved{DocentID: 1, FolderID: &folder, IsSaved: true}))
	assert.Equal(t, "ForceLogout{}", Describe(ForceLogout{}))
	assert.Equal(t, "LikeStatusChanged{artist:9 liked=false}", Describe(LikeStatusChanged{TargetID: 9, TargetKind: TargetArtist}))
	assert.Equal(t, "<nil>", Describe(nil))
}

func TestParseTargetKind(t *testing.T) {
	k, err := ParseTargetKind("exhibition")
	require.NoError(t, err)
	assert.Equal(t, TargetExhibition, k)

	_, err = ParseTargetKind("sculpture")
	assert.Error(t, err)
}

func TestWireNames(t *testing.T) {
	assert.Equal(t, []string{"created", "updated", "deleted"},
		[]string{string(FolderCreated), string(FolderUpdatedAction), string(FolderDeleted)})
	assert.Equal(t, []string{"created", "deleted"},
		[]string{string(RecordCreated), string(RecordDeleted)})
	assert.Equal(t, []string{"created", "deleted"},
		[]string{string(HighlightCreated), string(HighlightDeleted)})
	assert.Equal(t, []string{"exhibition", "artwork", "artist"},
		[]string{string(TargetExhibition), string(TargetArtwork), string(TargetArtist)})
	assert.Equal(t, []Kind{"LikeStatusChanged", "DocentSaved", "ForceLogout", "FolderUpdated", "RecordUpdated", "HighlightStatusChanged"}, Kinds)
	assert.Equal(t, "FolderUpdated{updated folder=3}", Describe(FolderUpdated{Action: FolderUpdatedAction, FolderID: 3}))
}
