// Package feature holds the per-screen copies of shared state that features
// keep in sync through the event bus instead of by calling each other.
package feature

import (
	"context"

	"docent/internal/coordinator"
	"docent/internal/events"
	"docent/internal/lifecycle"
	"docent/internal/types"
)

// List is a screen-owned copy of collaborator data. It reloads whenever one
// of its event kinds is published, until its scope closes.
type List[T any] struct {
	ctx      context.Context
	scope    *lifecycle.Scope
	sched    coordinator.Scheduler
	load     func(context.Context) ([]T, error)
	onChange func([]T, error)

	items []T
	err   error
	loads int
}

// NewList subscribes the list to kinds and starts the first load. The
// subscriptions are released when scope closes.
func NewList[T any](
	ctx context.Context,
	scope *lifecycle.Scope,
	sub events.Subscriber,
	sched coordinator.Scheduler,
	load func(context.Context) ([]T, error),
	kinds ...events.Kind,
) *List[T] {
	if sched == nil {
		sched = coordinator.Inline{}
	}
	l := &List[T]{ctx: ctx, scope: scope, sched: sched, load: load}
	for _, k := range kinds {
		scope.Track(sub.Subscribe(k, func(events.Event) error {
			l.Reload()
			return nil
		}))
	}
	l.Reload()
	return l
}

// OnChange registers fn to run after every completed load.
func (l *List[T]) OnChange(fn func(items []T, err error)) { l.onChange = fn }

// Reload fetches in the background and applies the result on the UI
// goroutine. A result arriving after the scope closed is dropped.
func (l *List[T]) Reload() {
	if !l.scope.Alive() {
		return
	}
	apply := lifecycle.Guard2(l.scope, func(items []T, err error) {
		l.loads++
		l.err = err
		if err == nil {
			l.items = items
		}
		if l.onChange != nil {
			l.onChange(l.items, err)
		}
	})
	ctx := l.ctx
	l.sched.Background(func() {
		items, err := l.load(ctx)
		l.sched.Main(func() { apply(items, err) })
	})
}

// Items returns the last successfully loaded items.
func (l *List[T]) Items() []T { return l.items }

// Err returns the error of the last load, if it failed.
func (l *List[T]) Err() error { return l.err }

// Loads counts completed loads.
func (l *List[T]) Loads() int { return l.loads }

type FolderSource interface {
	Folders(ctx context.Context) ([]types.Folder, error)
}

type RecordSource interface {
	Records(ctx context.Context) ([]types.Record, error)
}

type HighlightSource interface {
	Highlights(ctx context.Context, docentID int64) ([]types.Highlight, error)
}

type LikeSource interface {
	Likes(ctx context.Context, kind events.TargetKind) ([]types.LikedItem, error)
	IsLiked(ctx context.Context, kind events.TargetKind, id int64) (bool, error)
}

// NewFolderList follows folder edits and saves, since saving changes counts.
func NewFolderList(ctx context.Context, scope *lifecycle.Scope, sub events.Subscriber, sched coordinator.Scheduler, src FolderSource) *List[types.Folder] {
	return NewList(ctx, scope, sub, sched, src.Folders, events.KindFolderUpdated, events.KindDocentSaved)
}

func NewRecordList(ctx context.Context, scope *lifecycle.Scope, sub events.Subscriber, sched coordinator.Scheduler, src RecordSource) *List[types.Record] {
	return NewList(ctx, scope, sub, sched, src.Records, events.KindRecordUpdated)
}

// NewHighlightList lists one docent's highlights, or all of them for docentID 0.
func NewHighlightList(ctx context.Context, scope *lifecycle.Scope, sub events.Subscriber, sched coordinator.Scheduler, src HighlightSource, docentID int64) *List[types.Highlight] {
	load := func(ctx context.Context) ([]types.Highlight, error) {
		return src.Highlights(ctx, docentID)
	}
	return NewList(ctx, scope, sub, sched, load, events.KindHighlightStatusChanged)
}

// NewLikeList lists liked targets of kind, or every kind when kind is empty.
func NewLikeList(ctx context.Context, scope *lifecycle.Scope, sub events.Subscriber, sched coordinator.Scheduler, src LikeSource, kind events.TargetKind) *List[types.LikedItem] {
	load := func(ctx context.Context) ([]types.LikedItem, error) {
		return src.Likes(ctx, kind)
	}
	return NewList(ctx, scope, sub, sched, load, events.KindLikeStatusChanged)
}
