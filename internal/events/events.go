// Package events carries cross-feature state changes between docent features
// that share no code. Payload names and fields are a wire contract: a feature
// built independently against the same event names must interoperate.
package events

import "fmt"

// Kind names an event type on the bus.
type Kind string

const (
	KindLikeStatusChanged      Kind = "LikeStatusChanged"
	KindDocentSaved            Kind = "DocentSaved"
	KindForceLogout            Kind = "ForceLogout"
	KindFolderUpdated          Kind = "FolderUpdated"
	KindRecordUpdated          Kind = "RecordUpdated"
	KindHighlightStatusChanged Kind = "HighlightStatusChanged"
)

// Kinds lists every event kind in declaration order.
var Kinds = []Kind{
	KindLikeStatusChanged,
	KindDocentSaved,
	KindForceLogout,
	KindFolderUpdated,
	KindRecordUpdated,
	KindHighlightStatusChanged,
}

// Event is the closed set of domain events. Only types in this package
// implement it; a type switch over the six concrete events is exhaustive.
type Event interface {
	Kind() Kind
	sealed()
}

// TargetKind is the kind of thing a like refers to.
type TargetKind string

const (
	TargetExhibition TargetKind = "exhibition"
	TargetArtwork    TargetKind = "artwork"
	TargetArtist     TargetKind = "artist"
)

// Valid reports whether k is one of the known target kinds.
func (k TargetKind) Valid() bool {
	switch k {
	case TargetExhibition, TargetArtwork, TargetArtist:
		return true
	}
	return false
}

// ParseTargetKind converts a user-supplied string into a TargetKind.
func ParseTargetKind(s string) (TargetKind, error) {
	k := TargetKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown target kind %q", s)
	}
	return k, nil
}

// FolderAction describes what happened to a folder.
type FolderAction string

const (
	FolderCreated       FolderAction = "created"
	FolderUpdatedAction FolderAction = "updated"
	FolderDeleted       FolderAction = "deleted"
)

// RecordAction describes what happened to a visit record.
type RecordAction string

const (
	RecordCreated RecordAction = "created"
	RecordDeleted RecordAction = "deleted"
)

// HighlightAction describes what happened to a highlight (underline).
type HighlightAction string

const (
	HighlightCreated HighlightAction = "created"
	HighlightDeleted HighlightAction = "deleted"
)

// LikeStatusChanged is published after a like toggle succeeds.
type LikeStatusChanged struct {
	TargetID   int64
	TargetKind TargetKind
	IsLiked    bool
}

// DocentSaved is published after a docent is saved to or removed from a folder.
// FolderID is nil when the docent was saved without choosing a folder.
type DocentSaved struct {
	DocentID int64
	FolderID *int64
	IsSaved  bool
}

// ForceLogout asks every feature to drop user state; the session gate clears
// the credential and navigation resets to launch.
type ForceLogout struct{}

// FolderUpdated is published after a folder is created, renamed or deleted.
// A rename travels as action "updated".
type FolderUpdated struct {
	Action   FolderAction
	FolderID int64
}

// RecordUpdated is published after a visit record is created or deleted.
type RecordUpdated struct {
	Action   RecordAction
	RecordID int64
}

// HighlightStatusChanged is published after a highlight is created or deleted.
type HighlightStatusChanged struct {
	HighlightID string
	Action      HighlightAction
}

func (LikeStatusChanged) Kind() Kind      { return KindLikeStatusChanged }
func (DocentSaved) Kind() Kind            { return KindDocentSaved }
func (ForceLogout) Kind() Kind            { return KindForceLogout }
func (FolderUpdated) Kind() Kind          { return KindFolderUpdated }
func (RecordUpdated) Kind() Kind          { return KindRecordUpdated }
func (HighlightStatusChanged) Kind() Kind { return KindHighlightStatusChanged }

func (LikeStatusChanged) sealed()      {}
func (DocentSaved) sealed()            {}
func (ForceLogout) sealed()            {}
func (FolderUpdated) sealed()          {}
func (RecordUpdated) sealed()          {}
func (HighlightStatusChanged) sealed() {}

// Describe renders an event for logs and the debug pane.
func Describe(e Event) string {
	switch ev := e.(type) {
	case LikeStatusChanged:
		return fmt.Sprintf("%s{%s:%d liked=%t}", ev.Kind(), ev.TargetKind, ev.TargetID, ev.IsLiked)
	case DocentSaved:
		folder := "none"
		if ev.FolderID != nil {
			folder = fmt.Sprint(*ev.FolderID)
		}
		return fmt.Sprintf("%s{docent=%d folder=%s saved=%t}", ev.Kind(), ev.DocentID, folder, ev.IsSaved)
	case ForceLogout:
		return string(ev.Kind()) + "{}"
	case FolderUpdated:
		return fmt.Sprintf("%s{%s folder=%d}", ev.Kind(), ev.Action, ev.FolderID)
	case RecordUpdated:
		return fmt.Sprintf("%s{%s record=%d}", ev.Kind(), ev.Action, ev.RecordID)
	case HighlightStatusChanged:
		return fmt.Sprintf("%s{%s highlight=%s}", ev.Kind(), ev.Action, ev.HighlightID)
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%T", e)
	}
}
