// Package coordinator owns screen navigation and the glue between features.
//
// AppCoordinator is the only thing that mutates the navigation state or
// constructs screens. Each screen receives a ScreenCoordinator bound to it and
// sees it through the one narrow interface its feature declares below, so
// features never depend on each other or on the router's internals.
package coordinator

import (
	"context"

	"docent/internal/events"
	"docent/internal/types"
)

// Completion callbacks run on the UI goroutine, and only while the screen
// that asked is still attached.

// LaunchCoordinator is what the launch (login) screen may ask for.
type LaunchCoordinator interface {
	CompleteLogin(token string, user types.UserInfo) error
}

// HomeCoordinator is what the home feed may ask for.
type HomeCoordinator interface {
	ShowEntry(docentID int64) error
	ShowCamera() error
	ShowSidebar() error
	ToggleLike(kind events.TargetKind, id int64, done func(liked bool, err error))
}

// CameraCoordinator is what the camera overlay may ask for.
type CameraCoordinator interface {
	ShowRecognized(docentID int64) error
	DismissCamera() error
}

// EntryCoordinator is what a docent's entry page may ask for.
type EntryCoordinator interface {
	ShowChat(docentID int64) error
	ShowPlayer(docentID int64) error
	ToggleLike(kind events.TargetKind, id int64, done func(liked bool, err error))
	Back() bool
}

// ChatCoordinator is what the docent chat may ask for.
type ChatCoordinator interface {
	Back() bool
}

// PlayerCoordinator is what the narration player may ask for.
type PlayerCoordinator interface {
	ShowSave(docentID int64, folderID *int64) error
	ShowUnderline(docentID int64) error
	Folders() []types.Folder
	AddHighlight(docentID, paragraphID int64, text string, done func(types.Highlight, error))
	Back() bool
}

// LikeCoordinator is what the like list may ask for.
type LikeCoordinator interface {
	ToggleLike(kind events.TargetKind, id int64, done func(liked bool, err error))
	PopToHome() error
}

// SaveCoordinator is what the save-to-folder screen may ask for.
type SaveCoordinator interface {
	Folders() []types.Folder
	SaveDocent(docentID int64, folderID *int64, done func(saved bool, err error))
	CreateFolder(name string, done func(types.Folder, error))
	RenameFolder(folderID int64, name string, done func(error))
	DeleteFolder(folderID int64, done func(error))
	Back() bool
	PopToHome() error
}

// RecordCoordinator is what the visit-record screen may ask for.
type RecordCoordinator interface {
	CreateRecord(title, note string, done func(types.Record, error))
	DeleteRecord(recordID int64, done func(error))
	PopToHome() error
}

// UnderlineCoordinator is what the highlight list may ask for.
type UnderlineCoordinator interface {
	RemoveHighlight(highlightID string, done func(error))
	Back() bool
	PopToHome() error
}

// SidebarCoordinator is what the sidebar overlay may ask for.
type SidebarCoordinator interface {
	ShowLikes() error
	ShowSaved() error
	ShowUnderlines() error
	ShowRecords() error
	Dashboard() *types.DashboardSummary
	DismissSidebar() error
	Logout() error
}

// Collaborators the coordinator calls into. Implementations may block; the
// coordinator only calls them from Scheduler.Background.

type LikeToggler interface {
	ToggleLike(ctx context.Context, kind events.TargetKind, id int64) (bool, error)
}

type FolderLister interface {
	Folders(ctx context.Context) ([]types.Folder, error)
}

type DashboardProvider interface {
	DashboardSummary(ctx context.Context) (types.DashboardSummary, error)
}

type SaveService interface {
	SaveDocent(ctx context.Context, docentID int64, folderID *int64) (bool, error)
}

type FolderEditor interface {
	CreateFolder(ctx context.Context, name string) (types.Folder, error)
	RenameFolder(ctx context.Context, id int64, name string) error
	DeleteFolder(ctx context.Context, id int64) error
}

type RecordService interface {
	CreateRecord(ctx context.Context, title, note string) (types.Record, error)
	DeleteRecord(ctx context.Context, id int64) error
}

type HighlightService interface {
	AddHighlight(ctx context.Context, docentID, paragraphID int64, text string) (types.Highlight, error)
	RemoveHighlight(ctx context.Context, id string) error
}

// DocentResolver reports whether a docent can be shown.
type DocentResolver interface {
	HasDocent(id int64) bool
}

// EventBus is both sides of the domain event bus.
type EventBus interface {
	events.Publisher
	events.Subscriber
}
