// Package types provides shared value types used across docent packages.
// It exists so the store, the coordinator and the UI can exchange collaborator
// results without importing each other.
package types

import "time"

// UserInfo identifies the signed-in visitor.
type UserInfo struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
}

// IsZero reports whether no user is set.
func (u UserInfo) IsZero() bool {
	return u.ID == 0 && u.Nickname == ""
}

// Folder is a named collection of saved docents.
type Folder struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DocentCount int       `json:"docentCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DashboardSummary is the per-user counts shown in the sidebar.
type DashboardSummary struct {
	Likes      int `json:"likes"`
	Saved      int `json:"saved"`
	Highlights int `json:"highlights"`
	Records    int `json:"records"`
}

// Record is a visit record: a note left about an artwork the user saw.
type Record struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

// Highlight is an underlined span of a docent's narration.
type Highlight struct {
	ID          string    `json:"id"`
	DocentID    int64     `json:"docentId"`
	ParagraphID int64     `json:"paragraphId"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LikedItem is one entry of the like list.
type LikedItem struct {
	TargetKind string    `json:"targetKind"`
	TargetID   int64     `json:"targetId"`
	LikedAt    time.Time `json:"likedAt"`
}
