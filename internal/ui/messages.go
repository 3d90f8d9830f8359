package ui

import (
	"quickfind/internal/domain"
	"quickfind/internal/search"
)

// SnapshotMsg wraps a coordinator snapshot for the UI. main forwards these
// into the program with p.Send.
type SnapshotMsg struct {
	Snapshot search.Snapshot[domain.Bookmark]
}

// StreamClosedMsg signals that the coordinator's snapshot stream ended.
type StreamClosedMsg struct{}

// pagerDoneMsg contains the result of a detail pager command
type pagerDoneMsg struct {
	err error
}
