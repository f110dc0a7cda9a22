package dashboard

import (
	"context"
	"time"
)

// DocumentStore keeps live documents and their last persisted snapshot per
// uid. Implementations must be safe for concurrent use; the Service
// serializes mutations of a single document.
type DocumentStore interface {
	Document(ctx context.Context, uid string) (*Document, error)
	SaveDocument(ctx context.Context, uid string, doc *Document) error
	DeleteDocument(ctx context.Context, uid string) error
	UIDs(ctx context.Context) ([]string, error)
	Snapshot(ctx context.Context, uid string) ([]byte, error)
	SaveSnapshot(ctx context.Context, uid string, data []byte) error
}

// ChangeHook notifies transports (REST/WebSocket/SSE) about document changes.
type ChangeHook interface {
	DocumentChanged(ctx context.Context, event ChangeEvent) error
}

// Validator checks a persisted form before it is stored.
type Validator interface {
	Validate(persisted map[string]any) error
}

// Change reasons carried by ChangeEvent.
const (
	ReasonLoad    = "load"
	ReasonSelect  = "select"
	ReasonRepeat  = "repeat"
	ReasonToggle  = "toggle"
	ReasonPersist = "persist"
	ReasonDelete  = "delete"
)

// ChangeEvent describes a document change transports might care about.
type ChangeEvent struct {
	ID        string       `json:"id"`
	UID       string       `json:"uid"`
	Reason    string       `json:"reason"`
	Actor     string       `json:"actor,omitempty"`
	Iteration int64        `json:"iteration"`
	Repeats   RepeatResult `json:"repeats"`
	PanelID   int          `json:"panelId,omitempty"`
	Variable  string       `json:"variable,omitempty"`
	At        time.Time    `json:"at"`
}

// PanelsView is the live panel list of a document.
type PanelsView struct {
	UID       string   `json:"uid"`
	Iteration int64    `json:"iteration"`
	Panels    []*Panel `json:"panels"`
}
