// Package review holds the corpus of reviewed records: albums picked by
// publications and reviewers, each pointing at a catalog object by name.
package review

import (
	"errors"
	"time"
)

var (
	// ErrEmpty is returned when no row matches the reviewer and skip list.
	ErrEmpty = errors.New("review corpus: no matching rows")
	// ErrUnresolvable means the row's name and creator match nothing in the catalog.
	ErrUnresolvable = errors.New("review item cannot be resolved against the catalog")
)

// Metadata keys understood by the resolver.
const (
	MetaCatalogID   = "catalog_id"
	MetaCatalogKind = "catalog_kind"
)

// Item is one corpus row. Resolvable is nil until the audit job has
// checked the row.
type Item struct {
	ID         int64             `json:"id"`
	Reviewer   string            `json:"reviewer"`
	Name       string            `json:"name"`
	Creator    string            `json:"creator"`
	Service    string            `json:"service"`
	ReviewURL  string            `json:"review_url,omitempty"`
	Resolvable *bool             `json:"resolvable,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Audit run statuses.
const (
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// AuditRun is the bookkeeping row for one resolvability audit.
type AuditRun struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       *time.Time
	Status           string
	Scope            string // "unchecked" or "all"
	RowsChecked      int
	RowsResolvable   int
	RowsUnresolvable int
	RowsErrored      int
	Error            string
}
