package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of pgxpool.Pool and pgx.Tx used by the write-only stores.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditLog is one mutation recorded against a post or account.
type AuditLog struct {
	ActorID   int64
	Action    string
	Entity    string
	EntityID  string
	RequestID string
	Meta      map[string]any
	At        time.Time
}

func (l AuditLog) validate() error {
	if l.ActorID <= 0 {
		return errors.New("audit: actor required")
	}
	if l.Action == "" || l.Entity == "" || l.EntityID == "" {
		return errors.New("audit: action, entity and entity id required")
	}
	return nil
}

// AuditLogger appends records to audit_logs.
type AuditLogger struct {
	db  Execer
	now func() time.Time
}

// NewAuditLogger returns a logger writing through db.
func NewAuditLogger(db Execer) *AuditLogger {
	return &AuditLogger{db: db, now: time.Now}
}

// Record persists the entry. A zero At is stamped with the current time.
func (l *AuditLogger) Record(ctx context.Context, entry AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit: logger not configured")
	}
	if err := entry.validate(); err != nil {
		return err
	}
	meta := []byte("{}")
	if len(entry.Meta) > 0 {
		var err error
		if meta, err = json.Marshal(entry.Meta); err != nil {
			return fmt.Errorf("audit: encode meta: %w", err)
		}
	}
	if entry.At.IsZero() {
		entry.At = l.now().UTC()
	}
	_, err := l.db.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, action, entity, entity_id, request_id, meta, occurred_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)`,
		entry.ActorID, entry.Action, entry.Entity, entry.EntityID, entry.RequestID, meta, entry.At)
	if err != nil {
		return fmt.Errorf("audit: insert %s: %w", entry.Action, err)
	}
	return nil
}
