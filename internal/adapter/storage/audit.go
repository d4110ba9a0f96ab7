package storage

import (
	"context"
	"fmt"
	"time"
)

// AppendAudit records a lifecycle action (account opened, account deleted,
// user removed) in the audit log.
func (s *Store) AppendAudit(ctx context.Context, q DBTX, actor, action, detail string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO audit_log (actor, action, detail, logged_at)
		VALUES (?, ?, ?, ?)`,
		actor, action, detail, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}
