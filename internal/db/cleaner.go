package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/akozyrev/stocktake/internal/models"
)

// StartStaleSessionCleaner force-completes audit sessions that have
// stayed active past the retention window, e.g. when a user walked
// away mid-count. Each closed session is handed to onClosed so the
// caller can broadcast the completion to connected clients.
func StartStaleSessionCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
	onClosed func(models.AuditSession),
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				rows, err := db.QueryContext(ctx, `
                    UPDATE audit_sessions AS s
                       SET status = 'completed', end_time = now()
                      FROM users u
                     WHERE s.status = 'active'
                       AND s.start_time < $1
                       AND u.id = s.user_id
                 RETURNING s.session_id, u.username, s.start_time, s.end_time,
                           s.items_scanned, s.discrepancies_found
                `, cutoff)
				if err != nil {
					log.Error("failed to close stale audit sessions", zap.Error(err))
					continue
				}

				var closed []models.AuditSession
				for rows.Next() {
					var sess models.AuditSession
					sess.Status = models.SessionCompleted
					if err := rows.Scan(&sess.SessionID, &sess.User, &sess.StartTime,
						&sess.EndTime, &sess.ItemsScanned, &sess.DiscrepanciesFound); err != nil {
						log.Error("failed to scan stale session", zap.Error(err))
						break
					}
					closed = append(closed, sess)
				}
				rows.Close()

				for _, sess := range closed {
					if onClosed != nil {
						onClosed(sess)
					}
				}
				if len(closed) > 0 {
					log.Info("closed stale audit sessions", zap.Int("count", len(closed)))
				}
			}
		}
	}()
}
