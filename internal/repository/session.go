package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akozyrev/stocktake/internal/models"
)

// PostgresSessionRepository implements audit-session persistence against a PostgreSQL database.
type PostgresSessionRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresSessionRepository creates a new PostgresSessionRepository using the provided *sql.DB.
// db must be a valid connection to a PostgreSQL instance.
func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{DB: db}
}

const sessionColumns = `s.id, s.session_id, s.user_id, u.username, s.start_time, s.end_time,
       s.status, s.items_scanned, s.discrepancies_found, COALESCE(s.notes, '')`

func scanSession(row interface{ Scan(...any) error }) (*models.AuditSession, error) {
	var sess models.AuditSession
	err := row.Scan(&sess.ID, &sess.SessionID, &sess.UserID, &sess.User, &sess.StartTime,
		&sess.EndTime, &sess.Status, &sess.ItemsScanned, &sess.DiscrepanciesFound, &sess.Notes)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Create inserts a new active session for the user with the given public id.
//
//	ctx:       context for cancellation and deadlines
//	userID:    identifier of the owning user
//	sessionID: public UUID assigned by the service layer
//
// Returns the stored session including its assigned start time.
func (r *PostgresSessionRepository) Create(ctx context.Context, userID int64, sessionID string) (*models.AuditSession, error) {
	row := r.DB.QueryRowContext(ctx, `
		WITH inserted AS (
			INSERT INTO audit_sessions (session_id, user_id)
			VALUES ($1, $2)
			RETURNING *
		)
		SELECT `+sessionColumns+`
		  FROM inserted s JOIN users u ON u.id = s.user_id
	`, sessionID, userID)
	sess, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("Create session: %w", err)
	}
	return sess, nil
}

// ActiveForUser returns the user's active session, or sql.ErrNoRows.
func (r *PostgresSessionRepository) ActiveForUser(ctx context.Context, userID int64) (*models.AuditSession, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		  FROM audit_sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.user_id = $1 AND s.status = 'active'
	`, userID)
	return scanSession(row)
}

// Active returns any currently active session, or sql.ErrNoRows when
// no audit is in progress.
func (r *PostgresSessionRepository) Active(ctx context.Context) (*models.AuditSession, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		  FROM audit_sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.status = 'active'
		 ORDER BY s.start_time
		 LIMIT 1
	`)
	return scanSession(row)
}

// GetBySessionID fetches a session by its public UUID regardless of status.
func (r *PostgresSessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.AuditSession, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		  FROM audit_sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.session_id = $1
	`, sessionID)
	return scanSession(row)
}

// End marks the user's active session completed and stores the closing
// notes. Returns sql.ErrNoRows when the session does not exist, is not
// active, or belongs to another user.
func (r *PostgresSessionRepository) End(ctx context.Context, sessionID string, userID int64, notes string) (*models.AuditSession, error) {
	row := r.DB.QueryRowContext(ctx, `
		WITH updated AS (
			UPDATE audit_sessions
			   SET status = 'completed', end_time = now(), notes = $3
			 WHERE session_id = $1 AND user_id = $2 AND status = 'active'
			RETURNING *
		)
		SELECT `+sessionColumns+`
		  FROM updated s JOIN users u ON u.id = s.user_id
	`, sessionID, userID, notes)
	return scanSession(row)
}

// RecordScan appends an audit log entry, overwrites the item's counted
// quantity, and bumps the session counters, all in one transaction.
// Returns the session counters after the update.
func (r *PostgresSessionRepository) RecordScan(ctx context.Context, log models.AuditLog) (itemsScanned, discrepanciesFound int, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_logs (session_id, user_id, item_id, action, old_quantity, new_quantity, discrepancy, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, log.SessionID, log.UserID, log.ItemID, log.Action, log.OldQuantity, log.NewQuantity, log.Discrepancy, log.Notes)
	if err != nil {
		return 0, 0, fmt.Errorf("insert audit log: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE inventory_items SET actual_quantity = $2, last_updated = now() WHERE id = $1
	`, log.ItemID, log.NewQuantity)
	if err != nil {
		return 0, 0, fmt.Errorf("update item quantity: %w", err)
	}

	discrepant := 0
	if log.Discrepancy != 0 {
		discrepant = 1
	}
	err = tx.QueryRowContext(ctx, `
		UPDATE audit_sessions
		   SET items_scanned = items_scanned + 1,
		       discrepancies_found = discrepancies_found + $2
		 WHERE id = $1
		RETURNING items_scanned, discrepancies_found
	`, log.SessionID, discrepant).Scan(&itemsScanned, &discrepanciesFound)
	if err != nil {
		return 0, 0, fmt.Errorf("update session counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit: %w", err)
	}
	return itemsScanned, discrepanciesFound, nil
}

// LogsBySession returns all audit log entries for the session's
// database id, oldest first, with item name and SKU resolved for
// report rendering.
func (r *PostgresSessionRepository) LogsBySession(ctx context.Context, sessionID int64) ([]models.AuditLog, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT l.id, l.session_id, l.user_id, l.item_id, i.name, i.sku, l.action,
		       COALESCE(l.old_quantity, 0), COALESCE(l.new_quantity, 0),
		       l.discrepancy, l.timestamp, COALESCE(l.notes, '')
		  FROM audit_logs l JOIN inventory_items i ON i.id = l.item_id
		 WHERE l.session_id = $1
		 ORDER BY l.timestamp
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("LogsBySession: %w", err)
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.SessionID, &l.UserID, &l.ItemID, &l.ItemName, &l.ItemSKU,
			&l.Action, &l.OldQuantity, &l.NewQuantity, &l.Discrepancy, &l.Timestamp, &l.Notes); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
