package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/akozyrev/stocktake/internal/broadcast"
	"github.com/akozyrev/stocktake/internal/event"
	"github.com/akozyrev/stocktake/internal/models"
)

// SessionRepository defines the persistence operations needed by the
// AuditService.
type SessionRepository interface {
	// Create inserts a new active session with the given public id.
	Create(ctx context.Context, userID int64, sessionID string) (*models.AuditSession, error)
	// ActiveForUser returns the user's active session, or sql.ErrNoRows.
	ActiveForUser(ctx context.Context, userID int64) (*models.AuditSession, error)
	// Active returns any currently active session, or sql.ErrNoRows.
	Active(ctx context.Context) (*models.AuditSession, error)
	// GetBySessionID fetches a session by public id regardless of status.
	GetBySessionID(ctx context.Context, sessionID string) (*models.AuditSession, error)
	// End completes the user's active session.
	End(ctx context.Context, sessionID string, userID int64, notes string) (*models.AuditSession, error)
	// RecordScan stores one scan and returns the updated counters.
	RecordScan(ctx context.Context, log models.AuditLog) (itemsScanned, discrepanciesFound int, err error)
	// LogsBySession returns the session's audit log, oldest first.
	LogsBySession(ctx context.Context, sessionID int64) ([]models.AuditLog, error)
}

// AuditService implements the audit-session lifecycle and pushes every
// state change to the broadcast room.
type AuditService struct {
	sessions SessionRepository
	items    InventoryRepository
	pub      broadcast.Publisher
	room     string
}

// NewAuditService constructs an AuditService. Every mutation is
// broadcast to the given room.
func NewAuditService(sessions SessionRepository, items InventoryRepository, pub broadcast.Publisher, room string) *AuditService {
	return &AuditService{sessions: sessions, items: items, pub: pub, room: room}
}

// Start opens a new audit session for the user. A user with an active
// session cannot start a second one.
func (s *AuditService) Start(ctx context.Context, user *models.User) (*models.AuditSession, error) {
	_, err := s.sessions.ActiveForUser(ctx, user.ID)
	if err == nil {
		return nil, ErrActiveSessionExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	sess, err := s.sessions.Create(ctx, user.ID, uuid.NewString())
	if err != nil {
		return nil, err
	}

	s.pub.Publish(s.room, event.AuditStarted, event.AuditStartedPayload{
		SessionID:          sess.SessionID,
		User:               sess.User,
		StartTime:          sess.StartTime.Format(time.RFC3339),
		ItemsScanned:       0,
		DiscrepanciesFound: 0,
	})
	return sess, nil
}

// End completes the user's active session and broadcasts the
// completion.
func (s *AuditService) End(ctx context.Context, user *models.User, sessionID, notes string) (*models.AuditSession, error) {
	sess, err := s.sessions.End(ctx, sessionID, user.ID, notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}

	endTime := ""
	if sess.EndTime != nil {
		endTime = sess.EndTime.Format(time.RFC3339)
	}
	s.pub.Publish(s.room, event.AuditCompleted, event.AuditCompletedPayload{
		SessionID:          sess.SessionID,
		User:               sess.User,
		EndTime:            endTime,
		ItemsScanned:       sess.ItemsScanned,
		DiscrepanciesFound: sess.DiscrepanciesFound,
	})
	return sess, nil
}

// ScanResult is what a successful scan reports back to the caller.
type ScanResult struct {
	Item        models.InventoryItem `json:"item"`
	Discrepancy int                  `json:"discrepancy"`
}

// Scan records one counted item inside the user's active session,
// updates the stored quantity, and broadcasts the resulting state.
// A non-zero discrepancy additionally emits a notification-only
// discrepancy event; it is deliberately not reconciled against the
// counters carried by the audit update.
func (s *AuditService) Scan(ctx context.Context, user *models.User, sessionID, barcode string, actualQuantity int, notes string) (*ScanResult, error) {
	sess, err := s.sessions.GetBySessionID(ctx, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}
	if sess.UserID != user.ID || sess.Status != models.SessionActive {
		return nil, ErrInvalidSession
	}

	item, err := s.items.FindByCode(ctx, barcode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	discrepancy := actualQuantity - item.ExpectedQuantity
	itemsScanned, discrepanciesFound, err := s.sessions.RecordScan(ctx, models.AuditLog{
		SessionID:   sess.ID,
		UserID:      user.ID,
		ItemID:      item.ID,
		Action:      "scan",
		OldQuantity: item.ActualQuantity,
		NewQuantity: actualQuantity,
		Discrepancy: discrepancy,
		Notes:       notes,
	})
	if err != nil {
		return nil, err
	}

	s.pub.Publish(s.room, event.ItemScanned, event.ItemScannedPayload{
		ItemID:           item.ID,
		ItemName:         item.Name,
		ActualQuantity:   actualQuantity,
		ExpectedQuantity: item.ExpectedQuantity,
		Discrepancy:      discrepancy,
	})
	s.pub.Publish(s.room, event.AuditUpdated, event.AuditUpdatedPayload{
		SessionID:          sess.SessionID,
		ItemsScanned:       itemsScanned,
		DiscrepanciesFound: discrepanciesFound,
	})
	if discrepancy != 0 {
		s.pub.Publish(s.room, event.DiscrepancyFound, event.DiscrepancyFoundPayload{
			ItemName:    item.Name,
			Discrepancy: discrepancy,
			Expected:    item.ExpectedQuantity,
			Actual:      actualQuantity,
		})
	}

	result := *item
	result.ActualQuantity = actualQuantity
	return &ScanResult{Item: result, Discrepancy: discrepancy}, nil
}

// Active returns the currently active session, or nil when no audit is
// in progress.
func (s *AuditService) Active(ctx context.Context) (*models.AuditSession, error) {
	sess, err := s.sessions.Active(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return sess, err
}

// Details fetches a session by its public id regardless of status.
func (s *AuditService) Details(ctx context.Context, sessionID string) (*models.AuditSession, error) {
	sess, err := s.sessions.GetBySessionID(ctx, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sess, err
}

// Report returns the session and its full audit log for export.
func (s *AuditService) Report(ctx context.Context, sessionID string) (*models.AuditSession, []models.AuditLog, error) {
	sess, err := s.Details(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.sessions.LogsBySession(ctx, sess.ID)
	if err != nil {
		return nil, nil, err
	}
	return sess, logs, nil
}
