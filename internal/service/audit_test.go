package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akozyrev/stocktake/internal/event"
	"github.com/akozyrev/stocktake/internal/models"
	"github.com/akozyrev/stocktake/internal/service"
)

type mockSessionRepo struct {
	CreateFunc         func(ctx context.Context, userID int64, sessionID string) (*models.AuditSession, error)
	ActiveForUserFunc  func(ctx context.Context, userID int64) (*models.AuditSession, error)
	ActiveFunc         func(ctx context.Context) (*models.AuditSession, error)
	GetBySessionIDFunc func(ctx context.Context, sessionID string) (*models.AuditSession, error)
	EndFunc            func(ctx context.Context, sessionID string, userID int64, notes string) (*models.AuditSession, error)
	RecordScanFunc     func(ctx context.Context, log models.AuditLog) (int, int, error)
	LogsBySessionFunc  func(ctx context.Context, sessionID int64) ([]models.AuditLog, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, userID int64, sessionID string) (*models.AuditSession, error) {
	return m.CreateFunc(ctx, userID, sessionID)
}
func (m *mockSessionRepo) ActiveForUser(ctx context.Context, userID int64) (*models.AuditSession, error) {
	return m.ActiveForUserFunc(ctx, userID)
}
func (m *mockSessionRepo) Active(ctx context.Context) (*models.AuditSession, error) {
	return m.ActiveFunc(ctx)
}
func (m *mockSessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.AuditSession, error) {
	return m.GetBySessionIDFunc(ctx, sessionID)
}
func (m *mockSessionRepo) End(ctx context.Context, sessionID string, userID int64, notes string) (*models.AuditSession, error) {
	return m.EndFunc(ctx, sessionID, userID, notes)
}
func (m *mockSessionRepo) RecordScan(ctx context.Context, log models.AuditLog) (int, int, error) {
	return m.RecordScanFunc(ctx, log)
}
func (m *mockSessionRepo) LogsBySession(ctx context.Context, sessionID int64) ([]models.AuditLog, error) {
	return m.LogsBySessionFunc(ctx, sessionID)
}

type mockItemRepo struct {
	FindByCodeFunc  func(ctx context.Context, code string) (*models.InventoryItem, error)
	GetByIDFunc     func(ctx context.Context, id int64) (*models.InventoryItem, error)
	ListFunc        func(ctx context.Context) ([]models.InventoryItem, error)
	ExistsBySKUFunc func(ctx context.Context, sku string) (bool, error)
	CreateFunc      func(ctx context.Context, item models.InventoryItem) (*models.InventoryItem, error)
	UpdateFunc      func(ctx context.Context, item models.InventoryItem) (*models.InventoryItem, error)
	DeleteFunc      func(ctx context.Context, id int64) error
}

func (m *mockItemRepo) FindByCode(ctx context.Context, code string) (*models.InventoryItem, error) {
	return m.FindByCodeFunc(ctx, code)
}
func (m *mockItemRepo) GetByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *mockItemRepo) List(ctx context.Context) ([]models.InventoryItem, error) {
	return m.ListFunc(ctx)
}
func (m *mockItemRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	return m.ExistsBySKUFunc(ctx, sku)
}
func (m *mockItemRepo) Create(ctx context.Context, item models.InventoryItem) (*models.InventoryItem, error) {
	return m.CreateFunc(ctx, item)
}
func (m *mockItemRepo) Update(ctx context.Context, item models.InventoryItem) (*models.InventoryItem, error) {
	return m.UpdateFunc(ctx, item)
}
func (m *mockItemRepo) Delete(ctx context.Context, id int64) error {
	return m.DeleteFunc(ctx, id)
}

// recordingPublisher captures broadcast events for assertions.
type recordingPublisher struct {
	events []publishedEvent
}

type publishedEvent struct {
	room    string
	kind    event.Kind
	payload any
}

func (p *recordingPublisher) Publish(room string, kind event.Kind, payload any) {
	p.events = append(p.events, publishedEvent{room: room, kind: kind, payload: payload})
}

func (p *recordingPublisher) kinds() []event.Kind {
	kinds := make([]event.Kind, len(p.events))
	for i, e := range p.events {
		kinds[i] = e.kind
	}
	return kinds
}

var alice = &models.User{ID: 2, Username: "alice", Role: models.RoleUser}

func TestAuditStart_Success(t *testing.T) {
	pub := &recordingPublisher{}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockSessionRepo{
		ActiveForUserFunc: func(context.Context, int64) (*models.AuditSession, error) {
			return nil, sql.ErrNoRows
		},
		CreateFunc: func(ctx context.Context, userID int64, sessionID string) (*models.AuditSession, error) {
			require.NotEmpty(t, sessionID)
			return &models.AuditSession{
				ID: 1, SessionID: sessionID, UserID: userID, User: "alice",
				StartTime: start, Status: models.SessionActive,
			}, nil
		},
	}
	svc := service.NewAuditService(repo, &mockItemRepo{}, pub, "all_users")

	sess, err := svc.Start(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.User)

	require.Len(t, pub.events, 1)
	assert.Equal(t, event.AuditStarted, pub.events[0].kind)
	payload := pub.events[0].payload.(event.AuditStartedPayload)
	assert.Equal(t, "2025-01-01T00:00:00Z", payload.StartTime)
	assert.Equal(t, 0, payload.ItemsScanned)
}

func TestAuditStart_AlreadyActive(t *testing.T) {
	pub := &recordingPublisher{}
	repo := &mockSessionRepo{
		ActiveForUserFunc: func(context.Context, int64) (*models.AuditSession, error) {
			return &models.AuditSession{SessionID: "existing"}, nil
		},
	}
	svc := service.NewAuditService(repo, &mockItemRepo{}, pub, "all_users")

	_, err := svc.Start(context.Background(), alice)
	assert.ErrorIs(t, err, service.ErrActiveSessionExists)
	assert.Empty(t, pub.events, "nothing must be broadcast on failure")
}

func TestAuditEnd_InvalidSession(t *testing.T) {
	pub := &recordingPublisher{}
	repo := &mockSessionRepo{
		EndFunc: func(context.Context, string, int64, string) (*models.AuditSession, error) {
			return nil, sql.ErrNoRows
		},
	}
	svc := service.NewAuditService(repo, &mockItemRepo{}, pub, "all_users")

	_, err := svc.End(context.Background(), alice, "sess-x", "")
	assert.ErrorIs(t, err, service.ErrInvalidSession)
	assert.Empty(t, pub.events)
}

func TestAuditEnd_Broadcasts(t *testing.T) {
	pub := &recordingPublisher{}
	end := time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC)
	repo := &mockSessionRepo{
		EndFunc: func(ctx context.Context, sessionID string, userID int64, notes string) (*models.AuditSession, error) {
			assert.Equal(t, "closing note", notes)
			return &models.AuditSession{
				SessionID: sessionID, User: "alice", EndTime: &end,
				Status: models.SessionCompleted, ItemsScanned: 12, DiscrepanciesFound: 3,
			}, nil
		},
	}
	svc := service.NewAuditService(repo, &mockItemRepo{}, pub, "all_users")

	sess, err := svc.End(context.Background(), alice, "sess-1", "closing note")
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, sess.Status)

	require.Len(t, pub.events, 1)
	payload := pub.events[0].payload.(event.AuditCompletedPayload)
	assert.Equal(t, 12, payload.ItemsScanned)
	assert.Equal(t, "2025-01-01T02:00:00Z", payload.EndTime)
}

func scanFixtures(t *testing.T, actual int) (*mockSessionRepo, *mockItemRepo) {
	t.Helper()
	sessions := &mockSessionRepo{
		GetBySessionIDFunc: func(ctx context.Context, sessionID string) (*models.AuditSession, error) {
			return &models.AuditSession{ID: 1, SessionID: sessionID, UserID: alice.ID, Status: models.SessionActive}, nil
		},
		RecordScanFunc: func(ctx context.Context, log models.AuditLog) (int, int, error) {
			bump := 0
			if log.Discrepancy != 0 {
				bump = 1
			}
			return 5, 2 + bump, nil
		},
	}
	items := &mockItemRepo{
		FindByCodeFunc: func(ctx context.Context, code string) (*models.InventoryItem, error) {
			return &models.InventoryItem{ID: 42, Name: "Widget", SKU: "WID-001", ExpectedQuantity: 4, ActualQuantity: actual}, nil
		},
	}
	return sessions, items
}

func TestScan_WithDiscrepancy(t *testing.T) {
	pub := &recordingPublisher{}
	sessions, items := scanFixtures(t, 4)
	svc := service.NewAuditService(sessions, items, pub, "all_users")

	res, err := svc.Scan(context.Background(), alice, "sess-1", "WID-001", 5, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Discrepancy)
	assert.Equal(t, 5, res.Item.ActualQuantity)

	assert.Equal(t, []event.Kind{event.ItemScanned, event.AuditUpdated, event.DiscrepancyFound}, pub.kinds())

	scanned := pub.events[0].payload.(event.ItemScannedPayload)
	assert.Equal(t, int64(42), scanned.ItemID)
	assert.Equal(t, 5, scanned.ActualQuantity)
	assert.Equal(t, 4, scanned.ExpectedQuantity)
}

func TestScan_NoDiscrepancySkipsNotification(t *testing.T) {
	pub := &recordingPublisher{}
	sessions, items := scanFixtures(t, 4)
	svc := service.NewAuditService(sessions, items, pub, "all_users")

	res, err := svc.Scan(context.Background(), alice, "sess-1", "WID-001", 4, "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Discrepancy)
	assert.Equal(t, []event.Kind{event.ItemScanned, event.AuditUpdated}, pub.kinds())
}

func TestScan_ForeignSession(t *testing.T) {
	pub := &recordingPublisher{}
	sessions := &mockSessionRepo{
		GetBySessionIDFunc: func(ctx context.Context, sessionID string) (*models.AuditSession, error) {
			return &models.AuditSession{ID: 1, SessionID: sessionID, UserID: 99, Status: models.SessionActive}, nil
		},
	}
	svc := service.NewAuditService(sessions, &mockItemRepo{}, pub, "all_users")

	_, err := svc.Scan(context.Background(), alice, "sess-1", "WID-001", 5, "")
	assert.ErrorIs(t, err, service.ErrInvalidSession)
}

func TestScan_CompletedSession(t *testing.T) {
	sessions := &mockSessionRepo{
		GetBySessionIDFunc: func(ctx context.Context, sessionID string) (*models.AuditSession, error) {
			return &models.AuditSession{ID: 1, SessionID: sessionID, UserID: alice.ID, Status: models.SessionCompleted}, nil
		},
	}
	svc := service.NewAuditService(sessions, &mockItemRepo{}, &recordingPublisher{}, "all_users")

	_, err := svc.Scan(context.Background(), alice, "sess-1", "WID-001", 5, "")
	assert.ErrorIs(t, err, service.ErrInvalidSession)
}

func TestScan_UnknownBarcode(t *testing.T) {
	sessions := &mockSessionRepo{
		GetBySessionIDFunc: func(ctx context.Context, sessionID string) (*models.AuditSession, error) {
			return &models.AuditSession{ID: 1, SessionID: sessionID, UserID: alice.ID, Status: models.SessionActive}, nil
		},
	}
	items := &mockItemRepo{
		FindByCodeFunc: func(context.Context, string) (*models.InventoryItem, error) {
			return nil, sql.ErrNoRows
		},
	}
	svc := service.NewAuditService(sessions, items, &recordingPublisher{}, "all_users")

	_, err := svc.Scan(context.Background(), alice, "sess-1", "MISSING", 5, "")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestActive_NoneReturnsNil(t *testing.T) {
	repo := &mockSessionRepo{
		ActiveFunc: func(context.Context) (*models.AuditSession, error) {
			return nil, sql.ErrNoRows
		},
	}
	svc := service.NewAuditService(repo, &mockItemRepo{}, &recordingPublisher{}, "all_users")

	sess, err := svc.Active(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestReport_Success(t *testing.T) {
	repo := &mockSessionRepo{
		GetBySessionIDFunc: func(ctx context.Context, sessionID string) (*models.AuditSession, error) {
			return &models.AuditSession{ID: 7, SessionID: sessionID, User: "alice"}, nil
		},
		LogsBySessionFunc: func(ctx context.Context, sessionID int64) ([]models.AuditLog, error) {
			assert.Equal(t, int64(7), sessionID)
			return []models.AuditLog{{ItemName: "Widget", Discrepancy: 1}}, nil
		},
	}
	svc := service.NewAuditService(repo, &mockItemRepo{}, &recordingPublisher{}, "all_users")

	sess, logs, err := svc.Report(context.Background(), "sess-7")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.User)
	require.Len(t, logs, 1)
}

func TestReport_RepoError(t *testing.T) {
	wantErr := errors.New("db down")
	repo := &mockSessionRepo{
		GetBySessionIDFunc: func(context.Context, string) (*models.AuditSession, error) {
			return nil, wantErr
		},
	}
	svc := service.NewAuditService(repo, &mockItemRepo{}, &recordingPublisher{}, "all_users")

	_, _, err := svc.Report(context.Background(), "sess-7")
	assert.ErrorIs(t, err, wantErr)
}
