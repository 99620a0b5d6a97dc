package client

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akozyrev/stocktake/internal/models"
)

func TestStartAudit(t *testing.T) {
	c, _ := newTestController(t, &fakeBackend{})

	id, err := c.StartAudit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s-9", id)

	notes := c.Notifier.Active()
	require.Len(t, notes, 1)
	assert.Equal(t, LevelSuccess, notes[0].Level)
}

func TestStartAuditFailurePropagates(t *testing.T) {
	failure := errors.New("you already have an active audit session")
	c, _ := newTestController(t, &fakeBackend{err: failure})

	_, err := c.StartAudit(context.Background())
	require.ErrorIs(t, err, failure)

	notes := c.Notifier.Active()
	require.Len(t, notes, 1)
	assert.Equal(t, LevelDanger, notes[0].Level)
	assert.Contains(t, notes[0].Message, "already have an active audit session")
}

func TestEndAudit(t *testing.T) {
	c, _ := newTestController(t, &fakeBackend{})
	require.NoError(t, c.EndAudit(context.Background(), "s-9", "done"))
	notes := c.Notifier.Active()
	require.Len(t, notes, 1)
	assert.Equal(t, "Audit session completed!", notes[0].Message)
}

func TestScanItemFailure(t *testing.T) {
	c, _ := newTestController(t, &fakeBackend{err: errors.New("item not found")})

	_, err := c.ScanItem(context.Background(), "s-9", "000", 3)
	require.Error(t, err)

	notes := c.Notifier.Active()
	require.Len(t, notes, 1)
	assert.Equal(t, LevelDanger, notes[0].Level)
	assert.Contains(t, notes[0].Message, "Scan error")
}

func TestToggleDarkMode(t *testing.T) {
	backend := &fakeBackend{prefs: &models.UserPreferences{DarkMode: false}}
	c, _ := newTestController(t, backend)

	require.NoError(t, c.ToggleDarkMode(context.Background()))

	require.Len(t, backend.updates, 1)
	require.NotNil(t, backend.updates[0].DarkMode)
	assert.True(t, *backend.updates[0].DarkMode)
	// Only dark_mode travels in the partial update.
	assert.Nil(t, backend.updates[0].FontSize)
	assert.Nil(t, backend.updates[0].ThemeID)
}

func TestUpdatePreferencesFailure(t *testing.T) {
	c, _ := newTestController(t, &fakeBackend{err: errors.New("boom")})

	size := "large"
	err := c.UpdatePreferences(context.Background(), models.PreferencesUpdate{FontSize: &size})
	require.Error(t, err)

	notes := c.Notifier.Active()
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "Failed to update preferences")
}

func TestDownloadReport(t *testing.T) {
	c, _ := newTestController(t, &fakeBackend{})

	var buf bytes.Buffer
	name, err := c.DownloadReport(context.Background(), "s-9", "pdf", &buf)
	require.NoError(t, err)
	assert.Equal(t, "audit_report_s-9.pdf", name)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
