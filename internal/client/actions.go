package client

import (
	"context"
	"fmt"
	"io"

	"github.com/akozyrev/stocktake/internal/models"
)

// User-initiated actions. Each is one round trip: success raises a
// success notification, failure raises a danger notification and
// returns the error to the caller. Nothing here retries.

// StartAudit begins a new audit session and returns its id.
func (c *Controller) StartAudit(ctx context.Context) (string, error) {
	sessionID, err := c.api.StartAudit(ctx)
	if err != nil {
		c.Notifier.Notify(fmt.Sprintf("Error: %v", err), LevelDanger)
		return "", err
	}
	c.Notifier.Notify("Audit session started successfully!", LevelSuccess)
	return sessionID, nil
}

// EndAudit completes the given session.
func (c *Controller) EndAudit(ctx context.Context, sessionID, notes string) error {
	if err := c.api.EndAudit(ctx, sessionID, notes); err != nil {
		c.Notifier.Notify(fmt.Sprintf("Error: %v", err), LevelDanger)
		return err
	}
	c.Notifier.Notify("Audit session completed!", LevelSuccess)
	return nil
}

// ScanItem records a counted quantity against a barcode.
func (c *Controller) ScanItem(ctx context.Context, sessionID, barcode string, actualQuantity int) (*ScanOutcome, error) {
	outcome, err := c.api.Scan(ctx, sessionID, barcode, actualQuantity)
	if err != nil {
		c.Notifier.Notify(fmt.Sprintf("Scan error: %v", err), LevelDanger)
		return nil, err
	}
	return outcome, nil
}

// LookupProduct resolves a barcode or SKU to its product record.
func (c *Controller) LookupProduct(ctx context.Context, query string) (*models.InventoryItem, error) {
	item, err := c.api.Search(ctx, query)
	if err != nil {
		c.Notifier.Notify(fmt.Sprintf("Error: %v", err), LevelDanger)
		return nil, err
	}
	return item, nil
}

// ToggleDarkMode flips the stored dark-mode preference. The resulting
// view change arrives via the preferences push.
func (c *Controller) ToggleDarkMode(ctx context.Context) error {
	prefs, err := c.api.Preferences(ctx)
	if err != nil {
		c.Notifier.Notify(fmt.Sprintf("Error: %v", err), LevelDanger)
		return err
	}
	if prefs == nil {
		prefs = &models.UserPreferences{}
	}
	next := !prefs.DarkMode
	return c.UpdatePreferences(ctx, models.PreferencesUpdate{DarkMode: &next})
}

// UpdatePreferences applies a partial preference change.
func (c *Controller) UpdatePreferences(ctx context.Context, upd models.PreferencesUpdate) error {
	if _, err := c.api.UpdatePreferences(ctx, upd); err != nil {
		c.Notifier.Notify(fmt.Sprintf("Failed to update preferences: %v", err), LevelDanger)
		return err
	}
	c.Notifier.Notify("Preferences updated", LevelSuccess)
	return nil
}

// DownloadReport fetches the session report into w and returns the
// suggested filename.
func (c *Controller) DownloadReport(ctx context.Context, sessionID, format string, w io.Writer) (string, error) {
	name, err := c.api.Export(ctx, sessionID, format, w)
	if err != nil {
		c.Notifier.Notify(fmt.Sprintf("Error: %v", err), LevelDanger)
		return "", err
	}
	return name, nil
}
