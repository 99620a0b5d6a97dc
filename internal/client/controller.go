package client

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/akozyrev/stocktake/internal/event"
	"github.com/akozyrev/stocktake/internal/models"
)

// Backend is the server API as the controller needs it. *API is the
// production implementation.
type Backend interface {
	ActiveSession(ctx context.Context) (*models.AuditSession, error)
	StartAudit(ctx context.Context) (string, error)
	EndAudit(ctx context.Context, sessionID, notes string) error
	Scan(ctx context.Context, sessionID, barcode string, actualQuantity int) (*ScanOutcome, error)
	Search(ctx context.Context, query string) (*models.InventoryItem, error)
	Items(ctx context.Context) ([]models.InventoryItem, error)
	Preferences(ctx context.Context) (*models.UserPreferences, error)
	UpdatePreferences(ctx context.Context, upd models.PreferencesUpdate) (*models.UserPreferences, error)
	Themes(ctx context.Context) ([]models.Theme, error)
	Export(ctx context.Context, sessionID, format string, w io.Writer) (string, error)
}

// Controller owns the realtime connection and the view state for one
// signed-in user. Construct with NewController, then Init; Close
// releases the connection.
type Controller struct {
	log       *zap.Logger
	api       Backend
	transport Transport
	user      *models.User
	room      string

	View     *View
	Notifier *Notifier
	effects  *effects

	mu        sync.Mutex
	sessionID string
	lastTheme models.ThemeConfig
	closed    bool
}

func NewController(api Backend, transport Transport, user *models.User, room string, log *zap.Logger) *Controller {
	return &Controller{
		log:       log,
		api:       api,
		transport: transport,
		user:      user,
		room:      room,
		View:      NewView(),
		Notifier:  NewNotifier(),
		effects:   newEffects(),
	}
}

// Init connects the realtime channel, joins the broadcast room, and
// resolves the initial view state: any already-active audit session
// and the user's stored preferences.
func (c *Controller) Init(ctx context.Context) error {
	if err := c.connect(ctx); err != nil {
		return err
	}

	// An audit may have started before this client connected.
	sess, err := c.api.ActiveSession(ctx)
	if err != nil {
		c.log.Warn("active session check failed", zap.Error(err))
	} else if sess != nil {
		c.setSession(sess.SessionID)
		c.View.ShowBanner(sess.User, sess.StartTime.Format(timeDisplay),
			sess.ItemsScanned, sess.DiscrepanciesFound)
	}

	prefs, err := c.api.Preferences(ctx)
	if err != nil {
		c.log.Warn("preferences load failed", zap.Error(err))
	} else if prefs != nil {
		c.applyPreferences(ctx, *prefs)
	}

	return nil
}

const timeDisplay = "2006-01-02 15:04"

// Close shuts the realtime connection down. Best-effort: the peer is
// not guaranteed to observe the close.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	if err := c.transport.Close(); err != nil {
		c.log.Debug("transport close", zap.Error(err))
	}
}

// PageVisible signals that the page regained visibility. If the
// channel dropped while hidden, reconnect now. No backoff and no
// retry cap: reconnection is opportunistic only.
func (c *Controller) PageVisible(ctx context.Context) {
	if c.transport.Connected() {
		return
	}
	if err := c.connect(ctx); err != nil {
		c.log.Warn("reconnect failed", zap.Error(err))
	}
}

func (c *Controller) connect(ctx context.Context) error {
	if err := c.transport.Connect(ctx); err != nil {
		return fmt.Errorf("connect channel: %w", err)
	}

	join, err := event.Marshal(event.JoinRoom, event.JoinRoomPayload{Room: c.room})
	if err != nil {
		return err
	}
	if err := c.transport.Send(join); err != nil {
		return fmt.Errorf("join room: %w", err)
	}

	go c.readLoop(ctx)
	return nil
}

// readLoop pumps incoming frames through the dispatch table until the
// connection drops. It takes no corrective action on error; recovery
// waits for the next PageVisible signal.
func (c *Controller) readLoop(ctx context.Context) {
	handlers := c.handlers(ctx)
	for {
		raw, err := c.transport.Receive()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.log.Info("channel disconnected", zap.Error(err))
			}
			return
		}

		env, err := event.Unmarshal(raw)
		if err != nil {
			c.log.Warn("bad frame", zap.Error(err))
			continue
		}
		if err := handlers.Dispatch(env); err != nil {
			c.log.Warn("bad payload", zap.String("event", string(env.Event)), zap.Error(err))
		}
	}
}

// handlers is the dispatch table routing each event kind to its view
// mutation.
func (c *Controller) handlers(ctx context.Context) event.Handlers {
	return event.Handlers{
		AuditStarted:       func(p event.AuditStartedPayload) { c.onAuditStarted(p) },
		AuditUpdated:       func(p event.AuditUpdatedPayload) { c.onAuditUpdated(p) },
		AuditCompleted:     func(p event.AuditCompletedPayload) { c.onAuditCompleted(p) },
		ItemScanned:        func(p event.ItemScannedPayload) { c.onItemScanned(p) },
		DiscrepancyFound:   func(p event.DiscrepancyFoundPayload) { c.onDiscrepancyFound(p) },
		ThemeUpdated:       func(p event.ThemeUpdatedPayload) { c.onThemeUpdated(p) },
		PreferencesUpdated: func(p event.PreferencesUpdatedPayload) { c.onPreferencesUpdated(ctx, p) },
	}
}

func (c *Controller) setSession(id string) {
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
}

func (c *Controller) currentSession() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Controller) onAuditStarted(p event.AuditStartedPayload) {
	c.setSession(p.SessionID)
	c.View.ShowBanner(p.User, p.StartTime, p.ItemsScanned, p.DiscrepanciesFound)
	c.Notifier.Notify(fmt.Sprintf("%s started an inventory check", p.User), LevelInfo)
}

func (c *Controller) onAuditUpdated(p event.AuditUpdatedPayload) {
	// No-op while the banner is hidden.
	if c.currentSession() == "" {
		return
	}
	c.View.UpdateBannerCounters(p.ItemsScanned, p.DiscrepanciesFound)
	c.effects.start("banner.items", pulseDuration, c.View.setItemsPulse)
	c.effects.start("banner.discrepancies", pulseDuration, c.View.setDiscrepanciesPulse)
}

func (c *Controller) onAuditCompleted(p event.AuditCompletedPayload) {
	c.setSession("")
	c.View.HideBanner()
	c.Notifier.Notify(fmt.Sprintf("Inventory check completed by %s", p.User), LevelSuccess)
}

func (c *Controller) onItemScanned(p event.ItemScannedPayload) {
	c.View.PatchRow(p.ItemID, p.ActualQuantity, p.ExpectedQuantity)
	c.effects.start(fmt.Sprintf("row.%d", p.ItemID), highlightDuration, func(on bool) {
		c.View.setRowHighlight(p.ItemID, on)
	})
	c.Notifier.Notify(fmt.Sprintf("Item scanned: %s", p.ItemName), LevelInfo)
}

func (c *Controller) onDiscrepancyFound(p event.DiscrepancyFoundPayload) {
	c.Notifier.Notify(
		fmt.Sprintf("Discrepancy found: %s (%s)", p.ItemName, formatDiscrepancy(p.Discrepancy)),
		LevelWarning)
}

// forMe reports whether a preference push targets this client's user.
func (c *Controller) forMe(userID int64, global bool) bool {
	return global || userID == c.user.ID
}

func (c *Controller) onThemeUpdated(p event.ThemeUpdatedPayload) {
	if !c.forMe(p.UserID, p.IsGlobal) {
		return
	}
	c.applyTheme(p.ThemeConfig)
	c.Notifier.Notify("Theme updated", LevelInfo)
}

func (c *Controller) onPreferencesUpdated(ctx context.Context, p event.PreferencesUpdatedPayload) {
	if !c.forMe(p.UserID, p.IsGlobal) {
		return
	}
	c.applyPreferences(ctx, p.UserPreferences)
}

func (c *Controller) applyPreferences(ctx context.Context, prefs models.UserPreferences) {
	c.View.ApplyPreferences(prefs)
	if prefs.ThemeID == nil {
		return
	}

	// The catalog has no by-id endpoint; fetch it and scan.
	themes, err := c.api.Themes(ctx)
	if err != nil {
		c.log.Warn("theme load failed", zap.Error(err))
		return
	}
	for _, theme := range themes {
		if theme.ID == *prefs.ThemeID {
			if !theme.Config.IsZero() {
				c.applyTheme(theme.Config)
			}
			return
		}
	}
}

func (c *Controller) applyTheme(config models.ThemeConfig) {
	if config.IsZero() {
		return
	}
	c.View.ApplyTheme(config)
	c.mu.Lock()
	c.lastTheme = config
	c.mu.Unlock()
}

// LastTheme returns the most recently applied theme config.
func (c *Controller) LastTheme() models.ThemeConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTheme
}

// LoadInventory fills the view's table from the server.
func (c *Controller) LoadInventory(ctx context.Context) error {
	items, err := c.api.Items(ctx)
	if err != nil {
		return err
	}
	c.View.SetRows(items)
	return nil
}
