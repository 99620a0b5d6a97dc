// Package models defines the core data structures for users, inventory
// items, audit sessions, and display preferences.
package models

import "time"

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID int64 `json:"id"`
	// Username is the login name chosen by the user.
	Username string `json:"username"`
	// Email is the user's contact address.
	Email string `json:"email"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte `json:"-"`
	// Role controls access to item management ("admin", "manager", "user").
	Role string `json:"role"`
	// CreatedAt is when the account was created.
	CreatedAt time.Time `json:"created_at"`
}

// Roles recognised by the permission checks.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// InventoryItem is a single tracked product. The server owns the
// authoritative copy; clients only hold display caches per table row.
type InventoryItem struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	SKU              string    `json:"sku"`
	Barcode          string    `json:"barcode"`
	Category         string    `json:"category"`
	Location         string    `json:"location"`
	ExpectedQuantity int       `json:"expected_quantity"`
	ActualQuantity   int       `json:"actual_quantity"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Discrepancy returns the signed difference between counted and
// expected quantity.
func (i InventoryItem) Discrepancy() int {
	return i.ActualQuantity - i.ExpectedQuantity
}

// Audit session statuses.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

// AuditSession is a bounded period during which a user performs a
// physical inventory count. SessionID is the public UUID used in URLs
// and push events; ID is the internal database key.
type AuditSession struct {
	ID                 int64      `json:"-"`
	SessionID          string     `json:"session_id"`
	UserID             int64      `json:"-"`
	User               string     `json:"user"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            *time.Time `json:"end_time,omitempty"`
	Status             string     `json:"status"`
	ItemsScanned       int        `json:"items_scanned"`
	DiscrepanciesFound int        `json:"discrepancies_found"`
	Notes              string     `json:"notes,omitempty"`
}

// AuditLog records one action taken during an audit session.
type AuditLog struct {
	ID          int64     `json:"id"`
	SessionID   int64     `json:"-"`
	UserID      int64     `json:"-"`
	ItemID      int64     `json:"item_id"`
	ItemName    string    `json:"item_name"`
	ItemSKU     string    `json:"item_sku"`
	Action      string    `json:"action"`
	OldQuantity int       `json:"old_quantity"`
	NewQuantity int       `json:"new_quantity"`
	Discrepancy int       `json:"discrepancy"`
	Timestamp   time.Time `json:"timestamp"`
	Notes       string    `json:"notes,omitempty"`
}

// UserPreferences holds per-user display settings. One row per user;
// absent rows mean defaults.
type UserPreferences struct {
	UserID       int64  `json:"-"`
	FontSize     string `json:"font_size"`
	HighContrast bool   `json:"high_contrast"`
	DarkMode     bool   `json:"dark_mode"`
	ThemeID      *int64 `json:"theme_id,omitempty"`
}

// PreferencesUpdate is a partial preference change. Nil fields are
// left untouched by the merge.
type PreferencesUpdate struct {
	FontSize     *string `json:"font_size,omitempty"`
	HighContrast *bool   `json:"high_contrast,omitempty"`
	DarkMode     *bool   `json:"dark_mode,omitempty"`
	ThemeID      *int64  `json:"theme_id,omitempty"`
}

// ThemeConfig is a set of color/typography overrides. Empty fields are
// not applied, so a config can override a single property.
type ThemeConfig struct {
	PrimaryColor    string `json:"primaryColor,omitempty"`
	SecondaryColor  string `json:"secondaryColor,omitempty"`
	SuccessColor    string `json:"successColor,omitempty"`
	DangerColor     string `json:"dangerColor,omitempty"`
	WarningColor    string `json:"warningColor,omitempty"`
	InfoColor       string `json:"infoColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	FontFamily      string `json:"fontFamily,omitempty"`
	BaseFontSize    string `json:"baseFontSize,omitempty"`
}

// IsZero reports whether no field of the config is set.
func (c ThemeConfig) IsZero() bool {
	return c == ThemeConfig{}
}

// Theme is a named theme resolved from the catalog by id.
type Theme struct {
	ID     int64       `json:"id"`
	Name   string      `json:"name"`
	Config ThemeConfig `json:"config"`
}
