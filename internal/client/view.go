// Package client implements the session controller driving the
// inventory UI: it maintains the realtime channel connection, applies
// server-pushed events to an in-memory view, and exposes the
// user-initiated actions.
package client

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/akozyrev/stocktake/internal/models"
)

// Badge classes for the discrepancy cell.
const (
	BadgeSuccess = "success"
	BadgeWarning = "warning"
	BadgeDanger  = "danger"
)

// Icons paired with the badge classes.
const (
	IconCheck = "check"
	IconUp    = "arrow-up"
	IconDown  = "arrow-down"
)

// Banner is the active-audit banner shown on every page while an
// audit is running.
type Banner struct {
	Visible            bool
	User               string
	StartTime          string
	ItemsScanned       int
	DiscrepanciesFound int
	ItemsPulse         bool
	DiscrepanciesPulse bool
}

// Row is the display cache for one visible inventory table row. The
// server owns the authoritative item record.
type Row struct {
	ItemID           int64
	Name             string
	SKU              string
	ExpectedQuantity int
	ActualQuantity   int
	BadgeClass       string
	BadgeIcon        string
	Discrepancy      string
	Highlighted      bool
}

// Style is the applied preference and theme state.
type Style struct {
	FontSize     string
	HighContrast bool
	DarkMode     bool
	FontFamily   string
	Vars         map[string]string
}

// View is the in-memory model the controller renders into. All
// mutation goes through its methods; reads return copies.
type View struct {
	mu     sync.Mutex
	banner Banner
	rows   []Row
	style  Style
}

func NewView() *View {
	return &View{style: Style{Vars: map[string]string{}}}
}

// Banner returns a snapshot of the banner state.
func (v *View) Banner() Banner {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.banner
}

// Rows returns a snapshot of the rendered rows.
func (v *View) Rows() []Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Row, len(v.rows))
	copy(out, v.rows)
	return out
}

// Style returns a snapshot of the applied style.
func (v *View) Style() Style {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.style
	s.Vars = make(map[string]string, len(v.style.Vars))
	for k, val := range v.style.Vars {
		s.Vars[k] = val
	}
	return s
}

// SetRows replaces the rendered table with the given items.
func (v *View) SetRows(items []models.InventoryItem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = make([]Row, 0, len(items))
	for _, it := range items {
		row := Row{
			ItemID:           it.ID,
			Name:             it.Name,
			SKU:              it.SKU,
			ExpectedQuantity: it.ExpectedQuantity,
			ActualQuantity:   it.ActualQuantity,
		}
		row.BadgeClass, row.BadgeIcon = badgeFor(it.Discrepancy())
		row.Discrepancy = formatDiscrepancy(it.Discrepancy())
		v.rows = append(v.rows, row)
	}
}

// ShowBanner makes the banner visible with the given session data.
func (v *View) ShowBanner(user, startTime string, itemsScanned, discrepancies int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.banner = Banner{
		Visible:            true,
		User:               user,
		StartTime:          startTime,
		ItemsScanned:       itemsScanned,
		DiscrepanciesFound: discrepancies,
	}
}

// UpdateBannerCounters overwrites only the two counters.
func (v *View) UpdateBannerCounters(itemsScanned, discrepancies int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.banner.ItemsScanned = itemsScanned
	v.banner.DiscrepanciesFound = discrepancies
}

// HideBanner hides the banner and clears its content.
func (v *View) HideBanner() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.banner = Banner{}
}

func (v *View) setItemsPulse(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.banner.ItemsPulse = on
}

func (v *View) setDiscrepanciesPulse(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.banner.DiscrepanciesPulse = on
}

// PatchRow rewrites the quantity and discrepancy badges of the first
// row matching the item id. Rows not currently rendered are skipped.
// It reports whether a row was patched.
func (v *View) PatchRow(itemID int64, actualQuantity, expectedQuantity int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.rows {
		if v.rows[i].ItemID != itemID {
			continue
		}
		diff := actualQuantity - expectedQuantity
		v.rows[i].ActualQuantity = actualQuantity
		v.rows[i].ExpectedQuantity = expectedQuantity
		v.rows[i].BadgeClass, v.rows[i].BadgeIcon = badgeFor(diff)
		v.rows[i].Discrepancy = formatDiscrepancy(diff)
		return true
	}
	return false
}

func (v *View) setRowHighlight(itemID int64, on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.rows {
		if v.rows[i].ItemID == itemID {
			v.rows[i].Highlighted = on
			return
		}
	}
}

// badgeFor maps a signed discrepancy to its badge class and icon.
func badgeFor(diff int) (class, icon string) {
	switch {
	case diff > 0:
		return BadgeWarning, IconUp
	case diff < 0:
		return BadgeDanger, IconDown
	default:
		return BadgeSuccess, IconCheck
	}
}

// formatDiscrepancy renders the signed discrepancy value.
func formatDiscrepancy(diff int) string {
	if diff > 0 {
		return fmt.Sprintf("+%d", diff)
	}
	return strconv.Itoa(diff)
}

// Pixel sizes for the font-size preference keywords. Unrecognized
// keywords fall back to the medium size.
var fontSizes = map[string]string{
	"small":   "14px",
	"medium":  "16px",
	"large":   "18px",
	"x-large": "20px",
}

const defaultFontSize = "16px"

// ApplyPreferences applies a preference object to the style. Applying
// the same object twice yields the same style.
func (v *View) ApplyPreferences(prefs models.UserPreferences) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if prefs.FontSize != "" {
		size, ok := fontSizes[prefs.FontSize]
		if !ok {
			size = defaultFontSize
		}
		v.style.FontSize = size
	}
	v.style.HighContrast = prefs.HighContrast
	v.style.DarkMode = prefs.DarkMode
}

// ApplyTheme overlays the present fields of a theme config onto the
// style. Absent fields keep their current values.
func (v *View) ApplyTheme(config models.ThemeConfig) {
	v.mu.Lock()
	defer v.mu.Unlock()

	vars := map[string]string{
		"primary":    config.PrimaryColor,
		"secondary":  config.SecondaryColor,
		"success":    config.SuccessColor,
		"danger":     config.DangerColor,
		"warning":    config.WarningColor,
		"info":       config.InfoColor,
		"body-bg":    config.BackgroundColor,
		"body-color": config.TextColor,
	}
	for name, val := range vars {
		if val != "" {
			v.style.Vars[name] = val
		}
	}
	if config.FontFamily != "" {
		v.style.FontFamily = config.FontFamily
	}
	if config.BaseFontSize != "" {
		v.style.FontSize = config.BaseFontSize
	}
}
