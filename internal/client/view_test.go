package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akozyrev/stocktake/internal/models"
)

func TestBadgeFor(t *testing.T) {
	tests := []struct {
		name          string
		diff          int
		expectedClass string
		expectedIcon  string
	}{
		{"exact count", 0, BadgeSuccess, IconCheck},
		{"surplus", 2, BadgeWarning, IconUp},
		{"shortage", -2, BadgeDanger, IconDown},
		{"surplus of one", 1, BadgeWarning, IconUp},
		{"shortage of one", -1, BadgeDanger, IconDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, icon := badgeFor(tt.diff)
			assert.Equal(t, tt.expectedClass, class)
			assert.Equal(t, tt.expectedIcon, icon)
		})
	}
}

func TestFormatDiscrepancy(t *testing.T) {
	assert.Equal(t, "+2", formatDiscrepancy(2))
	assert.Equal(t, "-2", formatDiscrepancy(-2))
	assert.Equal(t, "0", formatDiscrepancy(0))
}

func testItems() []models.InventoryItem {
	return []models.InventoryItem{
		{ID: 41, Name: "Desk Chair", SKU: "SKU002", ExpectedQuantity: 3, ActualQuantity: 3},
		{ID: 42, Name: "Widget", SKU: "SKU003", ExpectedQuantity: 4, ActualQuantity: 4},
	}
}

func TestViewPatchRow(t *testing.T) {
	v := NewView()
	v.SetRows(testItems())

	patched := v.PatchRow(42, 5, 4)
	assert.True(t, patched)

	rows := v.Rows()
	assert.Equal(t, 5, rows[1].ActualQuantity)
	assert.Equal(t, "+1", rows[1].Discrepancy)
	assert.Equal(t, BadgeWarning, rows[1].BadgeClass)
	assert.Equal(t, IconUp, rows[1].BadgeIcon)

	// Untouched row keeps its state.
	assert.Equal(t, 3, rows[0].ActualQuantity)
	assert.Equal(t, BadgeSuccess, rows[0].BadgeClass)
}

func TestViewPatchRowAbsent(t *testing.T) {
	v := NewView()
	v.SetRows(testItems())

	assert.False(t, v.PatchRow(99, 5, 4))
	assert.Equal(t, 3, v.Rows()[0].ActualQuantity)
}

func TestViewApplyPreferencesIdempotent(t *testing.T) {
	v := NewView()
	prefs := models.UserPreferences{FontSize: "large", HighContrast: true, DarkMode: true}

	v.ApplyPreferences(prefs)
	first := v.Style()
	v.ApplyPreferences(prefs)

	assert.Equal(t, first, v.Style())
	assert.Equal(t, "18px", first.FontSize)
	assert.True(t, first.HighContrast)
	assert.True(t, first.DarkMode)
}

func TestViewApplyPreferencesUnknownFontSize(t *testing.T) {
	v := NewView()
	v.ApplyPreferences(models.UserPreferences{FontSize: "gigantic"})
	assert.Equal(t, "16px", v.Style().FontSize)
}

func TestViewApplyPreferencesClearsToggles(t *testing.T) {
	v := NewView()
	v.ApplyPreferences(models.UserPreferences{FontSize: "small", HighContrast: true, DarkMode: true})
	v.ApplyPreferences(models.UserPreferences{FontSize: "small"})

	style := v.Style()
	assert.False(t, style.HighContrast)
	assert.False(t, style.DarkMode)
}

func TestViewApplyThemePartial(t *testing.T) {
	v := NewView()
	v.ApplyTheme(models.ThemeConfig{
		PrimaryColor:    "#0077be",
		BackgroundColor: "#f0f8ff",
		FontFamily:      "Georgia, serif",
	})

	// A later partial config only overwrites what it carries.
	v.ApplyTheme(models.ThemeConfig{PrimaryColor: "#111111"})

	style := v.Style()
	assert.Equal(t, "#111111", style.Vars["primary"])
	assert.Equal(t, "#f0f8ff", style.Vars["body-bg"])
	assert.Equal(t, "Georgia, serif", style.FontFamily)
}

func TestViewApplyThemeBaseFontSize(t *testing.T) {
	v := NewView()
	v.ApplyPreferences(models.UserPreferences{FontSize: "medium"})
	v.ApplyTheme(models.ThemeConfig{BaseFontSize: "17px"})
	assert.Equal(t, "17px", v.Style().FontSize)
}
