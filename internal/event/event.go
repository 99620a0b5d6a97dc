// Package event defines the wire events exchanged over the broadcast
// channel as a typed union, plus a dispatch table so each handler can
// be exercised without a transport.
package event

import (
	"encoding/json"
	"fmt"

	"github.com/akozyrev/stocktake/internal/models"
)

// Kind names a broadcast event.
type Kind string

// Server-originated event kinds.
const (
	AuditStarted       Kind = "audit_started"
	AuditUpdated       Kind = "audit_updated"
	AuditCompleted     Kind = "audit_completed"
	ItemScanned        Kind = "item_scanned"
	DiscrepancyFound   Kind = "discrepancy_found"
	ThemeUpdated       Kind = "theme_updated"
	PreferencesUpdated Kind = "preferences_updated"
)

// JoinRoom is the single client-originated emission, sent once after
// connecting.
const JoinRoom Kind = "join_room"

// AuditStartedPayload announces a new audit session to all clients.
type AuditStartedPayload struct {
	SessionID          string `json:"session_id"`
	User               string `json:"user"`
	StartTime          string `json:"start_time"`
	ItemsScanned       int    `json:"items_scanned"`
	DiscrepanciesFound int    `json:"discrepancies_found"`
}

// AuditUpdatedPayload carries refreshed session counters.
type AuditUpdatedPayload struct {
	SessionID          string `json:"session_id"`
	ItemsScanned       int    `json:"items_scanned"`
	DiscrepanciesFound int    `json:"discrepancies_found"`
}

// AuditCompletedPayload announces the end of a session.
type AuditCompletedPayload struct {
	SessionID          string `json:"session_id"`
	User               string `json:"user"`
	EndTime            string `json:"end_time"`
	ItemsScanned       int    `json:"items_scanned"`
	DiscrepanciesFound int    `json:"discrepancies_found"`
}

// ItemScannedPayload reports a counted item so visible table rows can
// be patched in place.
type ItemScannedPayload struct {
	ItemID           int64  `json:"item_id"`
	ItemName         string `json:"item_name"`
	ActualQuantity   int    `json:"actual_quantity"`
	ExpectedQuantity int    `json:"expected_quantity"`
	Discrepancy      int    `json:"discrepancy"`
}

// DiscrepancyFoundPayload is a notification-only event; it is not
// reconciled against the counters in AuditUpdatedPayload.
type DiscrepancyFoundPayload struct {
	ItemName    string `json:"item_name"`
	Discrepancy int    `json:"discrepancy"`
	Expected    int    `json:"expected"`
	Actual      int    `json:"actual"`
}

// ThemeUpdatedPayload pushes a theme change. Clients apply it only
// when UserID matches their user or IsGlobal is set.
type ThemeUpdatedPayload struct {
	UserID      int64              `json:"user_id"`
	IsGlobal    bool               `json:"is_global"`
	ThemeConfig models.ThemeConfig `json:"theme_config"`
}

// PreferencesUpdatedPayload pushes a preference change, filtered the
// same way as ThemeUpdatedPayload.
type PreferencesUpdatedPayload struct {
	UserID   int64 `json:"user_id"`
	IsGlobal bool  `json:"is_global"`
	models.UserPreferences
}

// JoinRoomPayload is the client's room subscription request.
type JoinRoomPayload struct {
	Room string `json:"room"`
}

// Envelope is the wire framing: a kind plus its raw payload.
type Envelope struct {
	Event Kind            `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Marshal frames a payload into an envelope and encodes it.
func Marshal(kind Kind, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return json.Marshal(Envelope{Event: kind, Data: data})
}

// Unmarshal decodes an envelope from raw bytes.
func Unmarshal(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing event kind")
	}
	return env, nil
}

// Decode unmarshals the envelope payload into v. A missing payload
// leaves v untouched.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// Handlers maps each server event kind to a typed callback. Nil
// callbacks and unknown kinds are ignored by Dispatch, and payload
// fields absent from the wire data decode to zero values.
type Handlers struct {
	AuditStarted       func(AuditStartedPayload)
	AuditUpdated       func(AuditUpdatedPayload)
	AuditCompleted     func(AuditCompletedPayload)
	ItemScanned        func(ItemScannedPayload)
	DiscrepancyFound   func(DiscrepancyFoundPayload)
	ThemeUpdated       func(ThemeUpdatedPayload)
	PreferencesUpdated func(PreferencesUpdatedPayload)
}

// Dispatch decodes the envelope payload for its kind and invokes the
// matching handler. A payload that fails to decode is dropped rather
// than crashing the receive loop.
func (h Handlers) Dispatch(env Envelope) error {
	switch env.Event {
	case AuditStarted:
		return dispatch(env, h.AuditStarted)
	case AuditUpdated:
		return dispatch(env, h.AuditUpdated)
	case AuditCompleted:
		return dispatch(env, h.AuditCompleted)
	case ItemScanned:
		return dispatch(env, h.ItemScanned)
	case DiscrepancyFound:
		return dispatch(env, h.DiscrepancyFound)
	case ThemeUpdated:
		return dispatch(env, h.ThemeUpdated)
	case PreferencesUpdated:
		return dispatch(env, h.PreferencesUpdated)
	default:
		return nil
	}
}

func dispatch[T any](env Envelope, fn func(T)) error {
	if fn == nil {
		return nil
	}
	var payload T
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", env.Event, err)
		}
	}
	fn(payload)
	return nil
}
