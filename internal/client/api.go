package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/akozyrev/stocktake/internal/models"
)

// API is the JSON client for the inventory server. Every call is one
// round trip; non-2xx responses become errors carrying the server
// message.
type API struct {
	base  string
	token string
	http  *http.Client
}

func NewAPI(base string) *API {
	return &API{base: base, http: &http.Client{}}
}

// SetToken sets the bearer token used on subsequent calls.
func (a *API) SetToken(token string) {
	a.token = token
}

// Token returns the current bearer token.
func (a *API) Token() string {
	return a.token
}

// apiError is the {success:false, message} failure shape.
type apiError struct {
	Message string `json:"message"`
}

func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	res, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var fail apiError
		if err := json.NewDecoder(res.Body).Decode(&fail); err == nil && fail.Message != "" {
			return fmt.Errorf("%s %s: %s", method, path, fail.Message)
		}
		return fmt.Errorf("%s %s: status %d", method, path, res.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Login authenticates and stores the returned bearer token for
// subsequent calls.
func (a *API) Login(ctx context.Context, username, password string) (*models.User, error) {
	var res struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	in := map[string]string{"username": username, "password": password}
	if err := a.do(ctx, http.MethodPost, "/api/login", in, &res); err != nil {
		return nil, err
	}
	a.token = res.Token
	return res.User, nil
}

// Logout invalidates the stored token.
func (a *API) Logout(ctx context.Context) error {
	if err := a.do(ctx, http.MethodPost, "/api/logout", nil, nil); err != nil {
		return err
	}
	a.token = ""
	return nil
}

// ActiveSession returns the currently active audit session or nil.
func (a *API) ActiveSession(ctx context.Context) (*models.AuditSession, error) {
	var res struct {
		Session *models.AuditSession `json:"session"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/active_session", nil, &res); err != nil {
		return nil, err
	}
	return res.Session, nil
}

// StartAudit begins a new audit session and returns its public id.
func (a *API) StartAudit(ctx context.Context) (string, error) {
	var res struct {
		SessionID string `json:"session_id"`
	}
	if err := a.do(ctx, http.MethodPost, "/start_audit", nil, &res); err != nil {
		return "", err
	}
	return res.SessionID, nil
}

// EndAudit completes the given session.
func (a *API) EndAudit(ctx context.Context, sessionID, notes string) error {
	in := map[string]string{"notes": notes}
	return a.do(ctx, http.MethodPost, "/api/session/"+sessionID+"/end", in, nil)
}

// ScanOutcome is the server's answer to one recorded count.
type ScanOutcome struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ExpectedQuantity int    `json:"expected_quantity"`
	ActualQuantity   int    `json:"actual_quantity"`
	Discrepancy      int    `json:"discrepancy"`
}

// Scan records a counted quantity against a barcode.
func (a *API) Scan(ctx context.Context, sessionID, barcode string, actualQuantity int) (*ScanOutcome, error) {
	in := map[string]any{
		"session_id":      sessionID,
		"barcode":         barcode,
		"actual_quantity": actualQuantity,
	}
	var res struct {
		Item *ScanOutcome `json:"item"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/scan", in, &res); err != nil {
		return nil, err
	}
	return res.Item, nil
}

// Search looks a product up by barcode or SKU.
func (a *API) Search(ctx context.Context, query string) (*models.InventoryItem, error) {
	var res struct {
		Product *models.InventoryItem `json:"product"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/search?query="+query, nil, &res); err != nil {
		return nil, err
	}
	return res.Product, nil
}

// Items returns the full inventory list.
func (a *API) Items(ctx context.Context) ([]models.InventoryItem, error) {
	var res struct {
		Items []models.InventoryItem `json:"items"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/items", nil, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Preferences returns the caller's display preferences.
func (a *API) Preferences(ctx context.Context) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	if err := a.do(ctx, http.MethodGet, "/api/user/preferences", nil, &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

// UpdatePreferences applies a partial preference change.
func (a *API) UpdatePreferences(ctx context.Context, upd models.PreferencesUpdate) (*models.UserPreferences, error) {
	var res struct {
		Preferences *models.UserPreferences `json:"preferences"`
	}
	if err := a.do(ctx, http.MethodPut, "/api/user/preferences", upd, &res); err != nil {
		return nil, err
	}
	return res.Preferences, nil
}

// Themes returns the theme catalog.
func (a *API) Themes(ctx context.Context) ([]models.Theme, error) {
	var themes []models.Theme
	if err := a.do(ctx, http.MethodGet, "/api/themes", nil, &themes); err != nil {
		return nil, err
	}
	return themes, nil
}

// Export downloads the session report into w and returns the
// suggested filename from the response headers.
func (a *API) Export(ctx context.Context, sessionID, format string, w io.Writer) (string, error) {
	path := "/api/session/" + sessionID + "/export?format=" + format
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+path, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	res, err := a.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var fail apiError
		if err := json.NewDecoder(res.Body).Decode(&fail); err == nil && fail.Message != "" {
			return "", fmt.Errorf("GET %s: %s", path, fail.Message)
		}
		return "", fmt.Errorf("GET %s: status %d", path, res.StatusCode)
	}

	if _, err := io.Copy(w, res.Body); err != nil {
		return "", fmt.Errorf("download report: %w", err)
	}

	name := fmt.Sprintf("audit_report_%s.%s", sessionID, format)
	return name, nil
}
