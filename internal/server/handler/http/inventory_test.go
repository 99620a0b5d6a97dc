package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/akozyrev/stocktake/internal/middleware"
	"github.com/akozyrev/stocktake/internal/models"
	"github.com/akozyrev/stocktake/internal/service"
)

// fakeInventoryService implements InventoryService for testing.
type fakeInventoryService struct {
	item      *models.InventoryItem
	items     []models.InventoryItem
	err       error
	lastQuery string
	lastItem  models.InventoryItem
	deletedID int64
}

func (f *fakeInventoryService) Search(ctx context.Context, query string) (*models.InventoryItem, error) {
	f.lastQuery = query
	return f.item, f.err
}

func (f *fakeInventoryService) Get(ctx context.Context, id int64) (*models.InventoryItem, error) {
	return f.item, f.err
}

func (f *fakeInventoryService) List(ctx context.Context) ([]models.InventoryItem, error) {
	return f.items, f.err
}

func (f *fakeInventoryService) Add(ctx context.Context, user *models.User, item models.InventoryItem) (*models.InventoryItem, error) {
	f.lastItem = item
	return f.item, f.err
}

func (f *fakeInventoryService) Update(ctx context.Context, user *models.User, item models.InventoryItem) (*models.InventoryItem, error) {
	f.lastItem = item
	return f.item, f.err
}

func (f *fakeInventoryService) Delete(ctx context.Context, user *models.User, id int64) error {
	f.deletedID = id
	return f.err
}

var testAdmin = &models.User{ID: 1, Username: "admin", Role: models.RoleAdmin}

// authedRequest builds a request with a user already in the context,
// as TokenAuth would leave it.
func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	return req.WithContext(middleware.WithUser(req.Context(), testAdmin))
}

// withURLParam attaches a chi route parameter to the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestInventoryHandler_Search(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		service        *fakeInventoryService
		expectedCode   int
		expectedSubstr string
	}{
		{
			name:           "missing query",
			query:          "",
			service:        &fakeInventoryService{err: service.ErrQueryRequired},
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "query is required",
		},
		{
			name:           "not found",
			query:          "000000",
			service:        &fakeInventoryService{err: service.ErrNotFound},
			expectedCode:   http.StatusNotFound,
			expectedSubstr: "not found",
		},
		{
			name:  "found by barcode",
			query: "123456789012",
			service: &fakeInventoryService{
				item: &models.InventoryItem{ID: 1, Name: "Laptop Computer", SKU: "SKU001", Barcode: "123456789012"},
			},
			expectedCode:   http.StatusOK,
			expectedSubstr: `"product":{"id":1,"name":"Laptop Computer"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := authedRequest("GET", "/api/search?query="+tt.query, "")
			h := &InventoryHandler{InventoryService: tt.service}
			h.Search(rec, req)
			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, res.StatusCode)
			}

			buf := new(bytes.Buffer)
			if _, err := buf.ReadFrom(res.Body); err != nil {
				t.Fatalf("failed to read body: %v", err)
			}
			if !bytes.Contains(buf.Bytes(), []byte(tt.expectedSubstr)) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedSubstr, buf.String())
			}
		})
	}
}

func TestInventoryHandler_Add(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		service      *fakeInventoryService
		expectedCode int
	}{
		{
			name:         "missing name",
			body:         `{"sku":"SKU001"}`,
			service:      &fakeInventoryService{},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "duplicate SKU",
			body:         `{"name":"Laptop","sku":"SKU001"}`,
			service:      &fakeInventoryService{err: service.ErrSKUExists},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "permission denied",
			body:         `{"name":"Laptop","sku":"SKU001"}`,
			service:      &fakeInventoryService{err: service.ErrPermission},
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "success",
			body:         `{"name":"Laptop","sku":"SKU001","expected_quantity":5}`,
			service:      &fakeInventoryService{item: &models.InventoryItem{ID: 7}},
			expectedCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := authedRequest("POST", "/api/item", tt.body)
			h := &InventoryHandler{InventoryService: tt.service}
			h.Add(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}
		})
	}

	t.Run("payload reaches service", func(t *testing.T) {
		svc := &fakeInventoryService{item: &models.InventoryItem{ID: 7}}
		rec := httptest.NewRecorder()
		req := authedRequest("POST", "/api/item", `{"name":"Laptop","sku":"SKU001","expected_quantity":5}`)
		h := &InventoryHandler{InventoryService: svc}
		h.Add(rec, req)

		if svc.lastItem.Name != "Laptop" || svc.lastItem.ExpectedQuantity != 5 {
			t.Errorf("unexpected item passed to service: %+v", svc.lastItem)
		}
	})
}

func TestInventoryHandler_Update(t *testing.T) {
	svc := &fakeInventoryService{item: &models.InventoryItem{ID: 7}}
	h := &InventoryHandler{InventoryService: svc}

	rec := httptest.NewRecorder()
	req := withURLParam(authedRequest("PUT", "/api/item/7", `{"name":"Laptop","sku":"SKU001"}`), "id", "7")
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.lastItem.ID != 7 {
		t.Errorf("expected item id 7 passed to service, got %d", svc.lastItem.ID)
	}
}

func TestInventoryHandler_UpdateBadID(t *testing.T) {
	h := &InventoryHandler{InventoryService: &fakeInventoryService{}}

	rec := httptest.NewRecorder()
	req := withURLParam(authedRequest("PUT", "/api/item/abc", `{"name":"Laptop","sku":"SKU001"}`), "id", "abc")
	h.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestInventoryHandler_Delete(t *testing.T) {
	tests := []struct {
		name         string
		service      *fakeInventoryService
		expectedCode int
	}{
		{name: "success", service: &fakeInventoryService{}, expectedCode: http.StatusOK},
		{name: "not admin", service: &fakeInventoryService{err: service.ErrPermission}, expectedCode: http.StatusForbidden},
		{name: "missing item", service: &fakeInventoryService{err: service.ErrNotFound}, expectedCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := withURLParam(authedRequest("DELETE", "/api/item/3", ""), "id", "3")
			h := &InventoryHandler{InventoryService: tt.service}
			h.Delete(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}
		})
	}
}
