package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPILoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/login", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req["username"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"token":"tok-1","user":{"id":2,"username":"alice","role":"user"}}`))
	}))
	defer srv.Close()

	api := NewAPI(srv.URL)
	user, err := api.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "tok-1", api.Token())
}

func TestAPISendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"session":null}`))
	}))
	defer srv.Close()

	api := NewAPI(srv.URL)
	api.SetToken("tok-1")

	sess, err := api.ActiveSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestAPIFailureCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"you already have an active audit session"}`))
	}))
	defer srv.Close()

	api := NewAPI(srv.URL)
	_, err := api.StartAudit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "you already have an active audit session")
}

func TestAPIFailureWithoutBodyUsesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	api := NewAPI(srv.URL)
	_, err := api.Preferences(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestAPIScan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/scan", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "123456789012", req["barcode"])
		assert.EqualValues(t, 6, req["actual_quantity"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"item":{"id":42,"name":"Widget","expected_quantity":5,"actual_quantity":6,"discrepancy":1}}`))
	}))
	defer srv.Close()

	api := NewAPI(srv.URL)
	outcome, err := api.Scan(context.Background(), "s-1", "123456789012", 6)
	require.NoError(t, err)
	assert.EqualValues(t, 42, outcome.ID)
	assert.Equal(t, 1, outcome.Discrepancy)
}
