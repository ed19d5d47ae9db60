// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/haulbase/internal/audit"
	"github.com/tomtom215/haulbase/internal/auth"
	"github.com/tomtom215/haulbase/internal/authz"
	"github.com/tomtom215/haulbase/internal/config"
	"github.com/tomtom215/haulbase/internal/database"
	"github.com/tomtom215/haulbase/internal/documents"
	"github.com/tomtom215/haulbase/internal/events"
	"github.com/tomtom215/haulbase/internal/fmcsa"
	"github.com/tomtom215/haulbase/internal/loadboard"
	"github.com/tomtom215/haulbase/internal/models"
	"github.com/tomtom215/haulbase/internal/workflow"
	ws "github.com/tomtom215/haulbase/internal/websocket"
)

// testDBSemaphore serializes DuckDB usage across parallel tests.
var testDBSemaphore = make(chan struct{}, 1)

const (
	testTenant    = "acme"
	testJWTSecret = "test-secret-with-enough-entropy-0123456789"
	testUploadMax = 64 * 1024
)

// testEnv is a fully wired API over a temporary database.
type testEnv struct {
	t       *testing.T
	server  *httptest.Server
	db      *database.DB
	handler *Handler
	jwt     *auth.JWTManager
	audit   *audit.MemoryStore
	tenant  string
	token   string
}

// newTestEnv builds the API in the given auth mode. In none mode every
// request acts as an admin of testTenant.
func newTestEnv(t *testing.T, mode auth.AuthMode) *testEnv {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Path:      filepath.Join(t.TempDir(), "api.duckdb"),
			MaxMemory: "256MB",
			Threads:   2,
		},
		API: config.APIConfig{DefaultPageSize: 20, MaxPageSize: 100},
		Security: config.SecurityConfig{
			AuthMode:          string(mode),
			JWTSecret:         testJWTSecret,
			SessionTimeout:    time.Hour,
			DefaultTenant:     testTenant,
			RateLimitDisabled: true,
			CORSOrigins:       []string{"https://dispatch.example.com"},
		},
	}

	db, err := database.New(&cfg.Database, nil)
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	t.Cleanup(enforcer.Close)
	authzSvc := authz.NewService(db, enforcer)
	if err := authzSvc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	jwtMgr, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	authSvc := auth.NewService(db, nil, jwtMgr, auth.NewLockout(auth.DefaultLockoutConfig()), testTenant)

	blobs, err := documents.OpenBlobStore("")
	if err != nil {
		t.Fatalf("OpenBlobStore: %v", err)
	}
	t.Cleanup(func() { _ = blobs.Close() })

	auditStore := audit.NewMemoryStore(1000)
	auditLogger := audit.NewLogger(auditStore, 100)

	handler := NewHandler(Dependencies{
		Config:    cfg,
		DB:        db,
		Auth:      authSvc,
		Authz:     authzSvc,
		Board:     loadboard.NewService(db, events.Discard),
		Workflows: workflow.NewEngine(db, events.Discard),
		Documents: documents.NewService(db, blobs, testUploadMax),
		FMCSA:     fmcsa.NewClient(&cfg.FMCSA, nil),
		Audit:     auditLogger,
		Hub:       ws.NewHub(),
	})
	router := NewRouter(handler,
		auth.NewMiddleware(mode, authSvc, jwtMgr),
		authz.NewMiddleware(authzSvc),
		nil,
		NewChiMiddleware(ChiMiddlewareConfigFrom(&cfg.Security)),
	)

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)

	return &testEnv{
		t:       t,
		server:  server,
		db:      db,
		handler: handler,
		jwt:     jwtMgr,
		audit:   auditStore,
		tenant:  testTenant,
	}
}

// tokenFor issues a JWT for a principal of role in the env's tenant.
func (e *testEnv) tokenFor(role string) string {
	e.t.Helper()
	token, _, err := e.jwt.GenerateToken(&auth.Principal{
		ID:       "user-" + role,
		Username: role + "-user",
		Role:     role,
		TenantID: e.tenant,
	})
	if err != nil {
		e.t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

// do sends a JSON request and returns the response with its body read.
func (e *testEnv) do(method, path string, body any) (*http.Response, []byte) {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		e.t.Fatalf("NewRequest: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(auth.TenantHeader, e.tenant)
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	return e.send(req)
}

func (e *testEnv) send(req *http.Request) (*http.Response, []byte) {
	e.t.Helper()
	resp, err := e.server.Client().Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		e.t.Fatalf("read body: %v", err)
	}
	return resp, data
}

// envelope is models.APIResponse with the data left raw.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode envelope: %v\n%s", err, body)
	}
	return env
}

// mustStatus fails unless resp has the wanted status, then decodes the
// envelope's data into out when out is non-nil.
func mustStatus(t *testing.T, resp *http.Response, body []byte, want int, out any) envelope {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: status %d, want %d\n%s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
	env := decodeEnvelope(t, body)
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: %v\n%s", err, env.Data)
		}
	}
	return env
}

func sampleLoad(pickup time.Time) models.LoadRequest {
	return models.LoadRequest{
		CustomerName:  "Great Lakes Grocers",
		Origin:        models.Location{City: "Chicago", State: "IL", Lat: 41.8781, Lon: -87.6298},
		Destination:   models.Location{City: "Columbus", State: "OH", Lat: 39.9612, Lon: -82.9988},
		PickupAt:      pickup,
		DeliveryAt:    pickup.Add(10 * time.Hour),
		EquipmentType: "dry_van",
		WeightLbs:     38000,
		RateCents:     210000,
	}
}

// createLoad posts a load and returns it.
func (e *testEnv) createLoad() models.Load {
	e.t.Helper()
	var load models.Load
	resp, body := e.do(http.MethodPost, "/api/v1/loads", sampleLoad(time.Now().Add(48*time.Hour).UTC().Truncate(time.Second)))
	mustStatus(e.t, resp, body, http.StatusCreated, &load)
	return load
}

// createCarrier adds an active carrier.
func (e *testEnv) createCarrier(name, dot string) models.Carrier {
	e.t.Helper()
	var c models.Carrier
	resp, body := e.do(http.MethodPost, "/api/v1/carriers", models.CarrierRequest{
		Name:           name,
		DOTNumber:      dot,
		Status:         models.CarrierActive,
		EquipmentTypes: []string{"dry_van"},
	})
	mustStatus(e.t, resp, body, http.StatusCreated, &c)
	return c
}

func (e *testEnv) transition(loadID, status string) (*http.Response, []byte) {
	return e.do(http.MethodPost, "/api/v1/loads/"+loadID+"/status", models.StatusChangeRequest{Status: status})
}
