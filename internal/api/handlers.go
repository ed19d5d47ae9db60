// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/haulbase/internal/audit"
	"github.com/tomtom215/haulbase/internal/auth"
	"github.com/tomtom215/haulbase/internal/authz"
	"github.com/tomtom215/haulbase/internal/cache"
	"github.com/tomtom215/haulbase/internal/config"
	"github.com/tomtom215/haulbase/internal/database"
	"github.com/tomtom215/haulbase/internal/documents"
	"github.com/tomtom215/haulbase/internal/fmcsa"
	"github.com/tomtom215/haulbase/internal/loadboard"
	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/middleware"
	"github.com/tomtom215/haulbase/internal/workflow"
	ws "github.com/tomtom215/haulbase/internal/websocket"
)

// Version is reported by the health endpoints. main overrides it at build time.
var Version = "dev"

// analyticsTTL is how long dashboard aggregates are served from cache.
const analyticsTTL = 5 * time.Minute

// maxClockSkew is how far in the future a device timestamp may be.
const maxClockSkew = 5 * time.Minute

// BusHealth is the slice of the event bus the readiness probe needs.
type BusHealth interface {
	Healthy() bool
	Transport() string
}

// OutboxStatus reports how many events wait for a retried publish.
type OutboxStatus interface {
	PendingCount() (int, error)
}

// Dependencies are the components the handlers are built from. Bus, Outbox,
// Encryptor and Cache may be nil.
type Dependencies struct {
	Config    *config.Config
	DB        *database.DB
	Auth      *auth.Service
	Authz     *authz.Service
	Board     *loadboard.Service
	Workflows *workflow.Engine
	Documents *documents.Service
	FMCSA     *fmcsa.Client
	Audit     *audit.Logger
	Hub       *ws.Hub
	Bus       BusHealth
	Outbox    OutboxStatus
	Encryptor *config.CredentialEncryptor
	Cache     *cache.Cache
	PerfMon   *middleware.PerformanceMonitor
}

// Handler contains the dependencies of the API handlers.
//
// Handler methods are split across files by resource; see the package doc.
type Handler struct {
	db        *database.DB
	config    *config.Config
	auth      *auth.Service
	authz     *authz.Service
	board     *loadboard.Service
	workflows *workflow.Engine
	documents *documents.Service
	fmcsa     *fmcsa.Client
	audit     *audit.Logger
	wsHub     *ws.Hub
	bus       BusHealth
	outbox    OutboxStatus
	encryptor *config.CredentialEncryptor
	cache     *cache.Cache
	perfMon   *middleware.PerformanceMonitor
	startTime time.Time
	now       func() time.Time
	draining  atomic.Bool
}

// NewHandler creates the API handler.
//
// A missing analytics cache gets a 5 minute one and a missing performance
// monitor keeps the last 1000 requests.
func NewHandler(deps Dependencies) *Handler {
	c := deps.Cache
	if c == nil {
		c = cache.New("analytics", analyticsTTL)
	}
	perfMon := deps.PerfMon
	if perfMon == nil {
		perfMon = middleware.NewPerformanceMonitor(1000, time.Second)
	}

	return &Handler{
		db:        deps.DB,
		config:    deps.Config,
		auth:      deps.Auth,
		authz:     deps.Authz,
		board:     deps.Board,
		workflows: deps.Workflows,
		documents: deps.Documents,
		fmcsa:     deps.FMCSA,
		audit:     deps.Audit,
		wsHub:     deps.Hub,
		bus:       deps.Bus,
		outbox:    deps.Outbox,
		encryptor: deps.Encryptor,
		cache:     c,
		perfMon:   perfMon,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Cache returns the analytics cache so it can be supervised.
func (h *Handler) Cache() *cache.Cache {
	return h.cache
}

// BeginDrain makes the readiness probe fail so load balancers stop routing
// new requests while the server shuts down.
func (h *Handler) BeginDrain() {
	h.draining.Store(true)
}

// PerformanceMonitor returns the request sampler used by the router.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}

// invalidateAnalytics drops the tenant's cached dashboards after a write
// that changes load or bid figures.
func (h *Handler) invalidateAnalytics(tenantID string) {
	if n := h.cache.DeletePrefix(cache.TenantPrefix(tenantID)); n > 0 {
		logging.Debug().Str("tenant_id", tenantID).Int("entries", n).Msg("Analytics cache invalidated")
	}
}

// getUpgrader builds the websocket upgrader with origin checking.
func (h *Handler) getUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin allows requests without an Origin (non-browser
// clients authenticate with a token) and browser requests from a configured
// CORS origin.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.config == nil {
		return true
	}
	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected: origin not allowed")
	return false
}
