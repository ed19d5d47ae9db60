// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/haulbase/internal/audit"
	"github.com/tomtom215/haulbase/internal/auth"
	"github.com/tomtom215/haulbase/internal/authz"
	"github.com/tomtom215/haulbase/internal/middleware"
	"github.com/tomtom215/haulbase/internal/models"
)

// Router wires the handlers into a chi route tree.
type Router struct {
	handler       *Handler
	middleware    *auth.Middleware
	authz         *authz.Middleware
	audit         *audit.Logger
	chiMiddleware *ChiMiddleware
}

// NewRouter creates the router. auditLogger may be nil, which disables
// request auditing.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware, authzMiddleware *authz.Middleware,
	auditLogger *audit.Logger, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		middleware:    authMiddleware,
		authz:         authzMiddleware,
		audit:         auditLogger,
		chiMiddleware: chiMW,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to chi's r.Use.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// auditRequests records mutating API calls when an audit logger is set.
func (router *Router) auditRequests() func(http.Handler) http.Handler {
	if router.audit == nil {
		return passthrough
	}
	return chiMiddleware(router.audit.Middleware)
}

// can guards a handler with resource:action.
func (router *Router) can(resource, action string, h http.HandlerFunc) http.HandlerFunc {
	return router.authz.Authorize(resource, action, h)
}

// Setup builds the route tree.
func (router *Router) Setup() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// Global middleware, outermost first.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must see OPTIONS preflight before auth
	r.Use(chiMiddleware(middleware.PrometheusMetrics))
	r.Use(chiMiddleware(middleware.AccessLog))
	r.Use(chiMiddleware(h.PerformanceMonitor().Middleware))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", h.Health)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAuth())
		r.Use(APISecurityHeaders())
		r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", h.Login)
		r.With(chiMiddleware(router.middleware.Authenticate)).Get("/me", h.Me)
	})

	// The live event stream skips compression so the connection can be
	// hijacked untouched.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chiMiddleware(router.middleware.Authenticate))
		r.Get("/api/v1/ws", router.can(authz.ResourceTracking, models.ActionRead, h.WebSocket))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chimiddleware.Compress(5, "application/json"))
		r.Use(chiMiddleware(router.middleware.Authenticate))
		r.Use(router.auditRequests())

		router.carrierRoutes(r)
		router.loadRoutes(r)
		router.quoteRoutes(r)
		router.equipmentRoutes(r)
		router.workflowRoutes(r)
		router.documentRoutes(r)
		router.trackingRoutes(r)
		router.analyticsRoutes(r)
		router.integrationRoutes(r)
		router.adminRoutes(r)
	})

	r.Get("/api/v1/admin/performance", router.middleware.RequireRole(models.RoleAdmin, h.PerformanceStats))

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	return r
}

func (router *Router) carrierRoutes(r chi.Router) {
	h := router.handler
	const res = authz.ResourceCarriers
	r.Get("/carriers", router.can(res, models.ActionRead, h.ListCarriers))
	r.Post("/carriers", router.can(res, models.ActionWrite, h.CreateCarrier))
	r.Get("/carriers/{id}", router.can(res, models.ActionRead, h.GetCarrier))
	r.Put("/carriers/{id}", router.can(res, models.ActionWrite, h.UpdateCarrier))
	r.Delete("/carriers/{id}", router.can(res, models.ActionDelete, h.DeleteCarrier))
	r.Post("/carriers/{id}/verify", router.can(res, models.ActionWrite, h.VerifyCarrier))
}

func (router *Router) loadRoutes(r chi.Router) {
	h := router.handler
	const res = authz.ResourceLoads
	r.Get("/loads", router.can(res, models.ActionRead, h.ListLoads))
	r.Post("/loads", router.can(res, models.ActionWrite, h.CreateLoad))
	r.Get("/loads/{id}", router.can(res, models.ActionRead, h.GetLoad))
	r.Put("/loads/{id}", router.can(res, models.ActionWrite, h.UpdateLoad))
	r.Delete("/loads/{id}", router.can(res, models.ActionDelete, h.DeleteLoad))
	r.Post("/loads/{id}/status", router.can(res, models.ActionWrite, h.TransitionLoad))
	r.Get("/loads/{id}/history", router.can(res, models.ActionRead, h.LoadHistory))

	r.Get("/loadboard", router.can(res, models.ActionRead, h.LoadBoard))
	r.Get("/loads/{id}/bids", router.can(authz.ResourceBids, models.ActionRead, h.ListBids))
	r.Post("/loads/{id}/bids", router.can(authz.ResourceBids, models.ActionWrite, h.PlaceBid))
	r.Post("/bids/{id}/accept", router.can(authz.ResourceBids, models.ActionWrite, h.AcceptBid))
	r.Post("/bids/{id}/withdraw", router.can(authz.ResourceBids, models.ActionWrite, h.WithdrawBid))
}

func (router *Router) quoteRoutes(r chi.Router) {
	h := router.handler
	const res = authz.ResourceQuotes
	r.Get("/quotes", router.can(res, models.ActionRead, h.ListQuotes))
	r.Post("/quotes", router.can(res, models.ActionWrite, h.CreateQuote))
	r.Get("/quotes/{id}", router.can(res, models.ActionRead, h.GetQuote))
	r.Post("/quotes/{id}/send", router.can(res, models.ActionWrite, h.SendQuote))
	r.Post("/quotes/{id}/accept", router.can(res, models.ActionWrite, h.AcceptQuote))
	r.Post("/quotes/{id}/reject", router.can(res, models.ActionWrite, h.RejectQuote))
	r.Post("/quotes/{id}/convert", router.can(authz.ResourceLoads, models.ActionWrite,
		router.can(res, models.ActionWrite, h.ConvertQuote)))
}

func (router *Router) equipmentRoutes(r chi.Router) {
	h := router.handler
	const res = authz.ResourceEquipment
	r.Get("/equipment", router.can(res, models.ActionRead, h.ListEquipment))
	r.Get("/equipment/{code}", router.can(res, models.ActionRead, h.GetEquipment))
	r.Get("/equipment/{code}/loads", router.can(authz.ResourceLoads, models.ActionRead, h.EquipmentLoads))
}

func (router *Router) workflowRoutes(r chi.Router) {
	h := router.handler
	const res = authz.ResourceWorkflows
	r.Get("/workflows", router.can(res, models.ActionRead, h.ListWorkflows))
	r.Post("/workflows", router.can(res, models.ActionWrite, h.CreateWorkflow))
	r.Get("/workflows/{id}", router.can(res, models.ActionRead, h.GetWorkflow))
	r.Put("/workflows/{id}", router.can(res, models.ActionWrite, h.UpdateWorkflow))
	r.Delete("/workflows/{id}", router.can(res, models.ActionDelete, h.DeleteWorkflow))
	r.Post("/workflows/{id}/executions", router.can(res, models.ActionWrite, h.StartExecution))

	r.Get("/executions", router.can(res, models.ActionRead, h.ListExecutions))
	r.Get("/executions/{id}", router.can(res, models.ActionRead, h.GetExecution))
	r.Post("/executions/{id}/advance", router.can(res, models.ActionWrite, h.AdvanceExecution))
	r.Post("/executions/{id}/fail", router.can(res, models.ActionWrite, h.FailExecution))
	r.Post("/executions/{id}/cancel", router.can(res, models.ActionWrite, h.CancelExecution))
}

func (router *Router) documentRoutes(r chi.Router) {
	h := router.handler
	const res = authz.ResourceDocuments
	r.Post("/folders", router.can(res, models.ActionWrite, h.CreateFolder))
	r.Get("/folders/{id}/contents", router.can(res, models.ActionRead, h.FolderContents))
	r.Patch("/folders/{id}", router.can(res, models.ActionWrite, h.RenameFolder))
	r.Post("/folders/{id}/move", router.can(res, models.ActionWrite, h.MoveFolder))
	r.Delete("/folders/{id}", router.can(res, models.ActionDelete, h.DeleteFolder))

	r.Get("/documents", router.can(res, models.ActionRead, h.EntityDocuments))
	r.With(router.chiMiddleware.RateLimitCustom(RateLimitUpload)).
		Post("/documents", router.can(res, models.ActionWrite, h.UploadDocument))
	r.Get("/documents/{id}", router.can(res, models.ActionRead, h.GetDocument))
	r.Get("/documents/{id}/download", router.can(res, models.ActionRead, h.DownloadDocument))
	r.Delete("/documents/{id}", router.can(res, models.ActionDelete, h.DeleteDocument))
}

func (router *Router) trackingRoutes(r chi.Router) {
	h := router.handler
	const res = authz.ResourceTracking
	r.Get("/tracking/map", router.can(res, models.ActionRead, h.TrackingMap))
	r.Get("/loads/{id}/tracking", router.can(res, models.ActionRead, h.LoadTrail))
	r.With(router.chiMiddleware.RateLimitCustom(RateLimitTracking)).
		Post("/loads/{id}/tracking", router.can(res, models.ActionWrite, h.RecordPosition))
}

func (router *Router) analyticsRoutes(r chi.Router) {
	h := router.handler
	const res = authz.ResourceAnalytics
	r.Get("/analytics/dashboard", router.can(res, models.ActionRead, h.AnalyticsDashboard))
	r.Get("/analytics/loads-by-day", router.can(res, models.ActionRead, h.AnalyticsLoadsByDay))
}

func (router *Router) integrationRoutes(r chi.Router) {
	h := router.handler
	const res = authz.ResourceIntegrations
	r.Get("/integrations", router.can(res, models.ActionRead, h.ListIntegrations))
	r.Put("/integrations/{kind}", router.can(res, models.ActionWrite, h.UpsertIntegration))
	r.Post("/integrations/{kind}/test", router.can(res, models.ActionWrite, h.TestIntegration))
	r.Get("/integrations/fmcsa/carriers/{dot}", router.can(authz.ResourceCarriers, models.ActionRead, h.LookupFMCSACarrier))
}

func (router *Router) adminRoutes(r chi.Router) {
	h := router.handler
	r.Get("/users", router.can(authz.ResourceUsers, models.ActionRead, h.ListUsers))
	r.Post("/users", router.can(authz.ResourceUsers, models.ActionWrite, h.CreateUser))
	r.Delete("/users/{id}", router.can(authz.ResourceUsers, models.ActionDelete, h.DeleteUser))

	r.Get("/permissions", router.can(authz.ResourceRoles, models.ActionRead, h.PermissionCatalogue))
	r.Get("/roles", router.can(authz.ResourceRoles, models.ActionRead, h.ListRoles))
	r.Post("/roles", router.can(authz.ResourceRoles, models.ActionWrite, h.CreateRole))
	r.Get("/roles/{name}", router.can(authz.ResourceRoles, models.ActionRead, h.GetRole))
	r.Put("/roles/{name}", router.can(authz.ResourceRoles, models.ActionWrite, h.UpdateRole))
	r.Delete("/roles/{name}", router.can(authz.ResourceRoles, models.ActionDelete, h.DeleteRole))
	r.Get("/roles/{name}/permissions", router.can(authz.ResourceRoles, models.ActionRead, h.RolePermissions))
	r.Put("/roles/{name}/permissions", router.can(authz.ResourceRoles, models.ActionWrite, h.SetRolePermissions))

	r.Get("/audit", router.can(authz.ResourceAudit, models.ActionRead, h.ListAuditEvents))
	r.Get("/audit/stats", router.can(authz.ResourceAudit, models.ActionRead, h.AuditStats))
	r.Get("/audit/{id}", router.can(authz.ResourceAudit, models.ActionRead, h.GetAuditEvent))
}
