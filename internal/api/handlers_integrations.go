// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/haulbase/internal/config"
	"github.com/tomtom215/haulbase/internal/database"
	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/models"
)

// integrationCheckTimeout bounds a connectivity test.
const integrationCheckTimeout = 10 * time.Second

// Integration check outcomes.
const (
	checkOK          = "ok"
	checkFailed      = "failed"
	checkUnsupported = "unsupported"
)

var errNoEncryptor = errors.New("credential encryption is not configured")

func validIntegrationKind(kind string) bool {
	switch kind {
	case models.IntegrationFMCSA, models.IntegrationELD, models.IntegrationAccounting:
		return true
	}
	return false
}

// integrationKind reads {kind} and answers 400 for unknown kinds.
func integrationKind(w http.ResponseWriter, r *http.Request) (string, bool) {
	kind := chi.URLParam(r, "kind")
	if !validIntegrationKind(kind) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown integration kind "+kind, nil)
		return "", false
	}
	return kind, true
}

// openSettings decrypts a record's settings.
func (h *Handler) openSettings(rec *database.IntegrationRecord) (map[string]string, error) {
	settings := map[string]string{}
	if rec.SettingsEncrypted == "" {
		return settings, nil
	}
	if h.encryptor == nil {
		return nil, errNoEncryptor
	}
	plain, err := h.encryptor.Decrypt(rec.SettingsEncrypted)
	if err != nil {
		return nil, fmt.Errorf("integration %s settings: %w", rec.Kind, err)
	}
	if err := json.Unmarshal([]byte(plain), &settings); err != nil {
		return nil, fmt.Errorf("integration %s settings: %w", rec.Kind, err)
	}
	return settings, nil
}

// sealSettings encrypts settings for storage. Empty settings store nothing.
func (h *Handler) sealSettings(settings map[string]string) (string, error) {
	if len(settings) == 0 {
		return "", nil
	}
	if h.encryptor == nil {
		return "", errNoEncryptor
	}
	plain, err := json.Marshal(settings)
	if err != nil {
		return "", err
	}
	return h.encryptor.Encrypt(string(plain))
}

// maskedIntegration returns the record with every setting value masked.
// Settings that cannot be decrypted come back empty rather than failing the
// whole listing.
func (h *Handler) maskedIntegration(ctx context.Context, rec *database.IntegrationRecord) models.Integration {
	out := rec.Integration
	out.Settings = map[string]string{}
	settings, err := h.openSettings(rec)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("kind", rec.Kind).Msg("Integration settings unreadable")
		return out
	}
	for k, v := range settings {
		out.Settings[k] = config.MaskCredential(v)
	}
	return out
}

// ListIntegrations lists the tenant's integrations with masked settings.
//
// @Summary List integrations
// @Tags Integrations
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Integration}
// @Security BearerAuth
// @Router /integrations [get]
func (h *Handler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	records, err := h.db.ListIntegrations(r.Context(), tenant)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	out := make([]models.Integration, 0, len(records))
	for i := range records {
		out = append(out, h.maskedIntegration(r.Context(), &records[i]))
	}
	respondData(w, http.StatusOK, out)
}

// UpsertIntegration creates or replaces the tenant's integration of a kind.
// A setting sent back in its masked form keeps the stored value.
//
// @Summary Configure integration
// @Tags Integrations
// @Accept json
// @Produce json
// @Param kind path string true "Integration kind" Enums(fmcsa, eld, accounting)
// @Param body body models.IntegrationRequest true "Integration"
// @Success 200 {object} models.APIResponse{data=models.Integration}
// @Failure 503 {object} models.APIResponse
// @Security BearerAuth
// @Router /integrations/{kind} [put]
func (h *Handler) UpsertIntegration(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	kind, ok := integrationKind(w, r)
	if !ok {
		return
	}
	var req models.IntegrationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	settings := req.Settings
	existing, err := h.db.GetIntegration(r.Context(), tenant, kind)
	switch {
	case err == nil:
		previous, perr := h.openSettings(existing)
		if perr == nil {
			for k, v := range settings {
				if old, had := previous[k]; had && strings.HasPrefix(v, "****") && v == config.MaskCredential(old) {
					settings[k] = old
				}
			}
		}
	case errors.Is(err, database.ErrNotFound):
	default:
		respondServiceError(w, r, err)
		return
	}

	sealed, err := h.sealSettings(settings)
	if errors.Is(err, errNoEncryptor) {
		respondError(w, http.StatusServiceUnavailable, "ENCRYPTION_UNAVAILABLE", "integration settings cannot be stored without a server secret", nil)
		return
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	rec := &database.IntegrationRecord{
		Integration: models.Integration{
			TenantID: tenant,
			Kind:     kind,
			Name:     req.Name,
			Enabled:  req.Enabled,
		},
		SettingsEncrypted: sealed,
	}
	if err := h.db.UpsertIntegration(r.Context(), rec); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, h.maskedIntegration(r.Context(), rec))
}

// TestIntegration runs a connectivity check and records its outcome. Only
// FMCSA has a live check; other kinds report unsupported.
//
// @Summary Test integration
// @Tags Integrations
// @Produce json
// @Param kind path string true "Integration kind" Enums(fmcsa, eld, accounting)
// @Success 200 {object} models.APIResponse{data=models.IntegrationTestResult}
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /integrations/{kind}/test [post]
func (h *Handler) TestIntegration(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}
	kind, ok := integrationKind(w, r)
	if !ok {
		return
	}
	if _, err := h.db.GetIntegration(r.Context(), tenant, kind); err != nil {
		respondServiceError(w, r, err)
		return
	}

	result := models.IntegrationTestResult{Kind: kind, Status: checkUnsupported}
	if kind == models.IntegrationFMCSA {
		ctx, cancel := context.WithTimeout(r.Context(), integrationCheckTimeout)
		start := time.Now()
		err := h.fmcsa.HealthCheck(ctx)
		cancel()
		result.LatencyMs = time.Since(start).Milliseconds()
		result.Status = checkOK
		if err != nil {
			result.Status = checkFailed
			result.Error = err.Error()
		}
	}
	result.CheckedAt = h.now().UTC()

	if err := h.db.RecordIntegrationCheck(r.Context(), tenant, kind, result.Status, result.CheckedAt); err != nil {
		respondServiceError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Str("kind", kind).
		Str("status", result.Status).
		Int64("latency_ms", result.LatencyMs).
		Msg("Integration checked")
	respondData(w, http.StatusOK, result)
}

// LookupFMCSACarrier fetches a carrier's authority record by DOT number
// without storing it.
//
// @Summary Look up FMCSA carrier
// @Tags Integrations
// @Produce json
// @Param dot path string true "USDOT number"
// @Success 200 {object} models.APIResponse{data=fmcsa.CarrierRecord}
// @Failure 404 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Security BearerAuth
// @Router /integrations/fmcsa/carriers/{dot} [get]
func (h *Handler) LookupFMCSACarrier(w http.ResponseWriter, r *http.Request) {
	rec, err := h.fmcsa.LookupCarrier(r.Context(), chi.URLParam(r, "dot"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, rec)
}
