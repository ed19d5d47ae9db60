// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/haulbase/internal/models"
)

func validLoadRequest() models.LoadRequest {
	pickup := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	return models.LoadRequest{
		CustomerName:  "Acme Foods",
		Origin:        models.Location{City: "Chicago", State: "IL", Lat: 41.88, Lon: -87.63},
		Destination:   models.Location{City: "Dallas", State: "TX", Lat: 32.78, Lon: -96.80},
		PickupAt:      pickup,
		DeliveryAt:    pickup.Add(30 * time.Hour),
		EquipmentType: "dry_van",
		WeightLbs:     38000,
		RateCents:     300000,
	}
}

// ===================================================================================================
// Singleton
// ===================================================================================================

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil {
		t.Fatal("GetValidator() returned nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same instance")
	}
}

// ===================================================================================================
// ValidateStruct
// ===================================================================================================

func TestValidateStruct_LoadRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(r *models.LoadRequest)
		wantField string
		wantTag   string
	}{
		{name: "valid", mutate: func(*models.LoadRequest) {}},
		{
			name:      "missing customer",
			mutate:    func(r *models.LoadRequest) { r.CustomerName = "" },
			wantField: "customer_name",
			wantTag:   "required",
		},
		{
			name:      "state too long",
			mutate:    func(r *models.LoadRequest) { r.Origin.State = "ILL" },
			wantField: "origin.state",
			wantTag:   "len",
		},
		{
			name:      "state not letters",
			mutate:    func(r *models.LoadRequest) { r.Destination.State = "T1" },
			wantField: "destination.state",
			wantTag:   "alpha",
		},
		{
			name:      "latitude out of range",
			mutate:    func(r *models.LoadRequest) { r.Origin.Lat = 123 },
			wantField: "origin.lat",
			wantTag:   "latitude",
		},
		{
			name:      "delivery before pickup",
			mutate:    func(r *models.LoadRequest) { r.DeliveryAt = r.PickupAt.Add(-time.Hour) },
			wantField: "delivery_at",
			wantTag:   "gtfield",
		},
		{
			name:      "weight over limit",
			mutate:    func(r *models.LoadRequest) { r.WeightLbs = 250000 },
			wantField: "weight_lbs",
			wantTag:   "max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := validLoadRequest()
			tt.mutate(&req)
			verr := ValidateStruct(&req)

			if tt.wantTag == "" {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors (%v), want 1", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
		})
	}
}

func TestValidateStruct_CustomRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   interface{}
		wantTag string
	}{
		{"permission ok", &models.RolePermissionsRequest{Permissions: []string{"loads:read", "fmcsa_checks:write"}}, ""},
		{"permission bad action", &models.RolePermissionsRequest{Permissions: []string{"loads:approve"}}, "permission"},
		{"permission missing colon", &models.RolePermissionsRequest{Permissions: []string{"loads"}}, "permission"},
		{"permission uppercase", &models.RolePermissionsRequest{Permissions: []string{"Loads:read"}}, "permission"},
		{"tenant slug ok", &models.CreateUserRequest{Username: "dispatch1", Password: "long-enough", Role: "viewer", TenantID: "acme-west_2"}, ""},
		{"tenant slug with space", &models.CreateUserRequest{Username: "dispatch1", Password: "long-enough", Role: "viewer", TenantID: "acme west"}, "slug"},
		{"tenant slug leading dash", &models.CreateUserRequest{Username: "dispatch1", Password: "long-enough", Role: "viewer", TenantID: "-acme"}, "slug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verr := ValidateStruct(tt.input)
			if tt.wantTag == "" {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatalf("ValidateStruct() = nil, want %s error", tt.wantTag)
			}
			if got := verr.Errors()[0].Tag(); got != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestValidateStruct_WorkflowDefinition(t *testing.T) {
	t.Parallel()

	steps := []models.WorkflowStep{
		{Key: "start", Name: "Start", Type: models.StepStart, Next: []string{"done"}},
		{Key: "done", Name: "Done", Type: models.StepEnd},
	}

	t.Run("manual without trigger status", func(t *testing.T) {
		t.Parallel()
		req := models.WorkflowDefinitionRequest{Name: "Onboard", Trigger: "manual", Steps: steps}
		if verr := ValidateStruct(&req); verr != nil {
			t.Fatalf("ValidateStruct() = %v", verr)
		}
	})

	t.Run("load_status requires trigger status", func(t *testing.T) {
		t.Parallel()
		req := models.WorkflowDefinitionRequest{Name: "POD", Trigger: "load_status", Steps: steps}
		verr := ValidateStruct(&req)
		if verr == nil {
			t.Fatal("expected required_if error")
		}
		e := verr.Errors()[0]
		if e.Field() != "trigger_status" || e.Tag() != "required_if" {
			t.Errorf("got %s/%s", e.Field(), e.Tag())
		}
		if want := "trigger_status is required when trigger is load_status"; e.Error() != want {
			t.Errorf("message = %q, want %q", e.Error(), want)
		}
	})

	t.Run("step key in slice path", func(t *testing.T) {
		t.Parallel()
		bad := []models.WorkflowStep{steps[0], {Key: "Done Step", Name: "Done", Type: models.StepEnd}}
		req := models.WorkflowDefinitionRequest{Name: "Onboard", Trigger: "manual", Steps: bad}
		verr := ValidateStruct(&req)
		if verr == nil {
			t.Fatal("expected slug error")
		}
		if got := verr.Errors()[0].Field(); got != "steps[1].key" {
			t.Errorf("Field() = %q, want steps[1].key", got)
		}
	})
}

// ===================================================================================================
// APIError conversion
// ===================================================================================================

func TestToAPIError_SingleError(t *testing.T) {
	t.Parallel()

	req := models.BidRequest{CarrierID: "not-a-uuid", AmountCents: 1000}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected error")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if apiErr.Message != "carrier_id must be a valid UUID" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "carrier_id" {
		t.Errorf("Details[field] = %v", apiErr.Details["field"])
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	t.Parallel()

	req := models.BidRequest{}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected error")
	}

	apiErr := verr.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details[fields] has type %T", apiErr.Details["fields"])
	}
	if len(fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(fields))
	}
	for _, want := range []string{"carrier_id: carrier_id is required", "amount_cents: amount_cents is required"} {
		if !strings.Contains(apiErr.Message, want) {
			t.Errorf("Message %q missing %q", apiErr.Message, want)
		}
	}
}

func TestToAPIError_Empty(t *testing.T) {
	t.Parallel()

	apiErr := (&RequestValidationError{}).ToAPIError()
	if apiErr.Message != "Validation failed" || apiErr.Details != nil {
		t.Errorf("got %+v", apiErr)
	}
}

// ===================================================================================================
// Messages
// ===================================================================================================

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	pickup := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{
			name:  "string min",
			input: &models.CreateUserRequest{Username: "ab", Password: "long-enough", Role: "viewer"},
			want:  "username must be at least 3 characters",
		},
		{
			name:  "numeric max",
			input: &models.PositionRequest{Lat: 40, Lon: -90, SpeedMph: 200},
			want:  "speed_mph must be at most 150",
		},
		{
			name:  "oneof",
			input: &models.StatusChangeRequest{Status: "lost"},
			want:  "status must be one of: draft posted booked in_transit delivered cancelled",
		},
		{
			name:  "gtfield uses json name",
			input: &models.ConvertQuoteRequest{PickupAt: pickup, DeliveryAt: pickup},
			want:  "delivery_at must be after pickup_at",
		},
		{
			name:  "slice min",
			input: &models.WorkflowDefinitionRequest{Name: "x", Trigger: "manual", Steps: []models.WorkflowStep{{Key: "a", Name: "A", Type: "start"}}},
			want:  "steps must be at least 2 items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verr := ValidateStruct(tt.input)
			if verr == nil {
				t.Fatal("expected error")
			}
			if got := verr.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
