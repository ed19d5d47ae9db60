// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

/*
Package auth authenticates API callers and resolves the tenant they act for.

Four modes are supported, selected by security.auth_mode:

	jwt    Bearer tokens issued by POST /api/v1/auth/login (HS256)
	oidc   Bearer ID tokens from an external identity provider, verified
	       with the zitadel relying party against the issuer's JWKS
	basic  HTTP Basic against the users table or the configured admin
	none   every caller is an admin of the tenant named in X-Tenant-ID

A successful check stores a *Principal in the request context. Handlers read
it with PrincipalFromContext and scope every store call by Principal.TenantID.

Tenant resolution:
  - jwt: the tenant_id claim. X-Tenant-ID is ignored.
  - oidc: the claim named by security.oidc.tenant_claim. Tokens without it
    are rejected. The role comes from security.oidc.role_claim and falls
    back to the casbin default role.
  - basic: a users-table account is pinned to its own tenant. The configured
    admin may pick a tenant with X-Tenant-ID and falls back to
    security.default_tenant.
  - none: X-Tenant-ID, else security.default_tenant.

Passwords are bcrypt hashes. Repeated login failures lock the username (and the
client IP) for a period that doubles on each lockout, see Lockout.

Websocket clients cannot set headers from a browser, so in jwt mode an upgrade
request may carry the token in the "token" query parameter instead (jwt and
oidc modes).
*/
package auth
