// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

/*
Package authz implements role based access control with Casbin.

Permissions are resource:action pairs drawn from a fixed catalogue (see
AllPermissions). Roles are stored in the database and mirrored into an
in-memory casbin enforcer whose model is a plain subject/object/action
match:

	p = sub, obj, act
	m = r.sub == p.sub && r.obj == p.obj && r.act == p.act

The built-in roles admin, dispatcher and viewer are seeded by
Service.Bootstrap. Built-ins cannot be deleted. The admin role always holds
every permission; dispatcher and viewer can be edited.

Enforcement decisions are cached for the configured TTL. Any policy change
clears the cache.

# Usage

	enforcer, err := authz.NewEnforcer(authz.EnforcerConfigFrom(&cfg.Security.Casbin))
	svc := authz.NewService(db, enforcer)
	if err := svc.Bootstrap(ctx); err != nil { ... }
	mw := authz.NewMiddleware(svc)
	r.Get("/loads", mw.Authorize(authz.ResourceLoads, models.ActionRead, h.ListLoads))
*/
package authz
