// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

/*
Package workflow runs configurable multi-step processes such as carrier
onboarding or delivery sign-off.

A definition is a graph of steps (start, task, approval, notify, end).
Validate rejects graphs the engine could not run to completion. An execution
moves forward on its own until it reaches an approval step, a step with more
than one next step, or an end step:

	running -> waiting -> running -> ... -> completed
	                 \-> failed | cancelled

Definitions with trigger load_status are started by HandleLoadStatus when a
load enters the configured status. Terminal executions publish
workflow.completed.
*/
package workflow
