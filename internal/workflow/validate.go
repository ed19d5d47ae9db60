// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package workflow

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/haulbase/internal/models"
)

// ErrInvalidDefinition is wrapped by every DefinitionError.
var ErrInvalidDefinition = errors.New("invalid workflow definition")

// DefinitionError lists everything wrong with a step graph.
type DefinitionError struct {
	Problems []string
}

func (e *DefinitionError) Error() string {
	return "invalid workflow definition: " + strings.Join(e.Problems, "; ")
}

func (e *DefinitionError) Unwrap() error { return ErrInvalidDefinition }

// Validate checks a step graph:
//   - exactly one start step and at least one end step
//   - unique keys, and every next key exists
//   - end steps have no next, every other step has at least one
//   - every step is reachable from start
//   - no loop made only of steps that advance on their own
func Validate(steps []models.WorkflowStep) error {
	var problems []string
	byKey := make(map[string]models.WorkflowStep, len(steps))
	var starts, ends []string

	for _, s := range steps {
		if _, dup := byKey[s.Key]; dup {
			problems = append(problems, fmt.Sprintf("duplicate step key %q", s.Key))
			continue
		}
		byKey[s.Key] = s
		switch s.Type {
		case models.StepStart:
			starts = append(starts, s.Key)
		case models.StepEnd:
			ends = append(ends, s.Key)
		}
	}

	switch len(starts) {
	case 0:
		problems = append(problems, "no start step")
	case 1:
	default:
		problems = append(problems, fmt.Sprintf("%d start steps, want exactly one", len(starts)))
	}
	if len(ends) == 0 {
		problems = append(problems, "no end step")
	}

	for _, s := range steps {
		if s.Type == models.StepEnd && len(s.Next) > 0 {
			problems = append(problems, fmt.Sprintf("end step %q has next steps", s.Key))
		}
		if s.Type != models.StepEnd && len(s.Next) == 0 {
			problems = append(problems, fmt.Sprintf("step %q has no next step", s.Key))
		}
		for _, n := range s.Next {
			if _, ok := byKey[n]; !ok {
				problems = append(problems, fmt.Sprintf("step %q points to unknown step %q", s.Key, n))
			}
		}
	}

	if len(problems) == 0 {
		problems = append(problems, unreachable(starts[0], byKey)...)
		problems = append(problems, autoLoops(steps, byKey)...)
	}

	if len(problems) > 0 {
		return &DefinitionError{Problems: problems}
	}
	return nil
}

func unreachable(start string, byKey map[string]models.WorkflowStep) []string {
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		for _, n := range byKey[key].Next {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}

	var missing []string
	for key := range byKey {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)

	out := make([]string, len(missing))
	for i, key := range missing {
		out[i] = fmt.Sprintf("step %q is not reachable from start", key)
	}
	return out
}

// autoLoops finds cycles the engine would follow forever without waiting.
func autoLoops(steps []models.WorkflowStep, byKey map[string]models.WorkflowStep) []string {
	var out []string
	reported := map[string]bool{}
	for _, s := range steps {
		path := map[string]bool{}
		key := s.Key
		for advancesAlone(byKey[key]) {
			if path[key] {
				if !reported[key] {
					out = append(out, fmt.Sprintf("step %q loops without an approval or choice", key))
					reported[key] = true
				}
				break
			}
			path[key] = true
			key = byKey[key].Next[0]
		}
	}
	return out
}

// advancesAlone reports whether the engine moves past step without input.
func advancesAlone(step models.WorkflowStep) bool {
	switch step.Type {
	case models.StepStart, models.StepTask, models.StepNotify:
		return len(step.Next) == 1
	}
	return false
}
