// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/haulbase/internal/logging"
)

// HTTPServer is the subset of *http.Server the service drives.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs an HTTP server under supervision.
type HTTPServerService struct {
	server         HTTPServer
	timeout        time.Duration
	name           string
	beforeShutdown func()
}

// HTTPOption customizes an HTTPServerService.
type HTTPOption func(*HTTPServerService)

// WithName sets the name the supervisor reports. Default "http-server".
func WithName(name string) HTTPOption {
	return func(s *HTTPServerService) { s.name = name }
}

// WithBeforeShutdown registers fn to run when the context ends, before the
// server stops accepting connections. The API uses it to fail readiness
// probes while in-flight requests drain.
func WithBeforeShutdown(fn func()) HTTPOption {
	return func(s *HTTPServerService) { s.beforeShutdown = fn }
}

// NewHTTPServerService wraps server. A non-positive shutdownTimeout means
// 10 seconds.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration, opts ...HTTPOption) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	s := &HTTPServerService{server: server, timeout: shutdownTimeout, name: "http-server"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve blocks until the listener fails or ctx ends. A listener failure is
// returned so the supervisor restarts the service; http.ErrServerClosed is
// the normal result of Shutdown.
func (s *HTTPServerService) Serve(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		err := s.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%s: listen: %w", s.name, err)
		}
		return nil
	case <-ctx.Done():
	}

	if s.beforeShutdown != nil {
		s.beforeShutdown()
	}
	logging.Info().Str("service", s.name).Dur("timeout", s.timeout).Msg("Draining HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s: shutdown: %w", s.name, err)
	}
	<-done
	return ctx.Err()
}

func (s *HTTPServerService) String() string { return s.name }
