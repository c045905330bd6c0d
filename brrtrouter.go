// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package brrtrouter wires the spec loader, router, validator cache,
// security registry, and dispatcher into one assembled App, the way
// rivaas-dev-rivaas/router.New/MustNew assembles a Router from Options.
// Loading an OpenAPI document from a path or bytes, registering handler
// functions, and serving HTTP are all the core does; parsing a file
// format for *this package's own* configuration, or exposing a command
// line, is the external CLI/config-loading collaborator's job (§1).
package brrtrouter

import (
	"context"
	"fmt"
	"log/slog"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/microscaler/brrtrouter/config"
	"github.com/microscaler/brrtrouter/dispatch"
	"github.com/microscaler/brrtrouter/router"
	"github.com/microscaler/brrtrouter/security"
	"github.com/microscaler/brrtrouter/service"
	"github.com/microscaler/brrtrouter/spec"
	"github.com/microscaler/brrtrouter/validator"
)

// App is the assembled core: an http.Handler (via Service) plus the
// pieces a caller needs to hot-reload it.
type App struct {
	Service    *service.Service
	Router     *router.Router
	Validators *validator.Cache
	Dispatcher *dispatch.Dispatcher
	Config     *config.Config

	// PoolMetrics observes Dispatcher's per-pool counters (§4.5, §5)
	// through the OTel instruments it creates against MeterProvider.
	// PrometheusRegistry is the registry those instruments are readable
	// from; mounting it behind an HTTP scrape endpoint is left to the
	// caller, the same external-collaborator boundary §1 draws around
	// telemetry export.
	PoolMetrics        *dispatch.PoolMetrics
	MeterProvider      *sdkmetric.MeterProvider
	PrometheusRegistry *promclient.Registry

	routeTable *spec.RouteTable
	handlers   map[string]dispatch.HandlerFunc
	logger     *slog.Logger
}

// New loads the OpenAPI document at specPath, builds the router and
// validator cache, registers every handler in handlers against its
// route's derived worker-pool config, and returns the assembled App.
// A route with no entry in handlers is left unregistered; dispatching
// to it returns dispatch.ErrUnknownHandler (§4.5) until a later
// RegisterHandler/Reload supplies one.
func New(specPath string, cfg *config.Config, reg security.Registry, handlers map[string]dispatch.HandlerFunc, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	rt, err := spec.Load(specPath)
	if err != nil {
		return nil, fmt.Errorf("brrtrouter: load spec: %w", err)
	}

	validators := validator.New()
	validators.Disabled = !cfg.SchemaCacheEnabled

	rtr := router.New(rt)
	d := dispatch.New(logger)
	for _, route := range rt.Routes {
		h, ok := handlers[route.HandlerName]
		if !ok {
			continue
		}
		d.RegisterHandler(route.HandlerName, h, cfg.WorkerPoolConfig(route.StackSizeHint))
	}

	svc := service.New(rt, rtr, validators, reg, d, logger)

	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("brrtrouter: creating prometheus exporter: %w", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	poolMetrics, err := dispatch.NewPoolMetrics(meterProvider.Meter("github.com/microscaler/brrtrouter/dispatch"), d)
	if err != nil {
		return nil, fmt.Errorf("brrtrouter: creating pool metrics: %w", err)
	}

	return &App{
		Service:            svc,
		Router:             rtr,
		Validators:         validators,
		Dispatcher:         d,
		Config:             cfg,
		PoolMetrics:        poolMetrics,
		MeterProvider:      meterProvider,
		PrometheusRegistry: registry,
		routeTable:         rt,
		handlers:           handlers,
		logger:             logger,
	}, nil
}

// Close stops PoolMetrics' collection callback and shuts down
// MeterProvider, draining any buffered readings first. Intended for
// process shutdown alongside Dispatcher.Close.
func (a *App) Close(ctx context.Context) error {
	if err := a.PoolMetrics.Close(); err != nil {
		return fmt.Errorf("brrtrouter: closing pool metrics: %w", err)
	}
	return a.MeterProvider.Shutdown(ctx)
}

// Reload re-loads the OpenAPI document at specPath and atomically swaps
// in the new route table, validator cache, and handler pools (§3.2,
// §4.2, §4.3, §4.5): Router.Reload and Service.SetRouteTable install the
// new snapshot, RouteTable.Diff identifies handlers whose pools must be
// rebuilt, and the validator cache is replaced wholesale.
func (a *App) Reload(specPath string) error {
	rt, err := spec.Load(specPath)
	if err != nil {
		return fmt.Errorf("brrtrouter: reload spec: %w", err)
	}

	added, removed, changed := rt.Diff(a.routeTable)
	for _, name := range removed {
		a.Dispatcher.Deregister(name)
	}
	for _, name := range append(added, changed...) {
		h, ok := a.handlers[name]
		if !ok {
			continue
		}
		route := routeByName(rt, name)
		if route == nil {
			continue
		}
		a.Dispatcher.RegisterHandler(name, h, a.Config.WorkerPoolConfig(route.StackSizeHint))
	}

	a.Validators.Reset()
	a.Router.Reload(rt)
	a.Service.SetRouteTable(rt)
	a.routeTable = rt
	return nil
}

func routeByName(rt *spec.RouteTable, name string) *spec.RouteMeta {
	for _, r := range rt.Routes {
		if r.HandlerName == name {
			return r
		}
	}
	return nil
}
