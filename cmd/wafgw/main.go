// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

// Package main is the entry point for the TCP-level gateway: it loads
// policy, starts the edge and location watchers, and serves client
// connections until the process is signalled to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wafgw/internal/audit"
	"wafgw/internal/config"
	"wafgw/internal/dispatcher"
	"wafgw/internal/edge"
	"wafgw/internal/policy"
	"wafgw/internal/proxyconn"
)

func main() {
	appDataDir := flag.String("appdata", config.DefaultAppDataDir, "Root directory holding general.yaml, edges/, ip-rules/ and location-rules/")
	metricsAddr := flag.String("metrics_addr", "", "If non-empty, expose Prometheus /metrics and /healthz on this address (e.g., :9090)")
	auditSink := flag.String("audit_sink", "mock", "Decision audit sink: mock, redis, or kafka")
	auditRedisAddr := flag.String("audit_redis_addr", "", "Redis address for -audit_sink=redis")
	auditKafkaTopic := flag.String("audit_kafka_topic", "", "Kafka topic for -audit_sink=kafka")
	flag.Parse()

	layout := config.NewLayout(*appDataDir)

	general, err := config.LoadGeneral(layout.GeneralConfigPath())
	if err != nil {
		log.Fatalf("wafgw: failed to load general config: %v", err)
	}

	sink, err := audit.BuildSink(*auditSink, audit.Options{
		RedisAddr:  *auditRedisAddr,
		KafkaTopic: *auditKafkaTopic,
	})
	if err != nil {
		log.Fatalf("wafgw: failed to build audit sink: %v", err)
	}

	locations := policy.NewLocationStore(layout.LocationRulesDir())
	if err := locations.Initialize(); err != nil {
		log.Fatalf("wafgw: failed to initialize location rules: %v", err)
	}

	edges := edge.NewRegistry(layout.EdgeDir())
	if err := edges.Initialize(); err != nil {
		log.Fatalf("wafgw: failed to initialize edge registry: %v", err)
	}

	deps := proxyconn.Deps{
		Layout:    layout,
		Locations: locations,
		Edges:     edges,
		General:   general,
		Audit:     sink,
	}

	disp, err := dispatcher.New(general, deps)
	if err != nil {
		log.Fatalf("wafgw: failed to start dispatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "live=%d\n", disp.LiveCount())
		})
		metricsServer := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			log.Printf("wafgw: metrics listening on %s", *metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("wafgw: metrics server error: %v", err)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		// TODO: a clean restart would re-run this loop on SIGHUP instead of
		// exiting, matching the outer restart loop the source leaves as a
		// TODO of its own.
		serveErr <- disp.Serve(ctx)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Printf("wafgw: received %s, shutting down", sig)
		cancel()
	case err := <-serveErr:
		log.Fatalf("wafgw: dispatcher exited: %v", err)
	}
}
