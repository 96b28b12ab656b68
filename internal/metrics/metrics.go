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

// Package metrics holds process-wide Prometheus collectors for the
// dispatcher, edge registry and proxy pipeline. Exposed on /metrics by
// cmd/wafgw when -metrics_addr is set, the way cmd/tfd-proxy wires
// promhttp.Handler().
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConnectionsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wafgw_connections_accepted_total",
		Help: "Total client connections accepted by the dispatcher.",
	})
	ConnectionsRefused = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wafgw_connections_refused_total",
		Help: "Total client connections refused because the admission cap was reached.",
	})
	ConnectionsLive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wafgw_connections_live",
		Help: "Client connections currently being relayed to an edge.",
	})
	PolicyDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wafgw_policy_decisions_total",
		Help: "Policy verdicts reached during connection admission and request parsing.",
	}, []string{"verdict", "stage"})
	NoEdgeAvailable = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wafgw_no_edge_available_total",
		Help: "Connections dropped because the edge registry had no entries.",
	})
	EdgeDialFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wafgw_edge_dial_failures_total",
		Help: "Outbound dial attempts to an edge that failed.",
	})

	edgeAssigned = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wafgw_edge_assigned_connections",
		Help: "Live connection count currently assigned to each edge.",
	}, []string{"edge"})
)

func init() {
	prometheus.MustRegister(
		ConnectionsAccepted,
		ConnectionsRefused,
		ConnectionsLive,
		PolicyDecisions,
		NoEdgeAvailable,
		EdgeDialFailures,
		edgeAssigned,
	)
}

// EdgeAssignedGauge returns the gauge tracking the live connection count for
// a specific edge address.
func EdgeAssignedGauge(address string) prometheus.Gauge {
	return edgeAssigned.WithLabelValues(address)
}

// RecordDecision increments the policy-decision counter for the given stage
// ("admission" or "request") and verdict ("allow" or "deny").
func RecordDecision(stage, verdict string) {
	PolicyDecisions.WithLabelValues(verdict, stage).Inc()
}
