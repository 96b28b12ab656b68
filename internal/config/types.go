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

// Package config holds the on-disk record types for the gateway: general
// settings, edge descriptors, per-IP rules and per-location rules. All of
// them round-trip through YAML.
package config

// Gress is the ingress verdict carried by per-IP and per-location rules.
// Inherit defers to whatever the next rule in the precedence chain decides.
type Gress string

const (
	GressInherit Gress = "Inherit"
	GressAllow   Gress = "Allow"
	GressDeny    Gress = "Deny"
)

// GenericGress is the coarser verdict used by the gateway-wide default and by
// location rules once Inherit has been resolved against it.
type GenericGress string

const (
	GenericGressAllow GenericGress = "Allow"
	GenericGressDeny  GenericGress = "Deny"
)

// IPRule is looked up fresh from disk for every new client connection, keyed
// by the client's IP address string.
type IPRule struct {
	IP                   string   `yaml:"ip"`
	Ingress              Gress    `yaml:"ingress"`
	BypassProtection     bool     `yaml:"bypass_protection"`
	LimitRate            uint64   `yaml:"limit_rate"`
	BlacklistedLocations []string `yaml:"blacklisted_locations"`
	WhitelistLocation    []string `yaml:"whitelist_location"`
}

// LocationRule matches a single (method, location) pair. The in-memory list
// of these is rebuilt in full whenever the location-rules directory changes.
type LocationRule struct {
	Method   string `yaml:"method"`
	Location string `yaml:"location"`
	Ingress  Gress  `yaml:"ingress"`
	Bypass   bool   `yaml:"bypass"`
}

// Edge describes one backend origin. ConnCount is read from disk for
// human inspection only: the live counter lives in memory, in the edge
// registry, and this field is never consulted after load.
type Edge struct {
	Destination          string `yaml:"destination"`
	DestinationPort      uint16 `yaml:"destination_port"`
	ResolveName          string `yaml:"resolve_name"`
	MaximumNumberOfConn  uint64 `yaml:"maximum_number_of_conn"`
	ConnCount            uint64 `yaml:"conn_count"`
	RequestsPerSecond    uint64 `yaml:"requests_per_second"`
	HTTPS                bool   `yaml:"https"`
}

// General is the top-level gateway configuration loaded once at startup.
type General struct {
	ListenAddress       string       `yaml:"listen_address"`
	ListenPort          uint16       `yaml:"listen_port"`
	MaximumConnections  uint64       `yaml:"maximum_connections"`
	HTTPS               bool         `yaml:"https"`
	SSLCertificate      string       `yaml:"ssl_certificate"`
	SSLCertificateKey   string       `yaml:"ssl_certificate_key"`
	Ingress             GenericGress `yaml:"ingress"`
}
