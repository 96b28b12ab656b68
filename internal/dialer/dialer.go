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

// Package dialer opens the edge-facing half of a proxied connection, plain
// or TLS depending on the edge descriptor.
package dialer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"wafgw/internal/config"
	"wafgw/internal/netstream"
)

// DialTimeout bounds both the TCP handshake and, for HTTPS edges, the
// TLS handshake that follows it.
const DialTimeout = 10 * time.Second

// tlsCipherSuites mirrors a "modern-compatible" profile: TLS 1.2 AEAD
// suites plus whatever TLS 1.3 suites the runtime negotiates on its own
// (Go's stdlib doesn't let TLS 1.3 suites be configured explicitly).
var tlsCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}

// Dial opens a new connection to e, upgrading to TLS when e.HTTPS is set.
// Upstream certificates are never verified: the gateway's trust boundary
// is the edge registry on disk, not a CA chain, and edges are frequently
// identified by bare IP with no certificate a public CA would issue for.
func Dial(ctx context.Context, e config.Edge) (netstream.Stream, error) {
	address := net.JoinHostPort(e.Destination, strconv.Itoa(int(e.DestinationPort)))

	dialCtx, cancel := context.WithTimeout(ctx, DialTimeout)
	defer cancel()

	conn, err := (&net.Dialer{}).DialContext(dialCtx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dialer: dial %s: %w", address, err)
	}

	if !e.HTTPS {
		return conn, nil
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		CipherSuites:       tlsCipherSuites,
		InsecureSkipVerify: true,
		ServerName:         sniFor(e),
	}

	tlsConn := tls.Client(conn, tlsConfig)
	handshakeCtx, cancelHandshake := context.WithTimeout(ctx, DialTimeout)
	defer cancelHandshake()

	if err := tlsConn.HandshakeContext(handshakeCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("dialer: tls handshake with %s: %w", address, err)
	}

	return tlsConn, nil
}

// sniFor picks the ServerName to present in the ClientHello: the edge's
// configured resolve name if it has one, falling back to the bare
// destination address. crypto/tls leaves the SNI extension out of the
// ClientHello when that address is an IP literal.
func sniFor(e config.Edge) string {
	if e.ResolveName != "" {
		return e.ResolveName
	}
	return e.Destination
}
