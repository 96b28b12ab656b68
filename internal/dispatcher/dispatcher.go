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

// Package dispatcher owns the listening socket: it accepts connections,
// enforces the admission cap, and hands each client off to proxyconn.
package dispatcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"wafgw/internal/config"
	"wafgw/internal/metrics"
	"wafgw/internal/netstream"
	"wafgw/internal/proxyconn"
)

// reapInterval matches the 500 ms sweep the accept loop's reaper runs at.
const reapInterval = 500 * time.Millisecond

// Dispatcher accepts client connections, admits them against
// MaximumConnections, and tracks in-flight proxy goroutines so the reaper
// can account for live_count the way the source's task-vector design did.
type Dispatcher struct {
	listener    net.Listener
	tlsConfig   *tls.Config
	maxConns    uint64
	deps        proxyconn.Deps
	mu          sync.Mutex
	live        map[uint64]chan struct{}
	nextID      uint64
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// New binds the listener described by general, wrapping it in TLS if
// general.HTTPS is set, and returns a Dispatcher ready for Serve.
func New(general config.General, deps proxyconn.Deps) (*Dispatcher, error) {
	address := fmt.Sprintf("%s:%d", general.ListenAddress, general.ListenPort)
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dispatcher: bind %s: %w", address, err)
	}

	d := &Dispatcher{
		listener: ln,
		maxConns: general.MaximumConnections,
		deps:     deps,
		live:     make(map[uint64]chan struct{}),
		stopChan: make(chan struct{}),
	}

	if general.HTTPS {
		cert, err := tls.LoadX509KeyPair(general.SSLCertificate, general.SSLCertificateKey)
		if err != nil {
			ln.Close()
			return nil, fmt.Errorf("dispatcher: load tls cert/key: %w", err)
		}
		// Intermediate-profile defaults: TLS 1.2 floor, no hand-picked
		// cipher list restriction beyond what crypto/tls already drops
		// for weak suites.
		d.tlsConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		}
	}

	return d, nil
}

// Serve runs the accept loop and the reaper until the listener fails or
// ctx is cancelled. There is no connection drain on exit: in-flight
// proxy goroutines are left running, matching the source's acknowledged
// lack of graceful restart.
func (d *Dispatcher) Serve(ctx context.Context) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.reap()
	}()

	go func() {
		<-ctx.Done()
		d.listener.Close()
	}()

	for {
		raw, err := d.listener.Accept()
		if err != nil {
			close(d.stopChan)
			d.wg.Wait()
			return fmt.Errorf("dispatcher: accept loop exiting: %w", err)
		}

		client, ok := d.upgrade(raw)
		if !ok {
			continue
		}

		if !d.admit() {
			metrics.ConnectionsRefused.Inc()
			log.Printf("dispatcher: connection limit %d reached, refusing %s", d.maxConns, raw.RemoteAddr())
			client.Close()
			continue
		}

		metrics.ConnectionsAccepted.Inc()
		d.spawn(ctx, client)
	}
}

// upgrade performs the inbound TLS handshake when the dispatcher is
// configured for HTTPS. A handshake failure is logged and the connection
// is dropped without affecting the accept loop.
func (d *Dispatcher) upgrade(raw net.Conn) (netstream.Stream, bool) {
	if d.tlsConfig == nil {
		return raw, true
	}

	tlsConn := tls.Server(raw, d.tlsConfig)
	handshakeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := tlsConn.HandshakeContext(handshakeCtx); err != nil {
		log.Printf("dispatcher: inbound tls handshake with %s failed: %v", raw.RemoteAddr(), err)
		raw.Close()
		return nil, false
	}
	return tlsConn, true
}

// admit enforces the connection cap and, if there is room, reserves a
// slot in the live set.
func (d *Dispatcher) admit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if uint64(len(d.live)) >= d.maxConns {
		return false
	}
	d.nextID++
	d.live[d.nextID] = make(chan struct{})
	return true
}

// spawn runs one client's full proxy lifecycle in its own goroutine and
// marks its slot finished when done, for the reaper to collect.
func (d *Dispatcher) spawn(ctx context.Context, client netstream.Stream) {
	d.mu.Lock()
	id := d.nextID
	finished := d.live[id]
	d.mu.Unlock()

	go func() {
		defer close(finished)

		host, _, err := net.SplitHostPort(client.RemoteAddr().String())
		if err != nil {
			host = client.RemoteAddr().String()
		}
		proxyconn.Handle(ctx, d.deps, client, host)
	}()
}

// reap sweeps finished connection slots every reapInterval, mirroring
// the 500 ms poll the source's detached-task tracker runs.
func (d *Dispatcher) reap() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.sweep()
		case <-d.stopChan:
			return
		}
	}
}

func (d *Dispatcher) sweep() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, finished := range d.live {
		select {
		case <-finished:
			delete(d.live, id)
		default:
		}
	}
}

// LiveCount reports the number of connections the dispatcher currently
// believes are in flight, for the /healthz surface.
func (d *Dispatcher) LiveCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}
