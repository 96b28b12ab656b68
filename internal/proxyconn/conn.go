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

// Package proxyconn drives one client connection end to end: admission,
// edge selection, the client-to-edge request state machine, and the
// opaque duplex relay.
package proxyconn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"time"

	"wafgw/internal/audit"
	"wafgw/internal/config"
	"wafgw/internal/dialer"
	"wafgw/internal/edge"
	"wafgw/internal/httphead"
	"wafgw/internal/metrics"
	"wafgw/internal/netstream"
	"wafgw/internal/policy"
)

// MaxHeaderSize bounds how many header bytes a single request may
// accumulate before the connection is dropped.
const MaxHeaderSize = 128 * 1024

// relayBufferSize is the size of each direction's read buffer in the
// duplex loop.
const relayBufferSize = 1500

var (
	ErrHeaderTooLarge = errors.New("proxyconn: header too large")
	ErrPolicyDeny     = errors.New("proxyconn: denied by policy")
)

// phase tracks which half of the request the client-to-edge pump is in.
type phase int

const (
	readingHead phase = iota
	readingBody
)

// requestState is the per-connection, per-request state carried across
// reads in the client-to-edge direction. It never crosses a goroutine
// boundary: one pump owns it for the life of the connection.
type requestState struct {
	phase         phase
	headerBuf     []byte
	bodyRemaining uint64
	bypass        bool
	lastTarget    string
}

// Deps bundles the process-wide collaborators a connection needs: the
// edge registry, the cached location rules and the general config
// snapshot, plus the layout used to look up per-IP rules on demand.
type Deps struct {
	Layout    config.Layout
	Locations *policy.LocationStore
	Edges     *edge.Registry
	General   config.General
	Audit     audit.Sink
}

// recordAudit is a no-op when no sink was configured, so Handle and the
// request pump never need to nil-check Deps.Audit themselves.
func (d Deps) recordAudit(ctx context.Context, clientIP, stage, verdict, target string) {
	if d.Audit == nil {
		return
	}
	if err := d.Audit.Record(ctx, audit.Entry{
		Timestamp: time.Now(),
		ClientIP:  clientIP,
		Stage:     stage,
		Verdict:   verdict,
		Target:    target,
	}); err != nil {
		log.Printf("proxyconn: audit record failed: %v", err)
	}
}

// Handle owns client end to end: admission, edge selection, dial, and
// the duplex relay. It always closes client before returning.
func Handle(ctx context.Context, deps Deps, client netstream.Stream, clientIP string) {
	defer client.Close()

	ipRule, hasRule := policy.GetIPRule(deps.Layout, clientIP)
	ingress := config.GressInherit
	if hasRule {
		ingress = ipRule.Ingress
	}
	if !policy.AdmitConnection(ingress, hasRule, deps.General.Ingress) {
		metrics.RecordDecision("admission", "deny")
		deps.recordAudit(ctx, clientIP, "admission", "deny", "")
		log.Printf("proxyconn: %s denied at admission", clientIP)
		return
	}
	metrics.RecordDecision("admission", "allow")
	deps.recordAudit(ctx, clientIP, "admission", "allow", "")

	chosen, ok := deps.Edges.Find()
	if !ok {
		metrics.NoEdgeAvailable.Inc()
		log.Printf("proxyconn: %s dropped, no edge available", clientIP)
		return
	}
	defer deps.Edges.Release(chosen.Destination)

	edgeConn, err := dialer.Dial(ctx, chosen)
	if err != nil {
		metrics.EdgeDialFailures.Inc()
		log.Printf("proxyconn: %s dial to %s failed: %v", clientIP, chosen.Destination, err)
		return
	}
	defer edgeConn.Close()

	metrics.ConnectionsLive.Inc()
	defer metrics.ConnectionsLive.Dec()

	relay(ctx, deps, client, edgeConn, clientIP, ipRule)
}

// relay runs both directions concurrently and returns once either side
// ends, closing both connections so the other pump unblocks.
func relay(ctx context.Context, deps Deps, client, edgeConn netstream.Stream, clientIP string, ipRule *config.IPRule) {
	done := make(chan struct{}, 2)

	go func() {
		defer func() { done <- struct{}{} }()
		if _, err := io.CopyBuffer(client, edgeConn, make([]byte, relayBufferSize)); err != nil && !isClosedErr(err) {
			log.Printf("proxyconn: %s edge->client relay ended: %v", clientIP, err)
		}
	}()

	go func() {
		defer func() { done <- struct{}{} }()
		if err := pumpClientToEdge(ctx, deps, client, edgeConn, clientIP, ipRule); err != nil && !isEOF(err) && !isClosedErr(err) {
			log.Printf("proxyconn: %s client->edge pump ended: %v", clientIP, err)
		}
	}()

	<-done
	client.Close()
	edgeConn.Close()
	<-done
}

// pumpClientToEdge reads from client, forwards every byte to edgeConn
// transparently, and runs the request state machine over the header
// buffer to enforce admission and size limits along the way.
func pumpClientToEdge(ctx context.Context, deps Deps, client net.Conn, edgeConn net.Conn, clientIP string, ipRule *config.IPRule) error {
	state := &requestState{phase: readingHead}
	buf := make([]byte, relayBufferSize)

	for {
		n, readErr := client.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if _, err := edgeConn.Write(chunk); err != nil {
				return fmt.Errorf("write to edge: %w", err)
			}
			if err := advance(deps, state, chunk, ipRule); err != nil {
				metrics.RecordDecision("request", "deny")
				deps.recordAudit(ctx, clientIP, "request", "deny", state.lastTarget)
				log.Printf("proxyconn: %s dropped mid-request: %v", clientIP, err)
				return err
			}
		}
		if readErr != nil {
			return readErr
		}
	}
}

// advance feeds one freshly forwarded chunk through the request state
// machine, mutating state in place.
func advance(deps Deps, state *requestState, chunk []byte, ipRule *config.IPRule) error {
	if state.phase == readingBody {
		consumed := uint64(len(chunk))
		if consumed >= state.bodyRemaining {
			resetToHead(state)
		} else {
			state.bodyRemaining -= consumed
		}
		return nil
	}

	state.headerBuf = append(state.headerBuf, chunk...)
	if len(state.headerBuf) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	idx := bytes.Index(state.headerBuf, []byte("\r\n\r\n"))
	if idx == -1 {
		return nil
	}
	headEnd := idx + 4

	head, err := httphead.Parse(state.headerBuf[:idx])
	if err != nil {
		return err
	}
	state.lastTarget = head.Target

	if ipRule != nil && policy.LocationBlocked(*ipRule, head.Target) {
		return ErrPolicyDeny
	}

	if rule, ok := deps.Locations.GetRule(head.Method, head.Target); ok {
		state.bypass = rule.Bypass
		if !policy.AdmitLocation(rule.Ingress, deps.General.Ingress) {
			return ErrPolicyDeny
		}
	}

	contentLength, hasBody, err := contentLengthOf(head)
	if err != nil {
		return err
	}
	if !hasBody {
		resetToHead(state)
		return nil
	}

	overshoot := uint64(len(state.headerBuf) - headEnd)
	if overshoot >= contentLength {
		resetToHead(state)
		return nil
	}

	state.phase = readingBody
	state.bodyRemaining = contentLength - overshoot
	state.headerBuf = state.headerBuf[:0]
	return nil
}

// contentLengthOf extracts and parses the Content-Length header, if any.
func contentLengthOf(head httphead.Head) (value uint64, present bool, err error) {
	raw, ok := head.Headers["Content-Length"]
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: bad content-length %q", httphead.ErrMalformed, raw)
	}
	return n, true, nil
}

func resetToHead(state *requestState) {
	state.phase = readingHead
	state.headerBuf = state.headerBuf[:0]
	state.bodyRemaining = 0
	state.bypass = false
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
