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

// Package edge maintains the process-wide, file-watched registry of
// backend origins and their live connection counters.
package edge

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"wafgw/internal/config"
	"wafgw/internal/metrics"
)

// entry pairs a live, in-memory connection counter with the descriptor most
// recently loaded for it. Assigned is the only field the watcher's Reload
// does not overwrite wholesale.
type entry struct {
	assigned uint64
	edge     config.Edge
}

// Registry is the single source of truth for which edges exist and how busy
// each one currently is. All access goes through one mutex; the critical
// sections are bounded O(n) scans, never held across I/O.
type Registry struct {
	mu  sync.Mutex
	dir string
	set []entry
}

// NewRegistry builds an empty registry rooted at dir. Call Initialize before
// using it from a running gateway.
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir}
}

// Initialize performs one synchronous Reload, then starts the background
// directory watcher. Must be called exactly once before Find/Release see
// concurrent traffic.
func (r *Registry) Initialize() error {
	if err := r.Reload(); err != nil {
		return err
	}
	go r.watch()
	return nil
}

// Find selects the least-loaded edge, increments its counter under the same
// lock that read it, and returns a snapshot of its descriptor. The stable
// sort reorders the list in place, so ties break in the order the previous
// Find left behind (append order only until the first Find). New edges are
// not starved: Reload appends them with a zero counter, which sorts ahead
// of any busier edge.
func (r *Registry) Find() (config.Edge, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.set) == 0 {
		return config.Edge{}, false
	}

	sort.SliceStable(r.set, func(i, j int) bool {
		return r.set[i].assigned < r.set[j].assigned
	})

	r.set[0].assigned++
	metrics.EdgeAssignedGauge(r.set[0].edge.Destination).Set(float64(r.set[0].assigned))
	return r.set[0].edge, true
}

// Release decrements the counter of the first edge at address. A no-op if
// no loaded edge has that address (Reload never removes one) or its counter
// is already zero — Find/Release pairs never go negative.
func (r *Registry) Release(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.set {
		if r.set[i].edge.Destination == address {
			if r.set[i].assigned > 0 {
				r.set[i].assigned--
			}
			metrics.EdgeAssignedGauge(address).Set(float64(r.set[i].assigned))
			return
		}
	}
}

// Reload re-reads every YAML file in the edges directory. An existing entry
// keyed by (address, port) keeps its live Assigned counter and has its
// descriptor fields overwritten; a new one is appended with Assigned=0.
// Entries whose files vanished are intentionally not pruned: an edge that
// disappears from disk stays in rotation with its last-known descriptor
// rather than being dropped out from under in-flight assignments.
func (r *Registry) Reload() error {
	files, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("enumerate edges dir %s: %w", r.dir, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	log.Printf("edge: loading edge servers from %s", r.dir)

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		path := filepath.Join(r.dir, file.Name())

		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("edge: failed to access %s, error: %v", path, err)
			continue
		}

		var parsed config.Edge
		if err := yaml.Unmarshal(content, &parsed); err != nil {
			log.Printf("edge: failed to deserialize %s, error: %v", path, err)
			continue
		}

		merged := false
		for i := range r.set {
			if r.set[i].edge.Destination == parsed.Destination && r.set[i].edge.DestinationPort == parsed.DestinationPort {
				r.set[i].edge = parsed
				merged = true
				break
			}
		}
		if !merged {
			r.set = append(r.set, entry{assigned: 0, edge: parsed})
		}
	}

	return nil
}

// watch monitors the edges directory itself (subdirectories are not
// watched) and triggers a full Reload on every filesystem event. A watcher
// setup failure is fatal:
// there is no safe degraded mode for running without edge-directory
// change notifications, so the caller should treat it as unrecoverable.
func (r *Registry) watch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("edge: failed to create a watcher for %s, error: %v", r.dir, err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.dir); err != nil {
		log.Fatalf("edge: failed to monitor %s for update events, error: %v", r.dir, err)
	}

	for {
		select {
		case _, ok := <-watcher.Events:
			if !ok {
				log.Fatalf("edge: watcher event channel closed for %s", r.dir)
			}
			if err := r.Reload(); err != nil {
				log.Printf("edge: reload after watch event failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok || err != nil {
				log.Fatalf("edge: failed to monitor %s for update events, error: %v", r.dir, err)
			}
		}
	}
}

// Snapshot returns a copy of the current (assigned, edge) pairs, for tests
// and for the metrics/healthz surface.
func (r *Registry) Snapshot() []struct {
	Assigned uint64
	Edge     config.Edge
} {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]struct {
		Assigned uint64
		Edge     config.Edge
	}, len(r.set))
	for i, e := range r.set {
		out[i] = struct {
			Assigned uint64
			Edge     config.Edge
		}{Assigned: e.assigned, Edge: e.edge}
	}
	return out
}
