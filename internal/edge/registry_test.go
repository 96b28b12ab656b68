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

// Package edge contains unit tests for Registry behaviors.
package edge

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"wafgw/internal/config"
)

func writeEdgeFile(t *testing.T, dir, name string, e config.Edge) {
	t.Helper()
	content := "destination: " + e.Destination + "\n" +
		"destination_port: 80\n" +
		"resolve_name: " + e.ResolveName + "\n" +
		"maximum_number_of_conn: 100\n" +
		"https: false\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write edge file: %v", err)
	}
}

func TestRegistryFindPicksLeastLoaded(t *testing.T) {
	dir := t.TempDir()
	writeEdgeFile(t, dir, "a.yaml", config.Edge{Destination: "10.0.0.1", ResolveName: "a"})
	writeEdgeFile(t, dir, "b.yaml", config.Edge{Destination: "10.0.0.2", ResolveName: "b"})

	reg := NewRegistry(dir)
	if err := reg.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	first, ok := reg.Find()
	if !ok {
		t.Fatal("expected an edge")
	}
	if first.Destination != "10.0.0.1" {
		t.Fatalf("expected stable tie-break to pick first-loaded edge, got %s", first.Destination)
	}

	second, ok := reg.Find()
	if !ok {
		t.Fatal("expected an edge")
	}
	if second.Destination != "10.0.0.2" {
		t.Fatalf("expected the less-loaded edge next, got %s", second.Destination)
	}
}

func TestRegistryReleaseIsNoOpWhenUnknown(t *testing.T) {
	dir := t.TempDir()
	writeEdgeFile(t, dir, "a.yaml", config.Edge{Destination: "10.0.0.1", ResolveName: "a"})

	reg := NewRegistry(dir)
	if err := reg.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	reg.Release("10.0.0.1") // counter already zero; must not go negative
	reg.Release("10.0.0.99") // unknown edge; must not panic

	snap := reg.Snapshot()
	if len(snap) != 1 || snap[0].Assigned != 0 {
		t.Fatalf("expected one edge with assigned=0, got %+v", snap)
	}
}

func TestRegistryReloadPreservesAssignedCounter(t *testing.T) {
	dir := t.TempDir()
	writeEdgeFile(t, dir, "a.yaml", config.Edge{Destination: "10.0.0.1", ResolveName: "a"})

	reg := NewRegistry(dir)
	if err := reg.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := reg.Find(); !ok {
		t.Fatal("expected an edge")
	}

	writeEdgeFile(t, dir, "a.yaml", config.Edge{Destination: "10.0.0.1", ResolveName: "a-renamed"})
	if err := reg.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	snap := reg.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected one edge, got %d", len(snap))
	}
	if snap[0].Assigned != 1 {
		t.Fatalf("expected assigned counter to survive reload, got %d", snap[0].Assigned)
	}
	if snap[0].Edge.ResolveName != "a-renamed" {
		t.Fatalf("expected descriptor fields to be overwritten, got %q", snap[0].Edge.ResolveName)
	}
}

// TestRegistryCounterConservation checks that concurrent Find/Release pairs
// never leave a positive counter behind.
func TestRegistryCounterConservation(t *testing.T) {
	dir := t.TempDir()
	writeEdgeFile(t, dir, "a.yaml", config.Edge{Destination: "10.0.0.1", ResolveName: "a"})
	writeEdgeFile(t, dir, "b.yaml", config.Edge{Destination: "10.0.0.2", ResolveName: "b"})

	reg := NewRegistry(dir)
	if err := reg.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, ok := reg.Find()
			if !ok {
				return
			}
			reg.Release(e.Destination)
		}()
	}
	wg.Wait()

	for _, e := range reg.Snapshot() {
		if e.Assigned != 0 {
			t.Fatalf("edge %s: expected assigned=0 at steady state, got %d", e.Edge.Destination, e.Assigned)
		}
	}
}
