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

package dispatcher

import "testing"

func newTestDispatcher(maxConns uint64) *Dispatcher {
	return &Dispatcher{
		maxConns: maxConns,
		live:     make(map[uint64]chan struct{}),
		stopChan: make(chan struct{}),
	}
}

func TestAdmitRespectsMaximumConnections(t *testing.T) {
	d := newTestDispatcher(2)

	if !d.admit() {
		t.Fatal("expected first admission to succeed")
	}
	if !d.admit() {
		t.Fatal("expected second admission to succeed")
	}
	if d.admit() {
		t.Fatal("expected third admission to be refused at the cap")
	}
	if d.LiveCount() != 2 {
		t.Fatalf("expected live count 2, got %d", d.LiveCount())
	}
}

func TestSweepRemovesFinishedSlots(t *testing.T) {
	d := newTestDispatcher(10)

	d.admit()
	d.admit()
	d.admit()

	var closedID uint64
	for id, ch := range d.live {
		close(ch)
		closedID = id
		break
	}

	d.sweep()

	if _, ok := d.live[closedID]; ok {
		t.Fatal("expected finished slot to be removed by sweep")
	}
	if d.LiveCount() != 2 {
		t.Fatalf("expected live count 2 after sweep, got %d", d.LiveCount())
	}
}

func TestAdmitFreesSlotAfterSweep(t *testing.T) {
	d := newTestDispatcher(1)

	if !d.admit() {
		t.Fatal("expected admission to succeed")
	}
	if d.admit() {
		t.Fatal("expected admission to be refused while the single slot is occupied")
	}

	for _, ch := range d.live {
		close(ch)
	}
	d.sweep()

	if !d.admit() {
		t.Fatal("expected admission to succeed again once the slot was reclaimed")
	}
}
