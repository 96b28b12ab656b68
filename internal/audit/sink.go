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

// Package audit records the verdicts the gateway has already reached —
// connection admission, location policy — to a pluggable sink. It never
// makes a decision itself; it only observes one after the fact, so it
// carries none of the rate-limit-enforcement or counter-persistence
// concerns the core proxy path intentionally leaves out.
package audit

import (
	"context"
	"fmt"
	"time"
)

// Entry is one already-made policy verdict, ready to be recorded.
type Entry struct {
	Timestamp time.Time
	ClientIP  string
	Stage     string // "admission" or "request"
	Verdict   string // "allow" or "deny"
	Target    string // request target, empty for admission-stage entries
}

// Sink accepts already-computed decisions. Record is called inline on the
// connection's own goroutine, so a slow sink delays that connection; the
// redis sink makes one network round trip per call.
type Sink interface {
	Record(ctx context.Context, e Entry) error
}

// NewMockSink returns a sink that prints each entry to stdout, for
// local runs with no external dependency.
func NewMockSink() Sink { return mockSink{} }

type mockSink struct{}

func (mockSink) Record(_ context.Context, e Entry) error {
	fmt.Printf("[audit] %s ip=%s stage=%s verdict=%s target=%q\n",
		e.Timestamp.Format(time.RFC3339), e.ClientIP, e.Stage, e.Verdict, e.Target)
	return nil
}
