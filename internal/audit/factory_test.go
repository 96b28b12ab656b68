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

package audit

import (
	"context"
	"testing"
	"time"
)

func TestBuildSinkDefaultsToMock(t *testing.T) {
	sink, err := BuildSink("", Options{})
	if err != nil {
		t.Fatalf("BuildSink: %v", err)
	}
	if _, ok := sink.(mockSink); !ok {
		t.Fatalf("expected mockSink, got %T", sink)
	}
}

func TestBuildSinkRedisRequiresAddress(t *testing.T) {
	if _, err := BuildSink("redis", Options{}); err == nil {
		t.Fatal("expected an error when redis sink has no address")
	}
}

func TestBuildSinkUnknownAdapter(t *testing.T) {
	if _, err := BuildSink("carrier-pigeon", Options{}); err == nil {
		t.Fatal("expected an error for an unknown adapter")
	}
}

func TestBuildSinkKafkaDefaultTopic(t *testing.T) {
	sink, err := BuildSink("kafka", Options{})
	if err != nil {
		t.Fatalf("BuildSink: %v", err)
	}
	k, ok := sink.(*kafkaSink)
	if !ok {
		t.Fatalf("expected *kafkaSink, got %T", sink)
	}
	if k.topic != "wafgw-audit" {
		t.Fatalf("expected default topic, got %q", k.topic)
	}
}

func TestMockSinkRecordDoesNotError(t *testing.T) {
	sink := NewMockSink()
	err := sink.Record(context.Background(), Entry{
		Timestamp: time.Now(),
		ClientIP:  "10.0.0.1",
		Stage:     "admission",
		Verdict:   "allow",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
}
