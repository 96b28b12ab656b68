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
	"fmt"
)

// kafkaSink logs what it would have produced. No broker client ships in
// this build — wiring a real one is a matter of swapping this producer
// for one backed by an actual client, same shape as the demo's Redis
// adapter.
type kafkaSink struct {
	topic string
}

// NewKafkaSink returns a sink that logs one line per entry, formatted as
// the Kafka record it would send on topic.
func NewKafkaSink(topic string) Sink {
	if topic == "" {
		topic = "wafgw-audit"
	}
	return &kafkaSink{topic: topic}
}

func (k *kafkaSink) Record(ctx context.Context, e Entry) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	fmt.Printf("[audit-kafka] topic=%s ip=%s stage=%s verdict=%s target=%q\n",
		k.topic, e.ClientIP, e.Stage, e.Verdict, e.Target)
	return nil
}
