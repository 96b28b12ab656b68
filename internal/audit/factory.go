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

import "fmt"

// Options holds the knobs needed to build any of the supported sinks.
type Options struct {
	RedisAddr  string
	RedisKey   string
	KafkaTopic string
}

// BuildSink constructs a Sink from a string selector: "mock" (default),
// "redis", or "kafka".
func BuildSink(adapter string, opts Options) (Sink, error) {
	switch adapter {
	case "", "mock":
		return NewMockSink(), nil
	case "redis":
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("audit: redis sink requires an address")
		}
		return NewRedisSink(opts.RedisAddr, opts.RedisKey), nil
	case "kafka":
		return NewKafkaSink(opts.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("audit: unknown sink adapter %q", adapter)
	}
}
