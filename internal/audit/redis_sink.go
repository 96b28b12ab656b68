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

	redis "github.com/redis/go-redis/v9"
)

// redisSink pushes each entry onto a Redis list, one LPUSH per Record.
// A capped list (LTRIM by an external cron, or a consumer that pops
// promptly) keeps this from growing unbounded; the sink itself doesn't
// enforce a cap.
type redisSink struct {
	client *redis.Client
	key    string
}

// NewRedisSink builds a sink backed by a real Redis server at addr.
func NewRedisSink(addr, listKey string) Sink {
	if listKey == "" {
		listKey = "wafgw:audit"
	}
	return &redisSink{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    listKey,
	}
}

func (r *redisSink) Record(ctx context.Context, e Entry) error {
	line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s",
		e.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"), e.ClientIP, e.Stage, e.Verdict, e.Target)
	return r.client.LPush(ctx, r.key, line).Err()
}
