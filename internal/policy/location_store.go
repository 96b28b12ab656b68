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

package policy

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"wafgw/internal/config"
)

// LocationStore holds the process-wide, in-memory list of per-location
// rules. Readers do a short O(n) scan under one mutex; the watcher rebuilds
// the whole list on any filesystem event rather than reconciling
// incrementally — the rule set is small enough that a full rebuild on
// every change is cheaper than tracking per-file diffs.
type LocationStore struct {
	mu   sync.Mutex
	dir  string
	list []config.LocationRule
}

// NewLocationStore builds an empty store rooted at dir. Call Initialize
// before serving traffic.
func NewLocationStore(dir string) *LocationStore {
	return &LocationStore{dir: dir}
}

// Initialize loads the directory once, then starts the background watcher.
func (s *LocationStore) Initialize() error {
	if err := s.load(); err != nil {
		return err
	}
	go s.watch()
	return nil
}

// GetRule returns the first rule whose (method, target) matches exactly.
func (s *LocationStore) GetRule(method, target string) (config.LocationRule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rule := range s.list {
		if rule.Method == method && rule.Location == target {
			return rule, true
		}
	}
	return config.LocationRule{}, false
}

// load replaces the in-memory list atomically: take the lock, clear,
// repopulate from disk. Deserialization failures on individual files are
// logged and the file is skipped.
func (s *LocationStore) load() error {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("enumerate location-rules dir %s: %w", s.dir, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log.Printf("policy: loading location rules from %s", s.dir)
	s.list = s.list[:0]

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, file.Name())

		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("policy: failed to access %s, error: %v", path, err)
			continue
		}

		var rule config.LocationRule
		if err := yaml.Unmarshal(content, &rule); err != nil {
			log.Printf("policy: failed to deserialize %s, error: %v", path, err)
			continue
		}
		s.list = append(s.list, rule)
	}

	return nil
}

// watch monitors the location-rules directory itself (subdirectories are
// not watched) and triggers a full reload on every event. A watcher setup failure aborts the process:
// without change notifications the store would silently serve stale rules,
// which is worse than failing loudly at startup.
func (s *LocationStore) watch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("policy: failed to create a watcher for %s, error: %v", s.dir, err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		log.Fatalf("policy: failed to monitor %s for update events, error: %v", s.dir, err)
	}

	for {
		select {
		case _, ok := <-watcher.Events:
			if !ok {
				log.Fatalf("policy: watcher event channel closed for %s", s.dir)
			}
			if err := s.load(); err != nil {
				log.Printf("policy: reload after watch event failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok || err != nil {
				log.Fatalf("policy: failed to monitor %s for update events, error: %v", s.dir, err)
			}
		}
	}
}
