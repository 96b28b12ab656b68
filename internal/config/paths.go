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

package config

import "path/filepath"

// Default filesystem layout, rooted under whatever -appdata points at.
const (
	DefaultAppDataDir        = "appdata"
	GeneralConfigFilename    = "general.yaml"
	EdgeServerDirname        = "edges"
	IPRulesDirname           = "ip-rules"
	LocationRulesDirname     = "location-rules"
)

// Layout resolves the four well-known paths against a root directory.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout {
	if root == "" {
		root = DefaultAppDataDir
	}
	return Layout{Root: root}
}

func (l Layout) GeneralConfigPath() string {
	return filepath.Join(l.Root, GeneralConfigFilename)
}

func (l Layout) EdgeDir() string {
	return filepath.Join(l.Root, EdgeServerDirname)
}

func (l Layout) IPRulesDir() string {
	return filepath.Join(l.Root, IPRulesDirname)
}

func (l Layout) LocationRulesDir() string {
	return filepath.Join(l.Root, LocationRulesDirname)
}

func (l Layout) IPRulePath(ip string) string {
	return filepath.Join(l.IPRulesDir(), ip+".yaml")
}
