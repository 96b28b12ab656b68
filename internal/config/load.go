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

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadGeneral reads and deserializes the top-level gateway configuration.
// A missing or malformed file is always a fatal startup error in this
// system — there is no sane default for listen address/port.
func LoadGeneral(path string) (General, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return General{}, fmt.Errorf("read %s: %w", path, err)
	}

	var general General
	if err := yaml.Unmarshal(content, &general); err != nil {
		return General{}, fmt.Errorf("deserialize %s: %w", path, err)
	}
	return general, nil
}
