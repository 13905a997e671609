// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package failure

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned for unknown failure types and malformed
// parameter specs. Callers map it to a 400-class response.
var ErrInvalidConfiguration = errors.New("failure: invalid configuration")

// ConfigError carries the offending parameter and field.
type ConfigError struct {
	Parameter string
	Field     string
	Reason    string
}

func (e *ConfigError) Error() string {
	if e.Parameter == "" {
		return fmt.Sprintf("failure: invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("failure: parameter %q: invalid %s: %s", e.Parameter, e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidConfiguration) hold for every ConfigError.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

func invalid(param, field, reason string) error {
	return &ConfigError{Parameter: param, Field: field, Reason: reason}
}
