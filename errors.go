// Copyright 2025 Edgeo SCADA
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

package bacsim

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrUnknownProperty  = errors.New("bacsim: unknown property")
	ErrReadOnlyProperty = errors.New("bacsim: property is read-only")
	ErrUnknownObject    = errors.New("bacsim: unknown object")
	ErrSchedulerStarted = errors.New("bacsim: scheduler already started")
)

// ConfigErrorKind classifies configuration load failures. All of them are
// fatal at startup.
type ConfigErrorKind uint8

const (
	ConfigNotFound  ConfigErrorKind = iota // config path does not exist
	ConfigMalformed                        // structurally unparseable
	ConfigInvalid                          // parsed, but fails domain validation
)

func (k ConfigErrorKind) String() string {
	switch k {
	case ConfigNotFound:
		return "not-found"
	case ConfigMalformed:
		return "malformed"
	case ConfigInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("config-error-kind(%d)", k)
	}
}

// ConfigError reports a fatal configuration failure.
type ConfigError struct {
	Kind   ConfigErrorKind
	Path   string
	Detail string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("bacsim config %s: %s", e.Kind, e.Path)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newConfigError(kind ConfigErrorKind, path, detail string, err error) *ConfigError {
	return &ConfigError{Kind: kind, Path: path, Detail: detail, Err: err}
}

// WriteErrorKind classifies present-value write rejections.
type WriteErrorKind uint8

const (
	WriteTypeMismatch WriteErrorKind = iota // value domain does not match kind
	WriteOutOfRange                         // multistate value outside [1, numberOfStates]
	WriteNotFound                           // no such object
)

func (k WriteErrorKind) String() string {
	switch k {
	case WriteTypeMismatch:
		return "type-mismatch"
	case WriteOutOfRange:
		return "out-of-range"
	case WriteNotFound:
		return "not-found"
	default:
		return fmt.Sprintf("write-error-kind(%d)", k)
	}
}

// WriteError reports a rejected present-value write. It is recoverable and
// surfaced to the caller; the object is left unchanged.
type WriteError struct {
	Kind     WriteErrorKind
	ObjectID ObjectIdentifier
	Detail   string
}

func (e *WriteError) Error() string {
	msg := fmt.Sprintf("bacsim write %s: %s", e.Kind, e.ObjectID)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *WriteError) Is(target error) bool {
	t, ok := target.(*WriteError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// IsConfigNotFound returns true if the error is a missing-config error.
func IsConfigNotFound(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr) && cfgErr.Kind == ConfigNotFound
}

// IsWriteRejected returns true if the error is a write rejection (of any
// kind) rather than a harness fault.
func IsWriteRejected(err error) bool {
	var wErr *WriteError
	return errors.As(err, &wErr)
}
