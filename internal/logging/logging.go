// Copyright 2026 The Prollytree Authors
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

// Package logging wraps zerolog with a no-op default so the core stays
// silent unless a host process opts in.
package logging

import (
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var current atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(io.Discard)
	current.Store(&l)
}

// SetLogger installs l as the package-wide sink. Passing the zero value of
// zerolog.Logger silences logging again.
func SetLogger(l zerolog.Logger) {
	current.Store(&l)
}

// Logger returns the currently installed logger.
func Logger() *zerolog.Logger {
	return current.Load()
}
