// Copyright 2025 The stellarhw Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errp wraps github.com/pkg/errors so that every error created in this module carries a
// stack trace, printable with %+v.
package errp

import (
	"github.com/pkg/errors"
)

// New returns an error with the supplied message and the current stack.
func New(message string) error {
	return errors.New(message)
}

// Newf formats according to a format specifier and returns an error with the current stack.
func Newf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

// WithStack annotates err with the current stack. WithStack(nil) returns nil.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// WithMessage annotates err with a new message. WithMessage(nil, ...) returns nil.
func WithMessage(err error, message string) error {
	return errors.WithMessage(err, message)
}

// WithMessagef annotates err with a formatted message.
func WithMessagef(err error, format string, args ...interface{}) error {
	return errors.WithMessagef(err, format, args...)
}

// Cause returns the innermost error that does not implement Cause().
func Cause(err error) error {
	return errors.Cause(err)
}
