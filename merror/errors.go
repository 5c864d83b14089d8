// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//   This file is part of COLLASSOC.
//
//  COLLASSOC is free software: you can redistribute it and/or modify
//  it under the terms of the GNU General Public License as published by
//  the Free Software Foundation, either version 3 of the License, or
//  (at your option) any later version.
//
//  COLLASSOC is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU General Public License for more details.
//
//  You should have received a copy of the GNU General Public License
//  along with COLLASSOC.  If not, see <https://www.gnu.org/licenses/>.

package merror

import (
	"encoding/json"
	"errors"
	"fmt"
)

// userError is implemented by errors of other packages which
// are caused by invalid input data (e.g. wrong axes, malformed tables)
type userError interface {
	UserError() bool
}

// InputError describes invalid arguments of a job.
type InputError struct {
	Msg string
}

func (err InputError) Error() string {
	return err.Msg
}

func (err InputError) UserError() bool {
	return true
}

func (err InputError) MarshalJSON() ([]byte, error) {
	return marshalMsg(err.Msg)
}

// InternalError describes a failure on the service side
type InternalError struct {
	Msg string
}

func (err InternalError) Error() string {
	return err.Msg
}

func (err InternalError) MarshalJSON() ([]byte, error) {
	return marshalMsg(err.Msg)
}

// RecoveredError is produced when a job panics
type RecoveredError struct {
	Msg string
}

func (err RecoveredError) Error() string {
	return err.Msg
}

func (err RecoveredError) MarshalJSON() ([]byte, error) {
	return marshalMsg(err.Msg)
}

// TimeoutError is produced when a job result does not
// arrive in time
type TimeoutError struct {
	Msg string
}

func (err TimeoutError) Error() string {
	return err.Msg
}

func (err TimeoutError) MarshalJSON() ([]byte, error) {
	return marshalMsg(err.Msg)
}

func marshalMsg(msg string) ([]byte, error) {
	if msg != "" {
		return json.Marshal(msg)
	}
	return json.Marshal(nil)
}

// IsUserError tests whether the error (or any error it wraps)
// is caused by invalid user input.
func IsUserError(err error) bool {
	var uErr userError
	if errors.As(err, &uErr) {
		return uErr.UserError()
	}
	return false
}

// PanicValueToErr converts a value obtained from recover()
// into a RecoveredError.
func PanicValueToErr(v any) error {
	switch tr := v.(type) {
	case error:
		return RecoveredError{Msg: fmt.Sprintf("recovered panic: %s", tr)}
	case string:
		return RecoveredError{Msg: fmt.Sprintf("recovered panic: %s", tr)}
	default:
		return RecoveredError{Msg: fmt.Sprintf("recovered panic from a value of type %T", v)}
	}
}
