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

package assoc

import (
	"fmt"

	"collassoc/matrix"
)

const (
	AxisRows = 0
	AxisCols = 1
)

// InvalidAxisError is returned when sample and feature axes
// do not form one of the two valid configurations (0, 1)
// or (1, 0).
type InvalidAxisError struct {
	SampleAxis  int
	FeatureAxis int
}

func (err *InvalidAxisError) Error() string {
	return fmt.Sprintf(
		"invalid axes (sample: %d, feature: %d), must be either (0, 1) or (1, 0)",
		err.SampleAxis, err.FeatureAxis,
	)
}

// UserError marks the error as caused by invalid user input
func (err *InvalidAxisError) UserError() bool {
	return true
}

// ValidateAxes tests whether the axes are mutually exclusive
// and each of them is either 0 or 1.
func ValidateAxes(sampleAxis, featureAxis int) error {
	if (sampleAxis == AxisRows && featureAxis == AxisCols) ||
		(sampleAxis == AxisCols && featureAxis == AxisRows) {
		return nil
	}
	return &InvalidAxisError{SampleAxis: sampleAxis, FeatureAxis: featureAxis}
}

// NormalizeAxes returns a copy of the table oriented as samples x features
// (i.e. samples in rows). The operation is reversible by calling
// it again with the same axes.
func NormalizeAxes(t *matrix.Table, sampleAxis, featureAxis int) (*matrix.Table, error) {
	if err := ValidateAxes(sampleAxis, featureAxis); err != nil {
		return nil, err
	}
	if sampleAxis == AxisCols {
		return t.T(), nil
	}
	return t.Clone(), nil
}

// restoreAxes turns a samples x features table back into the orientation
// specified by the caller. The table must be owned by the caller as
// in the (0, 1) case it is returned as is.
func restoreAxes(t *matrix.Table, sampleAxis int) *matrix.Table {
	if sampleAxis == AxisCols {
		return t.T()
	}
	return t
}
