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

package matrix

// InvalidTableError describes a table which cannot be used
// as an input of an association calculation (wrong shape,
// duplicate labels, negative counts etc.).
type InvalidTableError struct {
	Msg string
}

func (err InvalidTableError) Error() string {
	return err.Msg
}

// UserError marks the error as caused by invalid user input
func (err InvalidTableError) UserError() bool {
	return true
}
