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

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/bytedance/sonic"
	"gonum.org/v1/gonum/mat"
)

const (
	jsonNaN    = "NaN"
	jsonPosInf = "+Inf"
	jsonNegInf = "-Inf"
)

type tableJSON struct {
	Rows []string `json:"rows"`
	Cols []string `json:"cols"`
	Data [][]any  `json:"data"`
}

func encodeValue(v float64) any {
	switch {
	case math.IsNaN(v):
		return jsonNaN
	case math.IsInf(v, 1):
		return jsonPosInf
	case math.IsInf(v, -1):
		return jsonNegInf
	}
	return v
}

func decodeValue(v any) (float64, error) {
	switch tv := v.(type) {
	case float64:
		return tv, nil
	case string:
		switch tv {
		case jsonNaN:
			return math.NaN(), nil
		case jsonPosInf, "Inf", "Infinity":
			return math.Inf(1), nil
		case jsonNegInf, "-Infinity":
			return math.Inf(-1), nil
		}
		return 0, fmt.Errorf("invalid numeric value `%s`", tv)
	case nil:
		return math.NaN(), nil
	}
	return 0, fmt.Errorf("invalid value type %T", v)
}

// MarshalJSON encodes the table as an object with `rows`, `cols`
// and row-major `data`. Non-finite values are encoded as strings
// "NaN", "+Inf" and "-Inf" as JSON cannot represent them.
func (t *Table) MarshalJSON() ([]byte, error) {
	tmp := tableJSON{
		Rows: t.Rows,
		Cols: t.Cols,
		Data: make([][]any, len(t.Rows)),
	}
	for i := range t.Rows {
		row := make([]any, len(t.Cols))
		for j := range t.Cols {
			row[j] = encodeValue(t.Data.At(i, j))
		}
		tmp.Data[i] = row
	}
	return sonic.Marshal(tmp)
}

func (t *Table) UnmarshalJSON(data []byte) error {
	var tmp tableJSON
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if len(tmp.Data) != len(tmp.Rows) {
		return InvalidTableError{
			Msg: fmt.Sprintf("number of row labels (%d) does not match number of rows (%d)", len(tmp.Rows), len(tmp.Data))}
	}
	if len(tmp.Rows) == 0 || len(tmp.Cols) == 0 {
		return InvalidTableError{Msg: "empty table"}
	}
	raw := make([]float64, 0, len(tmp.Rows)*len(tmp.Cols))
	for i, row := range tmp.Data {
		if len(row) != len(tmp.Cols) {
			return InvalidTableError{
				Msg: fmt.Sprintf("row `%s` has %d values, expected %d", tmp.Rows[i], len(row), len(tmp.Cols))}
		}
		for j, v := range row {
			fv, err := decodeValue(v)
			if err != nil {
				return InvalidTableError{
					Msg: fmt.Sprintf("cell [%s, %s]: %s", tmp.Rows[i], tmp.Cols[j], err)}
			}
			raw = append(raw, fv)
		}
	}
	tbl, err := New(tmp.Rows, tmp.Cols, mat.NewDense(len(tmp.Rows), len(tmp.Cols), raw))
	if err != nil {
		return err
	}
	*t = *tbl
	return nil
}
