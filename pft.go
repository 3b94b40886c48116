/*
Copyright © 2018 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package landcover

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spatialmodel/landcover/internal/hash"
)

// rowSumTolerance is the relative tolerance of the check that each lookup
// table row sums to 100%.
const rowSumTolerance = 1e-6

// LookupTable converts land cover class fractions into plant functional
// type (PFT) fractions. The base table has one row per catalog class; an
// optional override table has rows for combinations of a class and a class
// of an additional user map. A LookupTable is immutable and can be shared
// between goroutines.
type LookupTable struct {
	// Comment is the comment line of the base table, if any.
	Comment string

	// OverrideComment is the comment line of the override table, if any.
	OverrideComment string

	catalog   *Catalog
	scale     float64
	pftNames  []string
	base      [][]float64
	overrides map[overrideKey][]float64
}

type overrideKey struct {
	class, aux int
}

// ReadLookupTable reads a pipe-delimited base lookup table. The table starts
// with an optional `#` comment line, followed by a header
// `<class column>|<PFT 1>|<PFT 2>|...` and one row per catalog class in
// catalog order. Empty cells mean that the class does not contribute to
// the PFT; other cells are multiplied by scaleFactor. Every row must sum to
// 100*scaleFactor.
func ReadLookupTable(r io.Reader, catalog *Catalog, scaleFactor float64) (*LookupTable, error) {
	lines, err := readTableLines(r)
	if err != nil {
		return nil, err
	}
	t := &LookupTable{
		catalog:   catalog,
		scale:     scaleFactor,
		base:      make([][]float64, 0, catalog.Len()),
		overrides: make(map[overrideKey][]float64),
	}
	t.Comment, lines = splitComment(lines)
	if len(lines) == 0 {
		return nil, fmt.Errorf("landcover: lookup table has no header: %w", ErrMalformedTable)
	}
	header := strings.Split(lines[0].text, "|")
	if len(header) < 2 {
		return nil, fmt.Errorf("landcover: lookup table line %d: header has no PFT columns: %w",
			lines[0].num, ErrMalformedTable)
	}
	t.pftNames = sanitizePFTNames(header[1:])

	rows := lines[1:]
	if len(rows) != catalog.Len() {
		return nil, fmt.Errorf("landcover: lookup table has %d class rows but the catalog has %d classes: %w",
			len(rows), catalog.Len(), ErrMalformedTable)
	}
	for i, l := range rows {
		fields := strings.Split(l.text, "|")
		want, _ := catalog.CodeOf(i)
		code, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil || code != want {
			return nil, fmt.Errorf("landcover: lookup table line %d: expected class %d but found %q: %w",
				l.num, want, fields[0], ErrMalformedTable)
		}
		factors, err := t.parseFactors(l, fields[1:])
		if err != nil {
			return nil, err
		}
		t.base = append(t.base, factors)
	}
	return t, nil
}

// WithOverride returns a copy of t with the override rows read from r.
// The override table has the same layout as the base table but with a
// second class column holding the user map class:
// `<class column>|<user map column>|<PFT 1>|...`. Its PFT columns must match
// the base table. Rows may appear in any order.
func (t *LookupTable) WithOverride(r io.Reader) (*LookupTable, error) {
	lines, err := readTableLines(r)
	if err != nil {
		return nil, err
	}
	o := *t
	o.overrides = make(map[overrideKey][]float64)
	o.OverrideComment, lines = splitComment(lines)
	if len(lines) == 0 {
		return nil, fmt.Errorf("landcover: override table has no header: %w", ErrMalformedTable)
	}
	header := strings.Split(lines[0].text, "|")
	if len(header) < 3 {
		return nil, fmt.Errorf("landcover: override table line %d: header has no PFT columns: %w",
			lines[0].num, ErrMalformedTable)
	}
	names := sanitizePFTNames(header[2:])
	if len(names) != len(t.pftNames) {
		return nil, fmt.Errorf("landcover: override table line %d: %d PFT columns but the base table has %d: %w",
			lines[0].num, len(names), len(t.pftNames), ErrMalformedTable)
	}
	for i, n := range names {
		if n != t.pftNames[i] {
			return nil, fmt.Errorf("landcover: override table line %d: PFT column %d is %q but the base table has %q: %w",
				lines[0].num, i+1, n, t.pftNames[i], ErrMalformedTable)
		}
	}
	for _, l := range lines[1:] {
		fields := strings.Split(l.text, "|")
		if len(fields) < 2 {
			return nil, fmt.Errorf("landcover: override table line %d: missing class columns: %w",
				l.num, ErrMalformedTable)
		}
		code, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("landcover: override table line %d: invalid class %q: %w",
				l.num, fields[0], ErrMalformedTable)
		}
		if !t.catalog.Contains(code) {
			return nil, fmt.Errorf("landcover: override table line %d: class %d: %w",
				l.num, code, ErrUnknownClass)
		}
		aux, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("landcover: override table line %d: invalid user map class %q: %w",
				l.num, fields[1], ErrMalformedTable)
		}
		key := overrideKey{class: t.catalog.IndexOf(code), aux: aux}
		if _, ok := o.overrides[key]; ok {
			return nil, fmt.Errorf("landcover: override table line %d: class %d with user map class %d: %w",
				l.num, code, aux, ErrDuplicateOverride)
		}
		factors, err := o.parseFactors(l, fields[2:])
		if err != nil {
			return nil, err
		}
		o.overrides[key] = factors
	}
	return &o, nil
}

// PFTNames returns the names of the plant functional types.
func (t *LookupTable) PFTNames() []string {
	return append([]string(nil), t.pftNames...)
}

// ScaleFactor returns the factor the table values were multiplied by.
func (t *LookupTable) ScaleFactor() float64 { return t.scale }

// HasOverrides returns whether t has any override rows.
func (t *LookupTable) HasOverrides() bool { return len(t.overrides) > 0 }

// FactorsFor returns the conversion factors of the class at classIndex.
func (t *LookupTable) FactorsFor(classIndex int) []float64 {
	return append([]float64(nil), t.base[classIndex]...)
}

// FactorsForUserClass returns the override conversion factors for the
// class at classIndex and user map class aux, falling back to the base
// factors if there is no override row for that exact pair.
func (t *LookupTable) FactorsForUserClass(classIndex, aux int) []float64 {
	return append([]float64(nil), t.factors(classIndex, float64(aux))...)
}

// factors returns the factors without copying. aux is NaN if there is no
// user map value.
func (t *LookupTable) factors(classIndex int, aux float64) []float64 {
	if !math.IsNaN(aux) && len(t.overrides) > 0 {
		if f, ok := t.overrides[overrideKey{class: classIndex, aux: int(aux)}]; ok {
			return f
		}
	}
	return t.base[classIndex]
}

// parseFactors parses and checks the factor cells of one row.
func (t *LookupTable) parseFactors(l tableLine, cells []string) ([]float64, error) {
	if len(cells) != len(t.pftNames) {
		return nil, fmt.Errorf("landcover: lookup table line %d: expected %d factors but found %d: %w",
			l.num, len(t.pftNames), len(cells), ErrMalformedTable)
	}
	factors := make([]float64, len(cells))
	var sum float64
	var n int
	for i, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			factors[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, fmt.Errorf("landcover: lookup table line %d: invalid factor %q for %s: %w",
				l.num, c, t.pftNames[i], ErrMalformedTable)
		}
		factors[i] = v * t.scale
		sum += factors[i]
		n++
	}
	// Rows without any factors (e.g. no data) convert to nothing.
	if n > 0 {
		want := 100 * t.scale
		if math.Abs(sum-want) > rowSumTolerance*math.Max(1, math.Abs(want)) {
			return nil, fmt.Errorf("landcover: lookup table line %d: factors sum to %g but should sum to %g: %w",
				l.num, sum, want, ErrMalformedTable)
		}
	}
	return factors, nil
}

type tableLine struct {
	num  int
	text string
}

// readTableLines returns the non-empty lines of r with their line numbers.
func readTableLines(r io.Reader) ([]tableLine, error) {
	var lines []tableLine
	s := bufio.NewScanner(r)
	num := 0
	for s.Scan() {
		num++
		text := strings.TrimRight(s.Text(), "\r\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, tableLine{num: num, text: text})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("landcover: reading lookup table: %v", err)
	}
	return lines, nil
}

func splitComment(lines []tableLine) (string, []tableLine) {
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0].text), "#") {
		return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[0].text), "#")), lines[1:]
	}
	return "", lines
}

func sanitizePFTNames(names []string) []string {
	r := strings.NewReplacer(" ", "_", "/", "_")
	o := make([]string, len(names))
	for i, n := range names {
		o[i] = r.Replace(strings.TrimSpace(n))
	}
	return o
}

// Fingerprint returns a hash of the contents of t, including any override
// rows.
func (t *LookupTable) Fingerprint() string {
	return hash.Hash(struct {
		Comment, OverrideComment string
		Scale                    float64
		PFTNames                 []string
		Base                     [][]float64
		Overrides                map[overrideKey][]float64
	}{t.Comment, t.OverrideComment, t.scale, t.pftNames, t.base, t.overrides})
}
