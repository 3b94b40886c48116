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
	"bytes"
	_ "embed" // for the bundled LCCS class list
	"fmt"
	"io"
	"strconv"
	"strings"
)

//go:embed lccs_classes.txt
var lccsClasses []byte

// Class is a land cover classification code with its description and
// the CF flag meaning token used for output variable names.
type Class struct {
	Code        int
	Description string
	FlagMeaning string
}

// Catalog is an ordered set of land cover classes with a bijection between
// class codes and dense 0-based class indices. The first class is the
// no-data class. A Catalog is immutable after it is loaded and can be
// shared between goroutines.
type Catalog struct {
	classes []Class
	index   map[int]int
}

// DefaultCatalog returns the catalog of the 38 LCCS classes used by the
// ESA CCI land cover maps.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(bytes.NewReader(lccsClasses))
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads a pipe-delimited catalog with one
// `code|description|flag meaning` row per class. Empty lines are skipped.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var classes []Class
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		rec := strings.TrimSpace(s.Text())
		if rec == "" {
			continue
		}
		fields := strings.Split(rec, "|")
		if len(fields) != 3 {
			return nil, fmt.Errorf("landcover: catalog line %d: expected 3 fields but found %d: %w",
				line, len(fields), ErrMalformedCatalog)
		}
		code, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("landcover: catalog line %d: invalid class code %q: %w",
				line, fields[0], ErrMalformedCatalog)
		}
		classes = append(classes, Class{
			Code:        code,
			Description: strings.TrimSpace(fields[1]),
			FlagMeaning: strings.TrimSpace(fields[2]),
		})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("landcover: reading catalog: %v", err)
	}
	return NewCatalog(classes)
}

// NewCatalog creates a catalog from classes, in order. classes[0] is the
// no-data class.
func NewCatalog(classes []Class) (*Catalog, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("landcover: catalog has no classes: %w", ErrMalformedCatalog)
	}
	c := &Catalog{
		classes: make([]Class, len(classes)),
		index:   make(map[int]int, len(classes)),
	}
	for i, cl := range classes {
		if j, ok := c.index[cl.Code]; ok {
			return nil, fmt.Errorf("landcover: class code %d repeats at rows %d and %d: %w",
				cl.Code, j, i, ErrMalformedCatalog)
		}
		c.index[cl.Code] = i
		c.classes[i] = cl
	}
	return c, nil
}

// Len returns the number of classes, including the no-data class.
func (c *Catalog) Len() int { return len(c.classes) }

// NoDataCode returns the code of the no-data class.
func (c *Catalog) NoDataCode() int { return c.classes[0].Code }

// IndexOf returns the dense index of code. Unknown codes map to the
// no-data index.
func (c *Catalog) IndexOf(code int) int {
	if i, ok := c.index[code]; ok {
		return i
	}
	return 0
}

// Contains returns whether code is in the catalog.
func (c *Catalog) Contains(code int) bool {
	_, ok := c.index[code]
	return ok
}

// CodeOf returns the class code at index.
func (c *Catalog) CodeOf(index int) (int, error) {
	if index < 0 || index >= len(c.classes) {
		return 0, fmt.Errorf("landcover: index %d not in [0, %d): %w",
			index, len(c.classes), ErrIndexOutOfRange)
	}
	return c.classes[index].Code, nil
}

// Class returns the class at index. It panics if index is out of range.
func (c *Catalog) Class(index int) Class { return c.classes[index] }

// Codes returns the class codes in catalog order.
func (c *Catalog) Codes() []int {
	o := make([]int, len(c.classes))
	for i, cl := range c.classes {
		o[i] = cl.Code
	}
	return o
}

// FlagMeanings returns the flag meaning tokens in catalog order.
func (c *Catalog) FlagMeanings() []string {
	o := make([]string, len(c.classes))
	for i, cl := range c.classes {
		o[i] = cl.FlagMeaning
	}
	return o
}
