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

import "errors"

// Configuration errors. They are returned, wrapped with details about the
// offending row or value, while loading catalogs, lookup tables and
// regions, before any bin is processed.
var (
	ErrMalformedCatalog  = errors.New("malformed class catalog")
	ErrMalformedTable    = errors.New("malformed lookup table")
	ErrDuplicateOverride = errors.New("duplicate override row")
	ErrUnknownClass      = errors.New("unknown LCCS class")
	ErrRegionOutsideGrid = errors.New("region outside grid")
	ErrIndexOutOfRange   = errors.New("class index out of range")
)
