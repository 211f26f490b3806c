// common.go
//
// Data, notification and Box services for the DesignSafe-CI portal
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of portal-data.
// portal-data is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// portal-data is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with portal-data.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"net/url"
	"path"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// wildcardPath returns the route's trailing wildcard as an absolute, cleaned path.
func wildcardPath(c *fiber.Ctx) string {
	p := c.Params("*")
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return path.Clean("/" + p)
}

// queryInt reads a non-negative integer query parameter, or def when absent or invalid.
func queryInt(c *fiber.Ctx, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
