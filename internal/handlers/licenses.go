// licenses.go
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
	"github.com/designsafe-ci/portal-data/internal/middleware"
	"github.com/designsafe-ci/portal-data/internal/services"
	"github.com/designsafe-ci/portal-data/internal/utils"
	"github.com/gofiber/fiber/v2"
)

type LicensesHandler struct {
	Service *services.LicenseService
}

// List handles GET /api/licenses/
// @Summary User licenses
// @Tags Licenses
// @Produce json
// @Success 200 {array} models.License
// @Router /licenses/ [get]
func (h *LicensesHandler) List(c *fiber.Ctx) error {
	licenses, err := h.Service.ForUser(c.UserContext(), middleware.Username(c))
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "licenses.list")
	}
	return utils.SuccessResponse(c, licenses, fiber.StatusOK)
}
