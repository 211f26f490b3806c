// box.go
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
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/designsafe-ci/portal-data/internal/middleware"
	"github.com/designsafe-ci/portal-data/internal/services"
	"github.com/designsafe-ci/portal-data/internal/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

const (
	boxIndexPath   = "/box/"
	boxStateKey    = "box_state"
	errorTypeBoxOA = "box.oauth2"
)

// BoxHandler handles the Box.com connection pages
type BoxHandler struct {
	Service  *services.BoxService
	Sessions *session.Store
	Log      *logger.Logger
}

// Index handles GET /box/
// @Summary Box connection status
// @Tags Box
// @Produce json
// @Success 200 {object} services.BoxStatus
// @Router /box/ [get]
func (h *BoxHandler) Index(c *fiber.Ctx) error {
	status, err := h.Service.Status(c.UserContext(), middleware.Username(c))
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "box.index")
	}
	return c.Status(fiber.StatusOK).JSON(status)
}

// Initialize handles GET /box/initialize/
// @Summary Start the Box authorization
// @Description Redirects to Box with a fresh state kept in the session
// @Tags Box
// @Success 302
// @Router /box/initialize/ [get]
func (h *BoxHandler) Initialize(c *fiber.Ctx) error {
	sess, err := h.Sessions.Get(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "box.session")
	}
	state := uuid.NewString()
	sess.Set(boxStateKey, state)
	if err := sess.Save(); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "box.session")
	}
	return c.Redirect(h.Service.AuthCodeURL(state), fiber.StatusFound)
}

// OAuth2Callback handles GET /box/oauth2/
// @Summary Box authorization callback
// @Description Checks the state, exchanges the code and stores the user's tokens
// @Tags Box
// @Param code query string true "Authorization code"
// @Param state query string true "State from initialize"
// @Success 302
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /box/oauth2/ [get]
func (h *BoxHandler) OAuth2Callback(c *fiber.Ctx) error {
	if reason := c.Query("error"); reason != "" {
		return utils.ErrorResponse(c, "Box authorization denied: "+reason, fiber.StatusBadRequest, errorTypeBoxOA)
	}

	sess, err := h.Sessions.Get(c)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "box.session")
	}
	expected, _ := sess.Get(boxStateKey).(string)
	if expected == "" || c.Query("state") != expected {
		return utils.ErrorResponse(c, "Invalid authorization state", fiber.StatusBadRequest, errorTypeBoxOA)
	}
	sess.Delete(boxStateKey)
	if err := sess.Save(); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "box.session")
	}

	user := middleware.Username(c)
	if _, err := h.Service.Connect(c.UserContext(), user, c.Query("code")); err != nil {
		h.Log.Error("box connect failed", "user", user, "error", err)
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, errorTypeBoxOA)
	}
	return c.Redirect(boxIndexPath, fiber.StatusFound)
}

// DisconnectConfirm handles GET /box/disconnect/
// @Summary Box disconnect confirmation
// @Tags Box
// @Produce json
// @Success 200 {object} services.BoxStatus
// @Router /box/disconnect/ [get]
func (h *BoxHandler) DisconnectConfirm(c *fiber.Ctx) error {
	return h.Index(c)
}

// Disconnect handles POST /box/disconnect/
// @Summary Disconnect Box
// @Description Removes the user's Box tokens and stream position
// @Tags Box
// @Success 302
// @Router /box/disconnect/ [post]
func (h *BoxHandler) Disconnect(c *fiber.Ctx) error {
	user := middleware.Username(c)
	if err := h.Service.Disconnect(c.UserContext(), user); err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "box.disconnect")
	}
	h.Log.Info("box disconnected", "user", user)
	return c.Redirect(boxIndexPath, fiber.StatusFound)
}
