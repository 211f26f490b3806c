// webhooks.go
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
	"errors"

	"github.com/designsafe-ci/portal-data/internal/agave"
	"github.com/designsafe-ci/portal-data/internal/events"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/designsafe-ci/portal-data/internal/services"
	"github.com/designsafe-ci/portal-data/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// WebhooksHandler handles generic callbacks from running jobs
type WebhooksHandler struct {
	Events *events.Dispatcher
	Agave  *services.AgaveClients
	Log    *logger.Logger
}

// Generic handles POST /webhooks/
// @Summary Generic job webhook
// @Description Dispatches a VNC session event and stores its connection details as job metadata
// @Tags Webhooks
// @Accept x-www-form-urlencoded
// @Produce plain
// @Param event_type formData string true "Event type"
// @Param owner formData string true "Job owner"
// @Param host formData string false "VNC host"
// @Param port formData string false "VNC port"
// @Param password formData string false "VNC password, also the job uuid"
// @Success 200 {string} string "OK"
// @Failure 400 {string} string "Unexpected"
// @Router /webhooks/ [post]
func (h *WebhooksHandler) Generic(c *fiber.Ctx) error {
	if c.FormValue("event_type") != events.TypeVNC {
		return c.Status(fiber.StatusBadRequest).SendString("Unexpected")
	}

	owner := c.FormValue("owner")
	jobUUID := c.FormValue("password")
	body := map[string]any{
		"event_type":     events.TypeVNC,
		"job_owner":      owner,
		"host":           c.FormValue("host"),
		"port":           c.FormValue("port"),
		"password":       jobUUID,
		"associationIds": jobUUID,
	}

	ctx := c.UserContext()
	h.Events.SendRobust(ctx, events.Event{
		Sender: "generic_webhook_handler",
		Type:   events.TypeVNC,
		Data:   body,
	})

	client, err := h.Agave.ForUser(ctx, owner)
	if err != nil {
		h.Log.Error("vnc metadata skipped", "owner", owner, "error", err)
		return utils.PlainOK(c)
	}
	metaID, err := client.AddMetadata(ctx, agave.MetadataRecord{
		Name:           "interactiveJobDetails",
		Value:          body,
		AssociationIDs: []string{jobUUID},
	})
	var apiErr *agave.APIError
	if errors.As(err, &apiErr) {
		h.Log.Warn("vnc metadata rejected", "owner", owner, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(apiErr.Message)
	}
	if err != nil {
		h.Log.Error("vnc metadata failed", "owner", owner, "error", err)
		return utils.PlainOK(c)
	}

	h.Log.Info("vnc metadata stored", "owner", owner, "uuid", metaID)
	return utils.PlainOK(c)
}
