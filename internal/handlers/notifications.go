// notifications.go
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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/designsafe-ci/portal-data/internal/agave"
	"github.com/designsafe-ci/portal-data/internal/events"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/designsafe-ci/portal-data/internal/middleware"
	"github.com/designsafe-ci/portal-data/internal/models"
	"github.com/designsafe-ci/portal-data/internal/services"
	"github.com/designsafe-ci/portal-data/internal/types"
	"github.com/designsafe-ci/portal-data/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// NotificationsHandler handles job callbacks and the user's notification list
type NotificationsHandler struct {
	Service *services.NotificationService
	Events  *events.Dispatcher
	Log     *logger.Logger
}

// formJob collects the job fields of a form callback, leaving out the empty
// ones so that the job model applies its defaults.
func formJob(c *fiber.Ctx) map[string]any {
	raw := make(map[string]any)
	for key, form := range map[string]string{
		"id":          "job_id",
		"name":        "job_name",
		"owner":       "job_owner",
		"status":      "status",
		"archivePath": "archivePath",
	} {
		if v := c.FormValue(form); v != "" {
			raw[key] = v
		}
	}
	return raw
}

// JobWebhook handles POST /notifications/jobs/
// @Summary Job status callback
// @Description Receives a job status notification and dispatches it to the job owner
// @Tags Notifications
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce plain
// @Param event query string false "Job event"
// @Param job_id query string false "Job id"
// @Success 200 {string} string "OK"
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /notifications/jobs/ [post]
func (h *NotificationsHandler) JobWebhook(c *fiber.Ctx) error {
	var raw map[string]any
	event := c.Query("event")
	if err := json.Unmarshal(c.Body(), &raw); err != nil || raw == nil {
		// mocked callbacks post the same fields as a form
		raw = formJob(c)
		event = c.FormValue("event")
	}

	job, err := agave.DecodeJob(raw)
	if err != nil {
		h.Log.Warn("rejected job notification", "error", err)
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "notifications.validation.job")
	}
	if job.ID == "" {
		job.ID = c.Query("job_id")
	}

	body := map[string]any{
		"job_name":     job.Name,
		"job_id":       job.ID,
		"event":        event,
		"status":       job.Status,
		"archive_path": job.ArchivePath,
		"job_owner":    job.Owner,
	}
	h.Log.Info("job notification", "job_id", job.ID, "event", event, "owner", job.Owner)

	h.Events.SendRobust(c.UserContext(), events.Event{
		Sender: "job_notification_handler",
		Type:   events.TypeJob,
		Data:   body,
		Users:  []string{job.Owner},
	})
	return utils.PlainOK(c)
}

// List handles GET /notifications/notifications/
// @Summary List notifications
// @Description Lists the user's notifications, newest first, and marks them read
// @Tags Notifications
// @Produce json
// @Success 200 {array} models.SerializedNotification
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /notifications/notifications/ [get]
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	items, err := h.Service.List(c.UserContext(), middleware.Username(c))
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "notifications.list")
	}
	return c.Status(fiber.StatusOK).JSON(models.Serialize(items))
}

// Unread handles GET /notifications/unread/
// @Summary Unread notification count
// @Tags Notifications
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /notifications/unread/ [get]
func (h *NotificationsHandler) Unread(c *fiber.Ctx) error {
	n, err := h.Service.UnreadCount(c.UserContext(), middleware.Username(c))
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "notifications.unread")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"unread": n})
}

// Delete handles POST|DELETE /notifications/delete/
// @Summary Delete notifications
// @Description Soft-deletes one notification by pk, or all of them with pk "all"
// @Tags Notifications
// @Accept json
// @Produce plain
// @Param body body object true "{\"pk\": <id>|\"all\"}"
// @Success 200 {string} string "OK"
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /notifications/delete/ [post]
func (h *NotificationsHandler) Delete(c *fiber.Ctx) error {
	var body struct {
		PK types.FlexString `json:"pk"`
	}
	if err := c.BodyParser(&body); err != nil || body.PK == "" {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "notifications.validation.input")
	}

	user := middleware.Username(c)
	affected, err := h.Service.Delete(c.UserContext(), user, body.PK.String())
	if errors.Is(err, services.ErrNotificationNotFound) {
		return utils.NotFoundResponse(c, fmt.Sprintf("Notification '%s' not found", body.PK))
	}
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "notifications.delete")
	}
	h.Log.Debug("notifications deleted", "user", user, "pk", body.PK.String(), "affected", affected)
	return utils.PlainOK(c)
}
