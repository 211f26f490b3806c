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

package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/designsafe-ci/portal-data/internal/events"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/designsafe-ci/portal-data/internal/models"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// ErrNotificationNotFound is returned when a notification pk does not
// belong to the user or is already deleted.
var ErrNotificationNotFound = errors.New("notification not found")

// DeleteAll is the pk that deletes every notification of a user.
const DeleteAll = "all"

type NotificationService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationService(db *gorm.DB, log *logger.Logger) *NotificationService {
	return &NotificationService{db: db, log: log.With("service", "NotificationService")}
}

// Create stores one notification for user.
func (s *NotificationService) Create(ctx context.Context, user, eventType string, body map[string]any) (*models.Notification, error) {
	payload, err := models.NewJSON(body)
	if err != nil {
		return nil, fmt.Errorf("encode notification body: %w", err)
	}
	n := &models.Notification{
		EventType:        eventType,
		User:             user,
		NotificationTime: time.Now().UTC(),
		Body:             payload,
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// List returns the user's notifications, newest first, and marks the unread
// ones as read. The returned rows keep the read state they had before.
func (s *NotificationService) List(ctx context.Context, user string) ([]models.Notification, error) {
	var items []models.Notification
	err := s.db.WithContext(ctx).
		Where("deleted = ? AND username = ?", false, user).
		Order("notification_time DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	var unread []uint64
	for _, n := range items {
		if !n.Read {
			unread = append(unread, n.ID)
		}
	}
	if len(unread) > 0 {
		err := s.db.WithContext(ctx).Model(&models.Notification{}).
			Where("id IN ?", unread).
			Update("is_read", true).Error
		if err != nil {
			return nil, fmt.Errorf("mark read: %w", err)
		}
		s.log.Debug("notifications marked read", "user", user, "count", len(unread))
	}
	return items, nil
}

// UnreadCount counts the user's unread, undeleted notifications. MySQL aborts
// the count after one second.
func (s *NotificationService) UnreadCount(ctx context.Context, user string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Clauses(hints.New("MAX_EXECUTION_TIME(1000)")).
		Where("deleted = ? AND is_read = ? AND username = ?", false, false, user).
		Count(&n).Error
	return n, err
}

// Delete soft-deletes one notification, or all of them when pk is DeleteAll,
// and returns the number of rows affected.
func (s *NotificationService) Delete(ctx context.Context, user, pk string) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("deleted = ? AND username = ?", false, user)

	if pk != DeleteAll {
		id, err := strconv.ParseUint(pk, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("pk %q: %w", pk, ErrNotificationNotFound)
		}
		q = q.Where("id = ?", id)
	}

	res := q.Update("deleted", true)
	if res.Error != nil {
		return 0, res.Error
	}
	if pk != DeleteAll && res.RowsAffected == 0 {
		return 0, fmt.Errorf("pk %s: %w", pk, ErrNotificationNotFound)
	}
	return res.RowsAffected, nil
}

// Receiver stores one notification per addressed user of an event.
func (s *NotificationService) Receiver() events.Receiver {
	return func(ctx context.Context, ev events.Event) error {
		var errs []error
		for _, user := range ev.Users {
			if _, err := s.Create(ctx, user, ev.Type, ev.Data); err != nil {
				errs = append(errs, fmt.Errorf("notify %s: %w", user, err))
			}
		}
		return errors.Join(errs...)
	}
}
