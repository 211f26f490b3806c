// notification.go
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

package models

import (
	"time"
)

// Notification is one event delivered to one user.
type Notification struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	EventType        string    `gorm:"size:255;not null;index" json:"event_type"`
	User             string    `gorm:"column:username;size:255;not null;index" json:"user"`
	Read             bool      `gorm:"column:is_read;not null;default:false" json:"read"`
	Deleted          bool      `gorm:"not null;default:false;index" json:"deleted"`
	NotificationTime time.Time `gorm:"not null;index" json:"notification_time"`
	Body             JSON      `json:"body"`
}

// TableName overrides the table name for Notification
func (Notification) TableName() string {
	return "notifications_notification"
}

// SerializedNotification is the wire form of a notification list entry.
type SerializedNotification struct {
	Model  string       `json:"model"`
	PK     uint64       `json:"pk"`
	Fields Notification `json:"fields"`
}

// Serialize renders notifications in model/pk/fields form.
func Serialize(items []Notification) []SerializedNotification {
	out := make([]SerializedNotification, len(items))
	for i, n := range items {
		out[i] = SerializedNotification{
			Model:  "notifications.notification",
			PK:     n.ID,
			Fields: n,
		}
	}
	return out
}
