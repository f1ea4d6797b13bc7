// Package dto holds the request/response shapes for the REST admin
// surface, validated with go-playground/validator the way the teacher
// validates its CreateRequest.
package dto

import "time"

// maxBulkNotifications bounds a single BulkNotificationsDto submission.
const maxBulkNotifications = 10000

type SendNotificationDto struct {
	UserID      string                 `json:"userId" validate:"required"`
	Type        string                 `json:"type" validate:"required"`
	Title       string                 `json:"title" validate:"required,max=200"`
	Message     string                 `json:"message" validate:"required"`
	Channel     string                 `json:"channel,omitempty" validate:"omitempty,oneof=EMAIL PUSH SMS"`
	Priority    string                 `json:"priority,omitempty" validate:"omitempty,oneof=LOW NORMAL HIGH URGENT"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	ScheduledAt *time.Time             `json:"scheduledAt,omitempty"`
}

type BulkNotificationsDto struct {
	Notifications []SendNotificationDto `json:"notifications" validate:"required,min=1,max=10000,dive"`
}

// Valid reports whether the batch is within the accepted size, matching
// the max=10000 tag but kept as a named check so handlers can return a
// specific error message instead of validator's generic one.
func (b BulkNotificationsDto) Valid() bool {
	return len(b.Notifications) > 0 && len(b.Notifications) <= maxBulkNotifications
}

type UpdatePreferencesDto struct {
	Channel   string `json:"channel" validate:"required,oneof=EMAIL PUSH SMS"`
	IsEnabled bool   `json:"isEnabled"`
}

type DeviceTokenDto struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=IOS ANDROID WEB"`
}

// PreviewTemplateDto requests a rendered preview of the active template
// for (type, channel) against a set of sample variables, without sending
// anything.
type PreviewTemplateDto struct {
	Type      string                 `json:"type" validate:"required"`
	Channel   string                 `json:"channel" validate:"required,oneof=EMAIL PUSH SMS"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}
