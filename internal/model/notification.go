// Package model holds the entities persisted by the Notification Store.
package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType enumerates the recognised semantic types of a Notification.
type NotificationType string

const (
	TypeWelcome           NotificationType = "WELCOME"
	TypePasswordReset     NotificationType = "PASSWORD_RESET"
	TypeEmailVerification NotificationType = "EMAIL_VERIFICATION"
	TypeOrderConfirmation NotificationType = "ORDER_CONFIRMATION"
	TypeOrderShipped      NotificationType = "ORDER_SHIPPED"
	TypeOrderDelivered    NotificationType = "ORDER_DELIVERED"
	TypePaymentSuccess    NotificationType = "PAYMENT_SUCCESS"
	TypePaymentFailed     NotificationType = "PAYMENT_FAILED"
)

// Channel identifies a transport family a Notification can be delivered over.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelPush  Channel = "PUSH"
	ChannelSMS   Channel = "SMS"
)

// Priority controls dequeue order within a channel's work queue.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// PriorityWeight maps a Priority to its integer queue score; higher wins.
func PriorityWeight(p Priority) int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityHigh:
		return 10
	case PriorityUrgent:
		return 20
	default:
		return 5 // NORMAL, and any unrecognised value
	}
}

// Status is the Notification lifecycle state.
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusProcessing Status = "PROCESSING"
	StatusSent       Status = "SENT"
	StatusFailed     Status = "FAILED"
)

// MaxRetries bounds how many times a FAILED notification may re-enter QUEUED.
const MaxRetries = 3

// Notification is the unit of work tracked end to end by the dispatcher.
type Notification struct {
	ID           uuid.UUID              `json:"id"`
	UserID       string                 `json:"user_id"`
	Type         NotificationType       `json:"type"`
	Channel      Channel                `json:"channel"`
	Title        string                 `json:"title"`
	Body         string                 `json:"body"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Priority     Priority               `json:"priority"`
	ScheduledAt  *time.Time             `json:"scheduled_at,omitempty"`
	Status       Status                 `json:"status"`
	RetryCount   int                    `json:"retry_count"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	SentAt       *time.Time             `json:"sent_at,omitempty"`
	FailedAt     *time.Time             `json:"failed_at,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
}

// NotificationDelivery is one channel's independent delivery attempt for a
// Notification. A fan-out Notification (e.g. ORDER_CONFIRMATION going to
// both EMAIL and PUSH) produces one NotificationDelivery per target
// channel, each with its own id and its own QUEUED→PROCESSING→SENT/FAILED
// state machine, so that concurrent channel workers never contend on a
// single shared status field. It carries its own copy of the deliverable
// content so a retry or a queue rehydration never needs a second Store
// read to reconstruct the job, mirroring the Job record's denormalization.
type NotificationDelivery struct {
	ID             uuid.UUID              `json:"id"`
	NotificationID uuid.UUID              `json:"notification_id"`
	UserID         string                 `json:"user_id"`
	Type           NotificationType       `json:"type"`
	Channel        Channel                `json:"channel"`
	Title          string                 `json:"title"`
	Body           string                 `json:"body"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	Priority       Priority               `json:"priority"`
	Status         Status                 `json:"status"`
	RetryCount     int                    `json:"retry_count"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	SentAt         *time.Time             `json:"sent_at,omitempty"`
	FailedAt       *time.Time             `json:"failed_at,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
}

// UserPreference is a per (userId, channel) opt-in/opt-out row.
type UserPreference struct {
	UserID    string  `json:"user_id"`
	Channel   Channel `json:"channel"`
	IsEnabled bool    `json:"is_enabled"`
}

// DeviceToken is a per (userId, token) push registration.
type DeviceToken struct {
	UserID   string `json:"user_id"`
	Token    string `json:"token"`
	Platform string `json:"platform"`
	IsActive bool   `json:"is_active"`
}

// NotificationTemplate is the active (type, channel) rendering source.
type NotificationTemplate struct {
	Type        NotificationType `json:"type"`
	Channel     Channel          `json:"channel"`
	IsActive    bool             `json:"is_active"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	HTMLContent string           `json:"html_content,omitempty"`
}

// RecipientProfile is the read-only projection of a user fetched from the
// system-of-record for email/phone lookups.
type RecipientProfile struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}

// DefaultChannelsForType returns the type→default-channel mapping used by
// the Dispatcher when a request does not pin a channel.
func DefaultChannelsForType(t NotificationType) []Channel {
	switch t {
	case TypeWelcome, TypePasswordReset, TypeEmailVerification, TypePaymentSuccess:
		return []Channel{ChannelEmail}
	case TypeOrderConfirmation:
		return []Channel{ChannelEmail, ChannelPush}
	case TypeOrderShipped:
		return []Channel{ChannelPush, ChannelSMS}
	case TypeOrderDelivered:
		return []Channel{ChannelPush}
	case TypePaymentFailed:
		return []Channel{ChannelEmail, ChannelPush}
	default:
		return []Channel{ChannelEmail}
	}
}
