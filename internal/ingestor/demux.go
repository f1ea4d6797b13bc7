package ingestor

import (
	"fmt"

	"github.com/5-VED/nest-notification-svc/internal/dispatcher"
	"github.com/5-VED/nest-notification-svc/internal/model"
)

// channelPtr and priorityPtr exist because SendNotificationData pins its
// optional fields with pointers.
func channelPtr(c model.Channel) *model.Channel   { return &c }
func priorityPtr(p model.Priority) *model.Priority { return &p }

// translate demultiplexes one topic event into a Dispatcher request, per
// the topic/eventType table in §4.7. ok is false for a recognised no-op
// (USER_UPDATED) or an event this service does not act on.
func translate(topic string, ev Event) (dispatcher.SendNotificationData, bool, error) {
	switch topic {
	case "user.events":
		switch ev.EventType {
		case "USER_REGISTERED":
			return dispatcher.SendNotificationData{
				UserID:   ev.UserID,
				Type:     model.TypeWelcome,
				Title:    "Welcome!",
				Message:  fmt.Sprintf("Welcome, %s!", ev.UserName),
				Channel:  channelPtr(model.ChannelEmail),
				Metadata: map[string]interface{}{"userName": ev.UserName},
			}, true, nil
		case "USER_UPDATED":
			return dispatcher.SendNotificationData{}, false, nil
		}

	case "auth.events":
		switch ev.EventType {
		case "PASSWORD_RESET_REQUESTED":
			return dispatcher.SendNotificationData{
				UserID:   ev.UserID,
				Type:     model.TypePasswordReset,
				Title:    "Reset your password",
				Message:  "A password reset was requested for your account.",
				Channel:  channelPtr(model.ChannelEmail),
				Priority: priorityPtr(model.PriorityHigh),
			}, true, nil
		case "EMAIL_VERIFICATION_REQUESTED":
			return dispatcher.SendNotificationData{
				UserID:  ev.UserID,
				Type:    model.TypeEmailVerification,
				Title:   "Verify your email",
				Message: "Please verify your email address.",
				Channel: channelPtr(model.ChannelEmail),
			}, true, nil
		}

	case "order.events":
		switch ev.EventType {
		case "ORDER_CREATED":
			return dispatcher.SendNotificationData{
				UserID:   ev.UserID,
				Type:     model.TypeOrderConfirmation,
				Title:    "Order confirmed",
				Message:  fmt.Sprintf("Your order %s has been confirmed.", ev.OrderID),
				Channel:  channelPtr(model.ChannelEmail),
				Metadata: map[string]interface{}{"orderId": ev.OrderID},
			}, true, nil
		case "ORDER_SHIPPED":
			return dispatcher.SendNotificationData{
				UserID:  ev.UserID,
				Type:    model.TypeOrderShipped,
				Title:   "Order shipped",
				Message: fmt.Sprintf("Your order %s has shipped.", ev.OrderID),
				Channel: channelPtr(model.ChannelPush),
				Metadata: map[string]interface{}{
					"orderId":        ev.OrderID,
					"trackingNumber": ev.TrackingNumber,
				},
			}, true, nil
		case "ORDER_DELIVERED":
			return dispatcher.SendNotificationData{
				UserID:  ev.UserID,
				Type:    model.TypeOrderDelivered,
				Title:   "Order delivered",
				Message: fmt.Sprintf("Your order %s was delivered.", ev.OrderID),
				Channel: channelPtr(model.ChannelPush),
			}, true, nil
		}

	case "payment.events":
		switch ev.EventType {
		case "PAYMENT_SUCCESS":
			return dispatcher.SendNotificationData{
				UserID:  ev.UserID,
				Type:    model.TypePaymentSuccess,
				Title:   "Payment received",
				Message: "Your payment was processed successfully.",
				Channel: channelPtr(model.ChannelEmail),
			}, true, nil
		case "PAYMENT_FAILED":
			return dispatcher.SendNotificationData{
				UserID:   ev.UserID,
				Type:     model.TypePaymentFailed,
				Title:    "Payment failed",
				Message:  "Your payment could not be processed.",
				Channel:  channelPtr(model.ChannelEmail),
				Priority: priorityPtr(model.PriorityHigh),
			}, true, nil
		}
	}

	return dispatcher.SendNotificationData{}, false, nil
}

// fromBulkItem adapts one notification.bulk entry into a Dispatcher
// request. An unrecognised channel or priority string is left nil so the
// Dispatcher applies its own defaults.
func fromBulkItem(item BulkItem) dispatcher.SendNotificationData {
	req := dispatcher.SendNotificationData{
		UserID:   item.UserID,
		Type:     model.NotificationType(item.Type),
		Title:    item.Title,
		Message:  item.Message,
		Metadata: item.Metadata,
	}
	if item.Channel != "" {
		req.Channel = channelPtr(model.Channel(item.Channel))
	}
	if item.Priority != "" {
		req.Priority = priorityPtr(model.Priority(item.Priority))
	}
	return req
}
