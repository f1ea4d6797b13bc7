package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/5-VED/nest-notification-svc/internal/apperr"
	"github.com/5-VED/nest-notification-svc/internal/cache"
	"github.com/5-VED/nest-notification-svc/internal/model"
	"github.com/5-VED/nest-notification-svc/internal/queue"
	"github.com/5-VED/nest-notification-svc/pkg/push"
)

// Resolver is the slice of the Channel Resolver a Deliverer needs.
type Resolver interface {
	GetRecipient(ctx context.Context, userID string, channel model.Channel) (email, phone string, pushTokens []string)
	GetTemplate(ctx context.Context, t model.NotificationType, ch model.Channel) (model.NotificationTemplate, bool)
}

// EmailSender is satisfied by *pkg/email.Client.
type EmailSender interface {
	Send(ctx context.Context, to, subject, textBody, html string) error
}

// SMSSender is satisfied by *pkg/sms.Client.
type SMSSender interface {
	Send(ctx context.Context, to, message string) error
}

// PushSender is satisfied by *pkg/push.Client.
type PushSender interface {
	Send(ctx context.Context, tokens []string, title, message string) (error, []push.TokenResult)
}

func renderJob(resolver Resolver, ctx context.Context, job queue.Job) (title, message, html string) {
	tmpl, ok := resolver.GetTemplate(ctx, job.Type, job.Channel)
	if !ok {
		return job.Title, job.Message, ""
	}

	vars := make(map[string]interface{}, len(job.Metadata)+2)
	for k, v := range job.Metadata {
		vars[k] = v
	}
	vars["title"] = job.Title
	vars["message"] = job.Message

	return cache.Render(tmpl.Title, tmpl.Message, tmpl.HTMLContent, vars)
}

// EmailDeliverer implements Deliverer for the EMAIL channel.
type EmailDeliverer struct {
	resolver Resolver
	sender   EmailSender
}

// NewEmailDeliverer wires a Channel Resolver and SMTP sender.
func NewEmailDeliverer(resolver Resolver, sender EmailSender) *EmailDeliverer {
	return &EmailDeliverer{resolver: resolver, sender: sender}
}

func (d *EmailDeliverer) Deliver(ctx context.Context, job queue.Job) error {
	email, _, _ := d.resolver.GetRecipient(ctx, job.UserID, model.ChannelEmail)
	if email == "" {
		return apperr.ErrRecipientMissing
	}

	title, message, html := renderJob(d.resolver, ctx, job)

	if err := d.sender.Send(ctx, email, title, message, html); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrAdapterTransient, err)
	}
	return nil
}

// SMSDeliverer implements Deliverer for the SMS channel.
type SMSDeliverer struct {
	resolver Resolver
	sender   SMSSender
}

// NewSMSDeliverer wires a Channel Resolver and SMS gateway client.
func NewSMSDeliverer(resolver Resolver, sender SMSSender) *SMSDeliverer {
	return &SMSDeliverer{resolver: resolver, sender: sender}
}

func (d *SMSDeliverer) Deliver(ctx context.Context, job queue.Job) error {
	_, phone, _ := d.resolver.GetRecipient(ctx, job.UserID, model.ChannelSMS)
	if phone == "" {
		return apperr.ErrRecipientMissing
	}

	_, message, _ := renderJob(d.resolver, ctx, job)

	if err := d.sender.Send(ctx, phone, message); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrAdapterTransient, err)
	}
	return nil
}

// PushDeactivator lets the PushDeliverer drop device tokens the gateway
// reports as permanently invalid, independent of overall job outcome.
type PushDeactivator interface {
	DeactivateDeviceToken(ctx context.Context, userID, token string) error
}

// PushDeliverer implements Deliverer for the PUSH channel.
type PushDeliverer struct {
	resolver    Resolver
	sender      PushSender
	deactivator PushDeactivator
	log         *slog.Logger
}

// NewPushDeliverer wires a Channel Resolver, push gateway client, and the
// device-token store used to drop permanently invalid tokens.
func NewPushDeliverer(resolver Resolver, sender PushSender, deactivator PushDeactivator, log *slog.Logger) *PushDeliverer {
	if log == nil {
		log = slog.Default()
	}
	return &PushDeliverer{resolver: resolver, sender: sender, deactivator: deactivator, log: log}
}

func (d *PushDeliverer) Deliver(ctx context.Context, job queue.Job) error {
	_, _, tokens := d.resolver.GetRecipient(ctx, job.UserID, model.ChannelPush)
	if len(tokens) == 0 {
		return apperr.ErrRecipientMissing
	}

	title, message, _ := renderJob(d.resolver, ctx, job)

	err, results := d.sender.Send(ctx, tokens, title, message)
	d.deactivatePermanent(ctx, job.UserID, results)

	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrAdapterTransient, err)
	}
	return nil
}

// deactivatePermanent drops every token the gateway reported permanently
// invalid, independent of whether the overall job succeeded or failed.
func (d *PushDeliverer) deactivatePermanent(ctx context.Context, userID string, results []push.TokenResult) {
	for _, r := range results {
		if !r.Permanent {
			continue
		}
		if err := d.deactivator.DeactivateDeviceToken(ctx, userID, r.Token); err != nil {
			d.log.Warn("failed to deactivate invalid push token", "userId", userID, "token", r.Token, "error", err)
		}
	}
}
