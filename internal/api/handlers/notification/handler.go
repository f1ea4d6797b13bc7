// Package notification implements the REST admin surface's HTTP
// handlers, the gin-based counterpart to the RPC surface in
// internal/rpc, generalized from the teacher's single Create/GetStatus/
// Cancel handler set to the full admin DTO surface.
package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/5-VED/nest-notification-svc/internal/api/dto"
	"github.com/5-VED/nest-notification-svc/internal/api/respond"
	"github.com/5-VED/nest-notification-svc/internal/apperr"
	"github.com/5-VED/nest-notification-svc/internal/cache"
	"github.com/5-VED/nest-notification-svc/internal/dispatcher"
	"github.com/5-VED/nest-notification-svc/internal/model"
)

// Dispatcher is the slice of the Dispatcher the admin surface drives.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatcher.SendNotificationData) (model.Notification, error)
	RetryFailed(ctx context.Context) (int, error)
}

// StatusReader answers GET /notifications/:id.
type StatusReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.Notification, error)
}

// PreferenceWriter backs the preferences and device-token endpoints.
type PreferenceWriter interface {
	UpsertPreference(ctx context.Context, userID string, channel model.Channel, enabled bool) error
	UpsertDeviceToken(ctx context.Context, userID, token, platform string) error
	DeactivateDeviceToken(ctx context.Context, userID, token string) error
}

// TemplateReader backs the template preview endpoint. Satisfied by
// *resolver.Resolver in production.
type TemplateReader interface {
	GetTemplate(ctx context.Context, t model.NotificationType, ch model.Channel) (model.NotificationTemplate, bool)
}

type Handler struct {
	dispatcher Dispatcher
	statuses   StatusReader
	prefs      PreferenceWriter
	templates  TemplateReader
	validator  *validator.Validate
	log        *slog.Logger
}

func NewHandler(d Dispatcher, statuses StatusReader, prefs PreferenceWriter, templates TemplateReader, v *validator.Validate, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{dispatcher: d, statuses: statuses, prefs: prefs, templates: templates, validator: v, log: log}
}

// Send handles POST /api/notifications.
func (h *Handler) Send(c *gin.Context) {
	var req dto.SendNotificationDto
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	n, err := h.dispatcher.Dispatch(c.Request.Context(), fromDto(req))
	if err != nil {
		h.handleDispatchError(c, err)
		return
	}

	respond.Created(c, n)
}

// SendBulk handles POST /api/notifications/bulk.
func (h *Handler) SendBulk(c *gin.Context) {
	var req dto.BulkNotificationsDto
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}
	if !req.Valid() {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("notifications must contain between 1 and 10000 items"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	created := make([]model.Notification, 0, len(req.Notifications))
	failed := 0
	for _, item := range req.Notifications {
		n, err := h.dispatcher.Dispatch(c.Request.Context(), fromDto(item))
		if err != nil {
			h.log.Warn("bulk item dispatch failed", "userId", item.UserID, "error", err)
			failed++
			continue
		}
		created = append(created, n)
	}

	respond.OK(c, gin.H{
		"successCount": len(created),
		"failureCount": failed,
		"notifications": created,
	})
}

// Status handles GET /api/notifications/:id.
func (h *Handler) Status(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}

	n, err := h.statuses.GetByID(c.Request.Context(), id)
	if err != nil {
		respond.Fail(c, http.StatusNotFound, fmt.Errorf("notification not found"))
		return
	}

	respond.OK(c, n)
}

// RetryFailed handles POST /api/notifications/retry.
func (h *Handler) RetryFailed(c *gin.Context) {
	count, err := h.dispatcher.RetryFailed(c.Request.Context())
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}
	respond.OK(c, gin.H{"retried": count})
}

// UpdatePreferences handles PUT /api/users/:userId/preferences.
func (h *Handler) UpdatePreferences(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("missing userId"))
		return
	}

	var req dto.UpdatePreferencesDto
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	if err := h.prefs.UpsertPreference(c.Request.Context(), userID, model.Channel(req.Channel), req.IsEnabled); err != nil {
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c, gin.H{"userId": userID, "channel": req.Channel, "isEnabled": req.IsEnabled})
}

// RegisterDeviceToken handles POST /api/users/:userId/device-tokens.
func (h *Handler) RegisterDeviceToken(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("missing userId"))
		return
	}

	var req dto.DeviceTokenDto
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	if err := h.prefs.UpsertDeviceToken(c.Request.Context(), userID, req.Token, req.Platform); err != nil {
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.Created(c, gin.H{"userId": userID, "token": req.Token, "platform": req.Platform})
}

// DeactivateDeviceToken handles DELETE /api/users/:userId/device-tokens/:token.
func (h *Handler) DeactivateDeviceToken(c *gin.Context) {
	userID := c.Param("userId")
	token := c.Param("token")
	if userID == "" || token == "" {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("missing userId or token"))
		return
	}

	if err := h.prefs.DeactivateDeviceToken(c.Request.Context(), userID, token); err != nil {
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c, gin.H{"deactivated": true})
}

// previewPage wraps a rendered template's title/message/HTML body into a
// minimal standalone document. html/template auto-escapes Title and
// Message; HTML is the template's own authored markup, inserted as-is,
// into which PreviewTemplate substitutes HTML-escaped variable values. A
// variable value therefore never injects markup into the preview even
// though the token substitution in internal/cache.Render leaves raw text
// as-is.
var previewPage = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
{{if .HTML}}<hr>{{.HTML}}{{end}}
</body></html>`))

// PreviewTemplate handles POST /api/templates/preview. It renders the
// active template for (type, channel) against sample variables and
// returns an HTML document, without dispatching anything.
func (h *Handler) PreviewTemplate(c *gin.Context) {
	var req dto.PreviewTemplateDto
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	tmpl, ok := h.templates.GetTemplate(c.Request.Context(), model.NotificationType(req.Type), model.Channel(req.Channel))
	if !ok {
		respond.Fail(c, http.StatusNotFound, fmt.Errorf("no active template for %s/%s", req.Type, req.Channel))
		return
	}

	title, message, _ := cache.Render(tmpl.Title, tmpl.Message, "", req.Variables)
	escaped := make(map[string]interface{}, len(req.Variables))
	for k, v := range req.Variables {
		escaped[k] = template.HTMLEscapeString(fmt.Sprintf("%v", v))
	}
	_, _, html := cache.Render("", "", tmpl.HTMLContent, escaped)

	var buf bytes.Buffer
	if err := previewPage.Execute(&buf, struct {
		Title, Message string
		HTML           template.HTML
	}{Title: title, Message: message, HTML: template.HTML(html)}); err != nil {
		h.log.Error("template preview render failed", "error", err)
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) handleDispatchError(c *gin.Context, err error) {
	if errors.Is(err, apperr.ErrInvalidArgument) {
		respond.Fail(c, http.StatusBadRequest, err)
		return
	}
	h.log.Error("dispatch failed", "error", err)
	respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("internal server error"))
}

func fromDto(req dto.SendNotificationDto) dispatcher.SendNotificationData {
	data := dispatcher.SendNotificationData{
		UserID:      req.UserID,
		Type:        model.NotificationType(req.Type),
		Title:       req.Title,
		Message:     req.Message,
		Metadata:    req.Metadata,
		ScheduledAt: req.ScheduledAt,
	}
	if req.Channel != "" {
		ch := model.Channel(req.Channel)
		data.Channel = &ch
	}
	if req.Priority != "" {
		p := model.Priority(req.Priority)
		data.Priority = &p
	}
	return data
}
