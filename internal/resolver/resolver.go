// Package resolver implements the Channel Resolver (C2): recipient
// address/token lookup, preference management, device-token management,
// and template lookup fronted by the Template Cache.
package resolver

import (
	"context"
	"log/slog"

	"github.com/5-VED/nest-notification-svc/internal/model"
	"github.com/5-VED/nest-notification-svc/internal/retry"
)

// ProfileFetcher looks up email/phone for a user from the external
// system-of-record. It is the one true source; the resolver only caches
// its answers.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, userID string) (model.RecipientProfile, error)
}

// ProfileCache fronts ProfileFetcher with a short-lived cache. Satisfied
// by *cache.ProfileCache in production.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (model.RecipientProfile, bool)
	Set(ctx context.Context, strategy retry.Strategy, p model.RecipientProfile) error
}

// TokenStore manages device-token registrations. Satisfied by
// *store.DeviceTokenStore in production.
type TokenStore interface {
	ActiveTokens(ctx context.Context, userID string) ([]string, error)
	Upsert(ctx context.Context, userID, token, platform string) error
	Deactivate(ctx context.Context, userID, token string) error
}

// PreferenceStore manages per-channel opt-in/opt-out rows. Satisfied by
// *store.PreferenceStore in production.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID string) ([]model.UserPreference, error)
	Upsert(ctx context.Context, userID string, channel model.Channel, enabled bool) error
}

// TemplateStore resolves the persisted template behind a cache miss.
// Satisfied by *store.TemplateStore in production.
type TemplateStore interface {
	GetActiveTemplate(ctx context.Context, t model.NotificationType, ch model.Channel) (model.NotificationTemplate, error)
}

// TemplateCache fronts TemplateStore with an in-process LRU. Satisfied by
// *cache.TemplateCache in production.
type TemplateCache interface {
	Get(t model.NotificationType, ch model.Channel) (model.NotificationTemplate, bool)
	Put(tmpl model.NotificationTemplate)
}

// Resolver implements C2. It owns the Template Cache directly (per the
// REDESIGN FLAGS note against global-state singletons) rather than
// reaching for a shared package-level instance.
type Resolver struct {
	profiles      ProfileFetcher
	profileCache  ProfileCache
	tokens        TokenStore
	prefs         PreferenceStore
	templates     TemplateStore
	templateCache TemplateCache
	retryStrategy retry.Strategy
	log           *slog.Logger
}

// New constructs a Resolver over its collaborators. log may be nil, in
// which case slog.Default() is used.
func New(
	profiles ProfileFetcher,
	profileCache ProfileCache,
	tokens TokenStore,
	prefs PreferenceStore,
	templates TemplateStore,
	templateCache TemplateCache,
	retryStrategy retry.Strategy,
	log *slog.Logger,
) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		profiles:      profiles,
		profileCache:  profileCache,
		tokens:        tokens,
		prefs:         prefs,
		templates:     templates,
		templateCache: templateCache,
		retryStrategy: retryStrategy,
		log:           log,
	}
}

// GetRecipient returns the destination for a channel: an email address, a
// phone number, or the list of active device tokens for PUSH. Read
// failures degrade to nil/empty rather than propagating, per §4.2's
// "reads swallow to null" policy — a lookup failure must not prevent
// higher components from choosing a fallback.
func (r *Resolver) GetRecipient(ctx context.Context, userID string, channel model.Channel) (email string, phone string, pushTokens []string) {
	switch channel {
	case model.ChannelPush:
		tokens, err := r.tokens.ActiveTokens(ctx, userID)
		if err != nil {
			r.log.Warn("active tokens lookup failed", "userId", userID, "error", err)
			return "", "", nil
		}
		return "", "", tokens
	case model.ChannelEmail, model.ChannelSMS:
		profile, err := r.fetchProfile(ctx, userID)
		if err != nil {
			r.log.Warn("profile lookup failed", "userId", userID, "error", err)
			return "", "", nil
		}
		if channel == model.ChannelEmail {
			return profile.Email, "", nil
		}
		return "", profile.Phone, nil
	default:
		return "", "", nil
	}
}

func (r *Resolver) fetchProfile(ctx context.Context, userID string) (model.RecipientProfile, error) {
	if r.profileCache != nil {
		if p, ok := r.profileCache.Get(ctx, userID); ok {
			return p, nil
		}
	}

	p, err := r.profiles.FetchProfile(ctx, userID)
	if err != nil {
		return model.RecipientProfile{}, err
	}

	if r.profileCache != nil {
		if err := r.profileCache.Set(ctx, r.retryStrategy, p); err != nil {
			r.log.Warn("failed to cache profile", "userId", userID, "error", err)
		}
	}

	return p, nil
}

// GetPreferences returns every (channel, isEnabled) row for a user. A read
// failure degrades to an empty slice, which the Dispatcher's policy treats
// the same as "no preference rows" (all channels enabled).
func (r *Resolver) GetPreferences(ctx context.Context, userID string) []model.UserPreference {
	prefs, err := r.prefs.GetPreferences(ctx, userID)
	if err != nil {
		r.log.Warn("preferences lookup failed", "userId", userID, "error", err)
		return nil
	}
	return prefs
}

// UpsertPreference creates or updates a preference row. Writes surface
// their error rather than degrading, per §4.2.
func (r *Resolver) UpsertPreference(ctx context.Context, userID string, channel model.Channel, enabled bool) error {
	return r.prefs.Upsert(ctx, userID, channel, enabled)
}

// UpsertDeviceToken creates a token registration, or on conflict marks it
// active again and refreshes its platform.
func (r *Resolver) UpsertDeviceToken(ctx context.Context, userID, token, platform string) error {
	return r.tokens.Upsert(ctx, userID, token, platform)
}

// DeactivateDeviceToken marks a token inactive.
func (r *Resolver) DeactivateDeviceToken(ctx context.Context, userID, token string) error {
	return r.tokens.Deactivate(ctx, userID, token)
}

// GetTemplate returns the active template for (type, channel), consulting
// the Template Cache first and falling back to the store on a miss. It
// returns (zero, false) when no active template exists; that is not an
// error, since the worker falls back to the raw job title/message.
func (r *Resolver) GetTemplate(ctx context.Context, t model.NotificationType, ch model.Channel) (model.NotificationTemplate, bool) {
	if tmpl, ok := r.templateCache.Get(t, ch); ok {
		return tmpl, true
	}

	tmpl, err := r.templates.GetActiveTemplate(ctx, t, ch)
	if err != nil {
		return model.NotificationTemplate{}, false
	}

	r.templateCache.Put(tmpl)
	return tmpl, true
}
