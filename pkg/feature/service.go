package feature

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Config carries the tunable knobs of the feature service.
type Config struct {
	// CacheTTL is how long a populated read cache stays valid.
	CacheTTL time.Duration `env:"FEATURE_CACHE_TTL" envDefault:"5m"`
	// SystemTelegramID attributes events written by the platform itself,
	// e.g. emergency disables.
	SystemTelegramID int64 `env:"FEATURE_SYSTEM_TELEGRAM_ID" envDefault:"0"`
}

// Service owns feature flag definitions: CRUD over the store with a
// short-lived read cache, per-user enablement decisions, usage logging,
// and analytics aggregation.
//
// Public methods never return errors. Store failures are logged and
// collapse to false/nil/empty results, so callers check for falsy
// values rather than handling errors. Decisions themselves are pure and
// safe under unlimited concurrency.
type Service struct {
	store       Store
	cache       *flagCache
	log         *slog.Logger
	resolveUser UserResolver
	systemTgID  int64
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger. Nil loggers are ignored.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithUserResolver sets the best-effort Telegram-to-internal user lookup
// used by usage logging.
func WithUserResolver(r UserResolver) Option {
	return func(s *Service) {
		s.resolveUser = r
	}
}

// WithCacheTTL overrides the default 5 minute cache lifetime.
// Non-positive values are ignored.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cache = newFlagCache(ttl)
		}
	}
}

// WithSystemTelegramID sets the sentinel user id that system-originated
// events (emergency disables) are attributed to.
func WithSystemTelegramID(id int64) Option {
	return func(s *Service) {
		s.systemTgID = id
	}
}

// NewService creates a feature service over the given store.
func NewService(store Store, opts ...Option) *Service {
	if store == nil {
		panic("feature: store cannot be nil")
	}

	s := &Service{
		store: store,
		cache: newFlagCache(5 * time.Minute),
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewServiceFromConfig creates a feature service using Config values.
func NewServiceFromConfig(store Store, cfg Config, opts ...Option) *Service {
	base := []Option{
		WithCacheTTL(cfg.CacheTTL),
		WithSystemTelegramID(cfg.SystemTelegramID),
	}
	return NewService(store, append(base, opts...)...)
}

// Create inserts a new feature definition. The store's uniqueness
// constraint is the sole guard against id collisions. The whole read
// cache is dropped on success.
func (s *Service) Create(ctx context.Context, f *Feature) bool {
	if f == nil || f.ID == "" {
		s.log.WarnContext(ctx, "rejected feature create", "reason", "missing id")
		return false
	}

	now := s.now()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = f.CreatedAt
	}

	if err := s.store.InsertFeature(ctx, f); err != nil {
		s.log.ErrorContext(ctx, "feature create failed", "feature_id", f.ID, "error", err)
		return false
	}

	s.cache.invalidate()
	s.log.InfoContext(ctx, "feature created", "feature_id", f.ID, "state", string(f.State))
	return true
}

// Update applies a partial patch to the feature. Returns false when the
// store reports no affected row; the cache is only invalidated on
// success, so a failed update leaves cached reads untouched.
func (s *Service) Update(ctx context.Context, id string, p Patch) bool {
	if id == "" || p.IsZero() {
		return false
	}

	ok, err := s.store.UpdateFeature(ctx, id, p, s.now())
	if err != nil {
		s.log.ErrorContext(ctx, "feature update failed", "feature_id", id, "error", err)
		return false
	}
	if !ok {
		return false
	}

	s.cache.invalidate()
	return true
}

// Delete soft-deletes the feature. The row stays in the store for audit
// retention; it simply stops being visible to reads and decisions.
func (s *Service) Delete(ctx context.Context, id string) bool {
	inactive := false
	return s.Update(ctx, id, Patch{IsActive: &inactive})
}

// Get returns the active feature with the given id, or nil. Reads are
// cache-first; a miss or an expired cache goes to the store and
// repopulates. Negative lookups are never cached.
func (s *Service) Get(ctx context.Context, id string) *Feature {
	now := s.now()
	if f, ok := s.cache.get(id, now); ok {
		return f
	}

	f, err := s.store.GetFeature(ctx, id)
	if err != nil {
		if !IsNotFound(err) {
			s.log.ErrorContext(ctx, "feature read failed", "feature_id", id, "error", err)
		}
		return nil
	}

	s.cache.put(id, f, now)
	return f
}

// GetAll returns all active features, always bypassing the cache.
func (s *Service) GetAll(ctx context.Context) []*Feature {
	features, err := s.store.ListFeatures(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "feature list failed", "error", err)
		return []*Feature{}
	}
	return features
}

// IsEnabled decides whether the feature is on for the user. The second
// return value is the A/B group name when the user was bucketed into an
// active test, empty otherwise. Missing and soft-deleted features are
// simply off. The decision is read-only; callers invoke LogUsage
// separately.
func (s *Service) IsEnabled(ctx context.Context, id string, userID int64, roles []string) (bool, string) {
	f := s.Get(ctx, id)
	if f == nil {
		return false, ""
	}
	return f.Evaluate(userID, roles, s.now())
}

// LogUsage appends one usage event. User resolution is best-effort: a
// failed lookup leaves the event's user id unset. Access events also
// bump the feature's usage counter through a store-side atomic
// increment.
func (s *Service) LogUsage(ctx context.Context, featureID string, telegramID int64, typ EventType, metadata map[string]any, abGroup string) {
	event := &UsageEvent{
		ID:         uuid.New().String(),
		FeatureID:  featureID,
		TelegramID: telegramID,
		Type:       typ,
		Metadata:   metadata,
		ABGroup:    abGroup,
		CreatedAt:  s.now(),
	}

	if s.resolveUser != nil {
		if userID, err := s.resolveUser(ctx, telegramID); err == nil {
			event.UserID = &userID
		} else {
			s.log.WarnContext(ctx, "user lookup failed for usage event",
				"feature_id", featureID, "telegram_id", telegramID, "error", err)
		}
	}

	if err := s.store.InsertUsageEvent(ctx, event); err != nil {
		s.log.ErrorContext(ctx, "usage event write failed",
			"feature_id", featureID, "event_type", string(typ), "error", err)
		return
	}

	if typ == EventAccess {
		if err := s.store.RecordAccess(ctx, featureID, event.CreatedAt); err != nil {
			s.log.ErrorContext(ctx, "usage counter update failed",
				"feature_id", featureID, "error", err)
		}
	}
}

// Enable switches the feature fully on for all users.
func (s *Service) Enable(ctx context.Context, id string) bool {
	state, strategy := FlagEnabled, StrategyAllUsers
	return s.Update(ctx, id, Patch{State: &state, Strategy: &strategy})
}

// Disable switches the feature off for everyone.
func (s *Service) Disable(ctx context.Context, id string) bool {
	state := FlagDisabled
	return s.Update(ctx, id, Patch{State: &state})
}

// SetPercentageRollout puts the feature on a percentage rollout at the
// given level.
func (s *Service) SetPercentageRollout(ctx context.Context, id string, pct int) bool {
	state, strategy := FlagGradualRollout, StrategyPercentage
	return s.Update(ctx, id, Patch{
		State:             &state,
		Strategy:          &strategy,
		RolloutPercentage: &pct,
	})
}

// CreateABTest activates an A/B test with the given groups, replacing
// any previous group configuration. Group order is preserved as given.
func (s *Service) CreateABTest(ctx context.Context, id string, groups []ABTestGroup) bool {
	state, active := FlagABTest, true
	return s.Update(ctx, id, Patch{
		State:        &state,
		ABTestGroups: groups,
		ABTestActive: &active,
	})
}

// EmergencyDisable turns the feature off and records one emergency
// event attributed to the system user. A failed disable short-circuits:
// no event is written for a feature that is still live.
func (s *Service) EmergencyDisable(ctx context.Context, id, reason string) bool {
	if !s.Disable(ctx, id) {
		return false
	}

	s.log.WarnContext(ctx, "feature emergency-disabled", "feature_id", id, "reason", reason)
	s.LogUsage(ctx, id, s.systemTgID, EventEmergencyDisable, map[string]any{"reason": reason}, "")
	return true
}
