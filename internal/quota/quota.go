// Package quota enforces per-user daily generation limits. Tier storage and
// usage accounting live with the identity collaborator; this package owns
// the limit policy and a short-lived tier cache in front of it.
package quota

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"colorbook/internal/domain"
)

// Tier is a user's subscription level.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

const (
	DefaultFreeDailyLimit    = 5
	DefaultPremiumDailyLimit = 10

	// Tier lookups are cached briefly to cut collaborator reads; a tier
	// change takes at most this long to be observed.
	tierCacheTTL = 5 * time.Minute
)

// Store is the identity/quota collaborator contract. IncrementUsage must be
// atomic so two concurrently completing jobs never under-count.
type Store interface {
	UserTier(ctx context.Context, userID string) (Tier, error)
	DailyUsage(ctx context.Context, userID, day string) (int, error)
	IncrementUsage(ctx context.Context, userID, day string) error
}

// Service checks limits before dispatch and records usage after success.
type Service struct {
	store        Store
	tiers        *gocache.Cache
	freeLimit    int
	premiumLimit int
	logger       zerolog.Logger
	now          func() time.Time
}

// Options configures a quota Service.
type Options struct {
	Store        Store
	FreeLimit    int
	PremiumLimit int
	Logger       zerolog.Logger
}

// NewService builds a quota service with the given limits.
func NewService(opts Options) *Service {
	free := opts.FreeLimit
	if free <= 0 {
		free = DefaultFreeDailyLimit
	}
	premium := opts.PremiumLimit
	if premium <= 0 {
		premium = DefaultPremiumDailyLimit
	}
	return &Service{
		store:        opts.Store,
		tiers:        gocache.New(tierCacheTTL, 10*time.Minute),
		freeLimit:    free,
		premiumLimit: premium,
		logger:       opts.Logger,
		now:          time.Now,
	}
}

// Check verifies the user has generation slots left today and returns their
// tier. It only checks; call Increment after a successful generation to
// consume a slot.
func (s *Service) Check(ctx context.Context, userID string) (Tier, error) {
	tier, err := s.tier(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("quota: tier lookup: %w", err)
	}

	limit := s.freeLimit
	if tier == TierPremium {
		limit = s.premiumLimit
	}

	count, err := s.store.DailyUsage(ctx, userID, s.dayKey())
	if err != nil {
		return "", fmt.Errorf("quota: usage lookup: %w", err)
	}
	if count >= limit {
		s.logger.Warn().Str("uid", userID).Str("tier", string(tier)).
			Int("count", count).Int("limit", limit).Msg("quota: daily limit reached")
		hint := "Try again tomorrow."
		if tier == TierFree {
			hint = "Upgrade to premium for more."
		}
		return tier, fmt.Errorf("%w: daily limit of %d book(s) reached. %s", domain.ErrQuotaExceeded, limit, hint)
	}
	return tier, nil
}

// Increment consumes one generation slot. Called exactly once per
// successfully completed job, never on failure.
func (s *Service) Increment(ctx context.Context, userID string) error {
	day := s.dayKey()
	if err := s.store.IncrementUsage(ctx, userID, day); err != nil {
		return fmt.Errorf("quota: increment usage: %w", err)
	}
	s.logger.Info().Str("uid", userID).Str("date", day).Msg("quota: usage incremented")
	return nil
}

func (s *Service) tier(ctx context.Context, userID string) (Tier, error) {
	if cached, ok := s.tiers.Get(userID); ok {
		return cached.(Tier), nil
	}
	tier, err := s.store.UserTier(ctx, userID)
	if err != nil {
		return "", err
	}
	if tier == "" {
		tier = TierFree
	}
	s.tiers.SetDefault(userID, tier)
	return tier, nil
}

func (s *Service) dayKey() string {
	return s.now().UTC().Format("2006-01-02")
}
