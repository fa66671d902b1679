package keys

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Kuroukai/Kuroukai-api/internal/model"
	"github.com/Kuroukai/Kuroukai-api/internal/store"
)

// ErrInvalidParameter is returned for malformed or out-of-range input, such
// as a non-positive TTL. Nothing is persisted when it is returned.
var ErrInvalidParameter = errors.New("invalid parameter")

// DefaultMaxTTLHours bounds how far in the future a key may expire.
const DefaultMaxTTLHours = 720

// Repository is the persistence collaborator the key service depends on.
// *store.Store implements it; tests may substitute their own.
type Repository interface {
	Insert(ctx context.Context, key model.AccessKey) error
	Fetch(ctx context.Context, id string) (model.AccessKey, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Remove(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]model.AccessKey, error)
}

type clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Config captures the tunables for the key service.
type Config struct {
	MaxTTLHours int
	Clock       clock
}

// Service owns the access key lifecycle: issuance, validation, lookup,
// revocation and deletion. All time comparisons use the service clock,
// never client-supplied time.
type Service struct {
	repo        Repository
	clock       clock
	maxTTLHours int
}

// NewService creates a key service backed by the given repository.
func NewService(repo Repository, cfg Config) *Service {
	clk := cfg.Clock
	if clk == nil {
		clk = systemClock{}
	}
	maxTTL := cfg.MaxTTLHours
	if maxTTL <= 0 {
		maxTTL = DefaultMaxTTLHours
	}
	return &Service{
		repo:        repo,
		clock:       clk,
		maxTTLHours: maxTTL,
	}
}

// Create issues a fresh key for ownerID expiring ttlHours from now.
// TTLs of zero or below, or above the configured maximum, are rejected
// outright, never clamped.
func (s *Service) Create(ctx context.Context, ownerID string, ttlHours int) (model.AccessKey, error) {
	if ttlHours < 1 || ttlHours > s.maxTTLHours {
		return model.AccessKey{}, fmt.Errorf("%w: ttl_hours must be between 1 and %d", ErrInvalidParameter, s.maxTTLHours)
	}

	now := s.clock.Now()
	key := model.AccessKey{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Status:    model.KeyStatusActive,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(ttlHours) * time.Hour),
	}

	if err := s.repo.Insert(ctx, key); err != nil {
		return model.AccessKey{}, fmt.Errorf("persist access key: %w", err)
	}
	return key, nil
}

// Validate reports the current validity of a key. Revocation takes
// precedence over expiry: a revoked key past its expiry still reports
// Revoked, since revocation is an explicit operator action while expiry is
// merely a time-derived fact. Only storage failures surface as errors.
func (s *Service) Validate(ctx context.Context, id string) (model.Validity, error) {
	key, err := s.repo.Fetch(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.ValidityNotFound, nil
	}
	if err != nil {
		return "", err
	}

	if key.Status == model.KeyStatusRevoked {
		return model.ValidityRevoked, nil
	}
	if !key.ExpiresAt.After(s.clock.Now()) {
		return model.ValidityExpired, nil
	}
	return model.ValidityValid, nil
}

// Info returns the stored record for a key, or store.ErrNotFound.
func (s *Service) Info(ctx context.Context, id string) (model.AccessKey, error) {
	return s.repo.Fetch(ctx, id)
}

// ListByOwner returns the owner's keys in creation order.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]model.AccessKey, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Revoke marks a key revoked. Revocation is terminal: a revoked key never
// transitions back to active.
func (s *Service) Revoke(ctx context.Context, id string) error {
	return s.repo.UpdateStatus(ctx, id, model.KeyStatusRevoked)
}

// Delete permanently removes a key. The id is gone for good afterwards; a
// repeat call reports store.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Remove(ctx, id)
}
