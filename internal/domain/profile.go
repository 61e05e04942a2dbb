package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile holds the behavioral traits inferred for a user. Traits are
// replaced wholesale on every update; the slice held by a profile is never
// shared with callers.
type UserProfile struct {
	UserID           uuid.UUID `json:"user_id"`
	Traits           []string  `json:"traits"`
	ProductivePeriod *Period   `json:"productive_period,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewUserProfile returns an empty profile for userID.
func NewUserProfile(userID uuid.UUID) *UserProfile {
	return &UserProfile{UserID: userID, Traits: []string{}}
}

// Validate checks if the profile has valid data.
func (p *UserProfile) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyUserID
	}
	if p.ProductivePeriod != nil && !p.ProductivePeriod.IsValid() {
		return ErrInvalidPeriod
	}
	return nil
}

// TraitList returns a copy of the profile's traits.
func (p *UserProfile) TraitList() []string {
	return CopyTraits(p.Traits)
}

// WithTraits returns a new profile value carrying a copy of traits.
// The receiver is left untouched.
func (p *UserProfile) WithTraits(traits []string, now time.Time) *UserProfile {
	next := *p
	next.Traits = CopyTraits(traits)
	next.UpdatedAt = now.UTC()
	return &next
}

// CopyTraits returns an independent copy of traits. A nil input yields an
// empty, non-nil slice.
func CopyTraits(traits []string) []string {
	out := make([]string, len(traits))
	copy(out, traits)
	return out
}
