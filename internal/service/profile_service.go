package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/oracle"
	"github.com/phrazzld/tempo/internal/onboarding"
	"github.com/phrazzld/tempo/internal/platform/logger"
	"github.com/phrazzld/tempo/internal/store"
)

// TraitExtractor derives initial traits from onboarding answers.
// *oracle.Adapter implements it.
type TraitExtractor interface {
	ExtractTraits(ctx context.Context, answers []oracle.Answer) oracle.Result[[]string]
}

// PeriodClassifier maps free text to a period. schedule.Service implements it.
type PeriodClassifier interface {
	ClassifyPeriod(description string) (domain.Period, bool)
}

// OnboardingOutcome is the profile produced by onboarding.
type OnboardingOutcome struct {
	Profile      *domain.UserProfile
	TraitsSource oracle.Source
}

// ProfileService manages user profiles.
type ProfileService interface {
	// GetProfile returns the user's profile, or an empty one if none exists
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error)

	// Questions returns the onboarding catalogue
	Questions() []onboarding.Question

	// Onboard replaces the user's traits with ones extracted from answers
	Onboard(ctx context.Context, userID uuid.UUID, answers []oracle.Answer) (*OnboardingOutcome, error)
}

type profileServiceImpl struct {
	profiles   store.ProfileStore
	extractor  TraitExtractor
	classifier PeriodClassifier
	catalogue  *onboarding.Catalogue
	validate   *validator.Validate
	now        func() time.Time
	logger     *slog.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(
	profiles store.ProfileStore,
	extractor TraitExtractor,
	classifier PeriodClassifier,
	catalogue *onboarding.Catalogue,
	logger *slog.Logger,
) (ProfileService, error) {
	if profiles == nil {
		return nil, domain.NewValidationError("profiles", "cannot be nil", domain.ErrValidation)
	}
	if extractor == nil {
		return nil, domain.NewValidationError("extractor", "cannot be nil", domain.ErrValidation)
	}
	if classifier == nil {
		return nil, domain.NewValidationError("classifier", "cannot be nil", domain.ErrValidation)
	}
	if catalogue == nil {
		catalogue = onboarding.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &profileServiceImpl{
		profiles:   profiles,
		extractor:  extractor,
		classifier: classifier,
		catalogue:  catalogue,
		validate:   validator.New(),
		now:        time.Now,
		logger:     logger.With(slog.String("component", "profile_service")),
	}, nil
}

func (s *profileServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return domain.NewUserProfile(userID), nil
		}
		return nil, NewProfileServiceError("get_profile", "failed to load profile", err)
	}
	return profile, nil
}

func (s *profileServiceImpl) Questions() []onboarding.Question {
	return s.catalogue.Questions()
}

func (s *profileServiceImpl) Onboard(
	ctx context.Context,
	userID uuid.UUID,
	answers []oracle.Answer,
) (*OnboardingOutcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(answers) == 0 {
		return nil, ErrNoAnswers
	}
	for i, a := range answers {
		if err := s.validate.Struct(a); err != nil {
			return nil, domain.NewValidationError(
				fmt.Sprintf("answers[%d]", i), "must have a question and an answer", domain.ErrValidation)
		}
	}

	result := s.extractor.ExtractTraits(ctx, answers)

	current, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	next := current.WithTraits(result.Value, s.now())
	if period, ok := s.productivePeriod(answers); ok {
		next.ProductivePeriod = &period
	}

	if err := s.profiles.Upsert(ctx, next); err != nil {
		log.Error("failed to save onboarding profile",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, NewProfileServiceError("onboard", "failed to save profile", err)
	}

	log.Info("user onboarded",
		slog.String("user_id", userID.String()),
		slog.Int("trait_count", len(next.Traits)),
		slog.String("traits_source", string(result.Source)))

	return &OnboardingOutcome{Profile: next, TraitsSource: result.Source}, nil
}

// productivePeriod classifies the answer to the catalogue's productive-time
// question, if one was given.
func (s *profileServiceImpl) productivePeriod(answers []oracle.Answer) (domain.Period, bool) {
	for _, a := range answers {
		q, ok := s.catalogue.Lookup(a.Question)
		if !ok || !q.ProductivePeriod {
			continue
		}
		return s.classifier.ClassifyPeriod(a.Answer)
	}
	return "", false
}
