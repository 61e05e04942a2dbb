package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/tempo/internal/api/shared"
	"github.com/phrazzld/tempo/internal/service"
)

// ProfileHandler serves the profile and onboarding endpoints.
type ProfileHandler struct {
	profiles service.ProfileService
	logger   *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profiles service.ProfileService, logger *slog.Logger) *ProfileHandler {
	if profiles == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("profile service cannot be nil for ProfileHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ProfileHandler{
		profiles: profiles,
		logger:   logger.With(slog.String("component", "profile_handler")),
	}
}

// GetProfile handles GET /profile requests
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := handleUserIDFromContext(w, r, h.logger)
	if !ok {
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get profile")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, profileToResponse(profile, ""))
}

// GetQuestions handles GET /onboarding/questions requests
func (h *ProfileHandler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, questionsToResponse(h.profiles.Questions()))
}

// Onboard handles POST /onboarding requests
func (h *ProfileHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := handleUserIDFromContext(w, r, h.logger)
	if !ok {
		return
	}

	var req OnboardingRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}

	outcome, err := h.profiles.Onboard(r.Context(), userID, req.toAnswers())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to save onboarding answers")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, profileToResponse(outcome.Profile, outcome.TraitsSource))
}
