// Package onboarding provides the question catalogue shown to new users.
// Answers are turned into initial traits by the reasoning oracle.
package onboarding
