package onboarding

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrInvalidCatalogue is returned when a questions file cannot be used.
var ErrInvalidCatalogue = errors.New("invalid onboarding catalogue")

//go:embed questions.yaml
var defaultQuestions []byte

// QuestionType distinguishes multiple-choice from free-text questions.
type QuestionType string

// Question types
const (
	QuestionChoice QuestionType = "choice"
	QuestionText   QuestionType = "text"
)

// Question is one onboarding prompt.
type Question struct {
	ID       string       `yaml:"id"       json:"id"                validate:"required"`
	Question string       `yaml:"question" json:"question"          validate:"required"`
	Type     QuestionType `yaml:"type"     json:"type"              validate:"oneof=choice text"`
	Options  []string     `yaml:"options"  json:"options,omitempty" validate:"required_if=Type choice,dive,required"`

	// ProductivePeriod marks the question whose answer names the user's
	// preferred period.
	ProductivePeriod bool `yaml:"productive_period" json:"-"`
}

// Catalogue is an ordered, validated set of questions.
type Catalogue struct {
	questions []Question
}

type catalogueFile struct {
	Onboarding []Question `yaml:"onboarding" validate:"required,min=1,dive"`
}

// Default returns the built-in catalogue.
func Default() *Catalogue {
	c, err := parse(defaultQuestions)
	if err != nil {
		panic(fmt.Sprintf("built-in onboarding questions are invalid: %v", err))
	}
	return c
}

// Load reads a YAML catalogue from path on fsys. An empty path yields the
// built-in catalogue.
func Load(fsys afero.Fs, path string) (*Catalogue, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrInvalidCatalogue, path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalogue, error) {
	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalogue, err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalogue, err)
	}

	seen := make(map[string]bool, len(file.Onboarding))
	for _, q := range file.Onboarding {
		if seen[q.ID] {
			return nil, fmt.Errorf("%w: duplicate question id %q", ErrInvalidCatalogue, q.ID)
		}
		seen[q.ID] = true
	}
	return &Catalogue{questions: file.Onboarding}, nil
}

// Questions returns a copy of the questions in display order.
func (c *Catalogue) Questions() []Question {
	out := make([]Question, len(c.questions))
	for i, q := range c.questions {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

// Lookup finds a question by its text, ignoring case and surrounding space.
func (c *Catalogue) Lookup(text string) (Question, bool) {
	text = strings.TrimSpace(text)
	for _, q := range c.questions {
		if strings.EqualFold(q.Question, text) {
			return q, true
		}
	}
	return Question{}, false
}
