package oracle

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/spf13/afero"
)

// Prompt template file names.
const (
	PromptExtractTraits = "extract_traits.tmpl"
	PromptEvolveTraits  = "evolve_traits.tmpl"
	PromptReschedule    = "reschedule.tmpl"
	PromptSuggestPeriod = "suggest_period.tmpl"
)

//go:embed prompts/*.tmpl
var embeddedPrompts embed.FS

var promptNames = []string{
	PromptExtractTraits,
	PromptEvolveTraits,
	PromptReschedule,
	PromptSuggestPeriod,
}

var promptFuncs = template.FuncMap{
	"join": strings.Join,
}

// Answer is one onboarding question with the user's reply.
type Answer struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// Outcome describes a finished task for trait evolution.
type Outcome struct {
	Task             string
	OnTime           bool
	AssignedPeriod   domain.Period
	CompletedPeriod  domain.Period
	EstimatedMinutes int
	ActualMinutes    int
}

type extractTraitsData struct {
	Answers []Answer
}

type evolveTraitsData struct {
	Traits []string
	Outcome
}

type rescheduleData struct {
	Traits []string
	Task   string
	Reason string
}

type suggestPeriodData struct {
	Traits []string
	Task   string
}

// Prompts holds the parsed prompt templates.
type Prompts struct {
	templates map[string]*template.Template
}

// DefaultPrompts returns the built-in prompt templates.
func DefaultPrompts() *Prompts {
	p, err := LoadPrompts(nil, "")
	if err != nil {
		// embedded templates are part of the build
		panic(err)
	}
	return p
}

// LoadPrompts parses the prompt templates. A template file present in dir on
// fsys replaces the built-in one of the same name; missing files fall back to
// the built-in template. A nil fsys or empty dir uses only built-ins.
func LoadPrompts(fsys afero.Fs, dir string) (*Prompts, error) {
	p := &Prompts{templates: make(map[string]*template.Template, len(promptNames))}

	for _, name := range promptNames {
		content, err := readPrompt(fsys, dir, name)
		if err != nil {
			return nil, err
		}

		tmpl, err := template.New(name).Funcs(promptFuncs).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse prompt template %s: %v", ErrInvalidConfig, name, err)
		}
		p.templates[name] = tmpl
	}

	return p, nil
}

func readPrompt(fsys afero.Fs, dir, name string) ([]byte, error) {
	if fsys != nil && dir != "" {
		path := filepath.Join(dir, name)
		exists, err := afero.Exists(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to stat prompt template %s: %v", ErrInvalidConfig, path, err)
		}
		if exists {
			content, err := afero.ReadFile(fsys, path)
			if err != nil {
				return nil, fmt.Errorf("%w: failed to read prompt template %s: %v", ErrInvalidConfig, path, err)
			}
			return content, nil
		}
	}

	return embeddedPrompts.ReadFile("prompts/" + name)
}

// render executes the named template with data.
func (p *Prompts) render(name string, data any) (string, error) {
	tmpl, ok := p.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
