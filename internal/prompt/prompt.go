// Package prompt renders the system prompts of the agents from embedded
// text templates. A template can be overridden by a file of the same name in
// a user directory.
package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/vampirenirmal/ritual/internal/domain"
	"github.com/vampirenirmal/ritual/internal/vocabulary"
)

//go:embed templates/*.tmpl
var embedded embed.FS

const (
	tmplInsight   = "insight.tmpl"
	tmplStory     = "story.tmpl"
	tmplPrototype = "prototype.tmpl"
	tmplSymbol    = "symbol.tmpl"
	tmplRefine    = "refine.tmpl"

	refineUserTextRunes = 300
)

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

// Builder renders prompts. It is safe for concurrent use.
type Builder struct {
	overrideDir string

	mu        sync.RWMutex
	templates map[string]*template.Template
}

type Option func(*Builder)

// WithOverrideDir makes the builder prefer <dir>/<name>.tmpl over the
// embedded template when such a file exists.
func WithOverrideDir(dir string) Option {
	return func(b *Builder) {
		b.overrideDir = dir
	}
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{templates: make(map[string]*template.Template)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var defaultBuilder = NewBuilder()

func (b *Builder) template(name string) (*template.Template, error) {
	b.mu.RLock()
	t, ok := b.templates[name]
	b.mu.RUnlock()
	if ok {
		return t, nil
	}

	src, err := b.source(name)
	if err != nil {
		return nil, err
	}
	t, err = template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template %s: %w", name, err)
	}

	b.mu.Lock()
	b.templates[name] = t
	b.mu.Unlock()
	return t, nil
}

func (b *Builder) source(name string) ([]byte, error) {
	if b.overrideDir != "" {
		data, err := os.ReadFile(filepath.Join(b.overrideDir, name))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading prompt override %s: %w", name, err)
		}
	}
	data, err := embedded.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("reading prompt template %s: %w", name, err)
	}
	return data, nil
}

func (b *Builder) render(name string, data any) (string, error) {
	t, err := b.template(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing prompt template %s: %w", name, err)
	}
	return buf.String(), nil
}

// PronounForms are the grammatical forms used to address the user.
type PronounForms struct {
	Subject    string
	Object     string
	Possessive string
}

func Forms(p domain.Pronoun) PronounForms {
	switch p {
	case domain.PronounHe:
		return PronounForms{"he", "him", "his"}
	case domain.PronounShe:
		return PronounForms{"she", "her", "her"}
	default:
		return PronounForms{"they", "them", "their"}
	}
}

// InsightInput feeds the Insight prompt.
type InsightInput struct {
	KBContext string
	Quotes    []string
	Pronoun   domain.Pronoun
}

// StoryInput feeds the Story prompt. SSIC is the rendered physics block, or
// empty.
type StoryInput struct {
	KBContext string
	Insight   domain.InsightOutput
	Keywords  []string
	Pronoun   domain.Pronoun
	SSIC      string
}

type PrototypeInput struct {
	KBContext string
	Insight   domain.InsightOutput
	Story     domain.StoryOutput
	Keywords  []string
	Pronoun   domain.Pronoun
	SSIC      string
}

type SymbolInput struct {
	KBContext string
	Insight   domain.InsightOutput
	Story     domain.StoryOutput
	Prototype domain.PrototypeOutput
	Keywords  []string
	Pronoun   domain.Pronoun
	SSIC      string
}

type RefineInput struct {
	Prototype domain.PrototypeOutput
	Symbol    domain.SymbolOutput
	Insight   domain.InsightOutput
	Story     domain.StoryOutput
	SSIC      string
}

func (b *Builder) Insight(in InsightInput) (string, error) {
	return b.render(tmplInsight, map[string]any{
		"KBContext": in.KBContext,
		"Quotes":    in.Quotes,
		"Pronoun":   Forms(in.Pronoun),
	})
}

func (b *Builder) Story(in StoryInput) (string, error) {
	return b.render(tmplStory, map[string]any{
		"KBContext":   in.KBContext,
		"InsightJSON": FormatInsight(in.Insight),
		"Keywords":    vocabulary.FormatForPrompt(in.Keywords),
		"Pronoun":     Forms(in.Pronoun),
		"SSIC":        in.SSIC,
	})
}

func (b *Builder) Prototype(in PrototypeInput) (string, error) {
	return b.render(tmplPrototype, map[string]any{
		"KBContext":   in.KBContext,
		"InsightJSON": FormatInsight(in.Insight),
		"StoryJSON":   FormatStory(in.Story),
		"Keywords":    vocabulary.FormatForPrompt(in.Keywords),
		"Pronoun":     Forms(in.Pronoun),
		"SSIC":        in.SSIC,
		"Days":        []int{1, 2, 3, 4, 5},
	})
}

func (b *Builder) Symbol(in SymbolInput) (string, error) {
	return b.render(tmplSymbol, map[string]any{
		"KBContext":     in.KBContext,
		"InsightJSON":   FormatInsight(in.Insight),
		"StoryJSON":     FormatStory(in.Story),
		"PrototypeJSON": FormatPrototype(in.Prototype),
		"Keywords":      vocabulary.FormatForPrompt(in.Keywords),
		"Pronoun":       Forms(in.Pronoun),
		"SSIC":          in.SSIC,
	})
}

func (b *Builder) Refine(in RefineInput) (string, error) {
	return b.render(tmplRefine, map[string]any{
		"PrototypeJSON":    indentJSON(in.Prototype),
		"PrimarySymbol":    in.Symbol.PrimarySymbol,
		"SecondarySymbols": strings.Join(in.Symbol.SecondarySymbols, ", "),
		"Archetype":        in.Insight.ArchetypeGuess,
		"CurrentChapter":   in.Story.CurrentChapter,
		"DesiredChapter":   in.Story.DesiredChapter,
		"SSIC":             in.SSIC,
	})
}

// Insight renders the Insight system prompt with the embedded templates.
func Insight(in InsightInput) (string, error) { return defaultBuilder.Insight(in) }

func Story(in StoryInput) (string, error) { return defaultBuilder.Story(in) }

func Prototype(in PrototypeInput) (string, error) { return defaultBuilder.Prototype(in) }

func Symbol(in SymbolInput) (string, error) { return defaultBuilder.Symbol(in) }

func Refine(in RefineInput) (string, error) { return defaultBuilder.Refine(in) }

// RefineUserMessage is the user turn of the refinement call.
func RefineUserMessage(userText string) string {
	text := []rune(userText)
	if len(text) > refineUserTextRunes {
		text = text[:refineUserTextRunes]
	}
	return "Refine this prototype by integrating symbolic language from the Symbol Agent.\n\n" +
		"User's Original Challenge:\n" + string(text) + "\n\n" +
		"Respond with the refined prototype JSON only."
}

// FormatInsight is the subset of the insight shown to later agents.
func FormatInsight(o domain.InsightOutput) string {
	return indentJSON(struct {
		EmotionalSummary string `json:"emotional_summary"`
		CoreWound        string `json:"core_wound"`
		CoreDesire       string `json:"core_desire"`
		Archetype        string `json:"archetype"`
	}{o.EmotionalSummary, o.CoreWound, o.CoreDesire, o.ArchetypeGuess})
}

// FormatStory is the subset of the story shown to later agents.
func FormatStory(o domain.StoryOutput) string {
	return indentJSON(struct {
		Hero           string `json:"hero"`
		Villain        string `json:"villain"`
		CurrentChapter string `json:"current_chapter"`
		DesiredChapter string `json:"desired_chapter"`
		Story          string `json:"story"`
	}{o.HeroDescription, o.VillainDescription, o.CurrentChapter, o.DesiredChapter, o.StoryParagraph})
}

// FormatPrototype is the subset of the prototype shown to the Symbol agent.
func FormatPrototype(o domain.PrototypeOutput) string {
	return indentJSON(struct {
		Goal         string           `json:"goal"`
		Constraints  []string         `json:"constraints"`
		DayByDayPlan []domain.DayPlan `json:"day_by_day_plan"`
	}{o.Goal, o.Constraints, o.DayByDayPlan})
}

func indentJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
