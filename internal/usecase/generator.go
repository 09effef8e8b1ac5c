package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/prompts"
	"go.uber.org/zap"

	"ccms/internal/domain"
	"ccms/internal/ports"
)

const articleTemplate = `You are writing a casino review for {{.brand}}.
Voice: {{.tone}}. Style: {{.style}}. Audience: {{.audience}}. Locale: {{.locale}}.

Write a complete review of {{.casino}} of about {{.target_words}} words in Markdown.
Start with a single "# " title line, then use exactly these "## " sections in order:
{{.sections}}

Rules:
- Use only the facts below. Do not invent licence numbers, bonus amounts or payment methods.
- Mention the wagering requirement and licence whenever the facts contain them.
- Never promise winnings or describe gambling as income.
{{- if .pros_cons}}
- Include a pros and cons list.
{{- end}}
{{- if .keywords}}
- Work these keywords in naturally: {{.keywords}}.
{{- end}}

Facts (JSON):
{{.facts}}

Background from {{.brand}} editorial archive:
{{.context}}
`

const expandTemplate = `The {{.casino}} review below has {{.words}} words. Expand it to at least {{.target_words}} words.
Keep the same "#" title and "##" section headings, keep every fact unchanged and add depth, examples and comparisons.
Return the full expanded article in Markdown.

{{.article}}
`

// GenerateRequest carries everything the article prompt needs.
type GenerateRequest struct {
	Tenant   domain.TenantConfig
	Voice    domain.BrandVoice
	Facts    domain.ResearchFact
	Context  domain.RetrievalResult
	Settings domain.ContentSettings
	Keywords []string
}

// Generator produces the article with one LLM call plus at most one expansion.
type Generator struct {
	llm     ports.ChatClient
	article prompts.PromptTemplate
	expand  prompts.PromptTemplate
	logger  *zap.Logger
	now     func() time.Time
}

// NewGenerator wires the model.
func NewGenerator(llm ports.ChatClient, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		llm: llm,
		article: prompts.NewPromptTemplate(articleTemplate, []string{
			"brand", "tone", "style", "audience", "locale", "casino", "target_words",
			"sections", "pros_cons", "keywords", "facts", "context",
		}),
		expand: prompts.NewPromptTemplate(expandTemplate, []string{"casino", "words", "target_words", "article"}),
		logger: logger,
		now:    time.Now,
	}
}

// Generate writes the review. Facts with nothing beyond the casino name are rejected.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (domain.GeneratedArticle, error) {
	if !hasSubstantiveFacts(req.Facts) {
		return domain.GeneratedArticle{}, fmt.Errorf("%w: %s", domain.ErrInsufficientResearch, req.Facts.CasinoSlug)
	}

	prompt, err := g.articlePrompt(req)
	if err != nil {
		return domain.GeneratedArticle{}, err
	}
	body, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		return domain.GeneratedArticle{}, fmt.Errorf("generate article: %w", err)
	}
	body = strings.TrimSpace(body)

	words := domain.CountWords(body)
	expanded := false
	if minWords := req.Settings.MinWords(); words < minWords {
		g.logger.Info("article below minimum length, expanding", zap.Int("words", words), zap.Int("min_words", minWords))
		longer, err := g.expandArticle(ctx, req, body, words)
		switch {
		case err != nil:
			g.logger.Warn("expansion failed, keeping first draft", zap.Error(err))
		case domain.CountWords(longer) > words:
			body = longer
			words = domain.CountWords(longer)
			expanded = true
		}
	}

	casino := req.Facts.CasinoName()
	title, sections := ParseArticle(body)
	if title == "" {
		title = casino + " Review"
	}

	return domain.GeneratedArticle{
		Title:       title,
		Body:        body,
		Sections:    sections,
		WordCount:   words,
		GeneratedAt: g.now().UTC(),
		Expanded:    expanded,
	}, nil
}

func (g *Generator) articlePrompt(req GenerateRequest) (string, error) {
	facts, err := json.MarshalIndent(req.Facts.Facts, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode facts: %w", err)
	}

	var background strings.Builder
	for i, d := range req.Context.Documents {
		fmt.Fprintf(&background, "[%d] %s\n", i+1, strings.TrimSpace(d.Content))
	}
	if background.Len() == 0 {
		background.WriteString("(none)")
	}

	sections := make([]string, 0, len(req.Settings.Sections))
	for _, s := range req.Settings.Sections {
		sections = append(sections, "## "+s)
	}

	tone := firstNonEmpty(req.Voice.Tone, req.Tenant.VoiceProfile, "professional")
	prompt, err := g.article.Format(map[string]any{
		"brand":        req.Tenant.BrandName,
		"tone":         tone,
		"style":        firstNonEmpty(req.Voice.Style, "informative"),
		"audience":     firstNonEmpty(req.Voice.Audience, req.Tenant.TargetAudience, "casino players"),
		"locale":       req.Tenant.Locale,
		"casino":       req.Facts.CasinoName(),
		"target_words": req.Settings.TargetWordCount,
		"sections":     strings.Join(sections, "\n"),
		"pros_cons":    req.Settings.IncludeProsCons,
		"keywords":     strings.Join(req.Keywords, ", "),
		"facts":        string(facts),
		"context":      background.String(),
	})
	if err != nil {
		return "", fmt.Errorf("render article prompt: %w", err)
	}
	return prompt, nil
}

func (g *Generator) expandArticle(ctx context.Context, req GenerateRequest, body string, words int) (string, error) {
	prompt, err := g.expand.Format(map[string]any{
		"casino":       req.Facts.CasinoName(),
		"words":        words,
		"target_words": req.Settings.TargetWordCount,
		"article":      body,
	})
	if err != nil {
		return "", fmt.Errorf("render expand prompt: %w", err)
	}
	out, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ParseArticle splits Markdown into the "# " title and "## " sections.
// Text before the first section becomes an "Introduction" section.
func ParseArticle(body string) (string, []domain.Section) {
	var (
		title    string
		sections []domain.Section
		current  *domain.Section
		intro    strings.Builder
	)
	flush := func() {
		if current != nil {
			current.Body = strings.TrimSpace(current.Body)
			sections = append(sections, *current)
		}
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "## "):
			flush()
			current = &domain.Section{Name: strings.TrimSpace(strings.TrimPrefix(trimmed, "## "))}
		case strings.HasPrefix(trimmed, "# ") && title == "" && current == nil:
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		case current != nil:
			current.Body += line + "\n"
		default:
			intro.WriteString(line + "\n")
		}
	}
	flush()

	if text := strings.TrimSpace(intro.String()); text != "" {
		sections = append([]domain.Section{{Name: "Introduction", Body: text}}, sections...)
	}
	return title, sections
}

func hasSubstantiveFacts(f domain.ResearchFact) bool {
	n := domain.CountFields(f.Facts)
	if _, ok := f.Lookup("casino_name"); ok {
		n--
	}
	return n >= 1
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
