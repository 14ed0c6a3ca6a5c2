package service

import (
	"context"
	"strings"

	"lawconsult-backend/models"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
)

const classifierSystemInstruction = `你是一個資深的法律案件分案人員。
請分析使用者的案件描述，判斷其涉及哪些法律領域（目前僅支援：「民法」、「刑法」）。

規則：
- 涉及金錢糾紛、損害賠償、合約問題通常為「民法」。
- 涉及犯罪、坐牢、罰金、故意傷害通常為「刑法」。
- 若兩者皆有（如車禍撞傷人），請同時回傳兩個領域。
- 若不確定，請回傳所有領域。`

// DomainClassification is the schema the classifier model must emit
type DomainClassification struct {
	Domains []string `json:"domains"`
}

var domainClassificationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"domains": {
			Type:        genai.TypeArray,
			Description: "涉及的法律領域列表，例如 [\"民法\", \"刑法\"]",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"domains"},
}

// structuredGenerator is the schema-constrained half of the generation capability
type structuredGenerator interface {
	GenerateJSON(ctx context.Context, system, user string, schema *genai.Schema, out interface{}) error
}

// Classifier maps a free-text query to the legal domains it touches.
// It never fails: any model error or malformed output degrades to the full
// taxonomy, so the pipeline searches everything instead of aborting.
type Classifier struct {
	generator structuredGenerator
	logger    *zap.Logger
}

// NewClassifier creates a new domain classifier
func NewClassifier(generator structuredGenerator, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{generator: generator, logger: logger}
}

// Classify returns a non-empty set of recognized domain tags for the query.
// Single attempt against the model; no retry.
func (c *Classifier) Classify(ctx context.Context, query string) []models.Domain {
	var out DomainClassification
	err := c.generator.GenerateJSON(ctx, classifierSystemInstruction, query, domainClassificationSchema, &out)
	if err != nil {
		c.logger.Warn("domain classification failed, falling back to all domains",
			zap.Error(err))
		return models.AllDomains()
	}

	seen := make(map[models.Domain]bool)
	domains := make([]models.Domain, 0, len(out.Domains))
	for _, raw := range out.Domains {
		domain := models.Domain(strings.TrimSpace(raw))
		if !domain.IsRecognized() || seen[domain] {
			continue
		}
		seen[domain] = true
		domains = append(domains, domain)
	}

	// Empty or fully unrecognized output is treated like a failed call
	if len(domains) == 0 {
		c.logger.Warn("domain classification returned no recognized domains, falling back to all domains",
			zap.Strings("raw", out.Domains))
		return models.AllDomains()
	}

	return domains
}
