package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"lawconsult-backend/models"

	"go.uber.org/zap"
)

var (
	ErrEmbeddingFailed = errors.New("failed to embed query")
	ErrRetrievalFailed = errors.New("failed to retrieve legal context")
	ErrSynthesisFailed = errors.New("failed to synthesize advisory report")
)

const synthesizerSystemInstruction = `你是一個專業且溫暖的法律顧問 AI。請根據提供的法條與判例資料，為使用者撰寫分析報告。

回答結構要求：
1. 【法律分析】：引用提供的法條，解釋為何適用於此案。
2. 【實務見解】：參考提供的判例，說明法院通常如何判決（例如賠償金額考量、判刑輕重）。
3. 【白話建議】：用最通俗的話告訴使用者現在該做什麼（例如蒐證、和解或提告）。

請注意：
- 必須「有所本」，嚴格基於提供的資料回答，不得引用資料以外的法律知識。
- 語氣保持客觀但有同理心。`

const synthesisTemperature = 0.3

// domainClassifier maps a query to a non-empty set of domain tags
type domainClassifier interface {
	Classify(ctx context.Context, query string) []models.Domain
}

// contextRetriever covers the two retrieval stages of the pipeline
type contextRetriever interface {
	RetrieveStatutes(ctx context.Context, embedding []float64, domain models.Domain) ([]models.LegalDocument, error)
	RetrieveCases(ctx context.Context, embedding []float64, statuteIDs []string) ([]models.LegalDocument, error)
}

// queryEmbedder turns a query into a similarity-search vector
type queryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// textGenerator is the free-form half of the generation capability
type textGenerator interface {
	Generate(ctx context.Context, system, user string, temperature float32) (string, error)
}

// ConsultService orchestrates the consultation pipeline: classification,
// per-domain statute retrieval, citation-filtered case retrieval, and the
// final synthesis call.
type ConsultService struct {
	classifier domainClassifier
	retriever  contextRetriever
	embedder   queryEmbedder
	generator  textGenerator
	logger     *zap.Logger
}

// ConsultServiceOption is a functional option for ConsultService
type ConsultServiceOption func(*ConsultService)

// WithClassifier sets the domain classifier
func WithClassifier(classifier domainClassifier) ConsultServiceOption {
	return func(s *ConsultService) {
		s.classifier = classifier
	}
}

// WithRetriever sets the statute/case retriever
func WithRetriever(retriever contextRetriever) ConsultServiceOption {
	return func(s *ConsultService) {
		s.retriever = retriever
	}
}

// WithEmbedder sets the query embedder
func WithEmbedder(embedder queryEmbedder) ConsultServiceOption {
	return func(s *ConsultService) {
		s.embedder = embedder
	}
}

// WithGenerator sets the synthesis text generator
func WithGenerator(generator textGenerator) ConsultServiceOption {
	return func(s *ConsultService) {
		s.generator = generator
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ConsultServiceOption {
	return func(s *ConsultService) {
		s.logger = logger
	}
}

// NewConsultService creates a new consult service
func NewConsultService(opts ...ConsultServiceOption) *ConsultService {
	s := &ConsultService{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Consult runs the full pipeline for one query. Classification failures are
// absorbed inside the classifier; embedding, retrieval, and synthesis
// failures surface as hard errors with no partial response.
func (s *ConsultService) Consult(ctx context.Context, query string) (*models.ConsultResponse, error) {
	if s.classifier == nil || s.retriever == nil || s.embedder == nil || s.generator == nil {
		return nil, errors.New("consult service not fully configured")
	}

	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	domains := s.classifier.Classify(ctx, query)
	s.logger.Info("classified query", zap.Any("domains", domains))

	// Per-domain statute searches have no data dependency on each other;
	// fan out and join, one result slot per domain.
	results := make([][]models.LegalDocument, len(domains))
	errs := make([]error, len(domains))
	var wg sync.WaitGroup
	for i, domain := range domains {
		wg.Add(1)
		go func(i int, domain models.Domain) {
			defer wg.Done()
			results[i], errs[i] = s.retriever.RetrieveStatutes(ctx, embedding, domain)
		}(i, domain)
	}
	wg.Wait()

	for _, retrieveErr := range errs {
		if retrieveErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, retrieveErr)
		}
	}

	var statuteDocs []models.LegalDocument
	var statuteIDs []string
	for _, docs := range results {
		statuteDocs = append(statuteDocs, docs...)
		for _, doc := range docs {
			if doc.ArticleID != "" {
				statuteIDs = append(statuteIDs, doc.ArticleID)
			}
		}
	}

	uniqueStatutes := dedupByContent(statuteDocs)

	cases, err := s.retriever.RetrieveCases(ctx, embedding, statuteIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}
	s.logger.Info("retrieved legal context",
		zap.Int("statutes", len(uniqueStatutes)),
		zap.Int("cases", len(cases)))

	contextBlock := buildContext(uniqueStatutes, cases)
	userPrompt := fmt.Sprintf("使用者案件：%s\n\n參考資料庫：\n%s", query, contextBlock)

	summary, err := s.generator.Generate(ctx, synthesizerSystemInstruction, userPrompt, synthesisTemperature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	return buildResponse(domains, uniqueStatutes, cases, summary), nil
}

// dedupByContent collapses documents with identical content. The first
// occurrence keeps its position, the last occurrence supplies the value.
func dedupByContent(docs []models.LegalDocument) []models.LegalDocument {
	index := make(map[string]int, len(docs))
	unique := make([]models.LegalDocument, 0, len(docs))
	for _, doc := range docs {
		if i, ok := index[doc.Content]; ok {
			unique[i] = doc
			continue
		}
		index[doc.Content] = len(unique)
		unique = append(unique, doc)
	}
	return unique
}

// buildContext assembles the single grounding block handed to the synthesizer
func buildContext(statutes, cases []models.LegalDocument) string {
	var builder strings.Builder

	builder.WriteString("【相關法律條文】\n")
	for _, doc := range statutes {
		builder.WriteString(fmt.Sprintf("- %s: %s\n", doc.ArticleID, doc.Content))
	}

	builder.WriteString("\n【相關實務判例】\n")
	for _, doc := range cases {
		builder.WriteString(fmt.Sprintf("- %s %s: %s\n", doc.Court, doc.CaseID, doc.Content))
	}

	return builder.String()
}

func buildResponse(domains []models.Domain, statutes, cases []models.LegalDocument, summary string) *models.ConsultResponse {
	resp := &models.ConsultResponse{
		Domains:  domains,
		Statutes: make([]models.Statute, 0, len(statutes)),
		Cases:    make([]models.Case, 0, len(cases)),
		Summary:  summary,
	}

	for _, doc := range statutes {
		lawName := doc.LawName
		if lawName == "" {
			lawName = "未知"
		}
		resp.Statutes = append(resp.Statutes, models.Statute{
			LawName:   lawName,
			ArticleID: doc.ArticleID,
			Content:   doc.Content,
		})
	}

	for _, doc := range cases {
		court := doc.Court
		if court == "" {
			court = "法院"
		}
		resp.Cases = append(resp.Cases, models.Case{
			CaseID:  doc.CaseID,
			Court:   court,
			Summary: doc.Content,
		})
	}

	return resp
}
