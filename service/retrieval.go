package service

import (
	"context"
	"fmt"

	"lawconsult-backend/models"
	"lawconsult-backend/repository"

	"go.uber.org/zap"
)

const (
	statuteTopK = 2
	caseRecallK = 10
	maxCases    = 3
)

// documentSearcher is the similarity-search surface of the document store
type documentSearcher interface {
	Search(ctx context.Context, embedding []float64, filter repository.DocumentFilter, limit int) ([]models.LegalDocument, error)
}

// Retriever runs the domain-scoped statute search and the two-phase
// recall-then-filter case search against the document store.
type Retriever struct {
	docs   documentSearcher
	logger *zap.Logger
}

// NewRetriever creates a new retriever over the given document store
func NewRetriever(docs documentSearcher, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{docs: docs, logger: logger}
}

// RetrieveStatutes returns the top statutes for the query embedding.
// A recognized domain narrows the search to that law family; anything else
// searches statutes across all domains.
func (r *Retriever) RetrieveStatutes(ctx context.Context, embedding []float64, domain models.Domain) ([]models.LegalDocument, error) {
	filter := repository.DocumentFilter{DocType: models.DocTypeStatute}
	if domain.IsRecognized() {
		filter.LawName = string(domain)
	}

	docs, err := r.docs.Search(ctx, embedding, filter, statuteTopK)
	if err != nil {
		return nil, fmt.Errorf("statute search for %q: %w", domain, err)
	}
	return docs, nil
}

// RetrieveCases returns up to three precedent cases grounded in the given
// statute ids. It over-fetches a broad recall set first because the citation
// filter is expected to discard most candidates, then keeps recall order:
//
//  1. similarity search over cases only, k=10
//  2. keep cases citing at least one of statuteIDs (exact id match)
//  3. if the filter emptied a non-empty recall set, keep the single
//     top-ranked case rather than returning nothing
//  4. truncate to three
func (r *Retriever) RetrieveCases(ctx context.Context, embedding []float64, statuteIDs []string) ([]models.LegalDocument, error) {
	recall, err := r.docs.Search(ctx, embedding, repository.DocumentFilter{DocType: models.DocTypeCase}, caseRecallK)
	if err != nil {
		return nil, fmt.Errorf("case search: %w", err)
	}

	filtered := filterCasesByCitation(recall, statuteIDs)

	if len(filtered) == 0 && len(recall) > 0 {
		r.logger.Info("no case cites the retrieved statutes, falling back to top-ranked case",
			zap.Strings("statute_ids", statuteIDs))
		filtered = recall[:1]
	}

	if len(filtered) > maxCases {
		filtered = filtered[:maxCases]
	}
	return filtered, nil
}

// filterCasesByCitation keeps the cases whose citation set intersects
// statuteIDs, preserving recall order. Matching is per discrete article id.
func filterCasesByCitation(cases []models.LegalDocument, statuteIDs []string) []models.LegalDocument {
	var filtered []models.LegalDocument
	for _, doc := range cases {
		if doc.CitesAny(statuteIDs) {
			filtered = append(filtered, doc)
		}
	}
	return filtered
}
