package repository

import (
	"context"
	"fmt"
	"strings"

	"lawconsult-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository handles database operations for the legal knowledge base
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// DocumentFilter restricts a similarity search with exact-match metadata
// predicates. Non-empty fields are conjoined with AND.
type DocumentFilter struct {
	DocType string // "statute" or "case"
	LawName string // owning law family, statutes only
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Search performs a top-k vector similarity search over legal_documents,
// restricted by the given metadata filter. Results come back ordered by
// ascending distance (most similar first).
func (r *DocumentRepository) Search(
	ctx context.Context,
	embedding []float64,
	filter DocumentFilter,
	limit int,
) ([]models.LegalDocument, error) {
	vectorStr := formatVector(embedding)

	conditions := []string{}
	args := []interface{}{vectorStr}
	if filter.DocType != "" {
		args = append(args, filter.DocType)
		conditions = append(conditions, fmt.Sprintf("doc_type = $%d", len(args)))
	}
	if filter.LawName != "" {
		args = append(args, filter.LawName)
		conditions = append(conditions, fmt.Sprintf("law_name = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT
			id,
			doc_type,
			content,
			law_name,
			article_id,
			court,
			case_id,
			cited_articles,
			embedding <=> $1::vector AS distance
		FROM legal_documents
		%s
		ORDER BY
			embedding <=> $1::vector
		LIMIT $%d`, where, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query legal documents: %w", err)
	}
	defer rows.Close()

	var docs []models.LegalDocument
	for rows.Next() {
		var doc models.LegalDocument
		err := rows.Scan(
			&doc.ID,
			&doc.DocType,
			&doc.Content,
			&doc.LawName,
			&doc.ArticleID,
			&doc.Court,
			&doc.CaseID,
			&doc.CitedArticles,
			&doc.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan legal document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legal documents: %w", err)
	}

	return docs, nil
}

// Insert stores one document with its embedding. Used by the ingestion batch.
func (r *DocumentRepository) Insert(
	ctx context.Context,
	doc *models.LegalDocument,
	embedding []float64,
) error {
	query := `
		INSERT INTO legal_documents (
			id, doc_type, content, law_name, article_id,
			court, case_id, cited_articles, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::vector)`

	_, err := r.db.Exec(
		ctx, query,
		doc.ID,
		doc.DocType,
		doc.Content,
		doc.LawName,
		doc.ArticleID,
		doc.Court,
		doc.CaseID,
		doc.CitedArticles,
		formatVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to insert legal document: %w", err)
	}
	return nil
}

// DeleteAll wipes the knowledge base. The ingestion batch rebuilds the
// store from scratch, so stale rows never survive a reload.
func (r *DocumentRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, "DELETE FROM legal_documents")
	if err != nil {
		return fmt.Errorf("failed to delete legal documents: %w", err)
	}
	return nil
}
