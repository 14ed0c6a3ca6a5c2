package models

import (
	"strings"

	"github.com/google/uuid"
)

// Domain identifies a legal subject area in the fixed taxonomy
type Domain string

const (
	DomainCivil    Domain = "民法"
	DomainCriminal Domain = "刑法"
)

// AllDomains returns the full taxonomy, used as the classifier fallback
func AllDomains() []Domain {
	return []Domain{DomainCivil, DomainCriminal}
}

// IsRecognized reports whether d is part of the supported taxonomy
func (d Domain) IsRecognized() bool {
	return d == DomainCivil || d == DomainCriminal
}

// Document type discriminator stored in the doc_type column
const (
	DocTypeStatute = "statute"
	DocTypeCase    = "case"
)

// LegalDocument represents one row in the legal_documents knowledge base.
// Statute rows carry LawName/ArticleID; case rows carry Court/CaseID and
// the comma-joined list of cited article ids.
type LegalDocument struct {
	ID            uuid.UUID `json:"id"`
	DocType       string    `json:"doc_type"` // "statute" or "case"
	Content       string    `json:"content"`
	LawName       string    `json:"law_name,omitempty"`
	ArticleID     string    `json:"article_id,omitempty"`
	Court         string    `json:"court,omitempty"`
	CaseID        string    `json:"case_id,omitempty"`
	CitedArticles string    `json:"cited_articles,omitempty"` // e.g. "民法_184,民法_195"
	Distance      float64   `json:"distance,omitempty"`       // Vector similarity distance
}

// CitedArticleIDs splits the stored citation string into discrete ids.
// Membership tests must run against these tokens, not the raw string:
// a substring check would let "民法_18" match inside "民法_184".
func (d LegalDocument) CitedArticleIDs() []string {
	if d.CitedArticles == "" {
		return nil
	}
	parts := strings.Split(d.CitedArticles, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// CitesAny reports whether the document cites at least one of the given ids
func (d LegalDocument) CitesAny(articleIDs []string) bool {
	cited := d.CitedArticleIDs()
	if len(cited) == 0 {
		return false
	}
	for _, want := range articleIDs {
		for _, have := range cited {
			if have == want {
				return true
			}
		}
	}
	return false
}
