package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Statute is one codified article returned to the client
type Statute struct {
	LawName   string `json:"law_name"`   // e.g. 民法
	ArticleID string `json:"article_id"` // e.g. 民法_184
	Content   string `json:"content"`
}

// Case is one judicial precedent returned to the client
type Case struct {
	CaseID  string `json:"case_id"`
	Court   string `json:"court"` // e.g. 最高法院
	Summary string `json:"summary"`
}

// ConsultResponse is the fully materialized result of one consultation
type ConsultResponse struct {
	Domains  []Domain  `json:"domains"`
	Statutes []Statute `json:"statutes"`
	Cases    []Case    `json:"cases"`
	Summary  string    `json:"summary"`
}

// Value implements driver.Valuer so the response can be stored as JSONB
func (r ConsultResponse) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB
func (r *ConsultResponse) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	if len(bytes) == 0 {
		return nil
	}

	return json.Unmarshal(bytes, r)
}

// ConsultationRecord is one entry in the consultation history log
type ConsultationRecord struct {
	ID        uuid.UUID       `json:"id"`
	Query     string          `json:"query"`
	Result    ConsultResponse `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}
