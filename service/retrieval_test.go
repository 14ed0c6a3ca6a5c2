package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"lawconsult-backend/models"
	"lawconsult-backend/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchCall struct {
	filter repository.DocumentFilter
	limit  int
}

type fakeSearcher struct {
	mu    sync.Mutex
	calls []searchCall
	fn    func(filter repository.DocumentFilter, limit int) ([]models.LegalDocument, error)
}

func (f *fakeSearcher) Search(ctx context.Context, embedding []float64, filter repository.DocumentFilter, limit int) ([]models.LegalDocument, error) {
	f.mu.Lock()
	f.calls = append(f.calls, searchCall{filter: filter, limit: limit})
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(filter, limit)
	}
	return nil, nil
}

func statuteDoc(law, article string) models.LegalDocument {
	return models.LegalDocument{
		DocType:   models.DocTypeStatute,
		LawName:   law,
		ArticleID: article,
		Content:   "條文 " + article,
	}
}

func caseDoc(caseID, cited string) models.LegalDocument {
	return models.LegalDocument{
		DocType:       models.DocTypeCase,
		Court:         "最高法院",
		CaseID:        caseID,
		Content:       "判例 " + caseID,
		CitedArticles: cited,
	}
}

func TestRetrieveStatutes(t *testing.T) {
	ctx := context.Background()
	embedding := []float64{0.1, 0.2}

	t.Run("recognized domain narrows the filter", func(t *testing.T) {
		searcher := &fakeSearcher{}
		r := NewRetriever(searcher, nil)

		_, err := r.RetrieveStatutes(ctx, embedding, models.DomainCivil)
		require.NoError(t, err)

		require.Len(t, searcher.calls, 1)
		assert.Equal(t, repository.DocumentFilter{
			DocType: models.DocTypeStatute,
			LawName: "民法",
		}, searcher.calls[0].filter)
		assert.Equal(t, statuteTopK, searcher.calls[0].limit)
	})

	t.Run("unrecognized domain searches all statutes", func(t *testing.T) {
		searcher := &fakeSearcher{}
		r := NewRetriever(searcher, nil)

		_, err := r.RetrieveStatutes(ctx, embedding, models.Domain("海商法"))
		require.NoError(t, err)

		require.Len(t, searcher.calls, 1)
		assert.Equal(t, repository.DocumentFilter{DocType: models.DocTypeStatute}, searcher.calls[0].filter)
	})

	t.Run("store error surfaces", func(t *testing.T) {
		searcher := &fakeSearcher{fn: func(repository.DocumentFilter, int) ([]models.LegalDocument, error) {
			return nil, errors.New("connection refused")
		}}
		r := NewRetriever(searcher, nil)

		_, err := r.RetrieveStatutes(ctx, embedding, models.DomainCivil)
		assert.Error(t, err)
	})
}

func TestRetrieveCases(t *testing.T) {
	ctx := context.Background()
	embedding := []float64{0.1, 0.2}

	recall := []models.LegalDocument{
		caseDoc("110台上1234", "民法_184,民法_195"),
		caseDoc("109台上5678", "刑法_277"),
		caseDoc("108台上9999", ""),
		caseDoc("107台上1111", "民法_184"),
		caseDoc("106台上2222", "民法_195"),
	}

	newRetriever := func(docs []models.LegalDocument) (*Retriever, *fakeSearcher) {
		searcher := &fakeSearcher{fn: func(filter repository.DocumentFilter, limit int) ([]models.LegalDocument, error) {
			return docs, nil
		}}
		return NewRetriever(searcher, nil), searcher
	}

	t.Run("recall is restricted to cases with k=10", func(t *testing.T) {
		r, searcher := newRetriever(recall)
		_, err := r.RetrieveCases(ctx, embedding, []string{"民法_184"})
		require.NoError(t, err)

		require.Len(t, searcher.calls, 1)
		assert.Equal(t, repository.DocumentFilter{DocType: models.DocTypeCase}, searcher.calls[0].filter)
		assert.Equal(t, caseRecallK, searcher.calls[0].limit)
	})

	t.Run("keeps only citing cases in recall order", func(t *testing.T) {
		r, _ := newRetriever(recall)
		got, err := r.RetrieveCases(ctx, embedding, []string{"民法_184"})
		require.NoError(t, err)

		require.Len(t, got, 2)
		assert.Equal(t, "110台上1234", got[0].CaseID)
		assert.Equal(t, "107台上1111", got[1].CaseID)
	})

	t.Run("no partial-id false positive", func(t *testing.T) {
		r, _ := newRetriever(recall)
		got, err := r.RetrieveCases(ctx, embedding, []string{"民法_18"})
		require.NoError(t, err)

		// Nothing cites 民法_18; fallback keeps the single top-ranked case
		require.Len(t, got, 1)
		assert.Equal(t, "110台上1234", got[0].CaseID)
	})

	t.Run("fallback returns exactly one case when filter empties recall", func(t *testing.T) {
		r, _ := newRetriever(recall)
		got, err := r.RetrieveCases(ctx, embedding, []string{"著作權法_88"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, recall[0].CaseID, got[0].CaseID)
	})

	t.Run("empty recall yields empty result", func(t *testing.T) {
		r, _ := newRetriever(nil)
		got, err := r.RetrieveCases(ctx, embedding, []string{"民法_184"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("truncates to three", func(t *testing.T) {
		many := []models.LegalDocument{
			caseDoc("c1", "民法_184"),
			caseDoc("c2", "民法_184"),
			caseDoc("c3", "民法_184"),
			caseDoc("c4", "民法_184"),
			caseDoc("c5", "民法_184"),
		}
		r, _ := newRetriever(many)
		got, err := r.RetrieveCases(ctx, embedding, []string{"民法_184"})
		require.NoError(t, err)
		require.Len(t, got, maxCases)
		assert.Equal(t, "c1", got[0].CaseID)
		assert.Equal(t, "c3", got[2].CaseID)
	})

	t.Run("result is always a subset of recall", func(t *testing.T) {
		r, _ := newRetriever(recall)
		got, err := r.RetrieveCases(ctx, embedding, []string{"民法_195", "刑法_277"})
		require.NoError(t, err)

		inRecall := make(map[string]bool)
		for _, doc := range recall {
			inRecall[doc.CaseID] = true
		}
		for _, doc := range got {
			assert.True(t, inRecall[doc.CaseID])
		}
		assert.NotEmpty(t, got)
	})

	t.Run("store error surfaces", func(t *testing.T) {
		searcher := &fakeSearcher{fn: func(repository.DocumentFilter, int) ([]models.LegalDocument, error) {
			return nil, errors.New("store unreachable")
		}}
		r := NewRetriever(searcher, nil)
		_, err := r.RetrieveCases(ctx, embedding, []string{"民法_184"})
		assert.Error(t, err)
	})
}
