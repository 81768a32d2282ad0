package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/pkg/llm"
	"github.com/nggaadaotak/kintari-be/pkg/tasks"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	mu      sync.Mutex
	prompts []string
	err     error
}

func (s *scriptedLLM) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if strings.Contains(prompt, "Analyze this document") {
		return "analisis", nil
	}
	return "ringkasan", nil
}

func seedDoc(t *testing.T, docs *memDocs, text string) *model.Document {
	t.Helper()
	doc := &model.Document{Filename: "a.pdf", FullText: text, DocumentType: model.TypeReport}
	require.NoError(t, docs.Create(context.Background(), doc))
	return doc
}

func TestEnricherWritesAIFields(t *testing.T) {
	docs := newMemDocs()
	doc := seedDoc(t, docs, strings.Repeat("a", 20000))
	gw := &scriptedLLM{}

	err := NewEnricher(docs, gw).Process(context.Background(), tasks.EnrichmentTask{DocumentID: doc.ID})
	require.NoError(t, err)

	got, err := docs.FindByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, "ringkasan", *got.AISummary)
	require.Equal(t, "analisis", got.AIInsights["analysis"])
	require.Len(t, gw.prompts, 2)
	for _, p := range gw.prompts {
		require.Less(t, len(p), 16000)
	}
}

func TestEnricherIsIdempotent(t *testing.T) {
	docs := newMemDocs()
	doc := seedDoc(t, docs, "isi dokumen")
	existing := "sudah ada"
	docs.docs[doc.ID].AISummary = &existing
	gw := &scriptedLLM{}

	require.NoError(t, NewEnricher(docs, gw).Process(context.Background(), tasks.EnrichmentTask{DocumentID: doc.ID}))
	require.Empty(t, gw.prompts)
	require.Equal(t, "sudah ada", *docs.docs[doc.ID].AISummary)
}

func TestEnricherSkipsEmptyText(t *testing.T) {
	docs := newMemDocs()
	doc := seedDoc(t, docs, "")
	gw := &scriptedLLM{}
	require.NoError(t, NewEnricher(docs, gw).Process(context.Background(), tasks.EnrichmentTask{DocumentID: doc.ID}))
	require.Empty(t, gw.prompts)
}

func TestEnricherReturnsGatewayError(t *testing.T) {
	docs := newMemDocs()
	doc := seedDoc(t, docs, "isi dokumen")
	gw := &scriptedLLM{err: llm.ErrGateway}

	err := NewEnricher(docs, gw).Process(context.Background(), tasks.EnrichmentTask{DocumentID: doc.ID})
	require.True(t, errors.Is(err, llm.ErrGateway))
	require.Nil(t, docs.docs[doc.ID].AISummary)
}

func TestInlineDispatcherSwallowsErrors(t *testing.T) {
	docs := newMemDocs()
	doc := seedDoc(t, docs, "isi dokumen")
	d := NewInlineDispatcher(NewEnricher(docs, &scriptedLLM{err: llm.ErrGateway}))
	require.NoError(t, d.Dispatch(context.Background(), tasks.EnrichmentTask{DocumentID: doc.ID}))

	require.NoError(t, d.Dispatch(context.Background(), tasks.EnrichmentTask{DocumentID: 999}))
}
