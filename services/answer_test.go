package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mini-rag-backend/models"
)

type fakeModel struct {
	response string
	err      error
	calls    int
	prompt   string
}

func (f *fakeModel) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func rankedChunks(n int) []models.RerankedChunk {
	chunks := make([]models.RerankedChunk, n)
	for i := range chunks {
		chunks[i] = models.RerankedChunk{
			ScoredChunk: models.ScoredChunk{
				ID:   string(rune('a' + i)),
				Text: "text of chunk " + string(rune('a'+i)),
				Metadata: models.ChunkMetadata{
					Source:     "doc.txt",
					Title:      "Doc",
					Position:   i,
					TokenCount: 10,
				},
			},
			RerankerScore: 1.0 - float64(i)*0.1,
		}
	}
	return chunks
}

func TestGenerateAnswerEmptyChunks(t *testing.T) {
	model := &fakeModel{}
	svc := NewAnswerService(model)

	res, err := svc.GenerateAnswer(context.Background(), "what is this?", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Answer != NoInformationAnswer {
		t.Errorf("answer = %q, want fixed no-information answer", res.Answer)
	}
	if len(res.Citations) != 0 {
		t.Errorf("expected no citations, got %d", len(res.Citations))
	}
	if model.calls != 0 {
		t.Error("model must not be called with zero chunks")
	}
}

func TestGenerateAnswerEmptyQuery(t *testing.T) {
	model := &fakeModel{}
	svc := NewAnswerService(model)

	if _, err := svc.GenerateAnswer(context.Background(), "", rankedChunks(2)); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if model.calls != 0 {
		t.Error("model must not be called on input errors")
	}
}

func TestGenerateAnswerCitationMapping(t *testing.T) {
	// markers [2] [1] [2] [5] over 4 chunks: distinct first-appearance
	// order is [2, 1]; the duplicate [2] collapses and [5] is dropped
	model := &fakeModel{response: "Claim one [2]. Claim two [1]. Repeat [2]. Bogus [5]."}
	svc := NewAnswerService(model)

	chunks := rankedChunks(4)
	res, err := svc.GenerateAnswer(context.Background(), "question", chunks)
	if err != nil {
		t.Fatal(err)
	}
	if res.Fallback {
		t.Error("unexpected fallback")
	}
	if model.calls != 1 {
		t.Errorf("model called %d times, want exactly 1", model.calls)
	}

	if len(res.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(res.Citations))
	}
	if res.Citations[0].CitationNumber != 2 || res.Citations[0].Text != chunks[1].Text {
		t.Errorf("first citation should be [2] -> chunks[1], got [%d] %q",
			res.Citations[0].CitationNumber, res.Citations[0].Text)
	}
	if res.Citations[1].CitationNumber != 1 || res.Citations[1].Text != chunks[0].Text {
		t.Errorf("second citation should be [1] -> chunks[0], got [%d] %q",
			res.Citations[1].CitationNumber, res.Citations[1].Text)
	}
}

func TestGenerateAnswerNoMarkers(t *testing.T) {
	model := &fakeModel{response: "An answer with no citations at all."}
	svc := NewAnswerService(model)

	res, err := svc.GenerateAnswer(context.Background(), "question", rankedChunks(2))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Citations) != 0 {
		t.Errorf("expected no citations, got %d", len(res.Citations))
	}
}

func TestGenerateAnswerNumbersSources(t *testing.T) {
	model := &fakeModel{response: "ok [1]"}
	svc := NewAnswerService(model)

	chunks := rankedChunks(3)
	chunks[1].Metadata.Section = "Intro"
	if _, err := svc.GenerateAnswer(context.Background(), "question", chunks); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"[1] Doc", "[2] Doc - Intro", "[3] Doc", chunks[0].Text, "QUESTION: question"} {
		if !strings.Contains(model.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateAnswerModelFailure(t *testing.T) {
	model := &fakeModel{err: errors.New("model unavailable")}
	svc := NewAnswerService(model)

	res, err := svc.GenerateAnswer(context.Background(), "question", rankedChunks(2))
	if err != nil {
		t.Fatalf("model failure must be recovered, got %v", err)
	}
	if !res.Fallback {
		t.Error("fallback flag not set")
	}
	if res.Answer != fallbackAnswer {
		t.Errorf("answer = %q, want fixed apology", res.Answer)
	}
	if len(res.Citations) != 0 {
		t.Errorf("expected no citations on fallback, got %d", len(res.Citations))
	}
}
