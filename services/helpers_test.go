package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"research-verifier/models"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const goodPaperAnswer = `{
	"content_match": {"matches": true, "confidence": 92, "title_match": true, "author_match": true, "date_match": true, "issues": [], "explanation": "Page matches."},
	"paper_quality": {"credibility_score": 8, "quality_score": 7, "credibility_notes": "Well cited.", "quality_notes": "Solid."},
	"summary_evaluation": {"accurate": true, "score": 9, "issues": [], "notes": "Faithful."},
	"overall_assessment": "Looks legitimate."
}`

const goodResponseAnswer = `{
	"confidence_score": 82.46,
	"response_quality": {"addresses_question": true, "clear_and_helpful": true, "follows_instructions": true, "score": 8, "notes": "Good."},
	"accuracy_assessment": {"claims_supported": true, "summaries_accurate": true, "papers_cited_correctly": true, "factual_errors": [], "score": 8, "notes": "Fine."},
	"paper_assessment": {"papers_relevant": true, "papers_high_quality": true, "avg_paper_quality": 7, "concerns": [], "notes": "Relevant."},
	"hallucination_warnings": [],
	"summary": "The answer is well supported."
}`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// fakeChat answers paper and response prompts with canned text.
type fakeChat struct {
	mu             sync.Mutex
	paperAnswer    func(prompt string) (string, error)
	responseAnswer func(prompt string) (string, error)
	paperCalls     int
	responseCalls  int
	lastResponse   string
	models         []string
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		paperAnswer:    func(string) (string, error) { return goodPaperAnswer, nil },
		responseAnswer: func(string) (string, error) { return goodResponseAnswer, nil },
	}
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.models = append(f.models, req.Model)

	prompt := req.Messages[1].Content
	var answer string
	var err error
	if req.Messages[0].Content == paperJudgeSystemPrompt {
		f.paperCalls++
		answer, err = f.paperAnswer(prompt)
	} else {
		f.responseCalls++
		f.lastResponse = prompt
		answer, err = f.responseAnswer(prompt)
	}
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: answer}}},
	}, nil
}

func (f *fakeChat) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paperCalls + f.responseCalls
}

type fakeResolver struct {
	mu    sync.Mutex
	links []string
	delay func(link string) time.Duration
}

func (f *fakeResolver) Resolve(_ context.Context, link string) models.ContentFetchResult {
	if f.delay != nil {
		time.Sleep(f.delay(link))
	}
	f.mu.Lock()
	f.links = append(f.links, link)
	f.mu.Unlock()
	if link == "" {
		return models.ContentFetchResult{Success: false, Error: "No URL provided"}
	}
	return models.ContentFetchResult{Success: true, URL: link, Title: "Fetched " + link, FullText: "body of " + link}
}

func (f *fakeResolver) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.links...)
}

type fakeMetadata struct {
	mu    sync.Mutex
	count int
	fail  bool
}

func (f *fakeMetadata) Lookup(_ context.Context, paper models.ClaimedPaper) models.BibliographicRecord {
	f.mu.Lock()
	f.count++
	f.mu.Unlock()
	if f.fail {
		return models.BibliographicRecord{Success: false, Source: "openalex", Error: "OpenAlex API error: 503"}
	}
	return models.BibliographicRecord{Success: true, Source: "openalex", Title: string(paper.Title), CitedByCount: 10}
}

func (f *fakeMetadata) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

var errBoom = errors.New("boom")

func testJudge(chat ChatClient) *Judge {
	return NewJudge(chat, "test-model", zap.NewNop())
}
