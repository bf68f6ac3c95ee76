package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"research-verifier/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// ReportArchiver keeps a copy of each newly created verification outside
// the database.
type ReportArchiver interface {
	Store(ctx context.Context, mv *models.MessageVerification) (string, error)
}

// VerifyOptions are per-request knobs of Verify.
type VerifyOptions struct {
	// Model overrides the default judge model when set.
	Model string
}

// VerifyResult tells whether the verification was computed by this call.
type VerifyResult struct {
	Verification *models.MessageVerification
	Created      bool
}

// VerificationService runs the full verification of an assistant message.
type VerificationService struct {
	Messages      MessageStore
	Profiles      ProfileStore
	Verifications VerificationStore
	Cache         VerdictStore
	Papers        *PaperVerifier
	Evaluator     *ResponseEvaluator
	Judges        ChatClientFactory
	Archive       ReportArchiver

	DefaultModel string
	Concurrency  int

	Metrics *Metrics
	Logger  *zap.Logger
}

// Verify returns the stored verification of messageID, computing and
// persisting it first if there is none. Errors are ErrNotFound,
// ErrInvalidState, ErrMissingCredential or a *PersistenceError; upstream
// failures never surface here.
func (s *VerificationService) Verify(ctx context.Context, messageID, requesterID uint, opts VerifyOptions) (*VerifyResult, error) {
	log := s.Logger.With(zap.Uint("message_id", messageID), zap.Uint("user_id", requesterID))

	msg, err := s.Messages.OwnedMessage(ctx, messageID, requesterID)
	if err != nil {
		return nil, err
	}
	if msg.Role != models.RoleAssistant {
		return nil, fmt.Errorf("%w: can only verify assistant messages", ErrInvalidState)
	}

	existing, err := s.Verifications.LatestForMessage(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.Metrics.verification("existing")
		log.Debug("Verification already exists", zap.Uint("verification_id", existing.ID))
		return &VerifyResult{Verification: existing, Created: false}, nil
	}

	content, ok := models.ParseAssistantContent(msg.Content)
	if !ok {
		return nil, fmt.Errorf("%w: invalid message format", ErrInvalidState)
	}

	apiKey, err := s.Profiles.APIKey(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: no LLM API key configured", ErrMissingCredential)
	}

	// From here on the work runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	model := s.DefaultModel
	if opts.Model != "" {
		model = opts.Model
	}
	judge := NewJudge(s.Judges(apiKey), model, s.Logger)

	started := time.Now()
	log.Info("Starting verification", zap.Int("papers", len(content.Papers)), zap.String("model", model))

	verdicts := s.verifyPapers(ctx, judge, content.Papers, log)

	history, err := s.Messages.History(ctx, msg)
	if err != nil {
		s.Metrics.verification("failed")
		return nil, err
	}
	evaluation := s.Evaluator.Evaluate(ctx, judge, EvaluationInput{
		SystemPrompt: msg.SystemPrompt,
		History:      transcript(history),
		ResponseText: content.Text,
		Papers:       content.Papers,
		Verdicts:     verdicts,
	})

	mv := &models.MessageVerification{
		MessageID:           msg.ID,
		ConfidenceScore:     roundConfidence(evaluation.ConfidenceScore),
		TextualVerification: datatypes.NewJSONType(evaluation),
		Summary:             evaluation.Summary,
	}
	for _, v := range verdicts {
		mv.PaperVerifications = append(mv.PaperVerifications, models.NewPaperVerification(v))
	}
	if err := s.Verifications.Create(ctx, mv); err != nil {
		s.Metrics.verification("failed")
		log.Error("Failed to persist verification", zap.Error(err))
		return nil, err
	}

	stored, err := s.Verifications.Get(ctx, mv.ID)
	if err != nil {
		s.Metrics.verification("failed")
		return nil, err
	}
	s.Metrics.verification("created")
	log.Info("Verification completed",
		zap.Uint("verification_id", stored.ID),
		zap.Float64("confidence", stored.ConfidenceScore),
		zap.Duration("took", time.Since(started)))

	s.archive(ctx, stored, log)
	return &VerifyResult{Verification: stored, Created: true}, nil
}

// Get returns the stored verification of a message the requester owns.
func (s *VerificationService) Get(ctx context.Context, messageID, requesterID uint) (*models.MessageVerification, error) {
	msg, err := s.Messages.OwnedMessage(ctx, messageID, requesterID)
	if err != nil {
		return nil, err
	}
	mv, err := s.Verifications.LatestForMessage(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	if mv == nil {
		return nil, fmt.Errorf("%w: message has no verification", ErrNotFound)
	}
	return mv, nil
}

// verifyPapers returns one verdict per paper, in paper order. Papers that
// repeat an earlier non-empty link reuse that paper's verdict.
func (s *VerificationService) verifyPapers(ctx context.Context, judge *Judge, papers []models.ClaimedPaper, log *zap.Logger) []models.Verdict {
	verdicts := make([]models.Verdict, len(papers))
	firstByLink := make(map[string]int)
	duplicateOf := make(map[int]int)

	var g errgroup.Group
	g.SetLimit(max(s.Concurrency, 1))
	for i, paper := range papers {
		link := string(paper.Link)
		if link != "" {
			if first, seen := firstByLink[link]; seen {
				duplicateOf[i] = first
				continue
			}
			firstByLink[link] = i
		}
		g.Go(func() error {
			verdicts[i] = s.verifyPaper(ctx, judge, paper, i, log)
			return nil
		})
	}
	_ = g.Wait()

	for i, first := range duplicateOf {
		v := verdicts[first]
		v.PaperIndex = i
		v.AssistantSummary = string(papers[i].Summary)
		v.Reused = true
		verdicts[i] = v
	}
	return verdicts
}

func (s *VerificationService) verifyPaper(ctx context.Context, judge *Judge, paper models.ClaimedPaper, index int, log *zap.Logger) models.Verdict {
	link := string(paper.Link)
	if link != "" {
		row, err := s.Cache.Lookup(ctx, link)
		if err != nil {
			log.Warn("Verdict cache lookup failed", zap.String("link", link), zap.Error(err))
		}
		s.Metrics.cacheLookup(row != nil)
		if row != nil {
			return verdictFromCache(row, paper, index)
		}
	}

	v := s.Papers.Verify(ctx, judge, paper, index)
	if err := s.Cache.Upsert(ctx, v); err != nil {
		log.Warn("Verdict cache write failed", zap.String("link", link), zap.Error(err))
	}
	return v
}

func (s *VerificationService) archive(ctx context.Context, mv *models.MessageVerification, log *zap.Logger) {
	if s.Archive == nil {
		return
	}
	key, err := s.Archive.Store(ctx, mv)
	if err != nil {
		log.Warn("Failed to archive verification report", zap.Error(err))
		return
	}
	log.Debug("Verification report archived", zap.String("key", key))
}

// transcript renders the history for the judge; assistant turns are reduced
// to their prose.
func transcript(history []models.Message) []Turn {
	turns := make([]Turn, 0, len(history))
	for _, m := range history {
		content := m.Content
		if m.Role == models.RoleAssistant {
			if parsed, ok := models.ParseAssistantContent(m.Content); ok {
				content = parsed.Text
			}
		}
		turns = append(turns, Turn{Role: m.Role, Content: content})
	}
	return turns
}
