package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"box3-backend/internal/feedback"
	"box3-backend/internal/llm"
	"box3-backend/internal/queue"
	"box3-backend/internal/reportversions"
	"box3-backend/internal/shared/metrics"
	"box3-backend/internal/shared/telemetry"
)

const (
	maxFeedbackRunes = 200_000
	maxReportRunes   = 400_000
	maxNoteRunes     = 2_000
	maxErrorRunes    = 500
)

// CreateInput describes a new review.
type CreateInput struct {
	UserID      string
	DossierID   string
	StageID     string
	Specialist  string
	RawFeedback string
	// ReportText is the report under review; optional until apply.
	ReportText string
}

// DecisionInput attaches a human verdict to one proposal. An empty Decision
// clears an earlier one.
type DecisionInput struct {
	UserID     string
	ReviewID   string
	ProposalID string
	Decision   string
	Note       string
	Edit       string
}

// Service contains business logic for review sessions.
type Service struct {
	Repo     Repo
	Versions *reportversions.Service
	LLM      llm.Client
	// Queue, when set, moves apply work to the worker.
	Queue queue.Client
	Now   func() time.Time
}

// CreateFromFeedback parses raw specialist feedback into proposals and stores the review.
func (s *Service) CreateFromFeedback(ctx context.Context, in CreateInput) (Review, error) {
	if err := validateCreate(in); err != nil {
		return Review{}, err
	}
	if strings.TrimSpace(in.RawFeedback) == "" || utf8.RuneCountInString(in.RawFeedback) > maxFeedbackRunes {
		return Review{}, ErrInvalidInput
	}

	in.DossierID = strings.TrimSpace(in.DossierID)
	in.StageID = strings.TrimSpace(in.StageID)
	in.Specialist = strings.TrimSpace(in.Specialist)

	proposals := feedback.Parse(in.RawFeedback, in.Specialist, in.StageID)
	fallback := len(proposals) == 1 && proposals[0].Reasoning == feedback.FallbackReasoning
	metrics.ObserveFeedbackParsed(len(proposals), fallback)

	now := s.now()
	review := Review{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		DossierID:   in.DossierID,
		StageID:     in.StageID,
		Specialist:  in.Specialist,
		RawFeedback: in.RawFeedback,
		Proposals:   proposals,
		Status:      StatusOpen,
		ReportText:  in.ReportText,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, review); err != nil {
		return Review{}, err
	}

	telemetry.Info("review.feedback.parsed", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"user_id":    review.UserID,
		"review_id":  review.ID,
		"dossier_id": review.DossierID,
		"stage_id":   review.StageID,
		"specialist": review.Specialist,
		"proposals":  len(proposals),
		"fallback":   fallback,
	})
	return review, nil
}

// RequestFeedback asks the AI reviewer for feedback on in.ReportText and
// stores the parsed result.
func (s *Service) RequestFeedback(ctx context.Context, in CreateInput) (Review, error) {
	if err := validateCreate(in); err != nil {
		return Review{}, err
	}
	if strings.TrimSpace(in.ReportText) == "" {
		return Review{}, ErrMissingReport
	}
	if utf8.RuneCountInString(in.ReportText) > maxReportRunes {
		return Review{}, ErrInvalidInput
	}
	if s.LLM == nil {
		return Review{}, errors.New("missing llm client")
	}

	raw, err := llm.WithRetry(s.LLM).Complete(ctx, llm.ReviewerPrompt(in.Specialist, in.StageID, in.ReportText))
	if err != nil {
		metrics.IncLLMFailed()
		telemetry.Error("review.feedback.llm_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"user_id":    in.UserID,
			"dossier_id": in.DossierID,
			"specialist": in.Specialist,
			"err":        err,
		})
		return Review{}, fmt.Errorf("llm reviewer: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		metrics.IncLLMFailed()
		return Review{}, ErrInvalidLLMOutput
	}

	in.RawFeedback = raw
	return s.CreateFromFeedback(ctx, in)
}

// Get returns a review owned by userID.
func (s *Service) Get(ctx context.Context, userID, reviewID string) (Review, error) {
	if userID == "" || reviewID == "" {
		return Review{}, ErrInvalidInput
	}
	review, err := s.Repo.GetByID(ctx, reviewID)
	if err != nil {
		return Review{}, err
	}
	if review.UserID != userID {
		return Review{}, ErrForbidden
	}
	return review, nil
}

// List returns a user's reviews newest first. An empty dossierID lists all dossiers.
func (s *Service) List(ctx context.Context, userID, dossierID string, limit, offset int) ([]Review, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.List(ctx, userID, strings.TrimSpace(dossierID), limit, offset)
}

// Decide records the human decision on one proposal of an open review.
func (s *Service) Decide(ctx context.Context, in DecisionInput) (Review, error) {
	if in.ProposalID == "" {
		return Review{}, ErrInvalidInput
	}
	decision, ok := feedback.ParseDecision(in.Decision)
	if !ok && strings.TrimSpace(in.Decision) != "" {
		return Review{}, ErrInvalidInput
	}
	if utf8.RuneCountInString(in.Note) > maxNoteRunes || utf8.RuneCountInString(in.Edit) > maxFeedbackRunes {
		return Review{}, ErrInvalidInput
	}

	// Ownership never changes, so it is checked before taking the row.
	if _, err := s.Get(ctx, in.UserID, in.ReviewID); err != nil {
		return Review{}, err
	}

	review, err := s.Repo.UpdateProposals(ctx, in.ReviewID, s.now(), func(review *Review) error {
		idx := review.proposalIndex(in.ProposalID)
		if idx < 0 {
			return ErrProposalNotFound
		}
		p := &review.Proposals[idx]
		p.UserDecision = decision
		p.UserNote = strings.TrimSpace(in.Note)
		p.UserEdit = ""
		if decision == feedback.DecisionModify {
			p.UserEdit = strings.TrimSpace(in.Edit)
		}
		if decision == "" {
			p.UserNote = ""
		}
		return nil
	})
	if err != nil {
		return Review{}, err
	}
	metrics.IncDecision()
	return review, nil
}

// Instructions renders the decisions taken so far as an apply instruction block.
func (s *Service) Instructions(ctx context.Context, userID, reviewID string) (string, error) {
	review, err := s.Get(ctx, userID, reviewID)
	if err != nil {
		return "", err
	}
	return feedback.Serialize(review.Proposals), nil
}

// Apply rewrites the report according to the review's decisions and stores
// the result as a report version. reportText overrides the text stored at
// creation. With a queue configured the review is left in applying and the
// work is handed to the worker.
func (s *Service) Apply(ctx context.Context, userID, reviewID, reportText string) (Review, error) {
	review, err := s.Get(ctx, userID, reviewID)
	if err != nil {
		return Review{}, err
	}
	if !review.Editable() {
		return Review{}, ErrAlreadyApplied
	}
	if review.DecidedCount() == 0 {
		return Review{}, ErrNothingDecided
	}
	if strings.TrimSpace(reportText) == "" {
		reportText = review.ReportText
	}
	if strings.TrimSpace(reportText) == "" {
		return Review{}, ErrMissingReport
	}
	if utf8.RuneCountInString(reportText) > maxReportRunes {
		return Review{}, ErrInvalidInput
	}
	if s.Versions == nil || (s.Queue == nil && s.LLM == nil) {
		return Review{}, errors.New("missing dependencies")
	}

	instructions := feedback.Serialize(review.Proposals)
	transition := review.Status + "->" + StatusApplying
	startedAt := s.now()
	if err := s.Repo.MarkApplying(ctx, review.ID, instructions, reportText, startedAt); err != nil {
		return Review{}, err
	}
	review.Status = StatusApplying
	review.Instructions = instructions
	review.ReportText = reportText
	review.ErrorMessage = ""
	review.UpdatedAt = startedAt

	metrics.IncApplyStarted()
	s.logStatus(ctx, review, transition, nil)

	if s.Queue != nil {
		msg := queue.Message{
			ReviewID:   review.ID,
			RequestID:  requestIDFromContext(ctx),
			EnqueuedAt: startedAt.Format(time.RFC3339),
			Version:    queue.MessageVersion,
		}
		if err := s.Queue.Send(ctx, msg); err != nil {
			failed := s.failApply(ctx, review, fmt.Errorf("enqueue apply: %w", err), startedAt)
			return failed, err
		}
		return review, nil
	}

	return s.runApply(ctx, review, startedAt)
}

// ProcessApply runs a queued apply job. Reviews that are no longer applying
// are skipped so redelivered messages are harmless.
func (s *Service) ProcessApply(ctx context.Context, reviewID string) error {
	if reviewID == "" {
		return ErrInvalidInput
	}
	review, err := s.Repo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.Status != StatusApplying {
		telemetry.Warn("review.apply.skipped", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"review_id":  review.ID,
			"status":     review.Status,
		})
		return nil
	}
	if s.Versions == nil || s.LLM == nil {
		return errors.New("missing dependencies")
	}
	if _, err := s.runApply(ctx, review, review.UpdatedAt); err != nil {
		// A recorded failure is final for this job; the user re-applies.
		// Only an unrecorded one is worth a redelivery.
		current, getErr := s.Repo.GetByID(context.WithoutCancel(ctx), reviewID)
		if getErr == nil && current.Status == StatusFailed {
			return nil
		}
		return err
	}
	return nil
}

func (s *Service) runApply(ctx context.Context, review Review, startedAt time.Time) (result Review, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			result = s.failApply(ctx, review, err, startedAt)
		}
	}()

	out, err := llm.WithRetry(s.LLM).Complete(ctx, llm.ApplyPrompt(review.ReportText, review.Instructions))
	if err != nil {
		metrics.IncLLMFailed()
		err = fmt.Errorf("llm apply: %w", err)
		return s.failApply(ctx, review, err, startedAt), err
	}
	adjusted := cleanReport(out)
	if adjusted == "" {
		metrics.IncLLMFailed()
		return s.failApply(ctx, review, ErrInvalidLLMOutput, startedAt), ErrInvalidLLMOutput
	}

	version, err := s.Versions.Create(ctx, review.UserID, review.DossierID, review.ID, adjusted)
	if err != nil {
		err = fmt.Errorf("store report version: %w", err)
		return s.failApply(ctx, review, err, startedAt), err
	}

	completedAt := s.now()
	review.Status = StatusApplied
	review.ReportVersionID = version.ID
	review.ErrorMessage = ""
	review.UpdatedAt = completedAt
	if err := s.Repo.FinishApply(ctx, review); err != nil {
		err = fmt.Errorf("set applied: %w", err)
		return s.failApply(ctx, review, err, startedAt), err
	}

	durationMs := float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
	metrics.IncApplyCompleted()
	metrics.ObserveApplyDurationMs(durationMs)
	s.logStatus(ctx, review, "applying->applied", map[string]any{
		"report_version_id": version.ID,
		"duration_ms":       durationMs,
	})
	return review, nil
}

func (s *Service) failApply(ctx context.Context, review Review, cause error, startedAt time.Time) Review {
	completedAt := s.now()
	review.Status = StatusFailed
	review.ErrorMessage = sanitizeError(cause)
	review.UpdatedAt = completedAt
	if err := s.Repo.FinishApply(context.WithoutCancel(ctx), review); err != nil {
		telemetry.Error("review.apply.update_failed", map[string]any{
			"review_id": review.ID,
			"err":       err,
			"cause":     cause,
		})
	}
	metrics.IncApplyFailed()
	metrics.ObserveApplyDurationMs(float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0)
	telemetry.Error("review.apply.failed", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           review.UserID,
		"review_id":         review.ID,
		"dossier_id":        review.DossierID,
		"status_transition": "applying->failed",
		"err":               cause,
	})
	return review
}

func (s *Service) logStatus(ctx context.Context, review Review, transition string, extra map[string]any) {
	fields := map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           review.UserID,
		"review_id":         review.ID,
		"dossier_id":        review.DossierID,
		"status":            review.Status,
		"status_transition": transition,
	}
	for k, v := range extra {
		fields[k] = v
	}
	telemetry.Info("review.status", fields)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func validateCreate(in CreateInput) error {
	if in.UserID == "" {
		return ErrInvalidInput
	}
	for _, v := range []string{in.DossierID, in.StageID, in.Specialist} {
		if strings.TrimSpace(v) == "" || len(v) > 200 {
			return ErrInvalidInput
		}
	}
	return nil
}

// cleanReport drops a markdown fence wrapped around the whole model answer.
func cleanReport(raw string) string {
	out := strings.TrimSpace(raw)
	if !strings.HasPrefix(out, "```") {
		return out
	}
	if nl := strings.IndexByte(out, '\n'); nl >= 0 {
		out = out[nl+1:]
	} else {
		return ""
	}
	out = strings.TrimSuffix(strings.TrimSpace(out), "```")
	return strings.TrimSpace(out)
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	if utf8.RuneCountInString(msg) > maxErrorRunes {
		msg = string([]rune(msg)[:maxErrorRunes])
	}
	return msg
}
