package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sifan077/QuotaLink/config"
	"github.com/sifan077/QuotaLink/internal/app/model"
	"github.com/sifan077/QuotaLink/internal/app/repository"
	"go.uber.org/zap"
)

// MaxCodeAttempts bounds code generation retries on unique violations.
const MaxCodeAttempts = 10

var (
	// ErrInvalidInput is wrapped with the reason the input was rejected.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCodeExhausted is returned when every generated code collided.
	ErrCodeExhausted = errors.New("could not allocate a unique code")

	// ErrStorage wraps failures reported by the link store.
	ErrStorage = errors.New("storage failure")

	// ErrConsumeRejected is returned when the store refused a click for a
	// link that still reads as available.
	ErrConsumeRejected = errors.New("click rejected for an available link")
)

// LinkService defines behaviour-level operations on links.
type LinkService interface {
	Create(ctx context.Context, owner, rawURL string, limit *int) (*model.Link, error)
	Open(ctx context.Context, code string) (OpenResult, error)
	OpenAt(ctx context.Context, code string, now time.Time) (OpenResult, error)
	List(ctx context.Context, owner string) ([]model.Link, error)
	Info(ctx context.Context, owner, code string) (InfoResult, error)
	SetLimit(ctx context.Context, owner, code string, newLimit int) (Outcome, error)
	Delete(ctx context.Context, owner, code string) (Outcome, error)
}

// Options tune a LinkService. Zero values fall back to defaults.
type Options struct {
	TTL          time.Duration
	DefaultLimit int
	CodeLength   int

	Logger  *zap.Logger
	Codes   CodeSource
	Events  EventPublisher
	Metrics MetricsRecorder
	Clock   func() time.Time
}

type linkService struct {
	repo         repository.LinkRepository
	ttl          time.Duration
	defaultLimit int
	logger       *zap.Logger
	codes        CodeSource
	events       EventPublisher
	metrics      MetricsRecorder
	now          func() time.Time
}

// NewLinkService returns a service implementation backed by the given repository.
func NewLinkService(repo repository.LinkRepository, opts Options) LinkService {
	s := &linkService{
		repo:         repo,
		ttl:          opts.TTL,
		defaultLimit: opts.DefaultLimit,
		logger:       opts.Logger,
		codes:        opts.Codes,
		events:       opts.Events,
		metrics:      opts.Metrics,
		now:          opts.Clock,
	}
	if s.ttl <= 0 {
		s.ttl = config.DefaultTTL
	}
	if s.defaultLimit < 1 || s.defaultLimit > config.MaxClickLimit {
		s.defaultLimit = config.DefaultClickLimit
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.codes == nil {
		length := opts.CodeLength
		if length < config.MinCodeLength || length > config.MaxCodeLength {
			length = config.DefaultCodeLength
		}
		s.codes = NewCodeGenerator(length)
	}
	if s.events == nil {
		s.events = NopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = NopMetrics{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *linkService) Create(ctx context.Context, owner, rawURL string, limit *int) (*model.Link, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: owner is empty", ErrInvalidInput)
	}
	target, err := validateTarget(rawURL)
	if err != nil {
		return nil, err
	}

	clickLimit := s.defaultLimit
	if limit != nil {
		clickLimit = *limit
	}
	if err := validateLimit(clickLimit); err != nil {
		return nil, err
	}

	now := s.now()
	for attempt := 1; attempt <= MaxCodeAttempts; attempt++ {
		code, err := s.codes.Next()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}

		link := &model.Link{
			Owner:       owner,
			Code:        code,
			Target:      target,
			CreatedAtMs: now.UnixMilli(),
			ExpiresAtMs: now.Add(s.ttl).UnixMilli(),
			ClickLimit:  clickLimit,
			Active:      true,
		}

		err = s.repo.Insert(ctx, link)
		if err == nil {
			s.codes.MarkTaken(code)
			s.metrics.LinkCreated()
			s.publish(ctx, model.LinkEvent{
				Type:  model.EventLinkCreated,
				Code:  link.Code,
				Owner: link.Owner,
				Limit: link.ClickLimit,
			})
			s.logger.Debug("link created", zap.String("code", code), zap.Int("limit", clickLimit))
			return link, nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return nil, storageError("insert link", err)
		}

		s.codes.MarkTaken(code)
		s.logger.Debug("code collision, retrying", zap.String("code", code), zap.Int("attempt", attempt))
	}

	s.logger.Warn("code generation exhausted", zap.Int("attempts", MaxCodeAttempts))
	return nil, ErrCodeExhausted
}

func (s *linkService) Open(ctx context.Context, code string) (OpenResult, error) {
	return s.OpenAt(ctx, code, s.now())
}

func (s *linkService) OpenAt(ctx context.Context, code string, now time.Time) (OpenResult, error) {
	result, err := s.openAt(ctx, code, now)
	if err == nil {
		s.metrics.OpenResolved(result.Outcome.String())
	}
	return result, err
}

func (s *linkService) openAt(ctx context.Context, code string, now time.Time) (OpenResult, error) {
	current, err := s.repo.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrLinkNotFound) {
		return OpenResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return OpenResult{}, storageError("find link", err)
	}

	if outcome := classify(current, now); outcome != OutcomeOK {
		return OpenResult{Outcome: outcome, Link: current}, nil
	}

	updated, err := s.repo.ConsumeClick(ctx, code, now)
	if errors.Is(err, repository.ErrNotConsumed) {
		return s.reclassify(ctx, current, now)
	}
	if err != nil {
		return OpenResult{}, storageError("consume click", err)
	}

	lastClick := !updated.Active
	s.publish(ctx, model.LinkEvent{
		Type:   model.EventLinkClicked,
		Code:   updated.Code,
		Owner:  updated.Owner,
		Clicks: updated.ClickCount,
		Limit:  updated.ClickLimit,
	})
	if lastClick {
		s.publish(ctx, model.LinkEvent{
			Type:   model.EventLinkDisabled,
			Code:   updated.Code,
			Owner:  updated.Owner,
			Clicks: updated.ClickCount,
			Limit:  updated.ClickLimit,
		})
	}

	return OpenResult{
		Outcome:   OutcomeOK,
		Target:    updated.Target,
		LastClick: lastClick,
		Link:      updated,
	}, nil
}

// reclassify explains a lost consume race from a fresh read of the row.
func (s *linkService) reclassify(ctx context.Context, previous *model.Link, now time.Time) (OpenResult, error) {
	again, err := s.repo.FindByCode(ctx, previous.Code)
	if errors.Is(err, repository.ErrLinkNotFound) {
		return OpenResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return OpenResult{}, storageError("find link", err)
	}
	// Deleted and recreated under the same code in between.
	if again.ID != previous.ID {
		return OpenResult{Outcome: OutcomeNotFound}, nil
	}

	if outcome := classify(again, now); outcome != OutcomeOK {
		return OpenResult{Outcome: outcome, Link: again}, nil
	}
	return OpenResult{}, fmt.Errorf("%w: %s", ErrConsumeRejected, previous.Code)
}

func (s *linkService) List(ctx context.Context, owner string) ([]model.Link, error) {
	links, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, storageError("list links", err)
	}
	return links, nil
}

func (s *linkService) Info(ctx context.Context, owner, code string) (InfoResult, error) {
	link, outcome, err := s.loadOwned(ctx, owner, code)
	if err != nil || outcome != OutcomeOK {
		return InfoResult{Outcome: outcome}, err
	}
	return InfoResult{Outcome: OutcomeOK, Link: link}, nil
}

func (s *linkService) SetLimit(ctx context.Context, owner, code string, newLimit int) (Outcome, error) {
	if err := validateLimit(newLimit); err != nil {
		return OutcomeOK, err
	}

	current, outcome, err := s.loadOwned(ctx, owner, code)
	if err != nil || outcome != OutcomeOK {
		return outcome, err
	}
	if current.ClickCount > newLimit {
		return OutcomeLimitBelowUsage, nil
	}

	updated, err := s.repo.UpdateLimit(ctx, code, owner, newLimit)
	if err != nil {
		return OutcomeOK, storageError("update limit", err)
	}
	if !updated {
		// Clicks or a delete landed between the read and the update.
		again, outcome, err := s.loadOwned(ctx, owner, code)
		if err != nil || outcome != OutcomeOK {
			return outcome, err
		}
		if again.ClickCount > newLimit {
			return OutcomeLimitBelowUsage, nil
		}
		return OutcomeNotFound, nil
	}

	s.publish(ctx, model.LinkEvent{
		Type:  model.EventLinkLimitUpdated,
		Code:  code,
		Owner: owner,
		Limit: newLimit,
	})
	return OutcomeOK, nil
}

func (s *linkService) Delete(ctx context.Context, owner, code string) (Outcome, error) {
	_, outcome, err := s.loadOwned(ctx, owner, code)
	if err != nil || outcome != OutcomeOK {
		return outcome, err
	}

	deleted, err := s.repo.DeleteByCodeAndOwner(ctx, code, owner)
	if err != nil {
		return OutcomeOK, storageError("delete link", err)
	}
	if !deleted {
		return OutcomeNotFound, nil
	}

	s.publish(ctx, model.LinkEvent{
		Type:  model.EventLinkDeleted,
		Code:  code,
		Owner: owner,
	})
	return OutcomeOK, nil
}

// loadOwned reads a link and checks it belongs to owner.
func (s *linkService) loadOwned(ctx context.Context, owner, code string) (*model.Link, Outcome, error) {
	link, err := s.repo.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrLinkNotFound) {
		return nil, OutcomeNotFound, nil
	}
	if err != nil {
		return nil, OutcomeOK, storageError("find link", err)
	}
	if link.Owner != owner {
		return nil, OutcomeForbidden, nil
	}
	return link, OutcomeOK, nil
}

func (s *linkService) publish(ctx context.Context, event model.LinkEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish link event",
			zap.String("type", event.Type),
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}
}

// classify applies the open precedence: expired, then quota.
func classify(link *model.Link, now time.Time) Outcome {
	switch {
	case link.ExpiredAt(now):
		return OutcomeExpired
	case link.QuotaExhausted():
		return OutcomeLimitReached
	default:
		return OutcomeOK
	}
}

func validateTarget(raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "", fmt.Errorf("%w: url is empty", ErrInvalidInput)
	}
	if strings.ContainsAny(target, " \t\r\n") {
		return "", fmt.Errorf("%w: url contains whitespace", ErrInvalidInput)
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%w: url is malformed", ErrInvalidInput)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: url must start with http:// or https://", ErrInvalidInput)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: url has no host", ErrInvalidInput)
	}
	return target, nil
}

func validateLimit(limit int) error {
	if limit < 1 || limit > config.MaxClickLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, config.MaxClickLimit)
	}
	return nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
