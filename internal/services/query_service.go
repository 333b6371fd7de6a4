// Package services orchestrates a routed query across the router, the
// audit publisher and the language collaborators.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"insights/internal/core"
	"insights/internal/llm"
	"insights/internal/log"
)

var (
	// ErrChatUnavailable is returned by Chat when no language model is configured.
	ErrChatUnavailable = errors.New("chat is not configured")
	// ErrEmptyQuestion rejects blank chat questions.
	ErrEmptyQuestion = errors.New("question is empty")
)

type (
	Router interface {
		Route(ctx context.Context, intent core.Intent) (core.RoutedResult, error)
	}

	AuditPublisher interface {
		PublishQueryAudit(ctx context.Context, audit core.QueryAudit) error
	}
)

// ChatResponse is the outcome of one natural-language question.
type ChatResponse struct {
	Intent core.Intent       `json:"intent"`
	Result core.RoutedResult `json:"data"`
	Answer string            `json:"answer"`
}

// QueryService routes intents and publishes an audit event for each one.
// Audit failures are logged and never fail the request.
type QueryService struct {
	router    Router
	publisher AuditPublisher
	parser    llm.IntentParser
	answerer  llm.AnswerGenerator
	now       func() time.Time
}

// NewQueryService wires the collaborators. publisher, parser and answerer
// may be nil.
func NewQueryService(router Router, publisher AuditPublisher, parser llm.IntentParser, answerer llm.AnswerGenerator) *QueryService {
	return &QueryService{
		router:    router,
		publisher: publisher,
		parser:    parser,
		answerer:  answerer,
		now:       time.Now,
	}
}

func (s *QueryService) ChatEnabled() bool {
	return s.parser != nil && s.answerer != nil
}

// Route routes intent and reports the outcome.
func (s *QueryService) Route(ctx context.Context, intent core.Intent) (core.RoutedResult, error) {
	start := s.now()
	res, err := s.router.Route(ctx, intent)
	took := s.now().Sub(start)

	logger := log.NewStructuredLogger(log.FromContext(ctx))
	if err != nil {
		logger.LogError(ctx, "Routing failed", err, log.OpRoute,
			log.NewFields().WithIntent(string(intent.Kind), intent.Metric, intent.DateRange))
	} else {
		logger.LogRouted(ctx, string(intent.Kind), intent.Metric, intent.DateRange, string(res.Status), res.Code, took)
	}

	s.publishAudit(ctx, core.NewQueryAudit(uuid.NewString(), intent, res, err, took, start))
	return res, err
}

// Chat answers a natural-language question: parse, route, then render.
// When only the answer fails, the response still carries the intent and
// the routed result.
func (s *QueryService) Chat(ctx context.Context, question string) (ChatResponse, error) {
	if !s.ChatEnabled() {
		return ChatResponse{}, ErrChatUnavailable
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return ChatResponse{}, ErrEmptyQuestion
	}

	intent, err := s.parser.ParseIntent(ctx, question)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("parse question: %w", err)
	}

	res, err := s.Route(ctx, intent)
	if err != nil {
		return ChatResponse{}, err
	}

	resp := ChatResponse{Intent: intent, Result: res}
	answer, err := s.answerer.GenerateAnswer(ctx, question, intent, res)
	if err != nil {
		return resp, fmt.Errorf("answer question: %w", err)
	}
	resp.Answer = answer
	return resp, nil
}

func (s *QueryService) publishAudit(ctx context.Context, audit core.QueryAudit) {
	if s.publisher == nil {
		log.FromContext(ctx).DebugContext(ctx, "AMQP client not available, skipping query audit")
		return
	}
	if err := s.publisher.PublishQueryAudit(ctx, audit); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Failed to publish query audit",
			log.FieldEventID, audit.ID,
			log.FieldError, err)
	}
}

// Close releases the publisher when it holds a connection.
func (s *QueryService) Close() error {
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close audit publisher: %w", err)
		}
	}
	return nil
}
