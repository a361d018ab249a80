// Package lifecycle runs complaints through intake, triage, routing and
// review, persisting every change through a case store.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cybertriage/cybertriage/internal/bus"
	"github.com/cybertriage/cybertriage/internal/domain"
	"github.com/cybertriage/cybertriage/internal/metrics"
	"github.com/cybertriage/cybertriage/internal/repository"
	"github.com/cybertriage/cybertriage/internal/triage"
)

var tracer = otel.Tracer("cybertriage/lifecycle")

// casePrefix starts every case id.
const casePrefix = "CYB-"

// Service is the case lifecycle orchestrator. All mutations of a single
// case are serialized; different cases proceed in parallel.
type Service struct {
	store   domain.CaseStore
	engine  *triage.Engine
	bus     domain.EventBus
	metrics *metrics.Metrics
	now     func() time.Time
	locks   *keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithBus publishes lifecycle events on b.
func WithBus(b domain.EventBus) Option {
	return func(s *Service) { s.bus = b }
}

// WithMetrics records operation metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a lifecycle service.
func New(store domain.CaseStore, engine *triage.Engine, opts ...Option) *Service {
	s := &Service{
		store:  store,
		engine: engine,
		now:    func() time.Time { return time.Now().UTC() },
		locks:  newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the triage engine the service was built with.
func (s *Service) Engine() *triage.Engine {
	return s.engine
}

// StorageMode names the configured case store.
func (s *Service) StorageMode() string {
	return s.store.Mode()
}

// begin opens a span and returns a finisher that records the outcome.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "lifecycle."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		code := ""
		if err != nil {
			code = domain.Code(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.String("error.code", code))
		}
		s.metrics.ObserveOperation(op, start, code)
		span.End()
	}
}

// load fetches a case, mapping store misses to ErrCaseNotFound.
func (s *Service) load(ctx context.Context, caseID string) (*domain.Case, error) {
	if strings.TrimSpace(caseID) == "" {
		return nil, fmt.Errorf("%w: case_id is required", domain.ErrInvalidInput)
	}
	c, err := s.store.GetCase(ctx, caseID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCaseNotFound, caseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}
	return c, nil
}

// save upserts a single case.
func (s *Service) save(ctx context.Context, c *domain.Case) error {
	if err := s.store.SaveAllCases(ctx, map[string]*domain.Case{c.ID: c}); err != nil {
		return fmt.Errorf("failed to save case %s: %w", c.ID, err)
	}
	return nil
}

// mutate runs fn on the case under its lock and saves the result.
func (s *Service) mutate(ctx context.Context, caseID string, fn func(c *domain.Case) error) (*domain.Case, error) {
	unlock := s.locks.Lock(caseID)
	defer unlock()

	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// publish emits a lifecycle event. Failures are logged, never returned.
func (s *Service) publish(ctx context.Context, topic string, c *domain.Case) {
	if s.bus == nil {
		return
	}
	evt := domain.CaseEvent{
		CaseID:    c.ID,
		Status:    c.Status,
		Category:  c.CategoryID(),
		Timestamp: c.LastUpdated.UnixNano(),
	}
	if c.Triage != nil {
		evt.Severity = c.Triage.Severity
	}
	if err := bus.PublishEvent(ctx, s.bus, topic, evt); err != nil {
		slog.Warn("failed to publish case event",
			"topic", topic,
			"case_id", c.ID,
			"error", err,
		)
	}
}

// newCaseID returns CYB-YYYYMMDD-XXXXXX with six uppercase hex characters.
func newCaseID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return casePrefix + now.Format("20060102") + "-" + suffix
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrCaseNotFound)
}

// Ping checks the case store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
