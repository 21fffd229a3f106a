package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pinpool/internal/pin/classifier"
	"pinpool/internal/pin/metrics"
	"pinpool/internal/pin/models"
	"pinpool/internal/pin/ports"
	"pinpool/internal/pin/universe"
	dErrors "pinpool/pkg/domain-errors"
	audit "pinpool/pkg/platform/audit"
	"pinpool/pkg/requestcontext"
)

// Type aliases for shared interfaces.
type (
	Store          = ports.Store
	AuditPublisher = ports.AuditPublisher
)

const (
	DefaultMaxRollovers      = 3
	DefaultClassifierWorkers = 4
)

// Service owns the allocation session: it bootstraps the universe once,
// classifies it once, and hands out random allowed codes, resetting the
// allocation when the unallocated pool runs short.
type Service struct {
	store          Store
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
	maxRollovers   int
	workers        int

	// mu serializes bootstrap and every allocation-mutating call.
	mu           sync.Mutex
	report       *models.BootstrapReport
	bootstrapped atomic.Bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithMaxRollovers bounds the number of allocation resets a single request
// may trigger. Values below 1 are ignored.
func WithMaxRollovers(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.maxRollovers = n
		}
	}
}

func WithClassifierWorkers(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.workers = n
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("pin store is required")
	}

	svc := &Service{
		store:        store,
		logger:       slog.New(slog.DiscardHandler),
		tracer:       otel.Tracer("pinpool/pin"),
		maxRollovers: DefaultMaxRollovers,
		workers:      DefaultClassifierWorkers,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// IsBootstrapped reports whether this session finished Bootstrap.
func (s *Service) IsBootstrapped() bool {
	return s.bootstrapped.Load()
}

// Bootstrap loads the persisted universe, inserting it when the store is
// empty, and classifies it unless any record is already NotAllowed. The
// result is cached; later calls return the first report without touching
// the store.
func (s *Service) Bootstrap(ctx context.Context) (*models.BootstrapReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bootstrapLocked(ctx)
}

func (s *Service) bootstrapLocked(ctx context.Context) (*models.BootstrapReport, error) {
	if s.report != nil {
		report := *s.report
		return &report, nil
	}

	ctx, span := s.tracer.Start(ctx, "pin.Bootstrap")
	defer span.End()
	start := time.Now()

	pins, count, err := s.store.SelectAll(ctx)
	if err != nil {
		return nil, s.storeFailure(span, "select_all", err)
	}

	report := &models.BootstrapReport{}
	if count == 0 {
		pins = universe.Generate()
		if _, err := s.store.BulkInsert(ctx, pins); err != nil {
			return nil, s.storeFailure(span, "bulk_insert", err)
		}
		report.Inserted = len(pins)
		ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			Action: string(audit.EventPoolBootstrapped),
			Count:  report.Inserted,
		})
	}

	if hasNotAllowed(pins) {
		report.Skipped = true
		ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			Action: string(audit.EventClassificationGuard),
			Reason: "pool already classified",
		})
	} else {
		changed, err := classifier.Apply(ctx, pins, s.workers)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "classification failed")
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to classify pin universe")
		}
		if len(changed) > 0 {
			if _, err := s.store.BulkUpsert(ctx, changed); err != nil {
				return nil, s.storeFailure(span, "bulk_upsert", err)
			}
		}
		report.Classified = len(changed)
		ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			Action: string(audit.EventPoolClassified),
			Count:  report.Classified,
		})
		if s.metrics != nil {
			s.metrics.AddClassified(report.Classified)
		}
	}

	report.AllowedPool = models.CountStates(pins).AllowedPool
	report.CompletedAt = requestcontext.Now(ctx)
	s.report = report
	s.bootstrapped.Store(true)

	if s.metrics != nil {
		s.metrics.SetAllowedPool(report.AllowedPool)
		s.metrics.ObserveBootstrap(start)
	}
	span.SetAttributes(
		attribute.Int("pin.inserted", report.Inserted),
		attribute.Int("pin.classified", report.Classified),
		attribute.Int("pin.allowed_pool", report.AllowedPool),
	)
	s.logger.InfoContext(ctx, "pin pool ready",
		"inserted", report.Inserted,
		"classified", report.Classified,
		"classification_skipped", report.Skipped,
		"allowed_pool", report.AllowedPool,
	)

	out := *report
	return &out, nil
}

// RequestPINs hands out quantity distinct Allowed codes, now marked Allocated.
// When the unallocated pool runs short it resets the allocation, keeps the
// codes already chosen for this request allocated, and draws the remainder.
func (s *Service) RequestPINs(ctx context.Context, quantity int) ([]*models.PIN, error) {
	if quantity <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "quantity must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.bootstrapLocked(ctx)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "pin.RequestPINs", trace.WithAttributes(attribute.Int("pin.requested", quantity)))
	defer span.End()
	start := time.Now()
	if s.metrics != nil {
		defer s.metrics.ObserveRequest(start)
	}

	if quantity > report.AllowedPool {
		return nil, s.capacityExceeded(ctx, span, quantity, 0, 0,
			fmt.Sprintf("requested %d codes but only %d can ever be served", quantity, report.AllowedPool))
	}

	served := make([]*models.PIN, 0, quantity)
	rollovers := 0
	// fail hands back every code this request drew before returning err.
	fail := func(err error) ([]*models.PIN, error) {
		s.release(ctx, served)
		return nil, err
	}
	for {
		picked, err := s.store.SelectRandomUnallocated(ctx, quantity-len(served))
		if err != nil {
			return fail(s.storeFailure(span, "select_random_unallocated", err))
		}
		served = append(served, picked...)
		if len(served) >= quantity {
			break
		}
		if rollovers > 0 && len(picked) == 0 {
			return fail(s.capacityExceeded(ctx, span, quantity, len(served), rollovers,
				"no unallocated codes remain after resetting the allocation"))
		}
		if rollovers >= s.maxRollovers {
			return fail(s.capacityExceeded(ctx, span, quantity, len(served), rollovers,
				fmt.Sprintf("allocation still short after %d rollovers", rollovers)))
		}

		if err := s.store.ResetAllocation(ctx); err != nil {
			return fail(s.storeFailure(span, "reset_allocation", err))
		}
		rollovers++
		if s.metrics != nil {
			s.metrics.IncrementRollovers()
		}
		ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			Action:    string(audit.EventAllocationRollover),
			Requested: quantity,
			Served:    len(served),
			Rollovers: rollovers,
		})

		if len(served) > 0 {
			if _, err := s.store.BulkUpsert(ctx, withState(served, models.StateAllocated)); err != nil {
				return fail(s.storeFailure(span, "bulk_upsert", err))
			}
		}
	}

	if s.metrics != nil {
		s.metrics.AddServed(len(served))
	}
	span.SetAttributes(attribute.Int("pin.served", len(served)), attribute.Int("pin.rollovers", rollovers))
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Action:    string(audit.EventPINsAllocated),
		Requested: quantity,
		Served:    len(served),
		Rollovers: rollovers,
	})
	return served, nil
}

// Rollover returns every Allocated code to the unallocated pool.
func (s *Service) Rollover(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "pin.Rollover")
	defer span.End()

	if err := s.store.ResetAllocation(ctx); err != nil {
		return s.storeFailure(span, "reset_allocation", err)
	}
	if s.metrics != nil {
		s.metrics.IncrementRollovers()
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Action: string(audit.EventManualRollover),
	})
	return nil
}

// Stats counts persisted records by state.
func (s *Service) Stats(ctx context.Context) (*models.PoolStats, error) {
	ctx, span := s.tracer.Start(ctx, "pin.Stats")
	defer span.End()

	pins, _, err := s.store.SelectAll(ctx)
	if err != nil {
		return nil, s.storeFailure(span, "select_all", err)
	}
	stats := models.CountStates(pins)
	return &stats, nil
}

func (s *Service) storeFailure(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op)
	if s.metrics != nil {
		s.metrics.IncrementStoreErrors(op)
	}
	s.logger.Error("pin store operation failed", "operation", op, "error", err)

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "pin store did not answer before the request deadline")
	}
	msg := "pin store operation failed"
	var storeErr *models.StoreError
	if errors.As(err, &storeErr) && storeErr.Message != "" {
		msg = storeErr.Message
	}
	return dErrors.Wrap(err, dErrors.CodeStore, msg)
}

// release returns codes drawn by a failed request to the pool. It runs even
// when ctx is already done; a failure is logged and the codes stay Allocated
// until the next reset.
func (s *Service) release(ctx context.Context, pins []*models.PIN) {
	if len(pins) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if _, err := s.store.BulkUpsert(ctx, withState(pins, models.StateUnallocated)); err != nil {
		if s.metrics != nil {
			s.metrics.IncrementStoreErrors("release")
		}
		s.logger.WarnContext(ctx, "failed to release codes of a failed request", "count", len(pins), "error", err)
	}
}

func (s *Service) capacityExceeded(ctx context.Context, span trace.Span, requested, served, rollovers int, msg string) error {
	span.SetStatus(codes.Error, "capacity exceeded")
	if s.metrics != nil {
		s.metrics.IncrementCapacityRejections()
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Action:    string(audit.EventCapacityExceeded),
		Requested: requested,
		Served:    served,
		Rollovers: rollovers,
		Reason:    msg,
	})
	return dErrors.New(dErrors.CodeCapacityExceeded, msg)
}

func hasNotAllowed(pins []*models.PIN) bool {
	for _, p := range pins {
		if p.State == models.StateNotAllowed {
			return true
		}
	}
	return false
}

func withState(pins []*models.PIN, state models.State) []*models.PIN {
	out := make([]*models.PIN, 0, len(pins))
	for _, p := range pins {
		cp := p.Clone()
		cp.State = state
		out = append(out, cp)
	}
	return out
}
