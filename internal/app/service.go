// Package service provides the core pipeline service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	requestqueue "github.com/sahajlabs/mudra/internal/adapters/mq/queue"
	workerpool "github.com/sahajlabs/mudra/internal/adapters/mq/worker"
	"github.com/sahajlabs/mudra/internal/adapters/repository"
	"github.com/sahajlabs/mudra/internal/domain/breaker"
	"github.com/sahajlabs/mudra/internal/domain/capture"
	"github.com/sahajlabs/mudra/internal/domain/dedupe"
	"github.com/sahajlabs/mudra/internal/domain/dialect"
	"github.com/sahajlabs/mudra/internal/domain/feedback"
	"github.com/sahajlabs/mudra/internal/domain/model"
	"github.com/sahajlabs/mudra/internal/domain/reconcile"
	"github.com/sahajlabs/mudra/internal/domain/scoring"
	"github.com/sahajlabs/mudra/internal/domain/speech"
	"github.com/sahajlabs/mudra/pkg/logger"
	"github.com/sahajlabs/mudra/pkg/metrics"
)

// Submission carries one decoded validation attempt into the pipeline.
type Submission struct {
	UserID   string
	SignID   string
	ModuleID string
	Language string
	Frame    model.LandmarkFrame
}

// Service owns the full validation pipeline: capture buffer, per-user
// queue, dispatch workers, scorer and synthesizer breakers, feedback
// composition, and progress reconciliation.
type Service struct {
	mu sync.RWMutex

	// Core components
	captures   *capture.Buffer
	queue      requestqueue.Queue
	module     *dialect.StaticModule
	patterns   *dialect.PatternCache
	scorer     scoring.Scorer
	synth      speech.Synthesizer
	composer   *feedback.Composer
	store      repository.Store
	reconciler *reconcile.Reconciler
	pool       *workerpool.Pool

	// Pending request resolution channels, keyed by request id. Each
	// channel is buffered so a worker's Resolve never blocks on a caller
	// that stopped waiting.
	pendingMu sync.Mutex
	pending   map[string]chan model.Completion

	// Configuration
	queuePerUserCapacity    int
	outboundConcurrency     int
	maxAttempts             int
	backoffBase             time.Duration
	scorerTimeout           time.Duration
	synthTimeout            time.Duration
	breakerFailureThreshold int32
	breakerCooldown         time.Duration
	dedupeSize              int
	dedupeWindow            time.Duration
	shardCount              int
	significanceThreshold   float64
	completionThreshold     float64
	correctnessThreshold    float64
	deviationEpsilon        float64
	scorerLatency           time.Duration
	synthLatency            time.Duration

	// State
	started bool
	cancel  context.CancelFunc

	// Logging
	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		pending:                 make(map[string]chan model.Completion),
		queuePerUserCapacity:    64,
		outboundConcurrency:     64,
		maxAttempts:             3,
		backoffBase:             time.Second,
		scorerTimeout:           1500 * time.Millisecond,
		synthTimeout:            1000 * time.Millisecond,
		breakerFailureThreshold: 5,
		breakerCooldown:         30 * time.Second,
		dedupeSize:              50_000,
		dedupeWindow:            10 * time.Minute,
		shardCount:              8,
		significanceThreshold:   0.12,
		completionThreshold:     0.9,
		correctnessThreshold:    0.8,
		deviationEpsilon:        0.08,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the pipeline components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting validation pipeline...")

	s.captures = capture.NewBuffer()

	if s.module == nil {
		s.module = dialect.NewStaticModule(
			dialect.WithCompletionThreshold(s.completionThreshold),
		)
	}
	s.patterns = dialect.NewPatternCache(s.module)

	if s.scorer == nil {
		s.scorer = scoring.NewGeometricScorer(
			scoring.WithDeviationEpsilon(s.deviationEpsilon),
			scoring.WithCorrectnessThreshold(s.correctnessThreshold),
			scoring.WithLatency(s.scorerLatency),
		)
	}
	if s.synth == nil {
		s.synth = speech.NewLocalSynthesizer(
			speech.WithLatency(s.synthLatency),
		)
	}

	if s.composer == nil {
		composer, err := feedback.NewComposer(
			feedback.WithSignificanceThreshold(s.significanceThreshold),
		)
		if err != nil {
			return fmt.Errorf("build feedback composer: %w", err)
		}
		s.composer = composer
	}

	s.store = repository.NewShardStore(ctx,
		repository.WithShardCount(s.shardCount),
	)
	s.reconciler = reconcile.New(s.store,
		reconcile.WithCompletionThreshold(s.module.CompletionThreshold()),
		reconcile.WithDeduper(dedupe.NewInMemoryDeduper(
			dedupe.WithMaxSize(s.dedupeSize),
			dedupe.WithWindow(s.dedupeWindow),
		)),
	)

	s.queue = requestqueue.NewInMemoryQueue(
		requestqueue.WithPerUserCapacity(s.queuePerUserCapacity),
		requestqueue.WithDropHandler(s.resolveDropped),
	)

	scorerBreaker := breaker.New("scorer",
		breaker.WithFailureThreshold(s.breakerFailureThreshold),
		breaker.WithCooldown(s.breakerCooldown),
	)
	synthBreaker := breaker.New("synthesizer",
		breaker.WithFailureThreshold(s.breakerFailureThreshold),
		breaker.WithCooldown(s.breakerCooldown),
	)

	s.pool = workerpool.NewPool(
		s.queue, s.patterns, s.scorer, s.synth, s.composer, s.reconciler, s.module, s,
		workerpool.WithScorerTimeout(s.scorerTimeout),
		workerpool.WithSynthTimeout(s.synthTimeout),
		workerpool.WithMaxAttempts(s.maxAttempts),
		workerpool.WithBackoffBase(s.backoffBase),
		workerpool.WithOutboundConcurrency(s.outboundConcurrency),
		workerpool.WithScorerBreaker(scorerBreaker),
		workerpool.WithSynthBreaker(synthBreaker),
	)

	poolCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(poolCtx)

	s.started = true
	s.logger.Info(ctx, "validation pipeline started",
		logger.Int("perUserCapacity", s.queuePerUserCapacity),
		logger.Int("outboundConcurrency", s.outboundConcurrency),
		logger.Int("maxAttempts", s.maxAttempts),
	)
	return nil
}

// Stop gracefully shuts down the pipeline: the queue stops accepting,
// workers drain, and any still-pending callers resolve with a retryable
// shutdown error.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping validation pipeline...")

	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if s.cancel != nil {
		s.cancel()
	}

	// Resolve anything still pending so no caller waits forever.
	s.pendingMu.Lock()
	for id, ch := range s.pending {
		delete(s.pending, id)
		ch <- model.Completion{
			Err: model.NewPipelineError(model.CodeQueueClosed, "service shutting down", true, nil),
		}
	}
	s.pendingMu.Unlock()

	s.started = false
	s.logger.Info(ctx, "validation pipeline stopped")
}

// Submit buffers the captured frame, converts it into a queued
// validation request, and returns the request id plus the channel that
// will deliver the single resolution.
func (s *Service) Submit(ctx context.Context, sub Submission) (string, <-chan model.Completion, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return "", nil, model.NewPipelineError(model.CodeQueueClosed, "service not running", true, nil)
	}

	if !sub.Frame.Handedness.Valid() {
		return "", nil, model.NewPipelineError(model.CodeInvalidInput,
			fmt.Sprintf("unknown handedness %q", sub.Frame.Handedness), false, model.ErrInvalidFrame)
	}
	if !s.composer.Supports(sub.Language) {
		return "", nil, model.NewPipelineError(model.CodeInvalidInput,
			fmt.Sprintf("unsupported language %q", sub.Language), false, nil)
	}
	if _, err := s.patterns.Expected(ctx, sub.SignID); err != nil {
		return "", nil, model.NewPipelineError(model.CodeUnknownSign,
			"unknown sign: "+sub.SignID, false, err)
	}

	// Latest-wins capture: a rapid re-capture before dispatch replaces the
	// older sample for this user and sign.
	sessionID := sub.UserID + "\x00" + sub.SignID
	s.captures.Push(ctx, sessionID, sub.Frame)
	frame, ok := s.captures.Take(ctx, sessionID)
	if !ok {
		// A concurrent submit for the same session consumed the slot.
		return "", nil, model.NewPipelineError(model.CodeRequestSuperseded,
			"capture superseded by a newer sample", true, nil)
	}

	req := model.ValidationRequest{
		RequestID: uuid.NewString(),
		UserID:    sub.UserID,
		SignID:    sub.SignID,
		ModuleID:  sub.ModuleID,
		Language:  sub.Language,
		Frame:     frame,
		CreatedAt: time.Now(),
	}

	ch := make(chan model.Completion, 1)
	s.pendingMu.Lock()
	s.pending[req.RequestID] = ch
	s.pendingMu.Unlock()

	if !s.queue.Enqueue(ctx, req) {
		s.pendingMu.Lock()
		delete(s.pending, req.RequestID)
		s.pendingMu.Unlock()
		return "", nil, model.NewPipelineError(model.CodeQueueClosed, "queue closed", true, nil)
	}

	metrics.UpdateQueueDepth(s.queue.TotalLen(ctx))
	s.logger.Debug(ctx, "request enqueued",
		logger.String("requestID", req.RequestID),
		logger.String("userID", req.UserID),
		logger.String("signID", req.SignID),
	)
	return req.RequestID, ch, nil
}

// Cancel removes a still-queued request and resolves it as canceled.
// Returns false when the request is unknown or already dispatched.
func (s *Service) Cancel(ctx context.Context, requestID string) bool {
	if s.queue == nil || !s.queue.Cancel(ctx, requestID) {
		return false
	}
	s.resolve(ctx, requestID, model.Completion{
		Err: model.NewPipelineError(model.CodeRequestCanceled, "request canceled", false, nil),
	})
	return true
}

// Progress returns the persisted progress record for (user, module, sign).
func (s *Service) Progress(ctx context.Context, userID, moduleID, signID string) (model.ProgressRecord, error) {
	rec, err := s.store.Get(ctx, userID, moduleID, signID)
	if err != nil {
		return model.ProgressRecord{}, fmt.Errorf("load progress: %w", err)
	}
	return rec, nil
}

// Resolve delivers the single resolution of a request to whoever is
// waiting on it. Implements the worker pool's resolver contract; a second
// Resolve for the same id is a no-op.
func (s *Service) Resolve(ctx context.Context, requestID string, c model.Completion) {
	s.resolve(ctx, requestID, c)
}

func (s *Service) resolve(ctx context.Context, requestID string, c model.Completion) {
	s.pendingMu.Lock()
	ch, ok := s.pending[requestID]
	if ok {
		delete(s.pending, requestID)
	}
	s.pendingMu.Unlock()
	if !ok {
		return
	}
	ch <- c
}

// resolveDropped is the queue overflow handler: the evicted oldest
// request resolves as superseded so its caller is not left hanging.
func (s *Service) resolveDropped(req model.ValidationRequest) {
	s.resolve(context.Background(), req.RequestID, model.Completion{
		Err: model.NewPipelineError(model.CodeRequestSuperseded,
			"request dropped: newer submissions filled the queue", true, nil),
	})
}

// PendingCount returns the number of requests awaiting resolution.
func (s *Service) PendingCount() int {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return len(s.pending)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":             s.started,
		"perUserCapacity":     s.queuePerUserCapacity,
		"outboundConcurrency": s.outboundConcurrency,
		"maxAttempts":         s.maxAttempts,
	}

	if s.started {
		queueLen := s.queue.TotalLen(ctx)
		stats["queueDepth"] = queueLen
		stats["pendingRequests"] = s.PendingCount()
		stats["captureBufferSize"] = s.captures.Size()
		stats["progressRecords"] = s.store.Count(ctx)
		stats["appliedRequestIDs"] = s.reconciler.AppliedSize()
		stats["patternCacheSize"] = s.patterns.Len()
		stats["moduleVersion"] = s.module.Version(ctx)
		stats["scorerBreaker"] = s.pool.ScorerBreaker().State().String()
		stats["synthBreaker"] = s.pool.SynthBreaker().State().String()

		metrics.UpdateQueueDepth(queueLen)
		metrics.UpdateProgressRecords(s.store.Count(ctx))
	}

	return stats
}

// Module exposes the dialect module, for lesson-pack updates in tests and
// tooling.
func (s *Service) Module() *dialect.StaticModule {
	return s.module
}
