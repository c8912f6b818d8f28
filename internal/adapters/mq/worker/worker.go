// Package worker runs the validation orchestrator: per-user dispatch
// loops that take queued requests through breaker-gated scoring, feedback
// composition, progress reconciliation, and best-effort audio synthesis.
//
// Concurrency model: one goroutine per user queue, so a single user's
// requests are strictly serialized in enqueue order, with a global
// semaphore capping concurrent outbound calls to the external scorer and
// synthesizer across all users.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sahajlabs/mudra/internal/adapters/mq/queue"
	"github.com/sahajlabs/mudra/internal/domain/breaker"
	"github.com/sahajlabs/mudra/internal/domain/dialect"
	"github.com/sahajlabs/mudra/internal/domain/model"
	"github.com/sahajlabs/mudra/internal/domain/scoring"
	"github.com/sahajlabs/mudra/internal/domain/speech"
	"github.com/sahajlabs/mudra/pkg/logger"
	"github.com/sahajlabs/mudra/pkg/metrics"
)

// Default orchestrator configuration constants.
const (
	defaultScorerTimeout       = 1500 * time.Millisecond
	defaultSynthTimeout        = 1000 * time.Millisecond
	defaultMaxAttempts         = 3
	defaultBackoffBase         = 1 * time.Second
	defaultOutboundConcurrency = 64
	poolShutdownTimeout        = 30 * time.Second
)

// Queue defines how the pool receives requests.
type Queue interface {
	DequeueNext(ctx context.Context, userID string) (queue.Entry, bool)
	Ready(userID string) <-chan struct{}
	Users(ctx context.Context) <-chan string
}

// Patterns supplies cached expected patterns per sign identifier.
type Patterns interface {
	Expected(ctx context.Context, signID string) (dialect.Pattern, error)
}

// Composer derives feedback from a scorer result.
type Composer interface {
	Compose(res model.ValidationResult, language string) (model.FeedbackMessage, error)
}

// Reconciler applies results to progress records idempotently.
type Reconciler interface {
	Apply(ctx context.Context, req model.ValidationRequest, res model.ValidationResult) (model.ProgressRecord, bool, error)
}

// Voices maps a language to a synthesizer voice profile, when spoken
// output is configured for that language.
type Voices interface {
	VoiceProfile(language string) (string, bool)
}

// Resolver delivers the single resolution of a request.
type Resolver interface {
	Resolve(ctx context.Context, requestID string, c model.Completion)
}

// Pool owns the per-user dispatch goroutines.
type Pool struct {
	queue      Queue
	patterns   Patterns
	scorer     scoring.Scorer
	synth      speech.Synthesizer
	composer   Composer
	reconciler Reconciler
	voices     Voices
	resolver   Resolver

	scorerBreaker *breaker.Breaker
	synthBreaker  *breaker.Breaker

	scorerTimeout time.Duration
	synthTimeout  time.Duration
	maxAttempts   int
	backoffBase   time.Duration
	sem           chan struct{}

	shutdown chan struct{}
	wg       sync.WaitGroup
	logger   logger.Logger
}

// NewPool creates a pool with configuration options.
func NewPool(q Queue, patterns Patterns, scorer scoring.Scorer, synth speech.Synthesizer,
	composer Composer, reconciler Reconciler, voices Voices, resolver Resolver, opts ...Option) *Pool {
	p := &Pool{
		queue:         q,
		patterns:      patterns,
		scorer:        scorer,
		synth:         synth,
		composer:      composer,
		reconciler:    reconciler,
		voices:        voices,
		resolver:      resolver,
		scorerTimeout: defaultScorerTimeout,
		synthTimeout:  defaultSynthTimeout,
		maxAttempts:   defaultMaxAttempts,
		backoffBase:   defaultBackoffBase,
		shutdown:      make(chan struct{}),
		logger:        logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.scorerBreaker == nil {
		p.scorerBreaker = breaker.New("scorer")
	}
	if p.synthBreaker == nil {
		p.synthBreaker = breaker.New("synthesizer")
	}
	if p.sem == nil {
		p.sem = make(chan struct{}, defaultOutboundConcurrency)
	}
	return p
}

// Start begins consuming user announcements and spawning one dispatch
// loop per user.
func (p *Pool) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		users := p.queue.Users(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.shutdown:
				return
			case userID, ok := <-users:
				if !ok {
					return
				}
				p.wg.Add(1)
				go func() {
					defer p.wg.Done()
					p.runUser(ctx, userID)
				}()
				metrics.RecordUserWorkerStarted()
			}
		}
	}()
}

// Shutdown stops the pool and waits for in-flight work, bounded by the
// pool shutdown timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	close(p.shutdown)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	select {
	case <-done:
		return nil
	case <-shutdownCtx.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
}

// ScorerBreaker exposes the scorer breaker for stats reporting.
func (p *Pool) ScorerBreaker() *breaker.Breaker { return p.scorerBreaker }

// SynthBreaker exposes the synthesizer breaker for stats reporting.
func (p *Pool) SynthBreaker() *breaker.Breaker { return p.synthBreaker }

// runUser is one user's dispatch loop: strictly serial, FIFO order.
func (p *Pool) runUser(ctx context.Context, userID string) {
	ready := p.queue.Ready(userID)
	for {
		entry, ok := p.queue.DequeueNext(ctx, userID)
		if ok {
			p.process(ctx, entry.Request)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case _, open := <-ready:
			if !open {
				return
			}
		}
	}
}

// process takes one request through the full pipeline. The request is
// owned by this goroutine from dequeue until it resolves exactly once.
func (p *Pool) process(ctx context.Context, req model.ValidationRequest) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	pattern, err := p.patterns.Expected(ctx, req.SignID)
	if err != nil {
		p.resolver.Resolve(ctx, req.RequestID, model.Completion{
			Err: model.NewPipelineError(model.CodeUnknownSign, "unknown sign: "+req.SignID, false, err),
		})
		metrics.RecordTerminalFailure()
		return
	}

	res, terminal := p.scoreWithRetry(ctx, &req, pattern)
	if terminal != nil {
		p.resolver.Resolve(ctx, req.RequestID, model.Completion{Err: terminal})
		return
	}

	fb, err := p.composer.Compose(res, req.Language)
	if err != nil {
		p.resolver.Resolve(ctx, req.RequestID, model.Completion{
			Err: model.NewPipelineError(model.CodeFeedbackConfig, "feedback composition failed", false, err),
		})
		metrics.RecordTerminalFailure()
		return
	}

	rec, _, err := p.reconciler.Apply(ctx, req, res)
	if err != nil {
		p.logger.Error(ctx, "progress reconciliation failed",
			logger.String("requestID", req.RequestID),
			logger.Error(err),
		)
		p.resolver.Resolve(ctx, req.RequestID, model.Completion{
			Err: model.NewPipelineError(model.CodeProgressPersist, "progress could not be saved", true, err),
		})
		return
	}

	outcome := model.Outcome{Result: res, Feedback: fb, Progress: rec}
	p.synthesize(ctx, req, fb, &outcome)

	p.resolver.Resolve(ctx, req.RequestID, model.Completion{Outcome: &outcome})
	metrics.RecordRequestValidated()
}

// scoreWithRetry runs breaker-gated scoring attempts with exponential
// backoff. It returns a non-nil terminal error once the attempt limit is
// reached or the process is shutting down.
func (p *Pool) scoreWithRetry(ctx context.Context, req *model.ValidationRequest, pattern dialect.Pattern) (model.ValidationResult, *model.PipelineError) {
	for {
		if !p.scorerBreaker.Allow() {
			// Fail fast without contacting the scorer; the request keeps
			// its queue position while the breaker cools down.
			metrics.RecordBreakerRejection("scorer")
			wait := p.scorerBreaker.RemainingCooldown()
			if wait <= 0 {
				wait = p.backoffBase
			}
			select {
			case <-ctx.Done():
				return model.ValidationResult{}, shutdownError(ctx.Err())
			case <-p.shutdown:
				return model.ValidationResult{}, shutdownError(nil)
			case <-time.After(wait):
			}
			continue
		}

		res, err := p.callScorer(ctx, *req, pattern)
		if err == nil {
			p.scorerBreaker.RecordSuccess()
			return res, nil
		}

		p.scorerBreaker.RecordFailure()
		metrics.RecordScorerError()
		req.Attempt++
		p.logger.Warn(ctx, "scorer attempt failed",
			logger.String("requestID", req.RequestID),
			logger.Int("attempt", req.Attempt),
			logger.Error(err),
		)

		if req.Attempt >= p.maxAttempts {
			metrics.RecordTerminalFailure()
			return model.ValidationResult{}, model.NewPipelineError(
				model.CodeTerminalFailure,
				fmt.Sprintf("validation failed after %d attempts", req.Attempt),
				false, err,
			)
		}

		metrics.RecordRetry()
		delay := p.backoffBase << (req.Attempt - 1) // 1s, 2s, 4s
		select {
		case <-ctx.Done():
			return model.ValidationResult{}, shutdownError(ctx.Err())
		case <-p.shutdown:
			return model.ValidationResult{}, shutdownError(nil)
		case <-time.After(delay):
		}
	}
}

// callScorer performs one independently timed scorer attempt under the
// global outbound concurrency cap. A response arriving after the attempt
// budget is discarded.
func (p *Pool) callScorer(ctx context.Context, req model.ValidationRequest, pattern dialect.Pattern) (model.ValidationResult, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return model.ValidationResult{}, fmt.Errorf("outbound slot: %w", ctx.Err())
	}

	attemptCtx, cancel := context.WithTimeout(ctx, p.scorerTimeout)
	defer cancel()

	type reply struct {
		res model.ValidationResult
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		defer func() { <-p.sem }()
		start := time.Now()
		res, err := p.scorer.Score(attemptCtx, scoring.Input{
			SignID:   req.SignID,
			Expected: pattern,
			Frame:    req.Frame,
		})
		metrics.RecordScorerLatency(float64(time.Since(start).Milliseconds()))
		ch <- reply{res: res, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return model.ValidationResult{}, fmt.Errorf("scorer call: %w", r.err)
		}
		return r.res, nil
	case <-attemptCtx.Done():
		// The attempt budget is spent; any late reply lands in the
		// buffered channel and is dropped with it.
		return model.ValidationResult{}, fmt.Errorf("scorer attempt: %w", attemptCtx.Err())
	}
}

// synthesize runs best-effort audio synthesis under its own breaker.
// Failure is non-fatal: the outcome keeps its text feedback with
// AudioAvailable left false.
func (p *Pool) synthesize(ctx context.Context, req model.ValidationRequest, fb model.FeedbackMessage, outcome *model.Outcome) {
	profile, ok := p.voices.VoiceProfile(req.Language)
	if !ok {
		return
	}
	if !p.synthBreaker.Allow() {
		metrics.RecordBreakerRejection("synthesizer")
		return
	}

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-p.sem }()

	synthCtx, cancel := context.WithTimeout(ctx, p.synthTimeout)
	defer cancel()

	start := time.Now()
	ref, err := p.synth.Synthesize(synthCtx, speech.Request{Text: fb.Text, VoiceProfile: profile})
	metrics.RecordSynthLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		p.synthBreaker.RecordFailure()
		metrics.RecordSynthesisError()
		p.logger.Warn(ctx, "synthesis failed, returning text-only feedback",
			logger.String("requestID", req.RequestID),
			logger.Error(err),
		)
		return
	}
	p.synthBreaker.RecordSuccess()
	outcome.AudioRef = ref.URI
	outcome.AudioAvailable = true
}

func shutdownError(cause error) *model.PipelineError {
	return model.NewPipelineError(model.CodeQueueClosed, "service shutting down", true, cause)
}
