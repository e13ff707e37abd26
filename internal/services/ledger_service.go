package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"budget/internal/alert"
	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/storage"
)

const (
	defaultSummaryCacheSize = 64
	defaultSummaryCacheTTL  = 5 * time.Minute
)

// EventPublisher receives an event after every committed change
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// Result is the committed ledger together with its alert evaluation
type Result struct {
	Ledger core.Ledger      `json:"ledger"`
	Alert  alert.Evaluation `json:"alert"`
}

// LedgerService runs every mutation as one load, apply, save unit over the
// document store. The store keeps that unit atomic across processes; the
// mutex keeps alert evaluation and event order in step within this one.
type LedgerService struct {
	mu        sync.Mutex
	store     storage.DocumentStore
	mutator   core.Mutator
	evaluator *alert.Evaluator
	publisher EventPublisher
	logger    *log.StructuredLogger

	summaries *cache.LRUCache[core.Summary]
	group     singleflight.Group
}

type Option func(*LedgerService)

// WithPublisher sends ledger events through p. A nil p disables events.
func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithLogger routes mutation logs through l
func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = log.NewStructuredLogger(l.WithComponent(log.ComponentLedger)) }
}

// WithMutator replaces the id and clock sources
func WithMutator(m core.Mutator) Option {
	return func(s *LedgerService) { s.mutator = m }
}

// WithSummaryCache sizes the derived-summary cache
func WithSummaryCache(size int, ttl time.Duration) Option {
	return func(s *LedgerService) { s.summaries = cache.NewLRUCache[core.Summary](size, ttl) }
}

func NewLedgerService(store storage.DocumentStore, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:     store,
		mutator:   core.NewMutator(),
		evaluator: alert.NewEvaluator(),
		summaries: cache.NewLRUCache[core.Summary](defaultSummaryCacheSize, defaultSummaryCacheTTL),
		logger:    log.NewStructuredLogger(log.FromSlog(slog.Default(), log.ComponentLedger)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SummaryCache exposes the cache so a cache.Manager can sweep it
func (s *LedgerService) SummaryCache() *cache.LRUCache[core.Summary] {
	return s.summaries
}

// Snapshot returns the currently stored ledger
func (s *LedgerService) Snapshot(ctx context.Context) (core.Ledger, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("load ledger: %w", err)
	}
	return doc, nil
}

func (s *LedgerService) mutate(ctx context.Context, op, recordID string, apply storage.UpdateFunc) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.store.Update(ctx, apply)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	ev := s.evaluator.Evaluate(next)
	s.logger.LogMutation(ctx, op, recordID, ev.Balance.Cents, ev.Threshold.Cents)

	s.publish(ctx, op, ev)
	return Result{Ledger: next, Alert: ev}, nil
}

// publish never fails the mutation; the change is already stored
func (s *LedgerService) publish(ctx context.Context, op string, ev alert.Evaluation) {
	if s.publisher == nil {
		return
	}

	events := []*amqp.LedgerEvent{
		amqp.NewLedgerEvent(amqp.TypeLedgerChanged, op, ev.Balance.Cents, ev.Threshold.Cents),
	}
	if ev.ShouldNotify {
		events = append(events, amqp.NewLedgerEvent(amqp.TypeBalanceLow, op, ev.Balance.Cents, ev.Threshold.Cents))
	}

	for _, e := range events {
		if err := s.publisher.PublishEvent(ctx, e); err != nil {
			s.logger.LogError(ctx, "Failed to publish ledger event", err,
				log.ComponentAMQP, op, log.NewFields().WithEventType(e.Type))
		}
	}
}

func (s *LedgerService) AddIncome(ctx context.Context, name string, amount core.Money, date core.Date) (Result, error) {
	return s.mutate(ctx, log.OpAddIncome, "", func(doc core.Ledger) (core.Ledger, error) {
		return s.mutator.AddIncome(doc, name, amount, date)
	})
}

func (s *LedgerService) AddExpense(ctx context.Context, in core.ExpenseInput) (Result, error) {
	return s.mutate(ctx, log.OpAddExpense, "", func(doc core.Ledger) (core.Ledger, error) {
		return s.mutator.AddExpense(doc, in)
	})
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id string) (Result, error) {
	return s.mutate(ctx, log.OpDeleteExpense, id, func(doc core.Ledger) (core.Ledger, error) {
		return s.mutator.DeleteExpense(doc, id)
	})
}

func (s *LedgerService) AddGoal(ctx context.Context, name string, target core.Money) (Result, error) {
	return s.mutate(ctx, log.OpAddGoal, "", func(doc core.Ledger) (core.Ledger, error) {
		return s.mutator.AddGoal(doc, name, target)
	})
}

func (s *LedgerService) ContributeToGoal(ctx context.Context, goalID string, amount core.Money) (Result, error) {
	return s.mutate(ctx, log.OpContributeToGoal, goalID, func(doc core.Ledger) (core.Ledger, error) {
		return s.mutator.ContributeToGoal(doc, goalID, amount)
	})
}

func (s *LedgerService) SetAlertThreshold(ctx context.Context, value core.Money) (Result, error) {
	return s.mutate(ctx, log.OpSetAlertThreshold, "", func(doc core.Ledger) (core.Ledger, error) {
		return s.mutator.SetAlertThreshold(doc, value)
	})
}

// ResetAll discards the stored ledger, re-arms the one-time notification
// and drops cached summaries. The result describes the fresh ledger.
func (s *LedgerService) ResetAll(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Reset(ctx); err != nil {
		return Result{}, fmt.Errorf("%s: %w", log.OpReset, err)
	}
	s.evaluator.ResetSession()
	s.summaries.Purge()

	doc := core.NewLedger()
	ev := s.evaluator.Evaluate(doc)
	s.logger.LogMutation(ctx, log.OpReset, "", ev.Balance.Cents, ev.Threshold.Cents)

	s.publish(ctx, log.OpReset, ev)
	return Result{Ledger: doc, Alert: ev}, nil
}

// EvaluateAlert checks the stored ledger, consuming the one-time
// notification if it is due.
func (s *LedgerService) EvaluateAlert(ctx context.Context) (alert.Evaluation, error) {
	doc, err := s.Snapshot(ctx)
	if err != nil {
		return alert.Evaluation{}, err
	}
	return s.evaluator.Evaluate(doc), nil
}

// Summary derives the dashboard values. Equal ledger contents share one
// cached result, and concurrent callers share one derivation; every caller
// gets its own copy of the slices.
func (s *LedgerService) Summary(ctx context.Context, recent int) (core.Summary, error) {
	doc, err := s.Snapshot(ctx)
	if err != nil {
		return core.Summary{}, err
	}

	key := fmt.Sprintf("%s:%d", doc.Fingerprint(), recent)
	if sum, ok := s.summaries.Get(key); ok {
		return sum.Clone(), nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		slog.DebugContext(ctx, "Summary cache miss",
			log.FieldComponent, log.ComponentLedger,
			log.FieldOperation, log.OpSummary,
			"recent", recent)
		sum := core.Summarize(doc, recent)
		s.summaries.Set(key, sum)
		return sum, nil
	})
	if err != nil {
		return core.Summary{}, err
	}
	return v.(core.Summary).Clone(), nil
}

// Expenses lists every expense, newest date first
func (s *LedgerService) Expenses(ctx context.Context) ([]core.ExpenseRecord, error) {
	doc, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.ExpensesByDate(doc), nil
}

// Goals lists every goal with its progress
func (s *LedgerService) Goals(ctx context.Context) ([]core.GoalStatus, error) {
	doc, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.GoalStatus, 0, len(doc.Goals))
	for _, g := range doc.Goals {
		out = append(out, core.GoalStatus{Goal: g, Progress: core.GoalProgress(g)})
	}
	return out, nil
}

// Ready reports whether the store can be read
func (s *LedgerService) Ready(ctx context.Context) error {
	_, err := s.store.Load(ctx)
	return err
}

// Close releases the store
func (s *LedgerService) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// IsStorageError reports whether err came from the persistence layer
func IsStorageError(err error) bool {
	return errors.Is(err, storage.ErrStorageUnavailable)
}
