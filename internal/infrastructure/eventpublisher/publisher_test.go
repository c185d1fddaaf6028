package eventpublisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/mfsledger/internal/adapter/repository/memory"
	"github.com/iho/mfsledger/internal/domain"
	"github.com/iho/mfsledger/internal/infrastructure/metrics"
	"github.com/iho/mfsledger/internal/usecase"
)

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{{ID: "evt-1", EventType: domain.EventTypeCashOutSettled}},
	}
	pub := &stubPublisher{}
	ep := newTestPublisher(repo, pub)

	n, err := ep.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 published, got %d", n)
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(pub.published))
	}
	if len(repo.marked) != 1 || repo.marked[0] != "evt-1" {
		t.Fatalf("expected event to be marked published, got %#v", repo.marked)
	}
	if got := testutil.ToFloat64(ep.metrics.EventsPublished); got != 1 {
		t.Fatalf("expected events counter 1, got %v", got)
	}
}

func TestProcessBatchContinuesOnPublishError(t *testing.T) {
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{
			{ID: "evt-1", EventType: "type"},
			{ID: "evt-2", EventType: "type"},
		},
	}
	pub := &stubPublisher{
		errorsByID: map[string]error{"evt-1": errors.New("fail")},
	}
	ep := newTestPublisher(repo, pub)

	n, err := ep.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 published, got %d", n)
	}

	if len(pub.published) != 1 || pub.published[0].ID != "evt-2" {
		t.Fatalf("expected only evt-2 to be published, got %#v", pub.published)
	}
	if len(repo.marked) != 1 || repo.marked[0] != "evt-2" {
		t.Fatalf("expected only evt-2 to be marked, got %#v", repo.marked)
	}
}

func TestProcessBatchRepositoryError(t *testing.T) {
	repo := &stubOutboxRepo{err: errors.New("connection reset")}
	ep := newTestPublisher(repo, &stubPublisher{})

	if _, err := ep.ProcessBatch(context.Background()); err == nil {
		t.Fatal("expected repository error to surface")
	}
}

func TestDrainEmptiesTheOutbox(t *testing.T) {
	store := memory.NewStore()
	outbox := memory.NewOutboxRepository(store)
	txm := memory.NewTxManager(store)
	ctx := context.Background()

	tx, err := txm.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for _, id := range []string{"e1", "e2", "e3", "e4", "e5"} {
		if err := outbox.Create(ctx, tx, &domain.OutboxEvent{ID: id, EventType: domain.EventTypeBonusCredited, CreatedAt: time.Now()}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	pub := &stubPublisher{}
	ep := NewEventPublisher(Config{
		OutboxRepo: outbox,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
		BatchSize:  2,
	})

	n, err := ep.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if n != 5 || len(pub.published) != 5 {
		t.Fatalf("expected 5 events drained, got %d (%d published)", n, len(pub.published))
	}

	left, _ := outbox.GetUnpublished(ctx, 0)
	if len(left) != 0 {
		t.Fatalf("expected empty outbox, got %d", len(left))
	}
}

func TestDrainStopsWhenNothingPublishes(t *testing.T) {
	repo := &stubOutboxRepo{events: []*domain.OutboxEvent{{ID: "evt-1"}}}
	pub := &stubPublisher{errorsByID: map[string]error{"evt-1": errors.New("down")}}
	ep := newTestPublisher(repo, pub)

	n, err := ep.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected nothing published, got %d", n)
	}
}

func TestCleanupRespectsRetention(t *testing.T) {
	repo := &stubOutboxRepo{}
	ep := newTestPublisher(repo, &stubPublisher{})

	if err := ep.Cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if !repo.deletedBefore.IsZero() {
		t.Fatal("zero retention must not delete")
	}

	fixed := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	ep.retention = 24 * time.Hour
	ep.now = func() time.Time { return fixed }

	if err := ep.Cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if want := fixed.Add(-24 * time.Hour); !repo.deletedBefore.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.deletedBefore)
	}
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	repo := &stubOutboxRepo{}
	pub := &stubPublisher{}
	ep := newTestPublisher(repo, pub)
	ep.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ep.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}

func TestRedisStreamPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	pub := NewRedisStreamPublisher(client, "", 1000)
	event := &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "tx-1",
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeSendMoneySettled,
		Payload:       map[string]any{"amount": "150.00"},
		CreatedAt:     time.Now(),
	}

	ctx := context.Background()
	if err := pub.Publish(ctx, event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msgs, err := client.XRange(ctx, DefaultStream, "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 stream message, got %d", len(msgs))
	}
	values := msgs[0].Values
	if values["event_id"] != "evt-1" || values["event_type"] != domain.EventTypeSendMoneySettled {
		t.Errorf("unexpected message %v", values)
	}
	if values["payload"] != `{"amount":"150.00"}` {
		t.Errorf("unexpected payload %v", values["payload"])
	}
}

func TestRedisStreamPublisherUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	pub := NewRedisStreamPublisher(client, "events", 0)
	if err := pub.Publish(context.Background(), &domain.OutboxEvent{ID: "evt-1"}); err == nil {
		t.Fatal("expected error when redis is down")
	}
}

func newTestPublisher(repo *stubOutboxRepo, pub *stubPublisher) *EventPublisher {
	return NewEventPublisher(Config{
		OutboxRepo: repo,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
		Metrics:    metrics.NewWithRegisterer(prometheus.NewRegistry()),
		BatchSize:  10,
		Interval:   5 * time.Millisecond,
	})
}

type stubOutboxRepo struct {
	events        []*domain.OutboxEvent
	marked        []string
	deletedBefore time.Time
	err           error
}

func (s *stubOutboxRepo) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return nil
}

func (s *stubOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*domain.OutboxEvent
	for _, e := range s.events {
		if e.Published {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubOutboxRepo) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	s.marked = append(s.marked, id)
	for _, e := range s.events {
		if e.ID == id {
			e.Published = true
		}
	}
	return nil
}

func (s *stubOutboxRepo) DeletePublished(ctx context.Context, before time.Time) error {
	s.deletedBefore = before
	return nil
}

type stubPublisher struct {
	published  []*domain.OutboxEvent
	errorsByID map[string]error
}

func (s *stubPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	if err := s.errorsByID[event.ID]; err != nil {
		return err
	}
	s.published = append(s.published, event)
	return nil
}
