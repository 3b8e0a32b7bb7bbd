package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"

	"haulshare/internal/app/commands"
)

type countCommand struct {
	IKey string
}

func (c countCommand) Key() string { return "test.count" }

func (c countCommand) IdempotencyKey() string { return c.IKey }

func (c countCommand) ResultPrototype() any { return &countResult{} }

type countResult struct {
	Calls int `json:"calls"`
}

type plainCommand struct{}

func (plainCommand) Key() string { return "test.plain" }

type recordingStore struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func newRecordingStore() *recordingStore {
	return &recordingStore{items: make(map[string]IdempotencyRecord)}
}

func (s *recordingStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *recordingStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = rec
	return nil
}

func newCountingBus(t *testing.T) (*commands.InMemoryBus, *int) {
	t.Helper()
	calls := 0
	bus := commands.NewInMemoryBus()
	bus.RegisterRaw("test.count", func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return &countResult{Calls: calls}, nil
	})
	return bus, &calls
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	base, calls := newCountingBus(t)
	bus := ChainCommands(base, Idempotency(newRecordingStore(), nil))
	ctx := context.Background()

	first, err := commands.Dispatch[countCommand, *countResult](ctx, bus, countCommand{IKey: "k-1"})
	if err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	second, err := commands.Dispatch[countCommand, *countResult](ctx, bus, countCommand{IKey: "k-1"})
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if *calls != 1 {
		t.Fatalf("handler ran %d times, want 1", *calls)
	}
	if second.Calls != first.Calls {
		t.Fatalf("replayed result %+v, want %+v", second, first)
	}

	if _, err := commands.Dispatch[countCommand, *countResult](ctx, bus, countCommand{IKey: "k-2"}); err != nil {
		t.Fatalf("dispatch with new key: %v", err)
	}
	if *calls != 2 {
		t.Fatalf("handler ran %d times, want 2", *calls)
	}
}

func TestIdempotencyBlankKeyPassesThrough(t *testing.T) {
	base, calls := newCountingBus(t)
	bus := ChainCommands(base, Idempotency(newRecordingStore(), nil))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := commands.Dispatch[countCommand, *countResult](ctx, bus, countCommand{}); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	if *calls != 3 {
		t.Fatalf("handler ran %d times, want 3", *calls)
	}
}

func TestIdempotencyIgnoresNonIdempotentCommands(t *testing.T) {
	calls := 0
	base := commands.NewInMemoryBus()
	base.RegisterRaw("test.plain", func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return nil, nil
	})
	bus := ChainCommands(base, Idempotency(newRecordingStore(), nil))

	for i := 0; i < 2; i++ {
		if _, err := bus.Dispatch(context.Background(), plainCommand{}); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2", calls)
	}
}

func TestIdempotencyReplaysFailure(t *testing.T) {
	boom := errors.New("payment rejected")
	calls := 0
	base := commands.NewInMemoryBus()
	base.RegisterRaw("test.count", func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return nil, boom
	})
	bus := ChainCommands(base, Idempotency(newRecordingStore(), nil))
	ctx := context.Background()

	if _, err := bus.Dispatch(ctx, countCommand{IKey: "k-1"}); err == nil {
		t.Fatal("first dispatch must fail")
	}
	_, err := bus.Dispatch(ctx, countCommand{IKey: "k-1"})
	if err == nil || err.Error() != boom.Error() {
		t.Fatalf("got %v, want replayed %v", err, boom)
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
}

func TestChainCommandsOrder(t *testing.T) {
	var order []string
	tag := func(name string) CommandMiddleware {
		return func(next commands.Bus) commands.Bus {
			nextFn := wrapCommand(next)
			return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
				order = append(order, name)
				return nextFn(ctx, cmd)
			})
		}
	}

	base := commands.NewInMemoryBus()
	base.RegisterRaw("test.plain", func(ctx context.Context, cmd commands.Command) (any, error) {
		order = append(order, "handler")
		return nil, nil
	})

	bus := ChainCommands(base, tag("outer"), tag("inner"))
	if _, err := bus.Dispatch(context.Background(), plainCommand{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	want := []string{"outer", "inner", "handler"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
