package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// collectSink накапливает доставленные события.
type collectSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *collectSink) Deliver(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *collectSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestBus_DeliversToAllSinks(t *testing.T) {
	first := &collectSink{}
	second := &collectSink{}
	bus := NewBus(8, first, second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	recipient := uuid.New()
	bus.Emit(Event{Recipient: recipient, Type: EventJobAssigned})

	assert.Eventually(t, func() bool {
		return len(first.snapshot()) == 1 && len(second.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)

	got := first.snapshot()[0]
	assert.Equal(t, recipient, got.Recipient)
	assert.Equal(t, EventJobAssigned, got.Type)
}

func TestBus_EmitDoesNotBlockWhenFull(t *testing.T) {
	// Шина без потребителя: буфер заполняется, лишние события отбрасываются.
	bus := NewBus(2, &collectSink{})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Emit(Event{Type: EventJobFunded})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit заблокировался на переполненном буфере")
	}
}

func TestBus_RunStopsOnContextCancel(t *testing.T) {
	bus := NewBus(1, &collectSink{})
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		bus.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run не завершился после отмены контекста")
	}
}
