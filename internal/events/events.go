package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-backend/internal/logger"
)

// События, порождаемые переходами протокола.
const (
	EventJobAssigned       = "job.assigned"
	EventJobFunded         = "job.funded"
	EventRevisionRequested = "revision.requested"
	EventRevisionSubmitted = "revision.submitted"
	EventJobCompleted      = "job.completed"
	EventDisputeRaised     = "dispute.raised"
	EventDisputeResolved   = "dispute.resolved"
)

// Event — исходящее событие перехода, адресованное пользователю.
type Event struct {
	Recipient uuid.UUID
	Type      string
	Data      any
}

// Sink доставляет событие получателю (БД, вебсокет и т.п.).
type Sink interface {
	Deliver(ctx context.Context, e Event) error
}

// Emitter публикует события переходов. Сервисы протокола зависят от
// этого интерфейса, а не от механизма доставки.
type Emitter interface {
	Emit(e Event)
}

// Bus — асинхронная шина событий. Публикация никогда не блокирует и не
// проваливает породившую событие операцию: доставка — best-effort,
// ошибки только логируются.
type Bus struct {
	ch    chan Event
	sinks []Sink
}

func NewBus(buffer int, sinks ...Sink) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		ch:    make(chan Event, buffer),
		sinks: sinks,
	}
}

// Emit публикует событие. При переполненном буфере событие отбрасывается
// с записью в лог: уведомления не должны тормозить расчёты.
func (b *Bus) Emit(e Event) {
	select {
	case b.ch <- e:
	default:
		if logger.Log != nil {
			logger.Log.WithField("event", e.Type).Warn("events: буфер переполнен, событие отброшено")
		}
	}
}

// Run потребляет события до отмены контекста.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-b.ch:
			b.deliver(ctx, e)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, e Event) {
	for _, sink := range b.sinks {
		if err := sink.Deliver(ctx, e); err != nil {
			if logger.Log != nil {
				logger.Log.WithField("event", e.Type).WithError(err).Error("events: доставка не удалась")
			}
		}
	}
}
