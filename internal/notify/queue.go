package notify

import (
	"context"
	"sync"

	"pump_bot/pkg/logger"
)

type Kind int

const (
	KindInfo Kind = iota
	KindTrade
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindTrade:
		return "trade"
	case KindError:
		return "error"
	default:
		return "info"
	}
}

type Message struct {
	Kind   Kind
	Symbol string
	Text   string
}

// Sender доставляет одно сообщение. Повторов нет: ошибка только логируется.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Queue держит неограниченную FIFO-очередь с одним потребителем.
// Enqueue не ждёт доставку, медленный Telegram не тормозит свечи.
type Queue struct {
	sender Sender
	in     chan Message
	done   chan struct{}

	mu      sync.RWMutex
	closed  bool
	started bool

	onSent func(msg Message, err error)
}

func NewQueue(sender Sender) *Queue {
	return &Queue{
		sender: sender,
		in:     make(chan Message),
		done:   make(chan struct{}),
	}
}

// OnSent: хук после каждой попытки доставки (метрики, тесты).
func (q *Queue) OnSent(fn func(msg Message, err error)) { q.onSent = fn }

func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true

	out := make(chan Message)
	go q.buffer(out)
	go q.consume(ctx, out)
}

func (q *Queue) Enqueue(msg Message) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed || !q.started {
		logger.Warn("[NOTIFY] queue is not running, drop %s message for %s", msg.Kind, msg.Symbol)
		return
	}
	q.in <- msg
}

func (q *Queue) Info(text string) { q.Enqueue(Message{Kind: KindInfo, Text: text}) }

// Stop закрывает вход и ждёт, пока потребитель дошлёт хвост.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed || !q.started {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.in)
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// buffer перекладывает входящие сообщения в срез и отдаёт их по одному.
func (q *Queue) buffer(out chan<- Message) {
	defer close(out)

	in := q.in
	var pending []Message
	for in != nil || len(pending) > 0 {
		var (
			sendCh chan<- Message
			next   Message
		)
		if len(pending) > 0 {
			sendCh = out
			next = pending[0]
		}

		select {
		case msg, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			pending = append(pending, msg)
		case sendCh <- next:
			pending[0] = Message{}
			pending = pending[1:]
		}
	}
}

func (q *Queue) consume(ctx context.Context, out <-chan Message) {
	defer close(q.done)
	for msg := range out {
		err := q.sender.Send(ctx, msg)
		if err != nil {
			logger.Error("[NOTIFY] deliver %s message for %s: %v", msg.Kind, msg.Symbol, err)
		}
		if q.onSent != nil {
			q.onSent(msg, err)
		}
	}
}
