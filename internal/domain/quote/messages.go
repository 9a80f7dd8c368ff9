package quote

import (
	"errors"
	"sync"
)

// Level is the severity of a Message.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Message is a transient notice for the customer (a toast in a browser).
type Message struct {
	Level  Level
	Title  string
	Detail string
}

// broadcaster fans messages out to subscribers. Emit never blocks on a
// subscriber beyond the callback itself and nothing is stored.
type broadcaster struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Message)
}

func (b *broadcaster) subscribe(fn func(Message)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]func(Message))
	}
	id := b.next
	b.next++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *broadcaster) emit(m Message) {
	b.mu.RLock()
	subs := make([]func(Message), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(m)
	}
}

func messageFor(err error) Message {
	var se *SubmitError
	if errors.As(err, &se) {
		return Message{Level: LevelError, Title: se.Title, Detail: se.Message}
	}
	return Message{Level: LevelError, Title: "Erreur", Detail: err.Error()}
}
