package sinks

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"arena-shooter/core/logging"
)

const (
	feedObserverBuffer = 256
	feedWriteWait      = 5 * time.Second
)

// Feed broadcasts events to websocket observers. It is read-only: messages
// sent by observers are discarded.
type Feed struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu        sync.Mutex
	observers map[*feedObserver]struct{}
	closed    bool
}

type feedObserver struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func NewFeed(logger *log.Logger) *Feed {
	if logger == nil {
		logger = log.Default()
	}
	return &Feed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:    logger,
		observers: make(map[*feedObserver]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the connection as an observer.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Printf("feed upgrade failed: %v", err)
		return
	}
	observer := &feedObserver{conn: conn, send: make(chan []byte, feedObserverBuffer)}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		_ = conn.Close()
		return
	}
	f.observers[observer] = struct{}{}
	f.mu.Unlock()

	go f.writeLoop(observer)
	go f.readLoop(observer)
}

// Observers reports the number of connected observers.
func (f *Feed) Observers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.observers)
}

func (f *Feed) Write(event logging.Event) error {
	data, err := json.Marshal(toWire(event))
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for observer := range f.observers {
		select {
		case observer.send <- data:
		default:
			f.logger.Printf("feed observer %s too slow, disconnecting", observer.conn.RemoteAddr())
			f.removeLocked(observer)
		}
	}
	return nil
}

func (f *Feed) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for observer := range f.observers {
		f.removeLocked(observer)
	}
	return nil
}

func (f *Feed) remove(observer *feedObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(observer)
}

func (f *Feed) removeLocked(observer *feedObserver) {
	if _, ok := f.observers[observer]; !ok {
		return
	}
	delete(f.observers, observer)
	observer.once.Do(func() { close(observer.send) })
}

func (f *Feed) writeLoop(observer *feedObserver) {
	defer observer.conn.Close()
	for data := range observer.send {
		if err := observer.conn.SetWriteDeadline(time.Now().Add(feedWriteWait)); err != nil {
			f.remove(observer)
			return
		}
		if err := observer.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			f.remove(observer)
			return
		}
	}
	_ = observer.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
}

func (f *Feed) readLoop(observer *feedObserver) {
	for {
		if _, _, err := observer.conn.ReadMessage(); err != nil {
			f.remove(observer)
			return
		}
	}
}
