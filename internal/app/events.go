package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/Arjunhg/think-waste/internal/session"
)

// eventBufferSize bounds the controller events queued for the UI.
const eventBufferSize = 64

// sessionEventMsg carries a controller event into the Bubble Tea loop.
type sessionEventMsg session.Event

// eventBridge turns controller callbacks into a channel the UI drains one
// message at a time.
type eventBridge struct {
	events      chan session.Event
	done        chan struct{}
	unsubscribe func()
	closeOnce   sync.Once
	log         *logrus.Entry
}

func newEventBridge(s Session, log *logrus.Entry) *eventBridge {
	b := &eventBridge{
		events: make(chan session.Event, eventBufferSize),
		done:   make(chan struct{}),
		log:    log,
	}
	b.unsubscribe = s.Subscribe(b.push)
	return b
}

// push must not block the controller. When the UI lags behind, the
// oldest queued event is dropped; every event carries a full snapshot.
func (b *eventBridge) push(ev session.Event) {
	for {
		select {
		case <-b.done:
			return
		case b.events <- ev:
			return
		default:
		}
		select {
		case dropped := <-b.events:
			if dropped.Notice != nil {
				b.log.WithField("notice", dropped.Notice.Message).Warn("dropping queued session event")
			}
		default:
		}
	}
}

// wait returns a command that blocks until the next event arrives. It
// returns nil once the bridge is closed.
func (b *eventBridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-b.events:
			return sessionEventMsg(ev)
		case <-b.done:
			return nil
		}
	}
}

func (b *eventBridge) close() {
	b.closeOnce.Do(func() {
		b.unsubscribe()
		close(b.done)
	})
}
