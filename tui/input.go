package tui

import "github.com/brensch/tron/session"

// ChanInput carries key presses from the bubbletea goroutine to the session
// loop. Push never blocks; keys arriving while the buffer is full are lost.
type ChanInput struct {
	keys chan string
}

func NewChanInput(size int) *ChanInput {
	if size <= 0 {
		size = 1
	}
	return &ChanInput{keys: make(chan string, size)}
}

// Push queues a key and reports whether there was room for it.
func (c *ChanInput) Push(key string) bool {
	select {
	case c.keys <- key:
		return true
	default:
		return false
	}
}

// Poll drains every queued key without waiting.
func (c *ChanInput) Poll() []string {
	var out []string
	for {
		select {
		case k := <-c.keys:
			out = append(out, k)
		default:
			return out
		}
	}
}

// frameSink keeps only the newest snapshot for the view to pick up.
type frameSink chan session.Snapshot

func (f frameSink) Show(s session.Snapshot) {
	for {
		select {
		case f <- s:
			return
		default:
		}
		select {
		case <-f:
		default:
		}
	}
}
