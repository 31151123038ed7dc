package session

import (
	"context"
	"time"
)

// Input is a non-blocking key source. Poll returns every key pressed since
// the previous call, oldest first, or nothing.
type Input interface {
	Poll() []string
}

// Display renders snapshots. Show must not block the loop for long.
type Display interface {
	Show(Snapshot)
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(Snapshot)

func (f DisplayFunc) Show(s Snapshot) { f(s) }

// Run drives the session until a quit key arrives or ctx is cancelled.
//
// Each iteration polls input once, applies pause and quit keys, runs one
// Tick with the remaining keys, shows the result and then sleeps for the
// configured tick delay. While paused nothing advances; input is polled
// every PausePoll until the pause key is pressed again. Run returns nil on a
// quit key and ctx.Err() on cancellation.
func (s *Session) Run(ctx context.Context, in Input, out Display) error {
	out.Show(s.Snapshot())

	for {
		if err := ctx.Err(); err != nil {
			s.end("cancelled")
			return err
		}

		keys := in.Poll()
		steer := make([]string, 0, len(keys))
		for _, key := range keys {
			switch {
			case s.isQuit(key):
				s.end("quit")
				out.Show(s.Snapshot())
				return nil
			case key == s.cfg.PauseKey:
				quit, err := s.pause(ctx, in, out)
				if err != nil {
					s.end("cancelled")
					return err
				}
				if quit {
					s.end("quit")
					out.Show(s.Snapshot())
					return nil
				}
			default:
				steer = append(steer, key)
			}
		}

		s.Tick(steer)
		out.Show(s.Snapshot())

		if err := sleep(ctx, s.cfg.TickDelay); err != nil {
			s.end("cancelled")
			return err
		}
	}
}

// pause blocks until the pause key is pressed again (false) or a quit key
// arrives (true). Other keys are discarded.
func (s *Session) pause(ctx context.Context, in Input, out Display) (bool, error) {
	s.setPhase(Paused)
	s.log.Debug("paused", "round", s.state.Round, "tick", s.state.Tick)
	out.Show(s.Snapshot())

	for {
		if err := sleep(ctx, s.cfg.PausePoll); err != nil {
			return false, err
		}
		for _, key := range in.Poll() {
			switch {
			case s.isQuit(key):
				return true, nil
			case key == s.cfg.PauseKey:
				s.setPhase(Playing)
				s.log.Debug("resumed", "round", s.state.Round, "tick", s.state.Tick)
				out.Show(s.Snapshot())
				return false, nil
			}
		}
	}
}

func (s *Session) isQuit(key string) bool {
	for _, q := range s.cfg.QuitKeys {
		if key == q {
			return true
		}
	}
	return false
}

// End stops the session; later Ticks are no-ops.
func (s *Session) End() {
	s.end("stopped")
}

func (s *Session) end(reason string) {
	if s.phase == SessionEnd {
		return
	}
	s.setPhase(SessionEnd)
	s.log.Info("session ended", "reason", reason, "round", s.state.Round, "scores", s.Scores())
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
