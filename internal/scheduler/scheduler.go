package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"campusevents/internal/model"
	"campusevents/internal/repo"
	"campusevents/internal/sms"
)

const (
	DefaultInterval = 60 * time.Second
	DefaultWindow   = 10 * time.Minute
)

// Scheduler is the background reminder loop. Every interval it queries the
// store for events starting within the lookahead window and texts each
// registered participant. It keeps a notified set keyed by
// (event_id, username) so an event sitting inside the window is not texted
// again on the next cycle.
type Scheduler struct {
	repo     repo.Repository
	sender   sms.Sender
	log      *zerolog.Logger
	interval time.Duration
	window   time.Duration

	notified map[string]time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

func New(repository repo.Repository, sender sms.Sender, log *zerolog.Logger, interval, window time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Scheduler{
		repo:     repository,
		sender:   sender,
		log:      log,
		interval: interval,
		window:   window,
		notified: make(map[string]time.Time),
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.log.Info().
		Dur("interval", s.interval).
		Dur("window", s.window).
		Msg("reminder scheduler started")

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			s.runCycle(cctx, time.Now())

			select {
			case <-cctx.Done():
				s.log.Info().Msg("reminder scheduler stopped")
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// runCycle performs one query-and-notify pass. Nothing that happens inside a
// cycle may kill the loop: per-recipient failures are logged and skipped, and
// the whole body recovers at its outermost level.
func (s *Scheduler) runCycle(ctx context.Context, now time.Time) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error().Msgf("reminder cycle panicked: %v", p)
		}
	}()

	rows, err := s.repo.ParticipantsWithPhoneForWindow(ctx, now, now.Add(s.window))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to query reminder window")
		return
	}

	s.expireNotified(now)

	for _, row := range Due(rows, now, s.window) {
		if ctx.Err() != nil {
			return
		}

		key := notifiedKey(row)
		if _, ok := s.notified[key]; ok {
			continue
		}

		message := fmt.Sprintf("Reminder: %s is starting soon at %s. Location: %s.",
			row.EventName, row.Date, row.Location)
		if err := s.sender.Send(ctx, row.Phone, message); err != nil {
			s.log.Warn().
				Err(err).
				Str("phone", row.Phone).
				Str("event", row.EventName).
				Msg("failed to send reminder SMS")
			continue
		}

		s.notified[key] = now
		s.log.Info().
			Str("event", row.EventName).
			Str("username", row.Username).
			Msg("reminder sent")
	}
}

// Due filters rows down to those whose event starts within (now, now+window].
// Rows whose stored date fails to parse are skipped so one malformed event
// never aborts the rest of the batch.
func Due(rows []model.ReminderRow, now time.Time, window time.Duration) []model.ReminderRow {
	var due []model.ReminderRow
	for _, row := range rows {
		start, err := row.StartTime()
		if err != nil {
			continue
		}
		diff := start.Sub(now)
		if diff > 0 && diff <= window {
			due = append(due, row)
		}
	}
	return due
}

// expireNotified drops entries whose event start has passed out of the
// window, so the set does not grow without bound.
func (s *Scheduler) expireNotified(now time.Time) {
	for key, at := range s.notified {
		if now.Sub(at) > s.window {
			delete(s.notified, key)
		}
	}
}

func notifiedKey(row model.ReminderRow) string {
	return fmt.Sprintf("%d/%s", row.EventID, row.Username)
}
