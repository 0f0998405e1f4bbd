package consumerWorker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"campusevents/internal/dto"
	"campusevents/internal/rabbit"
	"campusevents/internal/sms"
)

// Worker drains the reminder queue filled by the bulk-notify endpoint and
// delivers one SMS per message.
type Worker struct {
	RMQ    *rabbit.Client
	sender sms.Sender
	done   chan struct{}
	cancel context.CancelFunc
}

func NewWorker(rmq *rabbit.Client, sender sms.Sender) *Worker {
	return &Worker{
		RMQ:    rmq,
		sender: sender,
		done:   make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	zlog.Logger.Info().Msg("reminder queue worker started")

	go func() {
		defer close(w.done)

		handler := func(body []byte) error {
			var msg dto.ReminderMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().
					Err(err).
					Msgf("failed to unmarshal reminder message: %s", string(body))
				return err
			}

			zlog.Logger.Info().
				Int("event_id", msg.EventID).
				Str("username", msg.Username).
				Msg("received reminder message")

			text := fmt.Sprintf("Reminder: %s at %s on %s.", msg.EventName, msg.Location, msg.Date)
			if err := w.sender.Send(cctx, msg.Phone, text); err != nil {
				// Delivery failures are final: requeueing would spam the
				// provider with a message that already failed once.
				zlog.Logger.Warn().
					Err(err).
					Str("phone", msg.Phone).
					Msg("failed to deliver reminder SMS")
				return nil
			}

			zlog.Logger.Info().
				Str("username", msg.Username).
				Int("event_id", msg.EventID).
				Msg("reminder SMS delivered")
			return nil
		}

		if err := w.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("reminder queue worker stopped by context")
	}()
}

func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
}
