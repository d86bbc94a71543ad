package events

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"audio-ingest/config"
	"audio-ingest/dto"
)

// Publisher announces recordings-table mutations. Publishing is
// best-effort: callers log failures and carry on, a broken bus must never
// fail the mutation that triggered the event.
type Publisher interface {
	Publish(ctx context.Context, event dto.ChangeEvent) error
}

type amqpPublisher struct {
	ch       *amqp.Channel
	exchange string
}

// NewPublisher opens a channel on conn and declares the fanout exchange
// change events go through.
func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ) (Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	exchange := cfg.ExchangeName
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return nil, err
	}

	return &amqpPublisher{
		ch:       ch,
		exchange: exchange,
	}, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, event dto.ChangeEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("op", string(event.Op)).Msg("failed to publish change event")
	}
	return err
}
