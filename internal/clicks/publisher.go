package clicks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"github.com/avtorres/shortlink/internal"
)

// RabbitPublisher sends click-count events to the worker queue.
type RabbitPublisher struct {
	channel *amqp091.Channel
	queue   string
}

func NewRabbitPublisher(channel *amqp091.Channel, queue string) *RabbitPublisher {
	return &RabbitPublisher{channel: channel, queue: queue}
}

func (p *RabbitPublisher) PublishClickCount(ctx context.Context, event internal.ClickCountEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal click count event: %w", err)
	}
	err = p.channel.PublishWithContext(
		ctx,
		"", p.queue, false, false,
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish click count event: %w", err)
	}
	return nil
}

// DeclareQueue makes the click queue durable on whichever side starts first.
func DeclareQueue(channel *amqp091.Channel, queue string) (amqp091.Queue, error) {
	return channel.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
}
