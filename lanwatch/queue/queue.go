// Package queue publishes monitor output to RabbitMQ so downstream
// consumers (dashboard, notification fan-out) can react without polling
// the database.
package queue

import (
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"
)

// Publish sends one message to the named queue at url. A connection is
// dialed per call; alert volume is throttled upstream to a few messages
// per window.
func Publish(url, qName string, contentType string, body []byte) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		qName, // name
		false, // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue '%s': %w", qName, err)
	}

	err = ch.Publish(
		"",     // exchange
		q.Name, // routing key
		false,  // mandatory
		false,  // immediate
		amqp.Publishing{
			ContentType: contentType,
			Body:        body,
		})
	if err != nil {
		return fmt.Errorf("publish to '%s': %w", qName, err)
	}

	slog.Debug("published message", "queue", qName, "bytes", len(body))
	return nil
}
