package rabbit

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Rabbit interface {
	Consume(ctx context.Context, consumeFunction func(ctx context.Context, msg amqp.Delivery) error) error
	Publish(ctx context.Context, body []byte) error
}

type rabbit struct {
	connectionUrl string
	consumeQueue  string
	publishQueue  string
	maxConsumer   int
	expireTime    int
	logger        *zap.Logger
}

// New builds a Rabbit from viper config, or a no-op Dummy when no broker
// address is configured.
func New(logger *zap.Logger) Rabbit {
	address := viper.GetString("rabbitmq.address")
	if address == "" {
		return &Dummy{}
	}

	connectionUrl := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		viper.GetString("rabbitmq.username"),
		viper.GetString("rabbitmq.password"),
		address,
		viper.GetInt("rabbitmq.port"))

	maxConsumer := viper.GetInt("rabbitmq.max_consumer")
	if maxConsumer <= 0 {
		maxConsumer = 1
	}

	return &rabbit{
		connectionUrl: connectionUrl,
		consumeQueue:  viper.GetString("rabbitmq.consume_queue"),
		publishQueue:  viper.GetString("rabbitmq.publish_queue"),
		maxConsumer:   maxConsumer,
		expireTime:    viper.GetInt("rabbitmq.expire_time"),
		logger:        logger,
	}
}

func (r *rabbit) processMessage(ctx context.Context, msg amqp.Delivery, sem chan struct{}, consumeFunction func(ctx context.Context, msg amqp.Delivery) error) {
	r.logger.Info(fmt.Sprintf("Received: %s", msg.Body))
	defer func() { <-sem }()

	if err := consumeFunction(ctx, msg); err != nil {
		r.logger.Error(fmt.Sprintf("Error: %s", err.Error()))
		msg.Nack(false, true)
	} else {
		msg.Ack(false)
	}
}

func (r *rabbit) Consume(ctx context.Context, consumeFunction func(ctx context.Context, msg amqp.Delivery) error) error {
	conn, err := amqp.Dial(r.connectionUrl)
	if err != nil {
		return err
	}
	defer conn.Close()

	r.logger.Info("Connected to RabbitMQ")

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(r.consumeQueue, true, false, false, false, nil)
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	sem := make(chan struct{}, r.maxConsumer)

	for msg := range msgs {
		sem <- struct{}{}
		go r.processMessage(ctx, msg, sem, consumeFunction)
	}

	return nil
}

func (r *rabbit) Publish(ctx context.Context, body []byte) error {
	conn, err := amqp.Dial(r.connectionUrl)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(r.publishQueue, true, false, false, false, nil)
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, "", q.Name, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Expiration:  fmt.Sprintf("%d", r.expireTime),
	})
	if err != nil {
		return err
	}

	r.logger.Info(fmt.Sprintf("Sent: %s", string(body)))
	return nil
}
