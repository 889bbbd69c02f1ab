package rabbitmq

import (
	"context"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one message; a returned error is logged, not retried.
type Handler func(topic string, message mqtt.Message) error

// IConsumer subscribes and dispatches to an injected handler.
type IConsumer interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler Handler)
}

// Consumer subscribes to one or more topic filters on a shared client.
type Consumer struct {
	client  mqtt.Client
	handler Handler
	topics  []string
}

func NewConsumer(client mqtt.Client, handler Handler, topics ...string) *Consumer {
	return &Consumer{
		client:  client,
		topics:  topics,
		handler: handler,
	}
}

func (c *Consumer) SetHandler(handler Handler) {
	c.handler = handler
}

// ConsumeMessage subscribes every topic and blocks until ctx is cancelled.
func (c *Consumer) ConsumeMessage(ctx context.Context) {
	for _, topic := range c.topics {
		topic := topic
		token := c.client.Subscribe(topic, qosFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			c.dispatch(topic, msg)
		})
		token.Wait()
		if token.Error() != nil {
			log.Printf("mqtt: subscribe %s failed: %v", topic, token.Error())
			continue
		}
		log.Printf("mqtt: subscribed to %s", topic)
	}

	<-ctx.Done()

	if c.client.IsConnectionOpen() {
		c.client.Unsubscribe(c.topics...).Wait()
	}
}

func (c *Consumer) dispatch(topic string, msg mqtt.Message) {
	if c.handler == nil {
		log.Printf("mqtt: no handler set for %s", topic)
		return
	}
	if err := c.handler(topic, msg); err != nil {
		log.Printf("mqtt: handling message on %s: %v", msg.Topic(), err)
	}
}
