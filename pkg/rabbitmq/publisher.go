package rabbitmq

import (
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes payloads on MQTT topics.
type IPublisher interface {
	PublishMessage(topic string, payload []byte) error
	Close()
}

type Publisher struct {
	client  mqtt.Client
	verbose bool
}

func NewPublisher(client mqtt.Client) *Publisher {
	return &Publisher{client: client}
}

// SetVerbose logs every published payload.
func (p *Publisher) SetVerbose(v bool) { p.verbose = v }

// PublishMessage publishes with the QoS configured for the topic family.
func (p *Publisher) PublishMessage(topic string, payload []byte) error {
	if p.client == nil {
		return fmt.Errorf("publish %s: no mqtt client", topic)
	}
	token := p.client.Publish(topic, qosFor(topic), false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	if p.verbose {
		log.Printf("mqtt: published %d bytes to %s", len(payload), topic)
	}
	return nil
}

func (p *Publisher) Close() {
	CloseRabbitMQConn(p.client)
}
