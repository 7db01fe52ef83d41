package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttQoS            = 1
	mqttPublishTimeout = 5 * time.Second
	mqttDisconnectMS   = 250
)

// tokenPublisher is the slice of mqtt.Client the publisher needs.
type tokenPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher publishes events as JSON to <prefix>/<event type>.
type MQTTPublisher struct {
	client     tokenPublisher
	prefix     string
	disconnect func()
}

// DialMQTT connects to the configured broker.
func DialMQTT(cfg Config) (*MQTTPublisher, error) {
	if cfg.MQTTBroker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
	}
	if cfg.MQTTPassword != "" {
		opts.SetPassword(cfg.MQTTPassword)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(mqttPublishTimeout)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to mqtt broker: %w", token.Error())
	}

	p := newMQTTPublisher(client, cfg.MQTTTopicPrefix)
	p.disconnect = func() { client.Disconnect(mqttDisconnectMS) }
	return p, nil
}

func newMQTTPublisher(client tokenPublisher, prefix string) *MQTTPublisher {
	if prefix == "" {
		prefix = "frontdesk"
	}
	return &MQTTPublisher{client: client, prefix: strings.TrimSuffix(prefix, "/")}
}

// Topic returns the topic an event type is published on.
func (p *MQTTPublisher) Topic(t EventType) string {
	return p.prefix + "/" + strings.ReplaceAll(string(t), ".", "/")
}

// Publish implements Publisher.
func (p *MQTTPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	topic := p.Topic(e.Type)
	token := p.client.Publish(topic, mqttQoS, false, payload)

	ctx, cancel := context.WithTimeout(ctx, mqttPublishTimeout)
	defer cancel()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publishing to %s: %w", topic, ctx.Err())
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	if p.disconnect != nil {
		p.disconnect()
	}
	return nil
}
