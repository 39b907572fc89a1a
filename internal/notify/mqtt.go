package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"generator_ledger/internal/logger"
)

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

const (
	publishQoS       = 1
	disconnectQuiesc = 250 // ms
)

// MQTTNotifier publishes JSON notifications to <prefix>/<kind>.
type MQTTNotifier struct {
	client mqtt.Client
	prefix string
	log    *logger.Logger
}

// NewMQTT connects to the broker. The client reconnects on its own after a
// lost connection; publishes made while disconnected fail.
func NewMQTT(cfg MQTTConfig, log *logger.Logger) (*MQTTNotifier, error) {
	log = log.Named("mqtt")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Infow("mqtt_connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnw("mqtt_connection_lost", "error", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, token.Error())
	}

	return &MQTTNotifier{
		client: client,
		prefix: strings.TrimSuffix(cfg.TopicPrefix, "/"),
		log:    log,
	}, nil
}

// Topic returns the topic a kind is published on.
func (m *MQTTNotifier) Topic(k Kind) string {
	if m.prefix == "" {
		return string(k)
	}
	return m.prefix + "/" + string(k)
}

func (m *MQTTNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal %s notification: %w", n.Kind, err)
	}

	topic := m.Topic(n.Kind)
	token := m.client.Publish(topic, publishQoS, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	m.log.Debugw("notification_published", "topic", topic)
	return nil
}

func (m *MQTTNotifier) Close() {
	m.client.Disconnect(disconnectQuiesc)
	m.log.Infow("mqtt_disconnected")
}
