package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jgoulah/meterflow/internal/config"
	"github.com/jgoulah/meterflow/internal/database"
	"github.com/jgoulah/meterflow/pkg/models"
)

// Publisher pushes stored consumption records to an MQTT broker, one
// topic per meter: <prefix>/<meter>.
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
}

// New connects to the broker configured in cfg
func New(cfg config.MQTTConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	// Configure MQTT client options
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(cfg.GetClientID())
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	// Create and connect client
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client:      client,
		topicPrefix: cfg.GetTopicPrefix(),
	}, nil
}

// Payload is the JSON body published per consumption record
type Payload struct {
	Timestamp string  `json:"timestamp"`
	Meter     string  `json:"meter"`
	Volume    float64 `json:"volume_consumption"`
}

// Publish sends one consumption record to the meter's topic
func (p *Publisher) Publish(rec database.Record) error {
	payload := Payload{
		Timestamp: models.FormatTimestamp(rec.Timestamp),
		Meter:     rec.Meter,
		Volume:    rec.Volume,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	topic := fmt.Sprintf("%s/%s", p.topicPrefix, rec.Meter)
	token := p.client.Publish(topic, 1, false, body)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
