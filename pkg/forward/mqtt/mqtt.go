// Package mqtt mirrors forwarded IR events to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/hausnet/irbridge/pkg/config"
	"github.com/hausnet/irbridge/pkg/ircode"
)

// Common errors.
var (
	ErrNotConnected = errors.New("not connected")
)

// Publisher publishes record JSON to a fixed topic.
type Publisher struct {
	mu     sync.Mutex
	cfg    config.MQTTConfig
	client mqtt.Client
}

// NewPublisher creates an MQTT publisher from configuration.
func NewPublisher(cfg config.MQTTConfig) *Publisher {
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("irbridge-%d", time.Now().Unix())
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return &Publisher{cfg: cfg}
}

// Connect establishes the broker connection.
func (p *Publisher) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	opts := mqtt.NewClientOptions().
		AddBroker(p.cfg.Broker).
		SetClientID(p.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(p.cfg.ConnectTimeout)

	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
		opts.SetPassword(p.cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(p.cfg.ConnectTimeout) {
		return fmt.Errorf("connect to %s: timeout", p.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s: %w", p.cfg.Broker, err)
	}

	p.client = client
	return nil
}

// Publish sends one record as JSON, tagged with its direction.
func (p *Publisher) Publish(direction string, rec ircode.Record) error {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(struct {
		Direction string `json:"direction"`
		ircode.Record
	}{direction, rec})
	if err != nil {
		return err
	}

	token := client.Publish(p.cfg.Topic, byte(p.cfg.QOS), false, payload)
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	p.client = nil
	return nil
}
