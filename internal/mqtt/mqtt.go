// Package mqtt publishes measurements, fan transitions and operational
// alerts to a broker. Publishing is optional: with no broker configured the
// publisher is built in disabled mode and every method is a cheap no-op, so
// callers never need to branch on whether MQTT is in play.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Christian-SuMePa/hausserver/internal/config"
	"github.com/Christian-SuMePa/hausserver/internal/fan"
	"github.com/Christian-SuMePa/hausserver/internal/modules/climate/types"
)

const publishTimeout = 5 * time.Second

type Alert struct {
	Subject string    `json:"subject"`
	Detail  string    `json:"detail"`
	Time    time.Time `json:"time"`
}

type Publisher struct {
	client  mqtt.Client
	cfg     config.Config
	logger  *slog.Logger
	enabled bool

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(cfg config.Config, logger *slog.Logger) *Publisher {
	p := &Publisher{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
	if cfg.MQTTBroker == "" {
		logger.Info("mqtt publishing disabled, no broker configured")
		return p
	}
	p.enabled = true

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)

	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Callbacks keep internal state accurate across reconnects.
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

func (p *Publisher) Enabled() bool {
	return p.enabled
}

// Connect waits for the initial broker connection. With ConnectRetry set the
// paho client keeps retrying internally, so the wait loop watches ctx and
// Disconnect instead of blocking on the token.
func (p *Publisher) Connect(ctx context.Context) error {
	if !p.enabled {
		return nil
	}

	select {
	case <-p.stopCh:
		return fmt.Errorf("publisher stopped")
	default:
	}

	if p.IsConnected() {
		return nil
	}

	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			// OnConnectHandler sets connected=true.
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return fmt.Errorf("publisher stopped")
		default:
		}
	}
}

// PublishMeasurement sends one stored sample to <base>/climate/measurements.
func (p *Publisher) PublishMeasurement(m types.Measurement) error {
	return p.publish(p.topic("climate/measurements"), m, false)
}

// PublishFanState sends fan transitions to <base>/fan/state, retained so a
// late subscriber sees the current level immediately.
func (p *Publisher) PublishFanState(st fan.State) error {
	return p.publish(p.topic("fan/state"), st, true)
}

// PublishAlert sends operational alerts to <base>/alerts.
func (p *Publisher) PublishAlert(subject, detail string) error {
	return p.publish(p.topic("alerts"), Alert{Subject: subject, Detail: detail, Time: time.Now()}, false)
}

func (p *Publisher) publish(topic string, payload any, retained bool) error {
	if !p.enabled {
		return nil
	}
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", topic, err)
	}

	token := p.client.Publish(topic, 1, retained, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if token.Error() != nil {
		p.logger.Error("failed to publish", "topic", topic, "error", token.Error())
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}

	p.logger.Debug("published", "topic", topic, "bytes", len(data))
	return nil
}

func (p *Publisher) topic(leaf string) string {
	return p.cfg.MQTTBaseTopic + "/" + leaf
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect stops the publisher and closes the broker connection. Safe to
// call multiple times; afterwards Connect reports the publisher as stopped.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })

	if !p.enabled {
		return
	}
	if p.client != nil {
		// Paho quiesces in-flight work for the given ms; safe when already
		// disconnected.
		p.client.Disconnect(250)
	}

	p.setConnected(false)
	p.logger.Info("mqtt disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}
