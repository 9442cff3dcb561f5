package mqtt

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/Christian-SuMePa/hausserver/internal/config"
	"github.com/Christian-SuMePa/hausserver/internal/fan"
	"github.com/Christian-SuMePa/hausserver/internal/modules/climate/types"
)

func disabledPublisher(t *testing.T) *Publisher {
	t.Helper()
	cfg := config.Config{MQTTBaseTopic: "hausserver"}
	return NewPublisher(cfg, slog.Default())
}

func TestDisabledPublisherIsNoOp(t *testing.T) {
	p := disabledPublisher(t)

	if p.Enabled() {
		t.Error("Enabled() = true without a broker")
	}
	if p.IsConnected() {
		t.Error("IsConnected() = true without a broker")
	}
	if err := p.Connect(context.Background()); err != nil {
		t.Errorf("Connect() error = %v, want nil for disabled publisher", err)
	}

	m := types.Measurement{
		Timestamp:    time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		TemperatureC: 21.5,
		HumidityPct:  55,
		DewPointC:    12.1,
	}
	if err := p.PublishMeasurement(m); err != nil {
		t.Errorf("PublishMeasurement() error = %v, want nil", err)
	}
	if err := p.PublishFanState(fan.State{On: true}); err != nil {
		t.Errorf("PublishFanState() error = %v, want nil", err)
	}
	if err := p.PublishAlert("sensor failing", "4 consecutive read failures"); err != nil {
		t.Errorf("PublishAlert() error = %v, want nil", err)
	}

	// Disconnect on a disabled publisher must not panic and stays idempotent.
	p.Disconnect()
	p.Disconnect()
}

func TestTopicLayout(t *testing.T) {
	p := disabledPublisher(t)

	tests := []struct {
		leaf string
		want string
	}{
		{"climate/measurements", "hausserver/climate/measurements"},
		{"fan/state", "hausserver/fan/state"},
		{"alerts", "hausserver/alerts"},
	}
	for _, tt := range tests {
		if got := p.topic(tt.leaf); got != tt.want {
			t.Errorf("topic(%q) = %q, want %q", tt.leaf, got, tt.want)
		}
	}
}

func TestEnabledPublisherRequiresConnection(t *testing.T) {
	cfg := config.Config{
		MQTTBroker:    "localhost",
		MQTTPort:      1883,
		MQTTClientID:  "hausserver-test",
		MQTTBaseTopic: "hausserver",
	}
	p := NewPublisher(cfg, slog.Default())
	if !p.Enabled() {
		t.Fatal("Enabled() = false with a broker configured")
	}

	// Never connected: publishing must fail instead of blocking.
	if err := p.PublishAlert("x", "y"); err == nil {
		t.Error("PublishAlert() on unconnected publisher returned nil error")
	}
	p.Disconnect()
}
