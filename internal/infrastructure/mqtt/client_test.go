package mqtt

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/beolink-bridge/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "beobridge-test",
			TLS:      false,
		},
		QoS:         1,
		TopicPrefix: "beobridge",
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// disconnectedClient builds a client without a broker connection so
// validation paths can be exercised offline.
func disconnectedClient() *Client {
	cfg := testConfig()
	return &Client{
		cfg:           cfg,
		topics:        Topics{Prefix: cfg.TopicPrefix},
		subscriptions: make(map[string]subscription),
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	client := disconnectedClient()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() expected error for cancelled context")
	}
}

func TestPublishValidation(t *testing.T) {
	client := disconnectedClient()

	tests := []struct {
		name    string
		topic   string
		qos     byte
		payload []byte
		wantErr error
	}{
		{
			name:    "empty topic",
			topic:   "",
			qos:     1,
			wantErr: ErrInvalidTopic,
		},
		{
			name:    "invalid qos",
			topic:   "beobridge/status",
			qos:     3,
			wantErr: ErrInvalidQoS,
		},
		{
			name:    "oversized payload",
			topic:   "beobridge/status",
			qos:     1,
			payload: make([]byte, maxPayloadSize+1),
			wantErr: ErrPublishFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := disconnectedClient()

	if err := client.Subscribe("", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty topic) error = %v, want ErrInvalidTopic", err)
	}

	if err := client.Subscribe("beobridge/command/#", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
}

func TestSubscriptionTracking(t *testing.T) {
	client := disconnectedClient()

	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
	if client.HasSubscription("beobridge/command/#") {
		t.Error("HasSubscription() = true for untracked topic")
	}
}

func TestTopics(t *testing.T) {
	tests := []struct {
		name     string
		build    func() string
		expected string
	}{
		{
			name:     "Status",
			build:    func() string { return Topics{Prefix: "beobridge"}.Status() },
			expected: "beobridge/status",
		},
		{
			name: "ResourceState",
			build: func() string {
				return Topics{Prefix: "beobridge"}.ResourceState("Living%20Room", "DIMMER", "Ceiling")
			},
			expected: "beobridge/state/Living%20Room/DIMMER/Ceiling",
		},
		{
			name:     "Firmware",
			build:    func() string { return Topics{Prefix: "beobridge"}.Firmware() },
			expected: "beobridge/system/firmware",
		},
		{
			name:     "AllResourceStates",
			build:    func() string { return Topics{Prefix: "beobridge"}.AllResourceStates() },
			expected: "beobridge/state/#",
		},
		{
			name:     "AllCommands",
			build:    func() string { return Topics{Prefix: "beobridge"}.AllCommands() },
			expected: "beobridge/command/#",
		},
		{
			name:     "empty prefix falls back to default",
			build:    func() string { return Topics{}.Status() },
			expected: "beobridge/status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.build(); got != tt.expected {
				t.Errorf("topic = %q, want %q", got, tt.expected)
			}
		})
	}
}
