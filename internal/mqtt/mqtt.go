// Package mqtt publishes store change events to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frostdev-ops/home-planner-go/internal/config"
	"github.com/frostdev-ops/home-planner-go/internal/publisher"
	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gosimple/slug"
)

const publishTimeout = 5 * time.Second

type service struct {
	client paho_mqtt.Client
	prefix string
	qos    byte
}

// New wraps an MQTT client. Topics are <prefix>/<collection>/<action>.
func New(client paho_mqtt.Client, prefix string, qos byte) *service {
	return &service{
		client: client,
		prefix: segment(prefix),
		qos:    qos,
	}
}

// NewClient builds a paho client from configuration
func NewClient(cfg config.MQTTConfig) paho_mqtt.Client {
	opts := paho_mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(5 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	return paho_mqtt.NewClient(opts)
}

func (s *service) Connect() error {
	token := s.client.Connect()
	res := token.WaitTimeout(time.Second * 5)
	if res {
		return token.Error()
	}
	if err := token.Error(); err != nil {
		return err
	}
	return errors.New("unable to connect in time")
}

// Disconnect waits up to 250ms for in-flight messages
func (s *service) Disconnect() {
	s.client.Disconnect(250)
}

// Topic returns the topic a change event is published on
func (s *service) Topic(event publisher.ChangeEvent) string {
	return fmt.Sprintf("%s/%s/%s", s.prefix, segment(event.Collection), segment(string(event.Action)))
}

// Publish implements publisher.Publisher
func (s *service) Publish(ctx context.Context, event publisher.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	token := s.client.Publish(s.Topic(event), s.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return errors.New("mqtt publish timed out")
	}
	return token.Error()
}

func segment(s string) string {
	return strings.Replace(slug.Make(s), "-", "_", -1)
}
