package mqtt

import (
	"fmt"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
)

const defaultTimeout = 5 * time.Second

// service is the MQTT sink: it publishes computed segment frames on the
// topics the LED animation engine subscribes to, plus retained discovery
// messages describing the segment layout.
type service struct {
	client  paho_mqtt.Client
	timeout time.Duration
}

func New(client paho_mqtt.Client, timeout time.Duration) *service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &service{
		client:  client,
		timeout: timeout,
	}
}

func (s *service) Connect() error {
	token := s.client.Connect()
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("mqtt broker did not answer within %s", s.timeout)
	}
	return token.Error()
}
