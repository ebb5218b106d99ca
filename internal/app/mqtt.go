package app

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// publisher is the part of MQTT the services need to send messages.
type publisher interface {
	Publish(topic string, retained bool, v any) error
}

type mqttPublisher struct {
	client mqtt.Client
}

func (p mqttPublisher) Publish(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	token := p.client.Publish(topic, 0, retained, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// connectMQTT connects to the broker. A short random suffix keeps two
// instances of the same service from kicking each other off the broker.
func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	id := clientID + "-" + uuid.NewString()[:8]
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(id).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	log.WithField("client_id", id).Infof("connected to MQTT broker at %s", broker)
	return client, nil
}

// subscribe registers handler for topic and waits for the broker ack.
func subscribe(client mqtt.Client, topic string, handler func(payload []byte)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	log.Debugf("subscribed to %s", topic)
	return nil
}
