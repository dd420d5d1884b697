package service

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTEmitter publishes service events to an MQTT broker.  The rest
// of the platform (case-working tools, notifications) subscribes to
// the topic; this service only ever publishes.
type MQTTEmitter struct {
	Topic string
	QoS   byte

	client mqtt.Client
}

// NewMQTTEmitter connects to the broker.
func NewMQTTEmitter(broker, clientID, topic string) (*MQTTEmitter, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	return &MQTTEmitter{
		Topic:  topic,
		client: client,
	}, nil
}

// Emit publishes one event.  Failures are logged, not returned: event
// delivery must never fail a save.
func (e *MQTTEmitter) Emit(kind string, event interface{}) {
	msg := map[string]interface{}{
		"kind":  kind,
		"event": event,
		"at":    time.Now().UTC().Format(time.RFC3339Nano),
	}
	js, err := json.Marshal(&msg)
	if err != nil {
		log.Printf("service.MQTTEmitter marshal error %v", err)
		return
	}
	if token := e.client.Publish(e.Topic, e.QoS, false, js); token.Wait() && token.Error() != nil {
		log.Printf("service.MQTTEmitter publish error %v", token.Error())
	}
}

// Close disconnects from the broker.
func (e *MQTTEmitter) Close() {
	e.client.Disconnect(250)
}
