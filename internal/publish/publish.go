// Package publish sends decoded output documents and alert notifications
// to an MQTT broker. A pure decoder has no actuation surface, so there is
// no command-subscription path: publishing is per-message, one publish
// call per decoded frame as it arrives.
package publish

import (
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Config holds the MQTT connection and topic settings.
type Config struct {
	Broker     string
	ClientID   string
	DataTopic  string
	AlertTopic string
}

const (
	DefaultBroker     = "tcp://localhost:1883"
	DefaultClientID   = "j1939-agent"
	DefaultDataTopic  = "j1939/data"
	DefaultAlertTopic = "j1939/alerts"
)

// Client publishes decoded documents to an MQTT broker.
type Client struct {
	config Config
	client mqtt.Client
}

// NewClient returns a disconnected Client for config.
func NewClient(config Config) *Client {
	return &Client{config: config}
}

// Connect opens the MQTT connection, auto-reconnecting on loss.
func (c *Client) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Println("publish: connected to MQTT broker")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("publish: MQTT connection lost: %v", err)
	})

	c.client = mqtt.NewClient(opts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Disconnect closes the MQTT connection.
func (c *Client) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}

// PublishDocument publishes one decoded output document (anything whose
// JSON encoding is meaningful, typically a *describe.Output) to the data
// topic.
func (c *Client) PublishDocument(doc json.Marshaler) {
	data, err := doc.MarshalJSON()
	if err != nil {
		log.Printf("publish: marshal document: %v", err)
		return
	}
	c.publish(c.config.DataTopic, data)
}

// Alert describes one OutOfRange (or similarly noteworthy) condition.
type Alert struct {
	SPN   int    `json:"spn"`
	Name  string `json:"name"`
	SA    uint8  `json:"sa"`
	Value string `json:"value"`
}

// PublishAlert publishes one Alert to the alert topic.
func (c *Client) PublishAlert(alert Alert) {
	data, err := json.Marshal(alert)
	if err != nil {
		log.Printf("publish: marshal alert: %v", err)
		return
	}
	c.publish(c.config.AlertTopic, data)
}

func (c *Client) publish(topic string, data []byte) {
	if c.client == nil || !c.client.IsConnected() {
		log.Println("publish: MQTT client not connected, dropping message")
		return
	}
	token := c.client.Publish(topic, 0, false, data)
	if token.Wait() && token.Error() != nil {
		log.Printf("publish: publish to %s failed: %v", topic, token.Error())
	}
}
