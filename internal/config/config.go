// Package config loads an optional YAML configuration file for
// cmd/j1939-agent, providing defaults that command-line flags then
// override.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Agent is the agent binary's full configuration surface.
type Agent struct {
	Source struct {
		Kind      string `yaml:"kind"` // "serial" or "socketcan"
		Port      string `yaml:"port"`
		Baud      int    `yaml:"baud"`
		Interface string `yaml:"interface"`
	} `yaml:"source"`

	DADictionaryPath string `yaml:"da_dictionary_path"`

	Describe struct {
		RealTime                bool `yaml:"real_time"`
		IncludeNA               bool `yaml:"include_na"`
		DescribeLinkLayer       bool `yaml:"describe_link_layer"`
		DescribeTransportLayer  bool `yaml:"describe_transport_layer"`
		IncludeTransportRawdata bool `yaml:"include_transport_rawdata"`
	} `yaml:"describe"`

	MQTT struct {
		Broker     string `yaml:"broker"`
		ClientID   string `yaml:"client_id"`
		DataTopic  string `yaml:"data_topic"`
		AlertTopic string `yaml:"alert_topic"`
	} `yaml:"mqtt"`

	AlertStorePath string `yaml:"alert_store_path"`
}

// Load reads and parses a YAML config file at path. A missing file is
// not an error: callers fall back to flag defaults.
func Load(path string) (*Agent, error) {
	var cfg Agent
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}
