package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Load merges Default() + optional YAML file at path + GATEWAY_* env overrides,
// then validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		if err := loadFromFile(path, config); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile overlays the YAML document at path onto config. Unknown keys
// are rejected.
func loadFromFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// clientsEnv carries the per-service endpoint variables.
type clientsEnv struct {
	Auth     string `env:"GATEWAY_CLIENTS_AUTH_ENDPOINT"`
	Users    string `env:"GATEWAY_CLIENTS_USERS_ENDPOINT"`
	Contacts string `env:"GATEWAY_CLIENTS_CONTACTS_ENDPOINT"`
	Sources  string `env:"GATEWAY_CLIENTS_SOURCES_ENDPOINT"`
	Messages string `env:"GATEWAY_CLIENTS_MESSAGES_ENDPOINT"`
	Topics   string `env:"GATEWAY_CLIENTS_TOPICS_ENDPOINT"`
}

func (e clientsEnv) apply(clients *ClientsConfig) {
	overrides := []struct {
		value  string
		target *string
	}{
		{e.Auth, &clients.Auth.Endpoint},
		{e.Users, &clients.Users.Endpoint},
		{e.Contacts, &clients.Contacts.Endpoint},
		{e.Sources, &clients.Sources.Endpoint},
		{e.Messages, &clients.Messages.Endpoint},
		{e.Topics, &clients.Topics.Endpoint},
	}
	for _, o := range overrides {
		if o.value != "" {
			*o.target = o.value
		}
	}
}

// applyEnvOverrides applies GATEWAY_* environment variables to config.
// Variables that are unset leave the current value untouched.
func applyEnvOverrides(config *Config) error {
	if err := decodeEnv(config); err != nil {
		return err
	}

	var clients clientsEnv
	if err := decodeEnv(&clients); err != nil {
		return err
	}
	clients.apply(&config.Clients)

	return nil
}

func decodeEnv(target interface{}) error {
	err := envdecode.Decode(target)
	if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil
	}
	return err
}
