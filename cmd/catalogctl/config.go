package main

import (
	"strings"

	"github.com/abgdnv/gocatalog/pkg/config"
	"github.com/abgdnv/gocatalog/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	Client     config.ClientConfig     `koanf:"client"`
	Log        config.LogConfig        `koanf:"log"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Subscriber config.SubscriberConfig `koanf:"subscriber"`
}

func defaults() map[string]any {
	return map[string]any{
		"client.baseurl":                            "http://localhost:8080",
		"client.timeout":                            "5s",
		"client.circuitbreaker.consecutivefailures": 5,
		"client.circuitbreaker.errorratepercent":    60,
		"client.circuitbreaker.maxhalfopenrequests": 1,
		"client.circuitbreaker.opentimeout":         "10s",
		"log.level":                                 "warn",
		"nats.enabled":                              false,
		"nats.stream":                               "PRODUCTS",
		"nats.timeout":                              "5s",
		"subscriber.stream":                         "PRODUCTS",
		"subscriber.subject":                        "products.>",
		"subscriber.batch":                          10,
		"subscriber.timeout":                        "2s",
		"subscriber.interval":                       "1s",
		"subscriber.workers":                        1,
	}
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.Client.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.Subscriber.String())
	return b.String()
}

func (c *Config) Validate() error {
	if err := c.Client.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.NATS.Validate(); err != nil {
		return err
	}
	return c.Subscriber.Validate()
}
