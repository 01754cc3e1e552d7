package config

import (
	"fmt"
	"strings"
	"time"
)

// Supported database URL schemes. The scheme selects the product store implementation.
const (
	SchemeMongo       = "mongodb://"
	SchemeMongoSRV    = "mongodb+srv://"
	SchemePostgres    = "postgres://"
	SchemePostgresql  = "postgresql://"
	SchemeMemory      = "memory://"
	defaultDatabase   = "catalog"
	defaultCollection = "products"
)

type DatabaseConfig struct {
	URL        string        `koanf:"url"`
	Name       string        `koanf:"name"`
	Collection string        `koanf:"collection"`
	Timeout    time.Duration `koanf:"timeout"`
}

// String returns a string representation of the database configuration with credentials masked.
func (c *DatabaseConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Database ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", MaskURL(c.URL)))
	b.WriteString(fmt.Sprintf("  name: %s\n", c.Name))
	b.WriteString(fmt.Sprintf("  collection: %s\n", c.Collection))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *DatabaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("database URL is not configured")
	}
	if !isSupportedURL(c.URL) {
		return fmt.Errorf("database URL must start with one of mongodb://, mongodb+srv://, postgres://, postgresql://, memory://: %s", MaskURL(c.URL))
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("database connect timeout is not configured")
	}
	if c.Name == "" {
		c.Name = defaultDatabase
	}
	if c.Collection == "" {
		c.Collection = defaultCollection
	}
	return nil
}

// IsMongo reports whether the URL points to a MongoDB deployment.
func (c *DatabaseConfig) IsMongo() bool {
	return strings.HasPrefix(c.URL, SchemeMongo) || strings.HasPrefix(c.URL, SchemeMongoSRV)
}

// IsPostgres reports whether the URL points to a PostgreSQL database.
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, SchemePostgres) || strings.HasPrefix(c.URL, SchemePostgresql)
}

// IsMemory reports whether the in-process store was requested.
func (c *DatabaseConfig) IsMemory() bool {
	return strings.HasPrefix(c.URL, SchemeMemory)
}

func isSupportedURL(url string) bool {
	for _, scheme := range []string{SchemeMongo, SchemeMongoSRV, SchemePostgres, SchemePostgresql, SchemeMemory} {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	return false
}

// MaskURL hides the credentials part of a connection string.
func MaskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	// Mask the URL by replacing the username and password with "****"
	parts := strings.Split(url, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return url
}
