// Package config loads promptdb configuration from file, environment, and
// command-line flags.
package config

// Defaults applied before any other configuration source.
const (
	DefaultProvider = "openai"
	DefaultFormat   = "table"
	DefaultListen   = ":8080"
)

// Config holds the resolved configuration for a promptdb invocation.
type Config struct {
	// DSN is the PostgreSQL connection string, passed to the driver
	// opaquely. ${VAR} references are expanded from the environment.
	DSN string `koanf:"dsn"`

	// Provider selects the plan generator: "openai" or "anthropic".
	Provider string `koanf:"provider"`

	// Model overrides the provider's default model.
	Model string `koanf:"model"`

	// Format is the output format: table, json, csv, or md.
	Format string `koanf:"format"`

	// Listen is the address for serve mode.
	Listen string `koanf:"listen"`

	Verbose bool `koanf:"verbose"`

	// ConfigFileUsed records which config file was loaded, if any.
	ConfigFileUsed string `koanf:"-"`
}
