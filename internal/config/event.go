package config

// EventsConfig controls publication of subscription lifecycle and renewal events
type EventsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Topic   string `mapstructure:"topic" validate:"required_if=Enabled true" default:"subscription_events"`
}
