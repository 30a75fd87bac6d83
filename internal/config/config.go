package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins       []string      `mapstructure:"cors_origins" yaml:"cors_origins"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	// Room canvas used for initial participant placement.
	CanvasWidth  float64 `mapstructure:"canvas_width" yaml:"canvas_width"`
	CanvasHeight float64 `mapstructure:"canvas_height" yaml:"canvas_height"`

	// Per-connection outbound event queue and inbound frame limit.
	ClientBuffer    int   `mapstructure:"client_buffer" yaml:"client_buffer"`
	MaxMessageBytes int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	// Inbound commands allowed per connection per minute; 0 disables the limit.
	CommandsPerMinute int `mapstructure:"commands_per_minute" yaml:"commands_per_minute"`

	PersistWorkers      int           `mapstructure:"persist_workers" yaml:"persist_workers"`
	PersistQueueSize    int           `mapstructure:"persist_queue_size" yaml:"persist_queue_size"`
	PersistWriteTimeout time.Duration `mapstructure:"persist_write_timeout" yaml:"persist_write_timeout"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	// LiveKit is optional; media tokens are refused while any of these is empty.
	LiveKitURL       string `mapstructure:"livekit_url" yaml:"livekit_url"`
	LiveKitAPIKey    string `mapstructure:"livekit_api_key" yaml:"livekit_api_key"`
	LiveKitAPISecret string `mapstructure:"livekit_api_secret" yaml:"livekit_api_secret"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:                ":7860",
		ReadHeaderTimeout:   5 * time.Second,
		ShutdownTimeout:     10 * time.Second,
		CORSOrigins:         []string{"*"},
		LogLevel:            "info",
		LogFormat:           "console",
		DatabasePath:        "voicespaces.db",
		CanvasWidth:         800,
		CanvasHeight:        600,
		ClientBuffer:        64,
		MaxMessageBytes:     64 << 10,
		CommandsPerMinute:   6000,
		PersistWorkers:      4,
		PersistQueueSize:    1024,
		PersistWriteTimeout: 5 * time.Second,
		JWTSecret:           "change-me",
		JWTIssuer:           "voicespaces",
		JWTAudience:         "voicespaces-clients",
		JWTTTL:              24 * time.Hour,
	}
}

// LiveKitEnabled reports whether media tokens can be issued.
func (c Config) LiveKitEnabled() bool {
	return c.LiveKitURL != "" && c.LiveKitAPIKey != "" && c.LiveKitAPISecret != ""
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if len(other.CORSOrigins) > 0 {
		c.CORSOrigins = other.CORSOrigins
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.CanvasWidth != 0 {
		c.CanvasWidth = other.CanvasWidth
	}
	if other.CanvasHeight != 0 {
		c.CanvasHeight = other.CanvasHeight
	}
	if other.ClientBuffer != 0 {
		c.ClientBuffer = other.ClientBuffer
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.CommandsPerMinute != 0 {
		c.CommandsPerMinute = other.CommandsPerMinute
	}
	if other.PersistWorkers != 0 {
		c.PersistWorkers = other.PersistWorkers
	}
	if other.PersistQueueSize != 0 {
		c.PersistQueueSize = other.PersistQueueSize
	}
	if other.PersistWriteTimeout != 0 {
		c.PersistWriteTimeout = other.PersistWriteTimeout
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
	if other.JWTTTL != 0 {
		c.JWTTTL = other.JWTTTL
	}
	if other.LiveKitURL != "" {
		c.LiveKitURL = other.LiveKitURL
	}
	if other.LiveKitAPIKey != "" {
		c.LiveKitAPIKey = other.LiveKitAPIKey
	}
	if other.LiveKitAPISecret != "" {
		c.LiveKitAPISecret = other.LiveKitAPISecret
	}
}
