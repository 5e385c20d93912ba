package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Backup    BackupConfig    `mapstructure:"backup"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Floorplan FloorplanConfig `mapstructure:"floorplan"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Security  SecurityConfig  `mapstructure:"security"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
	Mode string `mapstructure:"mode"`
	// RequestTimeout bounds every handler store call, in seconds
	RequestTimeout int `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MigrationsPath string `mapstructure:"migrations_path"`
	MaxConnections int    `mapstructure:"max_connections"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

// AuthConfig guards mutating routes with HMAC signed bearer tokens
type AuthConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	TokenExpiry int    `mapstructure:"token_expiry"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type WebSocketConfig struct {
	PingInterval int `mapstructure:"ping_interval"`
	PongTimeout  int `mapstructure:"pong_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	// MaxSubscriptions per client connection
	MaxSubscriptions int `mapstructure:"max_subscriptions"`
	SendBufferSize   int `mapstructure:"send_buffer_size"`
}

// MQTTConfig controls the optional change event publisher
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         int    `mapstructure:"qos"`
}

// BackupConfig controls scheduled snapshot exports
type BackupConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Schedule  string `mapstructure:"schedule"`
	Retention int    `mapstructure:"retention"`
	// MaxImportBytes caps an imported archive, compressed and decoded
	MaxImportBytes int64 `mapstructure:"max_import_bytes"`
}

// DiscoveryConfig controls mDNS advertisement of the API
type DiscoveryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Instance string `mapstructure:"instance"`
	Service  string `mapstructure:"service"`
	Domain   string `mapstructure:"domain"`
}

type FloorplanConfig struct {
	MaxBackgroundBytes int64 `mapstructure:"max_background_bytes"`
	PreviewWidth       int   `mapstructure:"preview_width"`
	PreviewHeight      int   `mapstructure:"preview_height"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type SecurityConfig struct {
	EnableCORS     bool     `mapstructure:"enable_cors"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Address returns the listen address of the HTTP server
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads the configuration from file, or from the default search
// paths when file is empty
func LoadFrom(file string) (*Config, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Override specific values from env
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.path", "DATABASE_PATH")
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.enabled", "PLANNER_AUTH_ENABLED")
	v.BindEnv("mqtt.enabled", "MQTT_ENABLED")
	v.BindEnv("mqtt.broker", "MQTT_BROKER")
	v.BindEnv("mqtt.username", "MQTT_USERNAME")
	v.BindEnv("mqtt.password", "MQTT_PASSWORD")
	v.BindEnv("backup.path", "PLANNER_BACKUP_PATH")
	v.BindEnv("security.allowed_origins", "PLANNER_ALLOWED_ORIGINS")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// Validate collects every configuration problem into a single error
func (c *Config) Validate() error {
	var errors []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errors = append(errors, "server.port must be between 1 and 65535")
	}
	if c.Server.RequestTimeout <= 0 {
		errors = append(errors, "server.request_timeout must be greater than 0")
	}

	if c.Database.Path == "" {
		errors = append(errors, "database.path is required")
	}
	if c.Database.AutoMigrate && c.Database.MigrationsPath == "" {
		errors = append(errors, "database.migrations_path is required when auto_migrate is set")
	}

	if c.Auth.Enabled && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "your-secret-key-here") {
		errors = append(errors, "auth.jwt_secret must be set to a secure value when enabled")
	}
	if c.Auth.Enabled && c.Auth.TokenExpiry <= 0 {
		errors = append(errors, "auth.token_expiry must be greater than 0 when enabled")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		errors = append(errors, fmt.Sprintf("logging.level %q is not a valid level", c.Logging.Level))
	}

	if c.WebSocket.MaxSubscriptions <= 0 {
		errors = append(errors, "websocket.max_subscriptions must be greater than 0")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			errors = append(errors, "mqtt.broker is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errors = append(errors, "mqtt.qos must be 0, 1 or 2")
		}
	}

	if c.Backup.Enabled {
		if c.Backup.Path == "" {
			errors = append(errors, "backup.path is required when backups are enabled")
		}
		if c.Backup.Schedule == "" {
			errors = append(errors, "backup.schedule is required when backups are enabled")
		}
		if c.Backup.Retention <= 0 {
			errors = append(errors, "backup.retention must be greater than 0")
		}
	}

	if c.Backup.MaxImportBytes <= 0 {
		errors = append(errors, "backup.max_import_bytes must be greater than 0")
	}

	if c.Discovery.Enabled && c.Discovery.Service == "" {
		errors = append(errors, "discovery.service is required when discovery is enabled")
	}

	if c.Floorplan.MaxBackgroundBytes <= 0 {
		errors = append(errors, "floorplan.max_background_bytes must be greater than 0")
	}
	if c.Floorplan.PreviewWidth <= 0 || c.Floorplan.PreviewHeight <= 0 {
		errors = append(errors, "floorplan preview size must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.request_timeout", 10)

	// Database defaults
	v.SetDefault("database.path", "./data/planner.db")
	v.SetDefault("database.migrations_path", "./migrations")
	v.SetDefault("database.max_connections", 1)
	v.SetDefault("database.auto_migrate", true)

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token_expiry", 3600)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// WebSocket defaults
	v.SetDefault("websocket.ping_interval", 30)
	v.SetDefault("websocket.pong_timeout", 60)
	v.SetDefault("websocket.write_timeout", 10)
	v.SetDefault("websocket.max_subscriptions", 32)
	v.SetDefault("websocket.send_buffer_size", 256)

	// MQTT defaults
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.client_id", "home-planner")
	v.SetDefault("mqtt.topic_prefix", "home_planner")
	v.SetDefault("mqtt.qos", 0)

	// Backup defaults
	v.SetDefault("backup.enabled", true)
	v.SetDefault("backup.path", "./data/backups")
	v.SetDefault("backup.schedule", "0 3 * * *")
	v.SetDefault("backup.retention", 7)
	v.SetDefault("backup.max_import_bytes", 32<<20)

	// Discovery defaults
	v.SetDefault("discovery.enabled", false)
	v.SetDefault("discovery.instance", "Home Planner")
	v.SetDefault("discovery.service", "_homeplanner._tcp")
	v.SetDefault("discovery.domain", "local.")

	// Floor plan defaults
	v.SetDefault("floorplan.max_background_bytes", 10*1024*1024)
	v.SetDefault("floorplan.preview_width", 320)
	v.SetDefault("floorplan.preview_height", 240)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Security defaults
	v.SetDefault("security.enable_cors", true)
	v.SetDefault("security.allowed_origins", []string{"*"})
}
