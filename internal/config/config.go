package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Printer  PrinterConfig  `yaml:"printer"`
	Queue    QueueConfig    `yaml:"queue"`
	Intake   IntakeConfig   `yaml:"intake"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// PrinterConfig addresses the single thermal printer. Host may be empty, in
// which case jobs accumulate as pending until a printer is configured.
type PrinterConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SendTimeout    time.Duration `yaml:"send_timeout"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	StatusTimeout  time.Duration `yaml:"status_timeout"`
}

type QueueConfig struct {
	BatchSize    int           `yaml:"batch_size"`
	MaxAttempts  int           `yaml:"max_attempts"`
	JobDelay     time.Duration `yaml:"job_delay"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type IntakeConfig struct {
	AMQPURL    string `yaml:"amqp_url"`
	Queue      string `yaml:"queue"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	Prefetch   int    `yaml:"prefetch"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "./data/jollof.db",
		},
		Printer: PrinterConfig{
			Port:           9100,
			ConnectTimeout: 5 * time.Second,
			SendTimeout:    5 * time.Second,
			ProbeTimeout:   3 * time.Second,
			StatusTimeout:  3 * time.Second,
		},
		Queue: QueueConfig{
			BatchSize:    5,
			MaxAttempts:  3,
			JobDelay:     500 * time.Millisecond,
			PollInterval: 30 * time.Second,
		},
		Intake: IntakeConfig{
			Queue:      "orders_print",
			Exchange:   "orders_topic",
			RoutingKey: "orders.*.printable",
			Prefetch:   1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func Load(configPath string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("JOLLOF_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("JOLLOF_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("JOLLOF_PRINTER_HOST"); v != "" {
		cfg.Printer.Host = v
	}

	if v := os.Getenv("JOLLOF_PRINTER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Printer.Port = port
		}
	}

	if v := os.Getenv("JOLLOF_AMQP_URL"); v != "" {
		cfg.Intake.AMQPURL = v
	}

	if v := os.Getenv("JOLLOF_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Printer.Port < 1 || c.Printer.Port > 65535 {
		return fmt.Errorf("printer port must be between 1 and 65535, got %d", c.Printer.Port)
	}

	if c.Printer.ConnectTimeout < 0 || c.Printer.SendTimeout < 0 ||
		c.Printer.ProbeTimeout < 0 || c.Printer.StatusTimeout < 0 {
		return fmt.Errorf("printer timeouts must be non-negative")
	}

	if c.Queue.BatchSize < 1 {
		return fmt.Errorf("queue batch size must be at least 1")
	}

	if c.Queue.MaxAttempts < 1 {
		return fmt.Errorf("queue max attempts must be at least 1")
	}

	if c.Queue.JobDelay < 0 {
		return fmt.Errorf("queue job delay must be non-negative")
	}

	if c.Queue.PollInterval <= 0 {
		return fmt.Errorf("queue poll interval must be positive")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	return nil
}
