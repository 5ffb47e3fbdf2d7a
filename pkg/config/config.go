package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Source SourceConfig `yaml:"source"`
	Report ReportConfig `yaml:"report"`
	Mail   MailConfig   `yaml:"mail"`
	Logger LoggerConfig `yaml:"logger"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

// SourceConfig upstream task-activity API configuration
type SourceConfig struct {
	Endpoint       string `yaml:"endpoint"`        // base URL of the task activity endpoint
	TimeoutSeconds int    `yaml:"timeout_seconds"` // request timeout (seconds), defaults to 10
}

// ReportConfig report pipeline configuration
type ReportConfig struct {
	DataFile       string `yaml:"data_file"`       // persisted record file (full replace per fetch)
	OutputDir      string `yaml:"output_dir"`      // directory for date-stamped CSV artifacts
	ScheduleFile   string `yaml:"schedule_file"`   // JSON blob {"hour": int, "minute": int}
	RecipientsFile string `yaml:"recipients_file"` // JSON array of email strings
}

// MailConfig outbound mail configuration.
// Username and password are read from SMTP_USERNAME / SMTP_PASSWORD at send
// time and are never part of the config file.
type MailConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"` // 465, implicit TLS
	From string `yaml:"from"` // defaults to SMTP_USERNAME when empty
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// Timeout returns the fetch timeout with the 10s default applied.
func (c SourceConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Init initializes configuration
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}

	applyDefaults(&cfg)
	GlobalConfig = &cfg
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Report.DataFile == "" {
		cfg.Report.DataFile = "data/task_data.json"
	}
	if cfg.Report.OutputDir == "" {
		cfg.Report.OutputDir = "reports"
	}
	if cfg.Report.ScheduleFile == "" {
		cfg.Report.ScheduleFile = "config/email_time.json"
	}
	if cfg.Report.RecipientsFile == "" {
		cfg.Report.RecipientsFile = "config/recipients.json"
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 465
	}
}
