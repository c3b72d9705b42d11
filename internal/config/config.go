package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"omnivore_sync/internal/domain"
	"omnivore_sync/internal/render"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Source    SourceConfig    `yaml:"source"`
	NoteStore NoteStoreConfig `yaml:"notestore"`
	Sync      SyncConfig      `yaml:"sync"`
	LogLevel  string          `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type SourceConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIToken string        `yaml:"api_token"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
	Retry    RetryConfig   `yaml:"retry"`
}

type NoteStoreConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIToken string        `yaml:"api_token"`
	Timeout  time.Duration `yaml:"timeout"`
	PageSize int           `yaml:"page_size"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type SyncConfig struct {
	Interval          time.Duration      `yaml:"interval"`
	Scope             domain.Scope       `yaml:"scope"`
	FolderName        string             `yaml:"folder_name"`
	ArticleLabels     []string           `yaml:"article_labels"`
	HighlightLabels   []string           `yaml:"highlight_labels"`
	GroupBy           domain.GroupPolicy `yaml:"group_by"`
	HighlightTemplate string             `yaml:"highlight_template"`
	Timezone          string             `yaml:"timezone"`
	LookbackDays      int                `yaml:"lookback_days"`
	TitlePrefix       string             `yaml:"title_prefix"`
	RetentionDays     int                `yaml:"retention_days"`
}

// Location resolves the configured timezone name.
func (s SyncConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "omnivore_sync"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "notes"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "note_events"
	}
	if c.Source.PageSize == 0 {
		c.Source.PageSize = 100
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 30 * time.Second
	}
	if c.Source.Retry.MaxAttempts == 0 {
		c.Source.Retry.MaxAttempts = 3
	}
	if c.Source.Retry.InitialBackoff == 0 {
		c.Source.Retry.InitialBackoff = 1 * time.Second
	}
	if c.Source.Retry.MaxBackoff == 0 {
		c.Source.Retry.MaxBackoff = 30 * time.Second
	}
	if c.NoteStore.Timeout == 0 {
		c.NoteStore.Timeout = 30 * time.Second
	}
	if c.NoteStore.PageSize == 0 {
		c.NoteStore.PageSize = 100
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 30 * time.Minute
	}
	if c.Sync.Scope == "" {
		c.Sync.Scope = domain.ScopeAll
	}
	if c.Sync.FolderName == "" {
		c.Sync.FolderName = "Omnivore"
	}
	if c.Sync.GroupBy == "" {
		c.Sync.GroupBy = domain.GroupByDate
	}
	if c.Sync.HighlightTemplate == "" {
		c.Sync.HighlightTemplate = "default"
	}
	if c.Sync.Timezone == "" {
		c.Sync.Timezone = "UTC"
	}
	if c.Sync.LookbackDays == 0 {
		c.Sync.LookbackDays = 7
	}
	if c.Sync.TitlePrefix == "" {
		c.Sync.TitlePrefix = "Omnivore Highlights"
	}
	if c.Sync.RetentionDays == 0 {
		c.Sync.RetentionDays = 3
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	switch c.Sync.Scope {
	case domain.ScopeAll, domain.ScopeArticlesOnly, domain.ScopeHighlightsOnly:
	default:
		return fmt.Errorf("invalid sync scope %q", c.Sync.Scope)
	}
	switch c.Sync.GroupBy {
	case domain.GroupByDate, domain.GroupByArticle:
	default:
		return fmt.Errorf("invalid group policy %q", c.Sync.GroupBy)
	}
	if _, err := c.Sync.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Sync.Timezone, err)
	}
	names := render.HighlightTemplateNames()
	if !slices.Contains(names, c.Sync.HighlightTemplate) {
		return fmt.Errorf("unknown highlight template %q (available: %s)",
			c.Sync.HighlightTemplate, strings.Join(names, ", "))
	}
	return nil
}
