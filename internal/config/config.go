package config

import (
	"errors"
	"fmt"
	"os"

	"tably/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Timeline   TimelineConfig   `yaml:"timeline"`
	Sectors    []models.Sector  `yaml:"sectors"`
	Tables     []models.Table   `yaml:"tables"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Exports    ExportConfig     `yaml:"exports"`
	Telegram   TelegramConfig   `yaml:"telegram"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// TimelineConfig seeds the in-memory store; the active window stays
// adjustable at runtime through the store's SetConfig.
type TimelineConfig struct {
	Date               string `yaml:"date"` // empty means today
	StartHour          int    `yaml:"start_hour"`
	EndHour            int    `yaml:"end_hour"`
	SlotMinutes        int    `yaml:"slot_minutes"`
	ViewMode           string `yaml:"view_mode"`
	MinDurationMinutes int    `yaml:"min_duration_minutes"`
	HistoryLimit       int    `yaml:"history_limit"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	PoolSize   int    `yaml:"pool_size"`
	SessionTTL int    `yaml:"session_ttl"` // seconds
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// TelegramConfig wires the manager notifier; disabled when the token is
// empty.
type TelegramConfig struct {
	BotToken     string  `yaml:"bot_token"`
	ManagerChats []int64 `yaml:"manager_chats"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; environment variables referenced from the YAML may
	// come from the real environment instead.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Timeline.StartHour < 0 || c.Timeline.StartHour > 23 {
		return fmt.Errorf("timeline start_hour %d out of range", c.Timeline.StartHour)
	}
	if c.Timeline.EndHour <= c.Timeline.StartHour || c.Timeline.EndHour > 24 {
		return fmt.Errorf("timeline end_hour %d must lie after start_hour and within the day", c.Timeline.EndHour)
	}
	if c.Timeline.SlotMinutes <= 0 || c.Timeline.SlotMinutes > 60 {
		return fmt.Errorf("timeline slot_minutes %d out of range", c.Timeline.SlotMinutes)
	}

	if err := ValidateSectors(c.Sectors); err != nil {
		return err
	}
	return ValidateTables(c.Tables, c.Sectors)
}

func ValidateSectors(sectors []models.Sector) error {
	seen := make(map[string]bool, len(sectors))
	for _, sector := range sectors {
		if sector.ID == "" {
			return fmt.Errorf("sector %q has an empty id", sector.Name)
		}
		if seen[sector.ID] {
			return fmt.Errorf("duplicate sector id: %s", sector.ID)
		}
		seen[sector.ID] = true
	}
	return nil
}

func ValidateTables(tables []models.Table, sectors []models.Sector) error {
	sectorIDs := make(map[string]bool, len(sectors))
	for _, sector := range sectors {
		sectorIDs[sector.ID] = true
	}

	seen := make(map[string]bool, len(tables))
	for _, table := range tables {
		if table.ID == "" {
			return fmt.Errorf("table %q has an empty id", table.Name)
		}
		if seen[table.ID] {
			return fmt.Errorf("duplicate table id: %s", table.ID)
		}
		seen[table.ID] = true

		if !sectorIDs[table.SectorID] {
			return fmt.Errorf("table %s references unknown sector %s", table.ID, table.SectorID)
		}
		if table.MinCapacity < 1 || table.MaxCapacity < table.MinCapacity {
			return fmt.Errorf("table %s has invalid capacity range %d-%d", table.ID, table.MinCapacity, table.MaxCapacity)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Timeline.StartHour == 0 && c.Timeline.EndHour == 0 {
		c.Timeline.StartHour = models.DefaultStartHour
		c.Timeline.EndHour = models.DefaultEndHour
	}
	if c.Timeline.SlotMinutes == 0 {
		c.Timeline.SlotMinutes = models.DefaultSlotMinutes
	}
	if c.Timeline.ViewMode == "" {
		c.Timeline.ViewMode = models.ViewModeDay
	}
	if c.Timeline.MinDurationMinutes == 0 {
		c.Timeline.MinDurationMinutes = 30
	}
	if c.Timeline.HistoryLimit == 0 {
		c.Timeline.HistoryLimit = models.DefaultHistoryLimit
	}

	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.Enabled && !c.API.Auth.Enabled {
		// auth enabled by default when API is enabled
		c.API.Auth.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = models.RateLimitBurst
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Redis.SessionTTL == 0 {
		c.Redis.SessionTTL = models.DefaultSessionTTL
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
