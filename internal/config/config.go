package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"dronepartpicker/scraper/internal/vendors"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Scraper   ScraperConfig             `mapstructure:"scraper"`
	Scheduler SchedulerConfig           `mapstructure:"scheduler"`
	Database  DatabaseConfig            `mapstructure:"database"`
	Redis     RedisConfig               `mapstructure:"redis"`
	Vendors   map[string]vendors.Config `mapstructure:"vendors"` // overrides for the built-in vendor set
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// ScraperConfig holds crawl/fetch configuration shared by all vendors
type ScraperConfig struct {
	Timeout              int      `mapstructure:"timeout"`
	MaxRetries           int      `mapstructure:"max_retries"`
	MaxWorkers           int      `mapstructure:"max_workers"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	UserAgent            string   `mapstructure:"user_agent"`
	Proxies              []string `mapstructure:"proxies"`
}

// SchedulerConfig holds recurring trigger intervals, in minutes
type SchedulerConfig struct {
	FullScrapeInterval  int  `mapstructure:"full_scrape_interval"`
	PriceUpdateInterval int  `mapstructure:"price_update_interval"`
	StartOnBoot         bool `mapstructure:"start_on_boot"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Defaults plus env are enough to run; config.yaml is optional.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "localhost")

	viper.SetDefault("scraper.timeout", 30)
	viper.SetDefault("scraper.max_retries", 3)
	viper.SetDefault("scraper.max_workers", 4)
	viper.SetDefault("scraper.max_requests_per_second", 2)
	viper.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	viper.SetDefault("scheduler.full_scrape_interval", 1440)
	viper.SetDefault("scheduler.price_update_interval", 360)
	viper.SetDefault("scheduler.start_on_boot", true)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "dronepartpicker")
	viper.SetDefault("database.user", "dpp_user")
	viper.SetDefault("database.password", "dpp_pass")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.consumer_group", "scraper_consumer")
	viper.SetDefault("redis.min_idle_time", 120)
}
