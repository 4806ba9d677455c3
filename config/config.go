package config

import (
	"os"
	"strconv"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	LogLevel   string           `mapstructure:"log_level"`
	RabbitMQ   RabbitMQConfig   `mapstructure:"rabbitmq"`
	MongoDB    MongoDBConfig    `mapstructure:"mongodb"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Security   SecurityConfig   `mapstructure:"security"`
	Webhooks   WebhookConfig    `mapstructure:"webhooks"`
}

type SecurityConfig struct {
	APIKeyHeader string   `mapstructure:"apiKeyHeader"`
	APIKeys      []string `mapstructure:"apiKeys"`
}

type MonitoringConfig struct {
	PrometheusPort int    `mapstructure:"prometheusPort"`
	MetricsPath    string `mapstructure:"metricsPath"`
}

type MongoDBConfig struct {
	URI         string            `mapstructure:"uri"`
	Database    string            `mapstructure:"database"`
	Collections CollectionsConfig `mapstructure:"collections"`
}

type CollectionsConfig struct {
	Submissions string `mapstructure:"submissions"`
	Rules       string `mapstructure:"rules"`
	Webhooks    string `mapstructure:"webhooks"`
	Deliveries  string `mapstructure:"deliveries"`
	Stats       string `mapstructure:"stats"`
}

type RabbitMQConfig struct {
	URL       string `mapstructure:"url"`
	Exchange  string `mapstructure:"exchange"`
	QueueName string `mapstructure:"queueName"`
}

type ServerConfig struct {
	Port int
	Host string
}

type WebhookConfig struct {
	// TimeoutSeconds bounds every outbound webhook call, deliveries and
	// tests alike. A timed-out delivery is recorded as failed.
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("monitoring.prometheusPort", 9090)
	viper.SetDefault("monitoring.metricsPath", "/metrics")
	viper.SetDefault("mongodb.database", "popup_builder")
	viper.SetDefault("mongodb.collections.submissions", "form_submissions")
	viper.SetDefault("mongodb.collections.rules", "submission_rules")
	viper.SetDefault("mongodb.collections.webhooks", "webhooks")
	viper.SetDefault("mongodb.collections.deliveries", "webhook_deliveries")
	viper.SetDefault("mongodb.collections.stats", "submission_stats")
	viper.SetDefault("rabbitmq.exchange", "submission_events")
	viper.SetDefault("rabbitmq.queueName", "submission_rollups")
	viper.SetDefault("security.apiKeyHeader", "X-API-Key")
	viper.SetDefault("webhooks.timeoutSeconds", 15)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Override with environment variables
	if port := os.Getenv("APP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if promPort := os.Getenv("PROMETHEUS_PORT"); promPort != "" {
		if p, err := strconv.Atoi(promPort); err == nil {
			cfg.Monitoring.PrometheusPort = p
		}
	}

	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		cfg.MongoDB.URI = uri
	}
	if db := os.Getenv("MONGODB_DATABASE"); db != "" {
		cfg.MongoDB.Database = db
	}

	// Support both CLOUDAMQP_URL and RABBITMQ_URI
	if cloudamqpURL := os.Getenv("CLOUDAMQP_URL"); cloudamqpURL != "" {
		cfg.RabbitMQ.URL = cloudamqpURL
	} else if rabbitURL := os.Getenv("RABBITMQ_URI"); rabbitURL != "" {
		cfg.RabbitMQ.URL = rabbitURL
	}

	if exchange := os.Getenv("RABBITMQ_EXCHANGE"); exchange != "" {
		cfg.RabbitMQ.Exchange = exchange
	}
	if queue := os.Getenv("RABBITMQ_QUEUE"); queue != "" {
		cfg.RabbitMQ.QueueName = queue
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if header := os.Getenv("API_KEY_HEADER"); header != "" {
		cfg.Security.APIKeyHeader = header
	}
	if key := os.Getenv("ADMIN_API_KEY"); key != "" {
		cfg.Security.APIKeys = append(cfg.Security.APIKeys, key)
	}

	if timeout := os.Getenv("WEBHOOK_TIMEOUT_SECONDS"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil && t > 0 {
			cfg.Webhooks.TimeoutSeconds = t
		}
	}

	return &cfg, nil
}
