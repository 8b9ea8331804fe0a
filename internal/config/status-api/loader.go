package status_api_config

import (
	"strings"

	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 5)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.max_conn_lifetime", "30m")
	v.SetDefault("db.max_conn_idle_time", "10m")
	v.SetDefault("db.health_check_period", "30s")
	v.SetDefault("db.query_timeout", "2s")

	v.SetDefault("kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka.topic", "telescope.alerts")

	v.SetDefault("probe.url", "https://localhost:8443/health")
	v.SetDefault("probe.token", "")
	v.SetDefault("probe.timeout", "10s")
	v.SetDefault("probe.user_agent", "telescope-status-api/1.0")
	v.SetDefault("probe.verify_tls", true)

	v.SetDefault("poll.interval", "120s")
	v.SetDefault("poll.slot_width", "2m")
	v.SetDefault("poll.slot_count", 30)

	v.SetDefault("project_id", 1)

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.metrics_addr", ":8086")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "5s")

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.service_name", "status-api")
	v.SetDefault("otel.sample_ratio", 1.0)
	v.SetDefault("otel.otlp_endpoint", "localhost:4317")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
