package status_api_config

import (
	"time"

	"github.com/telescope-ops/telescope/internal/obs"
	"github.com/telescope-ops/telescope/internal/probe"
	pginfra "github.com/telescope-ops/telescope/internal/repository/postgres"
)

type KafkaOut struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Poll struct {
	Interval  time.Duration `mapstructure:"interval"`
	SlotWidth time.Duration `mapstructure:"slot_width"`
	SlotCount int           `mapstructure:"slot_count"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc *Log) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    "telescope/status-api",
	}
}

type Config struct {
	// DB is optional; an empty DSN disables the persisted-log endpoint.
	DB        pginfra.Config `mapstructure:"db"`
	Kafka     KafkaOut       `mapstructure:"kafka"`
	Probe     probe.Config   `mapstructure:"probe"`
	Poll      Poll           `mapstructure:"poll"`
	ProjectID int64          `mapstructure:"project_id"`
	Server    Server         `mapstructure:"server"`
	OTEL      OTEL           `mapstructure:"otel"`
	Log       Log            `mapstructure:"log"`
}
