package health_worker_config

import (
	"time"

	"github.com/telescope-ops/telescope/internal/obs"
	ob "github.com/telescope-ops/telescope/internal/outbox"
	"github.com/telescope-ops/telescope/internal/probe"
	pginfra "github.com/telescope-ops/telescope/internal/repository/postgres"
	worker "github.com/telescope-ops/telescope/internal/services/health-worker"
)

type KafkaOut struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Worker struct {
	Tick       time.Duration `mapstructure:"tick"`
	BatchLimit int           `mapstructure:"batch_limit"`
	Reminder   time.Duration `mapstructure:"reminder"`
}

func (w *Worker) AsSchedConfig() *worker.SchedConfig {
	return &worker.SchedConfig{Tick: w.Tick, BatchLimit: w.BatchLimit}
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
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
		App:    "telescope/health-worker",
	}
}

type Config struct {
	DB     pginfra.Config `mapstructure:"db"`
	Kafka  KafkaOut       `mapstructure:"kafka"`
	Probe  probe.Config   `mapstructure:"probe"`
	Worker Worker         `mapstructure:"worker"`
	Outbox ob.Config      `mapstructure:"outbox"`
	Server Server         `mapstructure:"server"`
	OTEL   OTEL           `mapstructure:"otel"`
	Log    Log            `mapstructure:"log"`
}
