package config

import (
	"encoding/json"
	"os"
	"time"
)

type serverJSON struct {
	Address         *string  `json:"address"`
	LinstorEndpoint *string  `json:"linstor_endpoint"`
	MetricsPath     *string  `json:"metrics_path"`
	PollInterval    *string  `json:"poll_interval"`  // "10s"
	ClientTimeout   *string  `json:"client_timeout"` // "5s"
	StoreInterval   *string  `json:"store_interval"` // "5m"
	StoreFile       *string  `json:"store_file"`
	Restore         *bool    `json:"restore"`
	DatabaseDSN     *string  `json:"database_dsn"`
	TrustedSubnet   *string  `json:"trusted_subnet"`
	HistoryLimit    *int     `json:"history_limit"`
	LinstorRPS      *float64 `json:"linstor_rps"`
	LinstorBurst    *int     `json:"linstor_burst"`
	SkipTLSVerify   *bool    `json:"linstor_skip_tls_verification"`
	LogLevel        *string  `json:"log_level"`
}

type clientJSON struct {
	Endpoint      *string `json:"linstor_endpoint"`
	MetricsPath   *string `json:"metrics_path"`
	ClientTimeout *string `json:"client_timeout"`
	Output        *string `json:"output"`
	Server        *string `json:"dashboard_address"`
	Key           *string `json:"key"`
}

func loadServerJSON(path string) (*serverJSON, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg serverJSON
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadClientJSON(path string) (*clientJSON, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c clientJSON
	return &c, json.Unmarshal(b, &c)
}

func parseDurationSeconds(s string) (int, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return int(d / time.Second), nil
}
