package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ClientConfig holds the configuration settings for the dashctl command.
type ClientConfig struct {
	Endpoint      string // LINSTOR controller endpoint
	MetricsPath   string // Path of the exposition endpoint
	File          string // Read exposition text from this file instead of the controller
	ClientTimeout int    // HTTP client timeout (in seconds)
	Output        string // "json" or "text"
	Server        string // Dashboard server address; when set, dashctl reads from it instead
	Key           string // Hash key shared with the dashboard server
	Refresh       bool   // Ask the dashboard server for a manual refresh
	Logger        *zap.SugaredLogger
}

// ClientTimeoutDuration returns the request timeout as a duration.
func (c *ClientConfig) ClientTimeoutDuration() time.Duration {
	return time.Duration(c.ClientTimeout) * time.Second
}

// NewClientConfig creates and returns a new ClientConfig by parsing flags and environment variables.
func NewClientConfig() *ClientConfig {
	cfg := &ClientConfig{
		Endpoint:      "http://localhost:3370",
		MetricsPath:   "/metrics",
		ClientTimeout: 10,
		Output:        "json",
	}

	var fEndpoint, fPath, fFile, fOut, fServer, fKey, fConf strFlag
	var fTO intFlag
	var fRefresh boolFlag
	flag.Var(&fEndpoint, "u", "LINSTOR controller endpoint")
	flag.Var(&fPath, "metrics-path", "path of the controller metrics endpoint")
	flag.Var(&fFile, "f", "read exposition text from file")
	flag.Var(&fTO, "t", "client timeout (seconds)")
	flag.Var(&fOut, "o", "output format: json or text")
	flag.Var(&fServer, "s", "dashboard server address")
	flag.Var(&fKey, "k", "hash key shared with the dashboard server")
	flag.Var(&fRefresh, "refresh", "trigger a manual refresh on the dashboard server")
	flag.Var(&fConf, "c", "Path to JSON config file")
	flag.Var(&fConf, "config", "Path to JSON config file (alias)")
	flag.Parse()

	if fEndpoint.set {
		cfg.Endpoint = fEndpoint.v
	}
	if fPath.set {
		cfg.MetricsPath = fPath.v
	}
	if fFile.set {
		cfg.File = fFile.v
	}
	if fTO.set {
		cfg.ClientTimeout = fTO.v
	}
	if fOut.set {
		cfg.Output = fOut.v
	}
	if fServer.set {
		cfg.Server = fServer.v
	}
	if fKey.set {
		cfg.Key = fKey.v
	}
	if fRefresh.set {
		cfg.Refresh = fRefresh.v
	}

	var warnings []string

	if fConf.v == "" {
		if v := os.Getenv("CONFIG"); v != "" {
			fConf.v = v
		}
	}
	if fConf.v != "" {
		if js, err := loadClientJSON(fConf.v); err == nil {
			if js.Endpoint != nil && !fEndpoint.set {
				cfg.Endpoint = *js.Endpoint
			}
			if js.MetricsPath != nil && !fPath.set {
				cfg.MetricsPath = *js.MetricsPath
			}
			if js.ClientTimeout != nil && !fTO.set {
				if sec, err := parseDurationSeconds(*js.ClientTimeout); err == nil {
					cfg.ClientTimeout = sec
				}
			}
			if js.Output != nil && !fOut.set {
				cfg.Output = *js.Output
			}
			if js.Server != nil && !fServer.set {
				cfg.Server = *js.Server
			}
			if js.Key != nil && !fKey.set {
				cfg.Key = *js.Key
			}
		} else {
			warnings = append(warnings, fmt.Sprintf("failed to load config file %q: %v", fConf.v, err))
		}
	}

	warnings = append(warnings, readClientEnvironment(cfg)...)

	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.Logger = zap.Must(logCfg.Build()).Sugar()
	for _, w := range warnings {
		cfg.Logger.Warn(w)
	}
	return cfg
}

func readClientEnvironment(cfg *ClientConfig) []string {
	var warnings []string

	if endpoint := os.Getenv("LS_CONTROLLERS"); endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if path := os.Getenv("METRICS_PATH"); path != "" {
		cfg.MetricsPath = path
	}
	if addr := os.Getenv("DASHBOARD_ADDRESS"); addr != "" {
		cfg.Server = addr
	}
	if key := os.Getenv("KEY"); key != "" {
		cfg.Key = key
	}
	if timeout := os.Getenv("CLIENT_TIMEOUT"); timeout != "" {
		v, err := strconv.Atoi(timeout)
		if err == nil {
			cfg.ClientTimeout = v
		} else {
			warnings = append(warnings, fmt.Sprintf("invalid CLIENT_TIMEOUT env var: %v", err))
		}
	}
	return warnings
}
