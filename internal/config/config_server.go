// Package config provides application configuration structures and helpers.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ServerConfig holds the configuration settings for the dashboard server.
type ServerConfig struct {
	Addr            string // HTTP listen address
	Logger          *zap.SugaredLogger
	LinstorEndpoint string  // LINSTOR controller, LS_CONTROLLERS syntax
	MetricsPath     string  // Path of the exposition endpoint on the controller
	PollInterval    int     // Interval between metrics fetches (in seconds)
	ClientTimeout   int     // Timeout of one controller request (in seconds)
	StoreInterval   int     // Interval for storing the snapshot file (in seconds)
	FileStoragePath string  // Path to the snapshot file
	Restore         bool    // Whether to restore snapshots from file on startup
	DatabaseDsn     string  // Data Source Name for PostgreSQL
	Key             string  // Key for response signing and request verification
	TrustedSubnet   string  // CIDR allowed to trigger refreshes, ex. "192.168.1.0/24"
	HistoryLimit    int     // Number of snapshots kept in history
	LinstorRPS      float64 // Controller API requests per second, 0 is unlimited
	LinstorBurst    int     // Controller API burst
	SkipTLSVerify   bool    // Do not verify the controller certificate
	LogLevel        string
}

// PollDuration returns the poll interval as a duration.
func (c *ServerConfig) PollDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// ClientTimeoutDuration returns the per-request timeout as a duration.
func (c *ServerConfig) ClientTimeoutDuration() time.Duration {
	return time.Duration(c.ClientTimeout) * time.Second
}

// StoreDuration returns the file store interval as a duration.
func (c *ServerConfig) StoreDuration() time.Duration {
	return time.Duration(c.StoreInterval) * time.Second
}

func defaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:            "localhost:8080",
		LinstorEndpoint: "http://localhost:3370",
		MetricsPath:     "/metrics",
		PollInterval:    10,
		ClientTimeout:   5,
		StoreInterval:   300,
		FileStoragePath: "./tmp/dashboard-snapshot.json",
		Restore:         true,
		HistoryLimit:    100,
		LinstorBurst:    1,
		LogLevel:        "info",
	}
}

// NewServerConfig creates and returns a new ServerConfig by parsing flags,
// the optional JSON config file and environment variables.
func NewServerConfig() *ServerConfig {
	// 0) defaults
	cfg := defaultServerConfig()

	// 1) flags
	fAddr := strFlag{v: cfg.Addr}
	fEndpoint := strFlag{v: cfg.LinstorEndpoint}
	fMetricsPath := strFlag{v: cfg.MetricsPath}
	fPoll := intFlag{v: cfg.PollInterval}
	fTimeout := intFlag{v: cfg.ClientTimeout}
	fStoreI := intFlag{v: cfg.StoreInterval}
	fFile := strFlag{v: cfg.FileStoragePath}
	fRestore := boolFlag{v: cfg.Restore}
	fHistory := intFlag{v: cfg.HistoryLimit}
	fRPS := floatFlag{v: cfg.LinstorRPS}
	fBurst := intFlag{v: cfg.LinstorBurst}
	fSkipTLS := boolFlag{v: cfg.SkipTLSVerify}
	fLogLevel := strFlag{v: cfg.LogLevel}
	var fDSN, fKey, fTrustedSubnet strFlag
	var fConf strFlag // -c / -config

	flag.Var(&fAddr, "a", "HTTP server address")
	flag.Var(&fEndpoint, "l", "LINSTOR controller endpoint")
	flag.Var(&fMetricsPath, "metrics-path", "path of the controller metrics endpoint")
	flag.Var(&fPoll, "p", "poll interval (seconds)")
	flag.Var(&fTimeout, "timeout", "controller request timeout (seconds)")
	flag.Var(&fStoreI, "i", "store interval (seconds)")
	flag.Var(&fFile, "f", "path to snapshot file")
	flag.Var(&fRestore, "r", "restore from file")
	flag.Var(&fDSN, "d", "DB connection string")
	flag.Var(&fKey, "k", "Hash key string")
	flag.Var(&fTrustedSubnet, "t", "trusted subnet")
	flag.Var(&fHistory, "history", "number of snapshots kept in history")
	flag.Var(&fRPS, "linstor-rps", "LINSTOR API requests per second, 0 is unlimited")
	flag.Var(&fBurst, "linstor-burst", "LINSTOR API burst")
	flag.Var(&fSkipTLS, "linstor-skip-tls-verification", "do not verify the controller certificate")
	flag.Var(&fLogLevel, "log-level", "log level: debug, info, warn, error")
	flag.Var(&fConf, "c", "Path to JSON config file")
	flag.Var(&fConf, "config", "Path to JSON config file (alias)")
	flag.Parse()

	cfg.Addr = fAddr.v
	cfg.LinstorEndpoint = fEndpoint.v
	cfg.MetricsPath = fMetricsPath.v
	cfg.PollInterval = fPoll.v
	cfg.ClientTimeout = fTimeout.v
	cfg.StoreInterval = fStoreI.v
	cfg.FileStoragePath = fFile.v
	cfg.Restore = fRestore.v
	cfg.DatabaseDsn = fDSN.v
	cfg.Key = fKey.v
	cfg.TrustedSubnet = fTrustedSubnet.v
	cfg.HistoryLimit = fHistory.v
	cfg.LinstorRPS = fRPS.v
	cfg.LinstorBurst = fBurst.v
	cfg.SkipTLSVerify = fSkipTLS.v
	cfg.LogLevel = fLogLevel.v

	var warnings []string

	// 2) JSON (lowest priority)
	if fConf.v == "" {
		if v := os.Getenv("CONFIG"); v != "" {
			fConf.v = v
		}
	}

	if fConf.v != "" {
		js, err := loadServerJSON(fConf.v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to load config file %q: %v", fConf.v, err))
		} else {
			applyServerJSON(cfg, js, map[string]bool{
				"a": fAddr.set, "l": fEndpoint.set, "metrics-path": fMetricsPath.set,
				"p": fPoll.set, "timeout": fTimeout.set, "i": fStoreI.set, "f": fFile.set,
				"r": fRestore.set, "d": fDSN.set, "t": fTrustedSubnet.set, "history": fHistory.set,
				"linstor-rps": fRPS.set, "linstor-burst": fBurst.set,
				"linstor-skip-tls-verification": fSkipTLS.set, "log-level": fLogLevel.set,
			})
		}
	}

	// 3) environment (highest priority)
	warnings = append(warnings, readServerEnvironment(cfg)...)

	cfg.Logger = newLogger(cfg.LogLevel)
	for _, w := range warnings {
		cfg.Logger.Warn(w)
	}
	return cfg
}

func applyServerJSON(cfg *ServerConfig, js *serverJSON, flagSet map[string]bool) {
	if js.Address != nil && !flagSet["a"] {
		cfg.Addr = *js.Address
	}
	if js.LinstorEndpoint != nil && !flagSet["l"] {
		cfg.LinstorEndpoint = *js.LinstorEndpoint
	}
	if js.MetricsPath != nil && !flagSet["metrics-path"] {
		cfg.MetricsPath = *js.MetricsPath
	}
	if js.PollInterval != nil && !flagSet["p"] {
		if sec, err := parseDurationSeconds(*js.PollInterval); err == nil {
			cfg.PollInterval = sec
		}
	}
	if js.ClientTimeout != nil && !flagSet["timeout"] {
		if sec, err := parseDurationSeconds(*js.ClientTimeout); err == nil {
			cfg.ClientTimeout = sec
		}
	}
	if js.StoreInterval != nil && !flagSet["i"] {
		if sec, err := parseDurationSeconds(*js.StoreInterval); err == nil {
			cfg.StoreInterval = sec
		}
	}
	if js.StoreFile != nil && !flagSet["f"] {
		cfg.FileStoragePath = *js.StoreFile
	}
	if js.Restore != nil && !flagSet["r"] {
		cfg.Restore = *js.Restore
	}
	if js.DatabaseDSN != nil && !flagSet["d"] {
		cfg.DatabaseDsn = *js.DatabaseDSN
	}
	if js.TrustedSubnet != nil && !flagSet["t"] {
		cfg.TrustedSubnet = *js.TrustedSubnet
	}
	if js.HistoryLimit != nil && !flagSet["history"] {
		cfg.HistoryLimit = *js.HistoryLimit
	}
	if js.LinstorRPS != nil && !flagSet["linstor-rps"] {
		cfg.LinstorRPS = *js.LinstorRPS
	}
	if js.LinstorBurst != nil && !flagSet["linstor-burst"] {
		cfg.LinstorBurst = *js.LinstorBurst
	}
	if js.SkipTLSVerify != nil && !flagSet["linstor-skip-tls-verification"] {
		cfg.SkipTLSVerify = *js.SkipTLSVerify
	}
	if js.LogLevel != nil && !flagSet["log-level"] {
		cfg.LogLevel = *js.LogLevel
	}
}

func readServerEnvironment(cfg *ServerConfig) []string {
	var warnings []string
	atoi := func(name string, dst *int) {
		v := os.Getenv(name)
		if v == "" {
			return
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid %s env var: %v", name, err))
			return
		}
		*dst = i
	}
	parseBool := func(name string, dst *bool) {
		v := os.Getenv(name)
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid %s env var: %v", name, err))
			return
		}
		*dst = b
	}

	if addr := os.Getenv("ADDRESS"); addr != "" {
		cfg.Addr = addr
	}
	if endpoint := os.Getenv("LS_CONTROLLERS"); endpoint != "" {
		cfg.LinstorEndpoint = endpoint
	}
	if path := os.Getenv("METRICS_PATH"); path != "" {
		cfg.MetricsPath = path
	}
	atoi("POLL_INTERVAL", &cfg.PollInterval)
	atoi("CLIENT_TIMEOUT", &cfg.ClientTimeout)
	atoi("STORE_INTERVAL", &cfg.StoreInterval)

	if fsp := os.Getenv("FILE_STORAGE_PATH"); fsp != "" {
		cfg.FileStoragePath = fsp
	} else if fsp := os.Getenv("STORE_FILE"); fsp != "" {
		cfg.FileStoragePath = fsp
	}

	if dbDsn := os.Getenv("DATABASE_DSN"); dbDsn != "" {
		cfg.DatabaseDsn = dbDsn
	}
	parseBool("RESTORE", &cfg.Restore)

	if key := os.Getenv("KEY"); key != "" {
		cfg.Key = key
	}
	if trustedSubnet := os.Getenv("TRUSTED_SUBNET"); trustedSubnet != "" {
		cfg.TrustedSubnet = trustedSubnet
	}
	atoi("HISTORY_LIMIT", &cfg.HistoryLimit)

	if rps := os.Getenv("LINSTOR_RPS"); rps != "" {
		v, err := strconv.ParseFloat(rps, 64)
		if err == nil {
			cfg.LinstorRPS = v
		} else {
			warnings = append(warnings, fmt.Sprintf("invalid LINSTOR_RPS env var: %v", err))
		}
	}
	atoi("LINSTOR_BURST", &cfg.LinstorBurst)
	parseBool("LINSTOR_SKIP_TLS_VERIFICATION", &cfg.SkipTLSVerify)

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	return warnings
}

func newLogger(level string) *zap.SugaredLogger {
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stdout"}

	lvl, err := zap.ParseAtomicLevel(level)
	if err == nil {
		logCfg.Level = lvl
	}

	logger := zap.Must(logCfg.Build()).Sugar()
	if err != nil {
		logger.Warnf("invalid log level %q, using info: %v", level, err)
	}
	return logger
}
