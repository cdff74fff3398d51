package app

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/shandysiswandi/otpmail/internal/pkg/config"
)

const (
	defaultConfigPath = "./config/config.yaml"
	envPrefix         = "OTPMAIL"
)

// configDefaults lets the service start with no config file at all.
var configDefaults = map[string]any{
	"app.name":                                    "otpmail",
	"app.env":                                     "production",
	"app.server.http.host":                        "0.0.0.0",
	"app.server.http.port":                        3000,
	"app.server.http.read_timeout_seconds":        15,
	"app.server.http.read_header_timeout_seconds": 5,
	"app.server.http.write_timeout_seconds":       45,
	"app.server.http.idle_timeout_seconds":        60,
	"app.server.cors":                             "*",
	"app.server.trust_proxy_headers":              false,
	"app.server.max_body_bytes":                   1 << 20,
	"app.server.shutdown_timeout_seconds":         10,
	"security.enforce_auth_rate_limit":            true,
	"security.rate_limit.driver":                  "memory",
	"security.rate_limit.max":                     10,
	"security.rate_limit.window_seconds":          900,
	"otp.require_caller_code":                     true,
	"otp.echo_generated_code":                     false,
	"otp.digits":                                  6,
	"mail.driver":                                 "smtp",
	"mail.host":                                   "smtp.gmail.com",
	"mail.port":                                   587,
	"mail.brand":                                  "Share Boost",
	"mail.send_timeout_seconds":                   30,
	"instrument.enabled":                          false,
	"instrument.log_level":                        "info",
	"instrument.log_mask_fields":                  "otp,authorization,password",
	"instrument.trace_sample_ratio":               1.0,
	"instrument.metric_interval_seconds":          15,
}

// configEnvAliases keeps the environment names older deployments already use.
var configEnvAliases = map[string][]string{
	"app.env":              {"NODE_ENV"},
	"app.server.http.port": {"PORT"},
	"app.server.cors":      {"ALLOWED_ORIGINS"},
	"security.api_key":     {"EMAIL_API_KEY"},
	"mail.username":        {"EMAIL_USER"},
	"mail.password":        {"EMAIL_PASS"},
	"redis.url":            {"REDIS_URL"},
}

// loadConfig reads .env (when present) into the process environment and then
// layers the optional config file, OTPMAIL_* variables and legacy aliases
// over the defaults.
func loadConfig(path string) (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if path == "" {
		path = defaultConfigPath
	}

	return config.NewViper(path,
		config.WithDefaults(configDefaults),
		config.WithEnvPrefix(envPrefix),
		config.WithEnvAliases(configEnvAliases),
	)
}

func (a *App) initConfig() {
	cfg, err := loadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	a.config = cfg
	a.onClose("config", func(context.Context) error { return cfg.Close() })
}
