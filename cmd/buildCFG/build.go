package buildCFG

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"campusevents/internal/sms"
)

type ServerConfig struct {
	Port string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type SchedulerConfig struct {
	Interval   time.Duration
	Window     time.Duration
	BulkWindow time.Duration
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return ServerConfig{Port: port}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("database.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("database.master_dsn is required")
	}

	slaveDSNs := cfg.GetStringSlice("database.slave_dsns")

	opts := &dbpg.Options{
		MaxOpenConns: cfg.GetInt("database.max_open_conns"),
		MaxIdleConns: cfg.GetInt("database.max_idle_conns"),
	}

	log.Info().Int("slaves", len(slaveDSNs)).Msg("database config built")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" || rc.Exchange == "" || rc.Queue == "" {
		return RabbitConfig{}, fmt.Errorf("rabbit.url, rabbit.exchange and rabbit.queue are required")
	}
	return rc, nil
}

// BuildSMSConfig reads provider credentials from config with environment
// fallbacks. Credentials never live in source.
func BuildSMSConfig(cfg *config.Config, log *zerolog.Logger) (sms.Config, error) {
	sc := sms.Config{
		AccountSID: stringOrEnv(cfg, "sms.account_sid", "TWILIO_ACCOUNT_SID"),
		AuthToken:  stringOrEnv(cfg, "sms.auth_token", "TWILIO_AUTH_TOKEN"),
		From:       stringOrEnv(cfg, "sms.from", "TWILIO_FROM_NUMBER"),
	}
	if sc.AccountSID == "" || sc.AuthToken == "" || sc.From == "" {
		return sms.Config{}, fmt.Errorf("sms credentials are required (config sms.* or TWILIO_* env)")
	}
	return sc, nil
}

func BuildSchedulerConfig(cfg *config.Config, log *zerolog.Logger) SchedulerConfig {
	sc := SchedulerConfig{
		Interval:   time.Duration(cfg.GetInt("scheduler.interval_seconds")) * time.Second,
		Window:     time.Duration(cfg.GetInt("scheduler.window_minutes")) * time.Minute,
		BulkWindow: time.Duration(cfg.GetInt("scheduler.bulk_window_minutes")) * time.Minute,
	}
	if sc.Interval <= 0 {
		sc.Interval = 60 * time.Second
	}
	if sc.Window <= 0 {
		sc.Window = 10 * time.Minute
	}
	if sc.BulkWindow <= 0 {
		sc.BulkWindow = 1440 * time.Minute
	}
	return sc
}

func stringOrEnv(cfg *config.Config, key, envKey string) string {
	if v := cfg.GetString(key); v != "" {
		return v
	}
	return os.Getenv(envKey)
}
