// bridge-probe smoke-tests a live game backend through the session bridge:
// it logs in with probe credentials, checks the access gate, fetches the
// remote profile, and logs out, printing each audit event as a JSON line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/hexveil/gamebridge"
)

type probeConfig struct {
	BaseURL        string `env:"BRIDGE_API_BASE_URL,required"`
	RedisAddr      string `env:"BRIDGE_REDIS_ADDR"`
	Username       string `env:"BRIDGE_PROBE_USERNAME,required"`
	Password       string `env:"BRIDGE_PROBE_PASSWORD,required"`
	MaxAttempts    int    `env:"BRIDGE_MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LockoutSeconds int    `env:"BRIDGE_LOCKOUT_SECONDS" envDefault:"1800"`
	MarginSeconds  int    `env:"BRIDGE_REFRESH_MARGIN_SECONDS" envDefault:"60"`
}

func main() {
	envFile := flag.String("env-file", "", "optional .env file with BRIDGE_* settings")
	timeout := flag.Duration("timeout", 30*time.Second, "overall probe deadline")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
			os.Exit(2)
		}
	} else {
		_ = godotenv.Load()
	}

	var cfg probeConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("probe ok")
}

func run(cfg probeConfig, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	addr := cfg.RedisAddr
	if addr == "" {
		// No Redis configured: run the probe against a throwaway in-process
		// instance. Lockout and token state then live only for this run.
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		defer mr.Close()
		addr = mr.Addr()
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	bridgeCfg := gamebridge.DefaultConfig()
	bridgeCfg.Remote.BaseURL = cfg.BaseURL
	bridgeCfg.Lockout.MaxAttempts = cfg.MaxAttempts
	bridgeCfg.Lockout.Duration = time.Duration(cfg.LockoutSeconds) * time.Second
	bridgeCfg.Session.RefreshMargin = time.Duration(cfg.MarginSeconds) * time.Second

	engine, err := gamebridge.New().
		WithConfig(bridgeCfg).
		WithRedis(rdb).
		WithAuditSink(gamebridge.NewJSONWriterSink(os.Stdout)).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	identity := gamebridge.Identity{ID: "bridge-probe"}

	if _, err := engine.Login(ctx, identity, cfg.Username, cfg.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	gate := gamebridge.NewGate(engine)
	if !gate.CanAccess(ctx, identity) {
		return fmt.Errorf("gate denied access immediately after login")
	}

	profile, err := engine.RemoteIdentity(ctx, identity)
	if err != nil {
		return fmt.Errorf("fetch profile: %w", err)
	}
	fmt.Printf("remote account: %s (active=%v, sessions=%d, actions=%d)\n",
		profile.Username, profile.IsActive, profile.SessionsCreated, profile.ActionsSubmitted)

	if err := engine.Logout(ctx, identity); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if gate.CanAccess(ctx, identity) {
		return fmt.Errorf("gate allowed access after logout")
	}

	return nil
}
