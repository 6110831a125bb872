package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"vitals-monitor/internal/infra"
)

const (
	defaultPort   = "5432"
	dialTimeout   = 3 * time.Second
	probeAttempts = 5
)

// BuildDatabaseDSN returns DB_DSN when set, otherwise assembles a DSN from the
// discrete connection settings.
func BuildDatabaseDSN(cfg infra.Config) (string, error) {
	if cfg.DatabaseDSN != "" {
		return cfg.DatabaseDSN, nil
	}

	var missing []string
	for _, field := range []struct{ name, value string }{
		{"host", cfg.DatabaseHost},
		{"user", cfg.DatabaseUser},
		{"name", cfg.DatabaseName},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("database %v required when DSN is not provided", missing)
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.DatabaseUser, cfg.DatabasePassword),
		Host:     net.JoinHostPort(cfg.DatabaseHost, infra.EmptyFallback(cfg.DatabasePort, defaultPort)),
		Path:     "/" + cfg.DatabaseName,
		RawQuery: url.Values{"sslmode": {"disable"}}.Encode(),
	}
	return dsn.String(), nil
}

// databaseAddress resolves host:port from the discrete settings, filling the
// gaps from DB_DSN. An empty address means nothing is configured.
func databaseAddress(cfg infra.Config) (string, error) {
	host, port := cfg.DatabaseHost, cfg.DatabasePort
	if cfg.DatabaseDSN != "" && (host == "" || port == "") {
		parsed, err := url.Parse(cfg.DatabaseDSN)
		if err != nil {
			return "", fmt.Errorf("invalid DB_DSN: %w", err)
		}
		host = infra.EmptyFallback(host, parsed.Hostname())
		port = infra.EmptyFallback(port, parsed.Port())
	}
	if host == "" {
		return "", nil
	}
	return net.JoinHostPort(host, infra.EmptyFallback(port, defaultPort)), nil
}

// WaitForDatabase dials the database until it accepts TCP connections, the
// attempts run out or ctx is done. Without a configured host it returns nil.
func WaitForDatabase(ctx context.Context, cfg infra.Config, logger *infra.Logger) error {
	address, err := databaseAddress(cfg)
	if err != nil || address == "" {
		return err
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 500 * time.Millisecond
	exp.MaxInterval = 4 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, probeAttempts), ctx)

	err = backoff.RetryNotify(func() error {
		conn, dialErr := dialer.DialContext(ctx, "tcp", address)
		if dialErr != nil {
			return dialErr
		}
		return conn.Close()
	}, policy, func(err error, next time.Duration) {
		if logger != nil {
			logger.Printf(ctx, "database probe %s: %v, next attempt in %s", address, err, next)
		}
	})

	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return errors.Join(fmt.Errorf("database not reachable at %s", address), err)
	}
}
