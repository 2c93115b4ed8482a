package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/secret"
	"github.com/shandysiswandi/otpgate/internal/pkg/sms"
	"github.com/shandysiswandi/otpgate/internal/pkg/storage"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// configPath prefers CONFIG_PATH, then the local file when LOCAL=true, then
// the container mount.
func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	if os.Getenv("LOCAL") == "true" {
		return "./config/config.yaml"
	}
	return "/config/config.yaml"
}

func (a *App) initConfig() error {
	cfg, err := config.NewViper(configPath())
	if err != nil {
		return err
	}
	if tz := cfg.GetString("app.tz"); tz != "" {
		_ = os.Setenv("TZ", tz) //nolint:errcheck // best effort
	}

	a.config = cfg
	a.onClose("config", func(context.Context) error { return cfg.Close() })
	return nil
}

func (a *App) initInstrument() error {
	c := a.config
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          c.GetBool("instrument.enabled"),
		ServiceName:      c.GetString("instrument.service_name"),
		ServiceVersion:   c.GetString("instrument.service_version"),
		Environment:      c.GetString("instrument.env"),
		OTLPEndpoint:     c.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       c.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: c.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  c.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       c.GetArray("instrument.log_mask_fields"),
		LogLevel:         c.GetString("instrument.log_level"),
	})
	if err != nil {
		return err
	}

	a.ins = ins
	a.onClose("instrument", ins.Shutdown)
	return nil
}

func (a *App) initLibraries() error {
	c := a.config

	password, err := hash.NewPassword(
		c.GetString("hash.password.algorithm"),
		c.GetInt("hash.bcrypt.cost"),
		c.GetString("hash.password.pepper"),
	)
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		return fmt.Errorf("validator: %w", err)
	}

	snow, err := uid.NewSnowflake(c.GetInt64("app.node_id"))
	if err != nil {
		return fmt.Errorf("snowflake: %w", err)
	}

	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.uid = snow
	a.secret = secret.NewRandom()
	a.otp = otp.NewNumeric(libOTP.DigitsSix)
	a.hmac = hash.NewHMACSHA256(c.GetString("hash.hmac.secret"))
	a.password = password
	a.validator = v
	a.goroutine = goroutine.NewManager(c.GetInt("app.server.max_goroutine"))
	return nil
}

func (a *App) initJWT() error {
	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetMinute("jwt.ttl_minutes"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		return err
	}

	a.jwt = signer
	return nil
}

// connect pings a dependency until it answers, backing off between tries.
// Containers often start before their database does.
func (a *App) connect(name string, ping func(ctx context.Context) error) error {
	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithMaxRetries(a.config.GetUint64("app.startup.max_retries"), b)

	return retry.Do(a.ctx, b, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := ping(pingCtx); err != nil {
			slog.Warn("dependency not ready, retrying", "name", name, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (a *App) initDatabase() error {
	pc, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}

	pc.MaxConns = a.config.GetInt32("database.pool.max_conns")
	pc.MinConns = a.config.GetInt32("database.pool.min_conns")
	pc.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	pc.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	pc.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, pc)
	if err != nil {
		return err
	}
	a.onClose("database", func(context.Context) error { pool.Close(); return nil })

	if err := a.connect("database", pool.Ping); err != nil {
		return err
	}

	a.dbConn = pool
	return nil
}

func (a *App) initCache() error {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}

	rdb := redis.NewClient(opt)
	a.onClose("redis", func(context.Context) error { return rdb.Close() })

	if err := a.connect("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() }); err != nil {
		return err
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(rdb, a.config.GetString("redis.idempotency_prefix"))
	return nil
}

func (a *App) initMail() error {
	m, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
		Timeout:  a.config.GetSecond("mail.timeout_seconds"),
	})
	if err != nil {
		return err
	}

	a.mail = m
	a.onClose("mail", func(context.Context) error { return m.Close() })
	return nil
}

func (a *App) initSMS() error {
	gw, err := sms.NewGateway(sms.Config{
		URL:      a.config.GetString("notification.sms.url"),
		Username: a.config.GetString("notification.sms.username"),
		Hash:     a.config.GetString("notification.sms.hash"),
		Sender:   a.config.GetString("notification.sms.sender"),
		Timeout:  a.config.GetSecond("notification.sms.timeout_seconds"),
	})
	if err != nil {
		return err
	}

	a.sms = gw
	return nil
}

func (a *App) gcsClientOptions() ([]option.ClientOption, error) {
	var opts []option.ClientOption
	if a.config.GetBool("storage.gcs.without_auth") {
		opts = append(opts, option.WithoutAuthentication())
	}
	if path := strings.TrimSpace(a.config.GetString("storage.gcs.credentials_file")); path != "" {
		raw, err := os.ReadFile(path) // #nosec G304 -- operator supplied
		if err != nil {
			return nil, fmt.Errorf("gcs credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(a.ctx, raw, gcs.ScopeFullControl)
		if err != nil {
			return nil, fmt.Errorf("gcs credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	if ep := strings.TrimSpace(a.config.GetString("storage.gcs.endpoint")); ep != "" {
		opts = append(opts, option.WithEndpoint(ep))
	}
	return opts, nil
}

func (a *App) initStorage() error {
	str := func(key string) string { return strings.TrimSpace(a.config.GetString(key)) }
	driver := str("storage.driver")

	opts := storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       str("storage.s3.region"),
			Endpoint:     str("storage.s3.endpoint"),
			AccessKey:    str("storage.s3.access_key"),
			SecretKey:    str("storage.s3.secret_key"),
			SessionToken: str("storage.s3.session_token"),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		MinIO: storage.MinIOOptions{
			Region:       str("storage.minio.region"),
			Endpoint:     str("storage.minio.endpoint"),
			AccessKey:    str("storage.minio.access_key"),
			SecretKey:    str("storage.minio.secret_key"),
			SessionToken: str("storage.minio.session_token"),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	}
	if driver == storage.DriverGCS {
		clientOpts, err := a.gcsClientOptions()
		if err != nil {
			return err
		}
		opts.GCS = storage.GCSOptions{
			ClientOptions:  clientOpts,
			GoogleAccessID: str("storage.gcs.signer_access_id"),
			PrivateKey:     a.config.GetBinary("storage.gcs.signer_private_key"),
		}
	}

	stg, err := storage.NewFromDriver(a.ctx, driver, opts)
	if err != nil {
		return err
	}

	a.storage = stg
	a.onClose("storage", func(context.Context) error { return stg.Close() })
	return nil
}

func (a *App) nsqConfig() *nsq.Config {
	cfg := nsq.NewConfig()
	cfg.DialTimeout = a.config.GetSecond("messaging.nsq.dial_timeout_seconds")
	cfg.ReadTimeout = a.config.GetSecond("messaging.nsq.read_timeout_seconds")
	cfg.WriteTimeout = a.config.GetSecond("messaging.nsq.write_timeout_seconds")
	return cfg
}

func (a *App) initMessaging() error {
	c := a.config
	pub, err := messaging.NewFromDriver(a.ctx, c.GetString("messaging.driver"), messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr: c.GetString("messaging.nsq.producer_addr"),
			Config:       a.nsqConfig(),
		},
		Kafka: messaging.KafkaConfig{Brokers: c.GetArray("messaging.kafka.brokers")},
		NATS: messaging.NATSConfig{
			URL: c.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(c.GetString("messaging.nats.name")),
				nats.MaxReconnects(c.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(c.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(c.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(c.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		PubSub: messaging.PubSubConfig{ProjectID: c.GetString("messaging.pubsub.project_id")},
	})
	if err != nil {
		return err
	}

	a.messaging = pub
	a.onClose("messaging", func(context.Context) error { return pub.Close() })
	return nil
}

func (a *App) initHTTPServer() error {
	a.router = router.NewRouter(router.Config{
		Config:          a.config,
		UUID:            a.uuid,
		JWT:             a.jwt,
		Instrument:      a.ins,
		PublicEndpoints: publicEndpoints(),
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   a.config.GetArray("app.server.cors"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           handler,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
	return nil
}
