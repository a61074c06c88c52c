package config // package config loads application configuration from environment variables

import (
    "errors"
    "fmt"
    "os"
    "strconv"
    "time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; optional groups live in their own structs.
type Config struct {
    Env            string // application environment ("dev", "test", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    AutoMigrate    bool   // apply embedded migrations at startup
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time-to-live in minutes
    RefreshTTLDays int    // refresh token time-to-live in days
    BcryptCost     int    // bcrypt cost for password hashing

    AMQP      AMQPConfig
    Email     EmailConfig
    Scheduler SchedulerConfig
}

// AMQPConfig points at the RabbitMQ broker carrying notifications.  An
// empty URL disables the broker; notifications are then delivered
// in-process by the API instance that produced them.
type AMQPConfig struct {
    URL            string
    DispatchBuffer int
    RunConsumer    bool
}

// EmailConfig configures the SendGrid sender.  Without an API key emails
// are only logged.
type EmailConfig struct {
    SendGridAPIKey string
    FromEmail      string
    FromName       string
}

// SchedulerConfig drives the background jobs.
type SchedulerConfig struct {
    Enabled        bool
    SweepInterval  time.Duration // how often stale reservations are expired
    PendingTTL     time.Duration // age after which an unpaid PENDING reservation expires
    ReportInterval time.Duration // how often the KPI report is generated
    JobLockTTL     time.Duration // lifetime of the cross-instance job lock
    TokenPurge     time.Duration // how often dead refresh tokens are deleted
    TokenRetain    time.Duration // how long dead refresh tokens are kept
}

// Load reads configuration values from environment variables.  Every
// missing or malformed required variable is reported in the returned
// error, not just the first one.
func Load() (Config, error) {
    var r reader
    cfg := Config{
        Env:            r.must("APP_ENV"),
        Port:           r.must("APP_PORT"),
        DBUser:         r.must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"),
        DBHost:         r.must("DB_HOST"),
        DBPort:         r.must("DB_PORT"),
        DBName:         r.must("DB_NAME"),
        AutoMigrate:    envBool("DB_AUTO_MIGRATE", false),
        JWTSecret:      r.must("JWT_SECRET"),
        AccessTTLMin:   r.mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays: r.mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:     r.mustInt("BCRYPT_COST"),
        AMQP: AMQPConfig{
            URL:            os.Getenv("RABBITMQ_URL"),
            DispatchBuffer: envInt("NOTIFY_BUFFER", 256),
            RunConsumer:    envBool("NOTIFY_CONSUMER", true),
        },
        Email: EmailConfig{
            SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
            FromEmail:      envStr("EMAIL_FROM", "no-reply@sports-marketplace.local"),
            FromName:       envStr("EMAIL_FROM_NAME", "Sports Marketplace"),
        },
        Scheduler: SchedulerConfig{
            Enabled:        envBool("SCHEDULER_ENABLED", true),
            SweepInterval:  envDur("SWEEP_INTERVAL", 15*time.Minute),
            PendingTTL:     envDur("PENDING_TTL", 48*time.Hour),
            ReportInterval: envDur("REPORT_INTERVAL", 24*time.Hour),
            JobLockTTL:     envDur("JOB_LOCK_TTL", 10*time.Minute),
            TokenPurge:     envDur("TOKEN_PURGE_INTERVAL", 6*time.Hour),
            TokenRetain:    envDur("TOKEN_RETAIN", 7*24*time.Hour),
        },
    }
    if cfg.Scheduler.SweepInterval <= 0 || cfg.Scheduler.ReportInterval <= 0 || cfg.Scheduler.TokenPurge <= 0 {
        r.errs = append(r.errs, errors.New("scheduler intervals must be positive"))
    }
    return cfg, errors.Join(r.errs...)
}

// LoadDB reads only the database variables, for tools such as the
// migration CLI that need nothing else.
func LoadDB() (Config, error) {
    var r reader
    cfg := Config{
        DBUser: r.must("DB_USER"),
        DBPass: os.Getenv("DB_PASS"),
        DBHost: r.must("DB_HOST"),
        DBPort: r.must("DB_PORT"),
        DBName: r.must("DB_NAME"),
    }
    return cfg, errors.Join(r.errs...)
}

// IsProd reports whether the app runs in production.
func (c Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }

// reader collects errors for required variables.
type reader struct {
    errs []error
}

func (r *reader) must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        r.errs = append(r.errs, fmt.Errorf("missing required env var: %s", key))
    }
    return v
}

func (r *reader) mustInt(key string) int {
    s := r.must(key)
    if s == "" {
        return 0
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        r.errs = append(r.errs, fmt.Errorf("invalid int for %s: %q", key, s))
    }
    return n
}
