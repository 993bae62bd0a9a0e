package config

import (
	"fmt"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables, applies the
// `default` tag of every unset field and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := populate(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// lookup returns the value for a field from its `env` variable, then its
// `envAlt` variable, then its `default` tag.
func lookup(tag reflect.StructTag) string {
	if v := os.Getenv(tag.Get("env")); v != "" {
		return v
	}
	if alt := tag.Get("envAlt"); alt != "" {
		if v := os.Getenv(alt); v != "" {
			return v
		}
	}
	return tag.Get("default")
}

// populate fills the tagged fields of a section struct, descending into
// nested sections.
func populate(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field, val := t.Field(i), v.Field(i)
		if !val.CanSet() {
			continue
		}
		if field.Type.Kind() == reflect.Struct {
			if err := populate(val); err != nil {
				return err
			}
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}
		raw := lookup(field.Tag)
		if raw == "" {
			continue
		}
		if err := decode(val, raw); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", name, raw, err)
		}
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// decode parses raw into dst according to dst's type.
func decode(dst reflect.Value, raw string) error {
	if dst.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		dst.SetInt(int64(d))
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		dst.SetString(raw)
	case reflect.Int, reflect.Int64:
		i, err := strconv.ParseInt(raw, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		dst.SetInt(i)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		dst.SetBool(b)
	case reflect.Slice:
		if dst.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", dst.Type().Elem().Kind())
		}
		dst.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type %s", dst.Kind())
	}
	return nil
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// problems collects validation failures.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

// Validate checks the configuration and reports every failure at once.
func (c *Config) Validate() error {
	var p problems

	c.Database.validate(&p)
	c.Server.validate(&p)
	c.Upload.validate(&p)
	c.Pagination.validate(&p)
	c.Rate.validate(&p)
	c.Logging.validate(&p)

	if len(p) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
	}
	return nil
}

func (d *DatabaseConfig) validate(p *problems) {
	switch strings.ToLower(d.Driver) {
	case DriverPostgres:
		if d.URL == "" {
			p.addf("DATABASE_URL is required when STORAGE_DRIVER is postgres")
		}
	case DriverMemory:
	default:
		p.addf("STORAGE_DRIVER (%q) must be one of: postgres, memory", d.Driver)
	}
	if d.MaxConns <= 0 {
		p.addf("DB_MAX_CONNS must be positive")
	}
	if d.MinConns < 0 {
		p.addf("DB_MIN_CONNS must be non-negative")
	}
	if d.MaxConns < d.MinConns {
		p.addf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", d.MaxConns, d.MinConns)
	}
}

func (s *ServerConfig) validate(p *problems) {
	if s.Port <= 0 || s.Port > 65535 {
		p.addf("SERVER_PORT (%d) must be 1-65535", s.Port)
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.RequestTimeout < 0 {
		p.addf("SERVER_READ_TIMEOUT, SERVER_WRITE_TIMEOUT and SERVER_REQUEST_TIMEOUT must be non-negative")
	}
	if s.ShutdownTimeout <= 0 {
		p.addf("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
}

func (u *UploadConfig) validate(p *problems) {
	if u.MaxFileSize <= 0 {
		p.addf("UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if u.MaxRows < 0 {
		p.addf("UPLOAD_MAX_ROWS must be non-negative")
	}
	if u.MaxConcurrent <= 0 {
		p.addf("UPLOAD_MAX_CONCURRENT must be positive")
	}
	if u.MaxWaitTime <= 0 {
		p.addf("UPLOAD_MAX_WAIT_TIME must be positive")
	}
	if u.Timeout <= 0 {
		p.addf("UPLOAD_TIMEOUT must be positive")
	}
}

func (pg *PaginationConfig) validate(p *problems) {
	if pg.MaxLimit <= 0 || pg.MaxLimit > math.MaxInt32 {
		p.addf("PAGINATION_MAX_LIMIT (%d) must be 1-%d", pg.MaxLimit, math.MaxInt32)
	}
	if pg.DefaultLimit <= 0 || pg.DefaultLimit > pg.MaxLimit {
		p.addf("PAGINATION_DEFAULT_LIMIT (%d) must be 1-%d", pg.DefaultLimit, pg.MaxLimit)
	}
	if pg.DefaultTopN <= 0 {
		p.addf("PAGINATION_DEFAULT_TOP_N must be positive")
	}
}

func (r *RateLimitConfig) validate(p *problems) {
	if !r.Enabled {
		return
	}
	if r.RequestsPerMinute <= 0 {
		p.addf("RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if r.UploadLimit <= 0 {
		p.addf("RATE_LIMIT_UPLOAD must be positive when rate limiting is enabled")
	}
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

func (l *LoggingConfig) validate(p *problems) {
	if !oneOf(l.Level, logLevels) {
		p.addf("LOG_LEVEL (%q) must be one of: %s", l.Level, strings.Join(logLevels, ", "))
	}
	if !oneOf(l.Format, logFormats) {
		p.addf("LOG_FORMAT (%q) must be one of: %s", l.Format, strings.Join(logFormats, ", "))
	}
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}

// String renders the configuration for logging with the database URL masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: {Host: %q, Port: %d}, "+
		"Database: {Driver: %q, URL: [MASKED], MaxConns: %d, MinConns: %d}, "+
		"Upload: {MaxFileSize: %d, MaxRows: %d, MaxConcurrent: %d, Timeout: %s}, "+
		"Pagination: {DefaultLimit: %d, MaxLimit: %d}, "+
		"Rate: {Enabled: %v, RequestsPerMinute: %d, UploadLimit: %d}, "+
		"Logging: {Level: %q, Format: %q}}",
		c.Server.Host, c.Server.Port,
		c.Database.Driver, c.Database.MaxConns, c.Database.MinConns,
		c.Upload.MaxFileSize, c.Upload.MaxRows, c.Upload.MaxConcurrent, c.Upload.Timeout,
		c.Pagination.DefaultLimit, c.Pagination.MaxLimit,
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.UploadLimit,
		c.Logging.Level, c.Logging.Format)
}
