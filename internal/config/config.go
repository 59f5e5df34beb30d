package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Alex1-1-1/world-fastest-punch/internal/logger"
	"github.com/Alex1-1-1/world-fastest-punch/internal/validator"
)

// Accounts provisioned at startup. Judges and admins are never self-service.
type SeedUser struct {
	Username    string `mapstructure:"username"     json:"username"     validate:"required"`
	DisplayName string `mapstructure:"display_name" json:"display_name"`
	Email       string `mapstructure:"email"        json:"email"        validate:"required,email"`
	Token       string `mapstructure:"token"        json:"token"        validate:"required"`
	Role        string `mapstructure:"role"         json:"role"         validate:"required,oneof=USER JUDGE ADMIN"`
	Active      *bool  `mapstructure:"active"       json:"active"       validate:"required"`
}

type PostgresConfig struct {
	User               string        `validate:"required"`
	Password           string        `validate:"required"`
	Host               string        `validate:"required"`
	Database           string        `validate:"required"`
	MaxIdleConnections int           `validate:"required" mapstructure:"max_idle_connections"`
	MaxOpenConnections int           `validate:"required" mapstructure:"max_open_connections"`
	ConnectionTTL      time.Duration `validate:"required" mapstructure:"connection_ttl"`
	Port               int16         `validate:"required"`
}

type LocalMediaConfig struct {
	Root    string `mapstructure:"root"     validate:"required"`
	BaseURL string `mapstructure:"base_url" validate:"required"`
}

type CloudinaryMediaConfig struct {
	CloudName    string `mapstructure:"cloud_name"     validate:"required"`
	APIKey       string `mapstructure:"api_key"        validate:"required"`
	APISecret    string `mapstructure:"api_secret"     validate:"required"`
	LogoPublicID string `mapstructure:"logo_public_id" validate:"required"`
	// Overridable for tests; defaults to the public Cloudinary endpoints.
	UploadURL   string `mapstructure:"upload_url"`
	DeliveryURL string `mapstructure:"delivery_url"`
}

type MediaConfig struct {
	// Selects the storage backend once at startup: "local" or "cloudinary".
	Backend          string                 `mapstructure:"backend"           validate:"required,oneof=local cloudinary"`
	WatermarkCaption string                 `mapstructure:"watermark_caption"`
	Local            *LocalMediaConfig      `mapstructure:"local"`
	Cloudinary       *CloudinaryMediaConfig `mapstructure:"cloudinary"`
}

type S3ArchiveConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	SSLEnabled      bool   `mapstructure:"ssl_enabled"`
	Enabled         bool   `mapstructure:"enabled"`
}

type RateLimitConfig struct {
	RedisHost       string `mapstructure:"redis_host"`
	GlobalPerMinute int64  `mapstructure:"global_per_minute"`
	SubmitPerMinute int64  `mapstructure:"submit_per_minute"`
	FailOpen        bool   `mapstructure:"fail_open"`
}

type SlogConfig struct {
	Level int `mapstructure:"level"`
}

type GormLogConfig struct {
	Level        int  `mapstructure:"level"`
	TraceQueries bool `mapstructure:"trace_queries"`
}

type LoggingConfig struct {
	Gorm    GormLogConfig `mapstructure:"gorm"`
	App     SlogConfig    `mapstructure:"app"`
	UseOTLP bool          `mapstructure:"use_otlp"`
}

// See punchapi.yaml for an example config
type Config struct {
	Postgres             *PostgresConfig  `mapstructure:"postgres"              validate:"required"`
	Media                *MediaConfig     `mapstructure:"media"                 validate:"required"`
	Logging              *LoggingConfig   `mapstructure:"logging"`
	S3Archive            *S3ArchiveConfig `mapstructure:"s3_archive"`
	RateLimit            *RateLimitConfig `mapstructure:"ratelimit"`
	ListenAddress        string           `mapstructure:"listen_address"        validate:"required"`
	Users                []SeedUser       `mapstructure:"users"`
	GracefulShutdownSecs int64            `mapstructure:"graceful_shutdown_secs"`
}

const (
	AppLogLevel            string = "logging.app.level"
	EnvPrefix              string = "punchapi"
	GlobalPerMinute        string = "ratelimit.global_per_minute"
	GormLogLevel           string = "logging.gorm.level"
	GormTraceQueries       string = "logging.gorm.trace_queries"
	GracefulShutdownSecs   string = "graceful_shutdown_secs"
	ListenAddress          string = "listen_address"
	MediaBackend           string = "media.backend"
	MediaLocalBaseURL      string = "media.local.base_url"
	MediaLocalRoot         string = "media.local.root"
	MediaWatermarkCaption  string = "media.watermark_caption"
	PostgresDatabase       string = "postgres.database"
	PostgresHost           string = "postgres.host"
	PostgresPassword       string = "postgres.password"
	PostgresPort           string = "postgres.port"
	PostgresUser           string = "postgres.user"
	PostgresMaxIdle        string = "postgres.max_idle_connections"
	PostgresMaxOpen        string = "postgres.max_open_connections"
	PostgresConnectionTTL  string = "postgres.connection_ttl"
	RateLimitFailOpen      string = "ratelimit.fail_open"
	RedisHost              string = "ratelimit.redis_host"
	S3AccessKeyID          string = "s3_archive.access_key_id"
	S3ArchiveEnabled       string = "s3_archive.enabled"
	S3SSLEnabled           string = "s3_archive.ssl_enabled"
	S3SecretAccessKey      string = "s3_archive.secret_access_key" // #nosec
	SubmitPerMinute        string = "ratelimit.submit_per_minute"
	UseOTLP                string = "logging.use_otlp"
)

var configReady = false
var config Config

func GetConfig() (*Config, error) {
	if configReady {
		logger.Logger.Debug("returning already-loaded config")
		return &config, nil
	}
	logger.Logger.Info("loading config")

	v := viper.New()

	v.SetConfigName("punchapi")

	v.AddConfigPath("/etc/punchapi/")
	v.AddConfigPath(".")

	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AutomaticEnv()

	// workaround for https://github.com/spf13/viper/issues/761
	// bind env vars explicitly so they unmarshal into the nested struct
	err := v.BindEnv(PostgresPassword)
	if err != nil {
		return nil, err
	}
	err = v.BindEnv(S3AccessKeyID)
	if err != nil {
		return nil, err
	}
	err = v.BindEnv(S3SecretAccessKey)
	if err != nil {
		return nil, err
	}
	err = v.BindEnv(MediaLocalRoot)
	if err != nil {
		return nil, err
	}

	v.SetDefault(ListenAddress, "[::]:1323")
	v.SetDefault(PostgresHost, "localhost")
	v.SetDefault(PostgresPort, 5432)
	v.SetDefault(PostgresMaxIdle, 2)
	v.SetDefault(PostgresMaxOpen, 10)
	v.SetDefault(PostgresConnectionTTL, 10*time.Minute)
	v.SetDefault(GormLogLevel, int(slog.LevelDebug))
	v.SetDefault(GormTraceQueries, false)
	v.SetDefault(AppLogLevel, int(slog.LevelDebug))

	v.SetDefault(MediaBackend, "local")
	v.SetDefault(MediaLocalRoot, "media")
	v.SetDefault(MediaLocalBaseURL, "http://localhost:1323/media")
	v.SetDefault(MediaWatermarkCaption, "World Fastest Punch")

	v.SetDefault(S3ArchiveEnabled, false)
	v.SetDefault(S3SSLEnabled, true)

	v.SetDefault(RedisHost, "localhost")
	v.SetDefault(GlobalPerMinute, 0)
	v.SetDefault(SubmitPerMinute, 0)
	v.SetDefault(RateLimitFailOpen, true)

	v.SetDefault(UseOTLP, false)

	v.SetDefault(GracefulShutdownSecs, 30)

	err = v.ReadInConfig()
	if err != nil {
		// ignore config file not found to allow pure env config
		if _, ok := err.(*viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	err = v.Unmarshal(&config)
	if err != nil {
		configReady = false
		return nil, err
	}

	valid := validator.Create()
	err = valid.Validate(&config)
	if err != nil {
		configReady = false
		return nil, err
	}

	if err := config.Media.check(); err != nil {
		configReady = false
		return nil, err
	}

	configReady = true
	return &config, nil
}

// The backend-specific sections are only mandatory for the selected backend,
// which the struct tags cannot express.
func (m *MediaConfig) check() error {
	switch m.Backend {
	case "local":
		if m.Local == nil {
			return fmt.Errorf("media backend is local but media.local is not configured")
		}
	case "cloudinary":
		if m.Cloudinary == nil {
			return fmt.Errorf("media backend is cloudinary but media.cloudinary is not configured")
		}
	}

	return nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s",
		url.QueryEscape(c.Postgres.User),
		url.QueryEscape(c.Postgres.Password),
		c.Postgres.Host, c.Postgres.Port,
		url.QueryEscape(c.Postgres.Database),
	)
}
