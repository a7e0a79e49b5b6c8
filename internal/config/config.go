package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Mail     MailConfig     `mapstructure:"mail"`
	Avatar   AvatarConfig   `mapstructure:"avatar"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// PublicURL is the externally reachable base URL used in verification links.
	PublicURL                string `mapstructure:"public_url"                  validate:"required,url"`
	ReadHeaderTimeoutSeconds int    `mapstructure:"read_header_timeout_seconds" validate:"gte=0"`
	ShutdownTimeoutSeconds   int    `mapstructure:"shutdown_timeout_seconds"    validate:"gt=0"`
	// MaxListLimit caps the limit query parameter. Zero leaves it unbounded.
	MaxListLimit int `mapstructure:"max_list_limit" validate:"gte=0"`
}

// ShutdownTimeout returns the graceful shutdown deadline.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url"                       validate:"required,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"            validate:"gt=0"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"            validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gt=0"`
	// AutoMigrate applies pending migrations on startup.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// AuthConfig contains the settings of the email verification tokens.
// An empty secret is replaced by a random per-process key at startup, so
// tokens issued before a restart stop validating.
type AuthConfig struct {
	EmailTokenSecret          string `mapstructure:"email_token_secret"           validate:"omitempty,min=32"`
	EmailTokenLifetimeMinutes int    `mapstructure:"email_token_lifetime_minutes" validate:"gt=0"`
}

// MailConfig describes the SMTP relay. Leaving Server or From empty disables
// delivery; verification emails are then only logged.
type MailConfig struct {
	Server         string `mapstructure:"server"`
	Port           int    `mapstructure:"port"            validate:"gte=0,lt=65536"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	From           string `mapstructure:"from"            validate:"omitempty,email"`
	FromName       string `mapstructure:"from_name"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gt=0"`
}

// Enabled reports whether enough settings are present to send mail.
func (c MailConfig) Enabled() bool {
	return c.Server != "" && c.From != ""
}

// SendTimeout bounds the delivery of a single message.
func (c MailConfig) SendTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AvatarConfig selects and configures the avatar image host.
type AvatarConfig struct {
	// Provider is "cloudinary", "s3" or "none".
	Provider       string `mapstructure:"provider"         validate:"oneof=none cloudinary s3"`
	Folder         string `mapstructure:"folder"           validate:"required"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"  validate:"gt=0"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" validate:"gt=0"`

	CloudinaryCloudName string `mapstructure:"cloudinary_cloud_name" validate:"required_if=Provider cloudinary"`
	CloudinaryAPIKey    string `mapstructure:"cloudinary_api_key"    validate:"required_if=Provider cloudinary"`
	CloudinaryAPISecret string `mapstructure:"cloudinary_api_secret" validate:"required_if=Provider cloudinary"`

	S3Endpoint      string `mapstructure:"s3_endpoint"        validate:"required_if=Provider s3"`
	S3AccessKey     string `mapstructure:"s3_access_key"      validate:"required_if=Provider s3"`
	S3SecretKey     string `mapstructure:"s3_secret_key"      validate:"required_if=Provider s3"`
	S3Bucket        string `mapstructure:"s3_bucket"          validate:"required_if=Provider s3"`
	S3PublicBaseURL string `mapstructure:"s3_public_base_url" validate:"omitempty,url"`
}

// UploadTimeout returns the deadline for a single avatar upload.
func (c AvatarConfig) UploadTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
