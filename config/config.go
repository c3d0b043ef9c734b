package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	BlobStore BlobStoreConfig `yaml:"blob_store"`
	Auth      AuthConfig      `yaml:"auth"`
	Upload    UploadConfig    `yaml:"upload"`
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`
	Notify    NotifyConfig    `yaml:"notify"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Charset      string `yaml:"charset"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type RedisConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	Password         string `yaml:"password"`
	DB               int    `yaml:"db"`
	UploadTaskExpire int    `yaml:"upload_task_expire"`
}

// BlobStoreConfig selects and configures the object-store backend.
// Type is one of "filesystem", "s3" or "memory".
type BlobStoreConfig struct {
	Type          string `yaml:"type"`
	BasePath      string `yaml:"base_path"`
	PublicBaseURL string `yaml:"public_base_url"`
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	URLExpireMin  int    `yaml:"url_expire_minutes"`
}

type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret"`
	AllowAnonymous bool   `yaml:"allow_anonymous"`
}

type UploadConfig struct {
	MaxFileSize     int64 `yaml:"max_file_size"`
	TaskExpireHours int   `yaml:"task_expire_hours"`
}

type ThumbnailConfig struct {
	Enabled bool `yaml:"enabled"`
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
	Quality int  `yaml:"quality"`
}

type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

type CleanupConfig struct {
	Interval int `yaml:"interval"`
}

var AppConfig *Config

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	AppConfig = &cfg
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Charset == "" {
		cfg.Database.Charset = "utf8mb4"
	}
	if cfg.BlobStore.Type == "" {
		cfg.BlobStore.Type = "filesystem"
	}
	if cfg.BlobStore.URLExpireMin == 0 {
		cfg.BlobStore.URLExpireMin = 60
	}
	if cfg.Upload.MaxFileSize == 0 {
		cfg.Upload.MaxFileSize = 50 * 1024 * 1024
	}
	if cfg.Upload.TaskExpireHours == 0 {
		cfg.Upload.TaskExpireHours = 24
	}
	if cfg.Redis.UploadTaskExpire == 0 {
		cfg.Redis.UploadTaskExpire = 86400
	}
	if cfg.Thumbnail.Width == 0 {
		cfg.Thumbnail.Width = 320
	}
	if cfg.Thumbnail.Height == 0 {
		cfg.Thumbnail.Height = 320
	}
	if cfg.Thumbnail.Quality == 0 {
		cfg.Thumbnail.Quality = 80
	}
	if cfg.Notify.TimeoutMs == 0 {
		cfg.Notify.TimeoutMs = 3000
	}
}
