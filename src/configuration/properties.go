package configuration

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// DefaultConfigFile is used when the user presses ENTER at the config prompt.
const DefaultConfigFile = "photoapp-config.ini"

var ErrConfigNotFound = errors.New("config file does not exist")

type (
	Properties struct {
		// ConfigFile is the INI file the properties were read from. The S3
		// credentials profile is looked up in the same file.
		ConfigFile string

		S3     S3Properties         `envPrefix:"S3_"`
		RDS    RDSProperties        `envPrefix:"RDS_"`
		Log    LogProperties        `envPrefix:"LOG_"`
		Server HttpServerProperties `envPrefix:"HTTP_"`
	}

	S3Properties struct {
		Host       string `ini:"endpoint" env:"HOST"`
		Bucket     string `ini:"bucket_name" env:"BUCKET"`
		Region     string `ini:"region_name" env:"REGION"`
		Profile    string `ini:"profile" env:"PROFILE"`
		UseSSL     bool   `ini:"use_ssl" env:"USE_SSL"`
		AccessKey  string `ini:"access_key" env:"ACCESS_KEY"`
		SecretKey  string `ini:"secret_key" env:"SECRET_KEY"`
		DownloadTo string `ini:"download_dir" env:"DOWNLOAD_DIR"`
	}

	RDSProperties struct {
		Endpoint string `ini:"endpoint" env:"ENDPOINT"`
		Port     int    `ini:"port_number" env:"PORT"`
		User     string `ini:"user_name" env:"USER"`
		Password string `ini:"user_pwd" env:"PASSWORD"`
		DBName   string `ini:"db_name" env:"DB_NAME"`
	}

	LogProperties struct {
		Level      string `ini:"level" env:"LEVEL"`
		Path       string `ini:"path" env:"PATH"`
		MaxSizeMB  int    `ini:"max_size_mb" env:"MAX_SIZE_MB"`
		MaxBackups int    `ini:"max_backups" env:"MAX_BACKUPS"`
		MaxAgeDays int    `ini:"max_age_days" env:"MAX_AGE_DAYS"`
		Compress   bool   `ini:"compress" env:"COMPRESS"`
	}

	HttpServerProperties struct {
		Port        string        `ini:"port" env:"PORT"`
		ReadTimeout time.Duration `ini:"read_timeout" env:"READ_TIMEOUT"`
		// RateLimitPerMinute caps requests per client IP. Zero disables it.
		RateLimitPerMinute int `ini:"rate_limit_per_minute" env:"RATE_LIMIT_PER_MINUTE"`
	}
)

func defaults() *Properties {
	return &Properties{
		S3: S3Properties{
			Host:       "s3.amazonaws.com",
			Profile:    "s3readwrite",
			UseSSL:     true,
			DownloadTo: ".",
		},
		RDS: RDSProperties{
			Port: 3306,
		},
		Log: LogProperties{
			Level:      "info",
			Path:       "photoapp.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Server: HttpServerProperties{
			Port:               "8088",
			ReadTimeout:        5 * time.Second,
			RateLimitPerMinute: 120,
		},
	}
}

// ReadProperties loads defaults, then the INI file at path, then an optional
// .env file, then environment variables. Later layers win.
func ReadProperties(path string) (*Properties, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}

	config := defaults()
	config.ConfigFile = path

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	sections := map[string]any{
		"s3":   &config.S3,
		"rds":  &config.RDS,
		"log":  &config.Log,
		"http": &config.Server,
	}
	for name, target := range sections {
		if !file.HasSection(name) {
			continue
		}
		if err := file.Section(name).MapTo(target); err != nil {
			return nil, fmt.Errorf("read config section [%s]: %w", name, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (p *Properties) validate() error {
	switch {
	case p.S3.Bucket == "":
		return errors.New("config: [s3] bucket_name is required")
	case p.RDS.Endpoint == "":
		return errors.New("config: [rds] endpoint is required")
	case p.RDS.User == "":
		return errors.New("config: [rds] user_name is required")
	case p.RDS.DBName == "":
		return errors.New("config: [rds] db_name is required")
	}
	return nil
}

// DSN builds the MySQL data source name for the metadata store.
func (r RDSProperties) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		r.User,
		r.Password,
		r.Endpoint,
		r.Port,
		r.DBName,
	)
}
