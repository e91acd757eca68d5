package config

import (
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const defaultConfigFile = "config.yaml"

// Config holds application level configuration loaded from an optional YAML
// file and overridden by environment variables.
type Config struct {
	ServerPort  string `koanf:"server_port"`
	MySQLDSN    string `koanf:"mysql_dsn"`
	RedisAddr   string `koanf:"redis_addr"`
	RedisDB     int    `koanf:"redis_db"`
	RedisPass   string `koanf:"redis_password"`
	JWTSecret   string `koanf:"jwt_secret"`
	SwaggerHost string `koanf:"swagger_host"`
	ResetDB     bool   `koanf:"reset_db"`

	LogLevel  string `koanf:"log_level"`
	LogPretty bool   `koanf:"log_pretty"`

	// StorageBucketURL is a gocloud blob URL, e.g. file:///var/lib/carfix/uploads
	// or mem://. When empty, images live on local disk under UploadsDir.
	StorageBucketURL string `koanf:"storage_bucket_url"`
	UploadsDir       string `koanf:"uploads_dir"`
	MaxUploadFiles   int    `koanf:"max_upload_files"`
	MaxUploadBytes   int64  `koanf:"max_upload_bytes"`

	// Seeder only.
	AdminEmail    string `koanf:"admin_email"`
	AdminPassword string `koanf:"admin_password"`
}

// Load builds Config with sensible defaults, then applies config.yaml (if
// present, or the file named by CONFIG_FILE) and finally the environment.
func Load() (*Config, error) {
	cfg := defaults()
	k := koanf.New(".")

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}

	known := knownKeys()
	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(key)
			if _, ok := known[key]; !ok || value == "" {
				return "", nil
			}
			return key, value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ServerPort:     "8080",
		MySQLDSN:       "user:password@tcp(localhost:3306)/carfix?charset=utf8mb4&parseTime=True&loc=Local",
		RedisAddr:      "localhost:6379",
		JWTSecret:      "change-me",
		LogLevel:       "info",
		UploadsDir:     "uploads",
		MaxUploadFiles: 5,
		MaxUploadBytes: 5 << 20,
		AdminEmail:     "admin@carfix.local",
	}
}

// knownKeys lists the koanf keys the environment may override.
func knownKeys() map[string]struct{} {
	return map[string]struct{}{
		"server_port":        {},
		"mysql_dsn":          {},
		"redis_addr":         {},
		"redis_db":           {},
		"redis_password":     {},
		"jwt_secret":         {},
		"swagger_host":       {},
		"reset_db":           {},
		"log_level":          {},
		"log_pretty":         {},
		"storage_bucket_url": {},
		"uploads_dir":        {},
		"max_upload_files":   {},
		"max_upload_bytes":   {},
		"admin_email":        {},
		"admin_password":     {},
	}
}
