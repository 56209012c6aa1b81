package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type         string `yaml:"type"` // sqlite, mysql
	DSN          string `yaml:"dsn"`
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type StorageConfig struct {
	UploadDir   string `yaml:"upload_dir"`
	PublicDir   string `yaml:"public_dir"`
	MaxFileSize int64  `yaml:"max_file_size"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "4000",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type:         "sqlite",
			DSN:          "./data/contracts.db",
			Host:         "localhost",
			Port:         "3306",
			User:         "root",
			Name:         "clean_service_db",
			MaxOpenConns: 10,
		},
		Auth: AuthConfig{
			JWTSecret: "your-secret-key",
			TokenTTL:  24 * time.Hour,
		},
		Storage: StorageConfig{
			UploadDir:   "./uploads",
			PublicDir:   "./public",
			MaxFileSize: 5 * 1024 * 1024,
		},
		Redis: RedisConfig{
			TTL: time.Minute,
		},
	}
}

func loadConfig() *Config {
	config := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		yaml.Unmarshal(data, config)
	}

	// .env 不覆盖已存在的环境变量
	_ = godotenv.Load()

	applyEnv(config)
	return config
}

// applyEnv 环境变量优先级高于配置文件
func applyEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		config.Server.Mode = mode
	}

	// 数据库环境变量
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		config.Database.Port = dbPort
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPassword := os.Getenv("DB_PASSWORD"); dbPassword != "" {
		config.Database.Password = dbPassword
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		config.Database.Name = dbName
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	} else if config.Database.Type == "mysql" {
		config.Database.DSN = config.Database.MySQLDSN()
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}

	if uploadDir := os.Getenv("UPLOAD_DIR"); uploadDir != "" {
		config.Storage.UploadDir = uploadDir
	}
	if publicDir := os.Getenv("PUBLIC_DIR"); publicDir != "" {
		config.Storage.PublicDir = publicDir
	}
	if config.Storage.UploadDir == "" {
		config.Storage.UploadDir = filepath.Join(".", "uploads")
	}

	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		config.Redis.Addr = redisAddr
	}
}

// MySQLDSN 根据 host/user/password/name 拼接 MySQL DSN
func (d DatabaseConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
