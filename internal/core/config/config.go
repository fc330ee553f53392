package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int
	MaxBodyBytes      int64
	MaxConcurrent     int64
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

// JWT 对应原服务的 jsonwebtoken 选项
type JWT struct {
	Secret    string
	ExpiresIn time.Duration
	NotBefore time.Duration
	Audience  string
	Issuer    string
	Algorithm string
	Leeway    time.Duration
}

type Auth struct {
	BcryptCost         int
	RevealUnknownEmail bool
}

type Redis struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	Prefix     string `mapstructure:"prefix"`
	UserTTLSec int    `mapstructure:"userTTLSec"`
}

type DB struct {
	Driver             string
	DSN                string
	Host               string
	Port               int
	Name               string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Config struct {
	App   App
	Log   Log
	JWT   JWT
	Auth  Auth
	DB    DB
	Redis Redis `mapstructure:"redis"`
}

// Error 启动期配置错误，进程不得继续提供服务
type Error struct {
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Field == "" {
		if e.Err != nil {
			return "config: " + e.Msg + ": " + e.Err.Error()
		}
		return "config: " + e.Msg
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "user-auth-api")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.http.host", "127.0.0.1")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 10)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.http.requestTimeoutSec", 10)
	v.SetDefault("app.http.maxBodyBytes", 1<<20)
	v.SetDefault("app.http.maxConcurrent", 300)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.enable", false)
	v.SetDefault("log.file.filename", "logs/app.log")
	v.SetDefault("log.file.maxSizeMB", 100)
	v.SetDefault("log.file.maxBackups", 7)
	v.SetDefault("log.file.maxAgeDays", 30)
	v.SetDefault("log.file.compress", false)

	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 3306)
	v.SetDefault("db.name", "users")
	v.SetDefault("db.username", "root")
	v.SetDefault("db.password", "rootpassword")
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	// 没有默认值的 key 也要登记，否则 AutomaticEnv 的值进不了 Unmarshal
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiresIn", "1m")
	v.SetDefault("jwt.notBefore", "0s")
	v.SetDefault("jwt.audience", "site-users")
	v.SetDefault("jwt.issuer", "thomas")
	v.SetDefault("jwt.algorithm", "HS256")
	v.SetDefault("jwt.leeway", "0s")

	v.SetDefault("auth.bcryptCost", bcrypt.DefaultCost)
	v.SetDefault("auth.revealUnknownEmail", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "auth:")
	v.SetDefault("redis.userTTLSec", 60)
}

// 兼容原服务的环境变量名
var envAliases = map[string][]string{
	"app.env":       {"APP_APP_ENV", "APP_ENV", "NODE_ENV"},
	"app.http.host": {"APP_APP_HTTP_HOST", "IP_ADDRESS"},
	"app.http.port": {"APP_APP_HTTP_PORT", "PORT"},
	"db.port":       {"APP_DB_PORT", "DB_PORT"},
}

// Load 读取配置文件 + 环境变量并做严格校验。
// path 为空时按 CONFIG_PATH → ./configs/config.<env>.yaml 的顺序查找，文件不存在则只用默认值和环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	explicit := path != ""
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = fmt.Sprintf("./configs/config.%s.yaml", v.GetString("app.env"))
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, &Error{Msg: "read " + path, Err: err}
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, &Error{Msg: "config file " + path, Err: err}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, &Error{Msg: "unmarshal", Err: err}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.App.Env {
	case "prod", "dev", "test":
	default:
		return &Error{Field: "app.env", Msg: fmt.Sprintf("must be one of prod|dev|test, got %q", c.App.Env)}
	}
	if c.App.HTTP.Port < 1 || c.App.HTTP.Port > 65535 {
		return &Error{Field: "app.http.port", Msg: fmt.Sprintf("invalid port %d", c.App.HTTP.Port)}
	}

	switch c.DB.Driver {
	case "mysql", "postgres":
		if c.DB.DSN == "" && (c.DB.Host == "" || c.DB.Name == "") {
			return &Error{Field: "db", Msg: "either dsn or host+name is required"}
		}
		if c.DB.DSN == "" && (c.DB.Port < 1 || c.DB.Port > 65535) {
			return &Error{Field: "db.port", Msg: fmt.Sprintf("invalid port %d", c.DB.Port)}
		}
	case "memory":
	default:
		return &Error{Field: "db.driver", Msg: fmt.Sprintf("unsupported driver %q", c.DB.Driver)}
	}

	switch c.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return &Error{Field: "jwt.algorithm", Msg: fmt.Sprintf("must be one of HS256|HS384|HS512, got %q", c.JWT.Algorithm)}
	}
	if c.JWT.Secret == "" {
		return &Error{Field: "jwt.secret", Msg: "required"}
	}
	if c.App.Env == "prod" && len(c.JWT.Secret) < 32 {
		return &Error{Field: "jwt.secret", Msg: "must be at least 32 bytes in prod"}
	}
	if c.JWT.ExpiresIn <= 0 && c.App.Env != "test" {
		return &Error{Field: "jwt.expiresIn", Msg: "must be positive"}
	}
	if c.JWT.NotBefore < 0 || c.JWT.Leeway < 0 {
		return &Error{Field: "jwt", Msg: "notBefore and leeway must not be negative"}
	}

	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return &Error{Field: "auth.bcryptCost", Msg: fmt.Sprintf("must be within %d..%d", bcrypt.MinCost, bcrypt.MaxCost)}
	}
	return nil
}
