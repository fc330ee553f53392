package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrUnsupportedDriver = errors.New("database: unsupported driver")

type Opts struct {
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
	LogLevel           string
	// SQL 日志输出，nil 时用 gorm 默认（stdout）
	Log *log.Logger
}

// Dialector 根据驱动选择 gorm 方言；DSN 为空时用 host/port/name 拼
func Dialector(o Opts) (gorm.Dialector, error) {
	dsn := strings.TrimSpace(o.DSN)
	switch o.Driver {
	case "postgres":
		if dsn == "" {
			dsn = postgresDSN(o)
		}
		return postgres.Open(dsn), nil
	case "mysql":
		if dsn == "" {
			dsn = mysqlDSN(o)
		} else {
			dsn = normalizeMySQLDSN(dsn, o.Username, o.Password)
		}
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}
}

func NewGorm(o Opts) (*gorm.DB, error) {
	dial, err := Dialector(o)
	if err != nil {
		return nil, err
	}
	return Open(dial, o)
}

// Open 打开连接并设置连接池；TranslateError 让唯一约束冲突统一成 gorm.ErrDuplicatedKey
func Open(dial gorm.Dialector, o Opts) (*gorm.DB, error) {
	gl := logger.Default.LogMode(logLevel(o.LogLevel))
	if o.Log != nil {
		gl = logger.New(o.Log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel(o.LogLevel),
			IgnoreRecordNotFoundError: true,
		})
	}
	db, err := gorm.Open(dial, &gorm.Config{
		Logger:                 gl,
		TranslateError:         true,
		SkipDefaultTransaction: true, // 只在需要时手动开 Tx
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if o.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	}
	if o.ConnMaxLifetimeMin > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)
	}
	return db, nil
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func logLevel(s string) logger.LogLevel {
	switch s {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}

func postgresDSN(o Opts) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(o.Username, o.Password),
		Host:     fmt.Sprintf("%s:%d", o.Host, o.Port),
		Path:     "/" + o.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func mysqlDSN(o Opts) string {
	return fmt.Sprintf("%stcp(%s:%d)/%s?charset=utf8mb4&parseTime=true", mysqlCred(o.Username, o.Password), o.Host, o.Port, o.Name)
}

func mysqlCred(user, pass string) string {
	switch {
	case user == "":
		return ""
	case pass == "":
		return user + "@"
	}
	return user + ":" + pass + "@"
}

// MaskDSN 日志里隐藏密码
func MaskDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "****")
			return strings.Replace(u.String(), "%2A%2A%2A%2A", "****", 1)
		}
		return dsn
	}
	if at := strings.Index(dsn, "@"); at > 0 {
		if colon := strings.Index(dsn[:at], ":"); colon > 0 {
			return dsn[:colon+1] + "****" + dsn[at:]
		}
	}
	return dsn
}

// normalizeMySQLDSN 把 URL 形式（mysql://u:p@host:port/db，可带 jdbc: 前缀）
// 转成 go-sql-driver 的 u:p@tcp(host:port)/db；原生 DSN 原样返回。
// user/pass 非空时覆盖 URL 里的凭据。
func normalizeMySQLDSN(input, user, pass string) string {
	in := strings.TrimPrefix(strings.TrimSpace(input), "jdbc:")
	if !strings.HasPrefix(in, "mysql://") {
		return in
	}
	u, err := url.Parse(in)
	if err != nil {
		return in // 交给驱动报错
	}
	if u.User != nil {
		if user == "" {
			user = u.User.Username()
		}
		if p, ok := u.User.Password(); ok && pass == "" {
			pass = p
		}
	}

	q := u.Query()
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "true")
	}
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	return mysqlCred(user, pass) + "tcp(" + u.Host + ")/" + strings.TrimPrefix(u.Path, "/") + "?" + q.Encode()
}
