package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"user-auth-api/internal/core/auth"
	"user-auth-api/internal/core/cache"
	"user-auth-api/internal/core/config"
	"user-auth-api/internal/core/database"
	"user-auth-api/internal/core/logger"
	"user-auth-api/internal/core/server"
	"user-auth-api/internal/domain"
	"user-auth-api/internal/repo"
	"user-auth-api/internal/service"
	"user-auth-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, "")
	stop()
	os.Exit(code)
}

// run 返回进程退出码；ctx 取消即优雅关闭。defer 的清理在 os.Exit 之前都已执行。
func run(ctx context.Context, configPath string) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		// 配置不合法不允许对外服务
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log, cleanup := logger.Build(logger.Options{
		Level:       cfg.Log.Level,
		JSON:        cfg.Log.JSON,
		AddCaller:   true,
		Development: !cfg.Log.JSON,
		Service:     cfg.App.Name,
		Rotate: logger.FileRotate{
			Enable:     cfg.Log.File.Enable,
			Filename:   cfg.Log.File.Filename,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	defer cleanup()

	users := mustUserRepo(cfg, log)
	if cfg.Redis.Addr != "" {
		c := cache.New(cache.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			Prefix:      cfg.Redis.Prefix,
			DialTimeout: 2 * time.Second,
		})
		defer func() { _ = c.Close() }()
		if err := c.Ping(context.Background()); err != nil {
			log.Warn("redis unreachable, lookups fall through to db", zap.Error(err))
		}
		users = repo.NewCachedUserRepo(users, c, time.Duration(cfg.Redis.UserTTLSec)*time.Second)
		log.Info("user cache enabled", zap.String("redis", cfg.Redis.Addr))
	}

	jwter := &auth.JWTer{
		Secret:    []byte(cfg.JWT.Secret),
		Issuer:    cfg.JWT.Issuer,
		Audience:  cfg.JWT.Audience,
		Algorithm: cfg.JWT.Algorithm,
		TTL:       cfg.JWT.ExpiresIn,
		NotBefore: cfg.JWT.NotBefore,
		Leeway:    cfg.JWT.Leeway,
	}
	svc := service.NewAuthService(users, auth.NewHasher(cfg.Auth.BcryptCost), jwter,
		service.Options{RevealUnknownEmail: cfg.Auth.RevealUnknownEmail}, log)

	r := router.NewAPIEngine(log, svc, router.Options{
		RequestTimeout: time.Duration(cfg.App.HTTP.RequestTimeoutSec) * time.Second,
		MaxBodyBytes:   cfg.App.HTTP.MaxBodyBytes,
		MaxConcurrent:  cfg.App.HTTP.MaxConcurrent,
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(addr, r, server.Timeouts{
		Read:  time.Duration(cfg.App.HTTP.ReadTimeoutSec) * time.Second,
		Write: time.Duration(cfg.App.HTTP.WriteTimeoutSec) * time.Second,
		Idle:  time.Duration(cfg.App.HTTP.IdleTimeoutSec) * time.Second,
	}, log)

	log.Info("auth api listening",
		zap.String("env", cfg.App.Env),
		zap.String("open", "http://"+addr),
		zap.Duration("token_ttl", cfg.JWT.ExpiresIn),
	)

	if err := server.Run(ctx, srv, log, 10*time.Second); err != nil {
		log.Error("auth api start FAILED", zap.Error(err))
		return 1
	}
	log.Info("auth api stopped gracefully")
	return 0
}

func mustUserRepo(cfg *config.Config, l *zap.Logger) domain.UserRepository {
	if cfg.DB.Driver == "memory" {
		l.Warn("using in-memory user store, data is lost on restart")
		return repo.NewMemoryUserRepo()
	}

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Host:               cfg.DB.Host,
		Port:               cfg.DB.Port,
		Name:               cfg.DB.Name,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Log:                logger.ToStdLogger(l.Named("gorm"), zapcore.InfoLevel),
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err), zap.String("dsn", database.MaskDSN(cfg.DB.DSN)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.Ping(ctx, db); err != nil {
		l.Fatal("could not connect to database",
			zap.String("env", cfg.App.Env), zap.String("db", cfg.DB.Name), zap.Error(err))
	}
	l.Info("database connected",
		zap.String("env", cfg.App.Env), zap.String("driver", cfg.DB.Driver), zap.String("db", cfg.DB.Name))

	users := repo.NewUserRepo(db)
	if cfg.DB.AutoMigrate {
		if err := users.AutoMigrate(); err != nil {
			l.Fatal("automigrate failed", zap.Error(err))
		}
		l.Info("automigrate done")
	}
	return users
}
