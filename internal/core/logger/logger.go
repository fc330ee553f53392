package logger

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileRotate 本地文件落盘，按大小切割
type FileRotate struct {
	Enable     bool
	Filename   string // logs/app.log
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Options struct {
	Level       string // debug / info / warn / error，认不出按 info
	JSON        bool
	AddCaller   bool
	Development bool
	Service     string // 非空时每条日志带 service 字段
	Rotate      FileRotate
	Out         io.Writer // 默认 os.Stdout
}

// Build 返回 logger 和退出前要调用的 cleanup（刷缓冲、关文件）
func Build(opt Options) (*zap.Logger, func()) {
	lvl := parseLevel(opt.Level)
	enc := newEncoder(opt.JSON)

	out := opt.Out
	if out == nil {
		out = os.Stdout
	}
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.AddSync(out), lvl)}

	rot := newRotator(opt.Rotate)
	if rot != nil {
		cores = append(cores, zapcore.NewCore(enc, fileSink{rot}, lvl))
	}

	// 每秒同一条消息前 100 条全记，之后每 100 条记 1 条
	core := zapcore.NewSamplerWithOptions(zapcore.NewTee(cores...), time.Second, 100, 100)

	var zopts []zap.Option
	if opt.AddCaller {
		zopts = append(zopts, zap.AddCaller())
	}
	if opt.Development {
		zopts = append(zopts, zap.Development())
	}
	if opt.Service != "" {
		zopts = append(zopts, zap.Fields(zap.String("service", opt.Service)))
	}

	l := zap.New(core, zopts...)
	return l, func() {
		_ = l.Sync()
		if rot != nil {
			_ = rot.Close()
		}
	}
}

func parseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.Set(s); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func newEncoder(json bool) zapcore.Encoder {
	if json {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeCaller = zapcore.ShortCallerEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func newRotator(r FileRotate) *lumberjack.Logger {
	if !r.Enable || r.Filename == "" {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   r.Filename,
		MaxSize:    max(1, r.MaxSizeMB),
		MaxBackups: max(0, r.MaxBackups),
		MaxAge:     max(0, r.MaxAgeDays),
		Compress:   r.Compress,
	}
}

// lumberjack 没有 Sync，zapcore.AddSync 包一层会每次空调用
type fileSink struct{ *lumberjack.Logger }

func (fileSink) Sync() error { return nil }

type levelWriter struct {
	l     *zap.Logger
	level zapcore.Level
}

func (w levelWriter) Write(p []byte) (int, error) {
	if ce := w.l.Check(w.level, strings.TrimRight(string(p), "\r\n")); ce != nil {
		ce.Write()
	}
	return len(p), nil
}

// ToStdLogger 给只认 *log.Logger 的组件（gorm logger、http.Server.ErrorLog）用
func ToStdLogger(l *zap.Logger, level zapcore.Level) *log.Logger {
	return log.New(levelWriter{l: l, level: level}, "", 0)
}
