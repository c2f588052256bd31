package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileName   = "wallet-cleanup.log"
	maxFileSizeMB = 100
	maxBackups    = 5
)

// LogOption 日志初始化参数，由 config.LogConfig 转换而来
type LogOption struct {
	Format   string // "console" 或 "json"
	LogDir   string // 为空时只输出到控制台
	Level    string // debug / info / warn / error
	Compress bool   // 是否压缩轮转后的旧日志
}

// 未初始化前使用 Nop，避免测试或库调用时 panic
var sugar = zap.NewNop().Sugar()

// Init 初始化全局日志：控制台按配置级别输出，文件记录全部级别并按大小轮转
func Init(opt LogOption) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(opt.Level))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", opt.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")

	consoleCfg := encCfg
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), level),
	}

	if opt.LogDir != "" {
		if err := os.MkdirAll(opt.LogDir, 0o755); err != nil {
			return fmt.Errorf("create log dir %s: %w", opt.LogDir, err)
		}

		var fileEnc zapcore.Encoder
		if opt.Format == "json" {
			fileEnc = zapcore.NewJSONEncoder(encCfg)
		} else {
			fileEnc = zapcore.NewConsoleEncoder(encCfg)
		}

		writer := &lumberjack.Logger{
			Filename:   filepath.Join(opt.LogDir, logFileName),
			MaxSize:    maxFileSizeMB,
			MaxBackups: maxBackups,
			Compress:   opt.Compress,
		}
		cores = append(cores, zapcore.NewCore(fileEnc, zapcore.AddSync(writer), zapcore.DebugLevel))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	sugar = l.Sugar()
	return nil
}

func Debugf(template string, args ...interface{}) {
	sugar.Debugf(template, args...)
}

func Infof(template string, args ...interface{}) {
	sugar.Infof(template, args...)
}

func Warnf(template string, args ...interface{}) {
	sugar.Warnf(template, args...)
}

func Errorf(template string, args ...interface{}) {
	sugar.Errorf(template, args...)
}

// Sync 刷新缓冲，进程退出前调用
func Sync() {
	_ = sugar.Sync()
}
