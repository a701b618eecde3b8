// Package logging 构建 zap 日志
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ModeRelease = "release"
	ModeDebug   = "debug"
)

// New 按模式构建日志, release 为 JSON 输出, 其余为带颜色的开发格式
func New(mode string) (*zap.Logger, error) {
	var config zap.Config

	if mode == ModeRelease {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return config.Build()
}

// Sync 刷新缓冲, 忽略 stderr 不支持 sync 的错误
func Sync(logger *zap.Logger) {
	if logger != nil {
		_ = logger.Sync()
	}
}
