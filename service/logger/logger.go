// Package logger builds the zap loggers of the wave commands and service.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level zapcore.Level
	Mode  FileMode
	// Path is "stderr", "stdout" or the path of a log file.
	Path string
	// DevMode makes DPanic level logs panic.
	DevMode bool
}

// New returns a JSON logger writing to the sink selected by conf.
func New(conf Config) (*zap.Logger, error) {
	w, err := OpenFile(conf.Path, conf.Mode)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), w, conf.Level)
	opts := []zap.Option{zap.ErrorOutput(w)}
	if conf.DevMode {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...), nil
}

func encoderConfig() zapcore.EncoderConfig {
	c := zap.NewProductionEncoderConfig()
	c.EncodeTime = zapcore.ISO8601TimeEncoder
	c.EncodeDuration = zapcore.StringDurationEncoder
	c.MessageKey = "msg"
	return c
}
