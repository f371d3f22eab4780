package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Library code logs through this package, programs pick the output with Init or InitQuiet.
// Until then everything is discarded.
var zapLog = zap.NewNop()

func Init(debug bool) {
	var config zap.Config
	var encoderConf zapcore.EncoderConfig

	if debug {
		config = zap.NewDevelopmentConfig()
		encoderConf = zap.NewDevelopmentEncoderConfig()

		// Use a human readable time
		encoderConf.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewProductionConfig()
		encoderConf = zap.NewProductionEncoderConfig()

		// Use unix timestamp millis for production
		encoderConf.EncodeTime = zapcore.EpochMillisTimeEncoder
	}

	config.EncoderConfig = encoderConf
	build(config)
}

// InitQuiet only lets errors through, for tools whose stdout is parsed by scripts.
func InitQuiet() {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	config.EncoderConfig.EncodeTime = zapcore.EpochMillisTimeEncoder
	config.OutputPaths = []string{"stderr"}
	build(config)
}

func build(config zap.Config) {
	// Skip one caller as thats our own log package
	logger, err := config.Build(zap.AddCallerSkip(1))

	// Panic if we cant log correctly
	if err != nil {
		panic(err)
	}

	zapLog = logger
}

// Named returns a child logger that is not affected by the caller skip of the wrappers below.
func Named(name string) *zap.Logger {
	return zapLog.WithOptions(zap.AddCallerSkip(-1)).Named(name)
}

func Sync() {
	_ = zapLog.Sync()
}

func Debug(message string, fields ...zap.Field) {
	zapLog.Debug(message, fields...)
}

func Info(message string, fields ...zap.Field) {
	zapLog.Info(message, fields...)
}

func Warn(message string, fields ...zap.Field) {
	zapLog.Warn(message, fields...)
}

func Error(message string, fields ...zap.Field) {
	zapLog.Error(message, fields...)
}

func Fatal(message string, fields ...zap.Field) {
	zapLog.Fatal(message, fields...)
}

func Panic(message string, fields ...zap.Field) {
	zapLog.Panic(message, fields...)
}
