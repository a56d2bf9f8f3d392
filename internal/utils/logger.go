package utils

import (
	"fmt"
	"os"
	"time"

	"facelink-core/internal/constants"

	"github.com/sirupsen/logrus"
)

// Logger 全局日志实例
var Logger *logrus.Logger

// 初始化日志系统
func init() {
	Logger = logrus.New()

	// 设置默认格式为JSON
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	// 设置默认输出到stdout
	Logger.SetOutput(os.Stdout)

	// 设置默认级别为info
	Logger.SetLevel(logrus.InfoLevel)
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	Output string `json:"output" yaml:"output"`
	File   string `json:"file" yaml:"file"`
}

// InitLogger 初始化日志系统
func InitLogger(config *LogConfig) error {
	if config == nil {
		return nil
	}

	// 设置日志级别
	if config.Level != "" {
		level, err := logrus.ParseLevel(config.Level)
		if err != nil {
			return fmt.Errorf("invalid log level: %s", config.Level)
		}
		Logger.SetLevel(level)
	}

	// 设置日志格式
	if config.Format == constants.LogFormatText {
		Logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	// 设置日志输出
	if config.Output == constants.LogOutputFile && config.File != "" {
		file, err := os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %v", err)
		}
		Logger.SetOutput(file)
	} else if config.Output == constants.LogOutputStderr {
		Logger.SetOutput(os.Stderr)
	}

	return nil
}

// WithFields 创建带字段的日志条目
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithDevice 创建带设备信息的日志条目
func WithDevice(deviceID string) *logrus.Entry {
	return Logger.WithField(constants.LogFieldDeviceID, deviceID)
}

// WithConn 创建带连接信息的日志条目
func WithConn(connID string) *logrus.Entry {
	return Logger.WithField(constants.LogFieldConnID, connID)
}

// 便捷的全局日志方法
func Debug(args ...interface{}) {
	Logger.Debug(args...)
}

func Info(args ...interface{}) {
	Logger.Info(args...)
}

func Warn(args ...interface{}) {
	Logger.Warn(args...)
}

func Error(args ...interface{}) {
	Logger.Error(args...)
}

func Fatal(args ...interface{}) {
	Logger.Fatal(args...)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	Logger.Fatalf(format, args...)
}

// LogHeartbeat 记录心跳日志
func LogHeartbeat(deviceID string, userNum int64) {
	Logger.WithFields(logrus.Fields{
		"operation":                "heartbeat",
		constants.LogFieldDeviceID: deviceID,
		"user_num":                 userNum,
	}).Debugf("Heartbeat received from device %s", deviceID)
}

// LogConnection 记录连接建立/断开日志
func LogConnection(connID, remoteAddr string, connected bool) {
	entry := Logger.WithFields(logrus.Fields{
		"operation":              "connection",
		constants.LogFieldConnID: connID,
		constants.LogFieldRemote: remoteAddr,
		"connected":              connected,
	})

	if connected {
		entry.Infof("Connection established from %s", remoteAddr)
	} else {
		entry.Infof("Connection terminated for %s", remoteAddr)
	}
}

// LogRequest 记录命令请求日志
func LogRequest(deviceID, requestID, requestType string, outcome string, duration time.Duration) {
	Logger.WithFields(logrus.Fields{
		"operation":                 "command",
		constants.LogFieldDeviceID:  deviceID,
		constants.LogFieldRequestID: requestID,
		constants.LogFieldReqType:   requestType,
		"outcome":                   outcome,
		constants.LogFieldDuration:  duration,
	}).Infof("Command %s for device %s finished: %s", requestType, deviceID, outcome)
}
