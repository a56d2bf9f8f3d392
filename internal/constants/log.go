package constants

// 日志级别常量
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// 日志字段名常量
const (
	LogFieldDeviceID  = "device_id"
	LogFieldConnID    = "conn_id"
	LogFieldRequestID = "request_id"
	LogFieldReqType   = "request_type"
	LogFieldRemote    = "remote_addr"
	LogFieldReason    = "reason"
	LogFieldError     = "error"
	LogFieldDuration  = "duration"
	LogFieldCode      = "code"
)

// 日志格式常量
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// 日志输出常量
const (
	LogOutputStdout = "stdout"
	LogOutputStderr = "stderr"
	LogOutputFile   = "file"
)
