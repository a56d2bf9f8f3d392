package constants

import "time"

// 网络与帧相关常量
const (
	// MaxFrameSize 单帧最大字节数，图片内容以base64随帧传输，需要较大的上限
	MaxFrameSize = 8 * 1024 * 1024

	// FrameDelimiter 帧分隔符，设备端以换行结尾的JSON对象为一帧
	FrameDelimiter = '\n'

	// RedactLimit 日志中明文保留的字段最大字节数，超过则脱敏
	RedactLimit = 1024
)

// 会话相关默认值
const (
	// DefaultHeartbeatInterval 设备心跳周期默认值
	DefaultHeartbeatInterval = 60 * time.Second

	// DefaultIdleTimeoutFactor 空闲超时相对心跳周期的倍数
	DefaultIdleTimeoutFactor = 3

	// DefaultRequestTimeout 普通命令默认超时
	DefaultRequestTimeout = 15 * time.Second

	// DefaultLongRequestTimeout 长命令（固件升级等）默认超时
	DefaultLongRequestTimeout = 10 * time.Minute

	// DefaultDrainDeadline 通道关闭时出站队列的排空时限
	DefaultDrainDeadline = 2 * time.Second

	// DefaultMaxOutboundQueue 单通道出站队列上限
	DefaultMaxOutboundQueue = 64

	// DefaultMaxInflightPerDevice 单设备并发在途请求上限
	DefaultMaxInflightPerDevice = 32

	// DefaultRequestIDLength 生成的请求ID长度
	DefaultRequestIDLength = 4

	// MinRequestIDLength 请求ID最小长度
	MinRequestIDLength = 4

	// MaxArmRetries 请求ID冲突时的最大重试次数
	MaxArmRetries = 8
)

// 控制面消息类型
const (
	RequestTypeDeviceOnline = "deviceOnline"
	RequestTypeHeartbeat    = "heartbeat"
)

// 命令消息类型，与设备固件约定一致
const (
	RequestTypeAddUser        = "addUser"
	RequestTypeUpdateUser     = "updateUser"
	RequestTypeDeleteUser     = "deleteUser"
	RequestTypeDeleteUserList = "deleteUserList"
	RequestTypeGetUserList    = "getUserList"
	RequestTypeGetUserInfo    = "getUserInfo"
	RequestTypeRecognize      = "recognize"
	RequestTypeRestartDevice  = "restartDevice"
	RequestTypeUpgrade        = "upgrade"
	RequestTypeSetRtmpConf    = "setRtmpConf"
	RequestTypePtzControl     = "ptzControl"
	RequestTypeSetFaceParam   = "setFaceParam"
	RequestTypeGetFaceParam   = "getFaceParam"
	RequestTypeGetLogFile     = "getLogFile"
	RequestTypeFormatDisk     = "formatDisk"
)

// 帧字段名常量
const (
	FieldRequestType  = "request_type"
	FieldRespType     = "resp_type"
	FieldRequestID    = "request_id"
	FieldDeviceID     = "device_id"
	FieldPass         = "pass"
	FieldCode         = "code"
	FieldLog          = "log"
	FieldTimestamp    = "timestamp"
	FieldUserID       = "user_id"
	FieldUserList     = "user_list"
	FieldGroup        = "group"
	FieldImageType    = "image_type"
	FieldImageContent = "image_content"
	FieldUserInfo     = "user_info"
	FieldStart        = "start"
	FieldLength       = "length"
	FieldMinFscore    = "min_fscore"
	FieldMaxResultNum = "max_result_num"
	FieldURL          = "URL"
	FieldChannel      = "channel"
	FieldRtmpEnable   = "RtmpEnable"
	FieldRtmpAddr     = "RtmpServerAddr"
	FieldSpeedH       = "speed_h"
	FieldSpeedV       = "speed_v"
	FieldPtzCmd       = "ptz_cmd"
	FieldLogName      = "log_name"
)
