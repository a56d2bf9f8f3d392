package command

import (
	"time"

	"facelink-core/internal/constants"
)

// TimeoutClass 命令的默认超时类别
type TimeoutClass int

const (
	TimeoutDefault TimeoutClass = iota // 使用default_request_timeout
	TimeoutLong                        // 使用long_request_timeout（固件升级等）
	TimeoutFixed                       // 使用Spec.Timeout固定值
)

// Spec 一种命令的目录项：消息类型、必填字段、默认超时
type Spec struct {
	RequestType string
	Required    []string
	Class       TimeoutClass
	Timeout     time.Duration // Class为TimeoutFixed时生效
}

// catalog 命令目录，键为request_type。字段名与设备固件约定一致
var catalog = map[string]Spec{
	constants.RequestTypeAddUser: {
		RequestType: constants.RequestTypeAddUser,
		Required: []string{
			constants.FieldUserID, constants.FieldUserList, constants.FieldGroup,
			constants.FieldImageType, constants.FieldImageContent, constants.FieldUserInfo,
		},
		Class:   TimeoutFixed,
		Timeout: 100 * time.Second,
	},
	constants.RequestTypeUpdateUser: {
		RequestType: constants.RequestTypeUpdateUser,
		Required: []string{
			constants.FieldUserID, constants.FieldGroup,
			constants.FieldImageType, constants.FieldImageContent, constants.FieldUserInfo,
		},
	},
	constants.RequestTypeDeleteUser: {
		RequestType: constants.RequestTypeDeleteUser,
		Required:    []string{constants.FieldUserID, constants.FieldUserList, constants.FieldGroup},
	},
	constants.RequestTypeDeleteUserList: {
		RequestType: constants.RequestTypeDeleteUserList,
		Required:    []string{constants.FieldUserList},
	},
	constants.RequestTypeGetUserList: {
		RequestType: constants.RequestTypeGetUserList,
		Required:    []string{constants.FieldStart, constants.FieldLength},
	},
	constants.RequestTypeGetUserInfo: {
		RequestType: constants.RequestTypeGetUserInfo,
		Required:    []string{constants.FieldUserID},
	},
	constants.RequestTypeRecognize: {
		RequestType: constants.RequestTypeRecognize,
		Required: []string{
			constants.FieldImageType, constants.FieldImageContent,
			constants.FieldMinFscore, constants.FieldMaxResultNum,
		},
	},
	constants.RequestTypeRestartDevice: {
		RequestType: constants.RequestTypeRestartDevice,
	},
	constants.RequestTypeUpgrade: {
		RequestType: constants.RequestTypeUpgrade,
		Required:    []string{constants.FieldURL},
		Class:       TimeoutLong,
	},
	constants.RequestTypeSetRtmpConf: {
		RequestType: constants.RequestTypeSetRtmpConf,
		Required:    []string{constants.FieldChannel, constants.FieldRtmpEnable, constants.FieldRtmpAddr},
	},
	constants.RequestTypePtzControl: {
		RequestType: constants.RequestTypePtzControl,
		Required: []string{
			constants.FieldChannel, constants.FieldSpeedH,
			constants.FieldSpeedV, constants.FieldPtzCmd,
		},
	},
	constants.RequestTypeSetFaceParam: {
		RequestType: constants.RequestTypeSetFaceParam,
	},
	constants.RequestTypeGetFaceParam: {
		RequestType: constants.RequestTypeGetFaceParam,
	},
	constants.RequestTypeGetLogFile: {
		RequestType: constants.RequestTypeGetLogFile,
		Required:    []string{constants.FieldLogName},
		Class:       TimeoutFixed,
		Timeout:     30 * time.Second,
	},
	constants.RequestTypeFormatDisk: {
		RequestType: constants.RequestTypeFormatDisk,
		Class:       TimeoutFixed,
		Timeout:     30 * time.Second,
	},
}

// LookupSpec 查目录项
func LookupSpec(requestType string) (Spec, bool) {
	spec, ok := catalog[requestType]
	return spec, ok
}

// Operations 目录中全部request_type
func Operations() []string {
	ops := make([]string, 0, len(catalog))
	for op := range catalog {
		ops = append(ops, op)
	}
	return ops
}
