package command

import (
	"context"

	"facelink-core/internal/constants"
)

// 本文件是命令目录的类型化封装：每个操作一个入口，
// 参数名与设备固件的字段约定一一对应。

// AddUserArgs 人脸入库参数
type AddUserArgs struct {
	UserID       string
	UserList     int64  // 目标人脸库编号
	Group        int64  // 分组编号
	ImageType    string // 图片编码类型，通常为base64
	ImageContent string // 已编码的图片内容
	UserInfo     string // 业务侧附加信息，原样下发
}

// AddUser 向设备人脸库添加用户
func (d *Dispatcher) AddUser(ctx context.Context, deviceID, pass string, args AddUserArgs) (Outcome, error) {
	return d.Do(ctx, deviceID, pass, constants.RequestTypeAddUser, map[string]interface{}{
		constants.FieldUserID:       args.UserID,
		constants.FieldUserList:     args.UserList,
		constants.FieldGroup:        args.Group,
		constants.FieldImageType:    args.ImageType,
		constants.FieldImageContent: args.ImageContent,
		constants.FieldUserInfo:     args.UserInfo,
	}, 0)
}

// UpdateUserArgs 人脸更新参数
type UpdateUserArgs struct {
	UserID       string
	Group        int64
	ImageType    string
	ImageContent string
	UserInfo     string
}

// UpdateUser 更新设备人脸库中的用户
func (d *Dispatcher) UpdateUser(ctx context.Context, deviceID, pass string, args UpdateUserArgs) (Outcome, error) {
	return d.Do(ctx, deviceID, pass, constants.RequestTypeUpdateUser, map[string]interface{}{
		constants.FieldUserID:       args.UserID,
		constants.FieldGroup:        args.Group,
		constants.FieldImageType:    args.ImageType,
		constants.FieldImageContent: args.ImageContent,
		constants.FieldUserInfo:     args.UserInfo,
	}, 0)
}

// DeleteUser 从设备人脸库删除用户
func (d *Dispatcher) DeleteUser(ctx context.Context, deviceID, pass, userID string, userList, group int64) (Outcome, error) {
	return d.Do(ctx, deviceID, pass, constants.RequestTypeDeleteUser, map[string]interface{}{
		constants.FieldUserID:   userID,
		constants.FieldUserList: userList,
		constants.FieldGroup:    group,
	}, 0)
}

// DeleteUserList 删除整个人脸库
func (d *Dispatcher) DeleteUserList(ctx context.Context, deviceID, pass string, userList int64) (Outcome, error) {
	return d.Do(ctx, deviceID, pass, constants.RequestTypeDeleteUserList, map[string]interface{}{
		constants.FieldUserList: userList,
	}, 0)
}

// GetUserList 分页拉取设备上的用户列表
func (d *Dispatcher) GetUserList(ctx context.Context, deviceID, pass string, start, length int64) (Outcome, error) {
	return d.Do(ctx, deviceID, pass, constants.RequestTypeGetUserList, map[string]interface{}{
		constants.FieldStart:  start,
		constants.FieldLength: length,
	}, 0)
}

// GetUserInfo 查询单个用户信息
func (d *Dispatcher) GetUserInfo(ctx context.Context, deviceID, pass, userID string) (Outcome, error) {
	return d.Do(ctx, deviceID, pass, constants.RequestTypeGetUserInfo, map[string]interface{}{
		constants.FieldUserID: userID,
	}, 0)
}

// RecognizeArgs 识别图片参数
type RecognizeArgs struct {
	ImageType    string
	ImageContent string
	MinFscore    int64 // 最低置信度
	MaxResultNum int64 // 最多返回条数
}

// Recognize 下发图片让设备做一次识别
func (d *Dispatcher) Recognize(ctx context.Context, deviceID, pass string, args RecognizeArgs) (Outcome, error) {
	return d.Do(ctx, deviceID, pass, constants.RequestTypeRecognize, map[string]interface{}{
		constants.FieldImageType:    args.ImageType,
		constants.FieldImageContent: args.ImageContent,
		constants.FieldMinFscore:    args.MinFscore,
		constants.FieldMaxResultNum: args.MaxResultNum,
	}, 0)
}

// RestartDevice 重启设备
func (d *Dispatcher) RestartDevice(ctx context.Context, deviceID, pass string) (Outcome, error) {
	return d.Do(ctx, deviceID, pass, constants.RequestTypeRestartDevice, map[string]interface{}{}, 0)
}

// Upgrade 固件升级，设备从URL拉取固件包。走长超时
func (d *Dispatcher) Upgrade(ctx context.Context, deviceID, pass, url string) (Outcome, error) {
	return d.Do(ctx, deviceID, pass, constants.RequestTypeUpgrade, map[string]interface{}{
		constants.FieldURL: url,
	}, 0)
}

// SetRtmpConf 配置RTMP推流
func (d *Dispatcher) SetRtmpConf(ctx context.Context, deviceID, pass string, channel, enable int64, serverAddr string) (Outcome, error) {
	return d.Do(ctx, deviceID, pass, constants.RequestTypeSetRtmpConf, map[string]interface{}{
		constants.FieldChannel:    channel,
		constants.FieldRtmpEnable: enable,
		constants.FieldRtmpAddr:   serverAddr,
	}, 0)
}

// PtzControlArgs 云台控制参数
type PtzControlArgs struct {
	Channel int64
	SpeedH  int64
	SpeedV  int64
	PtzCmd  int64
}

// PtzControl 云台控制
func (d *Dispatcher) PtzControl(ctx context.Context, deviceID, pass string, args PtzControlArgs) (Outcome, error) {
	return d.Do(ctx, deviceID, pass, constants.RequestTypePtzControl, map[string]interface{}{
		constants.FieldChannel: args.Channel,
		constants.FieldSpeedH:  args.SpeedH,
		constants.FieldSpeedV:  args.SpeedV,
		constants.FieldPtzCmd:  args.PtzCmd,
	}, 0)
}

// SetFaceParam 下发人脸识别参数，payload由业务侧给定、原样透传
func (d *Dispatcher) SetFaceParam(ctx context.Context, deviceID, pass string, params map[string]interface{}) (Outcome, error) {
	return d.Do(ctx, deviceID, pass, constants.RequestTypeSetFaceParam, params, 0)
}

// GetFaceParam 读取设备当前人脸识别参数
func (d *Dispatcher) GetFaceParam(ctx context.Context, deviceID, pass string) (Outcome, error) {
	return d.Do(ctx, deviceID, pass, constants.RequestTypeGetFaceParam, map[string]interface{}{}, 0)
}

// GetLogFile 拉取设备日志文件
func (d *Dispatcher) GetLogFile(ctx context.Context, deviceID, pass, logName string) (Outcome, error) {
	return d.Do(ctx, deviceID, pass, constants.RequestTypeGetLogFile, map[string]interface{}{
		constants.FieldLogName: logName,
	}, 0)
}

// FormatDisk 格式化设备存储
func (d *Dispatcher) FormatDisk(ctx context.Context, deviceID, pass string) (Outcome, error) {
	return d.Do(ctx, deviceID, pass, constants.RequestTypeFormatDisk, map[string]interface{}{}, 0)
}
