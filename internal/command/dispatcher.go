package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"facelink-core/internal/config"
	"facelink-core/internal/constants"
	coreerrs "facelink-core/internal/errors"
	"facelink-core/internal/packet"
	"facelink-core/internal/session"
	"facelink-core/internal/utils"
)

// Dispatcher 命令调度器，面向上层调用方的公开入口。
// 每次调度：查注册表 → 登记Waiter → 入队发送 → 等待定型结果。
type Dispatcher struct {
	hub *session.Hub
	cfg config.Tunables

	// 请求ID生成函数，测试注入冲突用
	newRequestID func(length int) string
}

// NewDispatcher 创建调度器
func NewDispatcher(hub *session.Hub) *Dispatcher {
	return &Dispatcher{
		hub:          hub,
		cfg:          hub.Tunables(),
		newRequestID: utils.RandomRequestID,
	}
}

// Do 调度一条命令。fields为操作特有字段；pass为设备认证摘要，原样随帧下发；
// timeoutOverride为0时使用目录默认超时。
// 返回error表示调用方用法错误（未知命令、缺必填字段），设备侧异常都定型在Outcome中。
func (d *Dispatcher) Do(ctx context.Context, deviceID, pass, requestType string,
	fields map[string]interface{}, timeoutOverride time.Duration) (Outcome, error) {

	spec, ok := LookupSpec(requestType)
	if !ok {
		return Outcome{}, fmt.Errorf("unknown command type: %q", requestType)
	}
	if deviceID == "" {
		return Outcome{}, fmt.Errorf("device id must not be empty")
	}
	for _, required := range spec.Required {
		if _, ok := fields[required]; !ok {
			return Outcome{}, fmt.Errorf("command %s: missing required field %q", requestType, required)
		}
	}

	started := time.Now()
	outcome, requestID := d.dispatch(ctx, deviceID, pass, spec, fields, timeoutOverride)
	utils.LogRequest(deviceID, requestID, requestType, outcome.Status.String(), time.Since(started))
	return outcome, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, deviceID, pass string, spec Spec,
	fields map[string]interface{}, timeoutOverride time.Duration) (Outcome, string) {

	worker, ok := d.hub.Registry().Lookup(deviceID)
	if !ok {
		return Outcome{Status: StatusDeviceOffline}, ""
	}

	correlator := d.hub.Correlator()
	if correlator.InflightFor(deviceID) >= d.cfg.MaxInflightPerDevice {
		return Outcome{Status: StatusDeviceBusy}, ""
	}

	deadline := time.Now().Add(d.timeoutFor(spec, timeoutOverride))

	// 请求ID冲突时换新ID重试，重试耗尽视为内部故障
	var waiter *session.Waiter
	var requestID string
	for attempt := 0; attempt < constants.MaxArmRetries; attempt++ {
		requestID = d.newRequestID(d.cfg.RequestIDLength)
		var err error
		waiter, err = correlator.Arm(worker, requestID, deadline)
		if err == nil {
			break
		}
		if !errors.Is(err, coreerrs.ErrDuplicateRequestID) {
			return Outcome{Status: StatusDeviceOffline}, requestID
		}
	}
	if waiter == nil {
		utils.WithDevice(deviceID).Errorf("Request id space exhausted after %d attempts", constants.MaxArmRetries)
		return Outcome{Status: StatusDeviceBusy}, ""
	}

	frame := buildFrame(spec.RequestType, requestID, deviceID, pass, fields)

	switch worker.Send(frame) {
	case session.SendBackpressure:
		correlator.Abandon(waiter, session.Completion{Result: session.ResultCancelled})
		return Outcome{Status: StatusDeviceBusy}, requestID
	case session.SendDead:
		correlator.Abandon(waiter, session.Completion{Result: session.ResultChannelLost})
		return Outcome{Status: StatusDeviceOffline}, requestID
	}

	return translate(waiter.Await(ctx)), requestID
}

// timeoutFor 解析生效超时：调用方覆盖 > 目录固定值 > 配置默认
func (d *Dispatcher) timeoutFor(spec Spec, override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	switch spec.Class {
	case TimeoutLong:
		return d.cfg.LongRequestTimeout
	case TimeoutFixed:
		return spec.Timeout
	default:
		return d.cfg.DefaultRequestTimeout
	}
}

// buildFrame 组装命令帧：公共字段加操作特有字段
func buildFrame(requestType, requestID, deviceID, pass string, fields map[string]interface{}) packet.Message {
	frame := make(packet.Message, len(fields)+4)
	for k, v := range fields {
		frame[k] = v
	}
	frame[constants.FieldRequestType] = requestType
	frame[constants.FieldRequestID] = requestID
	frame[constants.FieldDeviceID] = deviceID
	frame[constants.FieldPass] = pass
	return frame
}

// translate 把Waiter完结翻译为调用方可见的定型结果
func translate(completion session.Completion) Outcome {
	switch completion.Result {
	case session.ResultReply:
		return translateReply(completion.Reply)
	case session.ResultTimeout:
		return Outcome{Status: StatusTimeout}
	case session.ResultChannelLost:
		return Outcome{Status: StatusDeviceOffline}
	case session.ResultCancelled:
		return Outcome{Status: StatusCancelled}
	default:
		return Outcome{Status: StatusDeviceOffline}
	}
}

func translateReply(reply packet.Message) Outcome {
	code, ok := reply.Code()
	if !ok {
		// 应答无法解出code，按未知设备错误处理
		return Outcome{
			Status:      StatusDeviceError,
			Description: coreerrs.DescUnknown,
			Reply:       reply,
		}
	}
	if code == 0 {
		return Outcome{Status: StatusOk, Reply: reply}
	}
	return Outcome{
		Status:      StatusDeviceError,
		Code:        code,
		Description: coreerrs.DescribeDeviceCode(code),
		Reply:       reply,
	}
}
