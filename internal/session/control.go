package session

import (
	"facelink-core/internal/constants"
	"facelink-core/internal/events"
	"facelink-core/internal/packet"
	"facelink-core/internal/utils"
)

// handleControl 控制面消息：deviceOnline与heartbeat，其余类型到不了这里
func (h *Hub) handleControl(w *Worker, msg packet.Message) {
	switch msg.RequestType() {
	case constants.RequestTypeDeviceOnline:
		h.handleDeviceOnline(w, msg)
	case constants.RequestTypeHeartbeat:
		h.handleHeartbeat(w, msg)
	}
}

// handleDeviceOnline 通道上的第一条消息。只在Handshaking状态接受；
// 同一设备的旧通道被原子顶替并走Draining善后。
func (h *Hub) handleDeviceOnline(w *Worker, msg packet.Message) {
	deviceID := msg.DeviceID()
	if deviceID == "" {
		utils.WithConn(w.ID()).Warnf("deviceOnline without device_id, closing channel")
		w.Close(ReasonProtocolError)
		return
	}

	if w.State() != StateHandshaking {
		// 已Live的通道重复上线是协议违例
		utils.WithConn(w.ID()).WithField(constants.LogFieldDeviceID, deviceID).
			Warnf("deviceOnline on %s channel, closing", w.State())
		w.Close(ReasonProtocolError)
		return
	}

	w.deviceID.Store(deviceID)

	// 顶替在注册表写锁内完成：旧通道先Draining并完结其全部Waiter，
	// 新绑定对Lookup可见时旧通道已不可寻址
	prev := h.registry.Register(deviceID, w, func(prev *Worker) {
		prev.setState(StateDraining)
		h.correlator.FailAllFor(prev, ReasonDisplaced)
	})
	if prev != nil {
		utils.WithDevice(deviceID).Infof("Device reconnected, displacing channel %s with %s", prev.ID(), w.ID())
		go prev.Close(ReasonDisplaced)
	}

	if !w.enqueue(ackFrame(constants.RequestTypeDeviceOnline, deviceID)) {
		utils.WithConn(w.ID()).Warnf("Failed to enqueue deviceOnline ack")
	}

	utils.WithDevice(deviceID).WithField(constants.LogFieldConnID, w.ID()).
		Infof("Device online from %s", w.RemoteAddr())

	if h.bus != nil {
		h.bus.Publish(events.TopicDeviceOnline, deviceID, map[string]interface{}(msg.Clone()))
	}
}

// handleHeartbeat 心跳刷新last_seen（读循环已刷新），回应答并发事件
func (h *Hub) handleHeartbeat(w *Worker, msg packet.Message) {
	deviceID := w.DeviceID()
	if deviceID == "" {
		// 未上线先心跳，忽略
		utils.WithConn(w.ID()).Debugf("Heartbeat before deviceOnline dropped")
		return
	}

	if !w.enqueue(ackFrame(constants.RequestTypeHeartbeat, deviceID)) {
		utils.WithDevice(deviceID).Warnf("Failed to enqueue heartbeat ack")
	}

	userNum, _ := msg.Int("user_num")
	utils.LogHeartbeat(deviceID, userNum)

	if h.bus != nil {
		h.bus.Publish(events.TopicDeviceHeartbeat, deviceID, map[string]interface{}(msg.Clone()))
	}
}

// ackFrame 控制面应答帧，字段名与设备固件约定一致
func ackFrame(respType, deviceID string) packet.Message {
	return packet.Message{
		constants.FieldRespType: respType,
		constants.FieldDeviceID: deviceID,
		constants.FieldCode:     0,
		constants.FieldLog:      "'" + respType + "' success",
	}
}
