package command

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"facelink-core/internal/config"
	"facelink-core/internal/constants"
	"facelink-core/internal/packet"
	"facelink-core/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeTransport 内存传输，模拟一台在线设备
type pipeTransport struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newPipeTransport() *pipeTransport {
	return &pipeTransport{
		in:     make(chan []byte, 64),
		out:    make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (p *pipeTransport) ReadFrame() ([]byte, error) {
	select {
	case data := <-p.in:
		return data, nil
	case <-p.closed:
		return nil, io.EOF
	}
}

func (p *pipeTransport) WriteFrame(data []byte) error {
	select {
	case p.out <- data:
		return nil
	case <-p.closed:
		return errors.New("pipe closed")
	}
}

func (p *pipeTransport) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *pipeTransport) RemoteAddr() string {
	return "pipe:device"
}

func (p *pipeTransport) push(t *testing.T, msg packet.Message) {
	t.Helper()
	data, err := packet.Encode(msg)
	require.NoError(t, err)
	select {
	case p.in <- data:
	case <-time.After(time.Second):
		t.Fatal("push blocked")
	}
}

func (p *pipeTransport) nextOut(t *testing.T) packet.Message {
	t.Helper()
	select {
	case data := <-p.out:
		msg, err := packet.Decode(bytes.TrimSpace(data))
		require.NoError(t, err)
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for outbound frame")
	}
	return nil
}

// respond 启动设备端应答循环：每收到一条命令帧就按code回应答，
// 并把收到的命令帧送进返回的通道。
func (p *pipeTransport) respond(code int64) <-chan packet.Message {
	seen := make(chan packet.Message, 16)
	go func() {
		for {
			select {
			case data := <-p.out:
				msg, err := packet.Decode(bytes.TrimSpace(data))
				if err != nil {
					continue
				}
				select {
				case seen <- msg:
				default:
				}
				reply := packet.Message{
					constants.FieldRespType:  msg.RequestType(),
					constants.FieldRequestID: msg.RequestID(),
					constants.FieldDeviceID:  msg.DeviceID(),
					constants.FieldCode:      code,
				}
				raw, err := packet.Encode(reply)
				if err != nil {
					continue
				}
				select {
				case p.in <- raw:
				case <-p.closed:
					return
				}
			case <-p.closed:
				return
			}
		}
	}()
	return seen
}

func testTunables() config.Tunables {
	return config.Tunables{
		HeartbeatInterval:     time.Second,
		IdleTimeout:           5 * time.Second,
		DefaultRequestTimeout: 500 * time.Millisecond,
		LongRequestTimeout:    2 * time.Second,
		DrainDeadline:         100 * time.Millisecond,
		MaxOutboundQueue:      8,
		MaxInflightPerDevice:  4,
		RequestIDLength:       4,
	}
}

func newTestHub(t *testing.T, tun config.Tunables) *session.Hub {
	t.Helper()
	hub := session.NewHub(context.Background(), tun, nil)
	t.Cleanup(hub.Close)
	return hub
}

// connectDevice 建立一条设备通道并完成上线握手
func connectDevice(t *testing.T, hub *session.Hub, deviceID string) *pipeTransport {
	t.Helper()

	pt := newPipeTransport()
	require.NotNil(t, hub.HandleTransport(pt))

	pt.push(t, packet.Message{
		constants.FieldRequestType: constants.RequestTypeDeviceOnline,
		constants.FieldDeviceID:    deviceID,
	})

	ack := pt.nextOut(t)
	require.Equal(t, constants.RequestTypeDeviceOnline, ack.RespType())
	return pt
}

func TestDo_UnknownCommand(t *testing.T) {
	hub := newTestHub(t, testTunables())
	d := NewDispatcher(hub)

	_, err := d.Do(context.Background(), "dev-1", "", "selfDestruct", nil, 0)
	assert.Error(t, err)
}

func TestDo_MissingRequiredField(t *testing.T) {
	hub := newTestHub(t, testTunables())
	d := NewDispatcher(hub)

	_, err := d.Do(context.Background(), "dev-1", "", constants.RequestTypeAddUser,
		map[string]interface{}{constants.FieldUserID: "u1"}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field")
}

func TestDo_EmptyDeviceID(t *testing.T) {
	hub := newTestHub(t, testTunables())
	d := NewDispatcher(hub)

	_, err := d.Do(context.Background(), "", "", constants.RequestTypeRestartDevice, nil, 0)
	assert.Error(t, err)
}

func TestDo_DeviceOffline(t *testing.T) {
	hub := newTestHub(t, testTunables())
	d := NewDispatcher(hub)

	outcome, err := d.Do(context.Background(), "dev-1", "", constants.RequestTypeRestartDevice,
		map[string]interface{}{}, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusDeviceOffline, outcome.Status)
}

func TestDo_Ok(t *testing.T) {
	hub := newTestHub(t, testTunables())
	d := NewDispatcher(hub)

	pt := connectDevice(t, hub, "dev-1")
	seen := pt.respond(0)

	outcome, err := d.Do(context.Background(), "dev-1", "digest", constants.RequestTypeGetFaceParam,
		map[string]interface{}{}, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusOk, outcome.Status)
	assert.NotNil(t, outcome.Reply)

	// 命令帧携带公共字段
	cmd := <-seen
	assert.Equal(t, constants.RequestTypeGetFaceParam, cmd.RequestType())
	assert.Equal(t, "dev-1", cmd.DeviceID())
	assert.Equal(t, "digest", cmd.String(constants.FieldPass))
	assert.Len(t, cmd.RequestID(), 4)
}

func TestDo_DeviceErrorCode(t *testing.T) {
	hub := newTestHub(t, testTunables())
	d := NewDispatcher(hub)

	pt := connectDevice(t, hub, "dev-1")
	pt.respond(-101)

	outcome, err := d.Do(context.Background(), "dev-1", "", constants.RequestTypeGetFaceParam,
		map[string]interface{}{}, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusDeviceError, outcome.Status)
	assert.Equal(t, int64(-101), outcome.Code)
	assert.Equal(t, "The file name ID is the same", outcome.Description)
	assert.NotNil(t, outcome.Reply)
}

func TestDo_Timeout(t *testing.T) {
	hub := newTestHub(t, testTunables())
	d := NewDispatcher(hub)

	// 设备在线但不应答
	connectDevice(t, hub, "dev-1")

	started := time.Now()
	outcome, err := d.Do(context.Background(), "dev-1", "", constants.RequestTypeGetFaceParam,
		map[string]interface{}{}, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, outcome.Status)
	assert.Less(t, time.Since(started), 2*time.Second)
}

func TestDo_Cancelled(t *testing.T) {
	hub := newTestHub(t, testTunables())
	d := NewDispatcher(hub)

	connectDevice(t, hub, "dev-1")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	outcome, err := d.Do(ctx, "dev-1", "", constants.RequestTypeGetFaceParam,
		map[string]interface{}{}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, outcome.Status)
}

func TestDo_BusyOnInflightCap(t *testing.T) {
	tun := testTunables()
	tun.MaxInflightPerDevice = 1
	hub := newTestHub(t, tun)
	d := NewDispatcher(hub)

	connectDevice(t, hub, "dev-1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	firstDone := make(chan Outcome, 1)
	go func() {
		outcome, _ := d.Do(ctx, "dev-1", "", constants.RequestTypeGetFaceParam,
			map[string]interface{}{}, time.Second)
		firstDone <- outcome
	}()

	// 等第一条请求进入在途表
	deadline := time.Now().Add(time.Second)
	for hub.Correlator().InflightFor("dev-1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first request never armed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	outcome, err := d.Do(context.Background(), "dev-1", "", constants.RequestTypeGetFaceParam,
		map[string]interface{}{}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusDeviceBusy, outcome.Status)

	cancel()
	first := <-firstDone
	assert.Equal(t, StatusCancelled, first.Status)
}

func TestDo_RequestIDCollisionRetry(t *testing.T) {
	hub := newTestHub(t, testTunables())
	d := NewDispatcher(hub)

	pt := connectDevice(t, hub, "dev-1")

	worker, ok := hub.Registry().Lookup("dev-1")
	require.True(t, ok)

	// 预占一个请求ID，制造冲突
	_, err := hub.Correlator().Arm(worker, "aaaa", time.Now().Add(time.Second))
	require.NoError(t, err)

	var calls atomic.Int32
	d.newRequestID = func(length int) string {
		if calls.Add(1) == 1 {
			return "aaaa"
		}
		return "bbbb"
	}

	seen := pt.respond(0)

	outcome, err := d.Do(context.Background(), "dev-1", "", constants.RequestTypeGetFaceParam,
		map[string]interface{}{}, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusOk, outcome.Status)

	// 冲突后换新ID下发
	cmd := <-seen
	assert.Equal(t, "bbbb", cmd.RequestID())
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestDo_ChannelLostBetweenLookupAndArm(t *testing.T) {
	hub := newTestHub(t, testTunables())
	d := NewDispatcher(hub)

	connectDevice(t, hub, "dev-1")

	worker, ok := hub.Registry().Lookup("dev-1")
	require.True(t, ok)

	// 在Lookup之后、Arm之前通道被顶替下线：
	// 旧通道先进入Draining并完结其在途请求，之后才可能有新的Arm，
	// 因此后到的发送必然观察到非Live状态，立即以设备离线定型，而不是等到超时
	var once sync.Once
	d.newRequestID = func(length int) string {
		once.Do(func() {
			worker.Close(session.ReasonDisplaced)
		})
		return "cc01"
	}

	started := time.Now()
	outcome, err := d.Do(context.Background(), "dev-1", "", constants.RequestTypeGetFaceParam,
		map[string]interface{}{}, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusDeviceOffline, outcome.Status)
	// 不能吃满截止时间
	assert.Less(t, time.Since(started), time.Second)
}

func TestTypedWrappers(t *testing.T) {
	hub := newTestHub(t, testTunables())
	d := NewDispatcher(hub)

	pt := connectDevice(t, hub, "dev-1")
	seen := pt.respond(0)

	outcome, err := d.AddUser(context.Background(), "dev-1", "digest", AddUserArgs{
		UserID:       "u1",
		UserList:     1,
		Group:        2,
		ImageType:    "base64",
		ImageContent: "AAAA",
		UserInfo:     "staff",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusOk, outcome.Status)

	cmd := <-seen
	assert.Equal(t, constants.RequestTypeAddUser, cmd.RequestType())
	assert.Equal(t, "u1", cmd.String(constants.FieldUserID))
	userList, _ := cmd.Int(constants.FieldUserList)
	assert.Equal(t, int64(1), userList)

	// 无参操作
	outcome, err = d.FormatDisk(context.Background(), "dev-1", "digest")
	require.NoError(t, err)
	assert.Equal(t, StatusOk, outcome.Status)
}

func TestTimeoutFor(t *testing.T) {
	hub := newTestHub(t, testTunables())
	d := NewDispatcher(hub)

	longSpec, _ := LookupSpec(constants.RequestTypeUpgrade)
	fixedSpec, _ := LookupSpec(constants.RequestTypeGetLogFile)
	defaultSpec, _ := LookupSpec(constants.RequestTypeGetUserInfo)

	assert.Equal(t, 2*time.Second, d.timeoutFor(longSpec, 0))
	assert.Equal(t, 30*time.Second, d.timeoutFor(fixedSpec, 0))
	assert.Equal(t, 500*time.Millisecond, d.timeoutFor(defaultSpec, 0))
	// 调用方覆盖优先于一切
	assert.Equal(t, time.Minute, d.timeoutFor(longSpec, time.Minute))
}
