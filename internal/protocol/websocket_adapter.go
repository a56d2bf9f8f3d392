package protocol

import (
	"context"
	"net/http"

	"facelink-core/internal/session"
	"facelink-core/internal/utils"

	"github.com/gorilla/websocket"
)

// WebSocketAdapter WebSocket协议适配器，一条WebSocket消息即一帧
type WebSocketAdapter struct {
	BaseAdapter
	upgrader websocket.Upgrader
	server   *http.Server
	handler  SessionHandler
}

// NewWebSocketAdapter 创建WebSocket适配器
func NewWebSocketAdapter(parentCtx context.Context, handler SessionHandler) *WebSocketAdapter {
	adapter := &WebSocketAdapter{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// 设备端不携带Origin，放开校验
				return true
			},
		},
		handler: handler,
	}
	adapter.SetName("websocket")
	adapter.SetCtx(parentCtx, adapter.onClose)
	return adapter
}

// Listen 启动HTTP服务处理WebSocket升级
func (w *WebSocketAdapter) Listen(addr string) error {
	w.SetAddr(addr)

	mux := http.NewServeMux()
	mux.HandleFunc("/", w.handleWebSocket)

	w.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := w.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if !w.IsClosed() {
				utils.Errorf("WebSocket server error: %v", err)
			}
		}
	}()

	utils.Infof("WebSocket adapter listening on %s", addr)
	return nil
}

func (w *WebSocketAdapter) handleWebSocket(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		utils.Warnf("WebSocket upgrade failed from %s: %v", r.RemoteAddr, err)
		return
	}

	if w.IsClosed() {
		_ = conn.Close()
		return
	}

	w.handler.HandleTransport(&wsTransport{conn: conn})
}

func (w *WebSocketAdapter) onClose() {
	if w.server != nil {
		_ = w.server.Close()
	}
	utils.Infof("WebSocket adapter closed")
}

// wsTransport 把WebSocket连接包装成按帧读写的传输
type wsTransport struct {
	conn *websocket.Conn
}

var _ session.Transport = (*wsTransport)(nil)

func (t *wsTransport) ReadFrame() ([]byte, error) {
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		return data, nil
	}
}

func (t *wsTransport) WriteFrame(data []byte) error {
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

func (t *wsTransport) RemoteAddr() string {
	if addr := t.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
