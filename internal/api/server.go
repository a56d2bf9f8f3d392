package api

import (
	"context"
	"net/http"
	"time"

	"facelink-core/internal/command"
	"facelink-core/internal/session"
	"facelink-core/internal/utils"

	"github.com/gorilla/mux"
)

// CommandService 命令调度能力，由command.Dispatcher实现
type CommandService interface {
	Do(ctx context.Context, deviceID, pass, requestType string,
		fields map[string]interface{}, timeoutOverride time.Duration) (command.Outcome, error)
}

// DeviceDirectory 设备目录查询能力，由session.Registry实现
type DeviceDirectory interface {
	Snapshot() []session.DeviceInfo
}

// Server 管理API服务器，把命令结果映射为HTTP状态响应
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	commands   CommandService
	devices    DeviceDirectory

	utils.Dispose
}

// NewServer 创建API服务器
func NewServer(parentCtx context.Context, commands CommandService, devices DeviceDirectory) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		commands: commands,
		devices:  devices,
	}
	s.registerRoutes()
	s.SetCtx(parentCtx, s.onClose)
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/devices", s.handleListDevices).Methods(http.MethodGet)
	v1.HandleFunc("/devices/{device_id}/commands/{request_type}", s.handleCommand).Methods(http.MethodPost)
}

// Router 路由器，测试用
func (s *Server) Router() http.Handler {
	return s.router
}

// Listen 启动HTTP服务
func (s *Server) Listen(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // 固件升级等长命令会同步等待
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if !s.IsClosed() {
				utils.Errorf("API server error: %v", err)
			}
		}
	}()

	utils.Infof("API server listening on %s", addr)
	return nil
}

func (s *Server) onClose() {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(ctx)
	}
	utils.Infof("API server closed")
}
