package config

import (
	"fmt"
	"os"
	"time"

	"facelink-core/internal/constants"
	"facelink-core/internal/utils"

	"gopkg.in/yaml.v3"
)

// ListenerConfig 单个协议监听配置
type ListenerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// ServerConfig 服务器监听配置
type ServerConfig struct {
	TCP       ListenerConfig `yaml:"tcp"`
	WebSocket ListenerConfig `yaml:"websocket"`
	API       ListenerConfig `yaml:"api"`
}

// SessionConfig 会话层配置，时间单位均为秒
type SessionConfig struct {
	HeartbeatInterval     int `yaml:"heartbeat_interval"`
	IdleTimeout           int `yaml:"idle_timeout"`
	DefaultRequestTimeout int `yaml:"default_request_timeout"`
	LongRequestTimeout    int `yaml:"long_request_timeout"`
	DrainDeadline         int `yaml:"drain_deadline"`
	MaxOutboundQueue      int `yaml:"max_outbound_queue"`
	MaxInflightPerDevice  int `yaml:"max_inflight_per_device"`
	RequestIDLength       int `yaml:"request_id_length"`
}

// Config 完整配置
type Config struct {
	Server  ServerConfig    `yaml:"server"`
	Session SessionConfig   `yaml:"session"`
	Log     utils.LogConfig `yaml:"log"`
}

// Tunables 会话层运行时参数，由SessionConfig换算而来。
// 测试可以直接构造，绕过YAML层的秒级精度。
type Tunables struct {
	HeartbeatInterval     time.Duration
	IdleTimeout           time.Duration
	DefaultRequestTimeout time.Duration
	LongRequestTimeout    time.Duration
	DrainDeadline         time.Duration
	MaxOutboundQueue      int
	MaxInflightPerDevice  int
	RequestIDLength       int
}

// Default 返回带默认值的配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			TCP:       ListenerConfig{Enabled: true, Addr: ":7520"},
			WebSocket: ListenerConfig{Enabled: false, Addr: ":7521"},
			API:       ListenerConfig{Enabled: true, Addr: ":8080"},
		},
		Session: SessionConfig{
			HeartbeatInterval:     int(constants.DefaultHeartbeatInterval / time.Second),
			DefaultRequestTimeout: int(constants.DefaultRequestTimeout / time.Second),
			LongRequestTimeout:    int(constants.DefaultLongRequestTimeout / time.Second),
			DrainDeadline:         int(constants.DefaultDrainDeadline / time.Second),
			MaxOutboundQueue:      constants.DefaultMaxOutboundQueue,
			MaxInflightPerDevice:  constants.DefaultMaxInflightPerDevice,
			RequestIDLength:       constants.DefaultRequestIDLength,
		},
		Log: utils.LogConfig{
			Level:  constants.LogLevelInfo,
			Format: constants.LogFormatJSON,
			Output: constants.LogOutputStdout,
		},
	}
}

// Load 从YAML文件加载配置，未设置的字段使用默认值
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置合法性
func (c *Config) Validate() error {
	s := &c.Session
	if s.HeartbeatInterval <= 0 {
		return fmt.Errorf("session.heartbeat_interval must be positive, got %d", s.HeartbeatInterval)
	}
	if s.IdleTimeout < 0 {
		return fmt.Errorf("session.idle_timeout must not be negative, got %d", s.IdleTimeout)
	}
	if s.DefaultRequestTimeout <= 0 {
		return fmt.Errorf("session.default_request_timeout must be positive, got %d", s.DefaultRequestTimeout)
	}
	if s.MaxOutboundQueue <= 0 {
		return fmt.Errorf("session.max_outbound_queue must be positive, got %d", s.MaxOutboundQueue)
	}
	if s.MaxInflightPerDevice <= 0 {
		return fmt.Errorf("session.max_inflight_per_device must be positive, got %d", s.MaxInflightPerDevice)
	}
	if s.RequestIDLength < constants.MinRequestIDLength {
		return fmt.Errorf("session.request_id_length must be at least %d, got %d",
			constants.MinRequestIDLength, s.RequestIDLength)
	}
	if !c.Server.TCP.Enabled && !c.Server.WebSocket.Enabled {
		return fmt.Errorf("at least one of server.tcp / server.websocket must be enabled")
	}
	return nil
}

// Tunables 换算会话层运行时参数
func (c *Config) Tunables() Tunables {
	s := c.Session
	heartbeat := time.Duration(s.HeartbeatInterval) * time.Second

	idle := time.Duration(s.IdleTimeout) * time.Second
	if s.IdleTimeout == 0 {
		// 未显式配置时取心跳周期的3倍
		idle = heartbeat * constants.DefaultIdleTimeoutFactor
	}

	return Tunables{
		HeartbeatInterval:     heartbeat,
		IdleTimeout:           idle,
		DefaultRequestTimeout: time.Duration(s.DefaultRequestTimeout) * time.Second,
		LongRequestTimeout:    time.Duration(s.LongRequestTimeout) * time.Second,
		DrainDeadline:         time.Duration(s.DrainDeadline) * time.Second,
		MaxOutboundQueue:      s.MaxOutboundQueue,
		MaxInflightPerDevice:  s.MaxInflightPerDevice,
		RequestIDLength:       s.RequestIDLength,
	}
}
