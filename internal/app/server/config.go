package server

import (
	"facelink-core/internal/config"
)

// LoadConfig 加载并校验配置文件
func LoadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}
