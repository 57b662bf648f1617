package model

import "path/filepath"

// CompilerConfig identifies one configured compiler back-end.
type CompilerConfig struct {
	ID             string   `yaml:"id"`
	Lang           string   `yaml:"lang"`
	Name           string   `yaml:"name"`
	Exe            string   `yaml:"exe"`     // 相对路径表示虚拟编译器, 不探测文件
	Type           string   `yaml:"type"`    // 构造策略标签
	Remote         string   `yaml:"remote"`  // 远端节点地址, 为空表示本地
	Image          string   `yaml:"image"`   // docker 策略使用的镜像
	Options        string   `yaml:"options"` // 固定追加在用户参数前的编译参数
	DefaultFilters []string `yaml:"defaultFilters"`
	Extension      string   `yaml:"extension"`
}

// HasRealExe reports whether Exe points at a file on disk whose
// modification time can be tracked.
func (c CompilerConfig) HasRealExe() bool {
	return filepath.IsAbs(c.Exe)
}

// CompilerInfo is the public descriptor served to clients.
type CompilerInfo struct {
	ID      string `json:"id"`
	Lang    string `json:"lang"`
	Name    string `json:"name"`
	Type    string `json:"compilerType"`
	Version string `json:"version,omitempty"`
	Remote  string `json:"remote,omitempty"`
}
