package config

import (
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type LoggerConfig struct {
	Development    bool                `yaml:"development"`    // 是否为开发模式
	Type           loggerv2.OutputType `yaml:"type"`           // 日志输出类型
	LogFilePath    string              `yaml:"logFilePath"`    // 日志文件路径
	AutoCreateFile bool                `yaml:"autoCreateFile"` // 是否自动创建文件和目录
}

func (LoggerConfig) Key() string {
	return "log"
}

type DBConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	DBName      string `yaml:"database"`
	TablePrefix string `yaml:"tablePrefix"`
	// 连接池配置
	MaxOpenConns    int `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int `yaml:"connMaxLifetime"` // 连接最大生存时间（分钟）
	ConnMaxIdleTime int `yaml:"connMaxIdleTime"` // 连接最大空闲时间（分钟）
}

func (DBConfig) Key() string {
	return "db"
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"password"`
}

func (RedisConfig) Key() string {
	return "redis"
}

type KafkaConfig struct {
	Brokers  []string `yaml:"brokers"`
	ClientID string   `yaml:"clientId"`
}

func (KafkaConfig) Key() string {
	return "kafka"
}

type GatewayConfig struct {
	Addr            string `yaml:"addr"`            // 对外服务地址
	MetricsAddr     string `yaml:"metricsAddr"`     // prometheus 指标地址
	BasePath        string `yaml:"basePath"`        // 部署在反向代理子路径下时的前缀
	TextBanner      string `yaml:"textBanner"`      // 文本响应首行
	CompilerSource  string `yaml:"compilerSource"`  // file 或 db
	CacheSize       int    `yaml:"cacheSize"`       // 进程内 LRU 容量, 0 表示关闭
	CacheTTLSeconds int    `yaml:"cacheTTLSeconds"` // redis 缓存过期时间
	RedisCache      bool   `yaml:"redisCache"`
	KafkaEnabled    bool   `yaml:"kafkaEnabled"`
	TelemetryTopic  string `yaml:"telemetryTopic"`
	ReloadTopic     string `yaml:"reloadTopic"`
	ReloadGroupID   string `yaml:"reloadGroupId"`
	MaxBodyBytes    int64  `yaml:"maxBodyBytes"`
}

func (GatewayConfig) Key() string {
	return "gateway"
}

const (
	CompilerSourceFile = "file"
	CompilerSourceDB   = "db"
)

type EnvironmentConfig struct {
	TmpDir                string `yaml:"tmpDir"`
	MaxConcurrent         int    `yaml:"maxConcurrent"`
	CompileTimeoutSeconds int    `yaml:"compileTimeoutSeconds"`
	CleanIntervalSeconds  int    `yaml:"cleanIntervalSeconds"`
	TmpMaxAgeSeconds      int    `yaml:"tmpMaxAgeSeconds"`
}

func (EnvironmentConfig) Key() string {
	return "environment"
}

// CompilersKey holds the compiler list when compilerSource is file.
const CompilersKey = "compilers"
