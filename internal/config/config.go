package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 存储应用程序配置
type Config struct {
	// HTTP服务配置
	ServerPort     int      `yaml:"server_port"`
	ServerHost     string   `yaml:"server_host"`
	Mode           string   `yaml:"gin_mode"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// RCON配置
	RconHost      string        `yaml:"rcon_host"`
	RconPort      int           `yaml:"rcon_port"`
	RconPassword  string        `yaml:"rcon_password"`
	RconRetryBase time.Duration `yaml:"rcon_retry_base"`
	RconRetryMax  time.Duration `yaml:"rcon_retry_max"`

	// 目标服务器（公开状态查询）
	ServerAddress string        `yaml:"server_address"`
	StatusTimeout time.Duration `yaml:"status_timeout"`

	// 请求与推送
	RequestTimeout  time.Duration `yaml:"request_timeout"`  // 0 表示一直等待RCON恢复
	MonitorInterval time.Duration `yaml:"monitor_interval"` // 0 表示关闭实时推送
	RateLimit       float64       `yaml:"rate_limit"`
	RateBurst       int           `yaml:"rate_burst"`

	// JWT配置（为空时不开放管理接口）
	JWTSecret     string        `yaml:"jwt_secret"`
	JWTIssuer     string        `yaml:"jwt_issuer"`
	JWTExpireTime time.Duration `yaml:"jwt_expire_time"`

	// 路径与杂项
	DimensionMapPath  string `yaml:"dimension_map_path"`
	AvatarURLTemplate string `yaml:"avatar_url_template"`
	LogLevel          string `yaml:"log_level"`
}

// GetEnv 从环境变量中获取字符串值，如果不存在则返回默认值
func GetEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

// GetEnvInt 从环境变量中获取整数值，如果不存在或解析失败则返回默认值
func GetEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// GetEnvFloat 从环境变量中获取浮点值，如果不存在或解析失败则返回默认值
func GetEnvFloat(key string, defaultValue float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

// GetEnvDuration 从环境变量中获取时间间隔，如果不存在则返回默认值
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	durationValue, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return durationValue
}

// Default 返回带默认值的配置
func Default() *Config {
	return &Config{
		ServerPort:        5000,
		ServerHost:        "0.0.0.0",
		Mode:              "release",
		AllowedOrigins:    []string{"*"},
		RconPort:          25575,
		RconRetryBase:     10 * time.Second,
		RconRetryMax:      300 * time.Second,
		StatusTimeout:     5 * time.Second,
		MonitorInterval:   15 * time.Second,
		RateLimit:         5,
		RateBurst:         10,
		JWTIssuer:         "mc-status",
		JWTExpireTime:     24 * time.Hour,
		DimensionMapPath:  "dimension_map.json",
		AvatarURLTemplate: "https://crafatar.com/avatars/%s",
		LogLevel:          "info",
	}
}

// LoadConfig 加载配置：默认值 < CONFIG_FILE 指定的YAML文件 < 环境变量
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := GetEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerPort = GetEnvInt("SERVER_PORT", c.ServerPort)
	c.ServerHost = GetEnv("SERVER_HOST", c.ServerHost)
	c.Mode = GetEnv("GIN_MODE", c.Mode)
	if origins := GetEnv("ALLOWED_ORIGINS", ""); origins != "" {
		c.AllowedOrigins = strings.Split(origins, ",")
	}

	c.RconHost = GetEnv("RCON_HOST", c.RconHost)
	c.RconPassword = GetEnv("RCON_PASSWORD", c.RconPassword)
	c.RconRetryBase = GetEnvDuration("RCON_RETRY_BASE", c.RconRetryBase)
	c.RconRetryMax = GetEnvDuration("RCON_RETRY_MAX", c.RconRetryMax)
	// RCON端口写错属于配置错误，不能静默回退到默认值
	if value, ok := os.LookupEnv("RCON_PORT"); ok {
		port, err := strconv.Atoi(value)
		if err != nil {
			port = -1
		}
		c.RconPort = port
	}

	c.ServerAddress = GetEnv("SERVER_ADDRESS", c.ServerAddress)
	c.StatusTimeout = GetEnvDuration("STATUS_TIMEOUT", c.StatusTimeout)

	c.RequestTimeout = GetEnvDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	c.MonitorInterval = GetEnvDuration("MONITOR_INTERVAL", c.MonitorInterval)
	c.RateLimit = GetEnvFloat("RATE_LIMIT", c.RateLimit)
	c.RateBurst = GetEnvInt("RATE_BURST", c.RateBurst)

	c.JWTSecret = GetEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = GetEnv("JWT_ISSUER", c.JWTIssuer)
	c.JWTExpireTime = GetEnvDuration("JWT_EXPIRE_TIME", c.JWTExpireTime)

	c.DimensionMapPath = GetEnv("DIMENSION_MAP_PATH", c.DimensionMapPath)
	c.AvatarURLTemplate = GetEnv("AVATAR_URL_TEMPLATE", c.AvatarURLTemplate)
	c.LogLevel = GetEnv("LOG_LEVEL", c.LogLevel)
}

// Validate 检查必需配置项，任何一项缺失都视为启动失败
func (c *Config) Validate() error {
	var errs []error
	if c.RconHost == "" {
		errs = append(errs, errors.New("缺少 RCON_HOST"))
	}
	if c.RconPassword == "" {
		errs = append(errs, errors.New("缺少 RCON_PASSWORD"))
	}
	if c.RconPort <= 0 || c.RconPort > 65535 {
		errs = append(errs, fmt.Errorf("RCON_PORT 无效: %d", c.RconPort))
	}
	if c.ServerAddress == "" {
		errs = append(errs, errors.New("缺少 SERVER_ADDRESS"))
	} else if _, _, err := c.GameServer(); err != nil {
		errs = append(errs, err)
	}
	if c.RconRetryBase <= 0 || c.RconRetryMax < c.RconRetryBase {
		errs = append(errs, fmt.Errorf("RCON重试间隔无效: base=%s max=%s", c.RconRetryBase, c.RconRetryMax))
	}
	return errors.Join(errs...)
}

// GameServer 将 SERVER_ADDRESS 拆分为主机和端口，未写端口时使用 25565
func (c *Config) GameServer() (string, int, error) {
	addr := strings.TrimSpace(c.ServerAddress)
	if !strings.Contains(addr, ":") {
		return addr, 25565, nil
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("SERVER_ADDRESS 无效: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("SERVER_ADDRESS 端口无效: %s", portStr)
	}
	return host, port, nil
}

// ListenAddr 返回HTTP监听地址
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
