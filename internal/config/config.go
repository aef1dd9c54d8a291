package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// StorageConfig 定义文件元数据存储后端配置
type StorageConfig struct {
	Backend         string        // 存储后端: "memory"、"jsonfile"、"mysql" 或 "postgres"
	SnapshotPath    string        // jsonfile 后端的快照文件路径，默认 "./data/files.json"
	DSN             string        // mysql/postgres 后端的数据库连接字符串
	MaxOpenConns    int           // 最大打开连接数，默认 25
	MaxIdleConns    int           // 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // 连接最大生命周期，默认 5 分钟
}

// RedisConfig 定义可选的元数据读缓存配置
type RedisConfig struct {
	Enabled  bool          // 是否启用 Redis 缓存
	Address  string        // Redis 服务地址，格式 "host:port"，默认 "localhost:6379"
	Password string        // Redis 认证密码，留空表示无密码
	DB       int           // Redis 数据库编号，默认 0
	TTL      time.Duration // 缓存条目有效期，默认 30 秒
}

// RelayConfig 定义上游消息 Bot API（作为 blob 存储使用）的客户端配置
type RelayConfig struct {
	APIBase  string        // Bot API 根地址，默认 "https://api.telegram.org"
	FileBase string        // 文件下载根地址，默认 "https://api.telegram.org/file"
	BotToken string        // Bot 令牌，必填
	ChatID   string        // 接收文件的会话 ID，必填
	Timeout  time.Duration // 单次请求超时，默认 60 秒
}

// AuthConfig 定义会话口令认证配置
type AuthConfig struct {
	SessionPassword string        // 共享会话口令，支持明文或 bcrypt 哈希（$2a$/$2b$ 前缀）
	JWTSecret       string        // 会话令牌签名密钥，必须至少 32 字符
	Issuer          string        // 会话令牌签发者标识，默认 "filebox"
	SessionExpiry   time.Duration // 会话令牌有效期，默认 24 小时
}

// TokenConfig 定义文件能力令牌（capability token）配置
type TokenConfig struct {
	Secret     string        // HMAC 签名密钥，必须至少 32 字符
	DefaultTTL time.Duration // 令牌默认有效期，默认 10 分钟
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，留空则只输出到控制台
	MaxSize     int    // 单个日志文件最大体积（MB），默认 100
	MaxBackups  int    // 保留的轮转文件数量，默认 3
	MaxAge      int    // 轮转文件保留天数，默认 28
	Compress    bool   // 是否压缩轮转文件，默认 true
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server  ServerConfig  // HTTP 服务器配置
	Storage StorageConfig // 元数据存储配置
	Redis   RedisConfig   // Redis 缓存配置
	Relay   RelayConfig   // 上游存储中继配置
	Auth    AuthConfig    // 会话认证配置
	Token   TokenConfig   // 能力令牌配置
	CORS    CORSConfig    // 跨域配置
	Log     LogConfig     // 日志配置
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//   1. 系统环境变量（最高优先级）
//   2. .env 文件（如果存在）
//   3. 默认值
//
// 环境变量前缀: FILEBOX_
// 例如: FILEBOX_SERVER_HOST, FILEBOX_TOKEN_SECRET
//
// 返回值:
//   - *Config: 加载成功的配置对象
//   - error: 配置验证失败时返回错误
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，因为 .env 文件是可选的）
	loadEnvFile()

	viper.SetEnvPrefix("filebox")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("storage.backend", "jsonfile")
	viper.SetDefault("storage.snapshot_path", "./data/files.json")
	viper.SetDefault("storage.dsn", "")
	viper.SetDefault("storage.max_open_conns", 25)
	viper.SetDefault("storage.max_idle_conns", 5)
	viper.SetDefault("storage.conn_max_lifetime", "5m")
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttl", "30s")
	viper.SetDefault("relay.api_base", "https://api.telegram.org")
	viper.SetDefault("relay.file_base", "https://api.telegram.org/file")
	viper.SetDefault("relay.bot_token", "")
	viper.SetDefault("relay.chat_id", "")
	viper.SetDefault("relay.timeout", "60s")
	viper.SetDefault("auth.session_password", "")
	viper.SetDefault("auth.jwt_secret", "change-me-in-production")
	viper.SetDefault("auth.issuer", "filebox")
	viper.SetDefault("auth.session_expiry", "24h")
	viper.SetDefault("token.secret", "change-me-in-production")
	viper.SetDefault("token.default_ttl", "10m")
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("log.file", "")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", true)

	backend := strings.ToLower(viper.GetString("storage.backend"))
	switch backend {
	case "memory", "jsonfile", "mysql", "postgres":
	default:
		return nil, fmt.Errorf("invalid storage.backend: %q (supported: memory, jsonfile, mysql, postgres)", backend)
	}

	if (backend == "mysql" || backend == "postgres") && viper.GetString("storage.dsn") == "" {
		return nil, fmt.Errorf("storage.dsn is required for %s backend", backend)
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("storage.conn_max_lifetime"))
	if err != nil {
		connMaxLifetime = 5 * time.Minute
	}

	redisTTL, err := time.ParseDuration(viper.GetString("redis.ttl"))
	if err != nil {
		redisTTL = 30 * time.Second
	}

	relayTimeout, err := time.ParseDuration(viper.GetString("relay.timeout"))
	if err != nil {
		relayTimeout = 60 * time.Second
	}

	sessionExpiry, err := time.ParseDuration(viper.GetString("auth.session_expiry"))
	if err != nil {
		sessionExpiry = 24 * time.Hour
	}

	tokenTTL, err := time.ParseDuration(viper.GetString("token.default_ttl"))
	if err != nil {
		tokenTTL = 10 * time.Minute
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	sessionPassword := viper.GetString("auth.session_password")
	if sessionPassword == "" {
		return nil, fmt.Errorf("SECURITY ERROR: session password must be set. Please set FILEBOX_AUTH_SESSION_PASSWORD environment variable")
	}

	jwtSecret := viper.GetString("auth.jwt_secret")
	if err := validateSecret("auth.jwt_secret", "FILEBOX_AUTH_JWT_SECRET", jwtSecret); err != nil {
		return nil, err
	}

	tokenSecret := viper.GetString("token.secret")
	if err := validateSecret("token.secret", "FILEBOX_TOKEN_SECRET", tokenSecret); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Storage: StorageConfig{
			Backend:         backend,
			SnapshotPath:    viper.GetString("storage.snapshot_path"),
			DSN:             viper.GetString("storage.dsn"),
			MaxOpenConns:    viper.GetInt("storage.max_open_conns"),
			MaxIdleConns:    viper.GetInt("storage.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("redis.enabled"),
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
			TTL:      redisTTL,
		},
		Relay: RelayConfig{
			APIBase:  strings.TrimRight(viper.GetString("relay.api_base"), "/"),
			FileBase: strings.TrimRight(viper.GetString("relay.file_base"), "/"),
			BotToken: viper.GetString("relay.bot_token"),
			ChatID:   viper.GetString("relay.chat_id"),
			Timeout:  relayTimeout,
		},
		Auth: AuthConfig{
			SessionPassword: sessionPassword,
			JWTSecret:       jwtSecret,
			Issuer:          viper.GetString("auth.issuer"),
			SessionExpiry:   sessionExpiry,
		},
		Token: TokenConfig{
			Secret:     tokenSecret,
			DefaultTTL: tokenTTL,
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
			File:        viper.GetString("log.file"),
			MaxSize:     viper.GetInt("log.max_size"),
			MaxBackups:  viper.GetInt("log.max_backups"),
			MaxAge:      viper.GetInt("log.max_age"),
			Compress:    viper.GetBool("log.compress"),
		},
	}

	return cfg, nil
}

// validateSecret 校验签名密钥：禁止默认值，且长度必须至少 32 字符
func validateSecret(key, envVar, value string) error {
	if value == "change-me-in-production" {
		return fmt.Errorf("SECURITY ERROR: %s cannot be the default value. Please set %s environment variable", key, envVar)
	}
	if len(value) < 32 {
		return fmt.Errorf("SECURITY ERROR: %s must be at least 32 characters long", key)
	}
	return nil
}

// parseList 将逗号分隔的字符串解析为字符串切片
//
// 参数:
//   - value: 逗号分隔的字符串，如 "item1,item2,item3"
//
// 返回值:
//   - []string: 解析后的字符串切片，已去除空白字符
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：
//   1. 当前目录的 .env
//   2. 父目录的 .env（用于从 backend/ 子目录运行的情况）
//
// 注意：
//   - 如果文件不存在，静默失败（.env 是可选的）
//   - 环境变量不会被覆盖（已存在的环境变量优先级更高）
func loadEnvFile() {
	// 尝试当前目录的 .env
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	// 尝试父目录的 .env（从 backend/ 目录运行时）
	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
