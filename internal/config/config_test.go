package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// 保存原始环境变量
	originalEnvs := make(map[string]string)
	envKeys := []string{
		"FILEBOX_SERVER_HOST",
		"FILEBOX_SERVER_PORT",
		"FILEBOX_STORAGE_BACKEND",
		"FILEBOX_STORAGE_SNAPSHOT_PATH",
		"FILEBOX_STORAGE_DSN",
		"FILEBOX_REDIS_ENABLED",
		"FILEBOX_RELAY_API_BASE",
		"FILEBOX_RELAY_BOT_TOKEN",
		"FILEBOX_RELAY_CHAT_ID",
		"FILEBOX_AUTH_SESSION_PASSWORD",
		"FILEBOX_AUTH_JWT_SECRET",
		"FILEBOX_TOKEN_SECRET",
		"FILEBOX_TOKEN_DEFAULT_TTL",
		"FILEBOX_CORS_ALLOWED_ORIGINS",
		"FILEBOX_LOG_LEVEL",
		"FILEBOX_LOG_DEVELOPMENT",
		"FILEBOX_LOG_FILE",
		"FILEBOX_LOG_MAX_SIZE",
		"FILEBOX_LOG_MAX_BACKUPS",
		"FILEBOX_LOG_MAX_AGE",
		"FILEBOX_LOG_COMPRESS",
	}

	for _, key := range envKeys {
		originalEnvs[key] = os.Getenv(key)
	}

	// 测试后恢复环境变量
	defer func() {
		for key, value := range originalEnvs {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	}()

	// setRequired 设置通过校验所需的最小环境变量
	setRequired := func() {
		os.Setenv("FILEBOX_AUTH_SESSION_PASSWORD", "test-password")
		os.Setenv("FILEBOX_AUTH_JWT_SECRET", "test-jwt-secret-key-32-chars-long-minimum")
		os.Setenv("FILEBOX_TOKEN_SECRET", "test-token-secret-key-32-chars-long-minimum")
	}

	t.Run("加载默认配置成功", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
		setRequired()

		cfg, err := Load()

		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		// 验证默认值
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "jsonfile", cfg.Storage.Backend)
		assert.Equal(t, "./data/files.json", cfg.Storage.SnapshotPath)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, "https://api.telegram.org", cfg.Relay.APIBase)
		assert.Equal(t, "https://api.telegram.org/file", cfg.Relay.FileBase)
		assert.Equal(t, 60*time.Second, cfg.Relay.Timeout)
		assert.Equal(t, "filebox", cfg.Auth.Issuer)
		assert.Equal(t, 24*time.Hour, cfg.Auth.SessionExpiry)
		assert.Equal(t, 10*time.Minute, cfg.Token.DefaultTTL)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.False(t, cfg.Log.Development)
		assert.Equal(t, "", cfg.Log.File)
		assert.Equal(t, 100, cfg.Log.MaxSize)
		assert.Equal(t, 3, cfg.Log.MaxBackups)
		assert.Equal(t, 28, cfg.Log.MaxAge)
		assert.True(t, cfg.Log.Compress)
	})

	t.Run("加载自定义配置成功", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
		setRequired()
		os.Setenv("FILEBOX_SERVER_HOST", "127.0.0.1")
		os.Setenv("FILEBOX_SERVER_PORT", "9090")
		os.Setenv("FILEBOX_STORAGE_BACKEND", "memory")
		os.Setenv("FILEBOX_RELAY_API_BASE", "https://bot-proxy.example.com/")
		os.Setenv("FILEBOX_RELAY_BOT_TOKEN", "123:abc")
		os.Setenv("FILEBOX_RELAY_CHAT_ID", "-100456")
		os.Setenv("FILEBOX_TOKEN_DEFAULT_TTL", "30m")
		os.Setenv("FILEBOX_CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
		os.Setenv("FILEBOX_LOG_LEVEL", "debug")
		os.Setenv("FILEBOX_LOG_DEVELOPMENT", "true")
		os.Setenv("FILEBOX_LOG_FILE", "/var/log/filebox/app.log")
		os.Setenv("FILEBOX_LOG_MAX_SIZE", "50")

		cfg, err := Load()

		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		assert.Equal(t, "127.0.0.1", cfg.Server.Host)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "memory", cfg.Storage.Backend)
		// 尾部斜杠被归一化
		assert.Equal(t, "https://bot-proxy.example.com", cfg.Relay.APIBase)
		assert.Equal(t, "123:abc", cfg.Relay.BotToken)
		assert.Equal(t, "-100456", cfg.Relay.ChatID)
		assert.Equal(t, 30*time.Minute, cfg.Token.DefaultTTL)
		assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.True(t, cfg.Log.Development)
		assert.Equal(t, "/var/log/filebox/app.log", cfg.Log.File)
		assert.Equal(t, 50, cfg.Log.MaxSize)
	})

	t.Run("缺少会话口令时报错", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
		os.Setenv("FILEBOX_AUTH_JWT_SECRET", "test-jwt-secret-key-32-chars-long-minimum")
		os.Setenv("FILEBOX_TOKEN_SECRET", "test-token-secret-key-32-chars-long-minimum")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "session password")
	})

	t.Run("令牌密钥为默认值时报错", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
		setRequired()
		os.Setenv("FILEBOX_TOKEN_SECRET", "change-me-in-production")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("令牌密钥过短时报错", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
		setRequired()
		os.Setenv("FILEBOX_TOKEN_SECRET", "too-short")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "32 characters")
	})

	t.Run("非法存储后端时报错", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
		setRequired()
		os.Setenv("FILEBOX_STORAGE_BACKEND", "cassandra")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "storage.backend")
	})

	t.Run("数据库后端缺少 DSN 时报错", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
		setRequired()
		os.Setenv("FILEBOX_STORAGE_BACKEND", "postgres")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "storage.dsn")
	})
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseList("a,b"))
	assert.Equal(t, []string{"a", "b"}, parseList(" a , b "))
	assert.Equal(t, []string{"a"}, parseList("a,,"))
	assert.Empty(t, parseList(""))
}

func TestValidateSecret(t *testing.T) {
	assert.Error(t, validateSecret("token.secret", "FILEBOX_TOKEN_SECRET", "change-me-in-production"))
	assert.Error(t, validateSecret("token.secret", "FILEBOX_TOKEN_SECRET", "short"))
	assert.NoError(t, validateSecret("token.secret", "FILEBOX_TOKEN_SECRET", "0123456789abcdef0123456789abcdef"))
}
