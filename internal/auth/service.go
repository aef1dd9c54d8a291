package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials 凭证无效
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service 共享口令认证服务。
//
// 系统采用单一共享口令做会话门禁（参见配置 auth.session_password），
// 配置值既可以是明文，也可以是 bcrypt 哈希（$2a$/$2b$/$2y$ 前缀）。
type Service struct {
	password string
	hashed   bool
}

// NewService 创建认证服务
func NewService(sessionPassword string) *Service {
	return &Service{
		password: sessionPassword,
		hashed:   isBcryptHash(sessionPassword),
	}
}

// VerifyPassword 校验登录口令
//
// 明文配置走恒定时间比较，哈希配置走 bcrypt 比对；
// 失败统一返回 ErrInvalidCredentials，不区分原因。
func (s *Service) VerifyPassword(password string) error {
	if s.hashed {
		if err := bcrypt.CompareHashAndPassword([]byte(s.password), []byte(password)); err != nil {
			return ErrInvalidCredentials
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(s.password), []byte(password)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword 生成口令的 bcrypt 哈希，便于运维生成配置值
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// isBcryptHash 判断配置值是否为 bcrypt 哈希
func isBcryptHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") ||
		strings.HasPrefix(value, "$2b$") ||
		strings.HasPrefix(value, "$2y$")
}
