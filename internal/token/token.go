package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrEmptySecret 签名密钥未配置，属于致命配置错误
	ErrEmptySecret = errors.New("token secret must not be empty")
)

// separator 令牌字段分隔符。记录 ID 是 UUID、过期时间是十进制整数，
// 两者的取值域都不可能包含 ":"，因此拆分无歧义。
const separator = ":"

// Issued 一次签发的结果
type Issued struct {
	Token     string `json:"token"`     // 自包含令牌: recordID:expiresAt:signature
	ExpiresAt int64  `json:"expiresAt"` // 绝对过期时间（Unix 秒）
}

// Service 签发与校验限定单条记录、限时有效的能力令牌（capability token）。
//
// 令牌格式: recordID:expiresAt:hex(HMAC-SHA256(recordID:expiresAt))。
// 服务完全无状态：令牌不落盘、无吊销机制（接受的设计取舍——密钥轮换会使
// 所有未过期令牌失效）；两个操作都是 (输入, 当前时间, 密钥) 的纯函数，
// 任意并发调用无需协调。
type Service struct {
	secret     []byte
	defaultTTL time.Duration

	// now 可注入的时钟，测试用；默认 time.Now
	now func() time.Time
}

// NewService 创建令牌服务
//
// 返回值:
//   - *Service: 令牌服务实例
//   - error: 密钥为空时返回 ErrEmptySecret
func NewService(secret string, defaultTTL time.Duration) (*Service, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Service{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}, nil
}

// Issue 为指定记录签发一个在 ttl 后过期的令牌
//
// 参数:
//   - recordID: 令牌绑定的记录 ID，令牌不可跨记录使用
//   - ttl: 有效期；秒粒度，向下取整
func (s *Service) Issue(recordID string, ttl time.Duration) Issued {
	expiresAt := s.now().Unix() + int64(ttl.Seconds())
	payload := recordID + separator + strconv.FormatInt(expiresAt, 10)

	return Issued{
		Token:     payload + separator + s.sign(payload),
		ExpiresAt: expiresAt,
	}
}

// IssueDefault 使用服务默认有效期签发令牌
func (s *Service) IssueDefault(recordID string) Issued {
	return s.Issue(recordID, s.defaultTTL)
}

// Verify 校验令牌是否授权访问指定记录
//
// 全函数：任何畸形输入（字段数不对、过期时间非数字、签名非十六进制）
// 一律返回 false，绝不 panic。通过条件（全部满足）：
//   - 令牌内的记录 ID 与 expectedRecordID 一致
//   - 未过期；边界 now == expiresAt 视为仍然有效
//   - 用密钥重算的 HMAC 与令牌携带的签名一致（恒定时间比较）
func (s *Service) Verify(tok, expectedRecordID string) bool {
	parts := strings.Split(tok, separator)
	if len(parts) != 3 {
		return false
	}

	recordID, expiryStr, sigHex := parts[0], parts[1], parts[2]

	if recordID != expectedRecordID {
		return false
	}

	expiresAt, err := strconv.ParseInt(expiryStr, 10, 64)
	if err != nil {
		return false
	}
	if s.now().Unix() > expiresAt {
		return false
	}

	carried, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(recordID + separator + expiryStr))
	return hmac.Equal(mac.Sum(nil), carried)
}

// sign 计算载荷的 HMAC-SHA256 十六进制签名
func (s *Service) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
