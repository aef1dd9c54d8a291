package storage

import (
	"errors"

	"filebox/backend/internal/domain"
)

var (
	// ErrFileNotFound 文件记录不存在。不是存储故障：调用方通常映射为 404
	ErrFileNotFound = errors.New("file not found")
	// ErrStoreUnavailable 存储介质不可用（磁盘/数据库故障），与记录不存在严格区分
	ErrStoreUnavailable = errors.New("store unavailable")
)

// FileRepository 定义文件元数据的存取操作。
//
// 所有实现必须满足：
//   - Append 相对并发追加是原子的（单写者串行化，不丢失更新）
//   - 读操作不会观察到部分写入的状态
//   - 记录 ID 删除后不复用
type FileRepository interface {
	// Append 校验输入、分配新 ID 并持久化一条完整记录，返回该记录
	Append(in domain.NewFileInput) (*domain.File, error)
	// GetAll 按插入顺序返回全部记录的快照
	GetAll() ([]domain.File, error)
	// GetByID 点查一条记录；不存在时返回 ErrFileNotFound
	GetByID(id string) (*domain.File, error)
	// DeleteByID 删除记录，返回是否发生了删除。
	// 不级联删除上游存储的 blob，由调用方编排
	DeleteByID(id string) (bool, error)
	// Health 检查存储介质是否可用
	Health() error
	// Close 释放底层资源
	Close() error
}
