package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"filebox/backend/internal/domain"
	"filebox/backend/internal/storage"
)

// snapshotVersion 当前快照格式版本
const snapshotVersion = 1

// snapshot 是持久化到磁盘的整集合快照。
// 读取时未知字段被忽略、缺失字段取零值，保证格式前向兼容。
type snapshot struct {
	Version int           `json:"version"`
	Files   []domain.File `json:"files"`
}

// Store 基于单个 JSON 快照文件的元数据存储。
//
// 每次变更都重写完整集合：先写临时文件、fsync，再原子重命名到目标路径，
// 因此读者在任何时刻都只会看到一个完整有效的快照。
// 所有变更在 mu 写锁下串行执行，并发 Append 不会丢失更新。
type Store struct {
	mu   sync.RWMutex
	path string
}

// NewStore 创建 JSON 快照存储实例
//
// 参数:
//   - path: 快照文件路径，所在目录不存在时自动创建
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path must not be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	s := &Store{path: path}

	// 校验已有快照可读；文件不存在视为空集合
	if _, err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Append 分配新 ID 并持久化一条记录
//
// 校验失败时集合保持不变；写盘失败时同样不留下部分变更
// （临时文件写失败不影响既有快照）。
func (s *Store) Append(in domain.NewFileInput) (*domain.File, error) {
	file, err := domain.NewFile(in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.load()
	if err != nil {
		return nil, err
	}

	files = append(files, *file)
	if err := s.write(files); err != nil {
		return nil, err
	}

	return file, nil
}

// GetAll 按插入顺序返回全部记录
func (s *Store) GetAll() ([]domain.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.load()
}

// GetByID 点查一条记录；不存在时返回 storage.ErrFileNotFound
func (s *Store) GetByID(id string) (*domain.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := s.load()
	if err != nil {
		return nil, err
	}

	for i := range files {
		if files[i].ID == id {
			f := files[i]
			return &f, nil
		}
	}

	return nil, storage.ErrFileNotFound
}

// DeleteByID 删除记录并重写快照，返回是否发生了删除。
// 记录不存在时集合保持不变，不视为错误。
func (s *Store) DeleteByID(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.load()
	if err != nil {
		return false, err
	}

	kept := files[:0]
	removed := false
	for i := range files {
		if files[i].ID == id {
			removed = true
			continue
		}
		kept = append(kept, files[i])
	}

	if !removed {
		return false, nil
	}

	if err := s.write(kept); err != nil {
		return false, err
	}

	return true, nil
}

// Health 检查快照文件可读
func (s *Store) Health() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := s.load()
	return err
}

// Close 实现 FileRepository；文件存储无需释放资源
func (s *Store) Close() error {
	return nil
}

// load 读取并解析快照文件。文件不存在返回空集合。
// 调用方必须已持有 mu（读锁或写锁）。
func (s *Store) load() ([]domain.File, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.File{}, nil
		}
		return nil, fmt.Errorf("%w: failed to read snapshot: %v", storage.ErrStoreUnavailable, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: corrupt snapshot: %v", storage.ErrStoreUnavailable, err)
	}

	if snap.Files == nil {
		snap.Files = []domain.File{}
	}

	return snap.Files, nil
}

// write 将完整集合序列化并原子替换快照文件。
// 调用方必须已持有 mu 写锁。
func (s *Store) write(files []domain.File) error {
	data, err := json.MarshalIndent(snapshot{Version: snapshotVersion, Files: files}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal snapshot: %v", storage.ErrStoreUnavailable, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".files-*.json.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp snapshot: %v", storage.ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to write temp snapshot: %v", storage.ErrStoreUnavailable, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to sync temp snapshot: %v", storage.ErrStoreUnavailable, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to close temp snapshot: %v", storage.ErrStoreUnavailable, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to replace snapshot: %v", storage.ErrStoreUnavailable, err)
	}

	return nil
}
