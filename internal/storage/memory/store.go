package memory

import (
	"sync"

	"filebox/backend/internal/domain"
	"filebox/backend/internal/storage"
)

// Store 使用内存保存文件元数据，主要用于开发验证和测试。
type Store struct {
	mu    sync.RWMutex
	files map[string]*domain.File
	order []string // 维护插入顺序
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		files: make(map[string]*domain.File),
		order: make([]string, 0),
	}
}

// Append 校验输入、分配新 ID 并保存记录。
func (s *Store) Append(in domain.NewFileInput) (*domain.File, error) {
	file, err := domain.NewFile(in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[file.ID] = file
	s.order = append(s.order, file.ID)

	f := *file
	return &f, nil
}

// GetAll 按插入顺序返回全部记录的快照。
func (s *Store) GetAll() ([]domain.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.File, 0, len(s.order))
	for _, id := range s.order {
		if f, ok := s.files[id]; ok {
			result = append(result, *f)
		}
	}
	return result, nil
}

// GetByID 根据 ID 获取记录。
func (s *Store) GetByID(id string) (*domain.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, storage.ErrFileNotFound
	}

	copied := *f
	return &copied, nil
}

// DeleteByID 删除记录，返回是否发生了删除。
func (s *Store) DeleteByID(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return false, nil
	}

	delete(s.files, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Health 内存存储始终可用。
func (s *Store) Health() error {
	return nil
}

// Close 实现 FileRepository；内存存储无需释放资源。
func (s *Store) Close() error {
	return nil
}
