package service

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"filebox/backend/internal/domain"
	"filebox/backend/internal/relay"
	"filebox/backend/internal/storage"
)

// Relay 上游存储中继的窄接口，便于测试替换
type Relay interface {
	Upload(ctx context.Context, name string, r io.Reader) (*relay.Locator, error)
	Resolve(ctx context.Context, fileID string) (string, error)
	Fetch(ctx context.Context, fileID string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, messageID int64) error
}

// FileService 负责文件的上传编排、读取投影和删除编排。
//
// 元数据存储本身不发起任何外部网络调用；与上游存储的交互
// （上传、解析、删除）全部由本服务编排。
type FileService struct {
	repo  storage.FileRepository
	relay Relay
	log   *zap.Logger
}

// NewFileService 创建文件服务
func NewFileService(repo storage.FileRepository, r Relay, log *zap.Logger) *FileService {
	return &FileService{
		repo:  repo,
		relay: r,
		log:   log,
	}
}

// Upload 中继文件内容到上游存储，成功后追加元数据记录
//
// 顺序约束：先完成中继取得定位信息，再写入存储；
// 存储写入失败时尝试回收已上传的上游消息（尽力而为）。
func (s *FileService) Upload(ctx context.Context, name, mimetype string, size int64, r io.Reader) (*domain.SanitizedFile, error) {
	locator, err := s.relay.Upload(ctx, name, r)
	if err != nil {
		return nil, err
	}

	file, err := s.repo.Append(domain.NewFileInput{
		OriginalName: name,
		Mimetype:     mimetype,
		Size:         size,
		MessageID:    locator.MessageID,
		FileID:       locator.FileID,
	})
	if err != nil {
		// 元数据写入失败，回收已上传的上游消息，避免产生孤儿 blob
		if delErr := s.relay.Delete(ctx, locator.MessageID); delErr != nil {
			s.log.Warn("failed to roll back orphan upload",
				zap.Int64("message_id", locator.MessageID),
				zap.Error(delErr),
			)
		}
		return nil, err
	}

	s.log.Info("file stored",
		zap.String("id", file.ID),
		zap.String("name", file.OriginalName),
		zap.Int64("size", file.Size),
		zap.String("file_type", string(file.FileType)),
	)

	sanitized := file.Sanitize()
	return &sanitized, nil
}

// List 返回全部记录的脱敏视图，保持插入顺序
func (s *FileService) List() ([]domain.SanitizedFile, error) {
	files, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}
	return domain.SanitizeAll(files), nil
}

// Get 返回单条记录的脱敏视图
func (s *FileService) Get(id string) (*domain.SanitizedFile, error) {
	file, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	sanitized := file.Sanitize()
	return &sanitized, nil
}

// GetRaw 返回包含敏感定位字段的原始记录。
// 仅限两条路径调用：会话认证后的删除编排、能力令牌校验后的直链访问。
func (s *FileService) GetRaw(id string) (*domain.File, error) {
	return s.repo.GetByID(id)
}

// Content 打开文件内容流，用于代理下发
func (s *FileService) Content(ctx context.Context, id string) (io.ReadCloser, int64, *domain.File, error) {
	file, err := s.repo.GetByID(id)
	if err != nil {
		return nil, 0, nil, err
	}

	body, length, err := s.relay.Fetch(ctx, file.FileID)
	if err != nil {
		return nil, 0, nil, err
	}

	return body, length, file, nil
}

// DirectURL 解析记录的上游直接下载地址。
// 返回的地址内嵌上游凭证，调用方必须先通过能力令牌校验。
func (s *FileService) DirectURL(ctx context.Context, id string) (string, error) {
	file, err := s.repo.GetByID(id)
	if err != nil {
		return "", err
	}
	return s.relay.Resolve(ctx, file.FileID)
}

// Delete 编排删除：先删上游 blob，再删元数据记录
//
// 返回值:
//   - bool: 是否发生了删除（记录不存在时为 false，不视为错误）
func (s *FileService) Delete(ctx context.Context, id string) (bool, error) {
	file, err := s.repo.GetByID(id)
	if err != nil {
		if err == storage.ErrFileNotFound {
			return false, nil
		}
		return false, err
	}

	// 上游删除失败时保留元数据记录，调用方可重试；
	// 反向顺序会留下无法再定位的孤儿 blob
	if err := s.relay.Delete(ctx, file.MessageID); err != nil {
		return false, fmt.Errorf("failed to delete upstream blob: %w", err)
	}

	removed, err := s.repo.DeleteByID(id)
	if err != nil {
		return false, err
	}

	s.log.Info("file deleted", zap.String("id", id))
	return removed, nil
}
