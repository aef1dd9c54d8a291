package httptransport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filebox/backend/internal/monitoring"
	"filebox/backend/internal/service"
	"filebox/backend/internal/storage"
)

// contentCacheControl 内容端点的缓存策略：记录不可变（ID 不复用、
// 内容不更新），可以安全地长期缓存
const contentCacheControl = "public, max-age=31536000, immutable"

// FileHandler 处理文件相关的 HTTP 请求
type FileHandler struct {
	files   *service.FileService // 文件业务服务
	metrics *monitoring.Metrics  // 监控指标
	log     *zap.Logger          // 结构化日志记录器
}

// NewFileHandler 创建文件处理器实例
func NewFileHandler(files *service.FileService, metrics *monitoring.Metrics, log *zap.Logger) *FileHandler {
	return &FileHandler{
		files:   files,
		metrics: metrics,
		log:     log,
	}
}

// Upload 处理文件上传请求
//
// 接收 multipart 表单的 "file" 字段，中继到上游存储后
// 持久化元数据，返回脱敏记录。
func (h *FileHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			Error(c, http.StatusRequestEntityTooLarge, MsgFileTooLarge)
			return
		}
		BadRequest(c, MsgFileMissing)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		BadRequest(c, MsgFileMissing)
		return
	}
	defer src.Close()

	mimetype := fileHeader.Header.Get("Content-Type")
	if mimetype == "" {
		mimetype = "application/octet-stream"
	}

	sanitized, err := h.files.Upload(c.Request.Context(), fileHeader.Filename, mimetype, fileHeader.Size, src)
	if err != nil {
		h.log.Error("upload failed",
			zap.String("name", fileHeader.Filename),
			zap.Error(err),
		)
		h.respondServiceError(c, err, MsgFileUploadFailed)
		return
	}

	h.metrics.FilesUploaded.Inc()
	h.metrics.UploadSize.Observe(float64(fileHeader.Size))

	Created(c, sanitized)
}

// List 返回全部文件的脱敏列表
func (h *FileHandler) List(c *gin.Context) {
	files, err := h.files.List()
	if err != nil {
		h.log.Error("list failed", zap.Error(err))
		h.respondServiceError(c, err, MsgFileListFailed)
		return
	}

	Success(c, gin.H{
		"files": files,
		"total": len(files),
	})
}

// Get 返回单个文件的脱敏元数据
func (h *FileHandler) Get(c *gin.Context) {
	id := c.Param("id")

	file, err := h.files.Get(id)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			NotFound(c, MsgFileNotFound)
			return
		}
		h.log.Error("get failed", zap.String("id", id), zap.Error(err))
		h.respondServiceError(c, err, MsgFileGetFailed)
		return
	}

	Success(c, file)
}

// Content 代理下发文件内容
//
// 响应带长期缓存头和以记录 ID 为值的 ETag；
// 命中 If-None-Match 时直接返回 304 而不触达上游存储。
func (h *FileHandler) Content(c *gin.Context) {
	id := c.Param("id")

	// 条件请求只查元数据即可响应，不触达上游存储；
	// 记录已删除时不能再返回 304，否则客户端会继续信任缓存副本
	etag := fmt.Sprintf("%q", id)
	if c.GetHeader("If-None-Match") == etag {
		if _, err := h.files.Get(id); err != nil {
			if errors.Is(err, storage.ErrFileNotFound) {
				NotFound(c, MsgFileNotFound)
				return
			}
			h.respondServiceError(c, err, MsgFileServeFailed)
			return
		}
		c.Header("Cache-Control", contentCacheControl)
		c.Header("ETag", etag)
		c.Status(http.StatusNotModified)
		return
	}

	body, length, file, err := h.files.Content(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			NotFound(c, MsgFileNotFound)
			return
		}
		h.log.Error("content fetch failed", zap.String("id", id), zap.Error(err))
		h.respondServiceError(c, err, MsgFileServeFailed)
		return
	}
	defer body.Close()

	h.metrics.FilesServed.Inc()

	c.Header("Cache-Control", contentCacheControl)
	c.Header("ETag", etag)
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.OriginalName))

	contentLength := length
	if contentLength < 0 {
		contentLength = file.Size
	}

	c.DataFromReader(http.StatusOK, contentLength, file.Mimetype, body, nil)
}

// Delete 处理文件删除请求：先删上游 blob，再删元数据
func (h *FileHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	removed, err := h.files.Delete(c.Request.Context(), id)
	if err != nil {
		h.log.Error("delete failed", zap.String("id", id), zap.Error(err))
		h.respondServiceError(c, err, MsgFileDeleteFailed)
		return
	}

	if !removed {
		NotFound(c, MsgFileNotFound)
		return
	}

	h.metrics.FilesDeleted.Inc()
	NoContent(c)
}

// respondServiceError 区分存储不可用与其他内部错误
func (h *FileHandler) respondServiceError(c *gin.Context, err error, fallbackMsg string) {
	if errors.Is(err, storage.ErrStoreUnavailable) {
		Error(c, http.StatusServiceUnavailable, MsgStoreFailed)
		return
	}
	InternalError(c, fallbackMsg)
}
