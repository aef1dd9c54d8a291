package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrMissingName 缺少原始文件名
	ErrMissingName = errors.New("original name is required")
	// ErrMissingMimetype 缺少 MIME 类型
	ErrMissingMimetype = errors.New("mimetype is required")
	// ErrNegativeSize 文件大小为负数
	ErrNegativeSize = errors.New("size must not be negative")
	// ErrMissingLocator 缺少上游存储定位信息
	ErrMissingLocator = errors.New("storage locator is required")
)

// FileType 文件分类，在记录创建时由 MIME 类型推导一次，此后保持稳定
type FileType string

const (
	FileTypeImage    FileType = "image"    // 图片
	FileTypeVideo    FileType = "video"    // 视频
	FileTypeAudio    FileType = "audio"    // 音频
	FileTypeDocument FileType = "document" // 文档
	FileTypeOther    FileType = "other"    // 其他
)

// File 表示一条已存储文件的完整元数据记录。
//
// MessageID 和 FileID 是上游存储定位字段，属于敏感信息：
// 持有它们即可获取或删除底层文件，因此绝不允许出现在脱敏视图中。
type File struct {
	ID           string    `json:"id"`           // 记录唯一标识，创建后不可变，删除后不复用
	CreatedAt    time.Time `json:"createdAt"`    // 创建时间，不可变
	OriginalName string    `json:"originalName"` // 上传时的原始文件名
	Mimetype     string    `json:"mimetype"`     // MIME 类型
	Size         int64     `json:"size"`         // 大小（字节）
	FileType     FileType  `json:"fileType"`     // 派生分类，创建时计算一次
	IsDocument   bool      `json:"isDocument"`   // 是否以文档方式中继到上游存储
	MessageID    int64     `json:"messageId"`    // 敏感：上游消息 ID，删除文件时需要
	FileID       string    `json:"fileId"`       // 敏感：上游文件句柄，获取内容时需要
}

// SanitizedFile 是 File 面向不可信消费者的脱敏投影。
//
// 字段采用白名单方式枚举：File 新增的任何字段默认不出现在脱敏视图，
// 除非在此显式列出。敏感定位字段（MessageID、FileID）在任何代码路径
// 下都不得进入该结构。
type SanitizedFile struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	OriginalName string    `json:"originalName"`
	Mimetype     string    `json:"mimetype"`
	Size         int64     `json:"size"`
	FileType     FileType  `json:"fileType"`
	IsDocument   bool      `json:"isDocument"`
}

// Sanitize 返回记录的脱敏投影，是原始记录的纯函数
func (f *File) Sanitize() SanitizedFile {
	return SanitizedFile{
		ID:           f.ID,
		CreatedAt:    f.CreatedAt,
		OriginalName: f.OriginalName,
		Mimetype:     f.Mimetype,
		Size:         f.Size,
		FileType:     f.FileType,
		IsDocument:   f.IsDocument,
	}
}

// SanitizeAll 对记录切片逐条脱敏，保持原有顺序
func SanitizeAll(files []File) []SanitizedFile {
	out := make([]SanitizedFile, 0, len(files))
	for i := range files {
		out = append(out, files[i].Sanitize())
	}
	return out
}

// NewFileInput 创建文件记录所需的输入字段。
// 字段是显式枚举的：调用方无法把未知字段混入记录。
type NewFileInput struct {
	OriginalName string // 原始文件名，必填
	Mimetype     string // MIME 类型，必填
	Size         int64  // 大小（字节），不得为负
	MessageID    int64  // 上游消息 ID，必填
	FileID       string // 上游文件句柄，必填
}

// NewFile 校验输入并构造一条新的文件记录
//
// 行为:
//   - 分配全新的 UUID 作为记录 ID（删除后不会复用）
//   - 以 UTC 记录创建时间
//   - 由 MIME 类型一次性推导 FileType 与 IsDocument
//
// 返回值:
//   - *File: 构造完成的记录
//   - error: 任一必填字段缺失或非法时返回对应错误
func NewFile(in NewFileInput) (*File, error) {
	if strings.TrimSpace(in.OriginalName) == "" {
		return nil, ErrMissingName
	}
	if strings.TrimSpace(in.Mimetype) == "" {
		return nil, ErrMissingMimetype
	}
	if in.Size < 0 {
		return nil, ErrNegativeSize
	}
	if in.MessageID == 0 || strings.TrimSpace(in.FileID) == "" {
		return nil, ErrMissingLocator
	}

	fileType := FileTypeFromMime(in.Mimetype)

	return &File{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		OriginalName: in.OriginalName,
		Mimetype:     in.Mimetype,
		Size:         in.Size,
		FileType:     fileType,
		IsDocument:   fileType != FileTypeImage,
		MessageID:    in.MessageID,
		FileID:       in.FileID,
	}, nil
}

// documentMimetypes 按完整 MIME 类型归类为文档的集合
var documentMimetypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
	"application/vnd.ms-powerpoint":                                     {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	"application/rtf": {},
}

// FileTypeFromMime 由 MIME 类型推导文件分类
//
// 分类规则只在记录创建时应用一次；之后即使规则变化，
// 已持久化记录的 FileType 也不会改变。
func FileTypeFromMime(mimetype string) FileType {
	mt := strings.ToLower(strings.TrimSpace(mimetype))

	// 去除参数部分，如 "text/plain; charset=utf-8"
	if idx := strings.Index(mt, ";"); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}

	switch {
	case strings.HasPrefix(mt, "image/"):
		return FileTypeImage
	case strings.HasPrefix(mt, "video/"):
		return FileTypeVideo
	case strings.HasPrefix(mt, "audio/"):
		return FileTypeAudio
	case strings.HasPrefix(mt, "text/"):
		return FileTypeDocument
	}

	if _, ok := documentMimetypes[mt]; ok {
		return FileTypeDocument
	}

	return FileTypeOther
}
