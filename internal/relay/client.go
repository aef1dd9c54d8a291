package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"filebox/backend/internal/config"
)

var (
	// ErrUploadFailed 上游存储拒绝或未返回文件句柄
	ErrUploadFailed = errors.New("relay upload failed")
	// ErrResolveFailed 无法解析文件的下载地址
	ErrResolveFailed = errors.New("relay resolve failed")
	// ErrDeleteFailed 上游存储删除失败
	ErrDeleteFailed = errors.New("relay delete failed")
)

// Locator 上传成功后获得的上游存储定位信息。
// 属于敏感数据：持有即可获取或删除底层文件。
type Locator struct {
	MessageID int64  // 承载文件的消息 ID，删除时需要
	FileID    string // 文件句柄，解析下载地址时需要
}

// Client 消息 Bot API 客户端，把上游消息服务当作不透明 blob 存储使用。
//
// 接口刻意收窄为三个操作：上传、解析下载地址、删除。
// 核心存储层不感知此客户端，编排全部发生在 HTTP 层。
type Client struct {
	apiBase    string
	fileBase   string
	botToken   string
	chatID     string
	httpClient *http.Client
	log        *zap.Logger
}

// New 创建 Bot API 客户端
func New(cfg *config.RelayConfig, log *zap.Logger) *Client {
	return &Client{
		apiBase:  strings.TrimRight(cfg.APIBase, "/"),
		fileBase: strings.TrimRight(cfg.FileBase, "/"),
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

// apiResponse Bot API 统一响应信封
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// sendResult sendDocument 返回的消息结构（只取所需字段）
type sendResult struct {
	MessageID int64 `json:"message_id"`
	Document  struct {
		FileID string `json:"file_id"`
	} `json:"document"`
}

// fileResult getFile 返回的文件结构
type fileResult struct {
	FileID   string `json:"file_id"`
	FilePath string `json:"file_path"`
}

// Upload 将文件内容以文档形式中继到上游存储
//
// 参数:
//   - name: 原始文件名，随消息一并保存
//   - r: 文件内容
//
// 返回值:
//   - *Locator: 消息 ID 和文件句柄
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (*Locator, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", c.chatID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	part, err := writer.CreateFormFile("document", name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendDocument", c.apiBase, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result sendResult
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	if result.MessageID == 0 || result.Document.FileID == "" {
		return nil, fmt.Errorf("%w: response missing file handle", ErrUploadFailed)
	}

	c.log.Debug("file relayed to upstream storage",
		zap.String("name", name),
		zap.Int64("message_id", result.MessageID),
	)

	return &Locator{
		MessageID: result.MessageID,
		FileID:    result.Document.FileID,
	}, nil
}

// Resolve 解析文件句柄的直接下载地址
//
// 注意：返回的地址内嵌 Bot 令牌，属于敏感信息，只能在服务端使用
// 或通过能力令牌门禁后下发。
func (c *Client) Resolve(ctx context.Context, fileID string) (string, error) {
	endpoint := fmt.Sprintf("%s/bot%s/getFile?file_id=%s", c.apiBase, c.botToken, url.QueryEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrResolveFailed, err)
	}

	var result fileResult
	if err := c.do(req, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrResolveFailed, err)
	}

	if result.FilePath == "" {
		return "", fmt.Errorf("%w: response missing file path", ErrResolveFailed)
	}

	return fmt.Sprintf("%s/bot%s/%s", c.fileBase, c.botToken, result.FilePath), nil
}

// Fetch 解析并打开文件内容流
//
// 返回值:
//   - io.ReadCloser: 文件内容，调用方负责关闭
//   - int64: 内容长度，未知时为 -1
func (c *Client) Fetch(ctx context.Context, fileID string) (io.ReadCloser, int64, error) {
	directURL, err := c.Resolve(ctx, fileID)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, directURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrResolveFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrResolveFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("%w: unexpected status %d", ErrResolveFailed, resp.StatusCode)
	}

	return resp.Body, resp.ContentLength, nil
}

// Delete 删除承载文件的上游消息
func (c *Client) Delete(ctx context.Context, messageID int64) error {
	form := url.Values{}
	form.Set("chat_id", c.chatID)
	form.Set("message_id", strconv.FormatInt(messageID, 10))

	endpoint := fmt.Sprintf("%s/bot%s/deleteMessage", c.apiBase, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}

	c.log.Debug("upstream message deleted", zap.Int64("message_id", messageID))
	return nil
}

// do 发送请求并解码 Bot API 响应信封
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("invalid response (status %d)", resp.StatusCode)
	}

	if !envelope.OK {
		if envelope.Description != "" {
			return fmt.Errorf("api error: %s", envelope.Description)
		}
		return fmt.Errorf("api error (status %d)", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("invalid result payload: %v", err)
		}
	}

	return nil
}
