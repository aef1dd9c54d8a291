package httptransport

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest = "请求参数格式错误"
	MsgFileMissing    = "请求中缺少文件"
	MsgFileTooLarge   = "文件超出大小限制"

	// 认证相关
	MsgInvalidCredentials = "口令错误"
	MsgTokenInvalid       = "访问令牌无效或已过期"

	// 文件相关
	MsgFileNotFound     = "文件不存在"
	MsgFileUploadFailed = "上传文件失败"
	MsgFileListFailed   = "获取文件列表失败"
	MsgFileGetFailed    = "获取文件详情失败"
	MsgFileDeleteFailed = "删除文件失败"
	MsgFileServeFailed  = "获取文件内容失败"

	// 服务器错误
	MsgInternalError = "服务器内部错误，请稍后重试"
	MsgStoreFailed   = "存储暂时不可用，请稍后重试"
)
