package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"filebox/backend/internal/config"
)

// newTestClient 创建指向 httptest 服务器的客户端
func newTestClient(apiBase, fileBase string) *Client {
	return New(&config.RelayConfig{
		APIBase:  apiBase,
		FileBase: fileBase,
		BotToken: "test-bot-token",
		ChatID:   "-100123",
		Timeout:  5 * time.Second,
	}, zap.NewNop())
}

func TestClient_Upload(t *testing.T) {
	t.Run("successful upload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/bottest-bot-token/sendDocument", r.URL.Path)
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "-100123", r.FormValue("chat_id"))

			file, header, err := r.FormFile("document")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "photo.png", header.Filename)

			content, err := io.ReadAll(file)
			require.NoError(t, err)
			assert.Equal(t, "fake-image-bytes", string(content))

			fmt.Fprint(w, `{"ok":true,"result":{"message_id":99,"document":{"file_id":"remote-handle"}}}`)
		}))
		defer server.Close()

		client := newTestClient(server.URL, server.URL)
		loc, err := client.Upload(context.Background(), "photo.png", strings.NewReader("fake-image-bytes"))
		require.NoError(t, err)
		assert.Equal(t, int64(99), loc.MessageID)
		assert.Equal(t, "remote-handle", loc.FileID)
	})

	t.Run("api rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"ok":false,"description":"chat not found"}`)
		}))
		defer server.Close()

		client := newTestClient(server.URL, server.URL)
		_, err := client.Upload(context.Background(), "photo.png", strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrUploadFailed)
		assert.Contains(t, err.Error(), "chat not found")
	})

	t.Run("response missing file handle", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":99}}`)
		}))
		defer server.Close()

		client := newTestClient(server.URL, server.URL)
		_, err := client.Upload(context.Background(), "photo.png", strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrUploadFailed)
	})
}

func TestClient_Resolve(t *testing.T) {
	t.Run("successful resolve", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/bottest-bot-token/getFile", r.URL.Path)
			assert.Equal(t, "remote-handle", r.URL.Query().Get("file_id"))
			fmt.Fprint(w, `{"ok":true,"result":{"file_id":"remote-handle","file_path":"documents/file_1.png"}}`)
		}))
		defer server.Close()

		client := newTestClient(server.URL, "https://files.example.com")
		directURL, err := client.Resolve(context.Background(), "remote-handle")
		require.NoError(t, err)
		assert.Equal(t, "https://files.example.com/bottest-bot-token/documents/file_1.png", directURL)
	})

	t.Run("missing file path", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ok":true,"result":{"file_id":"remote-handle"}}`)
		}))
		defer server.Close()

		client := newTestClient(server.URL, server.URL)
		_, err := client.Resolve(context.Background(), "remote-handle")
		assert.ErrorIs(t, err, ErrResolveFailed)
	})
}

func TestClient_Fetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/bottest-bot-token/getFile", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"result":{"file_id":"remote-handle","file_path":"documents/file_1.png"}}`)
	})
	mux.HandleFunc("/bottest-bot-token/documents/file_1.png", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "file-bytes")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	body, size, err := client.Fetch(context.Background(), "remote-handle")
	require.NoError(t, err)
	defer body.Close()

	content, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "file-bytes", string(content))
	assert.Equal(t, int64(len("file-bytes")), size)
}

func TestClient_Delete(t *testing.T) {
	t.Run("successful delete", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/bottest-bot-token/deleteMessage", r.URL.Path)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "-100123", r.PostFormValue("chat_id"))
			assert.Equal(t, "99", r.PostFormValue("message_id"))
			fmt.Fprint(w, `{"ok":true,"result":true}`)
		}))
		defer server.Close()

		client := newTestClient(server.URL, server.URL)
		assert.NoError(t, client.Delete(context.Background(), 99))
	})

	t.Run("api error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ok":false,"description":"message to delete not found"}`)
		}))
		defer server.Close()

		client := newTestClient(server.URL, server.URL)
		err := client.Delete(context.Background(), 99)
		assert.ErrorIs(t, err, ErrDeleteFailed)
	})
}

func TestClient_InvalidResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html>bad gateway</html>")
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)
	_, err := client.Resolve(context.Background(), "remote-handle")
	assert.ErrorIs(t, err, ErrResolveFailed)
}
