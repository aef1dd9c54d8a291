package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput 返回一份可通过校验的输入
func validInput() NewFileInput {
	return NewFileInput{
		OriginalName: "report.pdf",
		Mimetype:     "application/pdf",
		Size:         2048,
		MessageID:    42,
		FileID:       "upstream-file-handle",
	}
}

func TestNewFile(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		f, err := NewFile(validInput())
		require.NoError(t, err)

		assert.NotEmpty(t, f.ID)
		assert.False(t, f.CreatedAt.IsZero())
		assert.Equal(t, "report.pdf", f.OriginalName)
		assert.Equal(t, FileTypeDocument, f.FileType)
		assert.True(t, f.IsDocument)
		assert.Equal(t, int64(42), f.MessageID)
	})

	t.Run("each record gets a fresh id", func(t *testing.T) {
		a, err := NewFile(validInput())
		require.NoError(t, err)
		b, err := NewFile(validInput())
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("image is not relayed as document", func(t *testing.T) {
		in := validInput()
		in.Mimetype = "image/png"
		f, err := NewFile(in)
		require.NoError(t, err)
		assert.Equal(t, FileTypeImage, f.FileType)
		assert.False(t, f.IsDocument)
	})

	t.Run("missing name", func(t *testing.T) {
		in := validInput()
		in.OriginalName = "  "
		_, err := NewFile(in)
		assert.ErrorIs(t, err, ErrMissingName)
	})

	t.Run("missing mimetype", func(t *testing.T) {
		in := validInput()
		in.Mimetype = ""
		_, err := NewFile(in)
		assert.ErrorIs(t, err, ErrMissingMimetype)
	})

	t.Run("negative size", func(t *testing.T) {
		in := validInput()
		in.Size = -1
		_, err := NewFile(in)
		assert.ErrorIs(t, err, ErrNegativeSize)
	})

	t.Run("zero size allowed", func(t *testing.T) {
		in := validInput()
		in.Size = 0
		_, err := NewFile(in)
		assert.NoError(t, err)
	})

	t.Run("missing locator", func(t *testing.T) {
		in := validInput()
		in.MessageID = 0
		_, err := NewFile(in)
		assert.ErrorIs(t, err, ErrMissingLocator)

		in = validInput()
		in.FileID = ""
		_, err = NewFile(in)
		assert.ErrorIs(t, err, ErrMissingLocator)
	})
}

func TestFile_Sanitize(t *testing.T) {
	f, err := NewFile(validInput())
	require.NoError(t, err)

	s := f.Sanitize()
	assert.Equal(t, f.ID, s.ID)
	assert.Equal(t, f.OriginalName, s.OriginalName)
	assert.Equal(t, f.Mimetype, s.Mimetype)
	assert.Equal(t, f.Size, s.Size)
	assert.Equal(t, f.FileType, s.FileType)

	// 序列化后的脱敏视图不得含有上游定位字段
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "messageId")
	assert.NotContains(t, string(data), "fileId")
	assert.NotContains(t, string(data), "upstream-file-handle")
}

func TestSanitizeAll(t *testing.T) {
	a, err := NewFile(validInput())
	require.NoError(t, err)
	b, err := NewFile(validInput())
	require.NoError(t, err)

	out := SanitizeAll([]File{*a, *b})
	require.Len(t, out, 2)
	assert.Equal(t, a.ID, out[0].ID)
	assert.Equal(t, b.ID, out[1].ID)

	t.Run("empty slice yields empty non nil slice", func(t *testing.T) {
		out := SanitizeAll(nil)
		assert.NotNil(t, out)
		assert.Len(t, out, 0)
	})
}

func TestFileTypeFromMime(t *testing.T) {
	cases := []struct {
		mimetype string
		want     FileType
	}{
		{"image/png", FileTypeImage},
		{"image/jpeg", FileTypeImage},
		{"video/mp4", FileTypeVideo},
		{"audio/mpeg", FileTypeAudio},
		{"text/plain", FileTypeDocument},
		{"text/plain; charset=utf-8", FileTypeDocument},
		{"application/pdf", FileTypeDocument},
		{"APPLICATION/PDF", FileTypeDocument},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", FileTypeDocument},
		{"application/zip", FileTypeOther},
		{"application/octet-stream", FileTypeOther},
		{"", FileTypeOther},
	}

	for _, tc := range cases {
		t.Run(tc.mimetype, func(t *testing.T) {
			assert.Equal(t, tc.want, FileTypeFromMime(tc.mimetype))
		})
	}
}
