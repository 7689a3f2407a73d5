package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func multipartRequest(t *testing.T, filename, contentType string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/products", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Host = "shop.example.com"
	return req
}

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s
}

func TestSave(t *testing.T) {
	s := newTestStorage(t)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = multipartRequest(t, "red shoe.png", "image/png", []byte("png-bytes"))

	file, err := c.FormFile("image")
	require.NoError(t, err)

	url, err := s.Save(c, file)
	require.NoError(t, err)
	assert.Equal(t, "http://shop.example.com/public/uploads/red-shoe.png-1700000000000.png", url)

	data, err := os.ReadFile(filepath.Join(s.Dir(), "red-shoe.png-1700000000000.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestSave_RejectsUnknownType(t *testing.T) {
	s := newTestStorage(t)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = multipartRequest(t, "notes.txt", "text/plain", []byte("hi"))

	file, err := c.FormFile("image")
	require.NoError(t, err)

	_, err = s.Save(c, file)
	assert.ErrorIs(t, err, ErrInvalidType)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
