package tika

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"rag-chat-go/internal/config"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	var gotMethod, gotPath, gotAccept, gotContentType, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte("\n\n  提取出的正文  \n"))
	}))
	defer server.Close()

	client := NewClient(config.TikaConfig{ServerURL: server.URL})
	text, err := client.ExtractText(context.Background(), strings.NewReader("raw bytes"), "report.pdf")
	require.NoError(t, err)

	// 输出应去除首尾空白
	assert.Equal(t, "提取出的正文", text)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/tika", gotPath)
	assert.Equal(t, "text/plain", gotAccept)
	assert.Equal(t, "application/pdf", gotContentType)
	assert.Equal(t, "raw bytes", gotBody)
}

func TestExtractTextServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported format", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(config.TikaConfig{ServerURL: server.URL})
	_, err := client.ExtractText(context.Background(), strings.NewReader("x"), "broken.docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/pdf", contentTypeFor("a.pdf"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("no-extension"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("weird.zzz9"))
}
