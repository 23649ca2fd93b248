// Package tika 封装了对 Apache Tika 服务器的文本抽取调用。
package tika

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"rag-chat-go/internal/config"
	"strings"
	"time"
)

// 大文件抽取可能很慢，超时设置得比普通 API 调用宽松。
const extractTimeout = 120 * time.Second

// Client 是 Tika 服务器的客户端。
type Client struct {
	serverURL  string
	httpClient *http.Client
}

// NewClient 创建一个新的 Tika 客户端实例。
func NewClient(cfg config.TikaConfig) *Client {
	return &Client{
		serverURL:  cfg.ServerURL,
		httpClient: &http.Client{Timeout: extractTimeout},
	}
}

// ExtractText 将文件流提交给 Tika，返回去除首尾空白后的纯文本。
// Content-Type 由文件名后缀推断，未知后缀按二进制流处理。
func (c *Client) ExtractText(ctx context.Context, fileReader io.Reader, fileName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.serverURL+"/tika", fileReader)
	if err != nil {
		return "", fmt.Errorf("创建 Tika 请求失败: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Content-Type", contentTypeFor(fileName))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("调用 Tika 失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取 Tika 响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Tika 返回错误 [%d]: %s", resp.StatusCode, string(body))
	}

	// Tika 输出常带大量首尾空白，统一裁剪后再交给分块
	return strings.TrimSpace(string(body)), nil
}

func contentTypeFor(fileName string) string {
	if mimeType := mime.TypeByExtension(filepath.Ext(fileName)); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}
