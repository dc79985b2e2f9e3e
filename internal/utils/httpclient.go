package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodySize 上游响应体大小上限
const maxBodySize = 8 << 20

// StatusError 上游返回了非 2xx 状态码
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Message)
}

// HTTPClient 带 Bearer 认证的 JSON HTTP 客户端
type HTTPClient struct {
	httpClient  *http.Client
	bearerToken string
}

// NewHTTPClient 创建新的HTTP客户端
func NewHTTPClient(timeout time.Duration, bearerToken string) *HTTPClient {
	return &HTTPClient{
		httpClient:  &http.Client{Timeout: timeout},
		bearerToken: bearerToken,
	}
}

// Get 发送GET请求，返回原始响应体
func (c *HTTPClient) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: providerMessage(body)}
	}
	return body, nil
}

// providerMessage 提取 TMDB 风格的错误信息 {"status_code":7,"status_message":"..."}
func providerMessage(body []byte) string {
	var payload struct {
		StatusMessage string `json:"status_message"`
		Message       string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.StatusMessage != "" {
		return payload.StatusMessage
	}
	return payload.Message
}
