// Package webhook 提供了与 n8n 工作流引擎交互的客户端。
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// n8n 工作流的 API 密钥通过该请求头传递。
const apiKeyHeader = "X-N8N-API-KEY"

// ErrEmptyReply 表示工作流返回了 2xx 但没有任何可识别形状的回复内容。
var ErrEmptyReply = errors.New("workflow returned no usable reply")

// Client 是 n8n 工作流 webhook 的客户端。
// API 密钥按调用传入：正式值在发送时从 system_settings 查得。
type Client struct {
	client *http.Client
}

// NewClient 创建一个新的 webhook 客户端实例。
// timeoutSeconds <= 0 时使用默认的 30 秒超时。
func NewClient(timeoutSeconds int) *Client {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	return &Client{
		client: &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
	}
}

// ChatRequest 是发送到顾问对话工作流的请求体。
type ChatRequest struct {
	Message     string `json:"message"`
	AgentID     uint   `json:"agentId"`
	UserID      uint   `json:"userId"`
	AdvisorName string `json:"advisorName"`
}

// chatReply 覆盖工作流可能返回的两种对象形状：{"output":...} 或 {"text":...}。
type chatReply struct {
	Output string `json:"output"`
	Text   string `json:"text"`
}

// SendChat 调用顾问配置的对话工作流并返回 AI 回复文本。
// 接受三种响应形状：{"output":"..."}、{"text":"..."} 或裸字符串；
// 其他形状视为失败。
func (c *Client) SendChat(ctx context.Context, webhookURL, apiKey string, req ChatRequest) (string, error) {
	body, err := c.post(ctx, webhookURL, apiKey, req)
	if err != nil {
		return "", err
	}
	return ParseReply(body)
}

// SubmitDiscovery 将问卷答案提交到发现分析工作流。
// 只消费状态码，响应体不解析。
func (c *Client) SubmitDiscovery(ctx context.Context, webhookURL, apiKey string, userID uint, answers map[string]string) error {
	payload := map[string]interface{}{
		"userId":  userID,
		"answers": answers,
	}
	_, err := c.post(ctx, webhookURL, apiKey, payload)
	return err
}

func (c *Client) post(ctx context.Context, url, apiKey string, payload interface{}) ([]byte, error) {
	reqBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set(apiKeyHeader, apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call webhook: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook returned non-2xx status: %s, body: %s", resp.Status, string(body))
	}
	return body, nil
}

// ParseReply 从工作流响应体中提取回复文本。
func ParseReply(body []byte) (string, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", ErrEmptyReply
	}

	// 对象形状：优先 output，其次 text
	if strings.HasPrefix(trimmed, "{") {
		var reply chatReply
		if err := json.Unmarshal(body, &reply); err != nil {
			return "", fmt.Errorf("failed to decode workflow reply: %w", err)
		}
		if reply.Output != "" {
			return reply.Output, nil
		}
		if reply.Text != "" {
			return reply.Text, nil
		}
		return "", ErrEmptyReply
	}

	// 数组不是约定形状，不能当作裸文本落库
	if strings.HasPrefix(trimmed, "[") {
		return "", ErrEmptyReply
	}

	// JSON 字符串形状："..."
	if strings.HasPrefix(trimmed, "\"") {
		var s string
		if err := json.Unmarshal(body, &s); err == nil && s != "" {
			return s, nil
		}
		return "", ErrEmptyReply
	}

	// 裸文本形状
	return trimmed, nil
}
