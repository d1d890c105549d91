// Package vapi 提供了与 Vapi 语音通话服务交互的客户端。
package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"amora-go/internal/config"
)

// Client 是 Vapi 语音服务的客户端。
type Client struct {
	cfg    config.VapiConfig
	client *http.Client
}

// NewClient 创建一个新的 Vapi 客户端实例。
func NewClient(cfg config.VapiConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// StartCallRequest 描述一次语音通话的启动参数。
// MaxDurationSeconds 由用户剩余语音分钟数换算得到，作为硬性时长上限。
type StartCallRequest struct {
	AssistantID        string
	UserID             uint
	MaxDurationSeconds int
}

// Call 是 Vapi 返回的通话对象。
type Call struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// StartCall 以指定助手 ID 创建一次通话，绑定用户变量并设置最大时长。
func (c *Client) StartCall(ctx context.Context, req StartCallRequest) (*Call, error) {
	payload := map[string]interface{}{
		"assistantId": req.AssistantID,
		"assistantOverrides": map[string]interface{}{
			"variableValues": map[string]interface{}{
				"userId": req.UserID,
			},
			"maxDurationSeconds": req.MaxDurationSeconds,
		},
	}

	reqBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal call request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/call", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create call request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call vapi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vapi returned non-2xx status: %s, body: %s", resp.Status, string(body))
	}

	var call Call
	if err := json.NewDecoder(resp.Body).Decode(&call); err != nil {
		return nil, fmt.Errorf("failed to decode vapi response: %w", err)
	}
	return &call, nil
}
