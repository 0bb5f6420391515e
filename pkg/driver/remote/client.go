// Package remote fetches page sources from a running WebDriver-protocol
// server such as WebDriverAgent, the UIAutomator2 server or Appium.
package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/0xflotus/Detox/pkg/logger"
)

// DefaultTimeout bounds a single HTTP request.
const DefaultTimeout = 30 * time.Second

// Response is the standard WebDriver response envelope.
type Response struct {
	SessionID string      `json:"sessionId"`
	Value     interface{} `json:"value"`
}

// Client talks to a WebDriver-protocol server.
type Client struct {
	http      *http.Client
	baseURL   string
	sessionID string
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SetSession sets the session whose source is fetched. With no session the
// sessionless /source endpoint is used, which WebDriverAgent serves.
func (c *Client) SetSession(sessionID string) {
	c.sessionID = sessionID
}

// SessionID returns the current session ID.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Status checks if the server is ready.
func (c *Client) Status() (bool, error) {
	data, err := c.request("GET", "/status", nil)
	if err != nil {
		return false, err
	}

	var resp struct {
		Value struct {
			Ready bool `json:"ready"`
		} `json:"value"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return false, fmt.Errorf("parse status response: %w", err)
	}
	return resp.Value.Ready, nil
}

// Source returns the current UI hierarchy as the server serializes it.
func (c *Client) Source() (string, error) {
	path := "/source"
	if c.sessionID != "" {
		path = c.sessionPath("/source")
	}
	data, err := c.request("GET", path, nil)
	if err != nil {
		return "", err
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("parse source response: %w", err)
	}
	source, ok := resp.Value.(string)
	if !ok {
		return "", fmt.Errorf("invalid source response")
	}
	return source, nil
}

func (c *Client) sessionPath(path string) string {
	return fmt.Sprintf("/session/%s%s", c.sessionID, path)
}

func (c *Client) request(method, path string, body interface{}) ([]byte, error) {
	start := time.Now()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		logger.Debug("%s %s [%v] ERROR: %v", method, path, elapsed, err)
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	logger.Debug("%s %s [%v] status=%d bytes=%d", method, path, elapsed, resp.StatusCode, len(respBody))

	if resp.StatusCode >= 400 {
		var errResp Response
		if json.Unmarshal(respBody, &errResp) == nil {
			if errVal, ok := errResp.Value.(map[string]interface{}); ok {
				errType, _ := errVal["error"].(string)
				errMsg, _ := errVal["message"].(string)
				if errType != "" || errMsg != "" {
					return nil, fmt.Errorf("%s: %s", errType, errMsg)
				}
			}
		}
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
