package marketplace_api_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
	"strings"
	"time"
)

// Client - единая точка обращения к API маркетплейса.
type Client struct {
	baseURL    string // например, "http://marketplace-api:8080/api"
	httpClient *http.Client
}

// NewClient - конструктор. timeout = 0 - без ограничения.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RequestOptions - параметры одного запроса.
type RequestOptions struct {
	Params url.Values
	Body   any
	// Token - bearer-токен клиента; пустой - запрос без авторизации.
	Token string
}

// Response - успешный ответ: статус и необработанное тело.
type Response struct {
	Status int
	Data   json.RawMessage
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Request выполняет запрос. Ответ со статусом не 2xx превращается в *domain.APIError
// с сообщением из поля message тела ответа.
func (c *Client) Request(ctx context.Context, method, path string, opts RequestOptions) (*Response, error) {
	clientLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "MarketplaceApiClient",
		"method":    "Request",
		"http":      method,
		"path":      path,
	})

	target := c.baseURL + path
	if len(opts.Params) > 0 {
		target += "?" + opts.Params.Encode()
	}

	var body io.Reader
	if opts.Body != nil {
		raw, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	resp, err := c.doRequest(ctx, method, target, body, opts.Token)
	if err != nil {
		clientLogger.Error("Failed to perform request to marketplace api", err, nil)
		return nil, fmt.Errorf("marketplace api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read marketplace api response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := domain.NewAPIError(resp.StatusCode, errorMessage(raw))
		clientLogger.Warn("Received error response from marketplace api", port.Fields{
			"status_code": resp.StatusCode,
			"message":     apiErr.Message,
		})
		return nil, apiErr
	}

	clientLogger.Debug("Received response from marketplace api", port.Fields{"status_code": resp.StatusCode, "bytes": len(raw)})
	return &Response{Status: resp.StatusCode, Data: raw}, nil
}

// doRequest - внутренний хелпер для выполнения запросов
func (c *Client) doRequest(ctx context.Context, method, target string, body io.Reader, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

func errorMessage(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func tokenOf(tokens port.TokenSource) string {
	if tokens == nil {
		return ""
	}
	return tokens.Token()
}
