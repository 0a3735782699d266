package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"confbid/bidding"
	"confbid/metrics"
)

const (
	backendName = "rest"
	// maxResponseBytes 限制單一回應讀入記憶體的大小
	maxResponseBytes = 8 << 20
)

// ErrMalformedResponse 儲存端有回應但內容無法解析(空 body、不是預期的 JSON)
var ErrMalformedResponse = errors.New("malformed response from preference store")

// StatusError 表示儲存端回傳了非預期的 4xx 狀態
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

type clientOptions struct {
	logger     *slog.Logger
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

type ClientOption func(*clientOptions)

// WithClientLogger 設置日誌記錄器
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithClientToken 每個請求都帶上 Bearer token
func WithClientToken(token string) ClientOption {
	return func(o *clientOptions) {
		o.token = token
	}
}

// WithClientTimeout 設置單一請求的逾時
func WithClientTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithHTTPClient 使用自訂的 http.Client，token 與 timeout 仍會套用
func WithHTTPClient(client *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// Client 透過 HTTP 存取遠端的偏好儲存端，實作 bidding.IStore。
// 遠端只提供列表、新增與更新，因此 Reconciler 會走先讀後寫的路徑。
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base url cannot be empty")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url scheme %q", u.Scheme)
	}

	// 默認選項
	options := clientOptions{
		logger:  slog.Default(),
		timeout: 10 * time.Second,
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	httpClient := &http.Client{}
	if options.httpClient != nil {
		*httpClient = *options.httpClient
	}
	if options.token != "" {
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		httpClient.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: options.token, TokenType: "Bearer"}),
			Base:   base,
		}
	}
	if options.timeout > 0 {
		httpClient.Timeout = options.timeout
	}

	return &Client{
		baseURL: u,
		http:    httpClient,
		logger:  options.logger.With(slog.String("caller", "RestClient"), slog.String("baseURL", u.String())),
	}, nil
}

// ListBids GET {base}/bids?reviewer={id}
// 無法解析的列會被略過並記錄，不影響其他列；沒有 reviewer 欄位的列視為屬於查詢的審稿人
func (c *Client) ListBids(ctx context.Context, reviewer uint64) ([]bidding.BidRecord, error) {
	const op = "rest.Client.ListBids"
	query := url.Values{"reviewer": []string{strconv.FormatUint(reviewer, 10)}}
	var rows []json.RawMessage
	err := c.do(ctx, http.MethodGet, "/bids", query, nil, &rows)
	metrics.ObserveStore(backendName, "list", err)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to list bids, err=%w", op, err)
	}

	records := make([]bidding.BidRecord, 0, len(rows))
	for i, row := range rows {
		record, err := decodeRow(row)
		if err != nil {
			c.logger.Warn("Skip malformed bid row", slog.Uint64("reviewer", reviewer), slog.Int("index", i), slog.Any("error", err))
			metrics.BidRecordsDiscarded.WithLabelValues(metrics.ReasonMalformed).Inc()
			continue
		}
		if record.Reviewer == 0 {
			record.Reviewer = reviewer
		}
		records = append(records, record)
	}
	return records, nil
}

// CreateBid POST {base}/bids
func (c *Client) CreateBid(ctx context.Context, record bidding.BidRecord) (bidding.BidRecord, error) {
	const op = "rest.Client.CreateBid"
	body := createRequest{
		Reviewer: record.Reviewer,
		Article:  record.Article,
		Choice:   string(record.Choice),
	}
	var payload bidPayload
	err := c.do(ctx, http.MethodPost, "/bids", nil, body, &payload)
	metrics.ObserveStore(backendName, "create", err)
	if err != nil {
		return bidding.BidRecord{}, fmt.Errorf("[%s] Fail to create bid, err=%w", op, err)
	}
	return payload.toRecord(), nil
}

// UpdateBid PATCH {base}/bids/{id}，404 對應 bidding.ErrBidNotFound
func (c *Client) UpdateBid(ctx context.Context, id uint64, choice bidding.Choice) (bidding.BidRecord, error) {
	const op = "rest.Client.UpdateBid"
	var payload bidPayload
	err := c.do(ctx, http.MethodPatch, "/bids/"+strconv.FormatUint(id, 10), nil, updateRequest{Choice: string(choice)}, &payload)
	metrics.ObserveStore(backendName, "update", err)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			err = bidding.ErrBidNotFound
		}
		return bidding.BidRecord{}, fmt.Errorf("[%s] Fail to update bid %d, err=%w", op, id, err)
	}
	return payload.toRecord(), nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	u := *c.baseURL
	u.Path += path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// 呼叫端主動取消時保留原本的錯誤
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Warn("Request failed", slog.String("method", method), slog.String("path", path), slog.Any("error", err))
		return fmt.Errorf("%w: %w", bidding.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", bidding.ErrRemoteUnavailable, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	// 讀取中斷屬於連線問題，內容不合法則是協定問題
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: read response: %w", bidding.ErrRemoteUnavailable, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty body with status %d", ErrMalformedResponse, resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
