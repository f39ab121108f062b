package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"pump_bot/internal/models"
)

const (
	category   = "linear"
	settleCoin = "USDT"
	linkPrefix = "pumpbot"
)

type Config struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	RecvWindow int // ms
}

// Client: REST v5 Bybit, только linear USDT-фьючерсы.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time

	mu          sync.RWMutex
	instruments map[string]models.Instrument
}

func NewClient(cfg Config) *Client {
	if cfg.RecvWindow <= 0 {
		cfg.RecvWindow = 5000
	}
	return &Client{
		cfg:         cfg,
		http:        &http.Client{Timeout: 10 * time.Second},
		now:         time.Now,
		instruments: make(map[string]models.Instrument),
	}
}

// envelope: общий ответ v5.
type envelope[T any] struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  T      `json:"result"`
}

// sign: hex(HMAC_SHA256(secret, ts + apiKey + recvWindow + payload)),
// payload = query string для GET и тело для POST.
func (c *Client) sign(ts, payload string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.APISecret))
	mac.Write([]byte(ts + c.cfg.APIKey + strconv.Itoa(c.cfg.RecvWindow) + payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func get[T any](ctx context.Context, c *Client, path string, q url.Values, signed bool) (T, error) {
	var zero T
	query := q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+query, nil)
	if err != nil {
		return zero, errors.Wrap(err, "build request")
	}
	if signed {
		c.authorize(req, query)
	}
	data, err := c.do(req, path)
	if err != nil {
		return zero, err
	}
	return decode[T](path, data)
}

func post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var zero T
	payload, err := sonic.Marshal(body)
	if err != nil {
		return zero, errors.Wrap(err, "marshal body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return zero, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req, string(payload))
	data, err := c.do(req, path)
	if err != nil {
		return zero, err
	}
	return decode[T](path, data)
}

func (c *Client) authorize(req *http.Request, payload string) {
	ts := strconv.FormatInt(c.now().UnixMilli(), 10)
	req.Header.Set("X-BAPI-API-KEY", c.cfg.APIKey)
	req.Header.Set("X-BAPI-TIMESTAMP", ts)
	req.Header.Set("X-BAPI-RECV-WINDOW", strconv.Itoa(c.cfg.RecvWindow))
	req.Header.Set("X-BAPI-SIGN", c.sign(ts, payload))
}

func (c *Client) do(req *http.Request, path string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s do", path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s read body", path)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%s http %d: %s", path, resp.StatusCode, string(data))
	}
	return data, nil
}

func decode[T any](path string, data []byte) (T, error) {
	var env envelope[T]
	if err := sonic.Unmarshal(data, &env); err != nil {
		return env.Result, errors.Wrapf(err, "%s decode body=%s", path, string(data))
	}
	if env.RetCode != 0 {
		return env.Result, &APIError{Path: path, Code: env.RetCode, Msg: env.RetMsg}
	}
	return env.Result, nil
}

type APIError struct {
	Path string
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bybit %s: retCode=%d retMsg=%s", e.Path, e.Code, e.Msg)
}
