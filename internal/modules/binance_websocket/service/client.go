package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"pump_bot/internal/metrics"
	"pump_bot/internal/models"
	"pump_bot/pkg/logger"
)

// HealthReporter: отметки для /healthz.
type HealthReporter interface {
	SetWSConnected(v bool)
	TouchTick(t time.Time)
}

type Config struct {
	BaseURL  string // wss://stream.binance.com:9443/stream
	Interval string // 1m
	Symbols  []string
}

type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	health HealthReporter
}

func NewClient(cfg Config, health HealthReporter) *Client {
	return &Client{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		health: health,
	}
}

// URL combined stream на все символы: ?streams=btcusdt@kline_1m/ethusdt@kline_1m.
func (c *Client) URL() string {
	streams := make([]string, 0, len(c.cfg.Symbols))
	for _, s := range c.cfg.Symbols {
		streams = append(streams, fmt.Sprintf("%s@kline_%s", strings.ToLower(s), c.cfg.Interval))
	}
	return c.cfg.BaseURL + "?streams=" + strings.Join(streams, "/")
}

// Start стримит закрытые свечи в out до отмены ctx, переподключаясь с backoff.
func (c *Client) Start(ctx context.Context, out chan<- models.Candle) {
	url := c.URL()
	var b reconnectBackoff

	for {
		connected, err := c.consume(ctx, url, out)
		c.setConnected(false)
		if ctx.Err() != nil {
			logger.Info("[WS] stream stopped")
			return
		}
		// после успешного подключения паузы считаем заново
		if connected {
			b.Reset()
		}
		wait := b.Next()
		logger.Warn("[WS] disconnected: %v, retry in %s", err, wait)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}
}

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// reconnectBackoff: 1s, 1.8s, 3.24s ... до 30s.
type reconnectBackoff struct {
	cur time.Duration
}

func (b *reconnectBackoff) Next() time.Duration {
	if b.cur == 0 {
		b.cur = minBackoff
	}
	wait := b.cur
	b.cur = time.Duration(math.Min(float64(maxBackoff), float64(b.cur)*1.8))
	return wait
}

func (b *reconnectBackoff) Reset() { b.cur = 0 }

// consume читает стрим до ошибки; connected: был ли успешный dial.
func (c *Client) consume(ctx context.Context, url string, out chan<- models.Candle) (connected bool, err error) {
	logger.Info("[WS] connect %d symbols, interval %s", len(c.cfg.Symbols), c.cfg.Interval)
	conn, _, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	c.setConnected(true)

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	})

	// keepalive: ping раз в 20s, иначе соединение считается мёртвым
	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	go func() {
		t := time.NewTicker(20 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-pingCtx.Done():
				return
			case <-t.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					logger.Warn("[WS] ping: %v", err)
					return
				}
			}
		}
	}()

	// закрываем соединение при отмене, чтобы разблокировать ReadMessage
	go func() {
		<-pingCtx.Done()
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("read: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))

		candle, err := DecodeFrame(msg)
		if errors.Is(err, ErrPartialCandle) {
			continue
		}
		if err != nil {
			metrics.CandlesRejected.WithLabelValues("unknown", "malformed").Inc()
			logger.Warn("[WS] skip frame: %v", err)
			continue
		}
		if c.health != nil {
			c.health.TouchTick(time.Now())
		}

		select {
		case out <- candle:
		case <-ctx.Done():
			return true, ctx.Err()
		}
	}
}

func (c *Client) setConnected(v bool) {
	if c.health != nil {
		c.health.SetWSConnected(v)
	}
}
