// Package failover выполняет HTTP-запросы к одному из двух серверов реестра
// с проверкой здоровья и не более чем одной попыткой переключения на запасной.
//
// Состояния клиента: выбор сервера -> активный сервер -> переключение.
// Переключение разрешено один раз на логический вызов (retryCount).
package failover

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
	"strings"
	"time"

	"github.com/pribylovaa/webthreads/internal/models"
	"github.com/pribylovaa/webthreads/internal/registry"
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultHealthTimeout = 5 * time.Second

	// maxRetries — сколько переключений допускает один логический вызов.
	maxRetries = 1
)

var (
	// ErrNoServerAvailable — ни один включённый сервер не прошёл проверку здоровья.
	ErrNoServerAvailable = errors.New("no server available")
	// ErrServiceUnavailable — вызов не удался и после допустимого переключения.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Options — параметры клиента.
type Options struct {
	HTTPClient    *http.Client
	Timeout       time.Duration // дедлайн одного отправленного запроса
	HealthTimeout time.Duration // дедлайн одной проверки здоровья
	Logger        *slog.Logger
}

// Request — запрос относительно APIBaseURL текущего сервера.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
	Header http.Header
}

// Response — полностью прочитанный ответ сервера.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Server     registry.Descriptor
}

// Client — HTTP-клиент с переключением между серверами реестра.
type Client struct {
	reg           *registry.Registry
	http          *http.Client
	timeout       time.Duration
	healthTimeout time.Duration
	log           *slog.Logger
}

// New создаёт клиент поверх реестра.
func New(reg *registry.Registry, opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = DefaultHealthTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		reg:           reg,
		http:          opts.HTTPClient,
		timeout:       opts.Timeout,
		healthTimeout: opts.HealthTimeout,
		log:           opts.Logger,
	}
}

// Registry возвращает реестр клиента.
func (c *Client) Registry() *registry.Registry {
	return c.reg
}

// HealthCheck опрашивает GET {BaseURL}/health. true — только при 2xx и
// разобранном теле с database == "connected". Ошибки не возвращает.
func (c *Client) HealthCheck(ctx context.Context, d registry.Descriptor) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	lg := c.log.With("server", d.Key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinURL(d.BaseURL, "/health"), nil)
	if err != nil {
		lg.Debug("health_check_failed", "err", err)
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		lg.Debug("health_check_failed", "err", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		lg.Debug("health_check_failed", "status", resp.StatusCode)
		return false
	}

	var h models.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		lg.Debug("health_check_failed", "err", err)
		return false
	}

	return h.Database == models.DatabaseConnected
}

// SelectWorkingServer опрашивает включённые серверы по приоритету
// (локальный раньше облачного), делает первый здоровый текущим и сохраняет выбор.
func (c *Client) SelectWorkingServer(ctx context.Context) (registry.Descriptor, error) {
	for _, d := range c.reg.Candidates() {
		if !c.HealthCheck(ctx, d) {
			continue
		}

		if err := c.reg.SetCurrent(ctx, d.Key); err != nil {
			// Выбор уже применён в памяти; не сохранён только между запусками.
			c.log.Warn("server_preference_not_saved", "server", d.Key, "err", err)
		}

		c.log.Info("server_selected", "server", d.Key, "name", d.DisplayName)
		return d, nil
	}

	c.log.Error("no_server_available")
	return registry.Descriptor{}, ErrNoServerAvailable
}

// Init восстанавливает сохранённый выбор и один раз проверяет его.
// Если выбора нет или сервер нездоров — выбирает заново.
func (c *Client) Init(ctx context.Context) (registry.Descriptor, error) {
	d, ok, err := c.reg.Restore(ctx)
	if err != nil {
		c.log.Warn("server_preference_not_loaded", "err", err)
	}

	if ok && c.HealthCheck(ctx, d) {
		c.log.Info("server_restored", "server", d.Key, "name", d.DisplayName)
		return d, nil
	}

	return c.SelectWorkingServer(ctx)
}

// Do отправляет запрос текущему серверу (выбирая его, если выбора ещё нет).
// Ошибка транспорта, таймаут или 5xx приводят не более чем к одному
// переключению: повтор выполняется, только если выбор сервера изменился.
// 4xx возвращаются вызывающему без повторов.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	const op = "failover/Do"

	d, ok := c.reg.Current()
	if !ok {
		var err error
		if d, err = c.SelectWorkingServer(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrServiceUnavailable, err)
		}
	}

	resp, err := c.request(ctx, d, req, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrServiceUnavailable, err)
	}

	return resp, nil
}

// request — один шаг автомата: отправка на d и, при retryCount < maxRetries,
// переключение на другой здоровый сервер.
func (c *Client) request(ctx context.Context, d registry.Descriptor, req Request, retryCount int) (*Response, error) {
	resp, err := c.dispatch(ctx, d, req)
	if err == nil {
		return resp, nil
	}

	lg := c.log.With("server", d.Key, "method", req.Method, "path", req.Path, "retry", retryCount)
	lg.Warn("request_failed", "err", err)

	// Вызывающий сам отменил запрос — переключаться бессмысленно.
	if ctx.Err() != nil {
		return nil, err
	}

	if retryCount >= maxRetries || !c.reg.HasFallback() {
		return nil, err
	}

	next, selErr := c.SelectWorkingServer(ctx)
	if selErr != nil {
		return nil, errors.Join(err, selErr)
	}

	if next.Key == d.Key {
		return nil, err
	}

	lg.Info("failover_switched", "to", next.Key)
	return c.request(ctx, next, req, retryCount+1)
}

// dispatch выполняет один HTTP-вызов с дедлайном c.timeout.
// Ошибкой считаются сбой транспорта, таймаут и 5xx.
func (c *Client) dispatch(ctx context.Context, d registry.Descriptor, r Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := joinURL(d.APIBaseURL, r.Path)
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.Method, d.Key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", r.Method, d.Key, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%s %s: server responded %d", r.Method, d.Key, resp.StatusCode)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Server:     d,
	}, nil
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
