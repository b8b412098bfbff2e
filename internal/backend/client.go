package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"contract-bot/internal/cache"
	apperrors "contract-bot/internal/common/errors"
	"contract-bot/internal/common/logger"
	"contract-bot/internal/common/metrics"
	"contract-bot/internal/common/observability"
	"contract-bot/internal/common/validation"
	"contract-bot/pkg/registry"
)

// Client exposes one method per backend action. Reads are served from the cache when fresh;
// writes always go to the backend.
type Client struct {
	config     *Config
	gateway    Gateway
	retry      *RetryPolicy
	cache      *cache.Cache
	classifier *Classifier
	obs        *observability.Observability
	logger     logger.Logger
}

type Option func(*Client)

func WithObservability(obs *observability.Observability) Option {
	return func(c *Client) { c.obs = obs }
}

// WithWait swaps the backoff sleep, used by tests to avoid real delays.
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.retry.wait = wait }
}

func NewClient(config *Config, gateway Gateway, respCache *cache.Cache, reg *registry.ActionRegistry, log logger.Logger, opts ...Option) *Client {
	log = log.With(map[string]interface{}{"component": "backend"})
	c := &Client{
		config:     config,
		gateway:    gateway,
		retry:      NewRetryPolicy(config.RetryAttempts, config.RetryDelay, log),
		cache:      respCache,
		classifier: NewClassifier(reg),
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New wires the HTTP gateway, payload validator and cache from config.
func New(config *Config, log logger.Logger, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backend config: %w", err)
	}
	reg := registry.Default()
	validator, err := validation.NewPayloadValidator(reg.Schemas())
	if err != nil {
		return nil, err
	}
	gw := NewHTTPGateway(config, validator, log)
	return NewClient(config, gw, cache.New(config.CacheTTL, config.CacheCapacity), reg, log, opts...), nil
}

func (c *Client) call(ctx context.Context, action string, params Params) (json.RawMessage, error) {
	return c.do(ctx, action, params, true)
}

func (c *Client) do(ctx context.Context, action string, params Params, useCache bool) (json.RawMessage, error) {
	if res := validation.ValidateParams(params, c.classifier.RequiredParams(action)); !res.Valid {
		return nil, apperrors.NewValidationError(res.String()).WithMetadata("action", action)
	}

	cacheable := useCache && !c.classifier.IsWrite(action)
	if cacheable {
		if payload, ok := c.cache.Get(action, params); ok {
			metrics.CacheLookups.WithLabelValues(action, "hit").Inc()
			c.logger.Debug("cache hit", map[string]interface{}{"action": action})
			return payload, nil
		}
		metrics.CacheLookups.WithLabelValues(action, "miss").Inc()
	}

	start := time.Now()
	out := c.retry.Do(ctx, action, params, c.gateway)
	elapsed := time.Since(start)

	if !out.Result.IsOk() {
		metrics.RemoteCallsTotal.WithLabelValues(action, "error").Inc()
		c.obs.RecordOperation(ctx, action, "error", elapsed)
		return nil, &apperrors.RemoteError{Action: action, Attempts: out.Attempts, Last: out.Result.Err}
	}

	metrics.RemoteCallsTotal.WithLabelValues(action, "ok").Inc()
	c.obs.RecordOperation(ctx, action, "ok", elapsed)

	if cacheable {
		c.cache.Put(action, params, out.Result.Payload)
		metrics.CacheSize.Set(float64(c.cache.Stats().Size))
	}
	return out.Result.Payload, nil
}

func decode[T any](action string, payload json.RawMessage) (*T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, apperrors.NewBadPayloadError(action, err.Error())
	}
	return &v, nil
}

// ListContracts returns up to limit contracts. A non-positive limit means the default of 50.
func (c *Client) ListContracts(ctx context.Context, limit int) ([]Contract, error) {
	if limit <= 0 {
		limit = c.config.DefaultLimit
	}
	payload, err := c.call(ctx, ActionContracts, Params{"limit": strconv.Itoa(limit)})
	if err != nil {
		return nil, err
	}
	body, err := decode[contractsPayload](ActionContracts, payload)
	if err != nil {
		return nil, err
	}
	return body.Items, nil
}

// GetStats returns nil stats when the backend has nothing to report.
func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	payload, err := c.call(ctx, ActionStats, Params{})
	if err != nil {
		return nil, err
	}
	body, err := decode[statsPayload](ActionStats, payload)
	if err != nil {
		return nil, err
	}
	return body.Stats, nil
}

func (c *Client) RegenerateContract(ctx context.Context, number string) (*DocumentURLs, error) {
	payload, err := c.call(ctx, ActionRegenerate, Params{"number": number})
	if err != nil {
		return nil, err
	}
	return decode[DocumentURLs](ActionRegenerate, payload)
}

func (c *Client) GenerateInvoice(ctx context.Context, number string) (*Document, error) {
	payload, err := c.call(ctx, ActionGenerateInvoice, Params{"number": number})
	if err != nil {
		return nil, err
	}
	return decode[Document](ActionGenerateInvoice, payload)
}

func (c *Client) GenerateAct(ctx context.Context, number string) (*Document, error) {
	payload, err := c.call(ctx, ActionGenerateAct, Params{"number": number})
	if err != nil {
		return nil, err
	}
	return decode[Document](ActionGenerateAct, payload)
}

// UpdateContract sends fields alongside the contract number. A field named
// "number" cannot retarget the update.
func (c *Client) UpdateContract(ctx context.Context, number string, fields map[string]string) (*DocumentURLs, error) {
	if len(fields) == 0 {
		return nil, apperrors.NewNoEditFieldsError(number)
	}
	params := make(Params, len(fields)+1)
	for k, v := range fields {
		params[k] = v
	}
	params["number"] = number

	payload, err := c.call(ctx, ActionUpdate, params)
	if err != nil {
		return nil, err
	}
	return decode[DocumentURLs](ActionUpdate, payload)
}

// HealthCheck never fails; problems are reported in the returned value.
func (c *Client) HealthCheck(ctx context.Context) Health {
	start := time.Now()
	_, err := c.do(ctx, ActionHealth, Params{}, false)
	elapsed := time.Since(start)

	if err != nil {
		msg := err.Error()
		if stdErr, ok := apperrors.AsStandard(err); ok {
			msg = stdErr.Message
		}
		c.logger.Error("health check failed", map[string]interface{}{"error": msg})
		return Health{Healthy: false, Error: msg}
	}
	c.logger.Info("health check passed", map[string]interface{}{"responseTimeMs": elapsed.Milliseconds()})
	return Health{Healthy: true, ResponseTime: elapsed}
}

func (c *Client) ClearCache() {
	c.cache.Clear()
	metrics.CacheSize.Set(0)
	c.logger.Info("cache cleared", nil)
}

func (c *Client) CacheStats() cache.Stats {
	return c.cache.Stats()
}

// Cache exposes the response cache so the process can schedule its sweep.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}
