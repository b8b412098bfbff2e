package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/google/uuid"

	apperrors "contract-bot/internal/common/errors"
	commonhttp "contract-bot/internal/common/http"
	"contract-bot/internal/common/logger"
	"contract-bot/internal/common/validation"
)

// Gateway performs one backend exchange. Implementations never return a Go error;
// every failure is folded into Result.Err.
type Gateway interface {
	Call(ctx context.Context, action string, params Params) Result
}

// HTTPGateway sends GET {url}?action=..&key=..&<params> and normalizes the reply.
type HTTPGateway struct {
	client    *commonhttp.Client
	baseURL   string
	apiKey    string
	timeout   time.Duration
	validator *validation.PayloadValidator
	logger    logger.Logger
}

func NewHTTPGateway(config *Config, validator *validation.PayloadValidator, log logger.Logger) *HTTPGateway {
	return &HTTPGateway{
		client:    commonhttp.NewClient(config.Timeout, config.UserAgent),
		baseURL:   config.URL,
		apiKey:    config.APIKey,
		timeout:   config.Timeout,
		validator: validator,
		logger:    log.With(map[string]interface{}{"component": "gateway"}),
	}
}

func (g *HTTPGateway) Call(ctx context.Context, action string, params Params) Result {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	// action and key always win over same-named params
	query.Set("action", action)
	query.Set("key", g.apiKey)

	requestID := uuid.New().String()
	resp, err := g.client.Get(ctx, g.baseURL, query, map[string]string{"X-Request-ID": requestID})
	if err != nil {
		if isTimeout(err) {
			return Fail(apperrors.NewTimeoutError(action, err))
		}
		return Fail(apperrors.NewTransportError(action, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Debug("non-2xx from backend", map[string]interface{}{
			"action":    action,
			"status":    resp.StatusCode,
			"requestId": requestID,
		})
		return Fail(apperrors.NewHTTPStatusError(action, resp.StatusCode))
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return Fail(apperrors.NewBadPayloadError(action, fmt.Sprintf("decode: %v", err)))
	}
	if !env.Ok {
		return Fail(apperrors.NewApplicationError(action, env.Error))
	}

	if g.validator != nil {
		res, err := g.validator.Validate(action, resp.Body)
		if err != nil {
			return Fail(apperrors.NewBadPayloadError(action, err.Error()))
		}
		if !res.Valid {
			return Fail(apperrors.NewBadPayloadError(action, res.String()))
		}
	}

	return Ok(json.RawMessage(resp.Body))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
