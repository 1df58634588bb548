package biz

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"memberflow/internal/biz/model"
	"memberflow/internal/data"
	"memberflow/internal/service"
)

// StatusChecker reports API reachability and the state of the local
// session in one call.
type StatusChecker struct {
	client service.IdentityAPI
	tokens data.TokenStore
	l      *zap.Logger
}

func NewStatusUseCase(client service.IdentityAPI, tokens data.TokenStore, logger *zap.Logger) (model.StatusUseCase, error) {
	return &StatusChecker{
		client: client,
		tokens: tokens,
		l:      logger,
	}, nil
}

func (c *StatusChecker) Status(ctx context.Context, _ model.StatusReq) (model.StatusReport, error) {
	report := model.StatusReport{
		API:     "READY",
		Details: map[string]string{},
	}

	if err := c.client.Healthy(ctx); err != nil {
		c.l.Warn("health check failed", zap.Error(err))
		report.API = "UNHEALTHY"
		report.Details["api"] = err.Error()
	}

	token, err := c.tokens.Get(ctx)
	switch {
	case errors.Is(err, data.ErrNoSession):
		report.Session = "NONE"
	case err != nil:
		return model.StatusReport{}, err
	default:
		report.Session = "ACTIVE"
		if exp, ok := data.TokenExpiry(token); ok {
			report.ExpiresAt = &exp
			if exp.Before(time.Now()) {
				report.Session = "EXPIRED"
			}
		}
	}

	return report, nil
}
