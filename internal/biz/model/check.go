package model

import (
	"context"
	"time"
)

type StatusUseCase interface {
	Status(ctx context.Context, req StatusReq) (StatusReport, error)
}

type (
	StatusReq    struct{}
	StatusReport struct {
		API       string
		Session   string
		ExpiresAt *time.Time
		Details   map[string]string
	}
)
