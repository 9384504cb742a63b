package usecase

import (
	"context"

	"gorm.io/gorm"

	"github.com/wadesk/wadesk/config"
	domainGateway "github.com/wadesk/wadesk/domains/gateway"
	domainHealth "github.com/wadesk/wadesk/domains/health"
)

type serviceHealth struct {
	db      *gorm.DB
	gateway domainGateway.IGatewayClient
}

func NewHealthService(db *gorm.DB, gatewayClient domainGateway.IGatewayClient) domainHealth.IHealthUsecase {
	return &serviceHealth{db: db, gateway: gatewayClient}
}

func (service *serviceHealth) Check(ctx context.Context) domainHealth.Status {
	status := domainHealth.Status{
		Healthy:  true,
		Database: "ok",
		Gateway:  "unknown",
		Version:  config.AppVersion,
	}

	if sqlDB, err := service.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status.Healthy = false
		status.Database = "unreachable"
	}

	if state, err := service.gateway.ConnectionState(ctx); err == nil {
		status.Gateway = state.State
	}

	return status
}
