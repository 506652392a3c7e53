package services

import (
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/khata_backend/internal/core/ports/services"
	"github.com/SscSPs/khata_backend/internal/platform/config"
	"github.com/SscSPs/khata_backend/internal/platform/metrics"
)

// Infrastructure carries the optional collaborators shared by services.
type Infrastructure struct {
	Metrics      *metrics.Metrics
	BalanceCache portsrepo.BalanceCache // nil disables balance caching
	ShopLocker   portsrepo.ShopLocker
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, infra Infrastructure) *portssvc.ServiceContainer {
	// One projector is shared so that order appends invalidate what khata reads serve.
	projector := NewLedgerBalanceProjector(repos.KhataRepo)
	if infra.BalanceCache != nil && cfg.BalanceCacheTTL > 0 {
		projector = NewCachedBalanceProjector(repos.KhataRepo, infra.BalanceCache, cfg.BalanceCacheTTL, infra.Metrics)
	}

	return &portssvc.ServiceContainer{
		Order: NewOrderService(repos,
			WithOrderBalanceProjector(projector),
			WithOrderMetrics(infra.Metrics),
			WithCompensationTimeout(cfg.CompensationTimeout),
		),
		Khata: NewKhataService(repos, infra.Metrics,
			WithKhataBalanceProjector(projector),
			WithShopLocker(infra.ShopLocker),
			WithAdjustmentCeiling(cfg.KhataAdjustmentCeiling),
		),
		Reporting: NewReportingService(repos.ReportingRepo),
	}
}
