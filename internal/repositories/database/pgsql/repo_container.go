package pgsql

import (
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ProductRepo:        newPgxProductRepository(dbPool),
		ShopRepo:           newPgxShopRepository(dbPool),
		OrderRepo:          newPgxOrderRepository(dbPool),
		KhataRepo:          newPgxKhataRepository(dbPool),
		ReportingRepo:      newReportingRepository(dbPool),
		ReconciliationRepo: newPgxReconciliationRepository(dbPool),
	}
}
