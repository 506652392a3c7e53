// Package memory is an in-process implementation of the repository ports.
// Every write commits immediately, like the pgsql repositories outside a
// transaction, and any operation can be made to fail for tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/khata_backend/internal/apperrors"
	"github.com/SscSPs/khata_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/khata_backend/internal/core/ports/repositories"
	"github.com/SscSPs/khata_backend/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

// Op names a store operation that can be made to fail.
type Op string

const (
	OpFindProduct      Op = "FindProductByID"
	OpReserveStock     Op = "ReserveStock"
	OpReleaseStock     Op = "ReleaseStock"
	OpFindShop         Op = "FindShopByID"
	OpSaveOrder        Op = "SaveOrder"
	OpSaveOrderItems   Op = "SaveOrderItems"
	OpDeleteOrder      Op = "DeleteOrder"
	OpDeleteOrderItems Op = "DeleteOrderItems"
	OpAppendEntry      Op = "AppendEntry"
	OpDeleteEntry      Op = "DeleteEntry"
	OpRecordFailure    Op = "RecordCompensationFailure"
)

// Store holds every table in memory.
type Store struct {
	mu         sync.Mutex
	products   map[string]*domain.Product
	shops      map[string]domain.Shop
	orders     map[string]domain.Order
	items      map[string][]domain.OrderItem // by order id
	khata      []domain.KhataEntry
	failures   []domain.CompensationFailure
	faults     map[Op][]error
	calls      map[Op]int
	beforeHook map[Op]func()
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		products:   make(map[string]*domain.Product),
		shops:      make(map[string]domain.Shop),
		orders:     make(map[string]domain.Order),
		items:      make(map[string][]domain.OrderItem),
		faults:     make(map[Op][]error),
		calls:      make(map[Op]int),
		beforeHook: make(map[Op]func()),
	}
}

// NewRepositoryProvider exposes the store through every repository port.
func NewRepositoryProvider(s *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ProductRepo:        s,
		ShopRepo:           s,
		OrderRepo:          s,
		KhataRepo:          s,
		ReportingRepo:      s,
		ReconciliationRepo: s,
	}
}

var (
	_ portsrepo.ProductRepositoryFacade  = (*Store)(nil)
	_ portsrepo.ShopReader               = (*Store)(nil)
	_ portsrepo.OrderRepositoryFacade    = (*Store)(nil)
	_ portsrepo.KhataRepositoryFacade    = (*Store)(nil)
	_ portsrepo.ReportingRepository      = (*Store)(nil)
	_ portsrepo.ReconciliationRepository = (*Store)(nil)
)

// FailNext makes the next call of op return err. Queued errors are consumed in order.
func (s *Store) FailNext(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = append(s.faults[op], err)
}

// Before runs fn, outside the store lock, at the start of every call of op.
func (s *Store) Before(op Op, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeHook[op] = fn
}

// Calls returns how many times op was invoked.
func (s *Store) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// enter runs the hook of op, takes the lock and pops a queued fault.
// The caller must unlock.
func (s *Store) enter(op Op) error {
	s.mu.Lock()
	hook := s.beforeHook[op]
	s.mu.Unlock()
	if hook != nil {
		hook()
	}

	s.mu.Lock()
	s.calls[op]++
	if q := s.faults[op]; len(q) > 0 {
		s.faults[op] = q[1:]
		return q[0]
	}
	return nil
}

// SeedShop inserts a shop.
func (s *Store) SeedShop(shop domain.Shop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shops[shop.ShopID] = shop
}

// SeedProduct inserts a product.
func (s *Store) SeedProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.products[p.ProductID] = &cp
}

// --- products ---

func (s *Store) FindProductByID(_ context.Context, userID, productID string) (*domain.Product, error) {
	err := s.enter(OpFindProduct)
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	p, ok := s.products[productID]
	if !ok || p.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ReserveStock(_ context.Context, userID, productID string, quantity int) (*domain.StockReservation, error) {
	err := s.enter(OpReserveStock)
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	p, ok := s.products[productID]
	if !ok || p.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	if !p.HasStock(quantity) {
		return nil, apperrors.ErrInsufficientStock
	}
	p.InStock -= quantity
	return &domain.StockReservation{ProductID: p.ProductID, ProductName: p.Name, Quantity: quantity, Remaining: p.InStock}, nil
}

func (s *Store) ReleaseStock(_ context.Context, userID, productID string, quantity int) error {
	err := s.enter(OpReleaseStock)
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	p, ok := s.products[productID]
	if !ok || p.UserID != userID {
		return apperrors.ErrNotFound
	}
	p.InStock += quantity
	return nil
}

// --- shops ---

func (s *Store) FindShopByID(_ context.Context, userID, shopID string) (*domain.Shop, error) {
	err := s.enter(OpFindShop)
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	shop, ok := s.shops[shopID]
	if !ok || shop.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return &shop, nil
}

// --- orders ---

func (s *Store) SaveOrder(_ context.Context, order domain.Order) error {
	err := s.enter(OpSaveOrder)
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	if _, exists := s.orders[order.OrderID]; exists {
		return apperrors.ErrDuplicate
	}
	order.Items = nil
	s.orders[order.OrderID] = order
	return nil
}

func (s *Store) SaveOrderItems(_ context.Context, items []domain.OrderItem) error {
	err := s.enter(OpSaveOrderItems)
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	for _, item := range items {
		if _, ok := s.orders[item.OrderID]; !ok {
			return fmt.Errorf("order %s does not exist", item.OrderID)
		}
	}
	for _, item := range items {
		s.items[item.OrderID] = append(s.items[item.OrderID], item)
	}
	return nil
}

func (s *Store) DeleteOrder(_ context.Context, userID, orderID string) error {
	err := s.enter(OpDeleteOrder)
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	o, ok := s.orders[orderID]
	if !ok || o.UserID != userID {
		return apperrors.ErrNotFound
	}
	delete(s.orders, orderID)
	delete(s.items, orderID)
	return nil
}

func (s *Store) DeleteOrderItems(_ context.Context, orderID string) error {
	err := s.enter(OpDeleteOrderItems)
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	delete(s.items, orderID)
	return nil
}

func (s *Store) FindOrderByID(_ context.Context, userID, orderID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return &o, nil
}

func (s *Store) FindOrderItems(_ context.Context, orderID string) ([]domain.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.OrderItem, len(s.items[orderID]))
	copy(items, s.items[orderID])
	return items, nil
}

func (s *Store) ListOrders(_ context.Context, userID, shopID string, limit int, nextToken *string) ([]domain.Order, *string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var afterTime time.Time
	var afterID string
	if nextToken != nil {
		var err error
		if afterTime, afterID, err = pagination.DecodeToken(*nextToken); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
	}

	orders := make([]domain.Order, 0)
	for _, o := range s.orders {
		if o.UserID != userID || (shopID != "" && o.ShopID != shopID) {
			continue
		}
		if nextToken != nil && !olderThan(o, afterTime, afterID) {
			continue
		}
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].OrderID > orders[j].OrderID
	})

	if len(orders) <= limit {
		return orders, nil, nil
	}
	page := orders[:limit]
	last := page[limit-1]
	token := pagination.EncodeToken(last.CreatedAt, last.OrderID)
	return page, &token, nil
}

func olderThan(o domain.Order, t time.Time, id string) bool {
	if o.CreatedAt.Equal(t) {
		return o.OrderID < id
	}
	return o.CreatedAt.Before(t)
}

func (s *Store) CountOrders(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, o := range s.orders {
		if o.UserID == userID {
			n++
		}
	}
	return n, nil
}

// --- khata ---

func (s *Store) AppendEntry(_ context.Context, entry domain.KhataEntry) error {
	err := s.enter(OpAppendEntry)
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	if _, ok := s.shops[entry.ShopID]; !ok {
		return fmt.Errorf("shop %s does not exist", entry.ShopID)
	}
	entry.ShopName = ""
	s.khata = append(s.khata, entry)
	return nil
}

func (s *Store) DeleteEntry(_ context.Context, userID, entryID string) error {
	err := s.enter(OpDeleteEntry)
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	for i, e := range s.khata {
		if e.EntryID == entryID && e.UserID == userID {
			s.khata = append(s.khata[:i], s.khata[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (s *Store) ListEntriesByShop(_ context.Context, userID, shopID string) ([]domain.KhataEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]domain.KhataEntry, 0)
	for _, e := range s.khata {
		if e.UserID == userID && e.ShopID == shopID {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TransactionDate.Before(entries[j].TransactionDate)
	})
	return entries, nil
}

func (s *Store) SumByShop(_ context.Context, userID, shopID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []domain.KhataEntry
	for _, e := range s.khata {
		if e.UserID == userID && e.ShopID == shopID {
			entries = append(entries, e)
		}
	}
	return domain.SumDeltas(entries), nil
}

func (s *Store) ListShopBalances(_ context.Context, userID string) ([]domain.ShopBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byShop := make(map[string]*domain.ShopBalance)
	for _, e := range s.khata {
		if e.UserID != userID {
			continue
		}
		b, ok := byShop[e.ShopID]
		if !ok {
			b = &domain.ShopBalance{ShopID: e.ShopID, ShopName: s.shops[e.ShopID].Name, TotalBalance: decimal.Zero}
			byShop[e.ShopID] = b
		}
		b.TotalBalance = b.TotalBalance.Add(e.Delta)
		b.EntryCount++
		if b.LastTransactionAt == nil || e.TransactionDate.After(*b.LastTransactionAt) {
			t := e.TransactionDate
			b.LastTransactionAt = &t
		}
	}
	balances := make([]domain.ShopBalance, 0, len(byShop))
	for _, b := range byShop {
		balances = append(balances, *b)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].ShopName < balances[j].ShopName })
	return balances, nil
}

// Entries returns a copy of the whole ledger.
func (s *Store) Entries() []domain.KhataEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.KhataEntry(nil), s.khata...)
}

// --- reporting ---

func (s *Store) GetOrderSummary(_ context.Context, userID string, from, to time.Time) (*domain.OrderSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary := &domain.OrderSummary{TotalSales: decimal.Zero, TotalPaid: decimal.Zero, TotalCost: decimal.Zero}
	for _, o := range s.orders {
		if o.UserID != userID || o.CreatedAt.Before(from) || !o.CreatedAt.Before(to) {
			continue
		}
		summary.OrderCount++
		summary.TotalSales = summary.TotalSales.Add(o.TotalAmount)
		summary.TotalPaid = summary.TotalPaid.Add(o.AmountPaid)
		summary.TotalCost = summary.TotalCost.Add(o.BuyTotal)
	}
	return summary, nil
}

// --- reconciliation ---

func (s *Store) RecordCompensationFailure(_ context.Context, failure domain.CompensationFailure) error {
	err := s.enter(OpRecordFailure)
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	s.failures = append(s.failures, failure)
	return nil
}

func (s *Store) ListCompensationFailures(_ context.Context, userID string) ([]domain.CompensationFailure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CompensationFailure, 0)
	for _, f := range s.failures {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

// Product returns a copy of a product regardless of owner.
func (s *Store) Product(productID string) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return domain.Product{}, false
	}
	return *p, true
}

// OrderCount returns the number of stored orders of every user.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// ItemCount returns the number of stored order items of every order.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, items := range s.items {
		n += len(items)
	}
	return n
}
