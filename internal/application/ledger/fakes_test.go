package ledger_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stockml/internal/application/ledger"
	"github.com/tu-usuario/stockml/internal/domain"
	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/domain/repository"
)

// Fakes en memoria de los puertos de persistencia, suficientes para ejercer
// el libro de stock sin base de datos. Las firmas copian los contratos de
// internal/domain/repository.

type memStore struct {
	products  map[string]*entity.Product
	stocks    map[string]*entity.Stock
	movements []*entity.StockMovement
	links     map[string]*entity.SupplierProduct
}

func newMemStore() *memStore {
	return &memStore{
		products: map[string]*entity.Product{},
		stocks:   map[string]*entity.Stock{},
		links:    map[string]*entity.SupplierProduct{},
	}
}

func stockKey(productID, warehouseID string) string { return productID + "|" + warehouseID }

func (s *memStore) hasStock(productID, warehouseID string) bool {
	_, ok := s.stocks[stockKey(productID, warehouseID)]
	return ok
}

// ── ProductRepository ─────────────────────────────────────────────────────────

type memProductRepo struct{ s *memStore }

func (r *memProductRepo) Create(p *entity.Product) error {
	r.s.products[p.ID] = p
	return nil
}

func (r *memProductRepo) GetByID(id string) (*entity.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	for _, p := range r.s.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) Update(p *entity.Product) error {
	if _, ok := r.s.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r *memProductRepo) UpdateCost(productID string, cost decimal.Decimal) error {
	p, ok := r.s.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.AvgCost = cost
	return nil
}

func (r *memProductRepo) UpdateVATPercent(productID string, vat decimal.Decimal) error {
	p, ok := r.s.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.VATPercent = vat
	return nil
}

func (r *memProductRepo) SetDefaultSupplier(productID, supplierID string) error {
	p, ok := r.s.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	sid := supplierID
	p.DefaultSupplierID = &sid
	return nil
}

func (r *memProductRepo) List() ([]*entity.Product, error) {
	var list []*entity.Product
	for _, p := range r.s.products {
		cp := *p
		list = append(list, &cp)
	}
	return list, nil
}

// ── StockRepository ───────────────────────────────────────────────────────────

type memStockRepo struct{ s *memStore }

func (r *memStockRepo) Get(productID, warehouseID string) (*entity.Stock, error) {
	if st, ok := r.s.stocks[stockKey(productID, warehouseID)]; ok {
		cp := *st
		return &cp, nil
	}
	return &entity.Stock{ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.Zero}, nil
}

func (r *memStockRepo) GetForUpdate(productID, warehouseID string) (*entity.Stock, error) {
	return r.Get(productID, warehouseID)
}

func (r *memStockRepo) Upsert(stock *entity.Stock) error {
	cp := *stock
	r.s.stocks[stockKey(stock.ProductID, stock.WarehouseID)] = &cp
	return nil
}

func (r *memStockRepo) TotalQuantityForUpdate(productID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, st := range r.s.stocks {
		if st.ProductID == productID {
			total = total.Add(st.Quantity)
		}
	}
	return total, nil
}

func (r *memStockRepo) ListByProduct(productID string) ([]*entity.Stock, error) {
	var list []*entity.Stock
	for _, st := range r.s.stocks {
		if st.ProductID == productID {
			cp := *st
			list = append(list, &cp)
		}
	}
	return list, nil
}

// ── StockMovementRepository ───────────────────────────────────────────────────

type memMovementRepo struct{ s *memStore }

func (r *memMovementRepo) Create(m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	cp := *m
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

func (r *memMovementRepo) ListByProduct(productID string, _, _ *time.Time, _, _ int) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.ProductID == productID {
			list = append(list, m)
		}
	}
	return list, nil
}

func (r *memMovementRepo) ListByWarehouse(warehouseID string, _, _ *time.Time, _, _ int) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for _, m := range r.s.movements {
		if (m.FromWarehouseID != nil && *m.FromWarehouseID == warehouseID) ||
			(m.ToWarehouseID != nil && *m.ToWarehouseID == warehouseID) {
			list = append(list, m)
		}
	}
	return list, nil
}

// ── SupplierRepository ────────────────────────────────────────────────────────

type memSupplierRepo struct{ s *memStore }

func (r *memSupplierRepo) GetByID(id string) (*entity.Supplier, error) {
	return &entity.Supplier{ID: id}, nil
}

func (r *memSupplierRepo) UpsertSupplierProduct(link *entity.SupplierProduct) error {
	cp := *link
	r.s.links[link.SupplierID+"|"+link.ProductID] = &cp
	return nil
}

// ── TxRunner ──────────────────────────────────────────────────────────────────

type memTxRunner struct{ s *memStore }

func (t *memTxRunner) Run(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
) error) error {
	return fn(&memMovementRepo{t.s}, &memStockRepo{t.s}, &memProductRepo{t.s}, &memSupplierRepo{t.s})
}

var _ ledger.TxRunner = (*memTxRunner)(nil)
