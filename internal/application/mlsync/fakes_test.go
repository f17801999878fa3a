package mlsync_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stockml/internal/application/ledger"
	"github.com/tu-usuario/stockml/internal/application/mlsync"
	"github.com/tu-usuario/stockml/internal/domain"
	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/domain/repository"
)

// ── API falsa de MercadoLibre ─────────────────────────────────────────────────

type fakeAPI struct {
	token   mlsync.Token
	profile mlsync.Profile
	itemIDs []string
	items   map[string]mlsync.ItemDetail
	orders  map[string]mlsync.Order
	totals  map[string]mlsync.OrderTotals
	search  []mlsync.Order

	failOrders map[string]error

	refreshCalls  int
	exchangeCalls int
	getItemCalls  int
	getOrderCalls int
	searchCalls   int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		token:      mlsync.Token{AccessToken: "tok-nuevo", RefreshToken: "ref-nuevo", ExpiresIn: 21600},
		profile:    mlsync.Profile{ID: "ML123", Nickname: "TIENDA_TEST"},
		items:      map[string]mlsync.ItemDetail{},
		orders:     map[string]mlsync.Order{},
		totals:     map[string]mlsync.OrderTotals{},
		failOrders: map[string]error{},
	}
}

func (a *fakeAPI) ExchangeCode(_ context.Context, _ string) (mlsync.Token, error) {
	a.exchangeCalls++
	return a.token, nil
}

func (a *fakeAPI) RefreshToken(_ context.Context, _ string) (mlsync.Token, error) {
	a.refreshCalls++
	return a.token, nil
}

func (a *fakeAPI) GetUserProfile(_ context.Context, _ string) (mlsync.Profile, error) {
	return a.profile, nil
}

func (a *fakeAPI) GetItemIDs(_ context.Context, _, _ string, itemCap int) ([]string, bool, error) {
	ids := a.itemIDs
	if itemCap > 0 && len(ids) > itemCap {
		return ids[:itemCap], true, nil
	}
	return ids, false, nil
}

func (a *fakeAPI) GetItem(_ context.Context, itemID, _ string) (mlsync.ItemDetail, error) {
	a.getItemCalls++
	d, ok := a.items[itemID]
	if !ok {
		return mlsync.ItemDetail{}, domain.ErrNotFound
	}
	return d, nil
}

func (a *fakeAPI) GetOrder(_ context.Context, orderID, _ string) (mlsync.Order, error) {
	a.getOrderCalls++
	if err, ok := a.failOrders[orderID]; ok {
		return mlsync.Order{}, err
	}
	o, ok := a.orders[orderID]
	if !ok {
		return mlsync.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (a *fakeAPI) GetOrderTotals(_ context.Context, orderID, _ string) (mlsync.OrderTotals, error) {
	return a.totals[orderID], nil
}

func (a *fakeAPI) SearchOrders(_ context.Context, _, _ string, _ time.Time) ([]mlsync.Order, error) {
	a.searchCalls++
	return a.search, nil
}

var _ mlsync.MarketplaceAPI = (*fakeAPI)(nil)

// ── Persistencia en memoria ───────────────────────────────────────────────────

type memStore struct {
	products  map[string]*entity.Product
	stocks    map[string]*entity.Stock
	movements []*entity.StockMovement
	sales     map[string]*entity.Sale // por referencia
	saleItems map[string][]*entity.SaleItem
	conns     map[string]*entity.MLConnection // por UserID
	items     map[string]*entity.MLItem       // por ItemID
}

func newMemStore() *memStore {
	return &memStore{
		products:  map[string]*entity.Product{},
		stocks:    map[string]*entity.Stock{},
		sales:     map[string]*entity.Sale{},
		saleItems: map[string][]*entity.SaleItem{},
		conns:     map[string]*entity.MLConnection{},
		items:     map[string]*entity.MLItem{},
	}
}

func stockKey(productID, warehouseID string) string { return productID + "|" + warehouseID }

type memProductRepo struct{ s *memStore }

func (r *memProductRepo) Create(p *entity.Product) error { r.s.products[p.ID] = p; return nil }

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

type memSupplierRepo struct{ s *memStore }

func (r *memSupplierRepo) GetByID(id string) (*entity.Supplier, error) {
	return &entity.Supplier{ID: id}, nil
}

func (r *memSupplierRepo) UpsertSupplierProduct(_ *entity.SupplierProduct) error { return nil }

type memSaleRepo struct{ s *memStore }

func (r *memSaleRepo) Create(sale *entity.Sale, items []*entity.SaleItem) error {
	if _, ok := r.s.sales[sale.Reference]; ok {
		return domain.ErrDuplicate
	}
	cp := *sale
	r.s.sales[sale.Reference] = &cp
	r.s.saleItems[sale.ID] = items
	return nil
}

func (r *memSaleRepo) ExistsByReference(reference string) (bool, error) {
	_, ok := r.s.sales[reference]
	return ok, nil
}

type memConnRepo struct{ s *memStore }

func (r *memConnRepo) GetByUserID(userID string) (*entity.MLConnection, error) {
	c, ok := r.s.conns[userID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memConnRepo) GetByMLUserID(mlUserID string) (*entity.MLConnection, error) {
	for _, c := range r.s.conns {
		if c.MLUserID == mlUserID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memConnRepo) First() (*entity.MLConnection, error) {
	for _, c := range r.s.conns {
		if c.AccessToken != "" {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memConnRepo) Upsert(conn *entity.MLConnection) error {
	cp := *conn
	r.s.conns[conn.UserID] = &cp
	return nil
}

func (r *memConnRepo) Save(conn *entity.MLConnection) error {
	cp := *conn
	r.s.conns[conn.UserID] = &cp
	return nil
}

type memItemRepo struct{ s *memStore }

func (r *memItemRepo) GetByItemID(itemID string) (*entity.MLItem, error) {
	it, ok := r.s.items[itemID]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *memItemRepo) Upsert(item *entity.MLItem) error {
	cp := *item
	r.s.items[item.ItemID] = &cp
	return nil
}

func (r *memItemRepo) UpdateSalesMetrics(itemID string, unitsSold30d int, lastSoldAt *time.Time) error {
	it, ok := r.s.items[itemID]
	if !ok {
		return nil
	}
	it.UnitsSold30d = unitsSold30d
	it.LastSoldAt = lastSoldAt
	return nil
}

func (r *memItemRepo) List(_ int) ([]*entity.MLItem, error) {
	var list []*entity.MLItem
	for _, it := range r.s.items {
		cp := *it
		list = append(list, &cp)
	}
	return list, nil
}

// memTx implementa ambos runners transaccionales sobre el mismo almacén.
type memTx struct{ s *memStore }

func (t *memTx) Run(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
) error) error {
	return fn(&memMovementRepo{t.s}, &memStockRepo{t.s}, &memProductRepo{t.s}, &memSupplierRepo{t.s})
}

func (t *memTx) RunSale(_ context.Context, fn func(
	saleRepo repository.SaleRepository,
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	return fn(&memSaleRepo{t.s}, &memMovementRepo{t.s}, &memStockRepo{t.s}, &memProductRepo{t.s})
}

var (
	_ ledger.TxRunner     = (*memTx)(nil)
	_ mlsync.SaleTxRunner = (*memTx)(nil)
)
