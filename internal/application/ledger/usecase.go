package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stockml/internal/domain"
	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/domain/repository"
)

// UseCase es el libro de stock: registra entradas, salidas, transferencias y
// ajustes de forma transaccional, con bloqueo de fila (SELECT FOR UPDATE) y
// Commit/Rollback. Es la única vía soportada para mutar cantidades y costo
// base; los llamadores informan actor y referencia para auditoría.
type UseCase struct {
	tx TxRunner
}

// NewUseCase construye el libro de stock.
func NewUseCase(tx TxRunner) *UseCase {
	return &UseCase{tx: tx}
}

var (
	decZero    = decimal.Zero
	decOne     = decimal.NewFromInt(1)
	decHundred = decimal.NewFromInt(100)
)

// round2 redondea a 2 decimales, mitad hacia arriba. Toda cantidad y costo
// se escribe ya redondeado.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// weightedAverage recalcula el costo base como promedio ponderado entre el
// stock existente (a costo actual) y la cantidad que ingresa (a costo nuevo).
func weightedAverage(currentAvg, currentQty, unitCost, quantity decimal.Decimal) decimal.Decimal {
	if quantity.LessThanOrEqual(decZero) {
		return currentAvg
	}
	totalCost := currentAvg.Mul(currentQty).Add(unitCost.Mul(quantity))
	newTotalQty := currentQty.Add(quantity)
	if newTotalQty.LessThanOrEqual(decZero) {
		return decZero
	}
	return round2(totalCost.Div(newTotalQty))
}

// vatExclusive quita el IVA de un costo bruto: bruto / (1 + iva/100).
func vatExclusive(grossCost, vatPercent decimal.Decimal) decimal.Decimal {
	if vatPercent.LessThanOrEqual(decZero) {
		return grossCost
	}
	factor := decOne.Add(vatPercent.Div(decHundred))
	return round2(grossCost.Div(factor))
}

// EntryInput entrada de mercadería a una bodega destino.
type EntryInput struct {
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal // costo unitario bruto (IVA incluido si VATPercent > 0)
	VATPercent  *decimal.Decimal
	Actor       string
	Reference   string
	SupplierID  *string
	PurchaseID  *string
}

// Entry registra una entrada: suma cantidad en la bodega destino y fija el
// costo base del producto al costo sin IVA de esta compra (costeo por última
// compra, no promedio). Si viene proveedor, actualiza su último costo y lo
// asigna como proveedor por defecto cuando el producto no tiene uno.
func (uc *UseCase) Entry(ctx context.Context, in EntryInput) (*entity.StockMovement, error) {
	qty := round2(in.Quantity)
	if qty.LessThanOrEqual(decZero) {
		return nil, domain.ErrInvalidMovement
	}
	grossCost := round2(in.UnitCost)
	vat := decZero
	if in.VATPercent != nil {
		vat = round2(*in.VATPercent)
	}
	costBase := vatExclusive(grossCost, vat)
	now := time.Now()

	var movement *entity.StockMovement
	err := uc.tx.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		supplierRepo repository.SupplierRepository,
	) error {
		product, err := productRepo.GetByID(in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		stock, err := stockRepo.GetForUpdate(in.ProductID, in.WarehouseID)
		if err != nil {
			return err
		}
		// Bloquea todas las filas de stock del producto: la escritura del
		// costo base debe ser consistente con escritores concurrentes.
		if _, err := stockRepo.TotalQuantityForUpdate(in.ProductID); err != nil {
			return err
		}

		if err := productRepo.UpdateCost(in.ProductID, costBase); err != nil {
			return err
		}
		if in.VATPercent != nil {
			if err := productRepo.UpdateVATPercent(in.ProductID, vat); err != nil {
				return err
			}
		}

		stock.Quantity = round2(stock.Quantity.Add(qty))
		stock.UpdatedAt = now
		if err := stockRepo.Upsert(stock); err != nil {
			return err
		}

		wh := in.WarehouseID
		movement = &entity.StockMovement{
			ProductID:     in.ProductID,
			PurchaseID:    in.PurchaseID,
			Type:          entity.MovementTypeEntry,
			ToWarehouseID: &wh,
			Quantity:      qty,
			UnitCost:      grossCost,
			VATPercent:    vat,
			CreatedBy:     in.Actor,
			Reference:     in.Reference,
			CreatedAt:     now,
		}
		if err := movRepo.Create(movement); err != nil {
			return err
		}

		if in.SupplierID != nil {
			purchaseAt := now
			link := &entity.SupplierProduct{
				SupplierID:     *in.SupplierID,
				ProductID:      in.ProductID,
				LastCost:       grossCost,
				LastPurchaseAt: &purchaseAt,
			}
			if err := supplierRepo.UpsertSupplierProduct(link); err != nil {
				return err
			}
			if product.DefaultSupplierID == nil {
				if err := productRepo.SetDefaultSupplier(in.ProductID, *in.SupplierID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// ExitInput salida de mercadería desde una bodega origen.
type ExitInput struct {
	ProductID     string
	WarehouseID   string
	Quantity      decimal.Decimal
	Actor         string
	Reference     string
	SalePrice     *decimal.Decimal
	VATPercent    *decimal.Decimal
	AllowNegative bool
	SaleID        *string
}

// Exit registra una salida: descuenta cantidad en la bodega origen. El costo
// base del producto no cambia; el movimiento queda valuado al costo base
// vigente al momento de la salida.
func (uc *UseCase) Exit(ctx context.Context, in ExitInput) (*entity.StockMovement, error) {
	var movement *entity.StockMovement
	err := uc.tx.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		_ repository.SupplierRepository,
	) error {
		var err error
		movement, err = uc.ExitInTx(movRepo, stockRepo, productRepo, in, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// ExitInTx ejecuta la salida con los repositorios provistos, dentro de una
// transacción del llamador. Lo usa la ingesta de órdenes de MercadoLibre
// para crear la venta y sus salidas de stock en una sola transacción.
func (uc *UseCase) ExitInTx(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	in ExitInput,
	now time.Time,
) (*entity.StockMovement, error) {
	qty := round2(in.Quantity)
	if qty.LessThanOrEqual(decZero) {
		return nil, domain.ErrInvalidMovement
	}
	product, err := productRepo.GetByID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	stock, err := stockRepo.GetForUpdate(in.ProductID, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if !in.AllowNegative && stock.Quantity.Sub(qty).IsNegative() {
		return nil, domain.ErrNegativeStock
	}
	stock.Quantity = round2(stock.Quantity.Sub(qty))
	stock.UpdatedAt = now
	if err := stockRepo.Upsert(stock); err != nil {
		return nil, err
	}

	salePrice := decZero
	if in.SalePrice != nil {
		salePrice = round2(*in.SalePrice)
	}
	vat := decZero
	if in.VATPercent != nil {
		vat = round2(*in.VATPercent)
	}
	wh := in.WarehouseID
	movement := &entity.StockMovement{
		ProductID:       in.ProductID,
		SaleID:          in.SaleID,
		Type:            entity.MovementTypeExit,
		FromWarehouseID: &wh,
		Quantity:        qty,
		UnitCost:        product.AvgCost,
		SalePrice:       salePrice,
		VATPercent:      vat,
		CreatedBy:       in.Actor,
		Reference:       in.Reference,
		CreatedAt:       now,
	}
	if err := movRepo.Create(movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// TransferInput transferencia entre bodegas distintas.
type TransferInput struct {
	ProductID       string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        decimal.Decimal
	Actor           string
	Reference       string
	AllowNegative   bool
}

// Transfer descuenta cantidad en la bodega origen y registra un único
// movimiento con ambas bodegas. No crea ni incrementa stock en destino:
// la cantidad de la bodega MercadoLibre la gobierna la reconciliación con
// el catálogo remoto, no el libro (comportamiento de producto confirmado
// por los tests; cualquier cambio requiere decisión de producto).
func (uc *UseCase) Transfer(ctx context.Context, in TransferInput) (*entity.StockMovement, error) {
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, domain.ErrInvalidMovement
	}
	qty := round2(in.Quantity)
	if qty.LessThanOrEqual(decZero) {
		return nil, domain.ErrInvalidMovement
	}
	now := time.Now()

	var movement *entity.StockMovement
	err := uc.tx.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		_ repository.SupplierRepository,
	) error {
		product, err := productRepo.GetByID(in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		source, err := stockRepo.GetForUpdate(in.ProductID, in.FromWarehouseID)
		if err != nil {
			return err
		}
		if !in.AllowNegative && source.Quantity.Sub(qty).IsNegative() {
			return domain.ErrNegativeStock
		}
		source.Quantity = round2(source.Quantity.Sub(qty))
		source.UpdatedAt = now
		if err := stockRepo.Upsert(source); err != nil {
			return err
		}

		from := in.FromWarehouseID
		to := in.ToWarehouseID
		movement = &entity.StockMovement{
			ProductID:       in.ProductID,
			Type:            entity.MovementTypeTransfer,
			FromWarehouseID: &from,
			ToWarehouseID:   &to,
			Quantity:        qty,
			UnitCost:        product.AvgCost,
			CreatedBy:       in.Actor,
			Reference:       in.Reference,
			CreatedAt:       now,
		}
		return movRepo.Create(movement)
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// AdjustmentInput ajuste con cantidad con signo (positiva suma, negativa resta).
type AdjustmentInput struct {
	ProductID     string
	WarehouseID   string
	Quantity      decimal.Decimal // con signo, distinta de cero
	Actor         string
	Reference     string
	UnitCost      *decimal.Decimal // solo ajustes positivos; por defecto el costo base vigente
	AllowNegative bool
}

// Adjustment corrige la cantidad de una bodega. Un ajuste positivo recalcula
// el costo base como promedio ponderado sobre el total del producto en todas
// las bodegas (leído bajo bloqueo en la misma transacción); uno negativo
// descuenta bajo la misma regla de stock negativo que Exit y no toca el
// costo base. La cantidad del movimiento se registra en valor absoluto.
func (uc *UseCase) Adjustment(ctx context.Context, in AdjustmentInput) (*entity.StockMovement, error) {
	qty := round2(in.Quantity)
	if qty.IsZero() {
		return nil, domain.ErrInvalidMovement
	}
	now := time.Now()

	var movement *entity.StockMovement
	err := uc.tx.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		_ repository.SupplierRepository,
	) error {
		product, err := productRepo.GetByID(in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		stock, err := stockRepo.GetForUpdate(in.ProductID, in.WarehouseID)
		if err != nil {
			return err
		}

		wh := in.WarehouseID
		movement = &entity.StockMovement{
			ProductID: in.ProductID,
			Type:      entity.MovementTypeAdjustment,
			Quantity:  qty.Abs(),
			CreatedBy: in.Actor,
			Reference: in.Reference,
			CreatedAt: now,
		}

		if qty.GreaterThan(decZero) {
			cost := product.AvgCost
			if in.UnitCost != nil {
				cost = round2(*in.UnitCost)
			}
			currentTotal, err := stockRepo.TotalQuantityForUpdate(in.ProductID)
			if err != nil {
				return err
			}
			newAvg := weightedAverage(product.AvgCost, currentTotal, cost, qty)
			if err := productRepo.UpdateCost(in.ProductID, newAvg); err != nil {
				return err
			}
			stock.Quantity = round2(stock.Quantity.Add(qty))
			movement.ToWarehouseID = &wh
			movement.UnitCost = cost
		} else {
			if !in.AllowNegative && stock.Quantity.Add(qty).IsNegative() {
				return domain.ErrNegativeStock
			}
			stock.Quantity = round2(stock.Quantity.Add(qty))
			movement.FromWarehouseID = &wh
			movement.UnitCost = product.AvgCost
		}
		stock.UpdatedAt = now
		if err := stockRepo.Upsert(stock); err != nil {
			return err
		}
		return movRepo.Create(movement)
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}
