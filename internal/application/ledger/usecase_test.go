package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/stockml/internal/application/ledger"
	"github.com/tu-usuario/stockml/internal/domain"
	"github.com/tu-usuario/stockml/internal/domain/entity"
)

const (
	whComun = "wh-comun"
	whML    = "wh-ml"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// assertDec compara decimales por valor con 2 decimales fijos.
func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2))
}

func setup(t *testing.T) (*memStore, *ledger.UseCase) {
	t.Helper()
	store := newMemStore()
	store.products["p1"] = &entity.Product{
		ID: "p1", SKU: "SKU1", Name: "Test Product",
		AvgCost: decimal.Zero, VATPercent: decimal.Zero,
	}
	return store, ledger.NewUseCase(&memTxRunner{store})
}

func (s *memStore) qty(t *testing.T, productID, warehouseID string) decimal.Decimal {
	t.Helper()
	st, ok := s.stocks[stockKey(productID, warehouseID)]
	require.True(t, ok, "no existe registro de stock para %s en %s", productID, warehouseID)
	return st.Quantity
}

// ── Entry ─────────────────────────────────────────────────────────────────────

func TestEntry_ActualizaStockYCostoUltimaCompra(t *testing.T) {
	store, uc := setup(t)
	ctx := context.Background()

	_, err := uc.Entry(ctx, ledger.EntryInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("10"), UnitCost: dec("5.00"),
		Actor: "tester", Reference: "PO1",
	})
	require.NoError(t, err)
	assertDec(t, "10.00", store.qty(t, "p1", whComun))
	assertDec(t, "5.00", store.products["p1"].AvgCost)

	_, err = uc.Entry(ctx, ledger.EntryInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("10"), UnitCost: dec("7.00"),
		Actor: "tester",
	})
	require.NoError(t, err)
	assertDec(t, "20.00", store.qty(t, "p1", whComun))
	// Costeo por última compra: 7.00, no el promedio 6.00.
	assertDec(t, "7.00", store.products["p1"].AvgCost)
}

func TestEntry_CostoBaseDescuentaIVA(t *testing.T) {
	store, uc := setup(t)

	mov, err := uc.Entry(context.Background(), ledger.EntryInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("4"), UnitCost: dec("121.00"), VATPercent: decPtr("21"),
		Actor: "tester", Reference: "FC-A-0001",
	})
	require.NoError(t, err)
	// El costo base del producto queda sin IVA; el movimiento conserva el bruto.
	assertDec(t, "100.00", store.products["p1"].AvgCost)
	assertDec(t, "21.00", store.products["p1"].VATPercent)
	assertDec(t, "121.00", mov.UnitCost)
	assertDec(t, "21.00", mov.VATPercent)
}

func TestEntry_CantidadInvalida(t *testing.T) {
	_, uc := setup(t)

	_, err := uc.Entry(context.Background(), ledger.EntryInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: decimal.Zero, UnitCost: dec("5.00"), Actor: "tester",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMovement)

	_, err = uc.Entry(context.Background(), ledger.EntryInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("-3"), UnitCost: dec("5.00"), Actor: "tester",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMovement)
}

func TestEntry_AsignaProveedorPorDefectoSoloLaPrimeraVez(t *testing.T) {
	store, uc := setup(t)
	ctx := context.Background()
	s1, s2 := "sup-1", "sup-2"

	_, err := uc.Entry(ctx, ledger.EntryInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("1"), UnitCost: dec("3.00"), SupplierID: &s1, Actor: "tester",
	})
	require.NoError(t, err)
	require.NotNil(t, store.products["p1"].DefaultSupplierID)
	assert.Equal(t, "sup-1", *store.products["p1"].DefaultSupplierID)

	_, err = uc.Entry(ctx, ledger.EntryInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("1"), UnitCost: dec("4.00"), SupplierID: &s2, Actor: "tester",
	})
	require.NoError(t, err)
	// El proveedor por defecto no cambia, pero el vínculo de s2 queda registrado.
	assert.Equal(t, "sup-1", *store.products["p1"].DefaultSupplierID)
	link := store.links["sup-2|p1"]
	require.NotNil(t, link)
	assertDec(t, "4.00", link.LastCost)
}

func TestEntry_MovimientoRegistraSoloDestino(t *testing.T) {
	store, uc := setup(t)

	_, err := uc.Entry(context.Background(), ledger.EntryInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("2"), UnitCost: dec("1.00"), Actor: "tester",
	})
	require.NoError(t, err)
	require.Len(t, store.movements, 1)
	mov := store.movements[0]
	assert.Equal(t, entity.MovementTypeEntry, mov.Type)
	assert.Nil(t, mov.FromWarehouseID)
	require.NotNil(t, mov.ToWarehouseID)
	assert.Equal(t, whComun, *mov.ToWarehouseID)
}

// ── Exit ──────────────────────────────────────────────────────────────────────

func TestExit_BloqueaStockNegativo(t *testing.T) {
	store, uc := setup(t)
	ctx := context.Background()

	// Sin stock previo: cualquier salida falla.
	_, err := uc.Exit(ctx, ledger.ExitInput{
		ProductID: "p1", WarehouseID: whComun, Quantity: dec("1"), Actor: "tester",
	})
	assert.ErrorIs(t, err, domain.ErrNegativeStock)

	_, err = uc.Entry(ctx, ledger.EntryInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("5"), UnitCost: dec("2.00"), Actor: "tester",
	})
	require.NoError(t, err)

	_, err = uc.Exit(ctx, ledger.ExitInput{
		ProductID: "p1", WarehouseID: whComun, Quantity: dec("3"), Actor: "tester",
	})
	require.NoError(t, err)
	assertDec(t, "2.00", store.qty(t, "p1", whComun))

	// 2.00 disponibles, pide 3.00: rechazado.
	_, err = uc.Exit(ctx, ledger.ExitInput{
		ProductID: "p1", WarehouseID: whComun, Quantity: dec("3"), Actor: "tester",
	})
	assert.ErrorIs(t, err, domain.ErrNegativeStock)
}

func TestExit_AllowNegativePermiteQuedarBajoCero(t *testing.T) {
	store, uc := setup(t)

	_, err := uc.Exit(context.Background(), ledger.ExitInput{
		ProductID: "p1", WarehouseID: whML,
		Quantity: dec("2"), Actor: "sync", AllowNegative: true,
	})
	require.NoError(t, err)
	assertDec(t, "-2.00", store.qty(t, "p1", whML))
}

func TestExit_NoCambiaElCostoBase(t *testing.T) {
	store, uc := setup(t)
	ctx := context.Background()

	_, err := uc.Entry(ctx, ledger.EntryInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("10"), UnitCost: dec("4.00"), Actor: "tester",
	})
	require.NoError(t, err)

	saleID := "sale-1"
	mov, err := uc.Exit(ctx, ledger.ExitInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("4"), Actor: "tester", Reference: "VENTA-1",
		SalePrice: decPtr("9.00"), SaleID: &saleID,
	})
	require.NoError(t, err)
	// La salida queda valuada al costo base vigente y no lo modifica.
	assertDec(t, "4.00", mov.UnitCost)
	assertDec(t, "9.00", mov.SalePrice)
	assertDec(t, "4.00", store.products["p1"].AvgCost)
	require.NotNil(t, mov.SaleID)
	assert.Equal(t, "sale-1", *mov.SaleID)
}

// ── Transfer ──────────────────────────────────────────────────────────────────

func TestTransfer_DescuentaOrigenYNoTocaDestino(t *testing.T) {
	store, uc := setup(t)
	ctx := context.Background()

	_, err := uc.Entry(ctx, ledger.EntryInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("8"), UnitCost: dec("4.00"), Actor: "tester",
	})
	require.NoError(t, err)

	mov, err := uc.Transfer(ctx, ledger.TransferInput{
		ProductID: "p1", FromWarehouseID: whComun, ToWarehouseID: whML,
		Quantity: dec("5"), Actor: "tester", Reference: "T-1",
	})
	require.NoError(t, err)
	assertDec(t, "3.00", store.qty(t, "p1", whComun))
	// Comportamiento deliberado: la transferencia no crea ni incrementa el
	// registro de stock en destino; la bodega MercadoLibre la gobierna la
	// reconciliación con el catálogo remoto.
	assert.False(t, store.hasStock("p1", whML))

	require.NotNil(t, mov.FromWarehouseID)
	require.NotNil(t, mov.ToWarehouseID)
	assert.Equal(t, whComun, *mov.FromWarehouseID)
	assert.Equal(t, whML, *mov.ToWarehouseID)
	assert.Equal(t, entity.MovementTypeTransfer, mov.Type)
}

func TestTransfer_Invalidos(t *testing.T) {
	_, uc := setup(t)
	ctx := context.Background()

	_, err := uc.Transfer(ctx, ledger.TransferInput{
		ProductID: "p1", FromWarehouseID: whComun, ToWarehouseID: whComun,
		Quantity: dec("1"), Actor: "tester",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMovement)

	_, err = uc.Transfer(ctx, ledger.TransferInput{
		ProductID: "p1", FromWarehouseID: whComun, ToWarehouseID: whML,
		Quantity: decimal.Zero, Actor: "tester",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMovement)
}

func TestTransfer_RespetaReglaDeStockNegativo(t *testing.T) {
	_, uc := setup(t)

	_, err := uc.Transfer(context.Background(), ledger.TransferInput{
		ProductID: "p1", FromWarehouseID: whComun, ToWarehouseID: whML,
		Quantity: dec("1"), Actor: "tester",
	})
	assert.ErrorIs(t, err, domain.ErrNegativeStock)
}

// ── Adjustment ────────────────────────────────────────────────────────────────

func TestAdjustment_PositivoRecalculaPromedioPonderado(t *testing.T) {
	store, uc := setup(t)
	ctx := context.Background()

	_, err := uc.Entry(ctx, ledger.EntryInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("10"), UnitCost: dec("4.00"), Actor: "tester",
	})
	require.NoError(t, err)

	mov, err := uc.Adjustment(ctx, ledger.AdjustmentInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("5"), UnitCost: decPtr("7.00"),
		Actor: "tester", Reference: "COUNT-1",
	})
	require.NoError(t, err)
	// (4.00*10 + 7.00*5) / 15 = 5.00
	assertDec(t, "5.00", store.products["p1"].AvgCost)
	assertDec(t, "15.00", store.qty(t, "p1", whComun))
	assertDec(t, "5.00", mov.Quantity)
	require.NotNil(t, mov.ToWarehouseID)
	assert.Nil(t, mov.FromWarehouseID)
}

func TestAdjustment_PromedioConTotalDeTodasLasBodegas(t *testing.T) {
	store, uc := setup(t)
	ctx := context.Background()

	_, err := uc.Entry(ctx, ledger.EntryInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("6"), UnitCost: dec("4.00"), Actor: "tester",
	})
	require.NoError(t, err)
	_, err = uc.Adjustment(ctx, ledger.AdjustmentInput{
		ProductID: "p1", WarehouseID: whML,
		Quantity: dec("4"), Actor: "sync", AllowNegative: true,
	})
	require.NoError(t, err)
	// Sin costo explícito el ajuste usa el costo base vigente: promedio sin cambio.
	assertDec(t, "4.00", store.products["p1"].AvgCost)

	// Ahora un ajuste con costo explícito pondera contra el total (6+4=10).
	_, err = uc.Adjustment(ctx, ledger.AdjustmentInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("10"), UnitCost: decPtr("6.00"), Actor: "tester",
	})
	require.NoError(t, err)
	// (4.00*10 + 6.00*10) / 20 = 5.00
	assertDec(t, "5.00", store.products["p1"].AvgCost)
}

func TestAdjustment_RedondeoMitadHaciaArriba(t *testing.T) {
	store, uc := setup(t)
	ctx := context.Background()

	_, err := uc.Entry(ctx, ledger.EntryInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("3"), UnitCost: dec("1.00"), Actor: "tester",
	})
	require.NoError(t, err)

	_, err = uc.Adjustment(ctx, ledger.AdjustmentInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("3"), UnitCost: decPtr("1.01"), Actor: "tester",
	})
	require.NoError(t, err)
	// (1.00*3 + 1.01*3) / 6 = 1.005 → 1.01
	assertDec(t, "1.01", store.products["p1"].AvgCost)
}

func TestAdjustment_NegativoNoCambiaCostoNiPermiteBajoCero(t *testing.T) {
	store, uc := setup(t)
	ctx := context.Background()

	_, err := uc.Entry(ctx, ledger.EntryInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("5"), UnitCost: dec("1.50"), Actor: "tester",
	})
	require.NoError(t, err)

	mov, err := uc.Adjustment(ctx, ledger.AdjustmentInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("-2"), Actor: "tester", Reference: "COUNT-1",
	})
	require.NoError(t, err)
	assertDec(t, "3.00", store.qty(t, "p1", whComun))
	assertDec(t, "1.50", store.products["p1"].AvgCost)
	// La cantidad del movimiento se registra positiva, con el lado origen.
	assertDec(t, "2.00", mov.Quantity)
	require.NotNil(t, mov.FromWarehouseID)
	assert.Nil(t, mov.ToWarehouseID)

	_, err = uc.Adjustment(ctx, ledger.AdjustmentInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: dec("-4"), Actor: "tester",
	})
	assert.ErrorIs(t, err, domain.ErrNegativeStock)
}

func TestAdjustment_CantidadCeroEsInvalida(t *testing.T) {
	_, uc := setup(t)

	_, err := uc.Adjustment(context.Background(), ledger.AdjustmentInput{
		ProductID: "p1", WarehouseID: whComun,
		Quantity: decimal.Zero, Actor: "tester",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMovement)
}

// ── Escenario completo ────────────────────────────────────────────────────────

func TestEscenario_EntradaYVentaDeShampoo(t *testing.T) {
	store := newMemStore()
	store.products["px"] = &entity.Product{
		ID: "px", Name: "Shampoo X", AvgCost: decimal.Zero, VATPercent: decimal.Zero,
	}
	uc := ledger.NewUseCase(&memTxRunner{store})
	ctx := context.Background()

	_, err := uc.Entry(ctx, ledger.EntryInput{
		ProductID: "px", WarehouseID: whComun,
		Quantity: dec("10"), UnitCost: dec("4.00"), VATPercent: decPtr("0"),
		Actor: "tester", Reference: "PO-10",
	})
	require.NoError(t, err)

	_, err = uc.Exit(ctx, ledger.ExitInput{
		ProductID: "px", WarehouseID: whComun,
		Quantity: dec("4"), SalePrice: decPtr("9.00"),
		Actor: "tester", Reference: "VENTA-7",
	})
	require.NoError(t, err)

	assertDec(t, "6.00", store.qty(t, "px", whComun))
	assertDec(t, "4.00", store.products["px"].AvgCost)
	require.Len(t, store.movements, 2)
	assert.Equal(t, entity.MovementTypeEntry, store.movements[0].Type)
	assert.Equal(t, entity.MovementTypeExit, store.movements[1].Type)
}
