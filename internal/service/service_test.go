package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/it25102753/Oil-Shope-POS-system/internal/domain"
	"github.com/it25102753/Oil-Shope-POS-system/internal/store"
	"github.com/it25102753/Oil-Shope-POS-system/internal/store/memory"
)

// Seeded ids: employees admin=1 manager=2 cashier=3, supplier 1, products 1..5.
const (
	engineOilID int64 = 1
	gearOilID   int64 = 3
	coolantID   int64 = 5
)

func newTestService() (*Service, *memory.Store) {
	repo := memory.NewSeeded()
	return New(repo, Options{}), repo
}

func cashierContext() context.Context {
	return WithActor(context.Background(), domain.Actor{EmployeeID: 3, Username: "cashier", Role: domain.RoleCashier})
}

func managerContext() context.Context {
	return WithActor(context.Background(), domain.Actor{EmployeeID: 2, Username: "manager", Role: domain.RoleManager})
}

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func saleLine(productID int64, qty int, price string) domain.SaleItemRequest {
	p := decimal.RequireFromString(price)
	sub := p.Mul(decimal.NewFromInt(int64(qty)))
	return domain.SaleItemRequest{ProductID: productID, Quantity: qty, Price: &p, Subtotal: &sub}
}

func quantityOf(t *testing.T, svc *Service, id int64) int {
	t.Helper()
	p, err := svc.GetProduct(context.Background(), id)
	if err != nil {
		t.Fatalf("get product %d: %v", id, err)
	}
	return p.Quantity
}

func TestCreateSaleDecrementsStock(t *testing.T) {
	svc, _ := newTestService()
	ctx := cashierContext()

	resp, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		TotalAmount: dec("44.50"),
		Items: []domain.SaleItemRequest{
			saleLine(engineOilID, 2, "12.50"),
			saleLine(gearOilID, 2, "9.75"),
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if !resp.Success || resp.SaleID < 1 {
		t.Fatalf("unexpected response %+v", resp)
	}

	if got := quantityOf(t, svc, engineOilID); got != 38 {
		t.Fatalf("expected engine oil quantity 38, got %d", got)
	}
	if got := quantityOf(t, svc, gearOilID); got != 4 {
		t.Fatalf("expected gear oil quantity 4, got %d", got)
	}

	sale, err := svc.GetSale(ctx, resp.SaleID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if sale.CustomerName != domain.DefaultCustomerName || sale.PaymentMethod != domain.DefaultPaymentMethod {
		t.Fatalf("expected defaults, got customer=%q payment=%q", sale.CustomerName, sale.PaymentMethod)
	}
	if !sale.Discount.IsZero() {
		t.Fatalf("expected zero discount, got %s", sale.Discount)
	}
	if sale.EmployeeID == nil || *sale.EmployeeID != 3 || sale.EmployeeName != "cashier" {
		t.Fatalf("expected sale attributed to cashier, got %+v", sale)
	}
	if len(sale.Items) != 2 || sale.ItemsCount != 2 {
		t.Fatalf("expected 2 items, got %d (count %d)", len(sale.Items), sale.ItemsCount)
	}
	if sale.Items[0].ProductName == "" {
		t.Fatalf("expected item product name to be filled")
	}
}

func TestCreateSaleUnknownProductWritesNothing(t *testing.T) {
	svc, _ := newTestService()
	ctx := cashierContext()

	_, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		TotalAmount: dec("22.50"),
		Items: []domain.SaleItemRequest{
			saleLine(engineOilID, 1, "12.50"),
			saleLine(999, 1, "10.00"),
		},
	})
	if !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}

	if got := quantityOf(t, svc, engineOilID); got != 40 {
		t.Fatalf("expected engine oil untouched at 40, got %d", got)
	}
	sales, err := svc.ListSales(ctx, "", "")
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 0 {
		t.Fatalf("expected no sales after failed create, got %d", len(sales))
	}
}

func TestCreateSaleValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := cashierContext()

	missingPrice := saleLine(engineOilID, 1, "12.50")
	missingPrice.Price = nil
	zeroQty := saleLine(engineOilID, 1, "12.50")
	zeroQty.Quantity = 0

	cases := []struct {
		name string
		req  domain.SaleCreateRequest
	}{
		{"no items", domain.SaleCreateRequest{TotalAmount: dec("1.00")}},
		{"missing total", domain.SaleCreateRequest{Items: []domain.SaleItemRequest{saleLine(engineOilID, 1, "12.50")}}},
		{"negative total", domain.SaleCreateRequest{TotalAmount: dec("-1"), Items: []domain.SaleItemRequest{saleLine(engineOilID, 1, "12.50")}}},
		{"negative discount", domain.SaleCreateRequest{TotalAmount: dec("12.50"), Discount: dec("-0.01"), Items: []domain.SaleItemRequest{saleLine(engineOilID, 1, "12.50")}}},
		{"missing price", domain.SaleCreateRequest{TotalAmount: dec("12.50"), Items: []domain.SaleItemRequest{missingPrice}}},
		{"zero quantity", domain.SaleCreateRequest{TotalAmount: dec("12.50"), Items: []domain.SaleItemRequest{zeroQty}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSale(ctx, tc.req)
			if !errors.Is(err, store.ErrInvalid) {
				t.Fatalf("expected invalid error, got %v", err)
			}
		})
	}
	if got := quantityOf(t, svc, engineOilID); got != 40 {
		t.Fatalf("expected no stock change from rejected sales, got %d", got)
	}
}

func TestCreateSaleAllowsNegativeStockByDefault(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateSale(cashierContext(), domain.SaleCreateRequest{
		TotalAmount: dec("42.00"),
		Items:       []domain.SaleItemRequest{saleLine(coolantID, 5, "8.40")},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if got := quantityOf(t, svc, coolantID); got != -2 {
		t.Fatalf("expected coolant quantity -2, got %d", got)
	}
}

func TestCreateSaleRejectPolicySumsRepeatedLines(t *testing.T) {
	repo := memory.NewSeeded()
	svc := New(repo, Options{EnforceStockFloor: true})
	ctx := cashierContext()

	_, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		TotalAmount: dec("33.60"),
		Items: []domain.SaleItemRequest{
			saleLine(coolantID, 2, "8.40"),
			saleLine(coolantID, 2, "8.40"),
		},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if got := quantityOf(t, svc, coolantID); got != 3 {
		t.Fatalf("expected coolant untouched at 3, got %d", got)
	}

	if _, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		TotalAmount: dec("25.20"),
		Items:       []domain.SaleItemRequest{saleLine(coolantID, 3, "8.40")},
	}); err != nil {
		t.Fatalf("expected sale of exact stock to pass, got %v", err)
	}
	if got := quantityOf(t, svc, coolantID); got != 0 {
		t.Fatalf("expected coolant at 0, got %d", got)
	}
}

func TestConcurrentSalesDecrementExactly(t *testing.T) {
	svc, _ := newTestService()
	ctx := cashierContext()

	const buyers = 20
	var wg sync.WaitGroup
	errs := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
				TotalAmount: dec("12.50"),
				Items:       []domain.SaleItemRequest{saleLine(engineOilID, 1, "12.50")},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent sale failed: %v", err)
		}
	}

	if got := quantityOf(t, svc, engineOilID); got != 40-buyers {
		t.Fatalf("expected quantity %d, got %d", 40-buyers, got)
	}
}

func TestAdjustStockFloorAndAuditPairing(t *testing.T) {
	svc, _ := newTestService()
	ctx := managerContext()

	_, err := svc.AdjustStock(ctx, domain.StockAdjustRequest{ProductID: coolantID, AdjustmentType: domain.AdjustmentSubtract, Quantity: 4})
	if !errors.Is(err, store.ErrInvalid) || !errors.Is(err, domain.ErrNegativeStock) {
		t.Fatalf("expected below-zero rejection, got %v", err)
	}
	if got := quantityOf(t, svc, coolantID); got != 3 {
		t.Fatalf("expected quantity unchanged at 3, got %d", got)
	}

	resp, err := svc.AdjustStock(ctx, domain.StockAdjustRequest{ProductID: coolantID, AdjustmentType: domain.AdjustmentAdd, Quantity: 12, Reason: "delivery"})
	if err != nil {
		t.Fatalf("adjust stock: %v", err)
	}
	if resp.OldQuantity != 3 || resp.NewQuantity != 15 {
		t.Fatalf("unexpected adjust response %+v", resp)
	}

	history, err := svc.ListAdjustments(ctx, coolantID, "", "")
	if err != nil {
		t.Fatalf("list adjustments: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one audit row, got %d", len(history))
	}
	row := history[0]
	if row.OldQuantity != 3 || row.NewQuantity != 15 || row.AdjustmentQuantity != 12 {
		t.Fatalf("audit row does not match adjustment: %+v", row)
	}
	if row.EmployeeName != "manager" || row.Barcode == "" || row.ProductName == "" {
		t.Fatalf("expected enriched audit row, got %+v", row)
	}
	if got := quantityOf(t, svc, coolantID); got != row.NewQuantity {
		t.Fatalf("product quantity %d does not match audit new quantity %d", got, row.NewQuantity)
	}
}

func TestAdjustStockRejectsBadInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := managerContext()

	if _, err := svc.AdjustStock(ctx, domain.StockAdjustRequest{ProductID: coolantID, AdjustmentType: "set", Quantity: 1}); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected invalid type error, got %v", err)
	}
	if _, err := svc.AdjustStock(ctx, domain.StockAdjustRequest{ProductID: coolantID, AdjustmentType: domain.AdjustmentAdd, Quantity: 0}); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected invalid quantity error, got %v", err)
	}
	if _, err := svc.AdjustStock(ctx, domain.StockAdjustRequest{ProductID: 404, AdjustmentType: domain.AdjustmentAdd, Quantity: 1}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestListAdjustmentsDateBoundsAreInclusive(t *testing.T) {
	repo := memory.NewSeeded()
	now := time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC)
	svc := New(repo, Options{Now: func() time.Time { return now }})
	ctx := managerContext()

	for _, day := range []int{8, 9, 10} {
		now = time.Date(2026, 4, day, 15, 0, 0, 0, time.UTC)
		if _, err := svc.AdjustStock(ctx, domain.StockAdjustRequest{ProductID: engineOilID, AdjustmentType: domain.AdjustmentAdd, Quantity: day}); err != nil {
			t.Fatalf("adjust: %v", err)
		}
	}

	rows, err := svc.ListAdjustments(ctx, 0, "2026-04-09", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].AdjustmentQuantity != 10 || rows[1].AdjustmentQuantity != 9 {
		t.Fatalf("expected days 10 and 9 newest first, got %+v", rows)
	}

	rows, err = svc.ListAdjustments(ctx, 0, "2026-04-08", "2026-04-09")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected end date to include its whole day, got %d rows", len(rows))
	}

	if _, err := svc.ListAdjustments(ctx, 0, "04/09/2026", ""); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected invalid date error, got %v", err)
	}
}

func TestListAdjustmentsCappedAt100(t *testing.T) {
	repo := memory.NewSeeded()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc := New(repo, Options{Now: func() time.Time { return now }})
	ctx := managerContext()

	const total = domain.MaxAdjustmentRows + 5
	for i := 1; i <= total; i++ {
		now = now.Add(time.Minute)
		if _, err := svc.AdjustStock(ctx, domain.StockAdjustRequest{ProductID: coolantID, AdjustmentType: domain.AdjustmentAdd, Quantity: i}); err != nil {
			t.Fatalf("adjust %d: %v", i, err)
		}
	}

	rows, err := svc.ListAdjustments(ctx, coolantID, "", "")
	if err != nil {
		t.Fatalf("list adjustments: %v", err)
	}
	if len(rows) != domain.MaxAdjustmentRows {
		t.Fatalf("expected %d rows, got %d", domain.MaxAdjustmentRows, len(rows))
	}
	if rows[0].AdjustmentQuantity != total || rows[len(rows)-1].AdjustmentQuantity != 6 {
		t.Fatalf("expected the newest rows first, got first=%d last=%d", rows[0].AdjustmentQuantity, rows[len(rows)-1].AdjustmentQuantity)
	}
	if rows[0].NewQuantity != quantityOf(t, svc, coolantID) {
		t.Fatalf("first row should carry the current quantity, got %+v", rows[0])
	}
}

func TestLowStockOrderedByQuantity(t *testing.T) {
	svc, _ := newTestService()

	products, err := svc.LowStock(context.Background())
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 low-stock products, got %d", len(products))
	}
	if products[0].ID != coolantID || products[1].ID != gearOilID {
		t.Fatalf("expected coolant then gear oil, got %d then %d", products[0].ID, products[1].ID)
	}
	for _, p := range products {
		if !p.LowStock() {
			t.Fatalf("product %d is not low stock", p.ID)
		}
	}
}

func TestDashboardStatsUseConfiguredLocation(t *testing.T) {
	repo := memory.NewSeeded()
	colombo := time.FixedZone("LKT", 5*3600+1800)
	now := time.Date(2026, 2, 28, 12, 0, 0, 0, colombo)
	svc := New(repo, Options{Location: colombo, Now: func() time.Time { return now }})
	ctx := cashierContext()

	sell := func(at time.Time, total string) {
		now = at
		if _, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
			TotalAmount: dec(total),
			Items:       []domain.SaleItemRequest{saleLine(engineOilID, 1, total)},
		}); err != nil {
			t.Fatalf("create sale: %v", err)
		}
	}
	sell(time.Date(2026, 2, 28, 12, 0, 0, 0, colombo), "5.00")
	sell(time.Date(2026, 3, 14, 23, 50, 0, 0, colombo), "20.00")
	sell(time.Date(2026, 3, 15, 0, 10, 0, 0, colombo), "12.50")

	now = time.Date(2026, 3, 15, 10, 0, 0, 0, colombo)
	stats, err := svc.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if !stats.TodaySales.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expected today 12.50, got %s", stats.TodaySales)
	}
	if !stats.MonthlySales.Equal(decimal.RequireFromString("32.50")) {
		t.Fatalf("expected month 32.50, got %s", stats.MonthlySales)
	}
	if stats.TotalProducts != 5 || stats.LowStockCount != 2 {
		t.Fatalf("unexpected counts %+v", stats)
	}
}

func TestDeleteEmployeeGuardsSelf(t *testing.T) {
	svc, _ := newTestService()
	ctx := WithActor(context.Background(), domain.Actor{EmployeeID: 1, Username: "admin", Role: domain.RoleAdmin})

	err := svc.DeleteEmployee(ctx, 1)
	if !errors.Is(err, ErrSelfDelete) || !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected self-delete error, got %v", err)
	}
	if _, err := svc.repo.GetEmployeeByID(ctx, 1); err != nil {
		t.Fatalf("expected admin to remain, got %v", err)
	}
}

func TestDeleteEmployeeKeepsSalesHistory(t *testing.T) {
	svc, _ := newTestService()
	resp, err := svc.CreateSale(cashierContext(), domain.SaleCreateRequest{
		TotalAmount: dec("12.50"),
		Items:       []domain.SaleItemRequest{saleLine(engineOilID, 1, "12.50")},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	admin := WithActor(context.Background(), domain.Actor{EmployeeID: 1, Username: "admin", Role: domain.RoleAdmin})
	if err := svc.DeleteEmployee(admin, 3); err != nil {
		t.Fatalf("delete cashier: %v", err)
	}
	sale, err := svc.GetSale(admin, resp.SaleID)
	if err != nil {
		t.Fatalf("sale should survive employee deletion: %v", err)
	}
	if sale.EmployeeID != nil || sale.EmployeeName != "" {
		t.Fatalf("expected detached employee, got %+v", sale)
	}
	if err := svc.DeleteEmployee(admin, 3); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestCreateEmployeeValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateEmployee(ctx, domain.EmployeeCreateRequest{Username: "nadeesha", Password: "s3cret!", Role: "Cashier"})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	if created.Role != domain.RoleCashier || created.PasswordHash == "s3cret!" {
		t.Fatalf("expected normalized role and hashed password, got %+v", created)
	}

	if _, err := svc.CreateEmployee(ctx, domain.EmployeeCreateRequest{Username: "nadeesha", Password: "another1", Role: "manager"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected duplicate username conflict, got %v", err)
	}
	if _, err := svc.CreateEmployee(ctx, domain.EmployeeCreateRequest{Username: "ab", Password: "longenough", Role: "admin"}); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected short username rejection, got %v", err)
	}
	if _, err := svc.CreateEmployee(ctx, domain.EmployeeCreateRequest{Username: "kasun", Password: "pw", Role: "admin"}); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected short password rejection, got %v", err)
	}
	if _, err := svc.CreateEmployee(ctx, domain.EmployeeCreateRequest{Username: "kasun", Password: "longenough", Role: "owner"}); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected invalid role rejection, got %v", err)
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "owner", "Str0ng-Passw0rd")
	if err != nil || !created {
		t.Fatalf("expected bootstrap admin to be created, created=%v err=%v", created, err)
	}
	created, err = svc.EnsureAdmin(ctx, "owner", "Str0ng-Passw0rd")
	if err != nil || created {
		t.Fatalf("expected second call to be a no-op, created=%v err=%v", created, err)
	}
}
