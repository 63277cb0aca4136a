package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/it25102753/Oil-Shope-POS-system/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid request")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repository interface {
	CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)
	GetEmployeeByID(ctx context.Context, id int64) (*domain.Employee, error)
	GetEmployeeByUsername(ctx context.Context, username string) (*domain.Employee, error)
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error

	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error)
	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) error

	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	// UpdateProduct replaces the product under its row lock. A quantity change
	// is recorded as a stock adjustment attributed to editorID.
	UpdateProduct(ctx context.Context, product domain.Product, editorID *int64) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListLowStock(ctx context.Context) ([]domain.Product, error)
	CountProducts(ctx context.Context) (int, error)
	CountLowStock(ctx context.Context) (int, error)

	// CreateSale writes the sale, its items and the stock decrements as one
	// unit. With enforceStockFloor the locked quantity must cover every line.
	CreateSale(ctx context.Context, sale domain.Sale, enforceStockFloor bool) (*domain.Sale, error)
	ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error)
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
	ListSaleItems(ctx context.Context, saleID int64) ([]domain.SaleItem, error)
	SalesTotal(ctx context.Context, from time.Time, to time.Time) (decimal.Decimal, error)

	// AdjustStock applies adj to the product and appends the audit row in one
	// unit. OldQuantity and NewQuantity are filled from the locked row.
	AdjustStock(ctx context.Context, adj domain.StockAdjustment) (*domain.StockAdjustment, error)
	ListStockAdjustments(ctx context.Context, filter domain.AdjustmentFilter) ([]domain.StockAdjustment, error)
}
