package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier:
		return true
	}
	return false
}

// Actor is the authenticated employee behind a request.
type Actor struct {
	EmployeeID int64  `json:"employeeId"`
	Username   string `json:"username"`
	Role       Role   `json:"role"`
}

type Employee struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

type EmployeeCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type Supplier struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contactPerson"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Address       string    `json:"address"`
	CreatedAt     time.Time `json:"createdAt"`
}

type SupplierRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
}

const DefaultMinStockLevel = 10

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Barcode       string          `json:"barcode"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	CostPrice     decimal.Decimal `json:"costPrice"`
	Quantity      int             `json:"quantity"`
	MinStockLevel int             `json:"minStockLevel"`
	SupplierID    *int64          `json:"supplierId"`
	SupplierName  string          `json:"supplierName,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// LowStock reports whether the product has fallen to or below its threshold.
func (p Product) LowStock() bool {
	return p.Quantity <= p.MinStockLevel
}

// ProductRequest is used for both create and full-replacement update.
type ProductRequest struct {
	Name          string           `json:"name"`
	Barcode       string           `json:"barcode"`
	Category      string           `json:"category"`
	Description   string           `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	CostPrice     *decimal.Decimal `json:"costPrice"`
	Quantity      *int             `json:"quantity"`
	MinStockLevel *int             `json:"minStockLevel"`
	SupplierID    *int64           `json:"supplierId"`
}

const (
	DefaultCustomerName  = "Walk-in"
	DefaultPaymentMethod = "cash"
)

type Sale struct {
	ID            int64           `json:"id"`
	CustomerName  string          `json:"customerName"`
	CustomerPhone string          `json:"customerPhone"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Discount      decimal.Decimal `json:"discount"`
	PaymentMethod string          `json:"paymentMethod"`
	EmployeeID    *int64          `json:"employeeId"`
	EmployeeName  string          `json:"employeeName"`
	ItemsCount    int             `json:"itemsCount"`
	CreatedAt     time.Time       `json:"createdAt"`
	Items         []SaleItem      `json:"items,omitempty"`
}

type SaleItem struct {
	ID          int64           `json:"id"`
	SaleID      int64           `json:"saleId"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type SaleItemRequest struct {
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price"`
	Subtotal  *decimal.Decimal `json:"subtotal"`
}

type SaleCreateRequest struct {
	CustomerName  string            `json:"customerName"`
	CustomerPhone string            `json:"customerPhone"`
	TotalAmount   *decimal.Decimal  `json:"totalAmount"`
	Discount      *decimal.Decimal  `json:"discount"`
	PaymentMethod string            `json:"paymentMethod"`
	Items         []SaleItemRequest `json:"items"`
}

type SaleCreateResponse struct {
	Success bool  `json:"success"`
	SaleID  int64 `json:"saleId"`
}

// SaleFilter bounds created_at to [From, To) when set.
type SaleFilter struct {
	From *time.Time
	To   *time.Time
}

type StockAdjustment struct {
	ID                 int64          `json:"id"`
	ProductID          int64          `json:"productId"`
	ProductName        string         `json:"productName,omitempty"`
	Barcode            string         `json:"barcode,omitempty"`
	OldQuantity        int            `json:"oldQuantity"`
	NewQuantity        int            `json:"newQuantity"`
	AdjustmentQuantity int            `json:"adjustmentQuantity"`
	AdjustmentType     AdjustmentType `json:"adjustmentType"`
	Reason             string         `json:"reason"`
	EmployeeID         *int64         `json:"employeeId"`
	EmployeeName       string         `json:"employeeName"`
	CreatedAt          time.Time      `json:"createdAt"`
}

type StockAdjustRequest struct {
	ProductID      int64          `json:"productId"`
	AdjustmentType AdjustmentType `json:"adjustmentType"`
	Quantity       int            `json:"quantity"`
	Reason         string         `json:"reason"`
}

type StockAdjustResponse struct {
	Success     bool `json:"success"`
	OldQuantity int  `json:"oldQuantity"`
	NewQuantity int  `json:"newQuantity"`
}

const MaxAdjustmentRows = 100

type AdjustmentFilter struct {
	ProductID int64
	From      *time.Time
	To        *time.Time
	Limit     int
}

type DashboardStats struct {
	TodaySales    decimal.Decimal `json:"todaySales"`
	LowStockCount int             `json:"lowStockCount"`
	TotalProducts int             `json:"totalProducts"`
	MonthlySales  decimal.Decimal `json:"monthlySales"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success   bool   `json:"success"`
	Role      Role   `json:"role"`
	Token     string `json:"token,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}
