package memory

import (
	"cmp"
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/it25102753/Oil-Shope-POS-system/internal/domain"
	"github.com/it25102753/Oil-Shope-POS-system/internal/store"
)

type Store struct {
	mu          sync.RWMutex
	employees   map[int64]domain.Employee
	suppliers   map[int64]domain.Supplier
	products    map[int64]domain.Product
	sales       map[int64]domain.Sale
	saleItems   map[int64][]domain.SaleItem
	adjustments []domain.StockAdjustment

	nextEmployeeID   int64
	nextSupplierID   int64
	nextProductID    int64
	nextSaleID       int64
	nextSaleItemID   int64
	nextAdjustmentID int64
}

func New() *Store {
	return &Store{
		employees:   make(map[int64]domain.Employee),
		suppliers:   make(map[int64]domain.Supplier),
		products:    make(map[int64]domain.Product),
		sales:       make(map[int64]domain.Sale),
		saleItems:   make(map[int64][]domain.SaleItem),
		adjustments: make([]domain.StockAdjustment, 0, 64),
	}
}

// seedEmployees builds the demo accounts used when no database is configured.
// Passwords come from SEED_ADMIN_PASSWORD, SEED_MANAGER_PASSWORD and
// SEED_CASHIER_PASSWORD; unset values fall back to dev defaults with a warning.
func (s *Store) seedEmployees() {
	accounts := []struct {
		username string
		envKey   string
		fallback string
		role     domain.Role
	}{
		{"admin", "SEED_ADMIN_PASSWORD", "admin123", domain.RoleAdmin},
		{"manager", "SEED_MANAGER_PASSWORD", "manager123", domain.RoleManager},
		{"cashier", "SEED_CASHIER_PASSWORD", "cashier123", domain.RoleCashier},
	}

	usingDefaults := false
	for _, a := range accounts {
		if os.Getenv(a.envKey) == "" {
			usingDefaults = true
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(envOr(a.envKey, a.fallback)), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", a.username, err)
		}
		s.nextEmployeeID++
		s.employees[s.nextEmployeeID] = domain.Employee{
			ID:           s.nextEmployeeID,
			Username:     a.username,
			PasswordHash: string(hash),
			Role:         a.role,
			CreatedAt:    time.Now().UTC(),
		}
	}
	if usingDefaults {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_*_PASSWORD to override.")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewSeeded returns a store with demo employees, one supplier and a small oil catalog.
func NewSeeded() *Store {
	s := New()
	s.seedEmployees()

	now := time.Now().UTC()
	s.nextSupplierID++
	supplierID := s.nextSupplierID
	s.suppliers[supplierID] = domain.Supplier{
		ID:            supplierID,
		Name:          "Lanka Lubricants",
		ContactPerson: "Nimal Perera",
		Phone:         "0112345678",
		Email:         "sales@lankalube.example",
		Address:       "12 Harbour Road, Colombo",
		CreatedAt:     now,
	}

	for _, p := range []domain.Product{
		{Name: "Engine Oil 5W-30 1L", Barcode: "8901000000011", Category: "engine-oil", Price: decimal.RequireFromString("12.50"), CostPrice: decimal.RequireFromString("9.00"), Quantity: 40, MinStockLevel: 10},
		{Name: "Engine Oil 10W-40 4L", Barcode: "8901000000028", Category: "engine-oil", Price: decimal.RequireFromString("38.00"), CostPrice: decimal.RequireFromString("29.50"), Quantity: 18, MinStockLevel: 5},
		{Name: "Gear Oil 80W-90 1L", Barcode: "8901000000035", Category: "gear-oil", Price: decimal.RequireFromString("9.75"), CostPrice: decimal.RequireFromString("6.80"), Quantity: 6, MinStockLevel: 10},
		{Name: "Brake Fluid DOT4 500ml", Barcode: "8901000000042", Category: "fluids", Price: decimal.RequireFromString("7.20"), CostPrice: decimal.RequireFromString("4.90"), Quantity: 25, MinStockLevel: 10},
		{Name: "Coolant Concentrate 1L", Barcode: "8901000000059", Category: "fluids", Price: decimal.RequireFromString("8.40"), CostPrice: decimal.RequireFromString("5.60"), Quantity: 3, MinStockLevel: 8},
	} {
		s.nextProductID++
		p.ID = s.nextProductID
		p.SupplierID = &supplierID
		p.CreatedAt = now
		p.UpdatedAt = now
		s.products[p.ID] = p
	}
	return s
}

func (s *Store) CreateEmployee(_ context.Context, employee domain.Employee) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if employee.Username == "" || employee.PasswordHash == "" || !employee.Role.Valid() {
		return nil, store.ErrInvalid
	}
	for _, existing := range s.employees {
		if existing.Username == employee.Username {
			return nil, fmt.Errorf("%w: username %s already exists", store.ErrConflict, employee.Username)
		}
	}

	s.nextEmployeeID++
	employee.ID = s.nextEmployeeID
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = time.Now().UTC()
	}
	s.employees[employee.ID] = employee
	created := employee
	return &created, nil
}

func (s *Store) GetEmployeeByID(_ context.Context, id int64) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employee, ok := s.employees[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &employee, nil
}

func (s *Store) GetEmployeeByUsername(_ context.Context, username string) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, employee := range s.employees {
		if employee.Username == username {
			found := employee
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := make([]domain.Employee, 0, len(s.employees))
	for _, employee := range s.employees {
		employees = append(employees, employee)
	}
	slices.SortFunc(employees, func(a, b domain.Employee) int {
		return cmp.Compare(a.Username, b.Username)
	})
	return employees, nil
}

func (s *Store) DeleteEmployee(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.employees, id)

	for saleID, sale := range s.sales {
		if sale.EmployeeID != nil && *sale.EmployeeID == id {
			sale.EmployeeID = nil
			s.sales[saleID] = sale
		}
	}
	for i := range s.adjustments {
		if s.adjustments[i].EmployeeID != nil && *s.adjustments[i].EmployeeID == id {
			s.adjustments[i].EmployeeID = nil
		}
	}
	return nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliers))
	for _, supplier := range s.suppliers {
		suppliers = append(suppliers, supplier)
	}
	slices.SortFunc(suppliers, func(a, b domain.Supplier) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return suppliers, nil
}

func (s *Store) GetSupplier(_ context.Context, id int64) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, ok := s.suppliers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &supplier, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, store.ErrInvalid
	}
	if s.supplierNameTaken(supplier.Name, 0) {
		return nil, fmt.Errorf("%w: supplier %s already exists", store.ErrConflict, supplier.Name)
	}

	s.nextSupplierID++
	supplier.ID = s.nextSupplierID
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}
	s.suppliers[supplier.ID] = supplier
	created := supplier
	return &created, nil
}

func (s *Store) UpdateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.suppliers[supplier.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, store.ErrInvalid
	}
	if s.supplierNameTaken(supplier.Name, supplier.ID) {
		return nil, fmt.Errorf("%w: supplier %s already exists", store.ErrConflict, supplier.Name)
	}

	supplier.CreatedAt = existing.CreatedAt
	s.suppliers[supplier.ID] = supplier
	updated := supplier
	return &updated, nil
}

func (s *Store) DeleteSupplier(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.suppliers[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.suppliers, id)

	for productID, product := range s.products {
		if product.SupplierID != nil && *product.SupplierID == id {
			product.SupplierID = nil
			s.products[productID] = product
		}
	}
	return nil
}

func (s *Store) supplierNameTaken(name string, exceptID int64) bool {
	for _, supplier := range s.suppliers {
		if supplier.ID != exceptID && supplier.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, s.withSupplierName(p))
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	product = s.withSupplierName(product)
	return &product, nil
}

func (s *Store) GetProductByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, product := range s.products {
		if product.Barcode == barcode {
			found := s.withSupplierName(product)
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkProduct(product); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s.nextProductID++
	product.ID = s.nextProductID
	product.CreatedAt = now
	product.UpdatedAt = now
	product.SupplierName = ""
	s.products[product.ID] = product
	created := s.withSupplierName(product)
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product, editorID *int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if err := s.checkProduct(product); err != nil {
		return nil, err
	}

	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	product.SupplierName = ""
	s.products[product.ID] = product

	if typ, qty, changed := domain.AdjustmentBetween(existing.Quantity, product.Quantity); changed {
		s.nextAdjustmentID++
		s.adjustments = append(s.adjustments, domain.StockAdjustment{
			ID:                 s.nextAdjustmentID,
			ProductID:          product.ID,
			OldQuantity:        existing.Quantity,
			NewQuantity:        product.Quantity,
			AdjustmentQuantity: qty,
			AdjustmentType:     typ,
			Reason:             domain.ProductEditReason,
			EmployeeID:         editorID,
			CreatedAt:          product.UpdatedAt,
		})
	}
	updated := s.withSupplierName(product)
	return &updated, nil
}

// DeleteProduct refuses to remove a product that sales or adjustments still reference.
func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	for _, items := range s.saleItems {
		for _, item := range items {
			if item.ProductID == id {
				return fmt.Errorf("%w: product %d has recorded sales", store.ErrConflict, id)
			}
		}
	}
	for _, adj := range s.adjustments {
		if adj.ProductID == id {
			return fmt.Errorf("%w: product %d has stock adjustments", store.ErrConflict, id)
		}
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListLowStock(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0)
	for _, p := range s.products {
		if p.LowStock() {
			products = append(products, s.withSupplierName(p))
		}
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if c := cmp.Compare(a.Quantity, b.Quantity); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return products, nil
}

func (s *Store) CountProducts(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products), nil
}

func (s *Store) CountLowStock(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.products {
		if p.LowStock() {
			count++
		}
	}
	return count, nil
}

func (s *Store) checkProduct(product domain.Product) error {
	if product.Name == "" || product.Barcode == "" || product.Quantity < 0 {
		return store.ErrInvalid
	}
	for _, existing := range s.products {
		if existing.ID != product.ID && existing.Barcode == product.Barcode {
			return fmt.Errorf("%w: barcode %s already exists", store.ErrConflict, product.Barcode)
		}
	}
	if product.SupplierID != nil {
		if _, ok := s.suppliers[*product.SupplierID]; !ok {
			return fmt.Errorf("%w: supplier %d not found", store.ErrInvalid, *product.SupplierID)
		}
	}
	return nil
}

func (s *Store) withSupplierName(p domain.Product) domain.Product {
	p.SupplierName = ""
	if p.SupplierID != nil {
		if supplier, ok := s.suppliers[*p.SupplierID]; ok {
			p.SupplierName = supplier.Name
		}
	}
	return p
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale, enforceStockFloor bool) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(sale.Items) == 0 {
		return nil, fmt.Errorf("%w: sale has no items", store.ErrInvalid)
	}

	// Validate every line before touching any state.
	demand := make(map[int64]int, len(sale.Items))
	for _, item := range sale.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be positive", store.ErrInvalid)
		}
		if _, ok := s.products[item.ProductID]; !ok {
			return nil, fmt.Errorf("%w: product %d not found", store.ErrInvalid, item.ProductID)
		}
		demand[item.ProductID] += item.Quantity
	}
	if enforceStockFloor {
		for productID, qty := range demand {
			if s.products[productID].Quantity < qty {
				return nil, fmt.Errorf("%w: product %d has %d left", store.ErrInsufficientStock, productID, s.products[productID].Quantity)
			}
		}
	}

	s.nextSaleID++
	sale.ID = s.nextSaleID
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	items := make([]domain.SaleItem, 0, len(sale.Items))
	for _, item := range sale.Items {
		s.nextSaleItemID++
		item.ID = s.nextSaleItemID
		item.SaleID = sale.ID
		item.ProductName = ""
		items = append(items, item)

		product := s.products[item.ProductID]
		product.Quantity -= item.Quantity
		product.UpdatedAt = sale.CreatedAt
		s.products[item.ProductID] = product
	}

	stored := sale
	stored.Items = nil
	stored.EmployeeName = ""
	stored.ItemsCount = 0
	s.sales[sale.ID] = stored
	s.saleItems[sale.ID] = items

	created := s.enrichSale(stored)
	created.Items = s.enrichItems(items)
	return &created, nil
}

func (s *Store) ListSales(_ context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if !inRange(sale.CreatedAt, filter.From, filter.To) {
			continue
		}
		sales = append(sales, s.enrichSale(sale))
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return sales, nil
}

func (s *Store) GetSale(_ context.Context, id int64) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := s.enrichSale(sale)
	found.Items = s.enrichItems(s.saleItems[id])
	return &found, nil
}

func (s *Store) ListSaleItems(_ context.Context, saleID int64) ([]domain.SaleItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sales[saleID]; !ok {
		return nil, store.ErrNotFound
	}
	return s.enrichItems(s.saleItems[saleID]), nil
}

func (s *Store) SalesTotal(_ context.Context, from time.Time, to time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, sale := range s.sales {
		if inRange(sale.CreatedAt, &from, &to) {
			total = total.Add(sale.TotalAmount)
		}
	}
	return total, nil
}

func (s *Store) enrichSale(sale domain.Sale) domain.Sale {
	sale.EmployeeName = s.employeeName(sale.EmployeeID)
	sale.ItemsCount = len(s.saleItems[sale.ID])
	sale.Items = nil
	return sale
}

func (s *Store) enrichItems(items []domain.SaleItem) []domain.SaleItem {
	out := make([]domain.SaleItem, len(items))
	for i, item := range items {
		item.ProductName = s.products[item.ProductID].Name
		out[i] = item
	}
	return out
}

func (s *Store) AdjustStock(_ context.Context, adj domain.StockAdjustment) (*domain.StockAdjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[adj.ProductID]
	if !ok {
		return nil, store.ErrNotFound
	}
	next, err := adj.AdjustmentType.Apply(product.Quantity, adj.AdjustmentQuantity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalid, err)
	}

	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now().UTC()
	}
	adj.OldQuantity = product.Quantity
	adj.NewQuantity = next

	product.Quantity = next
	product.UpdatedAt = adj.CreatedAt
	s.products[product.ID] = product

	s.nextAdjustmentID++
	adj.ID = s.nextAdjustmentID
	adj.ProductName = ""
	adj.Barcode = ""
	adj.EmployeeName = ""
	s.adjustments = append(s.adjustments, adj)

	recorded := s.enrichAdjustment(adj)
	return &recorded, nil
}

func (s *Store) ListStockAdjustments(_ context.Context, filter domain.AdjustmentFilter) ([]domain.StockAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StockAdjustment, 0)
	for _, adj := range s.adjustments {
		if filter.ProductID > 0 && adj.ProductID != filter.ProductID {
			continue
		}
		if !inRange(adj.CreatedAt, filter.From, filter.To) {
			continue
		}
		result = append(result, s.enrichAdjustment(adj))
	}
	slices.SortFunc(result, func(a, b domain.StockAdjustment) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	limit := filter.Limit
	if limit < 1 {
		limit = domain.MaxAdjustmentRows
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) enrichAdjustment(adj domain.StockAdjustment) domain.StockAdjustment {
	if product, ok := s.products[adj.ProductID]; ok {
		adj.ProductName = product.Name
		adj.Barcode = product.Barcode
	}
	adj.EmployeeName = s.employeeName(adj.EmployeeID)
	return adj
}

func (s *Store) employeeName(id *int64) string {
	if id == nil {
		return ""
	}
	return s.employees[*id].Username
}

// inRange reports whether t falls in [from, to); nil bounds are open.
func inRange(t time.Time, from *time.Time, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}
