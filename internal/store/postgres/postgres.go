package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/it25102753/Oil-Shope-POS-system/internal/domain"
	"github.com/it25102753/Oil-Shope-POS-system/internal/store"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	pool *pgxpool.Pool
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 30
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

// Migrate creates any missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error) {
	if employee.Username == "" || employee.PasswordHash == "" || !employee.Role.Valid() {
		return nil, store.ErrInvalid
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO employees (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, employee.Username, employee.PasswordHash, string(employee.Role)).Scan(&employee.ID, &employee.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: username %s already exists", store.ErrConflict, employee.Username)
		}
		return nil, err
	}
	employee.CreatedAt = employee.CreatedAt.UTC()
	return &employee, nil
}

func (s *Store) GetEmployeeByID(ctx context.Context, id int64) (*domain.Employee, error) {
	return s.getEmployee(ctx, "id = $1", id)
}

func (s *Store) GetEmployeeByUsername(ctx context.Context, username string) (*domain.Employee, error) {
	return s.getEmployee(ctx, "username = $1", username)
}

func (s *Store) getEmployee(ctx context.Context, where string, arg any) (*domain.Employee, error) {
	var employee domain.Employee
	var role string
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM employees
		WHERE `+where, arg).Scan(&employee.ID, &employee.Username, &employee.PasswordHash, &role, &employee.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	employee.Role = domain.Role(role)
	employee.CreatedAt = employee.CreatedAt.UTC()
	return &employee, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, username, role, created_at
		FROM employees
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0, 16)
	for rows.Next() {
		var employee domain.Employee
		var role string
		if err := rows.Scan(&employee.ID, &employee.Username, &role, &employee.CreatedAt); err != nil {
			return nil, err
		}
		employee.Role = domain.Role(role)
		employee.CreatedAt = employee.CreatedAt.UTC()
		employees = append(employees, employee)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes the account; sales and adjustments keep their rows
// with employee_id set to NULL by the foreign key.
func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const supplierColumns = `id, name, contact_person, phone, email, address, created_at`

func scanSupplier(row pgx.Row) (*domain.Supplier, error) {
	var supplier domain.Supplier
	if err := row.Scan(&supplier.ID, &supplier.Name, &supplier.ContactPerson, &supplier.Phone, &supplier.Email, &supplier.Address, &supplier.CreatedAt); err != nil {
		return nil, err
	}
	supplier.CreatedAt = supplier.CreatedAt.UTC()
	return &supplier, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 16)
	for rows.Next() {
		supplier, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, *supplier)
	}
	return suppliers, rows.Err()
}

func (s *Store) GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error) {
	supplier, err := scanSupplier(s.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return supplier, nil
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, store.ErrInvalid
	}
	created, err := scanSupplier(s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, contact_person, phone, email, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+supplierColumns,
		supplier.Name, supplier.ContactPerson, supplier.Phone, supplier.Email, supplier.Address))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: supplier %s already exists", store.ErrConflict, supplier.Name)
		}
		return nil, err
	}
	return created, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, store.ErrInvalid
	}
	updated, err := scanSupplier(s.pool.QueryRow(ctx, `
		UPDATE suppliers
		SET name = $2, contact_person = $3, phone = $4, email = $5, address = $6
		WHERE id = $1
		RETURNING `+supplierColumns,
		supplier.ID, supplier.Name, supplier.ContactPerson, supplier.Phone, supplier.Email, supplier.Address))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: supplier %s already exists", store.ErrConflict, supplier.Name)
		}
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const productSelect = `
	SELECT p.id, p.name, p.barcode, p.category, p.description, p.price, p.cost_price,
	       p.quantity, p.min_stock_level, p.supplier_id, COALESCE(s.name, ''), p.created_at, p.updated_at
	FROM products p
	LEFT JOIN suppliers s ON s.id = p.supplier_id
`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Barcode, &p.Category, &p.Description, &p.Price, &p.CostPrice,
		&p.Quantity, &p.MinStockLevel, &p.SupplierID, &p.SupplierName, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (s *Store) queryProducts(ctx context.Context, sql string, args ...any) ([]domain.Product, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.queryProducts(ctx, productSelect+` ORDER BY p.name, p.id`)
}

func (s *Store) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	return s.getProduct(ctx, `WHERE p.id = $1`, id)
}

func (s *Store) GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	return s.getProduct(ctx, `WHERE p.barcode = $1`, barcode)
}

func (s *Store) getProduct(ctx context.Context, where string, arg any) (*domain.Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, productSelect+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Barcode == "" || product.Quantity < 0 {
		return nil, store.ErrInvalid
	}
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (name, barcode, category, description, price, cost_price, quantity, min_stock_level, supplier_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, product.Name, product.Barcode, product.Category, product.Description, product.Price, product.CostPrice,
		product.Quantity, product.MinStockLevel, product.SupplierID).Scan(&id)
	if err != nil {
		return nil, mapProductWriteError(err, product)
	}
	return s.GetProductByID(ctx, id)
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product, editorID *int64) (*domain.Product, error) {
	if product.Name == "" || product.Barcode == "" || product.Quantity < 0 {
		return nil, store.ErrInvalid
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var oldQuantity int
	err = tx.QueryRow(ctx, `SELECT quantity FROM products WHERE id = $1 FOR UPDATE`, product.ID).Scan(&oldQuantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE products
		SET name = $2, barcode = $3, category = $4, description = $5, price = $6, cost_price = $7,
		    quantity = $8, min_stock_level = $9, supplier_id = $10, updated_at = now()
		WHERE id = $1
	`, product.ID, product.Name, product.Barcode, product.Category, product.Description, product.Price,
		product.CostPrice, product.Quantity, product.MinStockLevel, product.SupplierID); err != nil {
		return nil, mapProductWriteError(err, product)
	}

	if typ, qty, changed := domain.AdjustmentBetween(oldQuantity, product.Quantity); changed {
		if _, err := tx.Exec(ctx, `
			INSERT INTO stock_adjustments (product_id, old_quantity, new_quantity, adjustment_quantity, adjustment_type, reason, employee_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, product.ID, oldQuantity, product.Quantity, qty, string(typ), domain.ProductEditReason, editorID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetProductByID(ctx, product.ID)
}

func mapProductWriteError(err error, product domain.Product) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: barcode %s already exists", store.ErrConflict, product.Barcode)
	}
	if isForeignKeyViolation(err) && product.SupplierID != nil {
		return fmt.Errorf("%w: supplier %d not found", store.ErrInvalid, *product.SupplierID)
	}
	return err
}

// DeleteProduct relies on ON DELETE RESTRICT from sale_items and stock_adjustments.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: product %d is referenced by sales or adjustments", store.ErrConflict, id)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListLowStock(ctx context.Context) ([]domain.Product, error) {
	return s.queryProducts(ctx, productSelect+` WHERE p.quantity <= p.min_stock_level ORDER BY p.quantity ASC, p.name`)
}

func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	return count, err
}

func (s *Store) CountLowStock(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE quantity <= min_stock_level`).Scan(&count)
	return count, err
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale, enforceStockFloor bool) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, fmt.Errorf("%w: sale has no items", store.ErrInvalid)
	}
	demand := make(map[int64]int, len(sale.Items))
	for _, item := range sale.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be positive", store.ErrInvalid)
		}
		demand[item.ProductID] += item.Quantity
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stock, err := lockProducts(ctx, tx, demand)
	if err != nil {
		return nil, err
	}
	for productID, qty := range demand {
		onHand, ok := stock[productID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d not found", store.ErrInvalid, productID)
		}
		if enforceStockFloor && onHand < qty {
			return nil, fmt.Errorf("%w: product %d has %d left", store.ErrInsufficientStock, productID, onHand)
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO sales (customer_name, customer_phone, total_amount, discount, payment_method, employee_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, sale.CustomerName, sale.CustomerPhone, sale.TotalAmount, sale.Discount, sale.PaymentMethod,
		sale.EmployeeID, sale.CreatedAt).Scan(&sale.ID)
	if err != nil {
		return nil, err
	}

	for i := range sale.Items {
		item := &sale.Items[i]
		item.SaleID = sale.ID
		if err := tx.QueryRow(ctx, `
			INSERT INTO sale_items (sale_id, product_id, quantity, price, subtotal)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, sale.ID, item.ProductID, item.Quantity, item.Price, item.Subtotal).Scan(&item.ID); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE products SET quantity = quantity - $2, updated_at = now() WHERE id = $1
		`, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetSale(ctx, sale.ID)
}

// lockProducts takes row locks in ascending id order so concurrent sales
// touching overlapping products cannot deadlock.
func lockProducts(ctx context.Context, q querier, demand map[int64]int) (map[int64]int, error) {
	ids := make([]int64, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	rows, err := q.Query(ctx, `
		SELECT id, quantity
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stock := make(map[int64]int, len(ids))
	for rows.Next() {
		var id int64
		var qty int
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		stock[id] = qty
	}
	return stock, rows.Err()
}

const saleSelect = `
	SELECT s.id, s.customer_name, s.customer_phone, s.total_amount, s.discount, s.payment_method,
	       s.employee_id, COALESCE(e.username, ''), s.created_at,
	       (SELECT COUNT(*) FROM sale_items si WHERE si.sale_id = s.id)
	FROM sales s
	LEFT JOIN employees e ON e.id = s.employee_id
`

func scanSale(row pgx.Row) (*domain.Sale, error) {
	var sale domain.Sale
	if err := row.Scan(&sale.ID, &sale.CustomerName, &sale.CustomerPhone, &sale.TotalAmount, &sale.Discount,
		&sale.PaymentMethod, &sale.EmployeeID, &sale.EmployeeName, &sale.CreatedAt, &sale.ItemsCount); err != nil {
		return nil, err
	}
	sale.CreatedAt = sale.CreatedAt.UTC()
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, error) {
	where, args := timeRangeClause("s.created_at", filter.From, filter.To, nil, nil)
	rows, err := s.pool.Query(ctx, saleSelect+where+` ORDER BY s.created_at DESC, s.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	return sales, rows.Err()
}

func (s *Store) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	sale, err := scanSale(s.pool.QueryRow(ctx, saleSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	items, err := s.saleItems(ctx, id)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return sale, nil
}

func (s *Store) ListSaleItems(ctx context.Context, saleID int64) ([]domain.SaleItem, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sales WHERE id = $1)`, saleID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}
	return s.saleItems(ctx, saleID)
}

func (s *Store) saleItems(ctx context.Context, saleID int64) ([]domain.SaleItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT si.id, si.sale_id, si.product_id, p.name, si.quantity, si.price, si.subtotal
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = $1
		ORDER BY si.id
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.SaleItem, 0, 8)
	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price, &item.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) SalesTotal(ctx context.Context, from time.Time, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM sales
		WHERE created_at >= $1 AND created_at < $2
	`, from, to).Scan(&total)
	return total, err
}

func (s *Store) AdjustStock(ctx context.Context, adj domain.StockAdjustment) (*domain.StockAdjustment, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		SELECT name, barcode, quantity FROM products WHERE id = $1 FOR UPDATE
	`, adj.ProductID).Scan(&adj.ProductName, &adj.Barcode, &adj.OldQuantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	adj.NewQuantity, err = adj.AdjustmentType.Apply(adj.OldQuantity, adj.AdjustmentQuantity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalid, err)
	}
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now().UTC()
	}

	if _, err := tx.Exec(ctx, `
		UPDATE products SET quantity = $2, updated_at = now() WHERE id = $1
	`, adj.ProductID, adj.NewQuantity); err != nil {
		return nil, err
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO stock_adjustments (product_id, old_quantity, new_quantity, adjustment_quantity, adjustment_type, reason, employee_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, adj.ProductID, adj.OldQuantity, adj.NewQuantity, adj.AdjustmentQuantity, string(adj.AdjustmentType),
		adj.Reason, adj.EmployeeID, adj.CreatedAt).Scan(&adj.ID)
	if err != nil {
		return nil, err
	}
	if adj.EmployeeID != nil {
		if err := tx.QueryRow(ctx, `SELECT username FROM employees WHERE id = $1`, *adj.EmployeeID).Scan(&adj.EmployeeName); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &adj, nil
}

func (s *Store) ListStockAdjustments(ctx context.Context, filter domain.AdjustmentFilter) ([]domain.StockAdjustment, error) {
	limit := filter.Limit
	if limit < 1 {
		limit = domain.MaxAdjustmentRows
	}
	conditions := []string{}
	args := []any{}
	if filter.ProductID > 0 {
		args = append(args, filter.ProductID)
		conditions = append(conditions, "sa.product_id = $"+strconv.Itoa(len(args)))
	}
	where, args := timeRangeClause("sa.created_at", filter.From, filter.To, conditions, args)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, `
		SELECT sa.id, sa.product_id, p.name, p.barcode, sa.old_quantity, sa.new_quantity,
		       sa.adjustment_quantity, sa.adjustment_type, sa.reason, sa.employee_id,
		       COALESCE(e.username, ''), sa.created_at
		FROM stock_adjustments sa
		JOIN products p ON p.id = sa.product_id
		LEFT JOIN employees e ON e.id = sa.employee_id
	`+where+`
		ORDER BY sa.created_at DESC, sa.id DESC
		LIMIT $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.StockAdjustment, 0, limit)
	for rows.Next() {
		var adj domain.StockAdjustment
		var typ string
		if err := rows.Scan(&adj.ID, &adj.ProductID, &adj.ProductName, &adj.Barcode, &adj.OldQuantity, &adj.NewQuantity,
			&adj.AdjustmentQuantity, &typ, &adj.Reason, &adj.EmployeeID, &adj.EmployeeName, &adj.CreatedAt); err != nil {
			return nil, err
		}
		adj.AdjustmentType = domain.AdjustmentType(typ)
		adj.CreatedAt = adj.CreatedAt.UTC()
		result = append(result, adj)
	}
	return result, rows.Err()
}

// timeRangeClause appends [from, to) bounds on column to conditions and
// renders the WHERE clause, numbering placeholders after the existing args.
func timeRangeClause(column string, from *time.Time, to *time.Time, conditions []string, args []any) (string, []any) {
	if from != nil {
		args = append(args, *from)
		conditions = append(conditions, column+" >= $"+strconv.Itoa(len(args)))
	}
	if to != nil {
		args = append(args, *to)
		conditions = append(conditions, column+" < $"+strconv.Itoa(len(args)))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
