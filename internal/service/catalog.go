package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/it25102753/Oil-Shope-POS-system/internal/domain"
	"github.com/it25102753/Oil-Shope-POS-system/internal/store"
)

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) GetProductByBarcode(ctx context.Context, barcode string) (domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return domain.Product{}, fmt.Errorf("%w: barcode is required", store.ErrInvalid)
	}
	product, err := s.repo.GetProductByBarcode(ctx, barcode)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductRequest) (domain.Product, error) {
	product, err := productFromRequest(req)
	if err != nil {
		return domain.Product{}, err
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("barcode=%s qty=%d", created.Barcode, created.Quantity))
	return *created, nil
}

// UpdateProduct replaces every editable field of the product. A changed
// quantity leaves a stock adjustment row with ProductEditReason.
func (s *Service) UpdateProduct(ctx context.Context, id int64, req domain.ProductRequest) (domain.Product, error) {
	product, err := productFromRequest(req)
	if err != nil {
		return domain.Product{}, err
	}
	product.ID = id

	updated, err := s.repo.UpdateProduct(ctx, product, actorEmployeeID(ctx))
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "product_update", "product", updated.ID, fmt.Sprintf("price=%s qty=%d", updated.Price.StringFixed(2), updated.Quantity))
	return *updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "product_delete", "product", id, "")
	return nil
}

func productFromRequest(req domain.ProductRequest) (domain.Product, error) {
	product := domain.Product{
		Name:          strings.TrimSpace(req.Name),
		Barcode:       strings.TrimSpace(req.Barcode),
		Category:      strings.TrimSpace(req.Category),
		Description:   strings.TrimSpace(req.Description),
		CostPrice:     decimal.Zero,
		MinStockLevel: domain.DefaultMinStockLevel,
	}
	if product.Name == "" || product.Barcode == "" || product.Category == "" {
		return domain.Product{}, fmt.Errorf("%w: name, barcode and category are required", store.ErrInvalid)
	}
	if req.Price == nil || req.Price.IsNegative() {
		return domain.Product{}, fmt.Errorf("%w: price is required and must not be negative", store.ErrInvalid)
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		return domain.Product{}, fmt.Errorf("%w: quantity is required and must not be negative", store.ErrInvalid)
	}
	product.Price = req.Price.Round(2)
	product.Quantity = *req.Quantity

	if req.CostPrice != nil {
		if req.CostPrice.IsNegative() {
			return domain.Product{}, fmt.Errorf("%w: costPrice must not be negative", store.ErrInvalid)
		}
		product.CostPrice = req.CostPrice.Round(2)
	}
	if req.MinStockLevel != nil {
		if *req.MinStockLevel < 0 {
			return domain.Product{}, fmt.Errorf("%w: minStockLevel must not be negative", store.ErrInvalid)
		}
		product.MinStockLevel = *req.MinStockLevel
	}
	if req.SupplierID != nil && *req.SupplierID > 0 {
		supplierID := *req.SupplierID
		product.SupplierID = &supplierID
	}
	return product, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) GetSupplier(ctx context.Context, id int64) (domain.Supplier, error) {
	supplier, err := s.repo.GetSupplier(ctx, id)
	if err != nil {
		return domain.Supplier{}, err
	}
	return *supplier, nil
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierRequest) (domain.Supplier, error) {
	supplier, err := supplierFromRequest(req)
	if err != nil {
		return domain.Supplier{}, err
	}
	created, err := s.repo.CreateSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, err
	}
	s.logAudit(ctx, "supplier_create", "supplier", created.ID, created.Name)
	return *created, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id int64, req domain.SupplierRequest) (domain.Supplier, error) {
	supplier, err := supplierFromRequest(req)
	if err != nil {
		return domain.Supplier{}, err
	}
	supplier.ID = id
	updated, err := s.repo.UpdateSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, err
	}
	return *updated, nil
}

// DeleteSupplier detaches the supplier from its products before removal.
func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	if err := s.repo.DeleteSupplier(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "supplier_delete", "supplier", id, "")
	return nil
}

func supplierFromRequest(req domain.SupplierRequest) (domain.Supplier, error) {
	supplier := domain.Supplier{
		Name:          strings.TrimSpace(req.Name),
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.TrimSpace(req.Email),
		Address:       strings.TrimSpace(req.Address),
	}
	if supplier.Name == "" {
		return domain.Supplier{}, fmt.Errorf("%w: supplier name is required", store.ErrInvalid)
	}
	return supplier, nil
}
