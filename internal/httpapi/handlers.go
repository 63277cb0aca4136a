package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/it25102753/Oil-Shope-POS-system/internal/domain"
	"github.com/it25102753/Oil-Shope-POS-system/internal/report"
)

type mutationResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id,omitempty"`
}

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	product, err := a.service.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (a *API) handleProductByBarcode(w http.ResponseWriter, r *http.Request) {
	product, err := a.service.GetProductByBarcode(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		writeServiceError(w, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	product, err := a.service.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "product")
		return
	}
	writeJSON(w, http.StatusCreated, mutationResponse{Success: true, ID: product.ID})
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req domain.ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := a.service.UpdateProduct(r.Context(), id, req); err != nil {
		writeServiceError(w, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Success: true, ID: id})
}

func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.service.DeleteProduct(r.Context(), id); err != nil {
		writeServiceError(w, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Success: true})
}

func (a *API) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := a.service.ListSuppliers(r.Context())
	if err != nil {
		writeServiceError(w, err, "supplier")
		return
	}
	writeJSON(w, http.StatusOK, suppliers)
}

func (a *API) handleGetSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	supplier, err := a.service.GetSupplier(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "supplier")
		return
	}
	writeJSON(w, http.StatusOK, supplier)
}

func (a *API) handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req domain.SupplierRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	supplier, err := a.service.CreateSupplier(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "supplier")
		return
	}
	writeJSON(w, http.StatusCreated, mutationResponse{Success: true, ID: supplier.ID})
}

func (a *API) handleUpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req domain.SupplierRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := a.service.UpdateSupplier(r.Context(), id, req); err != nil {
		writeServiceError(w, err, "supplier")
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Success: true, ID: id})
}

func (a *API) handleDeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.service.DeleteSupplier(r.Context(), id); err != nil {
		writeServiceError(w, err, "supplier")
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Success: true})
}

func (a *API) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req domain.SaleCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.CreateSale(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "product")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleListSales(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sales, err := a.service.ListSales(r.Context(), query.Get("startDate"), query.Get("endDate"))
	if err != nil {
		writeServiceError(w, err, "sale")
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (a *API) handleGetSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sale, err := a.service.GetSale(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "sale")
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (a *API) handleSaleItems(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	items, err := a.service.ListSaleItems(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "sale")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) handleInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sale, err := a.service.GetSale(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "sale")
		return
	}

	var buf bytes.Buffer
	if err := a.invoices.Render(&buf, sale); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("render invoice %d: %w", id, err))
		return
	}
	writeAttachment(w, "application/pdf", report.InvoiceFilename(id), buf.Bytes())
}

func (a *API) handleExportSales(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sales, err := a.service.ListSales(r.Context(), query.Get("startDate"), query.Get("endDate"))
	if err != nil {
		writeServiceError(w, err, "sale")
		return
	}

	var buf bytes.Buffer
	if err := report.WriteSalesWorkbook(&buf, sales, a.loc); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("export sales: %w", err))
		return
	}
	filename := fmt.Sprintf("sales_%s.xlsx", time.Now().In(a.loc).Format("20060102"))
	writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", filename, buf.Bytes())
}

func (a *API) handleLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.LowStock(r.Context())
	if err != nil {
		writeServiceError(w, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *API) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req domain.StockAdjustRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.AdjustStock(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleListAdjustments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	productID, err := parsePositiveID(query.Get("productId"))
	if err != nil {
		writeServiceError(w, err, "product")
		return
	}
	adjustments, err := a.service.ListAdjustments(r.Context(), productID, query.Get("startDate"), query.Get("endDate"))
	if err != nil {
		writeServiceError(w, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, adjustments)
}

func (a *API) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.service.DashboardStats(r.Context())
	if err != nil {
		writeServiceError(w, err, "dashboard")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	employees, err := a.service.ListEmployees(r.Context())
	if err != nil {
		writeServiceError(w, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.EmployeeCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	employee, err := a.service.CreateEmployee(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "user")
		return
	}
	writeJSON(w, http.StatusCreated, mutationResponse{Success: true, ID: employee.ID})
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.service.DeleteEmployee(r.Context(), id); err != nil {
		writeServiceError(w, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Success: true})
}

func writeAttachment(w http.ResponseWriter, contentType string, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
