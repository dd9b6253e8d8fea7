package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukahq/storefront/internal/restock"
)

func (h *Handler) StockOverview(w http.ResponseWriter, r *http.Request) {
	rows, err := h.catalog.StockOverview(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "stock overview failed", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog_error", "")
		return
	}

	out := make([]StockOverviewRowResponse, len(rows))
	for i, row := range rows {
		out[i] = StockOverviewRowResponse{
			BranchID:    row.Branch.ID,
			BranchName:  row.Branch.DisplayName,
			ProductID:   row.Product.ID,
			ProductName: row.Product.Name,
			Quantity:    row.Quantity,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	var req RestockRequest
	if !decodeValid(w, r, &req) {
		return
	}

	session, _ := SessionFrom(r.Context())
	result, err := h.restock.Restock(r.Context(), session.UserID, req.BranchID, req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, restock.ErrInvalidQuantity) {
			writeError(w, http.StatusUnprocessableEntity, "invalid_quantity", err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "restock failed", "error", err)
		writeError(w, http.StatusInternalServerError, "restock_error", "")
		return
	}

	writeJSON(w, http.StatusOK, RestockResponse{
		BranchName:  result.BranchName,
		ProductName: result.ProductName,
		Added:       result.Added,
		NewQuantity: result.NewQuantity,
	})
}

func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.catalog.SalesReport(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "sales report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "report_error", "")
		return
	}

	resp := SalesReportResponse{
		Rows:        make([]SalesRowResponse, len(report.Rows)),
		TotalUnits:  report.TotalUnits,
		TotalIncome: report.TotalIncome.String(),
	}
	for i, row := range report.Rows {
		resp.Rows[i] = SalesRowResponse{
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			UnitsSold:   row.UnitsSold,
			Income:      row.Income.String(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
