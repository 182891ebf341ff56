package dto

import "github.com/libertypay/card-reconciliation/internal/model"

// SnapshotListResponse wraps a paginated page of stored run snapshots.
type SnapshotListResponse struct {
	Data       []model.MetricsSnapshot `json:"data"`
	Pagination Pagination              `json:"pagination"`
}

// ConfigResponse exposes the non-secret runtime settings.
type ConfigResponse struct {
	WorkbookPath string            `json:"workbook_path"`
	OutputDir    string            `json:"output_dir"`
	DaysOffset   int               `json:"days_offset"`
	Schedule     string            `json:"schedule,omitempty"`
	Sheets       map[string]string `json:"sheets"`
	MerchantIDs  map[string]string `json:"merchant_ids"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}
