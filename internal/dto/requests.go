package dto

// RunReconciliationRequest is the JSON body of a run trigger. All fields
// are optional: an empty body runs against the configured workbook with
// the default backdated run date.
type RunReconciliationRequest struct {
	RunDate    string `json:"run_date" binding:"omitempty,datetime=2006-01-02"`
	DaysOffset *int   `json:"days_offset" binding:"omitempty,gte=0,lte=365"`
	Debug      bool   `json:"debug"`
}
