package model

import (
	"time"
)

// RawTable is one named input table exactly as loaded from a workbook tab:
// a header row plus string-valued cells keyed by column name. All typing
// happens in the reconciliation engine's normalizer.
type RawTable struct {
	Name    string              `json:"name"`
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// Tables holds the six input tables consumed by a reconciliation run.
type Tables struct {
	CardTransactions        RawTable
	NIBSSUnitySettlement    RawTable
	ISWUnitySettlement      RawTable
	NIBSSParallexSettlement RawTable
	UnityStatement          RawTable
	ParallexStatement       RawTable
}

// Transaction is one normalized card-transaction log row. Zero time values
// and NaN floats mark cells that failed to parse.
type Transaction struct {
	ID              string
	DateCreated     time.Time
	MerchantID      string
	HostRespCode    float64
	Amount          float64
	Commission      float64
	FinalRevenue    float64
	ROProfit        float64
	LibertyProfit   float64
	ReferenceNumber string
	STAN            string
	TerminalID      string
	PAN             string
	UserType        string
}

// SettlementRecord is one normalized settlement-report row from any of the
// three channel feeds.
type SettlementRecord struct {
	MerchantID         string
	LocalDateTime      time.Time
	TerminalID         string
	STAN               string
	PAN                string
	RetrievalReference string
	RequestedAmount    float64
	MerchantReceivable float64
	MerchantDiscount   float64
}

// BankStatementLine is one normalized bank-ledger row. PostingDate is kept
// verbatim: only the value date takes part in date comparisons, and output
// views echo the posting date as received.
type BankStatementLine struct {
	PostingDate string
	Narration   string
	Reference   string
	ValueDate   time.Time
	Debit       float64
	Credit      float64
	Balance     float64
}

// Dataset is one named result table. Rows hold JSON-friendly values
// (string, float64, int, nil); the first column is always run_date.
type Dataset struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ChannelMetrics is the per-channel breakdown inside a snapshot.
type ChannelMetrics struct {
	Revenue        float64 `json:"revenue"`
	Settlement     float64 `json:"settlement"`
	ChargeBack     float64 `json:"charge_back"`
	UnsettledClaim float64 `json:"unsettled_claim"`
}

// BankChannelMetrics carries the bank-visibility figures for the ISW
// collection account. The bank side has no revenue or settlement of its own.
type BankChannelMetrics struct {
	ChargeBack     float64 `json:"charge_back"`
	UnsettledClaim float64 `json:"unsettled_claim"`
}

// ChannelBreakdown keys the per-channel sub-mapping with fixed fields so
// snapshot serialization stays byte-stable across runs.
type ChannelBreakdown struct {
	NIBSS       ChannelMetrics     `json:"NIBSS"`
	Interswitch ChannelMetrics     `json:"INTERSWITCH"`
	Parallex    ChannelMetrics     `json:"PARALLEX"`
	ISWBank     BankChannelMetrics `json:"ISW Bank"`
}

// MetricsSnapshot is the immutable output of one reconciliation run,
// keyed by run date.
type MetricsSnapshot struct {
	RunDate                        string           `json:"run_date"`
	TotalRevenue                   float64          `json:"total_revenue"`
	TotalSettlement                float64          `json:"total_settlement"`
	TotalSettlementChargeBack      float64          `json:"total_settlement_charge_back"`
	TotalSettlementUnsettledClaims float64          `json:"total_settlement_unsettled_claims"`
	TotalBankUnsettledClaims       float64          `json:"total_bank_isw_unsettled_claims"`
	TotalBankChargeBack            float64          `json:"total_bank_isw_charge_back"`
	Channels                       ChannelBreakdown `json:"channels"`
}
