package recon

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/libertypay/card-reconciliation/internal/model"
)

// Inputs is the normalized, typed view of the six raw tables. The
// transaction slice is already restricted to the run date; settlement and
// statement tables keep their full date range because later stages filter
// them against different date columns.
type Inputs struct {
	Transactions    []model.Transaction
	NIBSSUnity      []model.SettlementRecord
	ISWUnity        []model.SettlementRecord
	NIBSSParallex   []model.SettlementRecord
	UnityLines      []model.BankStatementLine
	ParallexLines   []model.BankStatementLine
	UnfilteredCount int
}

// NormalizeMerchantID canonicalizes a merchant identifier for comparison:
// surrounding whitespace trimmed and the trailing ".0" artifact of numeric
// cell storage stripped. Idempotent.
func NormalizeMerchantID(v string) string {
	s := strings.TrimSpace(v)
	return strings.TrimSuffix(s, ".0")
}

// normalizeKey canonicalizes a join key. Reference numbers arrive as
// strings on one side and numerically-stored cells on the other, so keys
// are compared as normalized strings: trimmed, ".0" stripped, and leading
// zeros dropped from purely numeric values.
func normalizeKey(v string) string {
	s := NormalizeMerchantID(v)
	if allDigits(s) {
		s = strings.TrimLeft(s, "0")
		if s == "" {
			s = "0"
		}
	}
	return s
}

// parseCellFloat coerces a numeric cell. Unparsable values become NaN,
// never an error.
func parseCellFloat(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Normalize types all six tables and filters the transaction log to the
// run date. Malformed cells degrade to zero dates, NaN numbers, or empty
// strings; an empty result is valid and flows through as zero aggregates.
func Normalize(tables model.Tables, runDate time.Time) *Inputs {
	in := &Inputs{}

	for _, row := range tables.CardTransactions.Rows {
		tx := model.Transaction{
			ID:              strings.TrimSpace(row["id"]),
			DateCreated:     parseCellDate(row["date_created"]),
			MerchantID:      NormalizeMerchantID(row["merchant_id"]),
			HostRespCode:    parseCellFloat(row["host_resp_code"]),
			Amount:          parseCellFloat(row["amount"]),
			Commission:      parseCellFloat(row["liberty_commission"]),
			FinalRevenue:    parseCellFloat(row["final_liberty_rev"]),
			ROProfit:        parseCellFloat(row["ro_profit"]),
			LibertyProfit:   parseCellFloat(row["liberty_profit"]),
			ReferenceNumber: strings.TrimSpace(row["reference_number"]),
			STAN:            strings.TrimSpace(row["stan"]),
			TerminalID:      strings.TrimSpace(row["terminal_id"]),
			PAN:             strings.TrimSpace(row["pan_number"]),
			UserType:        strings.TrimSpace(row["type_of_user"]),
		}
		in.UnfilteredCount++
		if sameDate(tx.DateCreated, runDate) {
			in.Transactions = append(in.Transactions, tx)
		}
	}

	in.NIBSSUnity = normalizeSettlement(tables.NIBSSUnitySettlement)
	in.ISWUnity = normalizeSettlement(tables.ISWUnitySettlement)
	in.NIBSSParallex = normalizeSettlement(tables.NIBSSParallexSettlement)
	in.UnityLines = normalizeStatement(tables.UnityStatement)
	in.ParallexLines = normalizeStatement(tables.ParallexStatement)

	return in
}

func normalizeSettlement(t model.RawTable) []model.SettlementRecord {
	recs := make([]model.SettlementRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		recs = append(recs, model.SettlementRecord{
			MerchantID:         NormalizeMerchantID(row["Merchant_ID"]),
			LocalDateTime:      parseCellDate(row["Local_Date_Time"]),
			TerminalID:         strings.TrimSpace(row["Terminal_ID"]),
			STAN:               strings.TrimSpace(row["STAN"]),
			PAN:                strings.TrimSpace(row["PAN"]),
			RetrievalReference: strings.TrimSpace(row["Retrieval_Reference_Nr"]),
			RequestedAmount:    parseCellFloat(row["Tran_Amount_Req"]),
			MerchantReceivable: parseCellFloat(row["Merchant_Receivable"]),
			MerchantDiscount:   parseCellFloat(row["Merchant_Discount"]),
		})
	}
	return recs
}

func normalizeStatement(t model.RawTable) []model.BankStatementLine {
	lines := make([]model.BankStatementLine, 0, len(t.Rows))
	for _, row := range t.Rows {
		lines = append(lines, model.BankStatementLine{
			PostingDate: strings.TrimSpace(row["Date"]),
			// Narration stays a plain string even when the cell was
			// empty, so pattern matching never sees a missing value.
			Narration: row["Transaction Narration"],
			Reference: strings.TrimSpace(row["Reference"]),
			ValueDate: parseCellDate(row["Value Date"]),
			Debit:     parseCellFloat(row["Debit"]),
			Credit:    parseCellFloat(row["Credit"]),
			Balance:   parseCellFloat(row["Balance"]),
		})
	}
	return lines
}
