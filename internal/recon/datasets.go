package recon

import (
	"math"
	"time"

	"github.com/libertypay/card-reconciliation/internal/model"
)

// Result-table names, stable across runs. Downstream sinks key tabs and
// sheets on these.
const (
	DatasetPaybox              = "paybox_summary"
	DatasetNIBSSChannel        = "nibss_unity_channel"
	DatasetISWChannel          = "isw_unity_channel"
	DatasetParallexChannel     = "nibss_parallex_channel"
	DatasetNIBSSReconciliation = "nibss_reconciliation"
	DatasetISWReconciliation   = "isw_reconciliation"
	DatasetParallexRecon       = "parallex_reconciliation"
	DatasetISWBankRecon        = "isw_bank_reconciliation"
	DatasetNEFTCredits         = "neft_credits"
	DatasetBeingSummary        = "being_summary"
	DatasetReversals           = "reversals"
	DatasetTerminalFees        = "terminal_owner_fees"
	DatasetDailySweeps         = "daily_sweeps"
)

var claimColumns = []string{
	"date_created", "reference_number", "stan", "amount",
	"merchant_id", "terminal_id", "pan_number",
}

var chargeBackColumns = []string{
	"Local_Date_Time", "Terminal_ID", "Merchant_ID", "STAN", "PAN",
	"Tran_Amount_Req", "Retrieval_Reference_Nr",
}

var statementColumns = []string{
	"Date", "Transaction Narration", "Reference", "Value Date",
	"Debit", "Credit", "Balance",
}

func cellDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format("2006-01-02")
}

func cellTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format("2006-01-02 15:04:05")
}

func cellFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// buildDatasets assembles the thirteen output tables, each led by a
// run_date column.
func buildDatasets(runDate time.Time, rev Revenue, setts map[Channel]ChannelSettlement, bank BankReconciliation) []model.Dataset {
	rd := runDate.Format("2006-01-02")

	ds := make([]model.Dataset, 0, 13)
	ds = append(ds, paybox(rd, rev.Paybox))
	ds = append(ds, channelView(DatasetNIBSSChannel, rd, rev.Aggregates[ChannelNIBSS], setts[ChannelNIBSS].Aggregate, true))
	ds = append(ds, channelView(DatasetISWChannel, rd, rev.Aggregates[ChannelInterswitch], setts[ChannelInterswitch].Aggregate, false))
	ds = append(ds, channelView(DatasetParallexChannel, rd, rev.Aggregates[ChannelParallex], setts[ChannelParallex].Aggregate, true))
	ds = append(ds, reconView(DatasetNIBSSReconciliation, rd, setts[ChannelNIBSS]))
	ds = append(ds, reconView(DatasetISWReconciliation, rd, setts[ChannelInterswitch]))
	ds = append(ds, reconView(DatasetParallexRecon, rd, setts[ChannelParallex]))
	ds = append(ds, bankReconView(rd, bank))
	ds = append(ds, neftView(rd, bank.NEFTCredits))
	ds = append(ds, statementView(DatasetBeingSummary, rd, bank.BeingSummary))
	ds = append(ds, reversalView(rd, bank.Reversals))
	ds = append(ds, statementView(DatasetTerminalFees, rd, bank.TerminalFees))
	ds = append(ds, statementView(DatasetDailySweeps, rd, bank.DailySweeps))
	return ds
}

func paybox(rd string, agg PayboxAggregate) model.Dataset {
	return model.Dataset{
		Name: DatasetPaybox,
		Columns: []string{
			"run_date", "amount_sum", "count", "commission_sum",
			"final_revenue_sum", "ro_profit_sum", "liberty_profit_sum",
		},
		Rows: [][]any{{
			rd, agg.AmountSum, agg.Count, agg.CommissionSum,
			agg.FinalRevenueSum, agg.ROProfitSum, agg.LibertyProfitSum,
		}},
	}
}

// channelView merges a channel's revenue aggregate with its settlement
// aggregate into one reporting row. NIBSS feeds carry receivable and
// discount columns; the ISW feed reports amount and count only.
func channelView(name, rd string, rev ChannelAggregate, sett SettlementAggregate, withReceivables bool) model.Dataset {
	cols := []string{
		"run_date", "amount_sum", "count", "fee_sum", "cost_sum",
		"commission_sum", "gross_sum", "settlement_amount_sum", "settlement_count",
	}
	row := []any{
		rd, rev.AmountSum, rev.Count, rev.FeeSum, rev.CostSum,
		rev.CommissionSum, rev.GrossSum, sett.RequestedSum, sett.Count,
	}
	if withReceivables {
		cols = append(cols, "receivable_sum", "discount_sum")
		row = append(row, sett.ReceivableSum, sett.DiscountSum)
	}
	return model.Dataset{Name: name, Columns: cols, Rows: [][]any{row}}
}

func claimRow(tx model.Transaction) []any {
	return []any{
		cellDate(tx.DateCreated), tx.ReferenceNumber, tx.STAN,
		cellFloat(tx.Amount), tx.MerchantID, tx.TerminalID, tx.PAN,
	}
}

func chargeBackRow(rec model.SettlementRecord) []any {
	return []any{
		cellTime(rec.LocalDateTime), rec.TerminalID, rec.MerchantID,
		rec.STAN, rec.PAN, cellFloat(rec.RequestedAmount), rec.RetrievalReference,
	}
}

func statementRow(l model.BankStatementLine) []any {
	return []any{
		l.PostingDate, l.Narration, l.Reference, cellDate(l.ValueDate),
		cellFloat(l.Debit), cellFloat(l.Credit), cellFloat(l.Balance),
	}
}

// reconView lays a channel's unsettled claims and chargebacks side by side,
// padding the shorter partition with empty cells.
func reconView(name, rd string, sett ChannelSettlement) model.Dataset {
	cols := append([]string{"run_date"}, claimColumns...)
	cols = append(cols, chargeBackColumns...)

	n := len(sett.UnsettledClaims)
	if len(sett.ChargeBacks) > n {
		n = len(sett.ChargeBacks)
	}

	rows := make([][]any, 0, n)
	for i := 0; i < n; i++ {
		row := []any{rd}
		if i < len(sett.UnsettledClaims) {
			row = append(row, claimRow(sett.UnsettledClaims[i])...)
		} else {
			row = append(row, emptyCells(len(claimColumns))...)
		}
		if i < len(sett.ChargeBacks) {
			row = append(row, chargeBackRow(sett.ChargeBacks[i])...)
		} else {
			row = append(row, emptyCells(len(chargeBackColumns))...)
		}
		rows = append(rows, row)
	}
	return model.Dataset{Name: name, Columns: cols, Rows: rows}
}

func bankReconView(rd string, bank BankReconciliation) model.Dataset {
	cols := append([]string{"run_date"}, claimColumns...)
	cols = append(cols, statementColumns...)
	cols = append(cols, "rrn", "t_date")

	n := len(bank.UnsettledClaims)
	if len(bank.ChargeBacks) > n {
		n = len(bank.ChargeBacks)
	}

	rows := make([][]any, 0, n)
	for i := 0; i < n; i++ {
		row := []any{rd}
		if i < len(bank.UnsettledClaims) {
			row = append(row, claimRow(bank.UnsettledClaims[i])...)
		} else {
			row = append(row, emptyCells(len(claimColumns))...)
		}
		if i < len(bank.ChargeBacks) {
			cl := bank.ChargeBacks[i]
			row = append(row, statementRow(cl.Line)...)
			row = append(row, cl.ISW.RRN, cellDate(cl.ExtractedDate))
		} else {
			row = append(row, emptyCells(len(statementColumns)+2)...)
		}
		rows = append(rows, row)
	}
	return model.Dataset{Name: DatasetISWBankRecon, Columns: cols, Rows: rows}
}

func neftView(rd string, credits []NEFTCredit) model.Dataset {
	rows := make([][]any, 0, len(credits))
	for _, c := range credits {
		rows = append(rows, []any{rd, cellDate(c.Date), cellFloat(c.CreditSum)})
	}
	return model.Dataset{
		Name:    DatasetNEFTCredits,
		Columns: []string{"run_date", "credit_date", "credit_sum"},
		Rows:    rows,
	}
}

func statementView(name, rd string, lines []model.BankStatementLine) model.Dataset {
	rows := make([][]any, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, append([]any{rd}, statementRow(l)...))
	}
	return model.Dataset{
		Name:    name,
		Columns: append([]string{"run_date"}, statementColumns...),
		Rows:    rows,
	}
}

func reversalView(rd string, reversals []ClassifiedLine) model.Dataset {
	cols := append([]string{"run_date"}, statementColumns...)
	cols = append(cols, "raw_date", "extracted_date")

	rows := make([][]any, 0, len(reversals))
	for _, cl := range reversals {
		row := append([]any{rd}, statementRow(cl.Line)...)
		row = append(row, cl.RawDateToken, cellDate(cl.ExtractedDate))
		rows = append(rows, row)
	}
	return model.Dataset{Name: DatasetReversals, Columns: cols, Rows: rows}
}

func emptyCells(n int) []any {
	return make([]any, n)
}
