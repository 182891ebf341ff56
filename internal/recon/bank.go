package recon

import (
	"sort"
	"strconv"
	"time"

	"github.com/libertypay/card-reconciliation/internal/model"
)

// SettledTx is one ISW transaction confirmed by the settlement report,
// carried into the bank reconciliation stage.
type SettledTx = Pair[RevenueLine, model.SettlementRecord]

// NEFTCredit is one per-date roll-up of NEFT credit lines.
type NEFTCredit struct {
	Date      time.Time
	CreditSum float64
}

// BankReconciliation holds the bank-statement stage outputs. When the ISW
// settlement report yields no reference date every table here is empty;
// that is a defined degenerate case, not an error.
type BankReconciliation struct {
	// ReferenceDate is the first valid local date observed in the
	// channel's filtered settlement report. It equals the run date
	// whenever that report is non-empty.
	ReferenceDate time.Time
	Degenerate    bool

	// Confirmed pairs cleared both settlement and bank.
	Confirmed []Pair[SettledTx, ClassifiedLine]
	// UnsettledClaims are settlement-matched transactions the bank never
	// showed.
	UnsettledClaims []model.Transaction
	// ChargeBacks are ISW collection lines with no matching transaction,
	// restricted to the reference date by their extracted narration date.
	ChargeBacks []ClassifiedLine

	NEFTCredits  []NEFTCredit
	BeingSummary []model.BankStatementLine
	Reversals    []ClassifiedLine
	TerminalFees []model.BankStatementLine
	DailySweeps  []model.BankStatementLine
}

// ReconcileBank matches the ISW channel's settlement-matched set against
// the classified Unity statement on reference number, and materializes the
// narration-category views filtered to the reference date.
func ReconcileBank(matched []SettledTx, classified []ClassifiedLine, iswReport []model.SettlementRecord, runDate time.Time) BankReconciliation {
	refDate := referenceDate(iswReport, runDate)
	if refDate.IsZero() {
		return BankReconciliation{Degenerate: true}
	}

	var collection []ClassifiedLine
	for _, cl := range classified {
		if cl.Category == CategoryISWCollection {
			collection = append(collection, cl)
		}
	}

	join := OuterJoin(matched,
		func(p SettledTx) string { return p.Left.Tx.ReferenceNumber },
		collection,
		func(cl ClassifiedLine) string { return strconv.FormatInt(cl.ISW.RRN, 10) },
	)

	out := BankReconciliation{ReferenceDate: refDate, Confirmed: join.Matched}
	for _, p := range join.ClaimOnly {
		out.UnsettledClaims = append(out.UnsettledClaims, p.Left.Tx)
	}
	for _, cl := range join.ReportOnly {
		if sameDate(cl.ExtractedDate, refDate) {
			out.ChargeBacks = append(out.ChargeBacks, cl)
		}
	}

	out.NEFTCredits = neftCredits(classified, refDate)
	for _, cl := range classified {
		switch cl.Category {
		case CategoryBeing:
			if sameDate(cl.Line.ValueDate, refDate) {
				out.BeingSummary = append(out.BeingSummary, cl.Line)
			}
		case CategoryReversal:
			if sameDate(cl.Line.ValueDate, refDate) {
				out.Reversals = append(out.Reversals, cl)
			}
		case CategoryTerminalFee, CategoryDailySweep:
			if !sameDate(cl.Line.ValueDate, refDate) {
				continue
			}
			out.TerminalFees = append(out.TerminalFees, cl.Line)
			if cl.Category == CategoryDailySweep {
				out.DailySweeps = append(out.DailySweeps, cl.Line)
			}
		}
	}

	return out
}

// referenceDate picks the single date the bank-statement views filter on:
// the first valid local date in the run's filtered ISW settlement rows.
func referenceDate(report []model.SettlementRecord, runDate time.Time) time.Time {
	for _, rec := range report {
		if !sameDate(rec.LocalDateTime, runDate) {
			continue
		}
		if !rec.LocalDateTime.IsZero() {
			return rec.LocalDateTime
		}
	}
	return time.Time{}
}

// neftCredits groups NEFT lines by extracted narration date, sums credits
// per date, and keeps the reference date's row.
func neftCredits(classified []ClassifiedLine, refDate time.Time) []NEFTCredit {
	sums := make(map[string]*accumulator)
	dates := make(map[string]time.Time)
	for _, cl := range classified {
		if cl.Category != CategoryNEFT || cl.ExtractedDate.IsZero() {
			continue
		}
		k := cl.ExtractedDate.Format("2006-01-02")
		if _, ok := sums[k]; !ok {
			sums[k] = &accumulator{}
			dates[k] = cl.ExtractedDate
		}
		sums[k].add(cl.Line.Credit)
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []NEFTCredit
	for _, k := range keys {
		if !sameDate(dates[k], refDate) {
			continue
		}
		out = append(out, NEFTCredit{Date: dates[k], CreditSum: sums[k].value()})
	}
	return out
}

// BankClaimAmountSum totals bank-unconfirmed claim amounts.
func BankClaimAmountSum(claims []model.Transaction) float64 {
	return ClaimAmountSum(claims)
}

// BankChargeBackCreditSum totals the credit column of bank-only lines.
func BankChargeBackCreditSum(backs []ClassifiedLine) float64 {
	var acc accumulator
	for _, cl := range backs {
		acc.add(cl.Line.Credit)
	}
	return acc.value()
}
