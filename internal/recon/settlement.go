package recon

import (
	"fmt"
	"strconv"
	"time"

	"github.com/libertypay/card-reconciliation/internal/model"
)

// SettlementAggregate is the single-row roll-up of a channel's filtered
// settlement report.
type SettlementAggregate struct {
	RequestedSum  float64 `json:"requested_sum"`
	Count         int     `json:"count"`
	ReceivableSum float64 `json:"receivable_sum"`
	DiscountSum   float64 `json:"discount_sum"`
}

// ChannelSettlement is the result of reconciling one channel's transaction
// subset against its settlement report.
type ChannelSettlement struct {
	Channel   Channel
	Aggregate SettlementAggregate
	// Matched transactions confirmed by the settlement report; the ISW
	// channel's matched set feeds the bank reconciliation stage.
	Matched []Pair[RevenueLine, model.SettlementRecord]
	// UnsettledClaims are transaction-log rows with no settlement
	// confirmation.
	UnsettledClaims []model.Transaction
	// ChargeBacks are settlement rows the platform's log never produced.
	ChargeBacks []model.SettlementRecord
}

// MatchSettlement filters a channel's settlement report to the run date and
// the channel's merchant identifier, drops exact duplicate rows, then
// partitions the full outer join against the channel's transaction subset
// on the reference-number key.
func MatchSettlement(ch Channel, lines []RevenueLine, report []model.SettlementRecord, merchantID string, runDate time.Time) ChannelSettlement {
	filtered := make([]model.SettlementRecord, 0, len(report))
	seen := make(map[string]struct{}, len(report))
	for _, rec := range report {
		if !sameDate(rec.LocalDateTime, runDate) || rec.MerchantID != merchantID {
			continue
		}
		if _, dup := seen[settlementRowKey(rec)]; dup {
			continue
		}
		seen[settlementRowKey(rec)] = struct{}{}
		filtered = append(filtered, rec)
	}

	var requested, receivable, discount accumulator
	for _, rec := range filtered {
		requested.add(rec.RequestedAmount)
		receivable.add(rec.MerchantReceivable)
		discount.add(rec.MerchantDiscount)
	}

	join := OuterJoin(lines,
		func(l RevenueLine) string { return l.Tx.ReferenceNumber },
		filtered,
		func(r model.SettlementRecord) string { return r.RetrievalReference },
	)

	claims := make([]model.Transaction, 0, len(join.ClaimOnly))
	for _, l := range join.ClaimOnly {
		claims = append(claims, l.Tx)
	}

	return ChannelSettlement{
		Channel: ch,
		Aggregate: SettlementAggregate{
			RequestedSum:  requested.rounded(),
			Count:         len(filtered),
			ReceivableSum: receivable.rounded(),
			DiscountSum:   discount.rounded(),
		},
		Matched:         join.Matched,
		UnsettledClaims: claims,
		ChargeBacks:     join.ReportOnly,
	}
}

// settlementRowKey identifies an exact duplicate settlement row. Only
// byte-identical rows collapse; near-duplicates survive as distinct lines.
func settlementRowKey(r model.SettlementRecord) string {
	return fmt.Sprintf("%s|%d|%s|%s|%s|%s|%s|%s|%s",
		r.MerchantID, r.LocalDateTime.Unix(), r.TerminalID, r.STAN, r.PAN,
		r.RetrievalReference,
		strconv.FormatFloat(r.RequestedAmount, 'g', -1, 64),
		strconv.FormatFloat(r.MerchantReceivable, 'g', -1, 64),
		strconv.FormatFloat(r.MerchantDiscount, 'g', -1, 64),
	)
}

// ClaimAmountSum totals the transaction amounts of a claim partition for
// metric roll-ups; empty partitions contribute zero.
func ClaimAmountSum(claims []model.Transaction) float64 {
	var acc accumulator
	for _, tx := range claims {
		acc.add(tx.Amount)
	}
	return acc.value()
}

// ChargeBackAmountSum totals the requested amounts of a chargeback
// partition.
func ChargeBackAmountSum(backs []model.SettlementRecord) float64 {
	var acc accumulator
	for _, rec := range backs {
		acc.add(rec.RequestedAmount)
	}
	return acc.value()
}
