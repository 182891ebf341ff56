package recon

import (
	"github.com/libertypay/card-reconciliation/internal/model"
)

// Channel names one of the three acquiring relationships.
type Channel string

const (
	ChannelNIBSS       Channel = "NIBSS"
	ChannelInterswitch Channel = "INTERSWITCH"
	ChannelParallex    Channel = "PARALLEX"
)

// successRespCode is the host response code sentinel for an approved
// transaction.
const successRespCode = 0

// Params is the immutable engine configuration injected at construction.
// Merchant identifiers are normalized once here so every comparison runs on
// canonical strings, never on floating-point representations.
type Params struct {
	InterswitchMerchantID string
	NIBSSMerchantID       string
	ParallexMerchantID    string

	// Cost models. Interswitch acquires at flat per-transaction figures;
	// the two NIBSS relationships carry a rate on transaction amount.
	InterswitchFlatCost       float64
	InterswitchFlatCommission float64
	NIBSSCostRate             float64
}

// DefaultCostModel returns the production cost constants.
func DefaultCostModel() Params {
	return Params{
		InterswitchFlatCost:       17,
		InterswitchFlatCommission: 3,
		NIBSSCostRate:             0.0022,
	}
}

func (p Params) normalized() Params {
	p.InterswitchMerchantID = NormalizeMerchantID(p.InterswitchMerchantID)
	p.NIBSSMerchantID = NormalizeMerchantID(p.NIBSSMerchantID)
	p.ParallexMerchantID = NormalizeMerchantID(p.ParallexMerchantID)
	return p
}

func (p Params) merchantID(ch Channel) string {
	switch ch {
	case ChannelInterswitch:
		return p.InterswitchMerchantID
	case ChannelParallex:
		return p.ParallexMerchantID
	default:
		return p.NIBSSMerchantID
	}
}

// RevenueLine is one successful channel transaction with its computed
// margin columns. Gross stays unrounded per row; rounding happens at the
// aggregate only.
type RevenueLine struct {
	Tx         model.Transaction
	Fee        float64
	Cost       float64
	Commission float64
	Gross      float64
}

// ChannelAggregate is the single-row revenue roll-up for one channel. Zero
// matching transactions produce an all-zero aggregate, not an absence.
type ChannelAggregate struct {
	Channel       Channel `json:"channel"`
	AmountSum     float64 `json:"amount_sum"`
	Count         int     `json:"count"`
	FeeSum        float64 `json:"fee_sum"`
	CostSum       float64 `json:"cost_sum"`
	CommissionSum float64 `json:"commission_sum"`
	GrossSum      float64 `json:"gross_sum"`
}

// PayboxAggregate is the merchant-user-type reporting line, independent of
// channel attribution.
type PayboxAggregate struct {
	AmountSum        float64 `json:"amount_sum"`
	Count            int     `json:"count"`
	CommissionSum    float64 `json:"commission_sum"`
	FinalRevenueSum  float64 `json:"final_revenue_sum"`
	ROProfitSum      float64 `json:"ro_profit_sum"`
	LibertyProfitSum float64 `json:"liberty_profit_sum"`
}

// Revenue is the output of the channel revenue stage.
type Revenue struct {
	Lines      map[Channel][]RevenueLine
	Aggregates map[Channel]ChannelAggregate
	Paybox     PayboxAggregate
}

// ComputeRevenue partitions the run's successful transactions into the
// three channel subsets by exact merchant-identifier match and computes the
// per-channel margin columns. Transactions whose merchant identifier
// matches no channel are excluded from all channel aggregates.
func ComputeRevenue(txs []model.Transaction, p Params) Revenue {
	rev := Revenue{
		Lines:      make(map[Channel][]RevenueLine, 3),
		Aggregates: make(map[Channel]ChannelAggregate, 3),
	}

	var paybox struct {
		amount, commission, finalRev, roProfit, libertyProfit accumulator
		count                                                 int
	}

	for _, tx := range txs {
		if tx.HostRespCode != successRespCode {
			continue
		}

		if tx.UserType == "MERCHANT" {
			paybox.amount.add(tx.Amount)
			paybox.commission.add(tx.Commission)
			paybox.finalRev.add(tx.FinalRevenue)
			paybox.roProfit.add(tx.ROProfit)
			paybox.libertyProfit.add(tx.LibertyProfit)
			paybox.count++
		}

		var ch Channel
		switch tx.MerchantID {
		case p.InterswitchMerchantID:
			ch = ChannelInterswitch
		case p.NIBSSMerchantID:
			ch = ChannelNIBSS
		case p.ParallexMerchantID:
			ch = ChannelParallex
		default:
			continue
		}
		rev.Lines[ch] = append(rev.Lines[ch], computeLine(tx, ch, p))
	}

	for _, ch := range []Channel{ChannelNIBSS, ChannelInterswitch, ChannelParallex} {
		rev.Aggregates[ch] = aggregateChannel(ch, rev.Lines[ch])
	}

	rev.Paybox = PayboxAggregate{
		AmountSum:        round2(paybox.amount.value()),
		Count:            paybox.count,
		CommissionSum:    round2(paybox.commission.value()),
		FinalRevenueSum:  round2(paybox.finalRev.value()),
		ROProfitSum:      round2(paybox.roProfit.value()),
		LibertyProfitSum: round2(paybox.libertyProfit.value()),
	}
	return rev
}

func computeLine(tx model.Transaction, ch Channel, p Params) RevenueLine {
	line := RevenueLine{Tx: tx, Fee: tx.Commission}
	switch ch {
	case ChannelInterswitch:
		line.Cost = p.InterswitchFlatCost
		line.Commission = p.InterswitchFlatCommission
	default:
		line.Cost = tx.Amount * p.NIBSSCostRate
		line.Commission = tx.ROProfit
	}
	line.Gross = line.Fee - line.Cost - line.Commission
	return line
}

func aggregateChannel(ch Channel, lines []RevenueLine) ChannelAggregate {
	var amount, fee, cost, commission, gross accumulator
	for _, l := range lines {
		amount.add(l.Tx.Amount)
		fee.add(l.Fee)
		cost.add(l.Cost)
		commission.add(l.Commission)
		gross.add(l.Gross)
	}
	return ChannelAggregate{
		Channel:       ch,
		AmountSum:     round2(amount.value()),
		Count:         len(lines),
		FeeSum:        fee.rounded(),
		CostSum:       cost.rounded(),
		CommissionSum: commission.rounded(),
		GrossSum:      gross.rounded(),
	}
}
