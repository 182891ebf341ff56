package recon

import (
	"time"

	"github.com/libertypay/card-reconciliation/internal/model"
)

// buildMetrics rolls the stage outputs into the run's snapshot. Empty
// intermediate tables contribute zero to every figure; the grand revenue
// total is exactly the sum of the three channel gross aggregates.
func buildMetrics(runDate time.Time, rev Revenue, setts map[Channel]ChannelSettlement, bank BankReconciliation) model.MetricsSnapshot {
	channel := func(ch Channel) model.ChannelMetrics {
		s := setts[ch]
		return model.ChannelMetrics{
			Revenue:        rev.Aggregates[ch].GrossSum,
			Settlement:     s.Aggregate.RequestedSum,
			ChargeBack:     ChargeBackAmountSum(s.ChargeBacks),
			UnsettledClaim: ClaimAmountSum(s.UnsettledClaims),
		}
	}

	nibss := channel(ChannelNIBSS)
	isw := channel(ChannelInterswitch)
	parallex := channel(ChannelParallex)

	bankMetrics := model.BankChannelMetrics{
		ChargeBack:     BankChargeBackCreditSum(bank.ChargeBacks),
		UnsettledClaim: BankClaimAmountSum(bank.UnsettledClaims),
	}

	var revenue, settlement, chargeBack, unsettled accumulator
	for _, m := range []model.ChannelMetrics{nibss, isw, parallex} {
		revenue.add(m.Revenue)
		settlement.add(m.Settlement)
		chargeBack.add(m.ChargeBack)
		unsettled.add(m.UnsettledClaim)
	}

	return model.MetricsSnapshot{
		RunDate:                        runDate.Format("2006-01-02"),
		TotalRevenue:                   revenue.value(),
		TotalSettlement:                settlement.value(),
		TotalSettlementChargeBack:      chargeBack.value(),
		TotalSettlementUnsettledClaims: unsettled.value(),
		TotalBankUnsettledClaims:       bankMetrics.UnsettledClaim,
		TotalBankChargeBack:            bankMetrics.ChargeBack,
		Channels: model.ChannelBreakdown{
			NIBSS:       nibss,
			Interswitch: isw,
			Parallex:    parallex,
			ISWBank:     bankMetrics,
		},
	}
}
