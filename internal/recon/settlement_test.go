package recon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libertypay/card-reconciliation/internal/model"
)

func settRec(merchantID, ref string, when time.Time, amount float64) model.SettlementRecord {
	return model.SettlementRecord{
		MerchantID:         NormalizeMerchantID(merchantID),
		LocalDateTime:      when,
		RetrievalReference: ref,
		RequestedAmount:    amount,
		MerchantReceivable: amount - 50,
		MerchantDiscount:   50,
	}
}

func TestMatchSettlement(t *testing.T) {
	runDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	onDate := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	offDate := time.Date(2024, 1, 14, 9, 30, 0, 0, time.UTC)
	merchant := "2215LA525653900"

	lines := []RevenueLine{
		{Tx: tx("1", merchant, 0, 10000, 50, 10)},
		{Tx: tx("2", merchant, 0, 5000, 30, 5)},
	}
	lines[0].Tx.ReferenceNumber = "111111111111"
	lines[1].Tx.ReferenceNumber = "333333333333"

	report := []model.SettlementRecord{
		settRec(merchant, "111111111111", onDate, 10000), // matches tx 1
		settRec(merchant, "111111111111", onDate, 10000), // exact duplicate, dropped
		settRec(merchant, "999999999999", onDate, 7000),  // chargeback candidate
		settRec(merchant, "333333333333", offDate, 5000), // wrong date
		settRec("OTHER_MERCHANT", "333333333333", onDate, 5000),
	}

	sett := MatchSettlement(ChannelNIBSS, lines, report, merchant, runDate)

	assert.Equal(t, 2, sett.Aggregate.Count, "duplicate and off-filter rows excluded")
	assert.Equal(t, 17000.0, sett.Aggregate.RequestedSum)

	require.Len(t, sett.Matched, 1)
	assert.Equal(t, "1", sett.Matched[0].Left.Tx.ID)

	require.Len(t, sett.UnsettledClaims, 1)
	assert.Equal(t, "2", sett.UnsettledClaims[0].ID)

	require.Len(t, sett.ChargeBacks, 1)
	assert.Equal(t, "999999999999", sett.ChargeBacks[0].RetrievalReference)

	assert.Equal(t, 5000.0, ClaimAmountSum(sett.UnsettledClaims))
	assert.Equal(t, 7000.0, ChargeBackAmountSum(sett.ChargeBacks))
}

func TestMatchSettlement_NearDuplicatesSurvive(t *testing.T) {
	runDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	onDate := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	merchant := "2215LA525653900"

	report := []model.SettlementRecord{
		settRec(merchant, "111111111111", onDate, 10000),
		settRec(merchant, "111111111111", onDate, 10000.01),
	}

	sett := MatchSettlement(ChannelNIBSS, nil, report, merchant, runDate)
	assert.Equal(t, 2, sett.Aggregate.Count, "amounts differ, both rows kept")
}

func TestMatchSettlement_EmptyReport(t *testing.T) {
	runDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	merchant := "2215LA525653900"

	lines := []RevenueLine{{Tx: tx("1", merchant, 0, 10000, 50, 10)}}
	lines[0].Tx.ReferenceNumber = "111111111111"

	sett := MatchSettlement(ChannelNIBSS, lines, nil, merchant, runDate)

	assert.Zero(t, sett.Aggregate.Count)
	assert.Zero(t, sett.Aggregate.RequestedSum)
	assert.Empty(t, sett.Matched)
	assert.Len(t, sett.UnsettledClaims, 1, "every claim is unsettled")
	assert.Empty(t, sett.ChargeBacks)
}
