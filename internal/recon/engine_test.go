package recon

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libertypay/card-reconciliation/internal/model"
)

func testEngine() *Engine {
	return New(testParams(), zerolog.Nop())
}

// fixtureTables builds a small but complete run: three successful
// transactions across two channels, settlement confirmation for two of
// them, one settlement-only row, and a Unity statement exercising every
// narration category.
func fixtureTables() model.Tables {
	txRows := []map[string]string{
		{
			"id": "1", "date_created": "2024-01-15 10:00:00",
			"merchant_id": "2215LA525653900", "host_resp_code": "0",
			"amount": "10000", "liberty_commission": "50", "ro_profit": "10",
			"reference_number": "111111111111", "type_of_user": "MERCHANT",
			"final_liberty_rev": "40", "liberty_profit": "30",
		},
		{
			"id": "2", "date_created": "2024-01-15 11:00:00",
			"merchant_id": "2LBP87654321988", "host_resp_code": "0",
			"amount": "20000", "liberty_commission": "40", "ro_profit": "99",
			"reference_number": "222222222222", "type_of_user": "AGENT",
		},
		{
			"id": "3", "date_created": "2024-01-15 12:00:00",
			"merchant_id": "2LBP87654321988", "host_resp_code": "0",
			"amount": "5000", "liberty_commission": "30", "ro_profit": "99",
			"reference_number": "333333333333", "type_of_user": "AGENT",
		},
		{
			"id": "4", "date_created": "2024-01-15 13:00:00",
			"merchant_id": "2215LA525653900", "host_resp_code": "91",
			"amount": "900", "liberty_commission": "9", "ro_profit": "1",
			"reference_number": "444444444444", "type_of_user": "AGENT",
		},
		{
			"id": "5", "date_created": "2024-01-14 10:00:00",
			"merchant_id": "2215LA525653900", "host_resp_code": "0",
			"amount": "800", "liberty_commission": "8", "ro_profit": "1",
			"reference_number": "555555555555", "type_of_user": "AGENT",
		},
	}

	nibssRows := []map[string]string{
		{
			"Merchant_ID": "2215LA525653900", "Local_Date_Time": "2024-01-15 10:00:00",
			"Retrieval_Reference_Nr": "111111111111", "Tran_Amount_Req": "10000",
			"Merchant_Receivable": "9950", "Merchant_Discount": "50",
		},
		{
			// Exact duplicate of the row above; must collapse.
			"Merchant_ID": "2215LA525653900", "Local_Date_Time": "2024-01-15 10:00:00",
			"Retrieval_Reference_Nr": "111111111111", "Tran_Amount_Req": "10000",
			"Merchant_Receivable": "9950", "Merchant_Discount": "50",
		},
		{
			"Merchant_ID": "2215LA525653900", "Local_Date_Time": "2024-01-15 10:30:00",
			"Retrieval_Reference_Nr": "999999999999", "Tran_Amount_Req": "7000",
			"Merchant_Receivable": "6950", "Merchant_Discount": "50",
		},
	}

	iswRows := []map[string]string{
		{
			"Merchant_ID": "2LBP87654321988.0", "Local_Date_Time": "2024-01-15 09:30:00",
			"Retrieval_Reference_Nr": "222222222222", "Tran_Amount_Req": "20000",
		},
	}

	unityRows := []map[string]string{
		{
			"Transaction Narration": "2LBPTERM001 - 000001 - 506099XXXXXX1234 - 222222222222 - 15 01 2024- PURCHASE",
			"Value Date":            "2024-01-15", "Credit": "20000",
		},
		{
			"Transaction Narration": "2LBPTERM002 - 000002 - 506099XXXXXX9999 - 888888888888 15 01 2024- PURCHASE",
			"Value Date":            "2024-01-15", "Credit": "7500",
		},
		{
			"Transaction Narration": "GTB#REF#15012024#X#NEFT",
			"Value Date":            "2024-01-15", "Credit": "12000",
		},
		{
			"Transaction Narration": "ZEN#REF#15012024#X#NEFT",
			"Value Date":            "2024-01-15", "Credit": "3000",
		},
		{
			"Transaction Narration": "BEING TRANSFER FOR POS FLOAT",
			"Value Date":            "2024-01-15", "Debit": "500",
		},
		{
			"Transaction Narration": "RVSL-POS TRF-RV 15012024-CHG",
			"Value Date":            "2024-01-15", "Debit": "2000",
		},
		{
			"Transaction Narration": "POS FEE TRANSACTION",
			"Value Date":            "2024-01-15", "Debit": "100",
		},
		{
			"Transaction Narration": "DAILY SWEEP TRANSACTION",
			"Value Date":            "2024-01-15", "Debit": "900",
		},
	}

	return model.Tables{
		CardTransactions:     model.RawTable{Name: "CardTransaction", Rows: txRows},
		NIBSSUnitySettlement: model.RawTable{Name: "NIBSS SETT FROM NIBSS", Rows: nibssRows},
		ISWUnitySettlement:   model.RawTable{Name: "ISW SETT REPORT", Rows: iswRows},
		UnityStatement:       model.RawTable{Name: "BANK STMT UNITY", Rows: unityRows},
	}
}

func TestEngine_Run(t *testing.T) {
	runDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	res, err := testEngine().Run(context.Background(), fixtureTables(), runDate)
	require.NoError(t, err)

	m := res.Metrics
	assert.Equal(t, "2024-01-15", m.RunDate)

	t.Run("channel metrics", func(t *testing.T) {
		// NIBSS: fee 50, cost 22, commission 10.
		assert.Equal(t, 18.0, m.Channels.NIBSS.Revenue)
		assert.Equal(t, 17000.0, m.Channels.NIBSS.Settlement)
		assert.Equal(t, 7000.0, m.Channels.NIBSS.ChargeBack)
		assert.Zero(t, m.Channels.NIBSS.UnsettledClaim)

		// ISW: (40-17-3) + (30-17-3).
		assert.Equal(t, 30.0, m.Channels.Interswitch.Revenue)
		assert.Equal(t, 20000.0, m.Channels.Interswitch.Settlement)
		assert.Zero(t, m.Channels.Interswitch.ChargeBack)
		assert.Equal(t, 5000.0, m.Channels.Interswitch.UnsettledClaim)

		assert.Zero(t, m.Channels.Parallex.Revenue)
		assert.Zero(t, m.Channels.Parallex.Settlement)
	})

	t.Run("grand totals are channel sums", func(t *testing.T) {
		assert.Equal(t, 48.0, m.TotalRevenue)
		assert.Equal(t, 37000.0, m.TotalSettlement)
		assert.Equal(t, 7000.0, m.TotalSettlementChargeBack)
		assert.Equal(t, 5000.0, m.TotalSettlementUnsettledClaims)
	})

	t.Run("bank metrics", func(t *testing.T) {
		assert.Equal(t, 7500.0, m.Channels.ISWBank.ChargeBack)
		assert.Zero(t, m.Channels.ISWBank.UnsettledClaim)
		assert.Equal(t, 7500.0, m.TotalBankChargeBack)
		assert.Zero(t, m.TotalBankUnsettledClaims)
	})

	t.Run("thirteen datasets, all named", func(t *testing.T) {
		require.Len(t, res.Datasets, 13)
		for _, name := range []string{
			DatasetPaybox, DatasetNIBSSChannel, DatasetISWChannel,
			DatasetParallexChannel, DatasetNIBSSReconciliation,
			DatasetISWReconciliation, DatasetParallexRecon,
			DatasetISWBankRecon, DatasetNEFTCredits, DatasetBeingSummary,
			DatasetReversals, DatasetTerminalFees, DatasetDailySweeps,
		} {
			assert.NotNil(t, res.Dataset(name), "missing dataset %s", name)
		}
	})

	t.Run("dataset rows", func(t *testing.T) {
		paybox := res.Dataset(DatasetPaybox)
		require.Len(t, paybox.Rows, 1)
		assert.Equal(t, 10000.0, paybox.Rows[0][1], "merchant amount sum")

		nibssRecon := res.Dataset(DatasetNIBSSReconciliation)
		require.Len(t, nibssRecon.Rows, 1, "one chargeback, zero claims")
		assert.Equal(t, "2024-01-15", nibssRecon.Rows[0][0])

		neft := res.Dataset(DatasetNEFTCredits)
		require.Len(t, neft.Rows, 1)
		assert.Equal(t, 15000.0, neft.Rows[0][2])

		fees := res.Dataset(DatasetTerminalFees)
		assert.Len(t, fees.Rows, 2, "daily sweep included")
		assert.Len(t, res.Dataset(DatasetDailySweeps).Rows, 1)
	})

	t.Run("debug report", func(t *testing.T) {
		require.NotNil(t, res.Debug)
	})
}

func TestEngine_Run_EmptySettlementReports(t *testing.T) {
	runDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tables := fixtureTables()
	tables.ISWUnitySettlement = model.RawTable{}

	res, err := testEngine().Run(context.Background(), tables, runDate)
	require.NoError(t, err)

	assert.Zero(t, res.Metrics.Channels.Interswitch.Settlement)
	assert.Equal(t, 25000.0, res.Metrics.Channels.Interswitch.UnsettledClaim,
		"both isw transactions unconfirmed")

	// No reference date means every bank-stage table is empty, even
	// though the statement still classified cleanly.
	assert.Zero(t, res.Metrics.TotalBankChargeBack)
	assert.Zero(t, res.Metrics.TotalBankUnsettledClaims)
	assert.Empty(t, res.Dataset(DatasetISWBankRecon).Rows)
	assert.Empty(t, res.Dataset(DatasetNEFTCredits).Rows)
	assert.Empty(t, res.Dataset(DatasetBeingSummary).Rows)
	assert.Empty(t, res.Dataset(DatasetReversals).Rows)
	assert.Empty(t, res.Dataset(DatasetTerminalFees).Rows)
	assert.Empty(t, res.Dataset(DatasetDailySweeps).Rows)
}

func TestEngine_Run_EmptyInputs(t *testing.T) {
	runDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	res, err := testEngine().Run(context.Background(), model.Tables{}, runDate)
	require.NoError(t, err)

	assert.Zero(t, res.Metrics.TotalRevenue)
	assert.Zero(t, res.Metrics.TotalSettlement)
	assert.Len(t, res.Datasets, 13)
}

func TestEngine_Run_Deterministic(t *testing.T) {
	runDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	eng := testEngine()

	first, err := eng.Run(context.Background(), fixtureTables(), runDate)
	require.NoError(t, err)
	firstJSON, err := json.Marshal(struct {
		Metrics  model.MetricsSnapshot
		Datasets []model.Dataset
	}{first.Metrics, first.Datasets})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := eng.Run(context.Background(), fixtureTables(), runDate)
		require.NoError(t, err)
		againJSON, err := json.Marshal(struct {
			Metrics  model.MetricsSnapshot
			Datasets []model.Dataset
		}{again.Metrics, again.Datasets})
		require.NoError(t, err)
		assert.Equal(t, string(firstJSON), string(againJSON))
	}
}

func TestEngine_Run_MalformedISWNarrationFails(t *testing.T) {
	runDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tables := fixtureTables()
	tables.UnityStatement.Rows = append(tables.UnityStatement.Rows, map[string]string{
		"Transaction Narration": "2LBP BROKEN - LINE",
		"Value Date":            "2024-01-15",
	})

	_, err := testEngine().Run(context.Background(), fixtureTables(), runDate)
	require.NoError(t, err, "fixture itself is clean")

	_, err = testEngine().Run(context.Background(), tables, runDate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unity statement")
}
