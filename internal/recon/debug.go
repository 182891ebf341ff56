package recon

import (
	"strconv"
	"strings"
	"time"

	"github.com/libertypay/card-reconciliation/internal/model"
)

// DateSummary describes the observed date range of one raw table column.
type DateSummary struct {
	Column string  `json:"column"`
	Rows   int     `json:"rows"`
	Min    *string `json:"min"`
	Max    *string `json:"max"`
}

// NarrationQuality is the type histogram of a narration column: cells that
// hold something other than free text (numeric or blank values) point at an
// upstream export problem long before pattern matching misbehaves.
type NarrationQuality struct {
	Column         string         `json:"column"`
	Rows           int            `json:"rows"`
	NonStringCount int            `json:"non_string_count"`
	TypeCounts     map[string]int `json:"type_counts"`
}

// DebugReport is the diagnostic view of one run: raw row counts, observed
// date ranges, run-date hit counts per source, filter funnel sizes, and
// narration column quality. Built during the run so it is served on demand
// without reconciling again.
type DebugReport struct {
	RunDate       string                      `json:"run_date"`
	Rows          map[string]int              `json:"rows"`
	Dates         map[string]DateSummary      `json:"dates"`
	RunDateCounts map[string]int              `json:"run_date_counts"`
	CardFilters   map[string]int              `json:"card_filters"`
	MerchantIDs   map[string]string           `json:"merchant_ids"`
	DataQuality   map[string]NarrationQuality `json:"data_quality"`
}

func buildDebug(tables model.Tables, runDate time.Time, p Params, in *Inputs, rev Revenue) *DebugReport {
	return &DebugReport{
		RunDate: runDate.Format("2006-01-02"),
		Rows: map[string]int{
			"card_transactions":         len(tables.CardTransactions.Rows),
			"nibss_unity_settlement":    len(tables.NIBSSUnitySettlement.Rows),
			"isw_unity_settlement":      len(tables.ISWUnitySettlement.Rows),
			"nibss_parallex_settlement": len(tables.NIBSSParallexSettlement.Rows),
			"unity_statement":           len(tables.UnityStatement.Rows),
			"parallex_statement":        len(tables.ParallexStatement.Rows),
		},
		Dates: map[string]DateSummary{
			"card_transactions":         summarizeDates(tables.CardTransactions, "date_created"),
			"nibss_unity_settlement":    summarizeDates(tables.NIBSSUnitySettlement, "Local_Date_Time"),
			"isw_unity_settlement":      summarizeDates(tables.ISWUnitySettlement, "Local_Date_Time"),
			"nibss_parallex_settlement": summarizeDates(tables.NIBSSParallexSettlement, "Local_Date_Time"),
		},
		RunDateCounts: map[string]int{
			"card_transactions":         countForDate(tables.CardTransactions, "date_created", runDate),
			"nibss_unity_settlement":    countForDate(tables.NIBSSUnitySettlement, "Local_Date_Time", runDate),
			"isw_unity_settlement":      countForDate(tables.ISWUnitySettlement, "Local_Date_Time", runDate),
			"nibss_parallex_settlement": countForDate(tables.NIBSSParallexSettlement, "Local_Date_Time", runDate),
		},
		CardFilters: map[string]int{
			"card_rows_total":    in.UnfilteredCount,
			"card_rows_run_date": len(in.Transactions),
			"interswitch_unity":  len(rev.Lines[ChannelInterswitch]),
			"nibss_unity":        len(rev.Lines[ChannelNIBSS]),
			"nibss_parallex":     len(rev.Lines[ChannelParallex]),
		},
		MerchantIDs: map[string]string{
			"interswitch_unity": p.InterswitchMerchantID,
			"nibss_unity":       p.NIBSSMerchantID,
			"nibss_parallex":    p.ParallexMerchantID,
		},
		DataQuality: map[string]NarrationQuality{
			"unity_statement":    narrationQuality(tables.UnityStatement, "Transaction Narration"),
			"parallex_statement": narrationQuality(tables.ParallexStatement, "Transaction Narration"),
		},
	}
}

func summarizeDates(t model.RawTable, column string) DateSummary {
	s := DateSummary{Column: column, Rows: len(t.Rows)}
	var min, max time.Time
	for _, row := range t.Rows {
		d := parseCellDate(row[column])
		if d.IsZero() {
			continue
		}
		if min.IsZero() || d.Before(min) {
			min = d
		}
		if max.IsZero() || d.After(max) {
			max = d
		}
	}
	if !min.IsZero() {
		lo, hi := min.Format("2006-01-02"), max.Format("2006-01-02")
		s.Min, s.Max = &lo, &hi
	}
	return s
}

func countForDate(t model.RawTable, column string, runDate time.Time) int {
	n := 0
	for _, row := range t.Rows {
		if sameDate(parseCellDate(row[column]), runDate) {
			n++
		}
	}
	return n
}

// narrationQuality counts cells whose raw value is numeric rather than
// free text. Blank cells are excluded from the non-string count, matching
// how missing values are ignored elsewhere.
func narrationQuality(t model.RawTable, column string) NarrationQuality {
	q := NarrationQuality{Column: column, Rows: len(t.Rows), TypeCounts: map[string]int{}}
	for _, row := range t.Rows {
		v := strings.TrimSpace(row[column])
		if v == "" {
			continue
		}
		if _, err := strconv.ParseInt(v, 10, 64); err == nil {
			q.TypeCounts["int"]++
			q.NonStringCount++
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			q.TypeCounts["float"]++
			q.NonStringCount++
		}
	}
	return q
}
