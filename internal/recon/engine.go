package recon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/libertypay/card-reconciliation/internal/model"
)

// Engine runs a single day's reconciliation over six in-memory tables. It
// holds only immutable configuration, so one Engine serves concurrent runs
// as long as each run gets its own input snapshot.
type Engine struct {
	params Params
	log    zerolog.Logger
}

// Result is the output of one run: the metrics snapshot, the ordered
// result tables, and the diagnostic report.
type Result struct {
	RunDate  time.Time
	Metrics  model.MetricsSnapshot
	Datasets []model.Dataset
	Debug    *DebugReport
}

// Dataset returns a result table by name, or nil.
func (r *Result) Dataset(name string) *model.Dataset {
	for i := range r.Datasets {
		if r.Datasets[i].Name == name {
			return &r.Datasets[i]
		}
	}
	return nil
}

// New constructs an engine. Merchant identifiers in params are normalized
// once here.
func New(params Params, log zerolog.Logger) *Engine {
	return &Engine{params: params.normalized(), log: log}
}

// Run executes the full pipeline: normalize, channel revenue, per-channel
// settlement matching, narration classification, bank reconciliation,
// metrics. The three channel matchers are independent and run in parallel;
// everything else is a single data-dependency chain. Malformed values have
// already degraded to nulls by the time matching starts, so the only run
// errors are structural: an ISW collection narration that cannot yield its
// reference number.
func (e *Engine) Run(ctx context.Context, tables model.Tables, runDate time.Time) (*Result, error) {
	start := time.Now()

	in := Normalize(tables, runDate)
	rev := ComputeRevenue(in.Transactions, e.params)

	reports := map[Channel][]model.SettlementRecord{
		ChannelNIBSS:       in.NIBSSUnity,
		ChannelInterswitch: in.ISWUnity,
		ChannelParallex:    in.NIBSSParallex,
	}

	setts := make(map[Channel]ChannelSettlement, 3)
	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	for _, ch := range []Channel{ChannelNIBSS, ChannelInterswitch, ChannelParallex} {
		ch := ch
		g.Go(func() error {
			s := MatchSettlement(ch, rev.Lines[ch], reports[ch], e.params.merchantID(ch), runDate)
			mu.Lock()
			setts[ch] = s
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("settlement matcher: %w", err)
	}

	classified, err := ClassifyStatement(in.UnityLines)
	if err != nil {
		return nil, fmt.Errorf("unity statement (%d rows): %w", len(in.UnityLines), err)
	}

	bank := ReconcileBank(setts[ChannelInterswitch].Matched, classified, in.ISWUnity, runDate)
	if bank.Degenerate {
		e.log.Warn().
			Str("run_date", runDate.Format("2006-01-02")).
			Msg("isw settlement report has no usable dates; bank reconciliation outputs are empty")
	}

	res := &Result{
		RunDate:  runDate,
		Metrics:  buildMetrics(runDate, rev, setts, bank),
		Datasets: buildDatasets(runDate, rev, setts, bank),
		Debug:    buildDebug(tables, runDate, e.params, in, rev),
	}

	e.log.Info().
		Str("run_date", res.Metrics.RunDate).
		Int("transactions", len(in.Transactions)).
		Float64("total_revenue", res.Metrics.TotalRevenue).
		Float64("total_settlement", res.Metrics.TotalSettlement).
		Dur("elapsed", time.Since(start)).
		Msg("reconciliation run complete")

	return res, nil
}
