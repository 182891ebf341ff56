package recon

import (
	"sort"
)

// Pair is one matched row of a keyed join.
type Pair[L, R any] struct {
	Left  L
	Right R
}

// JoinResult partitions a full outer join into the three reconciliation
// classes. The partitions are disjoint and together cover the union of both
// key sets.
type JoinResult[L, R any] struct {
	// Matched holds the cross product of left and right rows per shared
	// key: one-to-many settlement splits keep every combination.
	Matched []Pair[L, R]
	// ClaimOnly rows exist only in the transaction-side input: money the
	// platform believes is owed but has not seen confirmed.
	ClaimOnly []L
	// ReportOnly rows exist only in the report-side input: chargeback or
	// adjustment candidates the platform's log never produced.
	ReportOnly []R
}

// OuterJoin reconciles two row sets on normalized string keys, computed as
// explicit set algebra: intersection, left difference, right difference.
// Rows whose key normalizes to the empty string never match anything and
// land in their side's *-only partition. Keys iterate in sorted order so
// repeated runs produce identical output.
func OuterJoin[L, R any](left []L, leftKey func(L) string, right []R, rightKey func(R) string) JoinResult[L, R] {
	leftIdx := make(map[string][]L)
	var leftKeys []string
	var leftKeyless []L
	for _, l := range left {
		k := normalizeKey(leftKey(l))
		if k == "" {
			leftKeyless = append(leftKeyless, l)
			continue
		}
		if _, ok := leftIdx[k]; !ok {
			leftKeys = append(leftKeys, k)
		}
		leftIdx[k] = append(leftIdx[k], l)
	}

	rightIdx := make(map[string][]R)
	var rightKeys []string
	var rightKeyless []R
	for _, r := range right {
		k := normalizeKey(rightKey(r))
		if k == "" {
			rightKeyless = append(rightKeyless, r)
			continue
		}
		if _, ok := rightIdx[k]; !ok {
			rightKeys = append(rightKeys, k)
		}
		rightIdx[k] = append(rightIdx[k], r)
	}

	sort.Strings(leftKeys)
	sort.Strings(rightKeys)

	var out JoinResult[L, R]
	for _, k := range leftKeys {
		rights, ok := rightIdx[k]
		if !ok {
			out.ClaimOnly = append(out.ClaimOnly, leftIdx[k]...)
			continue
		}
		for _, l := range leftIdx[k] {
			for _, r := range rights {
				out.Matched = append(out.Matched, Pair[L, R]{Left: l, Right: r})
			}
		}
	}
	for _, k := range rightKeys {
		if _, ok := leftIdx[k]; !ok {
			out.ReportOnly = append(out.ReportOnly, rightIdx[k]...)
		}
	}

	out.ClaimOnly = append(out.ClaimOnly, leftKeyless...)
	out.ReportOnly = append(out.ReportOnly, rightKeyless...)
	return out
}
