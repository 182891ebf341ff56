package recon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/libertypay/card-reconciliation/internal/model"
)

// Category tags one bank-statement line with exactly one narration class.
type Category string

const (
	CategoryISWCollection Category = "ISW_COLLECTION"
	CategoryNEFT          Category = "NEFT"
	CategoryBeing         Category = "BEING"
	CategoryReversal      Category = "REVERSAL"
	CategoryTerminalFee   Category = "TERMINAL_FEE"
	CategoryDailySweep    Category = "DAILY_SWEEP"
	CategoryUnclassified  Category = "UNCLASSIFIED"
)

// iswTag is the collection-account channel tag opening every structured
// ISW narration.
const iswTag = "2LBP"

// iswDelimiterFix repairs narrations where the separator before the date
// block was collapsed: a 9-12 digit run followed directly by the
// "dd mm yyyy-" date group gets its " - " back.
var iswDelimiterFix = regexp.MustCompile(`(\d{9,12})\s+(\d{2}\s+\d{2}\s+\d{4}-)`)

// iswFieldSplit splits a repaired ISW narration into its fixed fields.
var iswFieldSplit = regexp.MustCompile(`\s*-\s*`)

const iswFieldCount = 6

// ISWFields is the structured payload of an ISW collection narration.
type ISWFields struct {
	TerminalID string
	STAN       string
	PAN        string
	RRN        int64
	Date       time.Time
	Trailer    string
}

// ClassifiedLine is one statement line with its category tag and any
// extraction the category defines.
type ClassifiedLine struct {
	Line         model.BankStatementLine
	Category     Category
	ISW          *ISWFields
	RawDateToken string
	// ExtractedDate is the date recovered from the narration itself, as
	// opposed to the statement's own value-date column.
	ExtractedDate time.Time
}

// ParseError reports a structurally malformed narration that reconciliation
// cannot proceed without.
type ParseError struct {
	Stage string
	Row   int
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: row %d: %v", e.Stage, e.Row, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ClassifyStatement partitions statement lines into mutually exclusive
// categories, evaluated in fixed priority order: ISW collection tag, NEFT
// suffix, BEING prefix, RVSL prefix, then TRANSACTION suffix (terminal
// owner fee, with its DAILY sweep sub-class). The terminal-fee rule also
// excludes any line whose exact narration text was claimed by the ISW,
// BEING, or RVSL rules on another row. An ISW narration that fails its
// fixed-field split is a hard error: those rows carry the reference number
// the bank reconciliation depends on.
func ClassifyStatement(lines []model.BankStatementLine) ([]ClassifiedLine, error) {
	out := make([]ClassifiedLine, len(lines))
	claimedTexts := make(map[string]struct{})

	for i, line := range lines {
		cl := ClassifiedLine{Line: line, Category: CategoryUnclassified}
		narration := line.Narration
		trimmed := strings.TrimSpace(narration)

		switch {
		case strings.HasPrefix(strings.ToUpper(narration), iswTag):
			fields, err := parseISWNarration(narration)
			if err != nil {
				return nil, &ParseError{Stage: "narration-classifier", Row: i, Err: err}
			}
			cl.Category = CategoryISWCollection
			cl.ISW = fields
			cl.ExtractedDate = fields.Date
			claimedTexts[narration] = struct{}{}

		case strings.HasSuffix(trimmed, "NEFT"):
			cl.Category = CategoryNEFT
			cl.RawDateToken = neftDateToken(narration)
			cl.ExtractedDate = ParseMixedDate(cl.RawDateToken)

		case strings.HasPrefix(trimmed, "BEING"):
			cl.Category = CategoryBeing
			claimedTexts[narration] = struct{}{}

		case strings.HasPrefix(narration, "RVSL"):
			cl.Category = CategoryReversal
			cl.RawDateToken = reversalDateToken(narration)
			cl.ExtractedDate = ParseMixedDate(cl.RawDateToken)
			claimedTexts[narration] = struct{}{}
		}

		out[i] = cl
	}

	// Second pass: the terminal-fee rule needs the full claimed-text set,
	// membership being by narration text rather than row identity.
	for i := range out {
		if out[i].Category != CategoryUnclassified {
			continue
		}
		narration := out[i].Line.Narration
		if !strings.HasSuffix(narration, "TRANSACTION") {
			continue
		}
		if _, claimed := claimedTexts[narration]; claimed {
			continue
		}
		if strings.HasPrefix(narration, "DAILY") {
			out[i].Category = CategoryDailySweep
		} else {
			out[i].Category = CategoryTerminalFee
		}
	}

	return out, nil
}

// parseISWNarration splits a collection narration into terminal id, STAN,
// PAN, retrieval reference, date token, and trailer. The reference field
// must parse as an integer; these rows are well-formed by construction and
// a failure here is a feed defect, not noise.
func parseISWNarration(narration string) (*ISWFields, error) {
	repaired := iswDelimiterFix.ReplaceAllString(narration, "$1 - $2")
	parts := iswFieldSplit.Split(repaired, iswFieldCount)
	if len(parts) < iswFieldCount {
		return nil, fmt.Errorf("ISW narration split into %d fields, want %d: %q", len(parts), iswFieldCount, narration)
	}

	rrn, err := strconv.ParseInt(strings.TrimSpace(parts[3]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ISW narration reference number %q: %w", parts[3], err)
	}

	return &ISWFields{
		TerminalID: strings.TrimSpace(parts[0]),
		STAN:       strings.TrimSpace(parts[1]),
		PAN:        strings.TrimSpace(parts[2]),
		RRN:        rrn,
		Date:       ParseMixedDate(digitsOnly(parts[4])),
		Trailer:    strings.TrimSpace(parts[5]),
	}, nil
}

// neftDateToken pulls the embedded date of a NEFT credit narration: the
// third-from-last '#' segment, digits only, last 8 characters.
func neftDateToken(narration string) string {
	parts := strings.Split(narration, "#")
	if len(parts) < 3 {
		return ""
	}
	digits := digitsOnly(parts[len(parts)-3])
	if len(digits) > 8 {
		digits = digits[len(digits)-8:]
	}
	return digits
}

// reversalDateToken pulls the embedded date of an RVSL narration: the last
// 11 characters of the second-to-last hyphen segment, digits only, left
// padded to 8.
func reversalDateToken(narration string) string {
	parts := strings.Split(narration, "-")
	if len(parts) < 2 {
		return ""
	}
	seg := parts[len(parts)-2]
	if len(seg) > 11 {
		seg = seg[len(seg)-11:]
	}
	digits := digitsOnly(seg)
	for len(digits) < 8 {
		digits = "0" + digits
	}
	return digits
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
