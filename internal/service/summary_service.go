package service

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/libertypay/card-reconciliation/internal/model"
)

// SummaryService renders a plain-text narrative of a snapshot for the
// summary tab of the results workbook. Deterministic: the same snapshot
// always yields the same text.
type SummaryService struct {
	tmpl *template.Template
}

const summaryTemplate = `Reconciliation summary for {{.RunDate}}.

Revenue across the three acquiring channels came to {{money .TotalRevenue}} against
{{money .TotalSettlement}} settled. Settlement feeds reported {{money .TotalSettlementChargeBack}} in
chargeback candidates and left {{money .TotalSettlementUnsettledClaims}} in unsettled claims.
The ISW collection account shows {{money .TotalBankChargeBack}} of bank-only credits and
{{money .TotalBankUnsettledClaims}} of settlement-matched value not yet seen at the bank.

Per channel:
  NIBSS       revenue {{money .Channels.NIBSS.Revenue}}, settled {{money .Channels.NIBSS.Settlement}}, chargebacks {{money .Channels.NIBSS.ChargeBack}}, unsettled {{money .Channels.NIBSS.UnsettledClaim}}
  INTERSWITCH revenue {{money .Channels.Interswitch.Revenue}}, settled {{money .Channels.Interswitch.Settlement}}, chargebacks {{money .Channels.Interswitch.ChargeBack}}, unsettled {{money .Channels.Interswitch.UnsettledClaim}}
  PARALLEX    revenue {{money .Channels.Parallex.Revenue}}, settled {{money .Channels.Parallex.Settlement}}, chargebacks {{money .Channels.Parallex.ChargeBack}}, unsettled {{money .Channels.Parallex.UnsettledClaim}}
`

func NewSummaryService() *SummaryService {
	funcMap := template.FuncMap{
		"money": func(v float64) string {
			return "₦" + formatAmount(v)
		},
	}
	return &SummaryService{
		tmpl: template.Must(template.New("summary").Funcs(funcMap).Parse(summaryTemplate)),
	}
}

func (s *SummaryService) Render(snap model.MetricsSnapshot) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, snap); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return buf.String(), nil
}

// formatAmount renders 1234567.891 as "1,234,567.89".
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.Index(s, ".")
	intPart, frac := s[:dot], s[dot:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}
