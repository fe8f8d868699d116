package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsight-hq/burnwatch/pkg/model"
)

// VendorTotal is one vendor's total spend for the digest week.
type VendorTotal struct {
	Vendor string
	Total  decimal.Decimal
}

// WeeklyStats aggregates a week's metrics for the digest email.
type WeeklyStats struct {
	OrgName    string
	WeekStart  time.Time
	WeekEnd    time.Time
	CashOnHand decimal.Decimal
	Burn       model.BurnMetrics
	Runway     model.RunwayMetrics
	TopVendors []VendorTotal
	Alerts     []model.ThresholdAlert
}

// Digest is a composed weekly summary ready for a mail transport.
type Digest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    string `json:"html"`
}

// BuildWeeklyDigest formats a week of metrics into one email. The subject
// embeds net burn and runway for at-a-glance triage.
func BuildWeeklyDigest(stats WeeklyStats) Digest {
	runway := "indefinite runway"
	if !stats.Runway.Indefinite() {
		runway = fmt.Sprintf("%.1f mo runway", stats.Runway.Months)
	}
	subject := fmt.Sprintf("Weekly burn report: $%s/mo net burn, %s", stats.Burn.NetBurn.StringFixed(0), runway)

	return Digest{
		Subject: subject,
		Body:    digestText(stats, runway),
		HTML:    digestHTML(stats, runway),
	}
}

func digestText(stats WeeklyStats, runway string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Burn report for %s\n", stats.OrgName)
	fmt.Fprintf(&b, "Week of %s to %s\n\n", stats.WeekStart.Format("Jan 2"), stats.WeekEnd.Format("Jan 2, 2006"))
	fmt.Fprintf(&b, "Cash on hand:  $%s\n", stats.CashOnHand.StringFixed(2))
	fmt.Fprintf(&b, "Gross burn:    $%s/mo\n", stats.Burn.GrossBurn.StringFixed(2))
	fmt.Fprintf(&b, "Net burn:      $%s/mo\n", stats.Burn.NetBurn.StringFixed(2))
	fmt.Fprintf(&b, "Runway:        %s\n", runway)
	if stats.Runway.ZeroDate != nil {
		fmt.Fprintf(&b, "Cash-out date: %s\n", stats.Runway.ZeroDate.Format("Jan 2, 2006"))
	}

	if len(stats.TopVendors) > 0 {
		b.WriteString("\nTop vendors this week:\n")
		for _, v := range stats.TopVendors {
			fmt.Fprintf(&b, "  %-24s $%s\n", v.Vendor, v.Total.StringFixed(2))
		}
	}

	if len(stats.Alerts) > 0 {
		b.WriteString("\nActive alerts:\n")
		for _, a := range stats.Alerts {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", strings.ToUpper(string(a.Severity)), a.Title, a.Message)
		}
	}
	return b.String()
}

func digestHTML(stats WeeklyStats, runway string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Burn report for %s</h2>", html.EscapeString(stats.OrgName))
	fmt.Fprintf(&b, "<p>Week of %s to %s</p>", stats.WeekStart.Format("Jan 2"), stats.WeekEnd.Format("Jan 2, 2006"))

	b.WriteString("<table>")
	fmt.Fprintf(&b, "<tr><td>Cash on hand</td><td>$%s</td></tr>", stats.CashOnHand.StringFixed(2))
	fmt.Fprintf(&b, "<tr><td>Gross burn</td><td>$%s/mo</td></tr>", stats.Burn.GrossBurn.StringFixed(2))
	fmt.Fprintf(&b, "<tr><td>Net burn</td><td>$%s/mo</td></tr>", stats.Burn.NetBurn.StringFixed(2))
	fmt.Fprintf(&b, "<tr><td>Runway</td><td>%s</td></tr>", html.EscapeString(runway))
	if stats.Runway.ZeroDate != nil {
		fmt.Fprintf(&b, "<tr><td>Cash-out date</td><td>%s</td></tr>", stats.Runway.ZeroDate.Format("Jan 2, 2006"))
	}
	b.WriteString("</table>")

	if len(stats.TopVendors) > 0 {
		b.WriteString("<h3>Top vendors this week</h3><table>")
		for _, v := range stats.TopVendors {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>$%s</td></tr>", html.EscapeString(v.Vendor), v.Total.StringFixed(2))
		}
		b.WriteString("</table>")
	}

	if len(stats.Alerts) > 0 {
		b.WriteString("<h3>Active alerts</h3><ul>")
		for _, a := range stats.Alerts {
			fmt.Fprintf(&b, "<li><strong>%s</strong> %s: %s</li>",
				html.EscapeString(strings.ToUpper(string(a.Severity))),
				html.EscapeString(a.Title),
				html.EscapeString(a.Message))
		}
		b.WriteString("</ul>")
	}
	return b.String()
}
