package alert_notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/telescope-ops/telescope/internal/domain/alert"
)

// Compose renders the subject and HTML body for an alert. Connectivity
// failures (no HTTP answer at all) get their own wording so the reader
// immediately knows the gateway was unreachable rather than unhealthy.
func Compose(a *alert.Alert) (subject, html string) {
	code := "N/A"
	if a.StatusCode != nil {
		code = fmt.Sprintf("%d", *a.StatusCode)
	}
	at := a.CheckedAt.UTC().Format(time.RFC3339)

	switch a.Kind {
	case alert.KindDown:
		if a.Connectivity {
			subject = "🔴 ALERT: payment gateway unreachable"
			html = body("Payment gateway unreachable",
				"The health endpoint did not answer at all. The gateway may be offline or unreachable from the monitor.",
				a.Reason, code, at)
		} else {
			subject = fmt.Sprintf("🔴 ALERT: payment gateway DOWN (HTTP %s)", code)
			html = body("Payment gateway is DOWN",
				"The health endpoint reports the gateway as down.",
				a.Reason, code, at)
		}
	case alert.KindDegraded:
		subject = "🟠 ALERT: payment gateway degraded"
		html = body("Payment gateway degraded",
			"The gateway answers but one or more components are unhealthy.",
			a.Reason, code, at)
	case alert.KindOperational:
		subject = "🟢 Payment gateway back to normal"
		html = body("Payment gateway recovered",
			"All monitored components report healthy again.",
			a.Reason, code, at)
	case alert.KindTest:
		subject = "Telescope test alert"
		html = body("Test alert",
			"This is a test message confirming alert delivery works end to end.",
			a.Reason, code, at)
	default:
		subject = fmt.Sprintf("Telescope alert: %s", a.Kind)
		html = body("Telescope alert", "", a.Reason, code, at)
	}
	return subject, html
}

func body(title, lead, reason, code, checkedAt string) string {
	var b strings.Builder
	b.WriteString("<h2>" + title + "</h2>")
	if lead != "" {
		b.WriteString("<p>" + lead + "</p>")
	}
	if reason != "" {
		b.WriteString("<p><b>Details:</b> " + reason + "</p>")
	}
	b.WriteString("<p><b>HTTP status:</b> " + code + "</p>")
	b.WriteString("<p><b>Checked at:</b> " + checkedAt + "</p>")
	b.WriteString("<hr><p style=\"color:#888;font-size:12px\">Automated alert from your Telescope monitoring dashboard.</p>")
	return b.String()
}
