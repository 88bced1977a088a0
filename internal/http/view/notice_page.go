package view

import (
	"bytes"
	"html/template"
)

// NoticePageData fills the page shown on the click that used up a link.
type NoticePageData struct {
	Code      string
	TargetURL string
	Clicks    int
	Limit     int
}

var noticePageTmpl = template.Must(template.New("notice_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>Last click used</title>
	<style>
		:root {
			--card: rgba(255, 255, 255, 0.05);
			--border: rgba(255, 255, 255, 0.15);
			--text: #e7ecff;
			--muted: #a1acc5;
			--warn: #fbbf24;
			--accent: #7dd3fc;
			--accent-strong: #38bdf8;
			font-family: "Inter", -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		* { box-sizing: border-box; }
		body {
			margin: 0;
			min-height: 100vh;
			display: flex;
			align-items: center;
			justify-content: center;
			background: radial-gradient(circle at 20% 20%, #111827, #030712 60%);
			color: var(--text);
		}
		.card {
			background: var(--card);
			border: 1px solid var(--border);
			border-radius: 18px;
			padding: 32px;
			width: min(520px, 92vw);
		}
		.badge {
			display: inline-block;
			padding: 4px 12px;
			border-radius: 999px;
			border: 1px solid var(--warn);
			color: var(--warn);
			font-size: 0.8rem;
			letter-spacing: 0.06em;
			text-transform: uppercase;
		}
		p { color: var(--muted); }
		.destination {
			margin: 24px 0;
			padding: 18px;
			border-radius: 14px;
			background: rgba(125, 211, 252, 0.07);
			border: 1px solid rgba(125, 211, 252, 0.25);
			word-break: break-all;
		}
		a.button {
			display: inline-flex;
			align-items: center;
			padding: 0 28px;
			height: 48px;
			border-radius: 999px;
			background: linear-gradient(120deg, var(--accent), var(--accent-strong));
			color: #050708;
			font-weight: 600;
			text-decoration: none;
		}
	</style>
</head>
<body>
	<div class="card">
		<span class="badge">Link disabled</span>
		<h1>This was the last allowed click</h1>
		<p>Short link <strong>/{{.Code}}</strong> has used {{.Clicks}} of {{.Limit}} clicks and is now disabled.
		Create a new link to share this destination again.</p>

		<div class="destination">{{.TargetURL}}</div>

		<a class="button" href="{{.TargetURL}}">Continue</a>
	</div>
</body>
</html>
`))

// RenderNoticePage expands the last-click notice template.
func RenderNoticePage(data NoticePageData) (string, error) {
	var buf bytes.Buffer
	if err := noticePageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
