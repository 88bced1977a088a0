package view

import (
	"strings"
	"testing"
)

func TestRenderNoticePage(t *testing.T) {
	html, err := RenderNoticePage(NoticePageData{
		Code:      "Ab3xK91Q",
		TargetURL: "https://example.com/?q=<b>",
		Clicks:    3,
		Limit:     3,
	})
	if err != nil {
		t.Fatalf("RenderNoticePage returned error: %v", err)
	}
	if !strings.Contains(html, "/Ab3xK91Q") || !strings.Contains(html, "used 3 of 3 clicks") {
		t.Fatalf("expected code and usage in page, got:\n%s", html)
	}
	if strings.Contains(html, "<b>") {
		t.Fatal("expected target to be escaped")
	}
}
