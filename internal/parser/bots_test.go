package parser

import "testing"

func TestClassifyFirstMatchWins(t *testing.T) {
	// "Googlebot" is declared before "Googlebot-Mobile" and matches the
	// mobile user agent too, so the earlier entry wins.
	got := DefaultBotPatterns.Classify("Mozilla/5.0 (compatible; Googlebot-Mobile/2.1)")
	if got != "googlebot" {
		t.Errorf("Classify = %q, want googlebot (first declared pattern)", got)
	}
}

func TestClassifyOrderDependence(t *testing.T) {
	table, err := CompileBotPatterns([]BotPatternSpec{
		{Name: "specific", Pattern: "FancyBot-Mobile"},
		{Name: "generic", Pattern: "FancyBot"},
	})
	if err != nil {
		t.Fatalf("CompileBotPatterns: %v", err)
	}
	if got := table.Classify("FancyBot-Mobile/1.0"); got != "specific" {
		t.Errorf("Classify = %q, want specific", got)
	}

	reversed, err := CompileBotPatterns([]BotPatternSpec{
		{Name: "generic", Pattern: "FancyBot"},
		{Name: "specific", Pattern: "FancyBot-Mobile"},
	})
	if err != nil {
		t.Fatalf("CompileBotPatterns: %v", err)
	}
	if got := reversed.Classify("FancyBot-Mobile/1.0"); got != "generic" {
		t.Errorf("Classify = %q, want generic (earlier declaration wins)", got)
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	if got := DefaultBotPatterns.Classify("mozilla (GOOGLEBOT/2.1)"); got != "googlebot" {
		t.Errorf("Classify = %q, want googlebot", got)
	}
}

func TestClassifySubstringSemantics(t *testing.T) {
	// Patterns are unanchored: a bot name embedded in an unrelated token
	// still matches. This mirrors the documented matching policy.
	if got := DefaultBotPatterns.Classify("SomeToolPoweredByGooglebotEmulator"); got != "googlebot" {
		t.Errorf("Classify = %q, want googlebot", got)
	}
}

func TestClassifyNoMatch(t *testing.T) {
	if got := DefaultBotPatterns.Classify("Mozilla/5.0 (Macintosh; Intel Mac OS X)"); got != "" {
		t.Errorf("Classify = %q, want empty", got)
	}
}

func TestCompileBotPatternsErrors(t *testing.T) {
	if _, err := CompileBotPatterns([]BotPatternSpec{{Name: "bad", Pattern: "("}}); err == nil {
		t.Error("expected error for invalid pattern")
	}
	if _, err := CompileBotPatterns([]BotPatternSpec{{Name: "", Pattern: "x"}}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestDefaultTableCoversCommonCrawlers(t *testing.T) {
	cases := map[string]string{
		"Mozilla/5.0 (compatible; bingbot/2.0)":     "bingbot",
		"Mozilla/5.0 (compatible; YandexBot/3.0)":   "yandex",
		"Mozilla/5.0 (compatible; Baiduspider/2.0)": "baidu",
		"DuckDuckBot/1.0":                           "duckduckgo",
		"Mozilla/5.0 (compatible; SemrushBot/7~bl)": "semrush",
		"Mozilla/5.0 (compatible; AhrefsBot/7.0)":   "ahrefs",
		"Screaming Frog SEO Spider/19.0":            "screaming_frog",
		"Mozilla/5.0 (compatible; MJ12bot/v1.4.8)":  "mj12bot",
		"Mozilla/5.0 (compatible; DotBot/1.2)":      "dotbot",
	}
	for ua, want := range cases {
		if got := DefaultBotPatterns.Classify(ua); got != want {
			t.Errorf("Classify(%q) = %q, want %q", ua, got, want)
		}
	}
}
