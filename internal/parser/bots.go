package parser

import (
	"fmt"
	"regexp"
)

// BotPattern pairs a bot name with its compiled user-agent pattern.
type BotPattern struct {
	Name string
	re   *regexp.Regexp
}

// Table is an ordered bot pattern table. Classification scans it linearly
// and the first matching pattern wins, so declaration order is load-bearing:
// a generic name declared before a more specific one shadows it (e.g.
// "Googlebot" also matches Googlebot-Mobile user agents). Tables are
// immutable after construction and safe for concurrent use.
type Table []BotPattern

// BotPatternSpec is the uncompiled form of a table entry, as found in
// configuration files.
type BotPatternSpec struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// CompileBotPatterns builds a Table from specs, preserving their order.
// Patterns are case-insensitive substring searches within the user agent.
func CompileBotPatterns(specs []BotPatternSpec) (Table, error) {
	t := make(Table, 0, len(specs))
	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("bot pattern with empty name")
		}
		re, err := regexp.Compile("(?i)" + s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("bot pattern %q: %w", s.Name, err)
		}
		t = append(t, BotPattern{Name: s.Name, re: re})
	}
	return t, nil
}

// Classify returns the name of the first pattern matching the user agent,
// or "" when none matches. Matching is an unanchored substring search, so a
// pattern may hit inside an unrelated token of the user agent.
func (t Table) Classify(userAgent string) string {
	for _, p := range t {
		if p.re.MatchString(userAgent) {
			return p.Name
		}
	}
	return ""
}

func mustBot(name, pattern string) BotPattern {
	return BotPattern{Name: name, re: regexp.MustCompile("(?i)" + pattern)}
}

// DefaultBotPatterns covers the common SEO crawlers. "googlebot" precedes
// "googlebot_mobile" on purpose: first-match-wins is the documented policy.
var DefaultBotPatterns = Table{
	mustBot("googlebot", `Googlebot`),
	mustBot("googlebot_mobile", `Googlebot-Mobile`),
	mustBot("bingbot", `bingbot`),
	mustBot("yandex", `YandexBot`),
	mustBot("baidu", `Baiduspider`),
	mustBot("duckduckgo", `DuckDuckBot`),
	mustBot("semrush", `SemrushBot`),
	mustBot("ahrefs", `AhrefsBot`),
	mustBot("screaming_frog", `Screaming Frog`),
	mustBot("mj12bot", `MJ12bot`),
	mustBot("dotbot", `DotBot`),
}
