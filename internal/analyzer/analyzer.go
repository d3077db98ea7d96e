package analyzer

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/petersawicki/seo-log-analyzer/internal/parser"
)

// Defaults for the threshold-taking queries.
const (
	DefaultMinCrawls     = 5
	DefaultTrapThreshold = 100
	DefaultErrorStatus   = 404
)

const timestampLayout = "02/Jan/2006:15:04:05 -0700"

// No-data markers. These are ordinary values, not failures: callers use
// errors.Is to tell "no bot traffic at all" from "bot traffic present but
// no Googlebot".
var (
	ErrNoBotTraffic       = errors.New("no bot activity found")
	ErrNoGooglebotTraffic = errors.New("no googlebot activity found")
)

// Engine answers crawl-budget queries over an immutable record collection.
// The bot-only subset is derived once at construction; every query is a
// pure function of the held records, computed fresh on each call.
// Concurrent read-only queries against one Engine are safe.
type Engine struct {
	records []parser.Record
	bots    []parser.Record
}

// New builds an Engine over records, which must not be mutated afterwards.
func New(records []parser.Record) *Engine {
	bots := make([]parser.Record, 0, len(records)/4)
	for _, r := range records {
		if r.IsBot {
			bots = append(bots, r)
		}
	}
	return &Engine{records: records, bots: bots}
}

// TotalRecords returns the size of the full record collection.
func (e *Engine) TotalRecords() int { return len(e.records) }

// BotRecords returns the size of the bot subset.
func (e *Engine) BotRecords() int { return len(e.bots) }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

// CrawlBudgetSummary computes the high-level crawl budget metrics. The date
// range spans the full collection, not just bot records, and is nil for an
// empty collection. Bot percentage is 0 when there are no records at all.
func (e *Engine) CrawlBudgetSummary() Summary {
	s := Summary{
		TotalRequests: len(e.records),
		BotRequests:   len(e.bots),
		BotPercentage: percent(len(e.bots), len(e.records)),
	}

	bots := make(map[string]struct{})
	pages := make(map[string]struct{})
	for _, r := range e.bots {
		bots[r.BotType] = struct{}{}
		pages[r.Path] = struct{}{}
	}
	s.UniqueBots = len(bots)
	s.UniquePages = len(pages)

	if len(e.records) > 0 {
		min, max := e.records[0].Timestamp, e.records[0].Timestamp
		for _, r := range e.records[1:] {
			if r.Timestamp.Before(min) {
				min = r.Timestamp
			}
			if r.Timestamp.After(max) {
				max = r.Timestamp
			}
		}
		s.DateRange = &DateRange{
			Start: min.Format(timestampLayout),
			End:   max.Format(timestampLayout),
		}
	}
	return s
}

// BotDistribution breaks bot traffic down per bot type, ordered by request
// count descending. Ties keep the order bot types were first encountered in.
func (e *Engine) BotDistribution() []BotStats {
	var order []string
	stats := make(map[string]*BotStats)
	for _, r := range e.bots {
		st, ok := stats[r.BotType]
		if !ok {
			st = &BotStats{BotType: r.BotType}
			stats[r.BotType] = st
			order = append(order, r.BotType)
		}
		st.TotalRequests++
		if r.Status == 200 {
			st.SuccessfulRequests++
		}
		st.TotalBytes += r.Bytes
	}

	rows := make([]BotStats, 0, len(order))
	for _, name := range order {
		st := stats[name]
		st.SuccessRate = percent(st.SuccessfulRequests, st.TotalRequests)
		rows = append(rows, *st)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalRequests > rows[j].TotalRequests
	})
	return rows
}

// GooglebotAnalysis reports on the bot records whose type contains
// "googlebot". It returns ErrNoBotTraffic when the bot subset is empty and
// ErrNoGooglebotTraffic when bots are present but none of them is a
// Googlebot variant.
func (e *Engine) GooglebotAnalysis() (GooglebotReport, error) {
	if len(e.bots) == 0 {
		return GooglebotReport{}, ErrNoBotTraffic
	}

	var subset []parser.Record
	for _, r := range e.bots {
		if strings.Contains(strings.ToLower(r.BotType), "googlebot") {
			subset = append(subset, r)
		}
	}
	if len(subset) == 0 {
		return GooglebotReport{}, ErrNoGooglebotTraffic
	}

	rep := GooglebotReport{
		TotalCrawls: len(subset),
		Variants:    make(map[string]int),
		CrawlByHour: make(map[int]int),
		StatusCodes: make(map[int]int),
	}

	var pathOrder []string
	pathCounts := make(map[string]int)
	var totalBytes int64
	for _, r := range subset {
		rep.Variants[r.BotType]++
		rep.CrawlByHour[r.Hour]++
		rep.StatusCodes[r.Status]++
		if _, ok := pathCounts[r.Path]; !ok {
			pathOrder = append(pathOrder, r.Path)
		}
		pathCounts[r.Path]++
		totalBytes += r.Bytes
	}
	rep.AvgBytes = round2(float64(totalBytes) / float64(len(subset)))

	top := make([]PathCount, 0, len(pathOrder))
	for _, p := range pathOrder {
		top = append(top, PathCount{Path: p, Count: pathCounts[p]})
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Count > top[j].Count
	})
	if len(top) > 20 {
		top = top[:20]
	}
	rep.TopPaths = top

	return rep, nil
}

// StatusCodeAnalysis cross-tabulates bot types against status codes. Rows
// follow first-encountered bot type order.
func (e *Engine) StatusCodeAnalysis() []StatusBreakdown {
	var order []string
	byBot := make(map[string]*StatusBreakdown)
	for _, r := range e.bots {
		bd, ok := byBot[r.BotType]
		if !ok {
			bd = &StatusBreakdown{BotType: r.BotType, Codes: make(map[int]int)}
			byBot[r.BotType] = bd
			order = append(order, r.BotType)
		}
		bd.Codes[r.Status]++
		switch {
		case r.Status >= 200 && r.Status < 300:
			bd.Count2xx++
		case r.Status >= 300 && r.Status < 400:
			bd.Count3xx++
		case r.Status >= 400 && r.Status < 500:
			bd.Count4xx++
		case r.Status >= 500 && r.Status < 600:
			bd.Count5xx++
		}
	}

	rows := make([]StatusBreakdown, 0, len(order))
	for _, name := range order {
		rows = append(rows, *byBot[name])
	}
	return rows
}

// CrawlFrequencyByPath aggregates bot traffic per path, keeping paths with
// at least minCrawls crawls, ordered by crawl count descending.
func (e *Engine) CrawlFrequencyByPath(minCrawls int) []PathFrequency {
	type pathAgg struct {
		count    int
		success  int
		botOrder []string
		botCount map[string]int
	}

	var order []string
	byPath := make(map[string]*pathAgg)
	for _, r := range e.bots {
		agg, ok := byPath[r.Path]
		if !ok {
			agg = &pathAgg{botCount: make(map[string]int)}
			byPath[r.Path] = agg
			order = append(order, r.Path)
		}
		agg.count++
		if r.Status == 200 {
			agg.success++
		}
		if _, ok := agg.botCount[r.BotType]; !ok {
			agg.botOrder = append(agg.botOrder, r.BotType)
		}
		agg.botCount[r.BotType]++
	}

	var rows []PathFrequency
	for _, path := range order {
		agg := byPath[path]
		if agg.count < minCrawls {
			continue
		}
		primary, best := "", 0
		for _, bot := range agg.botOrder {
			if agg.botCount[bot] > best {
				primary, best = bot, agg.botCount[bot]
			}
		}
		rows = append(rows, PathFrequency{
			Path:        path,
			CrawlCount:  agg.count,
			PrimaryBot:  primary,
			SuccessRate: percent(agg.success, agg.count),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CrawlCount > rows[j].CrawlCount
	})
	return rows
}

// IdentifyCrawlTraps returns the paths crawled strictly more than threshold
// times, a signal of parameter explosions or infinite link structures.
func (e *Engine) IdentifyCrawlTraps(threshold int) []string {
	var order []string
	counts := make(map[string]int)
	for _, r := range e.bots {
		if _, ok := counts[r.Path]; !ok {
			order = append(order, r.Path)
		}
		counts[r.Path]++
	}

	var traps []string
	for _, path := range order {
		if counts[path] > threshold {
			traps = append(traps, path)
		}
	}
	return traps
}

// TimeSeriesAnalysis aggregates bot crawls per day, ascending by date.
// A non-empty botType restricts the series to that exact bot type.
func (e *Engine) TimeSeriesAnalysis(botType string) []DailyCrawls {
	byDate := make(map[string]*DailyCrawls)
	var dates []string
	for _, r := range e.bots {
		if botType != "" && r.BotType != botType {
			continue
		}
		dc, ok := byDate[r.Date]
		if !ok {
			dc = &DailyCrawls{Date: r.Date}
			byDate[r.Date] = dc
			dates = append(dates, r.Date)
		}
		dc.TotalCrawls++
		if r.Status == 200 {
			dc.SuccessfulCrawls++
		}
	}

	sort.Strings(dates)
	rows := make([]DailyCrawls, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, *byDate[d])
	}
	return rows
}

// ResponseSizeAnalysis summarizes response sizes over the bot subset, using
// bytes as a proxy for response cost. Returns ErrNoBotTraffic when the bot
// subset is empty.
func (e *Engine) ResponseSizeAnalysis() (ResponseSizeStats, error) {
	if len(e.bots) == 0 {
		return ResponseSizeStats{}, ErrNoBotTraffic
	}

	sizes := make([]int64, len(e.bots))
	var total int64
	for i, r := range e.bots {
		sizes[i] = r.Bytes
		total += r.Bytes
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	var median float64
	mid := len(sizes) / 2
	if len(sizes)%2 == 1 {
		median = float64(sizes[mid])
	} else {
		median = float64(sizes[mid-1]+sizes[mid]) / 2
	}

	return ResponseSizeStats{
		AvgBytes:       round2(float64(total) / float64(len(sizes))),
		MedianBytes:    round2(median),
		MaxBytes:       sizes[len(sizes)-1],
		MinBytes:       sizes[0],
		TotalBandwidth: total,
	}, nil
}

// ErrorPages lists the paths that returned the given status to bots,
// ordered by occurrence count descending.
func (e *Engine) ErrorPages(status int) []ErrorPage {
	type errAgg struct {
		count    int
		botOrder []string
		botSeen  map[string]struct{}
	}

	var order []string
	byPath := make(map[string]*errAgg)
	for _, r := range e.bots {
		if r.Status != status {
			continue
		}
		agg, ok := byPath[r.Path]
		if !ok {
			agg = &errAgg{botSeen: make(map[string]struct{})}
			byPath[r.Path] = agg
			order = append(order, r.Path)
		}
		agg.count++
		if _, seen := agg.botSeen[r.BotType]; !seen {
			agg.botSeen[r.BotType] = struct{}{}
			agg.botOrder = append(agg.botOrder, r.BotType)
		}
	}

	rows := make([]ErrorPage, 0, len(order))
	for _, path := range order {
		agg := byPath[path]
		rows = append(rows, ErrorPage{
			Path:         path,
			Count:        agg.count,
			BotsAffected: agg.botOrder,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})
	return rows
}

// DailyCrawlReport summarizes bot activity per day, ascending by date.
func (e *Engine) DailyCrawlReport() []DailyReport {
	type dayAgg struct {
		report DailyReport
		bots   map[string]struct{}
	}

	byDate := make(map[string]*dayAgg)
	var dates []string
	for _, r := range e.bots {
		agg, ok := byDate[r.Date]
		if !ok {
			agg = &dayAgg{report: DailyReport{Date: r.Date}, bots: make(map[string]struct{})}
			byDate[r.Date] = agg
			dates = append(dates, r.Date)
		}
		agg.report.TotalCrawls++
		switch {
		case r.Status == 200:
			agg.report.Successful++
		case r.Status >= 400 && r.Status < 500:
			agg.report.Errors4xx++
		case r.Status >= 500 && r.Status < 600:
			agg.report.Errors5xx++
		}
		agg.report.TotalBytes += r.Bytes
		agg.bots[r.BotType] = struct{}{}
	}

	sort.Strings(dates)
	rows := make([]DailyReport, 0, len(dates))
	for _, d := range dates {
		agg := byDate[d]
		agg.report.UniqueBots = len(agg.bots)
		rows = append(rows, agg.report)
	}
	return rows
}
