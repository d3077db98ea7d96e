package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/petersawicki/seo-log-analyzer/internal/analyzer"
)

// Format specifies the output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// Options carries the query thresholds used when building a report.
type Options struct {
	MinCrawls     int
	TrapThreshold int
	ErrorStatus   int
	BotFilter     string
}

// Report bundles every analyzer query result for rendering. The Googlebot
// and response-size sections carry a note instead of data when the engine
// reported a no-data marker; an empty table and a no-data note are distinct
// states and render differently.
type Report struct {
	Summary         analyzer.Summary            `json:"summary"`
	BotDistribution []analyzer.BotStats         `json:"bot_distribution"`
	Googlebot       *analyzer.GooglebotReport   `json:"googlebot,omitempty"`
	GooglebotNote   string                      `json:"googlebot_note,omitempty"`
	StatusCodes     []analyzer.StatusBreakdown  `json:"status_codes"`
	PathFrequency   []analyzer.PathFrequency    `json:"crawl_frequency"`
	CrawlTraps      []string                    `json:"crawl_traps"`
	TimeSeries      []analyzer.DailyCrawls      `json:"time_series"`
	ResponseSizes   *analyzer.ResponseSizeStats `json:"response_sizes,omitempty"`
	ResponseNote    string                      `json:"response_sizes_note,omitempty"`
	ErrorStatus     int                         `json:"error_status"`
	ErrorPages      []analyzer.ErrorPage        `json:"error_pages"`
	Daily           []analyzer.DailyReport      `json:"daily_report"`
}

// Build runs every query against the engine and collects the results.
func Build(eng *analyzer.Engine, opts Options) Report {
	rep := Report{
		Summary:         eng.CrawlBudgetSummary(),
		BotDistribution: eng.BotDistribution(),
		StatusCodes:     eng.StatusCodeAnalysis(),
		PathFrequency:   eng.CrawlFrequencyByPath(opts.MinCrawls),
		CrawlTraps:      eng.IdentifyCrawlTraps(opts.TrapThreshold),
		TimeSeries:      eng.TimeSeriesAnalysis(opts.BotFilter),
		ErrorStatus:     opts.ErrorStatus,
		ErrorPages:      eng.ErrorPages(opts.ErrorStatus),
		Daily:           eng.DailyCrawlReport(),
	}

	if gb, err := eng.GooglebotAnalysis(); err == nil {
		rep.Googlebot = &gb
	} else if IsNoData(err) {
		rep.GooglebotNote = err.Error()
	}
	if rs, err := eng.ResponseSizeAnalysis(); err == nil {
		rep.ResponseSizes = &rs
	} else if IsNoData(err) {
		rep.ResponseNote = err.Error()
	}
	return rep
}

// Render writes the report in the requested format.
func Render(rep Report, format Format, w io.Writer) error {
	switch format {
	case FormatTable:
		return renderTable(rep, w)
	case FormatJSON:
		return renderJSON(rep, w)
	case FormatCSV:
		return renderCSV(rep, w)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteToFile writes the report to a file instead of stdout.
func WriteToFile(rep Report, format Format, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return Render(rep, format, f)
}

func renderJSON(rep Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, " ", title)
	fmt.Fprintln(w, strings.Repeat("=", 60))
}

func renderTable(rep Report, w io.Writer) error {
	section(w, "CRAWL BUDGET SUMMARY")
	fmt.Fprintf(w, "  Total requests:       %d\n", rep.Summary.TotalRequests)
	fmt.Fprintf(w, "  Bot requests:         %d\n", rep.Summary.BotRequests)
	fmt.Fprintf(w, "  Bot percentage:       %.2f%%\n", rep.Summary.BotPercentage)
	fmt.Fprintf(w, "  Unique bots:          %d\n", rep.Summary.UniqueBots)
	fmt.Fprintf(w, "  Unique pages crawled: %d\n", rep.Summary.UniquePages)
	if rep.Summary.DateRange != nil {
		fmt.Fprintf(w, "  Date range:           %s .. %s\n",
			rep.Summary.DateRange.Start, rep.Summary.DateRange.End)
	}

	section(w, "BOT DISTRIBUTION")
	if len(rep.BotDistribution) == 0 {
		fmt.Fprintln(w, "  No bot traffic detected.")
	} else {
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  BOT\tREQUESTS\tOK\tBYTES\tSUCCESS")
		for _, b := range rep.BotDistribution {
			fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\t%.2f%%\n",
				b.BotType, b.TotalRequests, b.SuccessfulRequests, b.TotalBytes, b.SuccessRate)
		}
		tw.Flush()
	}

	section(w, "GOOGLEBOT ANALYSIS")
	if rep.Googlebot == nil {
		fmt.Fprintf(w, "  %s\n", rep.GooglebotNote)
	} else {
		gb := rep.Googlebot
		fmt.Fprintf(w, "  Total crawls:          %d\n", gb.TotalCrawls)
		fmt.Fprintf(w, "  Average response size: %.2f bytes\n", gb.AvgBytes)
		fmt.Fprintln(w, "\n  Mobile vs desktop:")
		for _, name := range sortedKeys(gb.Variants) {
			fmt.Fprintf(w, "    %s: %d\n", name, gb.Variants[name])
		}
		fmt.Fprintln(w, "\n  Crawls by hour:")
		for _, h := range sortedIntKeys(gb.CrawlByHour) {
			fmt.Fprintf(w, "    %02d:00  %d\n", h, gb.CrawlByHour[h])
		}
		fmt.Fprintln(w, "\n  Top crawled paths:")
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		for _, pc := range gb.TopPaths {
			fmt.Fprintf(tw, "    %s\t%d crawls\n", pc.Path, pc.Count)
		}
		tw.Flush()
	}

	section(w, "STATUS CODES (BOT TRAFFIC)")
	if len(rep.StatusCodes) == 0 {
		fmt.Fprintln(w, "  No bot traffic detected.")
	} else {
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  BOT\t2xx\t3xx\t4xx\t5xx")
		for _, sb := range rep.StatusCodes {
			fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\t%d\n",
				sb.BotType, sb.Count2xx, sb.Count3xx, sb.Count4xx, sb.Count5xx)
		}
		tw.Flush()
	}

	section(w, "CRAWL FREQUENCY BY PATH")
	if len(rep.PathFrequency) == 0 {
		fmt.Fprintln(w, "  No paths above the crawl threshold.")
	} else {
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  PATH\tCRAWLS\tPRIMARY BOT\tSUCCESS")
		for _, pf := range rep.PathFrequency {
			fmt.Fprintf(tw, "  %s\t%d\t%s\t%.2f%%\n",
				pf.Path, pf.CrawlCount, pf.PrimaryBot, pf.SuccessRate)
		}
		tw.Flush()
	}

	section(w, "CRAWL TRAPS")
	if len(rep.CrawlTraps) == 0 {
		fmt.Fprintln(w, "  No crawl traps detected.")
	} else {
		for _, p := range rep.CrawlTraps {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}

	section(w, "RESPONSE SIZES")
	if rep.ResponseSizes == nil {
		fmt.Fprintf(w, "  %s\n", rep.ResponseNote)
	} else {
		rs := rep.ResponseSizes
		fmt.Fprintf(w, "  Average:         %.2f bytes\n", rs.AvgBytes)
		fmt.Fprintf(w, "  Median:          %.2f bytes\n", rs.MedianBytes)
		fmt.Fprintf(w, "  Max:             %d bytes\n", rs.MaxBytes)
		fmt.Fprintf(w, "  Min:             %d bytes\n", rs.MinBytes)
		fmt.Fprintf(w, "  Total bandwidth: %d bytes\n", rs.TotalBandwidth)
	}

	section(w, fmt.Sprintf("ERROR PAGES (HTTP %d)", rep.ErrorStatus))
	if len(rep.ErrorPages) == 0 {
		fmt.Fprintln(w, "  No error pages hit by bots.")
	} else {
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  PATH\tERRORS\tBOTS AFFECTED")
		for _, ep := range rep.ErrorPages {
			fmt.Fprintf(tw, "  %s\t%d\t%s\n", ep.Path, ep.Count, strings.Join(ep.BotsAffected, ", "))
		}
		tw.Flush()
	}

	section(w, "DAILY CRAWL REPORT")
	if len(rep.Daily) == 0 {
		fmt.Fprintln(w, "  No bot traffic detected.")
	} else {
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  DATE\tCRAWLS\tOK\t4xx\t5xx\tBOTS\tBYTES")
		for _, d := range rep.Daily {
			fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\t%d\t%d\t%d\n",
				d.Date, d.TotalCrawls, d.Successful, d.Errors4xx, d.Errors5xx, d.UniqueBots, d.TotalBytes)
		}
		tw.Flush()
	}

	fmt.Fprintln(w)
	return nil
}

// renderCSV emits the three tabular reports as CSV blocks separated by a
// blank line, each with its own header row.
func renderCSV(rep Report, w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"bot_type", "total_requests", "successful_requests", "total_bytes", "success_rate"}); err != nil {
		return err
	}
	for _, b := range rep.BotDistribution {
		rec := []string{
			b.BotType,
			strconv.Itoa(b.TotalRequests),
			strconv.Itoa(b.SuccessfulRequests),
			strconv.FormatInt(b.TotalBytes, 10),
			strconv.FormatFloat(b.SuccessRate, 'f', 2, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	fmt.Fprintln(w)

	if err := cw.Write([]string{"path", "crawl_count", "primary_bot", "success_rate"}); err != nil {
		return err
	}
	for _, pf := range rep.PathFrequency {
		rec := []string{
			pf.Path,
			strconv.Itoa(pf.CrawlCount),
			pf.PrimaryBot,
			strconv.FormatFloat(pf.SuccessRate, 'f', 2, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	fmt.Fprintln(w)

	if err := cw.Write([]string{"date", "total_crawls", "successful", "errors_4xx", "errors_5xx", "unique_bots", "total_bytes"}); err != nil {
		return err
	}
	for _, d := range rep.Daily {
		rec := []string{
			d.Date,
			strconv.Itoa(d.TotalCrawls),
			strconv.Itoa(d.Successful),
			strconv.Itoa(d.Errors4xx),
			strconv.Itoa(d.Errors5xx),
			strconv.Itoa(d.UniqueBots),
			strconv.FormatInt(d.TotalBytes, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// IsNoData reports whether err is one of the analyzer's no-data markers.
func IsNoData(err error) bool {
	return errors.Is(err, analyzer.ErrNoBotTraffic) || errors.Is(err, analyzer.ErrNoGooglebotTraffic)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedIntKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
