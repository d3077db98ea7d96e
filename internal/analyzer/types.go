package analyzer

// DateRange holds the earliest and latest timestamps seen across the full
// record set, rendered in the combined-log timestamp layout.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Summary is the high-level crawl budget overview.
type Summary struct {
	TotalRequests int     `json:"total_requests"`
	BotRequests   int     `json:"bot_requests"`
	BotPercentage float64 `json:"bot_percentage"`
	UniqueBots    int     `json:"unique_bots"`
	UniquePages   int     `json:"unique_pages_crawled"`

	// DateRange is nil when no records were parsed at all.
	DateRange *DateRange `json:"date_range,omitempty"`
}

// BotStats is one row of the per-bot traffic breakdown.
type BotStats struct {
	BotType            string  `json:"bot_type"`
	TotalRequests      int     `json:"total_requests"`
	SuccessfulRequests int     `json:"successful_requests"`
	TotalBytes         int64   `json:"total_bytes"`
	SuccessRate        float64 `json:"success_rate"`
}

// PathCount is a path with its request count.
type PathCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// GooglebotReport is the Googlebot-specific deep dive.
type GooglebotReport struct {
	TotalCrawls int `json:"total_crawls"`
	// Variants counts crawls per bot_type within the Googlebot subset,
	// separating mobile from desktop crawlers.
	Variants    map[string]int `json:"mobile_vs_desktop"`
	CrawlByHour map[int]int    `json:"crawl_by_hour"`
	TopPaths    []PathCount    `json:"top_crawled_paths"`
	StatusCodes map[int]int    `json:"status_codes"`
	AvgBytes    float64        `json:"avg_response_size"`
}

// StatusBreakdown cross-tabulates one bot type against the status codes it
// received. Codes holds the raw per-code counts; the four range columns
// cover 2xx through 5xx with inclusive lower and exclusive upper bounds.
// Codes outside 100-599 appear in Codes but in none of the four columns.
type StatusBreakdown struct {
	BotType  string      `json:"bot_type"`
	Codes    map[int]int `json:"codes"`
	Count2xx int         `json:"2xx"`
	Count3xx int         `json:"3xx"`
	Count4xx int         `json:"4xx"`
	Count5xx int         `json:"5xx"`
}

// PathFrequency is one row of the per-path crawl frequency report.
type PathFrequency struct {
	Path       string `json:"path"`
	CrawlCount int    `json:"crawl_count"`
	// PrimaryBot is the most frequent bot type on this path; ties go to
	// the bot type encountered first in record order.
	PrimaryBot  string  `json:"primary_bot"`
	SuccessRate float64 `json:"success_rate"`
}

// DailyCrawls is one day of the crawl time series.
type DailyCrawls struct {
	Date             string `json:"date"`
	TotalCrawls      int    `json:"total_crawls"`
	SuccessfulCrawls int    `json:"successful_crawls"`
}

// ResponseSizeStats describes response sizes over the bot subset. Byte
// counts stand in for response time, which access logs do not carry.
type ResponseSizeStats struct {
	AvgBytes       float64 `json:"avg_bytes"`
	MedianBytes    float64 `json:"median_bytes"`
	MaxBytes       int64   `json:"max_bytes"`
	MinBytes       int64   `json:"min_bytes"`
	TotalBandwidth int64   `json:"total_bandwidth"`
}

// ErrorPage is one path that returned a given error status to bots.
type ErrorPage struct {
	Path  string `json:"path"`
	Count int    `json:"error_count"`
	// BotsAffected lists the distinct bot types that hit the error, in
	// first-encounter order.
	BotsAffected []string `json:"bots_affected"`
}

// DailyReport is one day of the daily crawl report.
type DailyReport struct {
	Date        string `json:"date"`
	TotalCrawls int    `json:"total_crawls"`
	Successful  int    `json:"successful"`
	Errors4xx   int    `json:"errors_4xx"`
	Errors5xx   int    `json:"errors_5xx"`
	UniqueBots  int    `json:"unique_bots"`
	TotalBytes  int64  `json:"total_bytes"`
}
