package parser

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Combined log format example:
// 127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET /index.html HTTP/1.1" 200 2326 "-" "Mozilla/4.08"
var (
	combinedRe = regexp.MustCompile(`^(\S+) - - \[([^\]]+)\] "(\w+) (\S+) HTTP/[\d.]+" (\d{3}) (\d+|-) "([^"]*)" "([^"]*)"`)

	timeLayout         = "02/Jan/2006:15:04:05 -0700"
	timeLayoutNoOffset = "02/Jan/2006:15:04:05"
)

// Parser turns raw combined-log lines into Records using an immutable bot
// pattern table. A Parser is safe for concurrent use.
type Parser struct {
	bots Table
}

// New creates a Parser with the default bot pattern table.
func New() *Parser {
	return &Parser{bots: DefaultBotPatterns}
}

// NewWithTable creates a Parser classifying against a custom table.
func NewWithTable(t Table) *Parser {
	return &Parser{bots: t}
}

// ParseLine parses one log line. It reports false for any line that does
// not match the combined format or whose timestamp cannot be parsed;
// malformed input is expected, not an error.
func (p *Parser) ParseLine(line string) (Record, bool) {
	m := combinedRe.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}

	ts, ok := parseTimestamp(m[2])
	if !ok {
		return Record{}, false
	}

	status, err := strconv.Atoi(m[5])
	if err != nil {
		return Record{}, false
	}

	var bytes int64
	if m[6] != "-" {
		bytes, err = strconv.ParseInt(m[6], 10, 64)
		if err != nil {
			return Record{}, false
		}
	}

	r := Record{
		ClientIP:  m[1],
		Timestamp: ts,
		Method:    m[3],
		Path:      m[4],
		Status:    status,
		Bytes:     bytes,
		Referer:   m[7],
		UserAgent: m[8],
	}
	r.BotType = p.bots.Classify(r.UserAgent)
	r.IsBot = r.BotType != ""
	r.deriveFields()
	return r, true
}

// parseTimestamp tries the offset-carrying layout first, then retries with
// the offset token stripped. No other layouts are attempted.
func parseTimestamp(raw string) (time.Time, bool) {
	if ts, err := time.Parse(timeLayout, raw); err == nil {
		return ts, true
	}
	datetime, _, _ := strings.Cut(raw, " ")
	ts, err := time.Parse(timeLayoutNoOffset, datetime)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

const maxLineBytes = 1024 * 1024

// lineReader yields input lines one at a time. A line longer than
// maxLineBytes is consumed to its newline and returned truncated, so an
// oversized entry costs one skipped line instead of ending the batch.
type lineReader struct {
	br *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{br: bufio.NewReaderSize(r, 64*1024)}
}

func (lr *lineReader) next() (string, bool) {
	frag, isPrefix, err := lr.br.ReadLine()
	if err != nil {
		return "", false
	}
	if !isPrefix {
		return string(frag), true
	}
	buf := append([]byte(nil), frag...)
	for isPrefix {
		frag, isPrefix, err = lr.br.ReadLine()
		if err != nil {
			break
		}
		if len(buf) < maxLineBytes {
			buf = append(buf, frag...)
		}
	}
	if len(buf) > maxLineBytes {
		buf = buf[:maxLineBytes]
	}
	return string(buf), true
}

// ParseAll reads r line by line and returns the Records in input order.
// limit bounds the number of lines examined, not the number parsed; a
// non-positive limit reads everything. Unparseable lines are skipped, so an
// empty or fully-malformed input yields an empty, valid result.
func (p *Parser) ParseAll(r io.Reader, limit int) []Record {
	var records []Record
	lr := newLineReader(r)

	read := 0
	for {
		if limit > 0 && read >= limit {
			break
		}
		line, ok := lr.next()
		if !ok {
			break
		}
		read++
		if rec, ok := p.ParseLine(strings.TrimSpace(line)); ok {
			records = append(records, rec)
		}
	}
	return records
}

// ParseString parses a multi-line string of log entries.
func (p *Parser) ParseString(s string) []Record {
	return p.ParseAll(strings.NewReader(strings.TrimSpace(s)), 0)
}

const batchLines = 512

type lineBatch struct {
	idx   int
	lines []string
}

// ParseAllConcurrent is ParseAll fanned out over workers. Lines are read
// sequentially into fixed-size batches, parsed in parallel, and reassembled
// in batch order: relative Record order matches input order, which the
// analyzer's first-encountered tie-breaks depend on. The bot table is
// shared read-only across workers.
func (p *Parser) ParseAllConcurrent(r io.Reader, limit, workers int) []Record {
	if workers <= 1 {
		return p.ParseAll(r, limit)
	}

	batches := make(chan lineBatch, workers)

	var (
		mu      sync.Mutex
		results = make(map[int][]Record)
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range batches {
				recs := make([]Record, 0, len(b.lines))
				for _, line := range b.lines {
					if rec, ok := p.ParseLine(strings.TrimSpace(line)); ok {
						recs = append(recs, rec)
					}
				}
				mu.Lock()
				results[b.idx] = recs
				mu.Unlock()
			}
		}()
	}

	lr := newLineReader(r)

	var (
		read  int
		idx   int
		lines = make([]string, 0, batchLines)
	)
	flush := func() {
		if len(lines) == 0 {
			return
		}
		batch := make([]string, len(lines))
		copy(batch, lines)
		batches <- lineBatch{idx: idx, lines: batch}
		idx++
		lines = lines[:0]
	}
	for {
		if limit > 0 && read >= limit {
			break
		}
		line, ok := lr.next()
		if !ok {
			break
		}
		read++
		lines = append(lines, line)
		if len(lines) == batchLines {
			flush()
		}
	}
	flush()
	close(batches)
	wg.Wait()

	var out []Record
	for i := 0; i < idx; i++ {
		out = append(out, results[i]...)
	}
	return out
}
