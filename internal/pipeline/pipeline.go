package pipeline

import (
	"context"
	"strings"

	"github.com/petersawicki/seo-log-analyzer/internal/logging"
	"github.com/petersawicki/seo-log-analyzer/internal/logtail"
	"github.com/petersawicki/seo-log-analyzer/internal/parser"
)

// StartFollowPipeline wires the log tailer to the parser and emits Records
// on the channel in input order. Unparseable lines are dropped without
// surfacing an error; only tailing failures are logged. The records channel
// is closed when the tailer stops.
func StartFollowPipeline(ctx context.Context, path string, p *parser.Parser, logger *logging.Logger, records chan<- parser.Record) {
	t := logtail.New(path, logger)
	lines := make(chan string, 100)

	go func() {
		// Tail will exit when ctx is canceled.
		_ = t.Tail(ctx, lines)
		close(lines)
	}()

	go func() {
		defer close(records)
		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-lines:
				if !ok {
					return
				}
				rec, ok := p.ParseLine(strings.TrimSpace(line))
				if !ok {
					logger.Debugf("skipping unparseable line")
					continue
				}
				select {
				case records <- rec:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}
