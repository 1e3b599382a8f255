// Package runtimelog derives player activity from the text of a server's live session log.
//
// Extraction is best effort. Lines that do not look like one of the recognised player events are
// ignored, and log timestamps only carry a time of day, so events are placed on the current UTC date.
// A log that spans midnight will therefore report its earlier lines a day late.
package runtimelog

import (
	"bufio"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/charlesshaw3/SimpleServers/internal/clock"
	"github.com/charlesshaw3/SimpleServers/internal/history"
	"github.com/charlesshaw3/SimpleServers/internal/identity"
	"github.com/charlesshaw3/SimpleServers/pkg/log"
)

const maxLineLength = 1024 * 1024

// Result holds the extracted events in chronological order and the names of players still connected
// when the log ends, sorted.
type Result struct {
	Events []history.Event
	Online []string
}

type Extractor interface {
	Extract(text string, maxEvents int) Result
}

type matcher struct {
	kind    history.Kind
	pattern *regexp.Regexp
	online  int
	detail  func(match []string) string
}

const (
	onlineKeep = iota
	onlineAdd
	onlineRemove
)

// PatternExtractor matches each line against a fixed set of regular expressions, first match wins.
type PatternExtractor struct {
	clock    clock.Clock
	stamp    *regexp.Regexp
	matchers []matcher
}

func NewPatternExtractor(clk clock.Clock) *PatternExtractor {
	const name = `([A-Za-z0-9_]{2,16})`

	return &PatternExtractor{
		clock: clk,
		stamp: regexp.MustCompile(`^\[([0-9]{2}):([0-9]{2}):([0-9]{2})\]`),
		matchers: []matcher{
			{
				kind:    history.PlayerJoin,
				pattern: regexp.MustCompile(`\]: ` + name + ` joined the game`),
				online:  onlineAdd,
				detail:  func([]string) string { return "joined the game" },
			},
			{
				kind:    history.PlayerLeave,
				pattern: regexp.MustCompile(`\]: ` + name + ` left the game`),
				online:  onlineRemove,
				detail:  func([]string) string { return "left the game" },
			},
			{
				kind:    history.PlayerDisconnect,
				pattern: regexp.MustCompile(`\]: ` + name + ` lost connection: (.+)$`),
				online:  onlineRemove,
				detail:  func(match []string) string { return strings.TrimSpace(match[2]) },
			},
			{
				kind:    history.PlayerCommand,
				pattern: regexp.MustCompile(`\]: ` + name + ` issued server command: (.+)$`),
				online:  onlineKeep,
				detail:  func(match []string) string { return strings.TrimSpace(match[2]) },
			},
		},
	}
}

// Extract scans text line by line. Only the most recent maxEvents events are returned, a maxEvents of
// zero or less keeps all of them.
func (p *PatternExtractor) Extract(text string, maxEvents int) Result {
	var (
		now     = p.clock.Now().UTC()
		events  []history.Event
		online  = map[string]string{}
		scanner = bufio.NewScanner(strings.NewReader(text))
	)

	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		for _, match := range p.matchers {
			groups := match.pattern.FindStringSubmatch(line)
			if groups == nil {
				continue
			}

			subject := groups[1]

			events = append(events, history.Event{
				Timestamp: p.timestamp(line, now),
				Kind:      match.kind,
				Subject:   subject,
				Detail:    match.detail(groups),
				Origin:    history.Runtime,
			})

			switch match.online {
			case onlineAdd:
				online[identity.Key(subject)] = subject
			case onlineRemove:
				delete(online, identity.Key(subject))
			}

			break
		}
	}

	if errScan := scanner.Err(); errScan != nil {
		slog.Warn("Stopped reading runtime log early", log.ErrAttr(errScan))
	}

	if maxEvents > 0 && len(events) > maxEvents {
		events = events[len(events)-maxEvents:]
	}

	names := make([]string, 0, len(online))
	for _, name := range online {
		names = append(names, name)
	}

	slices.Sort(names)

	if events == nil {
		events = []history.Event{}
	}

	return Result{Events: events, Online: names}
}

func (p *PatternExtractor) timestamp(line string, now time.Time) time.Time {
	groups := p.stamp.FindStringSubmatch(line)
	if groups == nil {
		return now
	}

	clockTime, errParse := time.Parse(time.TimeOnly, groups[1]+":"+groups[2]+":"+groups[3])
	if errParse != nil {
		return now
	}

	return time.Date(now.Year(), now.Month(), now.Day(),
		clockTime.Hour(), clockTime.Minute(), clockTime.Second(), 0, time.UTC)
}
