package servers

import (
	"bufio"
	"bytes"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charlesshaw3/SimpleServers/internal/metrics"
	"github.com/charlesshaw3/SimpleServers/pkg/fs"
	"github.com/charlesshaw3/SimpleServers/pkg/log"
	"github.com/magiconair/properties"
)

const (
	DefaultCapacity = 20
	MaxCapacity     = 500000
	capacityKey     = "max-players"
)

// Capacity reads the max-players setting from a server.properties file. Keys are compared without
// regard to case and the first matching line in file order wins. Each line is parsed on its own so a
// malformed line elsewhere does not hide the setting. The value is read up to the first non digit.
// Missing files, a missing key and values outside (0, MaxCapacity] all yield fallback.
func Capacity(path string, fallback int) int {
	if !fs.Exists(path) {
		return fallback
	}

	body, errRead := os.ReadFile(path)
	if errRead != nil {
		slog.Warn("Server properties unreadable, using default capacity",
			slog.String("path", path), log.ErrAttr(errRead))
		metrics.DegradedRead(configFileName)

		return fallback
	}

	loader := properties.Loader{
		Encoding:         properties.UTF8,
		DisableExpansion: true,
	}

	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '!' {
			continue
		}

		props, errLine := loader.LoadBytes([]byte(line))
		if errLine != nil {
			slog.Debug("Skipping malformed server property", slog.String("path", path), log.ErrAttr(errLine))

			continue
		}

		for _, key := range props.Keys() {
			if !strings.EqualFold(strings.TrimSpace(key), capacityKey) {
				continue
			}

			value, _ := props.Get(key)

			capacity, ok := leadingInt(value)
			if !ok || capacity <= 0 || capacity > MaxCapacity {
				return fallback
			}

			return capacity
		}
	}

	return fallback
}

// leadingInt parses an optional sign followed by digits, ignoring anything after them.
func leadingInt(value string) (int, bool) {
	value = strings.TrimSpace(value)

	end := 0
	if end < len(value) && (value[end] == '+' || value[end] == '-') {
		end++
	}

	start := end
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}

	if end == start {
		return 0, false
	}

	number, errAtoi := strconv.Atoi(value[:end])
	if errAtoi != nil {
		return 0, false
	}

	return number, true
}
