package playerlist

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charlesshaw3/SimpleServers/internal/metrics"
	"github.com/charlesshaw3/SimpleServers/pkg/log"
	ssfs "github.com/charlesshaw3/SimpleServers/pkg/fs"
)

var ErrEncode = errors.New("failed to encode player list")

// Store reads and writes the list files under a single server root directory.
type Store struct {
	root string
}

func NewStore(root string) Store {
	return Store{root: root}
}

func (s Store) Path(file File) string {
	return filepath.Join(s.root, string(file))
}

func (s Store) Operators() []Operator {
	return load[Operator](s.Path(OperatorsFile))
}

func (s Store) SaveOperators(entries []Operator) error {
	return save(s.Path(OperatorsFile), entries)
}

func (s Store) Whitelist() []WhitelistEntry {
	return load[WhitelistEntry](s.Path(WhitelistFile))
}

func (s Store) SaveWhitelist(entries []WhitelistEntry) error {
	return save(s.Path(WhitelistFile), entries)
}

func (s Store) PlayerBans() []PlayerBan {
	return load[PlayerBan](s.Path(PlayerBansFile))
}

func (s Store) SavePlayerBans(entries []PlayerBan) error {
	return save(s.Path(PlayerBansFile), entries)
}

func (s Store) IPBans() []IPBan {
	return load[IPBan](s.Path(IPBansFile))
}

func (s Store) SaveIPBans(entries []IPBan) error {
	return save(s.Path(IPBansFile), entries)
}

// load never fails. A missing file is the normal state before the first write, a file that is not a
// JSON array is logged and counted before falling back to an empty list. Entries with a mistyped field
// are kept with that field zeroed so a later save does not erase their neighbours.
func load[T any](path string) []T {
	body, errRead := os.ReadFile(path)
	if errRead != nil {
		if !errors.Is(errRead, fs.ErrNotExist) {
			degraded(path, errRead)
		}

		return []T{}
	}

	var items []json.RawMessage
	if errDecode := json.Unmarshal(body, &items); errDecode != nil {
		degraded(path, errDecode)

		return []T{}
	}

	entries := make([]T, 0, len(items))

	var errEntries error

	for _, item := range items {
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			continue
		}

		var entry T
		if errEntry := json.Unmarshal(item, &entry); errEntry != nil {
			errEntries = errors.Join(errEntries, errEntry)

			// A type error on a named field still leaves the rest of the entry decoded.
			var typeErr *json.UnmarshalTypeError
			if !errors.As(errEntry, &typeErr) || typeErr.Field == "" {
				continue
			}
		}

		entries = append(entries, entry)
	}

	if errEntries != nil {
		slog.Warn("Player list has unreadable entries", slog.String("path", path),
			slog.Int("kept", len(entries)), slog.Int("total", len(items)), log.ErrAttr(errEntries))
		metrics.DegradedRead(filepath.Base(path))
	}

	return entries
}

func degraded(path string, err error) {
	slog.Warn("Player list unreadable, using empty list", slog.String("path", path), log.ErrAttr(err))
	metrics.DegradedRead(filepath.Base(path))
}

// save writes entries as an indented JSON array terminated by a newline. HTML characters are written
// as is since the server itself reads these files.
func save[T any](path string, entries []T) error {
	if entries == nil {
		entries = []T{}
	}

	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if errEncode := encoder.Encode(entries); errEncode != nil {
		return errors.Join(errEncode, ErrEncode)
	}

	return ssfs.WriteAtomic(path, buf.Bytes(), 0o644)
}
