// Package audit records administrator initiated player actions per server and serves them back as
// history events.
package audit

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/charlesshaw3/SimpleServers/internal/clock"
	"github.com/charlesshaw3/SimpleServers/internal/history"
	"github.com/gofrs/uuid/v5"
)

var (
	ErrInvalidKind  = errors.New("invalid audit event kind")
	ErrGenerateUUID = errors.New("failed to generate event id")
)

// Entry is a stored admin action.
type Entry struct {
	EventID   uuid.UUID
	ServerID  uuid.UUID
	Kind      history.Kind
	Subject   string
	Detail    string
	CreatedOn time.Time
}

func (e Entry) Event() history.Event {
	return history.Event{
		Timestamp: e.CreatedOn,
		Kind:      e.Kind,
		Subject:   e.Subject,
		Detail:    e.Detail,
		Origin:    history.Admin,
	}
}

type Repository interface {
	Add(ctx context.Context, entry Entry) error
	// Recent returns up to limit entries for the server, newest first.
	Recent(ctx context.Context, serverID uuid.UUID, limit uint64) ([]Entry, error)
}

// Trail is the append only admin action log.
type Trail struct {
	repository Repository
	clock      clock.Clock
}

func NewTrail(repository Repository, clk clock.Clock) Trail {
	return Trail{repository: repository, clock: clk}
}

func (t Trail) Record(ctx context.Context, serverID uuid.UUID, kind history.Kind, subject string, detail string) error {
	if !kind.Valid() {
		return ErrInvalidKind
	}

	eventID, errID := uuid.NewV4()
	if errID != nil {
		return errors.Join(errID, ErrGenerateUUID)
	}

	return t.repository.Add(ctx, Entry{
		EventID:   eventID,
		ServerID:  serverID,
		Kind:      kind,
		Subject:   subject,
		Detail:    detail,
		CreatedOn: t.clock.Now().UTC(),
	})
}

// Recent returns the latest admin events for a server, newest first. A limit <= 0 returns nothing.
func (t Trail) Recent(ctx context.Context, serverID uuid.UUID, limit int) ([]history.Event, error) {
	events := []history.Event{}
	if limit <= 0 {
		return events, nil
	}

	entries, errEntries := t.repository.Recent(ctx, serverID, uint64(limit))
	if errEntries != nil {
		return nil, errEntries
	}

	for _, entry := range entries {
		events = append(events, entry.Event())
	}

	return events, nil
}

type memoryRepository struct {
	mu      *sync.RWMutex
	entries map[uuid.UUID][]Entry
}

// NewMemoryRepository keeps events for the life of the process only.
func NewMemoryRepository() Repository {
	return &memoryRepository{mu: &sync.RWMutex{}, entries: map[uuid.UUID][]Entry{}}
}

func (r *memoryRepository) Add(_ context.Context, entry Entry) error {
	r.mu.Lock()
	r.entries[entry.ServerID] = append(r.entries[entry.ServerID], entry)
	r.mu.Unlock()

	return nil
}

func (r *memoryRepository) Recent(_ context.Context, serverID uuid.UUID, limit uint64) ([]Entry, error) {
	r.mu.RLock()
	entries := slices.Clone(r.entries[serverID])
	r.mu.RUnlock()

	slices.Reverse(entries)
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Compare(b.CreatedOn.UnixNano(), a.CreatedOn.UnixNano())
	})

	if uint64(len(entries)) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}
