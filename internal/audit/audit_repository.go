package audit

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/charlesshaw3/SimpleServers/internal/database"
	"github.com/charlesshaw3/SimpleServers/internal/history"
	"github.com/gofrs/uuid/v5"
)

type postgresRepository struct {
	db database.Database
}

func NewPostgresRepository(db database.Database) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Add(ctx context.Context, entry Entry) error {
	return database.DBErr(r.db.ExecInsertBuilder(ctx, r.db.Builder().
		Insert("player_admin_event").
		SetMap(map[string]any{
			"event_id":   entry.EventID,
			"server_id":  entry.ServerID,
			"kind":       string(entry.Kind),
			"subject":    entry.Subject,
			"detail":     entry.Detail,
			"created_on": entry.CreatedOn,
		})))
}

func (r *postgresRepository) Recent(ctx context.Context, serverID uuid.UUID, limit uint64) ([]Entry, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.db.Builder().
		Select("event_id", "server_id", "kind", "subject", "detail", "created_on").
		From("player_admin_event").
		Where(sq.Eq{"server_id": serverID}).
		OrderBy("created_on DESC").
		Limit(limit))
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	entries := []Entry{}

	for rows.Next() {
		var (
			entry Entry
			kind  string
		)

		if errScan := rows.Scan(&entry.EventID, &entry.ServerID, &kind, &entry.Subject,
			&entry.Detail, &entry.CreatedOn); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		entry.Kind = history.Kind(kind)
		entries = append(entries, entry)
	}

	return entries, database.DBErr(rows.Err())
}
