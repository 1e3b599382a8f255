package servers

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/charlesshaw3/SimpleServers/internal/database"
	"github.com/gofrs/uuid/v5"
)

type postgresRepository struct {
	db database.Database
}

func NewPostgresRepository(db database.Database) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) selectServers() sq.SelectBuilder {
	return r.db.Builder().
		Select("server_id", "name", "root_path", "rcon_address", "rcon_password", "created_on", "updated_on").
		From("server")
}

func (r *postgresRepository) Query(ctx context.Context) ([]Server, error) {
	rows, errRows := r.db.QueryBuilder(ctx, r.selectServers().OrderBy("name"))
	if errRows != nil {
		return nil, database.DBErr(errRows)
	}

	defer rows.Close()

	servers := []Server{}

	for rows.Next() {
		var server Server
		if errScan := rows.Scan(&server.ServerID, &server.Name, &server.RootPath, &server.RCONAddress,
			&server.RCONPassword, &server.CreatedOn, &server.UpdatedOn); errScan != nil {
			return nil, database.DBErr(errScan)
		}

		servers = append(servers, server)
	}

	return servers, database.DBErr(rows.Err())
}

func (r *postgresRepository) Get(ctx context.Context, serverID uuid.UUID) (Server, error) {
	row, errRow := r.db.QueryRowBuilder(ctx, r.selectServers().Where(sq.Eq{"server_id": serverID}))
	if errRow != nil {
		return Server{}, database.DBErr(errRow)
	}

	var server Server
	if errScan := row.Scan(&server.ServerID, &server.Name, &server.RootPath, &server.RCONAddress,
		&server.RCONPassword, &server.CreatedOn, &server.UpdatedOn); errScan != nil {
		return Server{}, database.DBErr(errScan)
	}

	return server, nil
}

func (r *postgresRepository) Save(ctx context.Context, server Server) error {
	return database.DBErr(r.db.ExecInsertBuilder(ctx, r.db.Builder().
		Insert("server").
		SetMap(map[string]any{
			"server_id":     server.ServerID,
			"name":          server.Name,
			"root_path":     server.RootPath,
			"rcon_address":  server.RCONAddress,
			"rcon_password": server.RCONPassword,
			"created_on":    server.CreatedOn,
			"updated_on":    server.UpdatedOn,
		}).
		Suffix(`ON CONFLICT (server_id) DO UPDATE SET name = EXCLUDED.name, root_path = EXCLUDED.root_path,
			rcon_address = EXCLUDED.rcon_address, rcon_password = EXCLUDED.rcon_password,
			updated_on = EXCLUDED.updated_on`)))
}

func (r *postgresRepository) Delete(ctx context.Context, serverID uuid.UUID) error {
	count, errDelete := r.db.ExecDeleteBuilder(ctx, r.db.Builder().
		Delete("server").
		Where(sq.Eq{"server_id": serverID}))
	if errDelete != nil {
		return database.DBErr(errDelete)
	}

	if count == 0 {
		return database.ErrNoResult
	}

	return nil
}

// memoryRepository serves servers declared in static configuration when no database is configured.
type memoryRepository struct {
	mu      *sync.RWMutex
	servers map[uuid.UUID]Server
}

func NewMemoryRepository(servers ...Server) Repository {
	repo := &memoryRepository{mu: &sync.RWMutex{}, servers: map[uuid.UUID]Server{}}
	for _, server := range servers {
		repo.servers[server.ServerID] = server
	}

	return repo
}

func (r *memoryRepository) Query(_ context.Context) ([]Server, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	servers := make([]Server, 0, len(r.servers))
	for _, server := range r.servers {
		servers = append(servers, server)
	}

	slices.SortFunc(servers, func(a, b Server) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return servers, nil
}

func (r *memoryRepository) Get(_ context.Context, serverID uuid.UUID) (Server, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	server, found := r.servers[serverID]
	if !found {
		return Server{}, ErrNotFound
	}

	return server, nil
}

func (r *memoryRepository) Save(_ context.Context, server Server) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for existingID, existing := range r.servers {
		if existingID != server.ServerID && strings.EqualFold(existing.Name, server.Name) {
			return ErrDuplicate
		}
	}

	if existing, found := r.servers[server.ServerID]; found {
		server.CreatedOn = existing.CreatedOn
	}

	r.servers[server.ServerID] = server

	return nil
}

func (r *memoryRepository) Delete(_ context.Context, serverID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.servers[serverID]; !found {
		return ErrNotFound
	}

	delete(r.servers, serverID)

	return nil
}
