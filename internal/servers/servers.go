// Package servers is the registry of managed game servers. A server is identified by a UUID and owns
// a root directory holding its configuration, player lists and logs.
package servers

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/charlesshaw3/SimpleServers/internal/database"
	"github.com/gofrs/uuid/v5"
)

const (
	configFileName = "server.properties"
	logDirName     = "logs"
	logFileName    = "latest.log"
)

var (
	ErrNotFound     = errors.New("server not found")
	ErrInvalidName  = errors.New("server name cannot be empty")
	ErrInvalidRoot  = errors.New("server root path cannot be empty")
	ErrDuplicate    = errors.New("server name already exists")
	ErrGenerateUUID = errors.New("failed to generate server id")
)

// NamespaceServer seeds IDs for servers declared in static configuration without an explicit ID so
// they stay stable across restarts.
var NamespaceServer = uuid.Must(uuid.FromString("5b1e9a53-1f7d-4c61-9a7e-6c0f3c9d5a10")) //nolint:gochecknoglobals

type Server struct {
	ServerID     uuid.UUID `json:"server_id"`
	Name         string    `json:"name"`
	RootPath     string    `json:"root_path"`
	RCONAddress  string    `json:"rcon_address"`
	RCONPassword string    `json:"-"`
	CreatedOn    time.Time `json:"created_on"`
	UpdatedOn    time.Time `json:"updated_on"`
}

func NewServer(name string, rootPath string) Server {
	now := time.Now()

	return Server{
		ServerID:  uuid.NewV5(NamespaceServer, strings.TrimSpace(name)),
		Name:      strings.TrimSpace(name),
		RootPath:  rootPath,
		CreatedOn: now,
		UpdatedOn: now,
	}
}

// Path returns the location of a file directly inside the server root.
func (s Server) Path(name string) string {
	return filepath.Join(s.RootPath, name)
}

func (s Server) ConfigPath() string {
	return s.Path(configFileName)
}

func (s Server) LogPath() string {
	return filepath.Join(s.RootPath, logDirName, logFileName)
}

// HasRCON reports whether live console sync is configured.
func (s Server) HasRCON() bool {
	return s.RCONAddress != ""
}

type Repository interface {
	Query(ctx context.Context) ([]Server, error)
	Get(ctx context.Context, serverID uuid.UUID) (Server, error)
	Save(ctx context.Context, server Server) error
	Delete(ctx context.Context, serverID uuid.UUID) error
}

// Registry resolves server references. Lookups of unknown servers fail with ErrNotFound.
type Registry struct {
	repository Repository
}

func NewRegistry(repository Repository) Registry {
	return Registry{repository: repository}
}

func (r Registry) Server(ctx context.Context, serverID uuid.UUID) (Server, error) {
	server, errServer := r.repository.Get(ctx, serverID)
	if errServer != nil {
		return Server{}, notFound(errServer)
	}

	return server, nil
}

func (r Registry) Servers(ctx context.Context) ([]Server, error) {
	return r.repository.Query(ctx)
}

// Resolve accepts either a server ID or a case-insensitive server name.
func (r Registry) Resolve(ctx context.Context, ref string) (Server, error) {
	ref = strings.TrimSpace(ref)

	if serverID, errParse := uuid.FromString(ref); errParse == nil {
		return r.Server(ctx, serverID)
	}

	servers, errServers := r.repository.Query(ctx)
	if errServers != nil {
		return Server{}, errServers
	}

	for _, server := range servers {
		if strings.EqualFold(server.Name, ref) {
			return server, nil
		}
	}

	return Server{}, ErrNotFound
}

// Save validates and stores the server, assigning an ID when missing.
func (r Registry) Save(ctx context.Context, server Server) (Server, error) {
	server.Name = strings.TrimSpace(server.Name)
	server.RootPath = strings.TrimSpace(server.RootPath)

	if server.Name == "" {
		return Server{}, ErrInvalidName
	}

	if server.RootPath == "" {
		return Server{}, ErrInvalidRoot
	}

	if server.ServerID.IsNil() {
		newID, errID := uuid.NewV4()
		if errID != nil {
			return Server{}, errors.Join(errID, ErrGenerateUUID)
		}

		server.ServerID = newID
	}

	now := time.Now()
	if server.CreatedOn.IsZero() {
		server.CreatedOn = now
	}

	server.UpdatedOn = now

	if errSave := r.repository.Save(ctx, server); errSave != nil {
		if errors.Is(errSave, database.ErrDuplicate) {
			return Server{}, errors.Join(errSave, ErrDuplicate)
		}

		return Server{}, errSave
	}

	return server, nil
}

func (r Registry) Delete(ctx context.Context, serverID uuid.UUID) error {
	return notFound(r.repository.Delete(ctx, serverID))
}

func notFound(err error) error {
	if errors.Is(err, database.ErrNoResult) {
		return errors.Join(err, ErrNotFound)
	}

	return err
}
