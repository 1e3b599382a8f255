// Package tests holds the shared postgres fixture and HTTP helpers used by the integration tests.
package tests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charlesshaw3/SimpleServers/internal/database"
	"github.com/charlesshaw3/SimpleServers/internal/httphelper"
	"github.com/charlesshaw3/SimpleServers/pkg/log"
	"github.com/docker/docker/api/types/container"
	"github.com/gin-gonic/gin"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const postgresImage = "postgres:17-alpine"

var ErrContainer = errors.New("failed to bring up test container")

type Fixture struct {
	container testcontainers.Container
	Database  database.Database
	DSN       string
}

// NewFixture starts a throwaway postgres container with the schema applied.
func NewFixture(ctx context.Context) (*Fixture, error) {
	const testInfo = "simpleservers-test"
	username, password, dbName := testInfo, testInfo, testInfo

	cont, errContainer := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{"5432/tcp"},
			HostConfigModifier: func(config *container.HostConfig) {
				config.AutoRemove = true
			},
			Env: map[string]string{
				"POSTGRES_DB":       dbName,
				"POSTGRES_USER":     username,
				"POSTGRES_PASSWORD": password,
			},
			WaitingFor: wait.
				ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if errContainer != nil {
		return nil, errors.Join(errContainer, ErrContainer)
	}

	host, errHost := cont.Host(ctx)
	if errHost != nil {
		return nil, errors.Join(errHost, ErrContainer)
	}

	port, errPort := cont.MappedPort(ctx, "5432")
	if errPort != nil {
		return nil, errors.Join(errPort, ErrContainer)
	}

	dsn := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s", username, password, host, port.Port(), dbName)

	conn := database.New(dsn, true, false)
	if errConnect := conn.Connect(ctx); errConnect != nil {
		return nil, errConnect
	}

	return &Fixture{container: cont, Database: conn, DSN: dsn}, nil
}

func (f *Fixture) Close() {
	termCtx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	log.Closer(f.Database)

	if errTerm := f.container.Terminate(termCtx); errTerm != nil {
		panic(fmt.Sprintf("Failed to terminate test container: %v", errTerm))
	}
}

// Reset empties every table while keeping the schema.
func (f *Fixture) Reset(ctx context.Context) {
	const query = `DO
$do$
BEGIN
   EXECUTE
   (SELECT 'TRUNCATE TABLE ' || string_agg(oid::regclass::text, ', ') || ' CASCADE'
    FROM   pg_class
    WHERE  relkind = 'r'
    AND    relnamespace = 'public'::regnamespace
    AND    relname <> '_migration'
   );
END
$do$;`

	if err := f.Database.Exec(ctx, query); err != nil {
		panic(err)
	}
}

// CreateRouter returns a bare router in test mode.
func CreateRouter() *gin.Engine {
	return httphelper.CreateRouter(httphelper.RouterOpts{LogLevel: log.Error, Mode: gin.TestMode})
}
