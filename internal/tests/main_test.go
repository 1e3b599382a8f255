package tests_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/charlesshaw3/SimpleServers/internal/tests"
)

var fixture *tests.Fixture //nolint:gochecknoglobals

func TestMain(m *testing.M) {
	flag.Parse()

	if !testing.Short() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute*2)

		testFixture, errFixture := tests.NewFixture(ctx)
		cancel()

		if errFixture != nil {
			fmt.Printf("Postgres tests disabled: %v\n", errFixture)
		} else {
			fixture = testFixture
		}
	}

	code := m.Run()

	if fixture != nil {
		fixture.Close()
	}

	os.Exit(code)
}

func requireDB(t *testing.T) *tests.Fixture {
	t.Helper()

	if fixture == nil {
		t.Skip("postgres unavailable")
	}

	fixture.Reset(t.Context())

	return fixture
}
