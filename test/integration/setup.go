package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	repo "github.com/gatherbot/gather/internal/adapters/repository/postgres"
	"github.com/gatherbot/gather/internal/core/ports"
)

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	dbName := "testdb"
	user := "user"
	password := "password"

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func applyMigrations(db *sql.DB) error {
	dirPath := "../../internal/adapters/repository/postgres/migrations"

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}

		fullPath := filepath.Join(dirPath, entry.Name())
		content, err := os.ReadFile(fullPath)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		_, err = db.Exec(string(content))
		if err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

type TestStore struct {
	DB          *sql.DB
	Repo        ports.PollRepository
	DBContainer testcontainers.Container
}

func setupTestStore(t *testing.T) *TestStore {
	t.Helper()
	ctx := context.Background()

	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)

	err = applyMigrations(db)
	require.NoError(t, err)

	return &TestStore{
		DB:          db,
		Repo:        repo.NewPollRepository(db),
		DBContainer: dbContainer,
	}
}

func (s *TestStore) Teardown(t *testing.T) {
	s.DB.Close()
	if err := s.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

func (s *TestStore) countVotes(t *testing.T, pollID int64) int {
	t.Helper()
	var count int
	err := s.DB.QueryRow("SELECT COUNT(*) FROM votes WHERE poll_id = $1", pollID).Scan(&count)
	require.NoError(t, err)
	return count
}

type pushRecord struct {
	Location string
	Token    string
	Text     string
	Buttons  []ports.Button
}

// fakeGateway records pushes so scenarios can assert on the exact
// renderings every surface received.
type fakeGateway struct {
	mu        sync.Mutex
	pushes    []pushRecord
	answered  []string
	pickers   map[string][]ports.ShareResult
	nextToken int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{pickers: make(map[string][]ports.ShareResult)}
}

func (g *fakeGateway) SendMessage(ctx context.Context, location, text string, buttons []ports.Button) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextToken++
	return fmt.Sprintf("m%d", g.nextToken), nil
}

func (g *fakeGateway) EditMessage(ctx context.Context, location, token, text string, buttons []ports.Button) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pushes = append(g.pushes, pushRecord{Location: location, Token: token, Text: text, Buttons: buttons})
	return nil
}

func (g *fakeGateway) EditInlineMessage(ctx context.Context, token, text string, buttons []ports.Button) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pushes = append(g.pushes, pushRecord{Token: token, Text: text, Buttons: buttons})
	return nil
}

func (g *fakeGateway) AnswerEvent(ctx context.Context, eventID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answered = append(g.answered, eventID)
	return nil
}

func (g *fakeGateway) AnswerSharePicker(ctx context.Context, eventID string, results []ports.ShareResult) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pickers[eventID] = results
	return nil
}

// lastPushes returns the most recent push per token, keyed by token.
func (g *fakeGateway) lastPushes() map[string]pushRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]pushRecord)
	for _, p := range g.pushes {
		out[p.Token] = p
	}
	return out
}
