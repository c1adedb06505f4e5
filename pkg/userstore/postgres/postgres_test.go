package postgres

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rhuss/basicgate/pkg/userstore"
)

func init() {
	// Configure testcontainers to use podman.
	// Detect the podman socket from `podman machine inspect`.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if no container runtime is available.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	if _, err := exec.LookPath("podman"); err != nil {
		if _, err := exec.LookPath("docker"); err != nil {
			t.Skip("no container runtime found, skipping integration tests")
		}
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("basicgate_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// sha256("secret"), cheap to verify in tests.
const secretHash = "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b"

func makeTestUser(id, email string, created time.Time) *userstore.User {
	return &userstore.User{
		UserID:       id,
		UserEmail:    email,
		PasswordHash: secretHash,
		FirstName:    "Bob",
		LastName:     "Builder",
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestPostgres_SaveAndGet(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	created := time.Date(2024, 9, 2, 15, 0, 1, 0, time.UTC)
	if err := store.Save(ctx, makeTestUser("u1", "bob@x.com", created)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Email() != "bob@x.com" {
		t.Errorf("Email = %q, want %q", got.Email(), "bob@x.com")
	}
	if got.DisplayName() != "Bob Builder" {
		t.Errorf("DisplayName = %q, want %q", got.DisplayName(), "Bob Builder")
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if !got.IsValidPassword("secret") {
		t.Error("expected stored hash to verify")
	}
}

func TestPostgres_GetNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_FindByEmailOrdersOldestFirst(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 9, 2, 15, 0, 0, 0, time.UTC)
	store.Save(ctx, makeTestUser("newer", "bob@x.com", base.Add(time.Hour)))
	store.Save(ctx, makeTestUser("older", "bob@x.com", base))
	store.Save(ctx, makeTestUser("other", "alice@x.com", base))

	users, err := store.FindByAttribute(ctx, userstore.AttrEmail, "bob@x.com")
	if err != nil {
		t.Fatalf("FindByAttribute failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(users))
	}
	if users[0].ID() != "older" || users[1].ID() != "newer" {
		t.Errorf("order = [%s %s], want [older newer]", users[0].ID(), users[1].ID())
	}
}

func TestPostgres_FindNoMatch(t *testing.T) {
	store := setupTestDB(t)

	users, err := store.FindByAttribute(context.Background(), userstore.AttrEmail, "nobody@x.com")
	if err != nil {
		t.Fatalf("FindByAttribute failed: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("expected no users, got %d", len(users))
	}
}

func TestPostgres_FindUnknownAttribute(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.FindByAttribute(context.Background(), "password_hash", secretHash)
	if !errors.Is(err, userstore.ErrUnknownAttribute) {
		t.Errorf("expected ErrUnknownAttribute, got %v", err)
	}
}

func TestPostgres_SaveUpdates(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	u := makeTestUser("u1", "bob@x.com", time.Now().UTC())
	store.Save(ctx, u)

	u.UserEmail = "robert@x.com"
	if err := store.Save(ctx, u); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, _ := store.Get(ctx, "u1")
	if got.Email() != "robert@x.com" {
		t.Errorf("Email = %q, want %q", got.Email(), "robert@x.com")
	}
	n, _ := store.Count(ctx)
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestPostgres_DeleteAndList(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	store.Save(ctx, makeTestUser("a", "a@x.com", now))
	store.Save(ctx, makeTestUser("b", "b@x.com", now.Add(time.Second)))

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "a"); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("second Delete: expected ErrNotFound, got %v", err)
	}

	users, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 1 || users[0].ID() != "b" {
		t.Errorf("List = %v, want only b", users)
	}
}

func TestPostgres_HealthCheck(t *testing.T) {
	store := setupTestDB(t)

	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}
