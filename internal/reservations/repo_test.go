package reservations

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mwhitfield/wishlist-backend/pkg/db"
	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
)

// schema mirrors the goose migrations closely enough for repo-level tests;
// sqlite cannot run the Postgres DDL directly.
var testSchema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		route TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_login_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE children (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		age INT,
		route TEXT NOT NULL,
		target_budget NUMERIC,
		parent_ids TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE items (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		url TEXT,
		price NUMERIC NOT NULL DEFAULT 0,
		image_url TEXT,
		image_content_type TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		priority INT,
		from_santa BOOLEAN NOT NULL DEFAULT FALSE,
		child_id TEXT,
		parent_id TEXT,
		approved_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE reservations (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		reserved_by TEXT NOT NULL,
		purchased BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX reservations_item_id_key ON reservations (item_id)`,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	for _, stmt := range testSchema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{ID: uuid.New(), Name: name, Role: enums.RoleFamilyMember}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func seedItem(t *testing.T, conn *gorm.DB) *models.Item {
	t.Helper()
	childID := uuid.New()
	item := &models.Item{
		ID:      uuid.New(),
		Title:   "toy",
		Status:  enums.ItemStatusApproved,
		ChildID: &childID,
	}
	require.NoError(t, conn.Create(item).Error)
	return item
}

func TestCreateEnforcesOneReservationPerItem(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	item := seedItem(t, conn)
	first := seedUser(t, conn, "Grandma Sue")
	second := seedUser(t, conn, "Uncle Bob")

	require.NoError(t, repo.Create(ctx, &models.Reservation{ID: uuid.New(), ItemID: item.ID, ReservedBy: first.ID}))

	err := repo.Create(ctx, &models.Reservation{ID: uuid.New(), ItemID: item.ID, ReservedBy: second.ID})
	require.Error(t, err, "second reservation must violate the unique index")
	if !db.IsUniqueViolation(err, "reservations_item_id_key") {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestFindByItemAndPurchased(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	item := seedItem(t, conn)
	user := seedUser(t, conn, "Grandma Sue")
	reservation := &models.Reservation{ID: uuid.New(), ItemID: item.ID, ReservedBy: user.ID, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, reservation))

	found, err := repo.FindByItem(ctx, item.ID)
	require.NoError(t, err)
	if found.ID != reservation.ID {
		t.Fatalf("expected reservation %s, got %s", reservation.ID, found.ID)
	}
	if found.Reserver == nil || found.Reserver.Name != "Grandma Sue" {
		t.Fatalf("expected reserver expansion, got %+v", found.Reserver)
	}

	require.NoError(t, repo.SetPurchased(ctx, reservation.ID, true))
	found, err = repo.FindByID(ctx, reservation.ID)
	require.NoError(t, err)
	if !found.Purchased {
		t.Fatal("expected purchased flag persisted")
	}
}

func TestListFilters(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	itemA := seedItem(t, conn)
	itemB := seedItem(t, conn)
	sue := seedUser(t, conn, "Grandma Sue")
	bob := seedUser(t, conn, "Uncle Bob")

	require.NoError(t, repo.Create(ctx, &models.Reservation{ID: uuid.New(), ItemID: itemA.ID, ReservedBy: sue.ID}))
	require.NoError(t, repo.Create(ctx, &models.Reservation{ID: uuid.New(), ItemID: itemB.ID, ReservedBy: bob.ID}))

	mine, err := repo.List(ctx, ListFilters{ReservedBy: &sue.ID})
	require.NoError(t, err)
	if len(mine) != 1 || mine[0].ReservedBy != sue.ID {
		t.Fatalf("unexpected list %+v", mine)
	}
	if mine[0].Item == nil || mine[0].Item.Title != "toy" {
		t.Fatalf("expected item expansion on listing, got %+v", mine[0].Item)
	}
	if mine[0].Reserver == nil || mine[0].Reserver.Name != "Grandma Sue" {
		t.Fatalf("expected reserver expansion on listing, got %+v", mine[0].Reserver)
	}

	byChild, err := repo.List(ctx, ListFilters{ChildID: itemA.ChildID})
	require.NoError(t, err)
	if len(byChild) != 1 || byChild[0].ItemID != itemA.ID {
		t.Fatalf("unexpected list %+v", byChild)
	}

	all, err := repo.List(ctx, ListFilters{})
	require.NoError(t, err)
	if len(all) != 2 {
		t.Fatalf("expected 2 reservations, got %d", len(all))
	}
}
