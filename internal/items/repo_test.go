package items

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
)

// sqlite cannot execute the Postgres migrations, so repo tests create an
// equivalent schema by hand.
var testSchema = []string{
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
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range testSchema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}

func seedSibling(t *testing.T, conn *gorm.DB, childID uuid.UUID, title string, priority *int, createdAt time.Time) *models.Item {
	t.Helper()
	item := &models.Item{
		ID:        uuid.New(),
		Title:     title,
		Status:    enums.ItemStatusPending,
		Priority:  priority,
		ChildID:   &childID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("seed item %s: %v", title, err)
	}
	return item
}

func intPtr(v int) *int { return &v }

func titlesOf(list []models.Item) []string {
	out := make([]string, 0, len(list))
	for i := range list {
		out = append(out, list[i].Title)
	}
	return out
}

func TestListOrdersByPriorityWithMissingLast(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	childID := uuid.New()
	base := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

	seedSibling(t, conn, childID, "second", intPtr(2), base)
	seedSibling(t, conn, childID, "first", intPtr(0), base.Add(time.Minute))
	seedSibling(t, conn, childID, "newest-unranked", nil, base.Add(3*time.Minute))
	seedSibling(t, conn, childID, "oldest-unranked", nil, base.Add(2*time.Minute))

	list, err := repo.List(ctx, ListFilters{ChildID: &childID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{"first", "second", "newest-unranked", "oldest-unranked"}
	got := titlesOf(list)
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestSendToTopShiftsSiblings(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	childID := uuid.New()
	base := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

	seedSibling(t, conn, childID, "a", intPtr(0), base)
	seedSibling(t, conn, childID, "b", intPtr(1), base.Add(time.Minute))
	c := seedSibling(t, conn, childID, "c", intPtr(2), base.Add(2*time.Minute))

	owner, err := ChildOwner(childID)
	if err != nil {
		t.Fatalf("ChildOwner: %v", err)
	}
	if err := repo.SendToTop(ctx, c.ID, owner); err != nil {
		t.Fatalf("SendToTop failed: %v", err)
	}

	list, err := repo.List(ctx, ListFilters{ChildID: &childID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"c", "a", "b"}
	got := titlesOf(list)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}

	var moved models.Item
	if err := conn.First(&moved, "id = ?", c.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if moved.Priority == nil || *moved.Priority != 0 {
		t.Fatalf("expected priority 0, got %v", moved.Priority)
	}
}

func TestFixMissingPrioritiesAppendsInCreationOrder(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	childID := uuid.New()
	otherChild := uuid.New()
	base := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

	seedSibling(t, conn, childID, "ranked", intPtr(4), base)
	older := seedSibling(t, conn, childID, "older", nil, base.Add(time.Minute))
	newer := seedSibling(t, conn, childID, "newer", nil, base.Add(2*time.Minute))
	untouched := seedSibling(t, conn, otherChild, "other-list", nil, base)

	owner, err := ChildOwner(childID)
	if err != nil {
		t.Fatalf("ChildOwner: %v", err)
	}
	fixed, err := repo.FixMissingPriorities(ctx, owner)
	if err != nil {
		t.Fatalf("FixMissingPriorities failed: %v", err)
	}
	if fixed != 2 {
		t.Fatalf("expected 2 fixed rows, got %d", fixed)
	}

	assertPriority := func(id uuid.UUID, want int) {
		t.Helper()
		var row models.Item
		if err := conn.First(&row, "id = ?", id).Error; err != nil {
			t.Fatalf("reload: %v", err)
		}
		if row.Priority == nil || *row.Priority != want {
			t.Fatalf("expected priority %d, got %v", want, row.Priority)
		}
	}
	assertPriority(older.ID, 5)
	assertPriority(newer.ID, 6)

	var other models.Item
	if err := conn.First(&other, "id = ?", untouched.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if other.Priority != nil {
		t.Fatalf("expected other list untouched, got priority %v", other.Priority)
	}
}

func TestUpdatePrioritiesRejectsUnknownItem(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	childID := uuid.New()
	base := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

	known := seedSibling(t, conn, childID, "known", intPtr(0), base)

	err := repo.UpdatePriorities(ctx, []PriorityUpdate{
		{ItemID: known.ID, Priority: 3},
		{ItemID: uuid.New(), Priority: 4},
	})
	if err == nil {
		t.Fatal("expected error for unknown item")
	}

	var reloaded models.Item
	if err := conn.First(&reloaded, "id = ?", known.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Priority == nil || *reloaded.Priority != 0 {
		t.Fatalf("expected rollback to priority 0, got %v", reloaded.Priority)
	}
}
