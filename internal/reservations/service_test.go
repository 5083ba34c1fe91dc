package reservations

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
	"github.com/mwhitfield/wishlist-backend/pkg/types"
)

type stubReservationRepo struct {
	reservation *models.Reservation
	list        []models.Reservation
	findErr     error
	createErr   error

	created   *models.Reservation
	deleted   []uuid.UUID
	purchased map[uuid.UUID]bool
}

func (s *stubReservationRepo) Create(_ context.Context, reservation *models.Reservation) error {
	if s.createErr != nil {
		return s.createErr
	}
	reservation.ID = uuid.New()
	s.created = reservation
	return nil
}

func (s *stubReservationRepo) FindByID(context.Context, uuid.UUID) (*models.Reservation, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.reservation, nil
}

func (s *stubReservationRepo) List(context.Context, ListFilters) ([]models.Reservation, error) {
	return s.list, nil
}

func (s *stubReservationRepo) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubReservationRepo) SetPurchased(_ context.Context, id uuid.UUID, purchased bool) error {
	if s.purchased == nil {
		s.purchased = map[uuid.UUID]bool{}
	}
	s.purchased[id] = purchased
	return nil
}

type stubItemLoader struct {
	item *models.Item
	err  error
}

func (s stubItemLoader) FindByID(context.Context, uuid.UUID) (*models.Item, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.item, nil
}

type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) Notify(_ context.Context, collection, action, _ string) {
	r.events = append(r.events, collection+"."+action)
}

func newReservationService(repo *stubReservationRepo, loader stubItemLoader) (Service, *recordingNotifier) {
	notifier := &recordingNotifier{}
	svc, err := NewService(ServiceParams{Repo: repo, ItemRepo: loader, Notifier: notifier})
	if err != nil {
		panic(err)
	}
	return svc, notifier
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func familyActor() types.Actor {
	return types.Actor{ID: uuid.New(), Role: enums.RoleFamilyMember}
}

func approvedItem() *models.Item {
	childID := uuid.New()
	return &models.Item{ID: uuid.New(), Title: "toy", ChildID: &childID, Status: enums.ItemStatusApproved}
}

func TestReserveSuccess(t *testing.T) {
	repo := &stubReservationRepo{}
	item := approvedItem()
	svc, notifier := newReservationService(repo, stubItemLoader{item: item})
	actor := familyActor()

	dto, err := svc.Reserve(context.Background(), actor, item.ID)
	if err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
	if dto.ReservedBy != actor.ID {
		t.Fatalf("expected reserver %s, got %s", actor.ID, dto.ReservedBy)
	}
	if dto.Item == nil || dto.Item.ID != item.ID {
		t.Fatal("expected item expansion")
	}
	if len(notifier.events) != 1 || notifier.events[0] != "reservations.created" {
		t.Fatalf("unexpected feed events %v", notifier.events)
	}
}

func TestReserveRequiresApprovedItem(t *testing.T) {
	item := approvedItem()
	item.Status = enums.ItemStatusPending
	svc, _ := newReservationService(&stubReservationRepo{}, stubItemLoader{item: item})

	_, err := svc.Reserve(context.Background(), familyActor(), item.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestReserveChildForbidden(t *testing.T) {
	item := approvedItem()
	svc, _ := newReservationService(&stubReservationRepo{}, stubItemLoader{item: item})

	_, err := svc.Reserve(context.Background(), types.Actor{ID: uuid.New(), Role: enums.RoleChild}, item.ID)
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestReserveSantaHiddenFromFamily(t *testing.T) {
	item := approvedItem()
	item.FromSanta = true
	svc, _ := newReservationService(&stubReservationRepo{}, stubItemLoader{item: item})

	_, err := svc.Reserve(context.Background(), familyActor(), item.ID)
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestReserveSantaAllowedForParent(t *testing.T) {
	item := approvedItem()
	item.FromSanta = true
	repo := &stubReservationRepo{}
	svc, _ := newReservationService(repo, stubItemLoader{item: item})

	parent := types.Actor{ID: uuid.New(), Role: enums.RoleParent}
	if _, err := svc.Reserve(context.Background(), parent, item.ID); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
}

func TestReserveOwnParentListRejected(t *testing.T) {
	parent := types.Actor{ID: uuid.New(), Role: enums.RoleParent}
	item := &models.Item{ID: uuid.New(), Title: "socks", ParentID: &parent.ID, Status: enums.ItemStatusApproved}
	svc, _ := newReservationService(&stubReservationRepo{}, stubItemLoader{item: item})

	_, err := svc.Reserve(context.Background(), parent, item.ID)
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestReservePrecheckConflict(t *testing.T) {
	item := approvedItem()
	item.Reservation = &models.Reservation{ID: uuid.New(), ItemID: item.ID, ReservedBy: uuid.New()}
	svc, _ := newReservationService(&stubReservationRepo{}, stubItemLoader{item: item})

	_, err := svc.Reserve(context.Background(), familyActor(), item.ID)
	expectCode(t, err, pkgerrors.CodeConflict)
	typed := pkgerrors.As(err)
	if typed.Message() != "this item is already reserved" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestReserveRaceMapsUniqueViolation(t *testing.T) {
	item := approvedItem()
	repo := &stubReservationRepo{createErr: errors.New(`duplicate key value violates unique constraint "reservations_item_id_key"`)}
	svc, _ := newReservationService(repo, stubItemLoader{item: item})

	_, err := svc.Reserve(context.Background(), familyActor(), item.ID)
	expectCode(t, err, pkgerrors.CodeConflict)
	typed := pkgerrors.As(err)
	if typed.Message() != "this item was just reserved by another family member" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestReserveItemNotFound(t *testing.T) {
	svc, _ := newReservationService(&stubReservationRepo{}, stubItemLoader{err: gorm.ErrRecordNotFound})
	_, err := svc.Reserve(context.Background(), familyActor(), uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestUnreserveHolderOnly(t *testing.T) {
	holder := familyActor()
	reservation := &models.Reservation{ID: uuid.New(), ItemID: uuid.New(), ReservedBy: holder.ID}
	repo := &stubReservationRepo{reservation: reservation}
	svc, _ := newReservationService(repo, stubItemLoader{})

	err := svc.Unreserve(context.Background(), familyActor(), reservation.ID)
	expectCode(t, err, pkgerrors.CodeForbidden)

	if err := svc.Unreserve(context.Background(), holder, reservation.ID); err != nil {
		t.Fatalf("Unreserve returned error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != reservation.ID {
		t.Fatalf("expected delete of %s, got %v", reservation.ID, repo.deleted)
	}
}

func TestSetPurchasedHolderOnly(t *testing.T) {
	holder := familyActor()
	reservation := &models.Reservation{ID: uuid.New(), ItemID: uuid.New(), ReservedBy: holder.ID}
	repo := &stubReservationRepo{reservation: reservation}
	svc, _ := newReservationService(repo, stubItemLoader{})

	_, err := svc.SetPurchased(context.Background(), familyActor(), reservation.ID, true)
	expectCode(t, err, pkgerrors.CodeForbidden)

	dto, err := svc.SetPurchased(context.Background(), holder, reservation.ID, true)
	if err != nil {
		t.Fatalf("SetPurchased returned error: %v", err)
	}
	if !dto.Purchased {
		t.Fatal("expected purchased flag set")
	}
	if !repo.purchased[reservation.ID] {
		t.Fatal("expected purchase write to reach the repo")
	}
}

func TestListHiddenFromChildren(t *testing.T) {
	svc, _ := newReservationService(&stubReservationRepo{}, stubItemLoader{})
	_, err := svc.List(context.Background(), types.Actor{ID: uuid.New(), Role: enums.RoleChild}, ListFilters{})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestListReturnsReservations(t *testing.T) {
	item := &models.Item{ID: uuid.New(), Title: "sled", Status: enums.ItemStatusApproved}
	repo := &stubReservationRepo{list: []models.Reservation{
		{ID: uuid.New(), ItemID: item.ID, ReservedBy: uuid.New(), Item: item},
	}}
	svc, _ := newReservationService(repo, stubItemLoader{})

	list, err := svc.List(context.Background(), familyActor(), ListFilters{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 reservation, got %d", len(list))
	}
	if list[0].Item == nil || list[0].Item.Title != "sled" {
		t.Fatalf("expected the item expansion, got %+v", list[0].Item)
	}
}
