package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwhitfield/wishlist-backend/api/middleware"
	"github.com/mwhitfield/wishlist-backend/internal/items"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
	"github.com/mwhitfield/wishlist-backend/pkg/types"
)

type stubItemsService struct {
	created       *items.ItemDTO
	createWarning string
	createErr     error
	changed       []enums.ItemStatus
	changeErr     error
	fixed         int
	gotFilters    items.ListFilters
	gotActor      types.Actor
}

func (s *stubItemsService) Create(_ context.Context, actor types.Actor, _ items.CreateItemInput) (*items.ItemDTO, string, error) {
	s.gotActor = actor
	return s.created, s.createWarning, s.createErr
}

func (s *stubItemsService) GetByID(context.Context, types.Actor, uuid.UUID) (*items.ItemDTO, error) {
	return s.created, s.createErr
}

func (s *stubItemsService) List(_ context.Context, actor types.Actor, filters items.ListFilters) ([]items.ItemDTO, error) {
	s.gotActor = actor
	s.gotFilters = filters
	return nil, nil
}

func (s *stubItemsService) ListApproved(context.Context, types.Actor) ([]items.ItemDTO, error) {
	return nil, nil
}

func (s *stubItemsService) Update(context.Context, types.Actor, uuid.UUID, items.UpdateItemInput) (*items.ItemDTO, string, error) {
	return s.created, s.createWarning, s.createErr
}

func (s *stubItemsService) Delete(context.Context, types.Actor, uuid.UUID) error {
	return s.createErr
}

func (s *stubItemsService) ChangeStatus(_ context.Context, _ types.Actor, _ uuid.UUID, to enums.ItemStatus) (*items.ItemDTO, error) {
	if s.changeErr != nil {
		return nil, s.changeErr
	}
	s.changed = append(s.changed, to)
	return s.created, nil
}

func (s *stubItemsService) UpdatePriorities(context.Context, types.Actor, []items.PriorityUpdate) error {
	return s.createErr
}

func (s *stubItemsService) SendToTop(context.Context, types.Actor, uuid.UUID) error {
	return s.createErr
}

func (s *stubItemsService) FixMissingPriorities(context.Context, types.Actor, items.FixPrioritiesInput) (int, error) {
	return s.fixed, s.createErr
}

func authedRequest(method, target, body string, role enums.Role) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(middleware.WithActor(req.Context(), uuid.New(), role))
	return req
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestItemsCreateIncludesImageWarning(t *testing.T) {
	svc := &stubItemsService{
		created:       &items.ItemDTO{ID: uuid.New(), Title: "Lego Set"},
		createWarning: "image could not be fetched; item saved without it",
	}
	handler := ItemsCreate(svc, nil)

	req := authedRequest(http.MethodPost, "/api/v1/items", `{"title":"Lego Set","price":"49.99","child_id":"`+uuid.NewString()+`"}`, enums.RoleChild)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data itemWriteResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.ImageWarning == "" {
		t.Fatal("expected image warning to surface in the response")
	}
	if payload.Data.Item == nil || payload.Data.Item.Title != "Lego Set" {
		t.Fatalf("unexpected item payload %+v", payload.Data.Item)
	}
}

func TestItemsUpdateIncludesImageWarning(t *testing.T) {
	svc := &stubItemsService{
		created:       &items.ItemDTO{ID: uuid.New(), Title: "Lego Set"},
		createWarning: "image could not be fetched; item saved without it",
	}
	handler := ItemsUpdate(svc, nil)

	req := authedRequest(http.MethodPatch, "/api/v1/items/"+uuid.NewString(), `{"image_url":"https://shop.example/toy.png"}`, enums.RoleParent)
	req = withURLParam(req, "id", uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data itemWriteResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.ImageWarning == "" {
		t.Fatal("expected image warning to surface in the response")
	}
	if payload.Data.Item == nil || payload.Data.Item.Title != "Lego Set" {
		t.Fatalf("unexpected item payload %+v", payload.Data.Item)
	}
}

func TestItemsCreateRequiresActor(t *testing.T) {
	handler := ItemsCreate(&stubItemsService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(`{"title":"x","price":"1"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestItemsListParsesFilters(t *testing.T) {
	svc := &stubItemsService{}
	handler := ItemsList(svc, nil)
	childID := uuid.New()

	req := authedRequest(http.MethodGet, "/api/v1/items?child_id="+childID.String()+"&status=approved", "", enums.RoleParent)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotFilters.ChildID == nil || *svc.gotFilters.ChildID != childID {
		t.Fatalf("expected child filter, got %+v", svc.gotFilters)
	}
	if svc.gotFilters.Status == nil || *svc.gotFilters.Status != enums.ItemStatusApproved {
		t.Fatalf("expected status filter, got %+v", svc.gotFilters)
	}
}

func TestItemsListRejectsBadStatus(t *testing.T) {
	handler := ItemsList(&stubItemsService{}, nil)
	req := authedRequest(http.MethodGet, "/api/v1/items?status=bogus", "", enums.RoleParent)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestItemsChangeStatusTargets(t *testing.T) {
	svc := &stubItemsService{created: &items.ItemDTO{ID: uuid.New()}}
	id := uuid.New()

	cases := []struct {
		name string
		to   enums.ItemStatus
	}{
		{"approve", enums.ItemStatusApproved},
		{"reject", enums.ItemStatusRejected},
		{"unapprove", enums.ItemStatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := ItemsChangeStatus(svc, nil, tc.to)
			req := authedRequest(http.MethodPost, "/api/v1/items/"+id.String()+"/"+tc.name, "", enums.RoleParent)
			req = withURLParam(req, "id", id.String())
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
		})
	}
	if len(svc.changed) != 3 {
		t.Fatalf("expected 3 transitions, got %v", svc.changed)
	}
}

func TestItemsChangeStatusMapsStateConflict(t *testing.T) {
	svc := &stubItemsService{changeErr: pkgerrors.New(pkgerrors.CodeStateConflict, "item has an active reservation; ask the reserver to release it first")}
	handler := ItemsChangeStatus(svc, nil, enums.ItemStatusPending)
	id := uuid.New()

	req := authedRequest(http.MethodPost, "/api/v1/items/"+id.String()+"/unapprove", "", enums.RoleParent)
	req = withURLParam(req, "id", id.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestItemsFixPrioritiesReportsCount(t *testing.T) {
	svc := &stubItemsService{fixed: 3}
	handler := ItemsFixPriorities(svc, nil)

	req := authedRequest(http.MethodPost, "/api/v1/items/fix-priorities", `{"child_id":"`+uuid.NewString()+`"}`, enums.RoleParent)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Data map[string]int `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data["fixed"] != 3 {
		t.Fatalf("expected fixed=3, got %v", payload.Data)
	}
}
