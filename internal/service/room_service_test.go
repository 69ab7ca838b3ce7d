package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/campus-scheduler-api/pkg/errors"
)

type mockRoomRepo struct {
	rooms map[string]*models.Room
}

func (m *mockRoomRepo) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error) {
	var out []models.Room
	for _, r := range m.rooms {
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (m *mockRoomRepo) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if r, ok := m.rooms[id]; ok {
		copy := *r
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRoomRepo) ExistsByNameAndFloor(ctx context.Context, name, floor, excludeID string) (bool, error) {
	for id, r := range m.rooms {
		if r.Name == name && r.Floor == floor && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRoomRepo) Create(ctx context.Context, room *models.Room) error {
	room.ID = "new"
	copy := *room
	m.rooms[room.ID] = &copy
	return nil
}

func (m *mockRoomRepo) Update(ctx context.Context, room *models.Room) error {
	copy := *room
	m.rooms[room.ID] = &copy
	return nil
}

func (m *mockRoomRepo) Delete(ctx context.Context, id string) error {
	delete(m.rooms, id)
	return nil
}

func TestRoomServiceCreateUniquePerFloor(t *testing.T) {
	repo := &mockRoomRepo{rooms: map[string]*models.Room{"r1": {ID: "r1", Name: "Room 101", Floor: "1"}}}
	svc := NewRoomService(repo, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), RoomRequest{Room: "Room 101", Floor: "1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	room, err := svc.Create(context.Background(), RoomRequest{Room: " Room 101 ", Floor: "2"})
	require.NoError(t, err)
	assert.Equal(t, "Room 101", room.Name)
	assert.Equal(t, "2", room.Floor)
}

func TestRoomServiceUpdateAndDeleteFlushAllTimetables(t *testing.T) {
	repo := &mockRoomRepo{rooms: map[string]*models.Room{"r1": {ID: "r1", Name: "Room 101", Floor: "1"}}}
	flush := &flushCounter{}
	svc := NewRoomService(repo, flush, nil, zap.NewNop())

	room, err := svc.Update(context.Background(), "r1", RoomRequest{Room: "Lab 1", Floor: "1"})
	require.NoError(t, err)
	assert.Equal(t, "Lab 1", room.Name)
	assert.Equal(t, 1, flush.n)

	require.NoError(t, svc.Delete(context.Background(), "r1"))
	assert.Equal(t, 2, flush.n)

	_, err = svc.Get(context.Background(), "r1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

type mockDepartmentRepo struct {
	departments map[string]*models.Department
}

func (m *mockDepartmentRepo) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error) {
	var out []models.Department
	for _, d := range m.departments {
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (m *mockDepartmentRepo) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if d, ok := m.departments[id]; ok {
		copy := *d
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDepartmentRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for id, d := range m.departments {
		if d.Name == name && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDepartmentRepo) Create(ctx context.Context, department *models.Department) error {
	department.ID = "new"
	copy := *department
	m.departments[department.ID] = &copy
	return nil
}

func (m *mockDepartmentRepo) Update(ctx context.Context, department *models.Department) error {
	copy := *department
	m.departments[department.ID] = &copy
	return nil
}

func (m *mockDepartmentRepo) Delete(ctx context.Context, id string) error {
	delete(m.departments, id)
	return nil
}

func TestDepartmentServiceNameUnique(t *testing.T) {
	repo := &mockDepartmentRepo{departments: map[string]*models.Department{"d1": {ID: "d1", Name: "Computer Science"}}}
	svc := NewDepartmentService(repo, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), DepartmentRequest{Name: "Computer Science"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	dept, err := svc.Create(context.Background(), DepartmentRequest{Name: "Mathematics"})
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", dept.Name)

	_, err = svc.Update(context.Background(), "d1", DepartmentRequest{Name: "Mathematics"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	updated, err := svc.Update(context.Background(), "d1", DepartmentRequest{Name: "Computer Science"})
	require.NoError(t, err)
	assert.Equal(t, "d1", updated.ID)

	require.NoError(t, svc.Delete(context.Background(), "d1"))
	assert.True(t, errors.Is(svc.Delete(context.Background(), "d1"), appErrors.ErrNotFound))
}

type mockFacultyRepo struct {
	members map[string]*models.Faculty
}

func (m *mockFacultyRepo) List(ctx context.Context, filter models.FacultyFilter) ([]models.FacultyDetail, int, error) {
	var out []models.FacultyDetail
	for _, f := range m.members {
		out = append(out, models.FacultyDetail{Faculty: *f})
	}
	return out, len(out), nil
}

func (m *mockFacultyRepo) FindByID(ctx context.Context, id string) (*models.FacultyDetail, error) {
	if f, ok := m.members[id]; ok {
		return &models.FacultyDetail{Faculty: *f}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFacultyRepo) Create(ctx context.Context, member *models.Faculty) error {
	member.ID = "new"
	copy := *member
	m.members[member.ID] = &copy
	return nil
}

func (m *mockFacultyRepo) Update(ctx context.Context, member *models.Faculty) error {
	copy := *member
	m.members[member.ID] = &copy
	return nil
}

func (m *mockFacultyRepo) Delete(ctx context.Context, id string) error {
	delete(m.members, id)
	return nil
}

func TestFacultyServiceRequiresKnownDepartment(t *testing.T) {
	departments := &mockDepartmentRepo{departments: map[string]*models.Department{"d1": {ID: "d1", Name: "Computer Science"}}}
	repo := &mockFacultyRepo{members: map[string]*models.Faculty{}}
	flush := &flushCounter{}
	svc := NewFacultyService(repo, departments, flush, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), FacultyRequest{Name: "John Doe", DepartmentID: strPtr("missing")})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	member, err := svc.Create(context.Background(), FacultyRequest{Name: " John Doe ", DepartmentID: strPtr("d1")})
	require.NoError(t, err)
	assert.Equal(t, "John Doe", member.Name)
	require.NotNil(t, member.DepartmentID)

	updated, err := svc.Update(context.Background(), member.ID, FacultyRequest{Name: "John Doe", DepartmentID: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.DepartmentID)

	assert.Equal(t, 1, flush.n)

	require.NoError(t, svc.Delete(context.Background(), member.ID))
	assert.Equal(t, 2, flush.n)
}
