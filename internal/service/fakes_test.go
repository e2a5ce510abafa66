package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"

	"gopkg.in/guregu/null.v4"
)

// Các fake in-memory dùng chung cho test service. fakeSpaceRepo giữ nguyên
// ngữ nghĩa conditional update của bản Postgres, có mutex để test đua.

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int]*domain.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]*domain.User), nextID: 1}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return nil, repository.ErrDuplicateEntry
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.IsActive = true
	clone := *user
	r.users[user.ID] = &clone
	return user, nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) FindByRefreshToken(_ context.Context, refreshToken string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.RefreshToken.Valid && u.RefreshToken.String == refreshToken {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UpdateRefreshToken(_ context.Context, userID int, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if refreshToken == "" {
		u.RefreshToken = null.String{}
	} else {
		u.RefreshToken = null.StringFrom(refreshToken)
	}
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, userID int, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = passwordHash
	return nil
}

type fakeRevokedRepo struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func newFakeRevokedRepo() *fakeRevokedRepo {
	return &fakeRevokedRepo{tokens: make(map[string]time.Time)}
}

func (r *fakeRevokedRepo) Insert(_ context.Context, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; !ok {
		r.tokens[token] = expiresAt
	}
	return nil
}

func (r *fakeRevokedRepo) IsRevoked(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tokens[token]
	return ok, nil
}

func (r *fakeRevokedRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for token, expiresAt := range r.tokens {
		if expiresAt.Before(now) {
			delete(r.tokens, token)
			count++
		}
	}
	return count, nil
}

type fakeLotRepo struct {
	mu     sync.Mutex
	lots   map[int]*domain.ParkingLot
	nextID int
}

func newFakeLotRepo() *fakeLotRepo {
	return &fakeLotRepo{lots: make(map[int]*domain.ParkingLot), nextID: 1}
}

func (r *fakeLotRepo) Create(_ context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot.ID = r.nextID
	r.nextID++
	lot.IsActive = true
	clone := *lot
	r.lots[lot.ID] = &clone
	return lot, nil
}

func (r *fakeLotRepo) FindByID(_ context.Context, id int) (*domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *lot
	return &clone, nil
}

func (r *fakeLotRepo) FindActiveByID(_ context.Context, id int) (*domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[id]
	if !ok || !lot.IsActive {
		return nil, repository.ErrNotFound
	}
	clone := *lot
	return &clone, nil
}

func (r *fakeLotRepo) FindAll(_ context.Context, includeDeleted bool) ([]domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var lots []domain.ParkingLot
	for _, lot := range r.lots {
		if includeDeleted || lot.IsActive {
			lots = append(lots, *lot)
		}
	}
	return lots, nil
}

func (r *fakeLotRepo) Update(_ context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lots[lot.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	clone := *lot
	r.lots[lot.ID] = &clone
	return lot, nil
}

func (r *fakeLotRepo) SoftDelete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[id]
	if !ok || !lot.IsActive {
		return repository.ErrNotFound
	}
	lot.IsActive = false
	return nil
}

type fakeSpaceRepo struct {
	mu     sync.Mutex
	spaces map[int]*domain.ParkingSpace
	nextID int
}

func newFakeSpaceRepo() *fakeSpaceRepo {
	return &fakeSpaceRepo{spaces: make(map[int]*domain.ParkingSpace), nextID: 1}
}

func (r *fakeSpaceRepo) Create(_ context.Context, space *domain.ParkingSpace) (*domain.ParkingSpace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	space.ID = r.nextID
	r.nextID++
	space.Status = domain.SpaceVacant
	clone := *space
	r.spaces[space.ID] = &clone
	return space, nil
}

func (r *fakeSpaceRepo) FindByID(_ context.Context, id int) (*domain.ParkingSpace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	space, ok := r.spaces[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *space
	return &clone, nil
}

func (r *fakeSpaceRepo) FindByLotID(_ context.Context, lotID int) ([]domain.ParkingSpace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var spaces []domain.ParkingSpace
	for _, space := range r.spaces {
		if space.ParkingLotID == lotID {
			spaces = append(spaces, *space)
		}
	}
	return spaces, nil
}

func (r *fakeSpaceRepo) FindVacantIDs(_ context.Context, lotID int, vehicleType domain.VehicleType, limit int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int
	for id := 1; id < r.nextID && len(ids) < limit; id++ {
		space, ok := r.spaces[id]
		if ok && space.ParkingLotID == lotID && space.VehicleType == vehicleType &&
			space.Status == domain.SpaceVacant && !space.VehicleID.Valid {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeSpaceRepo) HoldIfVacant(_ context.Context, spaceID int, heldAt time.Time) (*domain.ParkingSpace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	space, ok := r.spaces[spaceID]
	if !ok || space.Status != domain.SpaceVacant || space.VehicleID.Valid {
		return nil, repository.ErrConflict
	}
	space.Status = domain.SpaceReserved
	space.HeldAt = null.TimeFrom(heldAt)
	clone := *space
	return &clone, nil
}

func (r *fakeSpaceRepo) OccupyIfFree(_ context.Context, spaceID int, vehicleID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	space, ok := r.spaces[spaceID]
	if !ok {
		return repository.ErrNotFound
	}
	if space.VehicleID.Valid && space.VehicleID.Int64 != int64(vehicleID) {
		return repository.ErrConflict
	}
	space.Status = domain.SpaceOccupied
	space.VehicleID = null.IntFrom(int64(vehicleID))
	space.HeldAt = null.Time{}
	return nil
}

func (r *fakeSpaceRepo) ClearOccupant(_ context.Context, spaceID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	space, ok := r.spaces[spaceID]
	if !ok {
		return repository.ErrNotFound
	}
	space.Status = domain.SpaceVacant
	space.VehicleID = null.Int{}
	space.HeldAt = null.Time{}
	return nil
}

func (r *fakeSpaceRepo) ReleaseExpiredHolds(_ context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, space := range r.spaces {
		if space.Status == domain.SpaceReserved && !space.VehicleID.Valid &&
			space.HeldAt.Valid && space.HeldAt.Time.Before(olderThan) {
			space.Status = domain.SpaceVacant
			space.HeldAt = null.Time{}
			count++
		}
	}
	return count, nil
}

func (r *fakeSpaceRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.spaces[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.spaces, id)
	return nil
}

func (r *fakeSpaceRepo) CountByLotAndStatus(_ context.Context, lotID int, status domain.SpaceStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, space := range r.spaces {
		if space.ParkingLotID == lotID && space.Status == status {
			count++
		}
	}
	return count, nil
}

type fakeVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[int]*domain.Vehicle
	nextID   int
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: make(map[int]*domain.Vehicle), nextID: 1}
}

func (r *fakeVehicleRepo) Create(_ context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vehicles {
		if v.LicensePlate == vehicle.LicensePlate {
			return nil, repository.ErrDuplicateEntry
		}
	}
	vehicle.ID = r.nextID
	r.nextID++
	clone := *vehicle
	r.vehicles[vehicle.ID] = &clone
	return vehicle, nil
}

func (r *fakeVehicleRepo) FindByID(_ context.Context, id int) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

func (r *fakeVehicleRepo) FindByLicensePlate(_ context.Context, licensePlate string) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vehicles {
		if v.LicensePlate == licensePlate {
			clone := *v
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeVehicleRepo) FindByOwnerID(_ context.Context, ownerID int) ([]domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var vehicles []domain.Vehicle
	for _, v := range r.vehicles {
		if v.OwnerID == ownerID {
			vehicles = append(vehicles, *v)
		}
	}
	return vehicles, nil
}

func (r *fakeVehicleRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.vehicles, id)
	return nil
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []domain.ActivityLog
	nextID  int
	failAll bool
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{nextID: 1}
}

func (r *fakeActivityRepo) Create(_ context.Context, entry *domain.ActivityLog) (*domain.ActivityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, fmt.Errorf("ghi activity log thất bại")
	}
	entry.ID = r.nextID
	r.nextID++
	r.entries = append(r.entries, *entry)
	return entry, nil
}

func (r *fakeActivityRepo) CreateBatch(_ context.Context, entries []domain.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return fmt.Errorf("ghi lô activity log thất bại")
	}
	for _, entry := range entries {
		entry.ID = r.nextID
		r.nextID++
		r.entries = append(r.entries, entry)
	}
	return nil
}

func (r *fakeActivityRepo) Find(_ context.Context, filter domain.ActivityLogFilter) ([]domain.ActivityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var logs []domain.ActivityLog
	for _, entry := range r.entries {
		if entry.Timestamp.Before(filter.FromTime) || entry.Timestamp.After(filter.ToTime) {
			continue
		}
		logs = append(logs, entry)
	}
	return logs, nil
}

type fakeCameraRepo struct {
	mu      sync.Mutex
	cameras map[string]*domain.Camera
	nextID  int
}

func newFakeCameraRepo() *fakeCameraRepo {
	return &fakeCameraRepo{cameras: make(map[string]*domain.Camera), nextID: 1}
}

func (r *fakeCameraRepo) Create(_ context.Context, camera *domain.Camera) (*domain.Camera, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	camera.ID = r.nextID
	r.nextID++
	camera.IsActive = true
	clone := *camera
	r.cameras[camera.APIKey] = &clone
	return camera, nil
}

func (r *fakeCameraRepo) FindByID(_ context.Context, id int) (*domain.Camera, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cameras {
		if c.ID == id {
			clone := *c
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCameraRepo) FindByAPIKey(_ context.Context, apiKey string) (*domain.Camera, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cameras[apiKey]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeCameraRepo) FindAll(_ context.Context, includeDeleted bool) ([]domain.Camera, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cameras []domain.Camera
	for _, c := range r.cameras {
		if includeDeleted || c.IsActive {
			cameras = append(cameras, *c)
		}
	}
	return cameras, nil
}

func (r *fakeCameraRepo) SoftDelete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cameras {
		if c.ID == id && c.IsActive {
			c.IsActive = false
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeSensorRepo struct {
	mu      sync.Mutex
	sensors map[string]*domain.Sensor
	nextID  int
}

func newFakeSensorRepo() *fakeSensorRepo {
	return &fakeSensorRepo{sensors: make(map[string]*domain.Sensor), nextID: 1}
}

func (r *fakeSensorRepo) Create(_ context.Context, sensor *domain.Sensor) (*domain.Sensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sensor.ID = r.nextID
	r.nextID++
	sensor.IsActive = true
	clone := *sensor
	r.sensors[sensor.APIKey] = &clone
	return sensor, nil
}

func (r *fakeSensorRepo) FindByID(_ context.Context, id int) (*domain.Sensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sensors {
		if s.ID == id {
			clone := *s
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSensorRepo) FindByAPIKey(_ context.Context, apiKey string) (*domain.Sensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sensors[apiKey]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *fakeSensorRepo) FindAll(_ context.Context, includeDeleted bool) ([]domain.Sensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sensors []domain.Sensor
	for _, s := range r.sensors {
		if includeDeleted || s.IsActive {
			sensors = append(sensors, *s)
		}
	}
	return sensors, nil
}

func (r *fakeSensorRepo) SoftDelete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sensors {
		if s.ID == id && s.IsActive {
			s.IsActive = false
			return nil
		}
	}
	return repository.ErrNotFound
}
