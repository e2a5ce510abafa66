package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"
)

type parkingFixture struct {
	svc          *ParkingService
	lotRepo      *fakeLotRepo
	spaceRepo    *fakeSpaceRepo
	vehicleRepo  *fakeVehicleRepo
	activityRepo *fakeActivityRepo
	lot          *domain.ParkingLot
}

func newParkingFixture(t *testing.T, spaceCount int) *parkingFixture {
	t.Helper()
	ctx := context.Background()

	lotRepo := newFakeLotRepo()
	spaceRepo := newFakeSpaceRepo()
	vehicleRepo := newFakeVehicleRepo()
	activityRepo := newFakeActivityRepo()

	lot, err := lotRepo.Create(ctx, &domain.ParkingLot{Name: "Bãi A", Latitude: 21.02, Longitude: 105.85})
	if err != nil {
		t.Fatalf("Create lot failed: %v", err)
	}
	for i := 0; i < spaceCount; i++ {
		if _, err := spaceRepo.Create(ctx, &domain.ParkingSpace{
			ParkingLotID: lot.ID,
			VehicleType:  domain.VehicleCar,
		}); err != nil {
			t.Fatalf("Create space failed: %v", err)
		}
	}

	return &parkingFixture{
		svc:          NewParkingService(lotRepo, spaceRepo, vehicleRepo, activityRepo),
		lotRepo:      lotRepo,
		spaceRepo:    spaceRepo,
		vehicleRepo:  vehicleRepo,
		activityRepo: activityRepo,
		lot:          lot,
	}
}

func (f *parkingFixture) addVehicle(t *testing.T, plate string) *domain.Vehicle {
	t.Helper()
	vehicle, err := f.vehicleRepo.Create(context.Background(), &domain.Vehicle{
		LicensePlate: plate,
		VehicleType:  domain.VehicleCar,
		OwnerID:      1,
	})
	if err != nil {
		t.Fatalf("Create vehicle failed: %v", err)
	}
	return vehicle
}

func TestFindFreeSpaceHoldsSpace(t *testing.T) {
	f := newParkingFixture(t, 1)

	space, err := f.svc.FindFreeSpace(context.Background(), f.lot.ID, domain.VehicleCar)
	if err != nil {
		t.Fatalf("FindFreeSpace failed: %v", err)
	}
	if space.ParkingLotID != f.lot.ID {
		t.Errorf("expected lot %d, got %d", f.lot.ID, space.ParkingLotID)
	}
	if space.Latitude != f.lot.Latitude || space.Longitude != f.lot.Longitude {
		t.Error("expected lot coordinates in the response")
	}

	held, err := f.spaceRepo.FindByID(context.Background(), space.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if held.Status != domain.SpaceReserved {
		t.Errorf("expected space to be reserved, got %s", held.Status)
	}
	if held.VehicleID.Valid {
		t.Error("expected no vehicle assigned while held")
	}
}

func TestFindFreeSpaceNoneAvailable(t *testing.T) {
	f := newParkingFixture(t, 0)

	_, err := f.svc.FindFreeSpace(context.Background(), f.lot.ID, domain.VehicleCar)
	if !errors.Is(err, ErrNoSpaceAvailable) {
		t.Errorf("expected ErrNoSpaceAvailable, got %v", err)
	}
}

func TestFindFreeSpaceUnknownLot(t *testing.T) {
	f := newParkingFixture(t, 1)

	_, err := f.svc.FindFreeSpace(context.Background(), 999, domain.VehicleCar)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindFreeSpaceFiltersVehicleType(t *testing.T) {
	f := newParkingFixture(t, 1) // chỉ có chỗ cho ô tô

	_, err := f.svc.FindFreeSpace(context.Background(), f.lot.ID, domain.VehicleMotorbike)
	if !errors.Is(err, ErrNoSpaceAvailable) {
		t.Errorf("expected ErrNoSpaceAvailable for motorbike, got %v", err)
	}
}

// Hai camera hỏi đồng thời khi bãi chỉ còn một chỗ: đúng một bên thắng.
func TestFindFreeSpaceConcurrentSingleSpace(t *testing.T) {
	f := newParkingFixture(t, 1)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*domain.FreeSpaceDTO, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.FindFreeSpace(context.Background(), f.lot.ID, domain.VehicleCar)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < callers; i++ {
		switch {
		case errs[i] == nil:
			winners++
		case errors.Is(errs[i], ErrNoSpaceAvailable):
		default:
			t.Errorf("unexpected error from caller %d: %v", i, errs[i])
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly 1 winner, got %d", winners)
	}
}

// Nhiều camera giành nhiều chỗ: không chỗ nào bị cấp hai lần.
func TestFindFreeSpaceConcurrentNoDoubleAllocation(t *testing.T) {
	const spaces = 5
	const callers = 12
	f := newParkingFixture(t, spaces)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allocated := make(map[int]int)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			space, err := f.svc.FindFreeSpace(context.Background(), f.lot.ID, domain.VehicleCar)
			if err != nil {
				return
			}
			mu.Lock()
			allocated[space.ID]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	for id, count := range allocated {
		if count > 1 {
			t.Errorf("space %d allocated %d times", id, count)
		}
	}
	if len(allocated) == 0 {
		t.Error("expected at least one successful allocation")
	}
}

func TestAcknowledgeInOccupiesSpace(t *testing.T) {
	f := newParkingFixture(t, 1)
	vehicle := f.addVehicle(t, "29A12345")

	space, err := f.svc.FindFreeSpace(context.Background(), f.lot.ID, domain.VehicleCar)
	if err != nil {
		t.Fatalf("FindFreeSpace failed: %v", err)
	}

	if err := f.svc.AcknowledgeSpace(context.Background(), space.ID, domain.DirectionIn, "29A12345"); err != nil {
		t.Fatalf("AcknowledgeSpace failed: %v", err)
	}

	occupied, err := f.spaceRepo.FindByID(context.Background(), space.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if occupied.Status != domain.SpaceOccupied {
		t.Errorf("expected occupied, got %s", occupied.Status)
	}
	if !occupied.VehicleID.Valid || occupied.VehicleID.Int64 != int64(vehicle.ID) {
		t.Errorf("expected vehicle %d in space, got %v", vehicle.ID, occupied.VehicleID)
	}

	if len(f.activityRepo.entries) != 1 || f.activityRepo.entries[0].ActivityType != domain.ActivityIn {
		t.Errorf("expected one 'in' activity entry, got %v", f.activityRepo.entries)
	}
}

func TestAcknowledgeInWithoutPlate(t *testing.T) {
	f := newParkingFixture(t, 1)

	err := f.svc.AcknowledgeSpace(context.Background(), 1, domain.DirectionIn, "")
	if !errors.Is(err, ErrLicensePlateRequired) {
		t.Errorf("expected ErrLicensePlateRequired, got %v", err)
	}
}

// Biển số chưa đăng ký: chỗ giữ nguyên trạng thái, không bị chiếm.
func TestAcknowledgeInUnregisteredPlate(t *testing.T) {
	f := newParkingFixture(t, 1)

	err := f.svc.AcknowledgeSpace(context.Background(), 1, domain.DirectionIn, "99Z99999")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	space, err := f.spaceRepo.FindByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if space.Status != domain.SpaceVacant || space.VehicleID.Valid {
		t.Errorf("expected space untouched, got status=%s vehicle=%v", space.Status, space.VehicleID)
	}
}

// Cùng một xe xác nhận lại là idempotent; xe khác bị từ chối.
func TestAcknowledgeInIdempotentAndConflicting(t *testing.T) {
	f := newParkingFixture(t, 1)
	f.addVehicle(t, "29A12345")
	f.addVehicle(t, "30B67890")

	if err := f.svc.AcknowledgeSpace(context.Background(), 1, domain.DirectionIn, "29A12345"); err != nil {
		t.Fatalf("first acknowledge failed: %v", err)
	}
	if err := f.svc.AcknowledgeSpace(context.Background(), 1, domain.DirectionIn, "29A12345"); err != nil {
		t.Errorf("duplicate acknowledge for same vehicle should succeed, got %v", err)
	}

	err := f.svc.AcknowledgeSpace(context.Background(), 1, domain.DirectionIn, "30B67890")
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("expected ErrConflict for different vehicle, got %v", err)
	}
}

func TestAcknowledgeOutClearsSpace(t *testing.T) {
	f := newParkingFixture(t, 1)
	f.addVehicle(t, "29A12345")

	if err := f.svc.AcknowledgeSpace(context.Background(), 1, domain.DirectionIn, "29A12345"); err != nil {
		t.Fatalf("acknowledge in failed: %v", err)
	}
	if err := f.svc.AcknowledgeSpace(context.Background(), 1, domain.DirectionOut, ""); err != nil {
		t.Fatalf("acknowledge out failed: %v", err)
	}

	space, err := f.spaceRepo.FindByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if space.Status != domain.SpaceVacant || space.VehicleID.Valid {
		t.Errorf("expected vacant space, got status=%s vehicle=%v", space.Status, space.VehicleID)
	}

	if len(f.activityRepo.entries) != 2 || f.activityRepo.entries[1].ActivityType != domain.ActivityOut {
		t.Errorf("expected 'out' activity entry, got %v", f.activityRepo.entries)
	}
}

func TestAcknowledgeOutWithPlate(t *testing.T) {
	f := newParkingFixture(t, 1)

	err := f.svc.AcknowledgeSpace(context.Background(), 1, domain.DirectionOut, "29A12345")
	if !errors.Is(err, ErrLicensePlateNotAllowed) {
		t.Errorf("expected ErrLicensePlateNotAllowed, got %v", err)
	}
}

// Xe ra khi chỗ đang trống vẫn thành công: sensor là nguồn sự thật vật lý.
func TestAcknowledgeOutEmptySpace(t *testing.T) {
	f := newParkingFixture(t, 1)

	if err := f.svc.AcknowledgeSpace(context.Background(), 1, domain.DirectionOut, ""); err != nil {
		t.Errorf("expected acknowledge out on empty space to succeed, got %v", err)
	}
}

func TestAcknowledgeUnknownSpace(t *testing.T) {
	f := newParkingFixture(t, 1)

	err := f.svc.AcknowledgeSpace(context.Background(), 999, domain.DirectionOut, "")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// Lỗi ghi activity log không được làm hỏng xác nhận đã hoàn tất.
func TestAcknowledgeSurvivesActivityLogFailure(t *testing.T) {
	f := newParkingFixture(t, 1)
	f.addVehicle(t, "29A12345")
	f.activityRepo.failAll = true

	if err := f.svc.AcknowledgeSpace(context.Background(), 1, domain.DirectionIn, "29A12345"); err != nil {
		t.Errorf("expected acknowledge to succeed despite log failure, got %v", err)
	}

	space, err := f.spaceRepo.FindByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if space.Status != domain.SpaceOccupied {
		t.Errorf("expected occupied, got %s", space.Status)
	}
}

func TestReleaseExpiredHolds(t *testing.T) {
	f := newParkingFixture(t, 2)

	// Một chỗ giữ đã quá hạn, một chỗ giữ còn mới
	if _, err := f.spaceRepo.HoldIfVacant(context.Background(), 1, time.Now().UTC().Add(-5*time.Minute)); err != nil {
		t.Fatalf("HoldIfVacant failed: %v", err)
	}
	if _, err := f.spaceRepo.HoldIfVacant(context.Background(), 2, time.Now().UTC()); err != nil {
		t.Fatalf("HoldIfVacant failed: %v", err)
	}

	released, err := f.svc.ReleaseExpiredHolds(context.Background(), 2*time.Minute)
	if err != nil {
		t.Fatalf("ReleaseExpiredHolds failed: %v", err)
	}
	if released != 1 {
		t.Errorf("expected 1 released hold, got %d", released)
	}

	stale, _ := f.spaceRepo.FindByID(context.Background(), 1)
	fresh, _ := f.spaceRepo.FindByID(context.Background(), 2)
	if stale.Status != domain.SpaceVacant {
		t.Errorf("expected stale hold released, got %s", stale.Status)
	}
	if fresh.Status != domain.SpaceReserved {
		t.Errorf("expected fresh hold kept, got %s", fresh.Status)
	}
}

type countingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *countingNotifier) NotifyOccupancyChanged(_ context.Context, _ int) {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
}

func TestOccupancyNotifierCalledOnChanges(t *testing.T) {
	f := newParkingFixture(t, 1)
	f.addVehicle(t, "29A12345")
	notifier := &countingNotifier{}
	f.svc.AddNotifier(notifier)

	space, err := f.svc.FindFreeSpace(context.Background(), f.lot.ID, domain.VehicleCar)
	if err != nil {
		t.Fatalf("FindFreeSpace failed: %v", err)
	}
	if err := f.svc.AcknowledgeSpace(context.Background(), space.ID, domain.DirectionIn, "29A12345"); err != nil {
		t.Fatalf("AcknowledgeSpace failed: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if notifier.calls != 2 {
		t.Errorf("expected 2 notifications, got %d", notifier.calls)
	}
}
