package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
)

type iotPublishAPI interface {
	Publish(ctx context.Context, params *iotdataplane.PublishInput, optFns ...func(*iotdataplane.Options)) (*iotdataplane.PublishOutput, error)
}

// DisplayService đẩy số chỗ trống hiện tại xuống bảng hiệu đặt ở cổng bãi
// qua AWS IoT Core. Đây là kênh hiển thị thuần tuý: publish lỗi chỉ được log,
// trạng thái trong Postgres vẫn là nguồn sự thật.
type DisplayService struct {
	client    iotPublishAPI
	spaceRepo repository.ParkingSpaceRepository
}

func NewDisplayService(client iotPublishAPI, spaceRepo repository.ParkingSpaceRepository) *DisplayService {
	return &DisplayService{client: client, spaceRepo: spaceRepo}
}

type displayPayload struct {
	ParkingLotID int `json:"parking_lot_id"`
	FreeSpaces   int `json:"free_spaces"`
}

// NotifyOccupancyChanged cài OccupancyNotifier: đếm lại chỗ trống của bãi và
// publish lên topic của bảng hiệu.
func (s *DisplayService) NotifyOccupancyChanged(ctx context.Context, lotID int) {
	free, err := s.spaceRepo.CountByLotAndStatus(ctx, lotID, domain.SpaceVacant)
	if err != nil {
		log.Printf("Lỗi đếm chỗ trống cho bảng hiệu bãi %d: %v", lotID, err)
		return
	}

	payload, err := json.Marshal(displayPayload{ParkingLotID: lotID, FreeSpaces: free})
	if err != nil {
		log.Printf("Lỗi mã hoá payload bảng hiệu bãi %d: %v", lotID, err)
		return
	}

	_, err = s.client.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(fmt.Sprintf("parking/%d/display", lotID)),
		Qos:     1,
		Payload: payload,
	})
	if err != nil {
		log.Printf("Lỗi publish bảng hiệu bãi %d: %v", lotID, err)
	}
}
