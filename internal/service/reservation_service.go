package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/config"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

var ErrPublishFailed = errors.New("không ghi được sự kiện đặt chỗ vào hàng đợi")

// sqsSendAPI trừu tượng hoá phần SQS client mà service cần, để test thay
// bằng fake.
type sqsSendAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// ReservationService ghi sự kiện đặt chỗ vào hàng đợi FIFO. Hàng đợi là nơi
// lưu bền duy nhất của đặt chỗ; service không ghi gì vào Postgres.
//
// MessageGroupId là parking_space_id nên các sự kiện của cùng một chỗ đỗ được
// consumer đọc đúng thứ tự. Ngữ nghĩa là at-least-once: consumer phải chịu
// được message trùng.
type ReservationService struct {
	client      sqsSendAPI
	queueURL    string
	publishWait time.Duration
}

func NewReservationService(client sqsSendAPI, cfg *config.Config) *ReservationService {
	return &ReservationService{
		client:      client,
		queueURL:    cfg.SQSReservationQueueURL,
		publishWait: cfg.ReservationPublishWait,
	}
}

// Reserve đóng gói yêu cầu thành ReservationEvent và gửi một lần, không retry:
// gửi lỗi thì caller nhận ErrPublishFailed và tự quyết định thử lại, tránh
// service tự nhân đôi message.
func (s *ReservationService) Reserve(ctx context.Context, order domain.ReserveOrderDTO) error {
	now := time.Now().UTC()
	event := domain.ReservationEvent{
		ParkingSpaceID: order.ParkingSpaceID,
		VehicleID:      order.VehicleID,
		UpdatedAt:      now,
		State:          domain.ReservationStateReserved,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("lỗi mã hoá sự kiện đặt chỗ: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.publishWait)
	defer cancel()

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:               aws.String(s.queueURL),
		MessageBody:            aws.String(string(payload)),
		MessageGroupId:         aws.String(strconv.Itoa(order.ParkingSpaceID)),
		MessageDeduplicationId: aws.String(fmt.Sprintf("%d-%d-%d", order.ParkingSpaceID, order.VehicleID, now.Unix())),
	})
	if err != nil {
		log.Printf("Lỗi gửi sự kiện đặt chỗ cho chỗ %d: %v", order.ParkingSpaceID, err)
		return fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}
	return nil
}
