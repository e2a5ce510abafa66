package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/config"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQSClient struct {
	sent []*sqs.SendMessageInput
	err  error
}

func (c *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.sent = append(c.sent, params)
	return &sqs.SendMessageOutput{}, nil
}

func testReservationConfig() *config.Config {
	return &config.Config{
		SQSReservationQueueURL: "https://sqs.ap-southeast-1.amazonaws.com/123456789012/reservations.fifo",
		ReservationPublishWait: 5 * time.Second,
	}
}

func TestReservePublishesEvent(t *testing.T) {
	client := &fakeSQSClient{}
	svc := NewReservationService(client, testReservationConfig())

	err := svc.Reserve(context.Background(), domain.ReserveOrderDTO{ParkingSpaceID: 42, VehicleID: 7})
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if len(client.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(client.sent))
	}

	msg := client.sent[0]
	if got := *msg.QueueUrl; got != testReservationConfig().SQSReservationQueueURL {
		t.Errorf("unexpected queue URL: %s", got)
	}
	// Group theo parking_space_id để giữ thứ tự sự kiện của cùng một chỗ
	if got := *msg.MessageGroupId; got != "42" {
		t.Errorf("expected message group '42', got %s", got)
	}
	if msg.MessageDeduplicationId == nil || *msg.MessageDeduplicationId == "" {
		t.Error("expected a deduplication id")
	}

	// parking_space_id phải là chuỗi trên wire, cùng kiểu với partition key
	if !strings.Contains(*msg.MessageBody, `"parking_space_id":"42"`) {
		t.Errorf("expected string parking_space_id on the wire, got %s", *msg.MessageBody)
	}

	var event domain.ReservationEvent
	if err := json.Unmarshal([]byte(*msg.MessageBody), &event); err != nil {
		t.Fatalf("failed to decode message body: %v", err)
	}
	if event.ParkingSpaceID != 42 || event.VehicleID != 7 {
		t.Errorf("unexpected event payload: %+v", event)
	}
	if event.State != domain.ReservationStateReserved {
		t.Errorf("expected state %q, got %q", domain.ReservationStateReserved, event.State)
	}
	if event.UpdatedAt.IsZero() {
		t.Error("expected updated_at to be set")
	}
}

func TestReserveBrokerFailure(t *testing.T) {
	client := &fakeSQSClient{err: errors.New("sqs unavailable")}
	svc := NewReservationService(client, testReservationConfig())

	err := svc.Reserve(context.Background(), domain.ReserveOrderDTO{ParkingSpaceID: 42, VehicleID: 7})
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("expected ErrPublishFailed, got %v", err)
	}
}
