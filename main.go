package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/api"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/api/handler"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/config"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository/postgresql"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsgo_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log.Println("Cấu hình đã được tải.")

	// 2. Setup Database Connection
	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatalf("Không thể kết nối database: %v", err)
	}
	defer db.Close()
	log.Println("Đã kết nối database thành công!")

	// 3. Khởi tạo AWS SDK Config
	awsSDKCfg, err := awsgo_config.LoadDefaultConfig(context.TODO(), awsgo_config.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("Không thể tải AWS SDK config: %v", err)
	}
	log.Println("Đã tải AWS SDK config thành công cho region:", cfg.AWSRegion)

	// 4. Khởi tạo AWS Clients
	sqsClient := sqs.NewFromConfig(awsSDKCfg)
	iotDataPlaneClient := iotdataplane.NewFromConfig(awsSDKCfg, func(o *iotdataplane.Options) {
		if cfg.IoTMQTTEndpoint != "" {
			endpointWithSchema := cfg.IoTMQTTEndpoint
			if !strings.HasPrefix(endpointWithSchema, "https://") && !strings.HasPrefix(endpointWithSchema, "http://") {
				endpointWithSchema = "https://" + endpointWithSchema
			}
			o.BaseEndpoint = aws.String(endpointWithSchema)
		}
	})
	rekognitionClient := rekognition.NewFromConfig(awsSDKCfg)
	log.Println("Đã khởi tạo SQS, IoT Data Plane và Rekognition client.")

	// 5. Initialize Repositories
	userRepo := postgresql.NewPgUserRepository(db)
	lotRepo := postgresql.NewPgParkingLotRepository(db)
	spaceRepo := postgresql.NewPgParkingSpaceRepository(db)
	vehicleRepo := postgresql.NewPgVehicleRepository(db)
	cameraRepo := postgresql.NewPgCameraRepository(db)
	sensorRepo := postgresql.NewPgSensorRepository(db)
	activityRepo := postgresql.NewPgActivityLogRepository(db)
	revokedRepo := postgresql.NewPgRevokedTokenRepository(db)

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo, revokedRepo, cfg)
	deviceAuthService := service.NewDeviceAuthService(cameraRepo, sensorRepo)
	parkingService := service.NewParkingService(lotRepo, spaceRepo, vehicleRepo, activityRepo)
	reservationService := service.NewReservationService(sqsClient, cfg)
	activityService := service.NewActivityService(lotRepo, vehicleRepo, activityRepo)
	vehicleService := service.NewVehicleService(vehicleRepo)
	deviceService := service.NewDeviceService(cameraRepo, sensorRepo)
	lprService := service.NewLPRService(rekognitionClient)

	// 7. Kênh thông báo realtime: websocket cho frontend, IoT cho bảng hiệu
	webSocketManager := handler.NewWebSocketManager(parkingService)
	go webSocketManager.Start()
	parkingService.AddNotifier(webSocketManager)
	if cfg.IoTMQTTEndpoint != "" {
		parkingService.AddNotifier(service.NewDisplayService(iotDataPlaneClient, spaceRepo))
	} else {
		log.Println("CẢNH BÁO: IOT_MQTT_ENDPOINT chưa được cấu hình. Bảng hiệu sẽ không được cập nhật.")
	}
	if cfg.SQSReservationQueueURL == "" {
		log.Println("CẢNH BÁO: SQS_RESERVATION_QUEUE_URL chưa được cấu hình. Đặt chỗ sẽ luôn thất bại.")
	}

	// 8. Background jobs: dọn token hết hạn và trả chỗ giữ quá hạn
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go startRevokedTokenSweepJob(jobCtx, revokedRepo, cfg.RevokedTokenSweepPeriod)
	go startExpiredHoldReleaseJob(jobCtx, parkingService, cfg.ReservationHoldTTL)

	// 9. Setup HTTP Router
	router := api.SetupRouter(cfg, api.Services{
		Auth:        authService,
		DeviceAuth:  deviceAuthService,
		Parking:     parkingService,
		Reservation: reservationService,
		Activity:    activityService,
		Vehicle:     vehicleService,
		Device:      deviceService,
		LPR:         lprService,
	}, webSocketManager)

	// 10. Start HTTP Server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server đang chạy trên port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Lỗi ListenAndServe(): %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Đang tắt server...")

	cancelJobs()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server buộc phải tắt: %v", err)
	}

	log.Println("Server đã tắt.")
}

// startRevokedTokenSweepJob xoá định kỳ các token thu hồi đã quá hạn tự nhiên
// để registry không phình vô hạn.
func startRevokedTokenSweepJob(ctx context.Context, revokedRepo repository.RevokedTokenRepository, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			count, err := revokedRepo.DeleteExpired(jobCtx, time.Now().UTC())
			if err != nil {
				log.Printf("Lỗi dọn token thu hồi hết hạn: %v", err)
			} else if count > 0 {
				log.Printf("Đã dọn %d token thu hồi hết hạn", count)
			}
			cancel()
		}
	}
}

// startExpiredHoldReleaseJob trả các chỗ đã cấp cho camera nhưng sensor không
// xác nhận trong hạn giữ về trạng thái trống.
func startExpiredHoldReleaseJob(ctx context.Context, parkingService *service.ParkingService, holdTTL time.Duration) {
	ticker := time.NewTicker(holdTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			count, err := parkingService.ReleaseExpiredHolds(jobCtx, holdTTL)
			if err != nil {
				log.Printf("Lỗi trả chỗ giữ quá hạn: %v", err)
			} else if count > 0 {
				log.Printf("Đã trả %d chỗ giữ quá hạn về trống", count)
			}
			cancel()
		}
	}
}
