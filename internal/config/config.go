package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	AWSRegion              string
	SQSReservationQueueURL string // FIFO queue cho sự kiện đặt chỗ
	IoTMQTTEndpoint        string

	JWTAccessSecret         string
	JWTRefreshSecret        string
	AccessTokenExpiry       time.Duration
	RefreshTokenExpiry      time.Duration
	RefreshCookieName       string
	RefreshCookieMaxAgeSec  int
	ReservationHoldTTL      time.Duration // giữ chỗ tạm sau khi cấp phát, quá hạn thì trả lại
	ReservationPublishWait  time.Duration // thời gian tối đa chờ broker xác nhận
	RevokedTokenSweepPeriod time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Cảnh báo: Không thể tải file .env: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))

	accessExpMinutes, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_EXPIRE_MINUTES", "15"))
	refreshExpDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_EXPIRE_DAYS", "7"))
	holdTTLSeconds, _ := strconv.Atoi(getEnv("RESERVATION_HOLD_TTL_SECONDS", "120"))
	publishWaitSeconds, _ := strconv.Atoi(getEnv("RESERVATION_PUBLISH_WAIT_SECONDS", "5"))

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_DATABASE", "parking_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		AWSRegion:              getEnv("AWS_REGION", "ap-southeast-1"),
		SQSReservationQueueURL: getEnv("SQS_RESERVATION_QUEUE_URL", ""),
		IoTMQTTEndpoint:        getEnv("IOT_MQTT_ENDPOINT", ""),

		JWTAccessSecret:         getEnv("JWT_ACCESS_SECRET_KEY", "access-secret-chi-dung-cho-dev"),
		JWTRefreshSecret:        getEnv("JWT_REFRESH_SECRET_KEY", "refresh-secret-chi-dung-cho-dev"),
		AccessTokenExpiry:       time.Duration(accessExpMinutes) * time.Minute,
		RefreshTokenExpiry:      time.Duration(refreshExpDays) * 24 * time.Hour,
		RefreshCookieName:       getEnv("REFRESH_COOKIE_NAME", "jwt"),
		RefreshCookieMaxAgeSec:  refreshExpDays * 24 * 60 * 60,
		ReservationHoldTTL:      time.Duration(holdTTLSeconds) * time.Second,
		ReservationPublishWait:  time.Duration(publishWaitSeconds) * time.Second,
		RevokedTokenSweepPeriod: 1 * time.Minute,
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Biến môi trường '%s' không được đặt, sử dụng giá trị mặc định", key)
	return fallback
}
