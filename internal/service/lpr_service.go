package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

var ErrNoPlateDetected = errors.New("không nhận diện được biển số trong ảnh")

// Biển số Việt Nam: 2 số mã tỉnh, 1-2 chữ seri, 4-5 số, có thể kèm .xx
var plateRegex = regexp.MustCompile(`^[0-9]{2}[A-Z]{1,2}[- ]?[0-9]{3,5}(\.[0-9]{2})?$`)

type rekognitionAPI interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// LPRService nhận diện biển số từ ảnh camera gửi lên bằng Rekognition
// DetectText, lọc các dòng text khớp định dạng biển số.
type LPRService struct {
	client rekognitionAPI
}

func NewLPRService(client rekognitionAPI) *LPRService {
	return &LPRService{client: client}
}

func (s *LPRService) DetectLicensePlate(ctx context.Context, imageBytes []byte) (string, error) {
	output, err := s.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: imageBytes},
	})
	if err != nil {
		return "", fmt.Errorf("lỗi gọi Rekognition DetectText: %w", err)
	}

	// Biển số hai dòng được Rekognition trả về thành hai LINE riêng; ghép
	// từng cặp dòng liền kề trước khi so khớp.
	var lines []string
	for _, detection := range output.TextDetections {
		if detection.Type == types.TextTypesLine && detection.DetectedText != nil {
			lines = append(lines, strings.ToUpper(strings.TrimSpace(*detection.DetectedText)))
		}
	}

	for i, line := range lines {
		normalized := normalizePlate(line)
		if plateRegex.MatchString(normalized) {
			return normalized, nil
		}
		if i+1 < len(lines) {
			combined := normalizePlate(line + lines[i+1])
			if plateRegex.MatchString(combined) {
				return combined, nil
			}
		}
	}
	return "", ErrNoPlateDetected
}

func normalizePlate(raw string) string {
	return strings.ReplaceAll(strings.ReplaceAll(raw, " ", ""), "-", "")
}
