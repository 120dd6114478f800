package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"

	"github.com/schoolhub/backend/internal/config"
	"github.com/schoolhub/backend/internal/models"
	"github.com/schoolhub/backend/internal/pix"
)

// PixService turns an event's PIX identity and an amount into a shareable
// BR Code, and optionally renders it as a QR image. Rendered images are
// cached in Redis keyed by the payload itself; a nil client skips caching.
type PixService struct {
	redis *redis.Client
	cfg   *config.PixConfig
}

func NewPixService(redisClient *redis.Client, cfg *config.PixConfig) *PixService {
	if cfg == nil {
		cfg = config.LoadPixConfig()
	}
	return &PixService{
		redis: redisClient,
		cfg:   cfg,
	}
}

// GenerateCode normalizes the identity fields the way bank apps expect and
// encodes the BR Code payload. A zero amount produces a static code with no
// amount field.
func (s *PixService) GenerateCode(identity models.PixIdentity, amount models.Money, txRef string) (string, error) {
	key := pix.NormalizeKey(identity.Key)
	if key == "" {
		key = pix.NormalizeKey(s.cfg.DefaultKey)
	}

	name := pix.NormalizeText(identity.HolderName, pix.MaxNameLen)
	if name == "" {
		name = s.cfg.FallbackName
	}
	city := pix.NormalizeText(identity.City, pix.MaxCityLen)
	if city == "" {
		city = s.cfg.FallbackCity
	}

	payload := pix.Payload{
		Key:          key,
		MerchantName: name,
		MerchantCity: city,
		TxID:         pix.NormalizeTxID(txRef),
	}
	if !amount.IsZero() {
		payload.Amount = amount.String()
	}

	return pix.Encode(payload)
}

// GenerateQRImage renders a BR Code as a base64 PNG, serving repeat
// requests from the Redis cache.
func (s *PixService) GenerateQRImage(ctx context.Context, code string) (string, error) {
	cacheKey := fmt.Sprintf("pix:qr:%s", code)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			return cached, nil
		}
	}

	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(s.cfg.QRImageSize)); err != nil {
		return "", err
	}
	image := base64.StdEncoding.EncodeToString(buf.Bytes())

	if s.redis != nil {
		s.redis.Set(ctx, cacheKey, image, s.cfg.QRCacheTTL)
	}

	return image, nil
}
