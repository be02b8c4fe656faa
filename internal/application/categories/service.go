package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"listinghub-backend/internal/domain"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrNameRequired = errors.New("Name is required")
	ErrInvalidType  = errors.New("Type must be one of: event, vendor, temple, activity")
)

const cacheKeyPrefix = "categories:"

// Service reads and creates categories. Rdb is optional; when set, lists are cached for TTL.
type Service struct {
	DB  *gorm.DB
	Rdb *redis.Client
	TTL time.Duration
}

func cacheKey(typ string) string {
	if typ == "" {
		return cacheKeyPrefix + "all"
	}
	return cacheKeyPrefix + "type:" + typ
}

// List returns categories, optionally filtered by listing type.
func (s *Service) List(ctx context.Context, typ string) ([]domain.Category, error) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ != "" && !domain.ValidListingType(typ) {
		return nil, ErrInvalidType
	}

	if s.Rdb != nil {
		if raw, err := s.Rdb.Get(ctx, cacheKey(typ)).Bytes(); err == nil {
			var cached []domain.Category
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("categories: cache read failed")
		}
	}

	q := s.DB.WithContext(ctx).Model(&domain.Category{})
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	out := []domain.Category{}
	if err := q.Order("name ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch categories: %w", err)
	}

	if s.Rdb != nil {
		if b, err := json.Marshal(out); err == nil {
			if err := s.Rdb.Set(ctx, cacheKey(typ), b, s.ttl()).Err(); err != nil {
				log.Warn().Err(err).Msg("categories: cache write failed")
			}
		}
	}
	return out, nil
}

// Create adds a category and drops cached lists.
func (s *Service) Create(ctx context.Context, name, typ string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	typ = strings.ToLower(strings.TrimSpace(typ))
	if name == "" {
		return nil, ErrNameRequired
	}
	if !domain.ValidListingType(typ) {
		return nil, ErrInvalidType
	}
	c := &domain.Category{Name: name, Type: typ}
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("Failed to create category: %w", err)
	}
	s.invalidate(ctx)
	return c, nil
}

// Exists reports whether a category id exists.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Category{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.Rdb == nil {
		return
	}
	keys := []string{cacheKey("")}
	for _, t := range []string{domain.ListingTypeEvent, domain.ListingTypeVendor, domain.ListingTypeTemple, domain.ListingTypeActivity} {
		keys = append(keys, cacheKey(t))
	}
	if err := s.Rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Msg("categories: cache invalidation failed")
	}
}

func (s *Service) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return 5 * time.Minute
}
