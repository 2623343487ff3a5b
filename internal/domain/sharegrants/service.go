package sharegrants

import (
	"context"
	"strings"
	"time"

	"family-health-records/internal/platform/logger"
)

type Service struct {
	repo     Repository
	families FamilyDirectory
	log      logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, families FamilyDirectory, log logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:     repo,
		families: families,
		log:      log.With(map[string]any{"component": "sharegrants"}),
		now:      time.Now,
	}
}

// ownsFamily responde false ante cualquier error de lookup (fail closed).
func (s *Service) ownsFamily(ctx context.Context, familyID, userID string) bool {
	familyID = strings.TrimSpace(familyID)
	userID = strings.TrimSpace(userID)
	if familyID == "" || userID == "" {
		return false
	}
	ownerID, err := s.families.OwnerOf(ctx, familyID)
	if err != nil {
		return false
	}
	return ownerID != "" && ownerID == userID
}
