package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

type catalogRepository interface {
	ListThemes(ctx context.Context, creds *upstream.Credentials) ([]models.AppointmentTheme, error)
	ListAgendas(ctx context.Context, creds *upstream.Credentials, filter models.AgendaFilter) ([]models.Agenda, error)
	GetAgenda(ctx context.Context, creds *upstream.Credentials, id int64) (*models.Agenda, error)
}

// CatalogService serves themes and the agenda selector.
type CatalogService struct {
	repo     catalogRepository
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCatalogService constructs the service. A nil cache disables caching.
func NewCatalogService(repo catalogRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// ListThemes returns every theme and whether it came from cache.
func (s *CatalogService) ListThemes(ctx context.Context, creds *upstream.Credentials) ([]models.AppointmentTheme, bool, error) {
	themes, hit, err := cached(ctx, s.cache, cacheKey("catalog", "themes"), s.cacheTTL, func() ([]models.AppointmentTheme, error) {
		return s.repo.ListThemes(ctx, creds)
	})
	if err != nil {
		return nil, false, translateUpstream(err, "load themes")
	}
	return themes, hit, nil
}

// ListAgendas returns the agendas matching filter and whether the backend list came from cache.
func (s *CatalogService) ListAgendas(ctx context.Context, creds *upstream.Credentials, filter models.AgendaFilter) ([]models.Agenda, bool, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.ThemeID < 0 || filter.UniversityID < 0 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "theme_id and university_id must be positive")
	}

	key := cacheKey("catalog", "agendas",
		strings.ToLower(filter.Search),
		strconv.FormatInt(filter.ThemeID, 10),
		strconv.FormatInt(filter.UniversityID, 10))
	agendas, hit, err := cached(ctx, s.cache, key, s.cacheTTL, func() ([]models.Agenda, error) {
		return s.repo.ListAgendas(ctx, creds, filter)
	})
	if err != nil {
		return nil, false, translateUpstream(err, "load agendas")
	}
	return FilterAgendas(agendas, filter), hit, nil
}

// GetAgenda fetches one agenda. It is not cached so capacity and deadlines stay current.
func (s *CatalogService) GetAgenda(ctx context.Context, creds *upstream.Credentials, id int64) (*models.Agenda, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "agenda_id must be positive")
	}
	agenda, err := s.repo.GetAgenda(ctx, creds, id)
	if err != nil {
		err = translateUpstream(err, "load agenda")
		if errors.Is(err, appErrors.ErrNotFound) {
			// the cached lists may still offer the vanished agenda
			_ = s.cache.Invalidate(ctx, cacheKey("catalog", "agendas", "*"))
		}
		return nil, err
	}
	return agenda, nil
}

// FilterAgendas keeps agendas whose name or description contains the search text,
// case-insensitively, and whose theme and university match the non-zero filter ids.
func FilterAgendas(agendas []models.Agenda, filter models.AgendaFilter) []models.Agenda {
	needle := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.Agenda, 0, len(agendas))
	for _, agenda := range agendas {
		if needle != "" &&
			!strings.Contains(strings.ToLower(agenda.Name), needle) &&
			!strings.Contains(strings.ToLower(agenda.Description), needle) {
			continue
		}
		if filter.ThemeID != 0 && agenda.Theme.ID != filter.ThemeID {
			continue
		}
		if filter.UniversityID != 0 && agenda.University.ID != filter.UniversityID {
			continue
		}
		out = append(out, agenda)
	}
	return out
}
