package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/dto"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/internal/models"
	appErrors "github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/errors"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/links"
	"github.com/HoussamEssaki/JOBGATE-Appointment-System-sub000/pkg/upstream"
)

type linkSessionReader interface {
	Get(id string) (*models.AuthSession, error)
}

type appointmentDocuments interface {
	Get(ctx context.Context, creds *upstream.Credentials, id int64) (*models.Appointment, error)
	CalendarICS(ctx context.Context, creds *upstream.Credentials, id int64) ([]byte, error)
	ConfirmationPDF(ctx context.Context, creds *upstream.Credentials, id int64) ([]byte, error)
}

// Document is a rendered download.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DownloadLinkService issues signed links to appointment documents so calendar apps
// and mail clients can fetch them. A link only works while the issuing session is alive.
type DownloadLinkService struct {
	signer    *links.Signer
	sessions  linkSessionReader
	docs      appointmentDocuments
	validator *validator.Validate
	baseURL   string
	logger    *zap.Logger
}

// NewDownloadLinkService constructs the service. baseURL is the public prefix links are served under.
func NewDownloadLinkService(signer *links.Signer, sessions linkSessionReader, docs appointmentDocuments, validate *validator.Validate, baseURL string, logger *zap.Logger) *DownloadLinkService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadLinkService{
		signer:    signer,
		sessions:  sessions,
		docs:      docs,
		validator: validate,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// Issue checks the appointment is visible to the talent and signs a link to it.
func (s *DownloadLinkService) Issue(ctx context.Context, auth *models.AuthSession, appointmentID int64, req dto.DownloadLinkRequest) (*dto.DownloadLink, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid download link request")
	}
	if _, err := s.docs.Get(ctx, auth.Credentials, appointmentID); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(auth.ID, fmt.Sprintf("%s/%d", req.Kind, appointmentID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &dto.DownloadLink{
		URL:       s.baseURL + "/" + token,
		Kind:      req.Kind,
		ExpiresAt: expiresAt.UTC(),
	}, nil
}

// Resolve verifies a token and renders the document it points at.
func (s *DownloadLinkService) Resolve(ctx context.Context, token string) (*Document, error) {
	sessionID, resource, _, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, links.ErrExpired) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "download link has expired")
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "download link is invalid")
	}

	kind, rawID, ok := strings.Cut(resource, "/")
	id, convErr := strconv.ParseInt(rawID, 10, 64)
	if !ok || convErr != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "download link is invalid")
	}

	auth, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "download link is no longer valid, please sign in again")
	}

	switch kind {
	case dto.LinkKindCalendar:
		data, err := s.docs.CalendarICS(ctx, auth.Credentials, id)
		if err != nil {
			return nil, err
		}
		return &Document{Filename: fmt.Sprintf("appointment-%d.ics", id), ContentType: "text/calendar; charset=utf-8", Data: data}, nil
	case dto.LinkKindConfirmation:
		data, err := s.docs.ConfirmationPDF(ctx, auth.Credentials, id)
		if err != nil {
			return nil, err
		}
		return &Document{Filename: fmt.Sprintf("appointment-%d.pdf", id), ContentType: "application/pdf", Data: data}, nil
	default:
		s.logger.Warn("signed link with unknown document kind", zap.String("kind", kind))
		return nil, appErrors.Clone(appErrors.ErrNotFound, "download link is invalid")
	}
}
