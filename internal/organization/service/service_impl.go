package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ledgerly/internal/clock"
	"github.com/smallbiznis/ledgerly/internal/organization/domain"
	"github.com/smallbiznis/ledgerly/internal/organization/event"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db        *gorm.DB
	repo      domain.Repository
	genID     *snowflake.Node
	clk       clock.Clock
	publisher event.EventPublisher
}

func NewService(db *gorm.DB, repo domain.Repository, genID *snowflake.Node, clk clock.Clock, publisher event.EventPublisher) domain.Service {
	return &service{
		db:        db,
		repo:      repo,
		genID:     genID,
		clk:       clk,
		publisher: publisher,
	}
}

func (s *service) Create(ctx context.Context, ownerID snowflake.ID, req domain.CreateOrganizationRequest) (*domain.OrganizationResponse, error) {
	if ownerID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.clk.Now()
	orgID := s.genID.Generate()
	org := domain.Organization{
		ID:           orgID,
		OwnerID:      ownerID,
		Name:         name,
		CountryCode:  strings.TrimSpace(req.CountryCode),
		TimezoneName: strings.TrimSpace(req.TimezoneName),
		CreatedAt:    now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrganization(ctx, org); err != nil {
			return err
		}

		member := domain.OrganizationMember{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			UserID:    ownerID,
			Role:      domain.RoleOwner,
			CreatedAt: now,
		}

		return repo.AddMember(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	s.emitOrganizationCreated(ctx, org)

	return &domain.OrganizationResponse{
		ID:           orgID.String(),
		Name:         name,
		OwnerID:      ownerID.String(),
		CountryCode:  org.CountryCode,
		TimezoneName: org.TimezoneName,
	}, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*domain.OrganizationResponse, error) {
	raw := strings.TrimSpace(id)
	if raw == "" {
		return nil, domain.ErrInvalidOrganization
	}
	orgID, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}

	var org domain.Organization
	if err := s.db.WithContext(ctx).First(&org, "id = ?", orgID).Error; err != nil {
		return nil, err
	}

	return &domain.OrganizationResponse{
		ID:           org.ID.String(),
		Name:         org.Name,
		OwnerID:      org.OwnerID.String(),
		CountryCode:  org.CountryCode,
		TimezoneName: org.TimezoneName,
	}, nil
}

func (s *service) ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]domain.OrganizationListResponseItem, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	items, err := s.repo.ListOrganizationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.OrganizationListResponseItem, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.OrganizationListResponseItem{
			ID:        item.ID.String(),
			Name:      item.Name,
			Role:      item.Role,
			CreatedAt: item.CreatedAt,
		})
	}

	return resp, nil
}

func (s *service) AddMember(ctx context.Context, orgID string, req domain.AddMemberRequest) error {
	oid, err := parseID(orgID, domain.ErrInvalidOrganization)
	if err != nil {
		return err
	}
	uid, err := parseID(req.UserID, domain.ErrInvalidUser)
	if err != nil {
		return err
	}

	role := strings.ToUpper(strings.TrimSpace(req.Role))
	switch role {
	case domain.RoleOwner, domain.RoleAdmin, domain.RoleMember:
	case "":
		role = domain.RoleMember
	default:
		return domain.ErrInvalidRole
	}

	return s.repo.AddMember(ctx, domain.OrganizationMember{
		ID:        s.genID.Generate(),
		OrgID:     oid,
		UserID:    uid,
		Role:      role,
		CreatedAt: s.clk.Now(),
	})
}

func (s *service) RemoveMember(ctx context.Context, orgID string, userID string) error {
	oid, err := parseID(orgID, domain.ErrInvalidOrganization)
	if err != nil {
		return err
	}
	uid, err := parseID(userID, domain.ErrInvalidUser)
	if err != nil {
		return err
	}

	return s.repo.RemoveMember(ctx, oid, uid, s.clk.Now())
}

func parseID(raw string, invalid error) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, invalid
	}
	id, err := snowflake.ParseString(trimmed)
	if err != nil {
		return 0, invalid
	}
	return id, nil
}

func (s *service) emitOrganizationCreated(ctx context.Context, org domain.Organization) {
	if s.publisher == nil {
		return
	}

	payload := map[string]string{
		"organization_id": org.ID.String(),
		"owner_user_id":   org.OwnerID.String(),
		"created_at":      org.CreatedAt.Format(time.RFC3339),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		zap.L().Warn("failed to marshal organization.created payload", zap.Error(err))
		return
	}

	if err := s.publisher.Publish(ctx, event.OrganizationCreatedTopic, data); err != nil {
		zap.L().Warn("failed to publish organization.created", zap.Error(err))
	}
}
