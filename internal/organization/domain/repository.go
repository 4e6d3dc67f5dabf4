package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type OrganizationListItem struct {
	ID        snowflake.ID
	Name      string
	Role      string
	CreatedAt time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrganization(ctx context.Context, org Organization) error
	AddMember(ctx context.Context, member OrganizationMember) error
	RemoveMember(ctx context.Context, orgID, userID snowflake.ID, at time.Time) error
	ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]OrganizationListItem, error)
	ListOrganizationsByOwner(ctx context.Context, ownerID snowflake.ID) ([]Organization, error)
	ListMembers(ctx context.Context, orgID snowflake.ID) ([]OrganizationMember, error)
}
