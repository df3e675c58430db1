package repository

import (
	"context"
	"meetingroom/src/models"
	"meetingroom/src/models/scopes"
	"meetingroom/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GroupStore interface {
	CreateGroup(ctx context.Context, g *models.Group) error
	FindGroup(ctx context.Context, id uint) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID uint) ([]models.Group, error)
	AddMember(ctx context.Context, m *models.GroupMember) error
	FindMember(ctx context.Context, groupID, userID uint) (*models.GroupMember, error)
	CreateInvite(ctx context.Context, inv *models.GroupInvite) error
	FindInviteByToken(ctx context.Context, token uuid.UUID) (*models.GroupInvite, error)
	SaveInvite(ctx context.Context, inv *models.GroupInvite) error
	ExpireInvites(ctx context.Context, now time.Time) (int64, error)
	Transaction(ctx context.Context, fn func(GroupStore) error) error
}

type gormGroupStore struct {
	db *gorm.DB
}

func NewGroupStore(db *gorm.DB) GroupStore {
	return &gormGroupStore{db: db}
}

func (s *gormGroupStore) CreateGroup(ctx context.Context, g *models.Group) error {
	return s.db.WithContext(ctx).Create(g).Error
}

func (s *gormGroupStore) FindGroup(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := s.db.
		WithContext(ctx).
		Preload("Members.User").
		Scopes(scopes.WithID(id)).
		First(&group).
		Error; err != nil {
		return nil, translate(err)
	}
	return &group, nil
}

func (s *gormGroupStore) ListGroupsForUser(ctx context.Context, userID uint) ([]models.Group, error) {
	var groups []models.Group
	err := s.db.
		WithContext(ctx).
		Joins("JOIN group_members ON group_members.group_id = groups.id AND group_members.deleted_at IS NULL").
		Where("group_members.user_id = ?", userID).
		Order("groups.name asc").
		Find(&groups).
		Error
	return groups, err
}

func (s *gormGroupStore) AddMember(ctx context.Context, m *models.GroupMember) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *gormGroupStore) FindMember(ctx context.Context, groupID, userID uint) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := s.db.
		WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).
		Error; err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

func (s *gormGroupStore) CreateInvite(ctx context.Context, inv *models.GroupInvite) error {
	return s.db.WithContext(ctx).Create(inv).Error
}

func (s *gormGroupStore) FindInviteByToken(ctx context.Context, token uuid.UUID) (*models.GroupInvite, error) {
	var invite models.GroupInvite
	if err := s.db.
		WithContext(ctx).
		Preload("Group").
		Where("token = ?", token).
		First(&invite).
		Error; err != nil {
		return nil, translate(err)
	}
	return &invite, nil
}

func (s *gormGroupStore) SaveInvite(ctx context.Context, inv *models.GroupInvite) error {
	return s.db.WithContext(ctx).Omit("Group").Save(inv).Error
}

func (s *gormGroupStore) ExpireInvites(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.
		WithContext(ctx).
		Model(&models.GroupInvite{}).
		Where("status = ? AND expires_at <= ?", types.INVITE_PENDING, now).
		Update("status", types.INVITE_EXPIRED)
	return result.RowsAffected, result.Error
}

func (s *gormGroupStore) Transaction(ctx context.Context, fn func(GroupStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormGroupStore{db: tx})
	})
}
