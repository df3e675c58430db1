package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"meetingroom/src/models"
	"meetingroom/src/repository"
	"meetingroom/src/types"
	"strings"
	"time"

	"github.com/google/uuid"
)

const InviteTTL = 7 * 24 * time.Hour

type GroupService struct {
	groups  repository.GroupStore
	users   repository.UserStore
	mailer  Mailer
	appHost string
	now     func() time.Time
}

func NewGroupService(groups repository.GroupStore, users repository.UserStore, mailer Mailer, appHost string) *GroupService {
	return &GroupService{
		groups:  groups,
		users:   users,
		mailer:  mailer,
		appHost: strings.TrimRight(appHost, "/"),
		now:     time.Now,
	}
}

func (s *GroupService) WithClock(now func() time.Time) *GroupService {
	s.now = now
	return s
}

// CreateGroup creates the group with its creator as the OWNER.
func (s *GroupService) CreateGroup(ctx context.Context, ownerID uint, name, description string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	var group *models.Group
	err := s.groups.Transaction(ctx, func(tx repository.GroupStore) error {
		g := &models.Group{Name: name, Description: description, OwnerID: ownerID}
		if err := tx.CreateGroup(ctx, g); err != nil {
			return err
		}
		owner := &models.GroupMember{GroupID: g.ID, UserID: ownerID, Role: types.GROUP_OWNER}
		if err := tx.AddMember(ctx, owner); err != nil {
			return err
		}
		g.Members = []models.GroupMember{*owner}
		group = g
		return nil
	})
	return group, err
}

func (s *GroupService) ListGroups(ctx context.Context, userID uint) ([]models.Group, error) {
	return s.groups.ListGroupsForUser(ctx, userID)
}

func (s *GroupService) GetGroup(ctx context.Context, actor Actor, id uint) (*models.Group, error) {
	group, err := s.groups.FindGroup(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("group", id)
	}
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return group, nil
	}
	for _, m := range group.Members {
		if m.UserID == actor.ID {
			return group, nil
		}
	}
	return nil, ErrForbidden
}

// Invite sends a single-use invitation link to the email. Only group owners may invite.
func (s *GroupService) Invite(ctx context.Context, actorID, groupID uint, email string) (*models.GroupInvite, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid("email", "is required")
	}
	group, err := s.groups.FindGroup(ctx, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("group", groupID)
	}
	if err != nil {
		return nil, err
	}
	member, err := s.groups.FindMember(ctx, groupID, actorID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && member.Role != types.GROUP_OWNER) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	for _, m := range group.Members {
		if m.User != nil && strings.EqualFold(m.User.Email, email) {
			return nil, invalid("email", "is already a member")
		}
	}
	invite := &models.GroupInvite{
		Token:     uuid.New(),
		GroupID:   groupID,
		Email:     email,
		InvitedBy: actorID,
		Status:    types.INVITE_PENDING,
		ExpiresAt: s.now().Add(InviteTTL),
	}
	if err := s.groups.CreateInvite(ctx, invite); err != nil {
		return nil, err
	}
	link := fmt.Sprintf("%s/invites/%s", s.appHost, invite.Token.String())
	body := fmt.Sprintf("You have been invited to join %q. Accept the invitation here: %s\nThe link expires on %s.", group.Name, link, invite.ExpiresAt.Format(time.RFC1123))
	if err := s.mailer.Send(ctx, email, fmt.Sprintf("Invitation to %s", group.Name), body); err != nil {
		log.Printf("[GroupInvite] could not mail invite %d: %s\n", invite.ID, err.Error())
	}
	return invite, nil
}

// Accept turns a pending invite into a membership for the accepting user.
// Accepting an invite twice returns the existing membership.
func (s *GroupService) Accept(ctx context.Context, userID uint, token uuid.UUID) (*models.GroupMember, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	var member *models.GroupMember
	err = s.groups.Transaction(ctx, func(tx repository.GroupStore) error {
		invite, err := tx.FindInviteByToken(ctx, token)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("invite", token)
		}
		if err != nil {
			return err
		}
		if !strings.EqualFold(invite.Email, user.Email) {
			return ErrForbidden
		}
		existing, err := tx.FindMember(ctx, invite.GroupID, userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if invite.Status == types.INVITE_ACCEPTED {
			if existing != nil {
				member = existing
				return nil
			}
			return invalid("token", "invite has already been used")
		}
		now := s.now()
		if invite.IsExpired(now) {
			return invalid("token", "invite has expired")
		}
		if existing == nil {
			existing = &models.GroupMember{GroupID: invite.GroupID, UserID: userID, Role: types.GROUP_MEMBER}
			if err := tx.AddMember(ctx, existing); err != nil {
				return err
			}
		}
		invite.Status = types.INVITE_ACCEPTED
		invite.AcceptedAt = &now
		if err := tx.SaveInvite(ctx, invite); err != nil {
			return err
		}
		member = existing
		return nil
	})
	return member, err
}

func (s *GroupService) ExpireStale(ctx context.Context) (int64, error) {
	return s.groups.ExpireInvites(ctx, s.now())
}
