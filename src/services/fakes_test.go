package services

import (
	"context"
	"errors"
	"meetingroom/src/models"
	"meetingroom/src/repository"
	"meetingroom/src/types"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var errBoom = errors.New("boom")

// memMeetingStore keeps rooms and meetings in maps and shares one mutex with
// the transactions it hands out.
type memMeetingStore struct {
	mu       *sync.Mutex
	inTx     bool
	rooms    map[uint]*models.Room
	meetings map[uint]*models.Meeting
	loans    []*models.MeetingDevice
	nextID   *uint
	failOn   string
}

func newMemMeetingStore() *memMeetingStore {
	var next uint
	return &memMeetingStore{
		mu:       &sync.Mutex{},
		rooms:    map[uint]*models.Room{},
		meetings: map[uint]*models.Meeting{},
		nextID:   &next,
	}
}

func (s *memMeetingStore) addRoom(id uint, status types.RoomStatus) *models.Room {
	r := &models.Room{ID: id, Name: "room", Status: status}
	s.rooms[id] = r
	return r
}

func (s *memMeetingStore) addMeeting(m models.Meeting) *models.Meeting {
	*s.nextID++
	m.ID = *s.nextID
	if m.Status == "" {
		m.Status = types.MEETING_CONFIRMED
	}
	s.meetings[m.ID] = &m
	return &m
}

func (s *memMeetingStore) FindRoom(ctx context.Context, id uint) (*models.Room, error) {
	r, ok := s.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memMeetingStore) LockRoom(ctx context.Context, id uint) (*models.Room, error) {
	return s.FindRoom(ctx, id)
}

func (s *memMeetingStore) FindMeeting(ctx context.Context, id uint) (*models.Meeting, error) {
	m, ok := s.meetings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memMeetingStore) LockMeeting(ctx context.Context, id uint) (*models.Meeting, error) {
	return s.FindMeeting(ctx, id)
}

func (s *memMeetingStore) FindMeetingDetails(ctx context.Context, id uint) (*models.Meeting, error) {
	m, err := s.FindMeeting(ctx, id)
	if err != nil {
		return nil, err
	}
	if r, ok := s.rooms[m.RoomID]; ok {
		m.Room = r
	}
	return m, nil
}

func (s *memMeetingStore) conflicting(roomID uint, start, end time.Time, exclude uint) bool {
	for _, m := range s.meetings {
		if m.RoomID != roomID || m.IsCancelled() || m.ID == exclude {
			continue
		}
		if Overlaps(m.StartTime, m.EndTime, start, end) {
			return true
		}
	}
	return false
}

func (s *memMeetingStore) ExistsConflictingMeeting(ctx context.Context, roomID uint, start, end time.Time) (bool, error) {
	if s.failOn == "conflict" {
		return false, errBoom
	}
	return s.conflicting(roomID, start, end, 0), nil
}

func (s *memMeetingStore) ExistsConflictingMeetingExcluding(ctx context.Context, roomID uint, start, end time.Time, excludeID uint) (bool, error) {
	return s.conflicting(roomID, start, end, excludeID), nil
}

func (s *memMeetingStore) sorted(keep func(m *models.Meeting) bool) []models.Meeting {
	out := []models.Meeting{}
	for _, m := range s.meetings {
		if keep(m) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (s *memMeetingStore) FindByRoomAndTimeRange(ctx context.Context, roomID uint, from, to time.Time) ([]models.Meeting, error) {
	return s.sorted(func(m *models.Meeting) bool {
		return m.RoomID == roomID && Overlaps(m.StartTime, m.EndTime, from, to)
	}), nil
}

func (s *memMeetingStore) FindUpcoming(ctx context.Context, now time.Time) ([]models.Meeting, error) {
	return s.sorted(func(m *models.Meeting) bool {
		return !m.IsCancelled() && m.StartTime.After(now)
	}), nil
}

func (s *memMeetingStore) FindOngoing(ctx context.Context, now time.Time) ([]models.Meeting, error) {
	return s.sorted(func(m *models.Meeting) bool {
		return !m.IsCancelled() && !m.StartTime.After(now) && !m.EndTime.Before(now)
	}), nil
}

func (s *memMeetingStore) FindEndedBefore(ctx context.Context, now time.Time) ([]models.Meeting, error) {
	return s.sorted(func(m *models.Meeting) bool {
		return !m.IsCancelled() && m.EndTime.Before(now)
	}), nil
}

func (s *memMeetingStore) FindByOwner(ctx context.Context, ownerID uint) ([]models.Meeting, error) {
	return s.sorted(func(m *models.Meeting) bool { return m.OwnerID == ownerID }), nil
}

func (s *memMeetingStore) CreateMeeting(ctx context.Context, m *models.Meeting) error {
	if s.failOn == "create" {
		return errBoom
	}
	*s.nextID++
	m.ID = *s.nextID
	cp := *m
	s.meetings[m.ID] = &cp
	return nil
}

func (s *memMeetingStore) SaveMeeting(ctx context.Context, m *models.Meeting) error {
	cp := *m
	s.meetings[m.ID] = &cp
	return nil
}

func (s *memMeetingStore) DeleteMeeting(ctx context.Context, id uint) error {
	if _, ok := s.meetings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.meetings, id)
	return nil
}

func (s *memMeetingStore) ReleaseDevices(ctx context.Context, meetingID uint, at time.Time) (int64, error) {
	if s.failOn == "release" {
		return 0, errBoom
	}
	var n int64
	for _, l := range s.loans {
		if l.MeetingID == meetingID && l.Status == types.BORROW_BORROWED {
			l.Status = types.BORROW_CANCELLED
			returned := at
			l.ReturnedAt = &returned
			n++
		}
	}
	return n, nil
}

func (s *memMeetingStore) SetGoogleEventID(ctx context.Context, id uint, eventID string) error {
	if m, ok := s.meetings[id]; ok {
		m.GoogleEventID = eventID
	}
	return nil
}

// Transaction serializes callers the way a room row lock would.
func (s *memMeetingStore) Transaction(ctx context.Context, fn func(repository.MeetingStore) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := map[uint]*models.Meeting{}
	for k, v := range s.meetings {
		cp := *v
		snapshot[k] = &cp
	}
	loans := make([]*models.MeetingDevice, 0, len(s.loans))
	for _, l := range s.loans {
		cp := *l
		loans = append(loans, &cp)
	}
	tx := *s
	tx.inTx = true
	if err := fn(&tx); err != nil {
		s.meetings = snapshot
		s.loans = loans
		return err
	}
	return nil
}

type recordingObserver struct {
	mu     sync.Mutex
	events []types.MeetingEventType
}

func (o *recordingObserver) MeetingChanged(ctx context.Context, event types.MeetingEventType, meeting models.Meeting) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

type memDeviceStore struct {
	mu       sync.Mutex
	devices  map[uint]*models.Device
	meetings map[uint]*models.Meeting
	loans    []*models.MeetingDevice
}

func newMemDeviceStore() *memDeviceStore {
	return &memDeviceStore{
		devices:  map[uint]*models.Device{},
		meetings: map[uint]*models.Meeting{},
	}
}

func (s *memDeviceStore) ListDevices(ctx context.Context) ([]models.Device, error) {
	out := []models.Device{}
	for _, d := range s.devices {
		out = append(out, *d)
	}
	return out, nil
}

func (s *memDeviceStore) FindDevice(ctx context.Context, id uint) (*models.Device, error) {
	d, ok := s.devices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *memDeviceStore) LockDevice(ctx context.Context, id uint) (*models.Device, error) {
	return s.FindDevice(ctx, id)
}

func (s *memDeviceStore) CreateDevice(ctx context.Context, d *models.Device) error {
	d.ID = uint(len(s.devices) + 1)
	cp := *d
	s.devices[d.ID] = &cp
	return nil
}

func (s *memDeviceStore) SaveDevice(ctx context.Context, d *models.Device) error {
	cp := *d
	s.devices[d.ID] = &cp
	return nil
}

func (s *memDeviceStore) DeleteDevice(ctx context.Context, id uint) error {
	if _, ok := s.devices[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.devices, id)
	return nil
}

func (s *memDeviceStore) LockMeeting(ctx context.Context, id uint) (*models.Meeting, error) {
	m, ok := s.meetings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memDeviceStore) SumBorrowed(ctx context.Context, deviceID uint) (uint, error) {
	var total uint
	for _, l := range s.loans {
		if l.DeviceID == deviceID && l.Status == types.BORROW_BORROWED {
			total += l.QuantityBorrowed
		}
	}
	return total, nil
}

func (s *memDeviceStore) CreateBorrow(ctx context.Context, md *models.MeetingDevice) error {
	md.ID = uint(len(s.loans) + 1)
	cp := *md
	s.loans = append(s.loans, &cp)
	return nil
}

func (s *memDeviceStore) FindBorrowed(ctx context.Context, meetingID, deviceID uint) ([]models.MeetingDevice, error) {
	out := []models.MeetingDevice{}
	for _, l := range s.loans {
		if l.MeetingID == meetingID && l.Status == types.BORROW_BORROWED && (deviceID == 0 || l.DeviceID == deviceID) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *memDeviceStore) UpdateBorrowStatus(ctx context.Context, ids []uint, status types.BorrowStatus, at *time.Time) error {
	for _, id := range ids {
		for _, l := range s.loans {
			if l.ID == id {
				l.Status = status
				l.ReturnedAt = at
			}
		}
	}
	return nil
}

func (s *memDeviceStore) filter(keep func(*models.MeetingDevice) bool) []models.MeetingDevice {
	out := []models.MeetingDevice{}
	for _, l := range s.loans {
		if keep(l) {
			out = append(out, *l)
		}
	}
	return out
}

func (s *memDeviceStore) ListByMeeting(ctx context.Context, meetingID uint) ([]models.MeetingDevice, error) {
	return s.filter(func(l *models.MeetingDevice) bool { return l.MeetingID == meetingID }), nil
}

func (s *memDeviceStore) ListByRequester(ctx context.Context, userID uint) ([]models.MeetingDevice, error) {
	return s.filter(func(l *models.MeetingDevice) bool { return l.RequestedBy == userID }), nil
}

func (s *memDeviceStore) ListByStatus(ctx context.Context, status types.BorrowStatus) ([]models.MeetingDevice, error) {
	return s.filter(func(l *models.MeetingDevice) bool { return l.Status == status }), nil
}

func (s *memDeviceStore) Transaction(ctx context.Context, fn func(repository.DeviceStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

type memUserStore struct {
	users  map[uint]*models.User
	nextID uint
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[uint]*models.User{}}
}

func (s *memUserStore) find(keep func(*models.User) bool) (*models.User, error) {
	for _, u := range s.users {
		if keep(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memUserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id })
}

func (s *memUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *memUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Username == username })
}

func (s *memUserStore) FindByCognitoSub(ctx context.Context, sub string) (*models.User, error) {
	if sub == "" {
		return nil, repository.ErrNotFound
	}
	return s.find(func(u *models.User) bool { return u.CognitoSub == sub })
}

func (s *memUserStore) List(ctx context.Context) ([]models.User, error) {
	out := []models.User{}
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *memUserStore) Create(ctx context.Context, user *models.User) error {
	s.nextID++
	user.ID = s.nextID
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memUserStore) Save(ctx context.Context, user *models.User) error {
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memUserStore) TouchLastActive(ctx context.Context, id uint, at time.Time) error {
	if u, ok := s.users[id]; ok {
		u.LastActive = &at
	}
	return nil
}

type memCodeStore struct {
	codes []*models.VerificationCode
}

func (s *memCodeStore) InvalidateCodes(ctx context.Context, email string, purpose types.CodePurpose) error {
	for _, c := range s.codes {
		if c.Email == email && c.Purpose == purpose {
			c.Used = true
		}
	}
	return nil
}

func (s *memCodeStore) CreateCode(ctx context.Context, code *models.VerificationCode) error {
	code.ID = uint(len(s.codes) + 1)
	cp := *code
	s.codes = append(s.codes, &cp)
	return nil
}

func (s *memCodeStore) FindUsableCode(ctx context.Context, email string, purpose types.CodePurpose, code string, now time.Time) (*models.VerificationCode, error) {
	for _, c := range s.codes {
		if c.Email == email && c.Purpose == purpose && c.Code == code && c.Usable(now) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memCodeStore) MarkUsed(ctx context.Context, id uint) error {
	for _, c := range s.codes {
		if c.ID == id && !c.Used {
			c.Used = true
			return nil
		}
	}
	return repository.ErrNotFound
}

// contendedCodeStore lets another request consume the code between the
// lookup and the update.
type contendedCodeStore struct {
	*memCodeStore
}

func (s contendedCodeStore) FindUsableCode(ctx context.Context, email string, purpose types.CodePurpose, code string, now time.Time) (*models.VerificationCode, error) {
	vc, err := s.memCodeStore.FindUsableCode(ctx, email, purpose, code, now)
	if err != nil {
		return nil, err
	}
	if err := s.memCodeStore.MarkUsed(ctx, vc.ID); err != nil {
		return nil, err
	}
	return vc, nil
}

func (s *memCodeStore) PurgeCodes(ctx context.Context, now time.Time) (int64, error) {
	kept := []*models.VerificationCode{}
	var purged int64
	for _, c := range s.codes {
		if c.Used || !now.Before(c.ExpiresAt) {
			purged++
			continue
		}
		kept = append(kept, c)
	}
	s.codes = kept
	return purged, nil
}

type memGroupStore struct {
	groups  map[uint]*models.Group
	members []*models.GroupMember
	invites []*models.GroupInvite
	users   *memUserStore
}

func newMemGroupStore(users *memUserStore) *memGroupStore {
	return &memGroupStore{groups: map[uint]*models.Group{}, users: users}
}

func (s *memGroupStore) CreateGroup(ctx context.Context, g *models.Group) error {
	g.ID = uint(len(s.groups) + 1)
	cp := *g
	s.groups[g.ID] = &cp
	return nil
}

func (s *memGroupStore) FindGroup(ctx context.Context, id uint) (*models.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *g
	cp.Members = nil
	for _, m := range s.members {
		if m.GroupID == id {
			mc := *m
			if u, ok := s.users.users[m.UserID]; ok {
				mc.User = u
			}
			cp.Members = append(cp.Members, mc)
		}
	}
	return &cp, nil
}

func (s *memGroupStore) ListGroupsForUser(ctx context.Context, userID uint) ([]models.Group, error) {
	out := []models.Group{}
	for _, m := range s.members {
		if m.UserID == userID {
			out = append(out, *s.groups[m.GroupID])
		}
	}
	return out, nil
}

func (s *memGroupStore) AddMember(ctx context.Context, m *models.GroupMember) error {
	m.ID = uint(len(s.members) + 1)
	cp := *m
	s.members = append(s.members, &cp)
	return nil
}

func (s *memGroupStore) FindMember(ctx context.Context, groupID, userID uint) (*models.GroupMember, error) {
	for _, m := range s.members {
		if m.GroupID == groupID && m.UserID == userID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memGroupStore) CreateInvite(ctx context.Context, inv *models.GroupInvite) error {
	inv.ID = uint(len(s.invites) + 1)
	cp := *inv
	s.invites = append(s.invites, &cp)
	return nil
}

func (s *memGroupStore) FindInviteByToken(ctx context.Context, token uuid.UUID) (*models.GroupInvite, error) {
	for _, inv := range s.invites {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memGroupStore) SaveInvite(ctx context.Context, inv *models.GroupInvite) error {
	for i, existing := range s.invites {
		if existing.ID == inv.ID {
			cp := *inv
			s.invites[i] = &cp
		}
	}
	return nil
}

func (s *memGroupStore) ExpireInvites(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, inv := range s.invites {
		if inv.Status == types.INVITE_PENDING && !now.Before(inv.ExpiresAt) {
			inv.Status = types.INVITE_EXPIRED
			n++
		}
	}
	return n, nil
}

func (s *memGroupStore) Transaction(ctx context.Context, fn func(repository.GroupStore) error) error {
	return fn(s)
}

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

type fakeIdentityProvider struct {
	passwords map[string]string
	tokens    map[string]*types.Identity
	created   int
}

func newFakeIdentityProvider() *fakeIdentityProvider {
	return &fakeIdentityProvider{passwords: map[string]string{}, tokens: map[string]*types.Identity{}}
}

func (p *fakeIdentityProvider) Authenticate(ctx context.Context, username, password string) (*types.Identity, error) {
	if pw, ok := p.passwords[username]; !ok || pw != password {
		return nil, ErrUnauthorized
	}
	return &types.Identity{Subject: "sub-" + username, Username: username}, nil
}

func (p *fakeIdentityProvider) ValidateToken(ctx context.Context, accessToken string) (*types.Identity, error) {
	ident, ok := p.tokens[accessToken]
	if !ok {
		return nil, ErrUnauthorized
	}
	return ident, nil
}

func (p *fakeIdentityProvider) CreateExternalAccount(ctx context.Context, email, username, password string) (string, error) {
	p.created++
	p.passwords[username] = password
	return "sub-" + username, nil
}

func (p *fakeIdentityProvider) SetPassword(ctx context.Context, username, password string) error {
	p.passwords[username] = password
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func at(hour, minute int) time.Time {
	return time.Date(2030, 1, 1, hour, minute, 0, 0, time.UTC)
}

type memRoomStore struct {
	rooms map[uint]*models.Room
}

func newMemRoomStore() *memRoomStore {
	return &memRoomStore{rooms: map[uint]*models.Room{}}
}

func (s *memRoomStore) List(ctx context.Context) ([]models.Room, error) {
	out := []models.Room{}
	for _, r := range s.rooms {
		out = append(out, *r)
	}
	return out, nil
}

func (s *memRoomStore) Find(ctx context.Context, id uint) (*models.Room, error) {
	r, ok := s.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memRoomStore) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	for _, r := range s.rooms {
		if r.Slug == slug && r.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memRoomStore) Create(ctx context.Context, room *models.Room) error {
	room.ID = uint(len(s.rooms) + 1)
	cp := *room
	s.rooms[room.ID] = &cp
	return nil
}

func (s *memRoomStore) Save(ctx context.Context, room *models.Room) error {
	cp := *room
	s.rooms[room.ID] = &cp
	return nil
}

func (s *memRoomStore) Delete(ctx context.Context, id uint) error {
	if _, ok := s.rooms[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.rooms, id)
	return nil
}
