package services

// In-memory repository fakes for service tests. They mimic the contract of
// the SQL repositories: creates assign IDs back onto the model, reads return
// copies so only an explicit Update persists a mutation, and unique
// constraints surface as repositories.ErrDuplicateKey.

import (
	"context"
	"sort"
	"time"

	"gym_club_backend/internal/models"
	"gym_club_backend/internal/repositories"
)

// fakeTxManager runs the function directly; the nil executor is never touched
// by the fakes.
type fakeTxManager struct{}

func (fakeTxManager) WithinTx(fn func(executor repositories.SQLExecutor) error) error {
	return fn(nil)
}

// --- memberships ---

type fakeMembershipRepo struct {
	nextID      int64
	memberships map[int64]models.Membership
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{memberships: make(map[int64]models.Membership)}
}

func (r *fakeMembershipRepo) CreateMembership(_ repositories.SQLExecutor, m *models.Membership) (int64, error) {
	r.nextID++
	m.ID = r.nextID
	r.memberships[m.ID] = *m
	return m.ID, nil
}

func (r *fakeMembershipRepo) GetMembershipByID(id int64) (*models.Membership, error) {
	m, ok := r.memberships[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := m
	return &out, nil
}

func (r *fakeMembershipRepo) GetMembershipByIDForUpdate(_ repositories.SQLExecutor, id int64) (*models.Membership, error) {
	return r.GetMembershipByID(id)
}

func (r *fakeMembershipRepo) GetActiveOrSuspendedByMemberID(memberID int64) (*models.Membership, error) {
	for _, m := range r.memberships {
		if m.MemberID == memberID &&
			(m.Status == models.MembershipStatusActive || m.Status == models.MembershipStatusSuspended) {
			out := m
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeMembershipRepo) GetMembershipsByMemberID(memberID int64) ([]models.Membership, error) {
	var out []models.Membership
	for _, m := range r.memberships {
		if m.MemberID == memberID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMembershipRepo) UpdateMembership(_ repositories.SQLExecutor, m *models.Membership) error {
	if _, ok := r.memberships[m.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.memberships[m.ID] = *m
	return nil
}

// --- directory lookups ---

type fakeDirectoryRepo struct {
	members   map[int64]models.Member
	types     map[int64]models.MembershipType
	locations map[int64]models.Location
}

func newFakeDirectoryRepo() *fakeDirectoryRepo {
	return &fakeDirectoryRepo{
		members:   make(map[int64]models.Member),
		types:     make(map[int64]models.MembershipType),
		locations: make(map[int64]models.Location),
	}
}

func (r *fakeDirectoryRepo) GetMemberByID(id int64) (*models.Member, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := m
	return &out, nil
}

func (r *fakeDirectoryRepo) GetMembershipTypeByID(id int64) (*models.MembershipType, error) {
	mt, ok := r.types[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := mt
	return &out, nil
}

func (r *fakeDirectoryRepo) GetLocationByID(id int64) (*models.Location, error) {
	l, ok := r.locations[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := l
	return &out, nil
}

// --- loyalty profiles ---

type fakeProfileRepo struct {
	nextID   int64
	profiles map[int64]models.LoyaltyProfile // keyed by member ID
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[int64]models.LoyaltyProfile)}
}

func (r *fakeProfileRepo) CreateProfile(_ repositories.SQLExecutor, p *models.LoyaltyProfile) (int64, error) {
	if _, ok := r.profiles[p.MemberID]; ok {
		return 0, repositories.ErrDuplicateKey
	}
	r.nextID++
	p.ID = r.nextID
	r.profiles[p.MemberID] = *p
	return p.ID, nil
}

func (r *fakeProfileRepo) GetProfileByID(id int64) (*models.LoyaltyProfile, error) {
	for _, p := range r.profiles {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeProfileRepo) GetProfileByMemberID(memberID int64) (*models.LoyaltyProfile, error) {
	p, ok := r.profiles[memberID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := p
	return &out, nil
}

func (r *fakeProfileRepo) GetProfileByMemberIDForUpdate(_ repositories.SQLExecutor, memberID int64) (*models.LoyaltyProfile, error) {
	return r.GetProfileByMemberID(memberID)
}

func (r *fakeProfileRepo) UpdateProfile(_ repositories.SQLExecutor, p *models.LoyaltyProfile) error {
	if _, ok := r.profiles[p.MemberID]; !ok {
		return repositories.ErrNotFound
	}
	r.profiles[p.MemberID] = *p
	return nil
}

func (r *fakeProfileRepo) GetAllProfiles() ([]models.LoyaltyProfile, error) {
	var out []models.LoyaltyProfile
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- loyalty activities ---

type fakeActivityRepo struct {
	nextID     int64
	activities map[int64]models.LoyaltyActivity
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{activities: make(map[int64]models.LoyaltyActivity)}
}

func (r *fakeActivityRepo) CreateActivity(_ repositories.SQLExecutor, a *models.LoyaltyActivity) (int64, error) {
	r.nextID++
	a.ID = r.nextID
	r.activities[a.ID] = *a
	return a.ID, nil
}

func (r *fakeActivityRepo) GetActivityByID(id int64) (*models.LoyaltyActivity, error) {
	a, ok := r.activities[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := a
	return &out, nil
}

func (r *fakeActivityRepo) GetActivityByIDForUpdate(_ repositories.SQLExecutor, id int64) (*models.LoyaltyActivity, error) {
	return r.GetActivityByID(id)
}

func (r *fakeActivityRepo) UpdateActivityFlags(_ repositories.SQLExecutor, a *models.LoyaltyActivity) error {
	stored, ok := r.activities[a.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.IsCancelled = a.IsCancelled
	stored.IsExpired = a.IsExpired
	r.activities[a.ID] = stored
	return nil
}

func (r *fakeActivityRepo) GetActivitiesByMemberID(memberID int64, page, pageSize int) ([]models.LoyaltyActivity, int, error) {
	var all []models.LoyaltyActivity
	for _, a := range r.activities {
		if a.MemberID == memberID {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := len(all)
	start := (page - 1) * pageSize
	if start >= total {
		return []models.LoyaltyActivity{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *fakeActivityRepo) GetExpirableActivities(now time.Time) ([]models.LoyaltyActivity, error) {
	var out []models.LoyaltyActivity
	for _, a := range r.activities {
		if a.ExpirationDate != nil && a.ExpirationDate.Before(now) && !a.IsExpired && !a.IsCancelled {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- rewards ---

type fakeRewardRepo struct {
	nextID  int64
	rewards map[int64]models.LoyaltyReward
}

func newFakeRewardRepo() *fakeRewardRepo {
	return &fakeRewardRepo{rewards: make(map[int64]models.LoyaltyReward)}
}

func (r *fakeRewardRepo) CreateReward(_ repositories.SQLExecutor, reward *models.LoyaltyReward) (int64, error) {
	r.nextID++
	reward.ID = r.nextID
	r.rewards[reward.ID] = *reward
	return reward.ID, nil
}

func (r *fakeRewardRepo) GetRewardByID(id int64) (*models.LoyaltyReward, error) {
	reward, ok := r.rewards[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := reward
	return &out, nil
}

func (r *fakeRewardRepo) GetRewards(onlyActive bool) ([]models.LoyaltyReward, error) {
	var out []models.LoyaltyReward
	for _, reward := range r.rewards {
		if onlyActive && !reward.IsActive {
			continue
		}
		out = append(out, reward)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRewardRepo) UpdateReward(_ repositories.SQLExecutor, reward *models.LoyaltyReward) error {
	if _, ok := r.rewards[reward.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.rewards[reward.ID] = *reward
	return nil
}

// --- redemptions ---

type fakeRedemptionRepo struct {
	nextID      int64
	redemptions map[int64]models.LoyaltyRedemption
}

func newFakeRedemptionRepo() *fakeRedemptionRepo {
	return &fakeRedemptionRepo{redemptions: make(map[int64]models.LoyaltyRedemption)}
}

func (r *fakeRedemptionRepo) CreateRedemption(_ repositories.SQLExecutor, red *models.LoyaltyRedemption) (int64, error) {
	for _, existing := range r.redemptions {
		if existing.RedemptionCode == red.RedemptionCode {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.nextID++
	red.ID = r.nextID
	r.redemptions[red.ID] = *red
	return red.ID, nil
}

func (r *fakeRedemptionRepo) GetRedemptionByID(id int64) (*models.LoyaltyRedemption, error) {
	red, ok := r.redemptions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := red
	return &out, nil
}

func (r *fakeRedemptionRepo) GetRedemptionByCode(code string) (*models.LoyaltyRedemption, error) {
	for _, red := range r.redemptions {
		if red.RedemptionCode == code {
			out := red
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeRedemptionRepo) GetRedemptionByCodeForUpdate(_ repositories.SQLExecutor, code string) (*models.LoyaltyRedemption, error) {
	return r.GetRedemptionByCode(code)
}

func (r *fakeRedemptionRepo) UpdateRedemption(_ repositories.SQLExecutor, red *models.LoyaltyRedemption) error {
	if _, ok := r.redemptions[red.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.redemptions[red.ID] = *red
	return nil
}

func (r *fakeRedemptionRepo) GetRedemptionsByMemberID(memberID int64) ([]models.LoyaltyRedemption, error) {
	var out []models.LoyaltyRedemption
	for _, red := range r.redemptions {
		if red.MemberID == memberID {
			out = append(out, red)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRedemptionRepo) GetExpirableRedemptions(now time.Time) ([]models.LoyaltyRedemption, error) {
	var out []models.LoyaltyRedemption
	for _, red := range r.redemptions {
		if red.Status == models.RedemptionStatusActive && now.After(red.ExpirationDate) {
			out = append(out, red)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- staff accounts ---

type fakeAuthRepo struct {
	nextID int64
	users  map[string]models.StaffUser // keyed by username, PasswordHash populated
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: make(map[string]models.StaffUser)}
}

func (r *fakeAuthRepo) CreateStaffUser(_ repositories.SQLExecutor, user *models.StaffUser, hashedPassword string) (int64, error) {
	if _, ok := r.users[user.Username]; ok {
		return 0, repositories.ErrDuplicateKey
	}
	r.nextID++
	stored := *user
	stored.ID = r.nextID
	stored.PasswordHash = hashedPassword
	r.users[user.Username] = stored
	return stored.ID, nil
}

func (r *fakeAuthRepo) FindStaffByUsername(username string) (*models.StaffUser, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := user
	return &out, nil
}

func (r *fakeAuthRepo) FindStaffByID(id int64) (*models.StaffUser, error) {
	for _, user := range r.users {
		if user.ID == id {
			out := user
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// --- collaborators ---

type fakePaymentVerifier struct {
	result *PaymentResult
	err    error
}

func (v *fakePaymentVerifier) VerifyPayment(_ context.Context, _ string) (*PaymentResult, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.result, nil
}

type recordedNotification struct {
	memberID int64
	kind     NotificationKind
	vars     map[string]string
}

type fakeNotifier struct {
	sent []recordedNotification
	err  error
}

func (n *fakeNotifier) Notify(memberID int64, kind NotificationKind, vars map[string]string) error {
	n.sent = append(n.sent, recordedNotification{memberID: memberID, kind: kind, vars: vars})
	return n.err
}

type fakeActivityLogger struct {
	logged []LogActivityRequest
	err    error
}

func (l *fakeActivityLogger) LogActivity(req LogActivityRequest) (*models.LoyaltyActivity, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.logged = append(l.logged, req)
	return &models.LoyaltyActivity{MemberID: req.MemberID, ActivityType: req.ActivityType}, nil
}
