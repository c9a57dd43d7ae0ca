package service

import (
	"context"
	"sort"
	"time"

	"github.com/avelasco/fotomaton/internal/errs"
	"github.com/avelasco/fotomaton/internal/model"
	"github.com/avelasco/fotomaton/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// In-memory repository fakes mirroring the transactional semantics of the
// postgres implementations.

type fakeUsers struct {
	byID map[uuid.UUID]*model.User

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uuid.UUID]*model.User{}}
}

func (f *fakeUsers) add(u *model.User) { cpy := *u; f.byID[u.ID] = &cpy }

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.Username == u.Username || existing.Email == u.Email {
			return errs.ErrAlreadyExists
		}
	}
	f.add(u)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *u
	return &cpy, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Username == username {
			cpy := *u
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cpy := *u
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) UpdateProfile(_ context.Context, u *model.User) error {
	stored, ok := f.byID[u.ID]
	if !ok {
		return errs.ErrNotFound
	}
	stored.FirstName = u.FirstName
	stored.LastName = u.LastName
	stored.Phone = u.Phone
	stored.Bio = u.Bio
	stored.PreferredCountdown = u.PreferredCountdown
	stored.PreferredInterval = u.PreferredInterval
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

type fakeTokens struct {
	byUser map[uuid.UUID]*model.AuthToken
}

var _ repository.TokenRepository = (*fakeTokens)(nil)

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byUser: map[uuid.UUID]*model.AuthToken{}}
}

func (f *fakeTokens) GetOrCreate(_ context.Context, userID uuid.UUID, key string) (*model.AuthToken, error) {
	if t, ok := f.byUser[userID]; ok {
		cpy := *t
		return &cpy, nil
	}
	t := &model.AuthToken{Key: key, UserID: userID, CreatedAt: time.Now()}
	f.byUser[userID] = t
	cpy := *t
	return &cpy, nil
}

func (f *fakeTokens) GetByKey(_ context.Context, key string) (*model.AuthToken, error) {
	for _, t := range f.byUser {
		if t.Key == key {
			cpy := *t
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeTokens) DeleteByKey(_ context.Context, key string) error {
	for uid, t := range f.byUser {
		if t.Key == key {
			delete(f.byUser, uid)
			return nil
		}
	}
	return errs.ErrNotFound
}

func (f *fakeTokens) Rotate(_ context.Context, userID uuid.UUID, key string) (*model.AuthToken, error) {
	t := &model.AuthToken{Key: key, UserID: userID, CreatedAt: time.Now()}
	f.byUser[userID] = t
	cpy := *t
	return &cpy, nil
}

type fakeSessions struct {
	users *fakeUsers // counter side effects, may be nil

	sessions map[uuid.UUID]*model.PhotoSession
	settings map[uuid.UUID]*model.SessionSettings
	// file paths reported by Delete, keyed by session
	childPaths map[uuid.UUID][]string

	createErrs []error // queued forced failures for retry tests
}

var _ repository.SessionRepository = (*fakeSessions)(nil)

func newFakeSessions(users *fakeUsers) *fakeSessions {
	return &fakeSessions{
		users:      users,
		sessions:   map[uuid.UUID]*model.PhotoSession{},
		settings:   map[uuid.UUID]*model.SessionSettings{},
		childPaths: map[uuid.UUID][]string{},
	}
}

func (f *fakeSessions) Create(_ context.Context, s *model.PhotoSession, set *model.SessionSettings) error {
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		return err
	}
	for _, existing := range f.sessions {
		if existing.AccessCode == s.AccessCode {
			return errs.ErrAlreadyExists
		}
	}
	sCpy, setCpy := *s, *set
	f.sessions[s.ID] = &sCpy
	f.settings[s.ID] = &setCpy
	if s.UserID != nil && f.users != nil {
		if u, ok := f.users.byID[*s.UserID]; ok {
			u.SessionsCreated++
		}
	}
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id uuid.UUID) (*model.PhotoSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *s
	return &cpy, nil
}

func (f *fakeSessions) GetByAccessCode(_ context.Context, code string) (*model.PhotoSession, error) {
	for _, s := range f.sessions {
		if s.AccessCode == code {
			cpy := *s
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeSessions) ListByUser(_ context.Context, userID uuid.UUID) ([]model.PhotoSession, error) {
	var out []model.PhotoSession
	for _, s := range f.sessions {
		if s.UserID != nil && *s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeSessions) GetSettings(_ context.Context, sessionID uuid.UUID) (*model.SessionSettings, error) {
	set, ok := f.settings[sessionID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *set
	return &cpy, nil
}

func (f *fakeSessions) UpdateSettings(_ context.Context, set *model.SessionSettings) error {
	if _, ok := f.settings[set.SessionID]; !ok {
		return errs.ErrNotFound
	}
	cpy := *set
	f.settings[set.SessionID] = &cpy
	return nil
}

func (f *fakeSessions) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	s, ok := f.sessions[id]
	if !ok {
		return errs.ErrNotFound
	}
	s.Status = status
	return nil
}

func (f *fakeSessions) Complete(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s, ok := f.sessions[id]
	if !ok {
		return false, errs.ErrNotFound
	}
	s.Status = model.StatusCompleted
	if s.CompletedAt != nil {
		return false, nil
	}
	stamp := at
	s.CompletedAt = &stamp
	if s.UserID != nil && f.users != nil {
		if u, ok := f.users.byID[*s.UserID]; ok {
			u.CompletedSessions++
			last := at
			u.LastSessionDate = &last
		}
	}
	return true, nil
}

func (f *fakeSessions) SetExpiry(_ context.Context, id uuid.UUID, at time.Time) error {
	s, ok := f.sessions[id]
	if !ok {
		return errs.ErrNotFound
	}
	s.ExpiresAt = at
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id uuid.UUID) ([]string, error) {
	if _, ok := f.sessions[id]; !ok {
		return nil, errs.ErrNotFound
	}
	delete(f.sessions, id)
	delete(f.settings, id)
	paths := f.childPaths[id]
	delete(f.childPaths, id)
	return paths, nil
}

type fakePhotos struct {
	photos     map[uuid.UUID]*model.IndividualPhoto
	composites map[uuid.UUID]*model.CompositePhoto

	addErr error
}

var _ repository.PhotoRepository = (*fakePhotos)(nil)

func newFakePhotos() *fakePhotos {
	return &fakePhotos{
		photos:     map[uuid.UUID]*model.IndividualPhoto{},
		composites: map[uuid.UUID]*model.CompositePhoto{},
	}
}

func (f *fakePhotos) AddPhoto(_ context.Context, p *model.IndividualPhoto) error {
	if f.addErr != nil {
		return f.addErr
	}
	cpy := *p
	f.photos[p.ID] = &cpy
	return nil
}

func (f *fakePhotos) ListPhotos(_ context.Context, sessionID uuid.UUID) ([]model.IndividualPhoto, error) {
	var out []model.IndividualPhoto
	for _, p := range f.photos {
		if p.SessionID == sessionID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (f *fakePhotos) CountPhotos(_ context.Context, sessionID uuid.UUID) (int, error) {
	n := 0
	for _, p := range f.photos {
		if p.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (f *fakePhotos) DeletePhoto(_ context.Context, id uuid.UUID) (string, error) {
	p, ok := f.photos[id]
	if !ok {
		return "", errs.ErrNotFound
	}
	delete(f.photos, id)
	return p.ImagePath, nil
}

func (f *fakePhotos) AddComposite(_ context.Context, c *model.CompositePhoto) error {
	if f.addErr != nil {
		return f.addErr
	}
	cpy := *c
	f.composites[c.ID] = &cpy
	return nil
}

func (f *fakePhotos) ListComposites(_ context.Context, sessionID uuid.UUID) ([]model.CompositePhoto, error) {
	var out []model.CompositePhoto
	for _, c := range f.composites {
		if c.SessionID == sessionID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakePhotos) DeleteComposite(_ context.Context, id uuid.UUID) (string, error) {
	c, ok := f.composites[id]
	if !ok {
		return "", errs.ErrNotFound
	}
	delete(f.composites, id)
	return c.ImagePath, nil
}
