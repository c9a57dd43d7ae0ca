package httpserver

import (
	"context"
	"io"

	"github.com/avelasco/fotomaton/internal/model"
	"github.com/avelasco/fotomaton/internal/service"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// Service fakes driven by func fields. Unset methods panic through the
// embedded nil interface, which surfaces untested calls immediately.

type fakeAuth struct {
	service.AuthService
	registerFn     func(ctx context.Context, p service.RegisterParams) (*model.User, *model.AuthToken, error)
	loginFn        func(ctx context.Context, login, password string) (*model.User, *model.AuthToken, error)
	authenticateFn func(ctx context.Context, key string) (*model.User, error)
	logoutFn       func(ctx context.Context, key string) error
}

func (f *fakeAuth) Register(ctx context.Context, p service.RegisterParams) (*model.User, *model.AuthToken, error) {
	return f.registerFn(ctx, p)
}

func (f *fakeAuth) Login(ctx context.Context, login, password string) (*model.User, *model.AuthToken, error) {
	return f.loginFn(ctx, login, password)
}

func (f *fakeAuth) Authenticate(ctx context.Context, key string) (*model.User, error) {
	return f.authenticateFn(ctx, key)
}

func (f *fakeAuth) Logout(ctx context.Context, key string) error {
	return f.logoutFn(ctx, key)
}

type fakeUsers struct {
	service.UserService
	statsFn func(ctx context.Context, id uuid.UUID) (model.SessionStats, error)
}

func (f *fakeUsers) Stats(ctx context.Context, id uuid.UUID) (model.SessionStats, error) {
	return f.statsFn(ctx, id)
}

type fakeSessions struct {
	service.SessionService
	createFn  func(ctx context.Context, p service.CreateSessionParams) (*model.PhotoSession, *model.SessionSettings, error)
	getFn     func(ctx context.Context, id uuid.UUID) (*model.PhotoSession, error)
	byCodeFn  func(ctx context.Context, code string) (*model.PhotoSession, error)
	deleteFn  func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeSessions) Create(ctx context.Context, p service.CreateSessionParams) (*model.PhotoSession, *model.SessionSettings, error) {
	return f.createFn(ctx, p)
}

func (f *fakeSessions) Get(ctx context.Context, id uuid.UUID) (*model.PhotoSession, error) {
	return f.getFn(ctx, id)
}

func (f *fakeSessions) GetByAccessCode(ctx context.Context, code string) (*model.PhotoSession, error) {
	return f.byCodeFn(ctx, code)
}

func (f *fakeSessions) Delete(ctx context.Context, id uuid.UUID) error {
	return f.deleteFn(ctx, id)
}

type fakePhotos struct {
	service.PhotoService
	addFn func(ctx context.Context, sessionID uuid.UUID, order int, filename string, r io.Reader) (*model.IndividualPhoto, error)
}

func (f *fakePhotos) AddPhoto(ctx context.Context, sessionID uuid.UUID, order int, filename string, r io.Reader) (*model.IndividualPhoto, error) {
	return f.addFn(ctx, sessionID, order, filename, r)
}

func newTestServer(auth *fakeAuth, users *fakeUsers, sessions *fakeSessions, photos *fakePhotos) *Server {
	if auth == nil {
		auth = &fakeAuth{}
	}
	if users == nil {
		users = &fakeUsers{}
	}
	if sessions == nil {
		sessions = &fakeSessions{}
	}
	if photos == nil {
		photos = &fakePhotos{}
	}
	return New(auth, users, sessions, photos, nil, zap.NewNop())
}
