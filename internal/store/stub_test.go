package store

import (
	"context"
	"errors"

	"referral_console/internal/gateway"
	"referral_console/internal/model"
)

var errUnexpectedCall = errors.New("unexpected gateway call")

// gatewayStub lets each test swap in just the calls it expects
type gatewayStub struct {
	loginFn    func(ctx context.Context, email, password string) (*model.User, string, error)
	registerFn func(ctx context.Context, payload gateway.RegisterPayload) error
	adminFn    func(ctx context.Context, token string) ([]model.Candidate, error)
	myFn       func(ctx context.Context, token string) ([]model.Candidate, error)
	submitFn   func(ctx context.Context, token string, req model.ReferralRequest, file *gateway.ResumeFile) (*model.Candidate, error)
	statusFn   func(ctx context.Context, token, id, status string) (*model.Candidate, error)
	updateFn   func(ctx context.Context, token, id string, req model.CandidateUpdateRequest) (*model.Candidate, error)
	deleteFn   func(ctx context.Context, token, id string) error
	profileFn  func(ctx context.Context, token string, req model.ProfileUpdateRequest) (*model.User, error)
}

func (g *gatewayStub) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	if g.loginFn == nil {
		return nil, "", errUnexpectedCall
	}
	return g.loginFn(ctx, email, password)
}

func (g *gatewayStub) Register(ctx context.Context, payload gateway.RegisterPayload) error {
	if g.registerFn == nil {
		return errUnexpectedCall
	}
	return g.registerFn(ctx, payload)
}

func (g *gatewayStub) AdminReferrals(ctx context.Context, token string) ([]model.Candidate, error) {
	if g.adminFn == nil {
		return nil, errUnexpectedCall
	}
	return g.adminFn(ctx, token)
}

func (g *gatewayStub) MyReferrals(ctx context.Context, token string) ([]model.Candidate, error) {
	if g.myFn == nil {
		return nil, errUnexpectedCall
	}
	return g.myFn(ctx, token)
}

func (g *gatewayStub) SubmitReferral(ctx context.Context, token string, req model.ReferralRequest, file *gateway.ResumeFile) (*model.Candidate, error) {
	if g.submitFn == nil {
		return nil, errUnexpectedCall
	}
	return g.submitFn(ctx, token, req, file)
}

func (g *gatewayStub) UpdateStatus(ctx context.Context, token, id, status string) (*model.Candidate, error) {
	if g.statusFn == nil {
		return nil, errUnexpectedCall
	}
	return g.statusFn(ctx, token, id, status)
}

func (g *gatewayStub) UpdateCandidate(ctx context.Context, token, id string, req model.CandidateUpdateRequest) (*model.Candidate, error) {
	if g.updateFn == nil {
		return nil, errUnexpectedCall
	}
	return g.updateFn(ctx, token, id, req)
}

func (g *gatewayStub) DeleteCandidate(ctx context.Context, token, id string) error {
	if g.deleteFn == nil {
		return errUnexpectedCall
	}
	return g.deleteFn(ctx, token, id)
}

func (g *gatewayStub) UpdateProfile(ctx context.Context, token string, req model.ProfileUpdateRequest) (*model.User, error) {
	if g.profileFn == nil {
		return nil, errUnexpectedCall
	}
	return g.profileFn(ctx, token, req)
}

// credsStub is an in-memory CredentialStore
type credsStub struct {
	token   string
	user    *model.User
	saves   int
	clears  int
	saveErr error
}

func (s *credsStub) Save(token string, user *model.User) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.token = token
	u := *user
	s.user = &u
	return nil
}

func (s *credsStub) SaveUser(user *model.User) error {
	u := *user
	s.user = &u
	return nil
}

func (s *credsStub) Load() (string, *model.User, bool) {
	if s.token == "" || s.user == nil {
		return "", nil, false
	}
	u := *s.user
	return s.token, &u, true
}

func (s *credsStub) Clear() error {
	s.clears++
	s.token = ""
	s.user = nil
	return nil
}

// sessionStub satisfies SessionSource for candidate store tests
type sessionStub struct {
	token string
	user  *model.User
}

func (s *sessionStub) Token() string { return s.token }

func (s *sessionStub) CurrentUser() *model.User {
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}
