// Package auth signs clinicians in and out. Successful calls populate the
// session store; the mounted entry guard performs the redirect.
package auth

import (
	"context"

	"github.com/jrsteele09/clinician-portal/api"
	apperrors "github.com/jrsteele09/clinician-portal/internal/errors"
	"github.com/jrsteele09/clinician-portal/internal/utils"
	"github.com/jrsteele09/clinician-portal/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Backend is the subset of the API client used for authentication.
type Backend interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error)
}

// Service runs the login, signup and logout flows.
type Service struct {
	backend   Backend
	store     *session.Store
	validator *Validator
}

// NewService creates an auth Service.
func NewService(backend Backend, store *session.Store) (*Service, error) {
	if backend == nil {
		return nil, errors.Wrap(ErrMissingAPI, "[auth.NewService]")
	}
	if store == nil {
		return nil, errors.Wrap(ErrMissingStore, "[auth.NewService]")
	}
	return &Service{
		backend:   backend,
		store:     store,
		validator: NewValidator(),
	}, nil
}

// Login exchanges credentials for a session. On failure the store is not touched.
func (s *Service) Login(ctx context.Context, form LoginForm) error {
	if err := s.validator.Validate(form); err != nil {
		return errors.Wrap(err, "[Service.Login] invalid form")
	}

	req := form.request()
	resp, err := s.backend.Login(ctx, req)
	if err != nil {
		log.Info().Str("email", utils.MaskEmail(req.Email)).Msg("Sign-in rejected")
		return errors.Wrap(err, "[Service.Login] backend.Login")
	}

	s.store.SetAuth(resp.AccessToken, resp.RefreshToken, resp.Profile)
	log.Info().Str("email", utils.MaskEmail(req.Email)).Msg("Signed in")
	return nil
}

// Signup registers a new account and signs it in. A confirmation mismatch
// is reported before any validation or network call.
func (s *Service) Signup(ctx context.Context, form SignupForm) error {
	if form.Password != form.ConfirmPassword {
		return apperrors.ErrPasswordMismatch
	}
	if err := s.validator.Validate(form); err != nil {
		return errors.Wrap(err, "[Service.Signup] invalid form")
	}

	req := form.request()
	resp, err := s.backend.Register(ctx, req)
	if err != nil {
		return errors.Wrap(err, "[Service.Signup] backend.Register")
	}

	s.store.SetAuth(resp.AccessToken, resp.RefreshToken, resp.Profile)
	log.Info().Str("email", utils.MaskEmail(req.Email)).Msg("Account created")
	return nil
}

// Logout clears tokens and profile.
func (s *Service) Logout() {
	s.store.Clear()
	log.Info().Msg("Signed out")
}
