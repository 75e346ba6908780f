package service

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"go-bazaar-admin/internal/apperror"
	"go-bazaar-admin/internal/config"
	"go-bazaar-admin/internal/model"
	"go-bazaar-admin/internal/notify"
	"go-bazaar-admin/internal/repository"
	"go-bazaar-admin/pkg/jwt"
	"go-bazaar-admin/pkg/token"
	"go-bazaar-admin/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DecisionAction is the admin's answer to a pending registration
type DecisionAction string

const (
	DecisionAccept DecisionAction = "accept"
	DecisionReject DecisionAction = "reject"
)

func ParseDecisionAction(s string) (DecisionAction, error) {
	switch DecisionAction(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionAccept:
		return DecisionAccept, nil
	case DecisionReject:
		return DecisionReject, nil
	}
	return "", ErrInvalidAction
}

type AuthService interface {
	Register(req *RegisterRequest) error
	Decide(rawToken string, action DecisionAction) (*DecisionResult, error)
	Login(username, password string) (*LoginResponse, error)
	ForgotPassword(email string) error
	ResetPassword(rawToken, newPassword string) error
	EditAccount(userID uuid.UUID, req *EditAccountRequest) (*EditAccountResult, error)
	VerifyEmailChange(rawToken string) (*model.UserResponse, error)
	CurrentUser(userID uuid.UUID) (*model.UserResponse, error)
}

// AuthConfig holds the settings of the account lifecycle
type AuthConfig struct {
	AdminEmail       string
	FrontendURL      string
	BackendURL       string
	ResetTokenTTL    time.Duration
	DecisionTokenTTL time.Duration
	EmailChangeTTL   time.Duration
	PasswordMinLen   int
}

func AuthConfigFrom(cfg *config.Config) AuthConfig {
	return AuthConfig{
		AdminEmail:       cfg.AdminEmail,
		FrontendURL:      cfg.FrontendURL,
		BackendURL:       cfg.BackendURL,
		ResetTokenTTL:    cfg.ResetTokenTTL,
		DecisionTokenTTL: cfg.DecisionTokenTTL,
		EmailChangeTTL:   cfg.EmailChangeTTL,
		PasswordMinLen:   cfg.PasswordMinLen,
	}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string             `json:"token"`
	ExpiresIn int64              `json:"expires_in"`
	User      model.UserResponse `json:"user"`
}

type DecisionResult struct {
	Action   DecisionAction `json:"action"`
	Username string         `json:"username"`
	Email    string         `json:"email"`
}

// EditAccountRequest carries only the fields the user wants to change
type EditAccountRequest struct {
	Username *string `json:"username" validate:"omitempty,username"`
	Password *string `json:"password"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

type EditAccountResult struct {
	User             model.UserResponse `json:"user"`
	VerificationSent bool               `json:"verification_sent"`
}

type authService struct {
	store    repository.Store
	tokens   *jwt.Manager
	notifier notify.Notifier
	events   EventPublisher
	cfg      AuthConfig
	log      *zap.Logger
	now      func() time.Time
}

func NewAuthService(store repository.Store, tokens *jwt.Manager, notifier notify.Notifier, events EventPublisher, cfg AuthConfig, log *zap.Logger) AuthService {
	return &authService{
		store:    store,
		tokens:   tokens,
		notifier: notifier,
		events:   publisherOrNop(events),
		cfg:      cfg,
		log:      log.Named("auth"),
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) checkPassword(password string) error {
	if len(password) < s.cfg.PasswordMinLen {
		return apperror.New(apperror.Validation, "PASSWORD_TOO_SHORT",
			fmt.Sprintf("password must be at least %d characters", s.cfg.PasswordMinLen))
	}
	return nil
}

// usernameAvailable fails with ErrUsernameTaken when a user or a live pending registration holds the username
func usernameAvailable(tx repository.Store, username string, now time.Time) error {
	if _, err := tx.Users().FindByUsername(username); err == nil {
		return ErrUsernameTaken
	} else if !repository.IsNotFound(err) {
		return err
	}
	if p, err := tx.Pending().FindByUsername(username); err == nil {
		if !p.Expired(now) {
			return ErrUsernameTaken
		}
	} else if !repository.IsNotFound(err) {
		return err
	}
	return nil
}

// dropExpiredPending deletes the pending row found by lookup when its decision link has expired
func dropExpiredPending(tx repository.Store, lookup func(string) (*model.PendingRegistration, error), key string, now time.Time) error {
	existing, err := lookup(key)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !existing.Expired(now) {
		return nil
	}
	return tx.Pending().Delete(existing.Email)
}

// emailAvailable fails with ErrEmailTaken when a user or a pending registration holds the address
func emailAvailable(tx repository.Store, email string) error {
	if _, err := tx.Users().FindByEmail(email); err == nil {
		return ErrEmailTaken
	} else if !repository.IsNotFound(err) {
		return err
	}
	if _, err := tx.Pending().FindByEmail(email); err == nil {
		return ErrEmailTaken
	} else if !repository.IsNotFound(err) {
		return err
	}
	return nil
}

func (s *authService) Register(req *RegisterRequest) error {
	// 1. Validate input
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
	if msg := validator.FirstError(req); msg != "" {
		return apperror.NewValidation(msg)
	}
	if err := s.checkPassword(req.Password); err != nil {
		return err
	}

	hash, err := model.HashPassword(req.Password)
	if err != nil {
		return internalError(s.log, "hash password", err)
	}
	rawToken, digest, err := token.New()
	if err != nil {
		return internalError(s.log, "generate decision token", err)
	}

	now := s.now()
	pending := &model.PendingRegistration{
		Email:          req.Email,
		Username:       req.Username,
		Password:       hash,
		DecisionToken:  digest,
		DecisionExpiry: now.Add(s.cfg.DecisionTokenTTL),
	}

	// 2. Check duplicates and store the request atomically
	err = s.store.Transaction(func(tx repository.Store) error {
		// expired requests no longer block the address or the username
		if err := dropExpiredPending(tx, tx.Pending().FindByEmail, req.Email, now); err != nil {
			return err
		}
		if err := dropExpiredPending(tx, tx.Pending().FindByUsername, req.Username, now); err != nil {
			return err
		}
		if err := emailAvailable(tx, req.Email); err != nil {
			return err
		}
		if err := usernameAvailable(tx, req.Username, now); err != nil {
			return err
		}

		if err := tx.Pending().Create(pending); err != nil {
			if repository.IsDuplicate(err) {
				// lost a race; the insert did not abort the transaction
				if err := usernameAvailable(tx, req.Username, now); err != nil {
					return err
				}
				return ErrEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return passThrough(s.log, "register", err)
	}

	// 3. Ask the admin for a decision and tell the registrant
	deliver(s.log, s.notifier, s.cfg.AdminEmail, notify.DecisionRequest(
		pending.Username, pending.Email,
		s.decisionURL(rawToken, DecisionAccept),
		s.decisionURL(rawToken, DecisionReject),
	))
	deliver(s.log, s.notifier, pending.Email, notify.UnderReview(pending.Username))

	s.log.Info("registration pending", zap.String("username", pending.Username))
	return nil
}

func (s *authService) decisionURL(rawToken string, action DecisionAction) string {
	q := url.Values{}
	q.Set("token", rawToken)
	q.Set("action", string(action))
	return s.cfg.BackendURL + "/api/v1/auth/verify-account?" + q.Encode()
}

func (s *authService) Decide(rawToken string, action DecisionAction) (*DecisionResult, error) {
	if action != DecisionAccept && action != DecisionReject {
		return nil, ErrInvalidAction
	}
	if rawToken == "" {
		return nil, ErrMissingToken
	}

	var result *DecisionResult
	err := s.store.Transaction(func(tx repository.Store) error {
		// 1. Find & lock the pending request; a replayed link finds nothing
		p, err := tx.Pending().FindByToken(token.Digest(rawToken))
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrRegistrationNotFound
			}
			return err
		}
		if p.Expired(s.now()) {
			return ErrDecisionExpired
		}

		// 2. Activate on accept
		if action == DecisionAccept {
			if _, err := tx.Users().FindByUsername(p.Username); err == nil {
				return ErrUsernameTaken
			} else if !repository.IsNotFound(err) {
				return err
			}
			if _, err := tx.Users().FindByEmail(p.Email); err == nil {
				return ErrEmailTaken
			} else if !repository.IsNotFound(err) {
				return err
			}
			user := &model.User{
				Username: p.Username,
				Email:    p.Email,
				Password: p.Password,
				Verified: true,
				Role:     model.RoleUser,
			}
			if err := tx.Users().Create(user); err != nil {
				if repository.IsDuplicate(err) {
					return ErrEmailTaken
				}
				return err
			}
		}

		// 3. The request is consumed either way
		if err := tx.Pending().Delete(p.Email); err != nil {
			return err
		}

		result = &DecisionResult{Action: action, Username: p.Username, Email: p.Email}
		return nil
	})
	if err != nil {
		return nil, passThrough(s.log, "decide registration", err)
	}

	if action == DecisionAccept {
		deliver(s.log, s.notifier, result.Email, notify.Approved(result.Username, s.cfg.FrontendURL+"/login"))
		s.events.Publish("user_registered", fmt.Sprintf("%s joined", result.Username), result)
	} else {
		deliver(s.log, s.notifier, result.Email, notify.Rejected(result.Username))
	}

	s.log.Info("registration decided", zap.String("username", result.Username), zap.String("action", string(action)))
	return result, nil
}

func (s *authService) Login(username, password string) (*LoginResponse, error) {
	if msg := validator.FirstError(&LoginRequest{Username: username, Password: password}); msg != "" {
		return nil, apperror.NewValidation(msg)
	}

	// 1. Find user by username
	user, err := s.store.Users().FindByUsername(strings.TrimSpace(username))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, internalError(s.log, "find user", err)
	}

	// 2. Verify password
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// 3. Issue token
	signed, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, internalError(s.log, "sign token", err)
	}

	return &LoginResponse{
		Token:     signed,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		User:      user.ToResponse(),
	}, nil
}

func (s *authService) ForgotPassword(email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperror.NewValidation("email is required")
	}

	// 1. Find user by email
	user, err := s.store.Users().FindByEmail(email)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return internalError(s.log, "find user", err)
	}

	// 2. Store only the digest, mail the raw token
	rawToken, digest, err := token.New()
	if err != nil {
		return internalError(s.log, "generate reset token", err)
	}
	user.SetResetToken(digest, s.now().Add(s.cfg.ResetTokenTTL))
	if err := s.store.Users().Update(user); err != nil {
		return internalError(s.log, "store reset token", err)
	}

	link := s.cfg.FrontendURL + "/reset-password/" + rawToken
	deliver(s.log, s.notifier, user.Email, notify.PasswordReset(user.Username, link, s.cfg.ResetTokenTTL))
	return nil
}

func (s *authService) ResetPassword(rawToken, newPassword string) error {
	if rawToken == "" {
		return ErrInvalidResetToken
	}
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}

	err := s.store.Transaction(func(tx repository.Store) error {
		// 1. Lookup by digest, expiry must be strictly in the future
		user, err := tx.Users().FindByResetToken(token.Digest(rawToken), s.now())
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrInvalidResetToken
			}
			return err
		}

		// 2. Rehash and consume the token
		if err := user.SetPassword(newPassword); err != nil {
			return err
		}
		user.ClearResetToken()
		return tx.Users().Update(user)
	})
	return passThrough(s.log, "reset password", err)
}

func (s *authService) EditAccount(userID uuid.UUID, req *EditAccountRequest) (*EditAccountResult, error) {
	// 1. Validate input
	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		req.Username = &trimmed
	}
	if req.Email != nil {
		normalized := normalizeEmail(*req.Email)
		req.Email = &normalized
	}
	if (req.Username == nil || *req.Username == "") &&
		(req.Password == nil || *req.Password == "") &&
		(req.Email == nil || *req.Email == "") {
		return nil, ErrNothingToUpdate
	}
	if msg := validator.FirstError(req); msg != "" {
		return nil, apperror.NewValidation(msg)
	}
	if req.Password != nil && *req.Password != "" {
		if err := s.checkPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	var (
		updated  *model.User
		rawToken string
	)
	err := s.store.Transaction(func(tx repository.Store) error {
		// 2. Find & lock the acting user
		user, err := tx.Users().FindByID(userID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}

		// 3. Username and password apply immediately
		if req.Username != nil && *req.Username != "" && *req.Username != user.Username {
			if err := usernameAvailable(tx, *req.Username, s.now()); err != nil {
				return err
			}
			user.Username = *req.Username
		}
		if req.Password != nil && *req.Password != "" {
			if err := user.SetPassword(*req.Password); err != nil {
				return err
			}
		}

		// 4. Email change waits for verification of the new address
		if req.Email != nil && *req.Email != "" && *req.Email != user.Email {
			if err := emailAvailable(tx, *req.Email); err != nil {
				return err
			}
			raw, digest, err := token.New()
			if err != nil {
				return err
			}
			rawToken = raw
			user.SetPendingEmail(*req.Email, digest, s.now().Add(s.cfg.EmailChangeTTL))
		}

		if err := tx.Users().Update(user); err != nil {
			if repository.IsDuplicate(err) {
				return ErrUsernameTaken
			}
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, passThrough(s.log, "edit account", err)
	}

	result := &EditAccountResult{User: updated.ToResponse()}
	if rawToken != "" {
		link := s.cfg.BackendURL + "/api/v1/auth/verify-email/" + rawToken
		deliver(s.log, s.notifier, *updated.PendingEmail, notify.EmailChange(updated.Username, link))
		result.VerificationSent = true
	}
	return result, nil
}

func (s *authService) VerifyEmailChange(rawToken string) (*model.UserResponse, error) {
	if rawToken == "" {
		return nil, ErrInvalidEmailToken
	}

	var updated *model.User
	err := s.store.Transaction(func(tx repository.Store) error {
		user, err := tx.Users().FindByEmailChangeToken(token.Digest(rawToken))
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrInvalidEmailToken
			}
			return err
		}
		if user.PendingEmail == nil || user.EmailChangeExpiry == nil || !user.EmailChangeExpiry.After(s.now()) {
			return ErrInvalidEmailToken
		}

		// the address may have been claimed since the change was requested
		if err := emailAvailable(tx, *user.PendingEmail); err != nil {
			return err
		}

		user.Email = *user.PendingEmail
		user.ClearPendingEmail()
		if err := tx.Users().Update(user); err != nil {
			if repository.IsDuplicate(err) {
				return ErrEmailTaken
			}
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, passThrough(s.log, "verify email change", err)
	}

	resp := updated.ToResponse()
	return &resp, nil
}

func (s *authService) CurrentUser(userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.store.Users().FindByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, internalError(s.log, "find user", err)
	}
	resp := user.ToResponse()
	return &resp, nil
}
