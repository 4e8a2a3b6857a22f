package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/sabjimart/sabji-backend/pkg/auth"
	"github.com/sabjimart/sabji-backend/pkg/auth/session"
	"github.com/sabjimart/sabji-backend/pkg/config"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Login(ctx context.Context, role enums.Role, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, claims *pkgAuth.AccessTokenClaims, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sellerRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Seller, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
}

type agentRepository interface {
	FindByMobile(ctx context.Context, mobile string) (*models.DeliveryAgent, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, owner session.Owner) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string, owner session.Owner) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SellerRepo     sellerRepository
	AgentRepo      agentRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	Now            func() time.Time
}

type service struct {
	users   userRepository
	sellers sellerRepository
	agents  agentRepository
	session sessionManager
	jwtCfg  config.JWTConfig
	now     func() time.Time
}

// account is the role-independent view of a principal used during login.
type account struct {
	id           uuid.UUID
	name         string
	role         enums.Role
	passwordHash string
	// denied is the reason a correctly authenticated account may not sign in.
	denied string
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SellerRepo == nil {
		return nil, fmt.Errorf("seller repository is required")
	}
	if params.AgentRepo == nil {
		return nil, fmt.Errorf("delivery agent repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:   params.UserRepo,
		sellers: params.SellerRepo,
		agents:  params.AgentRepo,
		session: params.SessionManager,
		jwtCfg:  params.JWTConfig,
		now:     now,
	}, nil
}

func (s *service) Login(ctx context.Context, role enums.Role, req LoginRequest) (*LoginResponse, error) {
	acct, err := s.lookup(ctx, role, req)
	if err != nil {
		return nil, err
	}

	valid, err := security.VerifyPassword(req.Password, acct.passwordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if acct.denied != "" {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, acct.denied)
	}

	now := s.now().UTC()
	if role == enums.RoleCustomer || role == enums.RoleAdmin {
		if err := s.users.UpdateLastLogin(ctx, acct.id, now); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
		}
	}

	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: acct.id,
		Role:   acct.role,
		Name:   acct.name,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID, session.Owner{UserID: acct.id, Role: acct.role})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Account:      AccountSummary{ID: acct.id, Name: acct.name, Role: acct.role},
	}, nil
}

func (s *service) Refresh(ctx context.Context, claims *pkgAuth.AccessTokenClaims, refreshToken string) (*TokenPair, error) {
	if claims == nil || claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	// a block or de-approval takes effect at the next refresh
	acct, err := s.loadByID(ctx, claims.Role, claims.UserID)
	if err != nil {
		return nil, err
	}
	if acct.denied != "" {
		_ = s.session.Revoke(ctx, claims.ID)
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, acct.denied)
	}

	owner := session.Owner{UserID: acct.id, Role: acct.role}
	newAccessID, newRefreshToken, err := s.session.Rotate(ctx, claims.ID, refreshToken, owner)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: acct.id,
		Role:   acct.role,
		Name:   acct.name,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) lookup(ctx context.Context, role enums.Role, req LoginRequest) (*account, error) {
	switch role {
	case enums.RoleCustomer, enums.RoleAdmin:
		email := normalizeEmail(req.Email)
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		user, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return nil, lookupError(err, "lookup user")
		}
		if user.Role != role {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return userAccount(user), nil
	case enums.RoleSeller:
		email := normalizeEmail(req.Email)
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		seller, err := s.sellers.FindByEmail(ctx, email)
		if err != nil {
			return nil, lookupError(err, "lookup seller")
		}
		return sellerAccount(seller), nil
	case enums.RoleDelivery:
		mobile := normalizeMobile(req.Mobile)
		if mobile == "" {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		agent, err := s.agents.FindByMobile(ctx, mobile)
		if err != nil {
			return nil, lookupError(err, "lookup delivery agent")
		}
		return agentAccount(agent), nil
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported login role %q", role)
	}
}

func (s *service) loadByID(ctx context.Context, role enums.Role, id uuid.UUID) (*account, error) {
	switch role {
	case enums.RoleCustomer, enums.RoleAdmin:
		user, err := s.users.FindByID(ctx, id)
		if err != nil {
			return nil, lookupError(err, "lookup user")
		}
		if user.Role != role {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return userAccount(user), nil
	case enums.RoleSeller:
		seller, err := s.sellers.FindByID(ctx, id)
		if err != nil {
			return nil, lookupError(err, "lookup seller")
		}
		return sellerAccount(seller), nil
	case enums.RoleDelivery:
		agent, err := s.agents.FindByID(ctx, id)
		if err != nil {
			return nil, lookupError(err, "lookup delivery agent")
		}
		return agentAccount(agent), nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
}

func userAccount(u *models.User) *account {
	acct := &account{id: u.ID, name: u.Name, role: u.Role, passwordHash: u.PasswordHash}
	if u.IsBlocked {
		acct.denied = "account blocked"
	}
	return acct
}

func sellerAccount(s *models.Seller) *account {
	acct := &account{id: s.ID, name: s.ShopName, role: enums.RoleSeller, passwordHash: s.PasswordHash}
	switch {
	case s.IsBlocked:
		acct.denied = "account blocked"
	case s.Status == enums.SellerStatusRejected:
		acct.denied = "seller application rejected"
	case s.Status != enums.SellerStatusApproved:
		acct.denied = "seller account pending approval"
	}
	return acct
}

func agentAccount(a *models.DeliveryAgent) *account {
	acct := &account{id: a.ID, name: a.Name, role: enums.RoleDelivery, passwordHash: a.PasswordHash}
	if !a.IsApproved {
		acct.denied = "delivery account pending approval"
	}
	return acct
}

func lookupError(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// normalizeMobile keeps digits only so "+91 98765-43210" and "919876543210" match.
func normalizeMobile(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
