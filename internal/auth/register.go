package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/internal/agents"
	"github.com/sabjimart/sabji-backend/internal/sellers"
	"github.com/sabjimart/sabji-backend/internal/users"
	"github.com/sabjimart/sabji-backend/pkg/config"
	"github.com/sabjimart/sabji-backend/pkg/db"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	"github.com/sabjimart/sabji-backend/pkg/security"
)

const (
	usersEmailConstraint   = "users_email_key"
	sellersEmailConstraint = "sellers_email_key"
	agentsMobileConstraint = "delivery_agents_mobile_key"
	agentsEmailConstraint  = "delivery_agents_email_key"
)

// RegisterService onboards customers, sellers and delivery agents. Sellers and agents
// start unapproved and cannot log in until an admin approves them.
type RegisterService interface {
	RegisterCustomer(ctx context.Context, req CustomerRegisterRequest) (*users.UserDTO, error)
	RegisterSeller(ctx context.Context, req SellerRegisterRequest) (*sellers.SellerDTO, error)
	SignupDelivery(ctx context.Context, req DeliverySignupRequest) (*agents.AgentDTO, error)
}

type registerUserRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type registerSellerRepository interface {
	Create(ctx context.Context, seller *models.Seller) error
	FindByEmail(ctx context.Context, email string) (*models.Seller, error)
}

type registerAgentRepository interface {
	Create(ctx context.Context, agent *models.DeliveryAgent) error
	FindByMobile(ctx context.Context, mobile string) (*models.DeliveryAgent, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	Users          registerUserRepository
	Sellers        registerSellerRepository
	Agents         registerAgentRepository
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type registerService struct {
	users       registerUserRepository
	sellers     registerSellerRepository
	agents      registerAgentRepository
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.Users == nil || params.Sellers == nil || params.Agents == nil {
		return nil, fmt.Errorf("user, seller and agent repositories are required")
	}
	return &registerService{
		users:       params.Users,
		sellers:     params.Sellers,
		agents:      params.Agents,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
	}, nil
}

func (s *registerService) RegisterCustomer(ctx context.Context, req CustomerRegisterRequest) (*users.UserDTO, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and email are required")
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        trimPtr(req.Phone),
		Role:         enums.RoleCustomer,
	})
	if err != nil {
		if db.IsUniqueViolation(err, usersEmailConstraint) || db.IsUniqueViolation(err, "users.email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	s.logRegistered(ctx, enums.RoleCustomer, user.ID.String())
	return users.FromModel(user), nil
}

func (s *registerService) RegisterSeller(ctx context.Context, req SellerRegisterRequest) (*sellers.SellerDTO, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	businessType, err := enums.ParseBusinessType(strings.TrimSpace(req.BusinessType))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid business type")
	}
	required := []struct{ field, value string }{
		{"name", req.Name},
		{"phone", req.Phone},
		{"shopName", req.ShopName},
		{"address", req.Address},
		{"city", req.City},
		{"state", req.State},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required", r.field)
		}
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	if _, err := s.sellers.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check seller email")
	}

	seller := &models.Seller{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		ShopName:     strings.TrimSpace(req.ShopName),
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		BusinessType: businessType,
		IDProofURL:   trimPtr(req.IDProofURL),
		ShopPhotoURL: trimPtr(req.ShopPhotoURL),
		PasswordHash: hash,
		Status:       enums.SellerStatusPending,
	}
	if err := s.sellers.Create(ctx, seller); err != nil {
		if db.IsUniqueViolation(err, sellersEmailConstraint) || db.IsUniqueViolation(err, "sellers.email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create seller")
	}
	s.logRegistered(ctx, enums.RoleSeller, seller.ID.String())
	dto := sellers.FromModel(*seller)
	return &dto, nil
}

func (s *registerService) SignupDelivery(ctx context.Context, req DeliverySignupRequest) (*agents.AgentDTO, error) {
	mobile := normalizeMobile(req.Mobile)
	name := strings.TrimSpace(req.Name)
	if mobile == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and mobile are required")
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	if _, err := s.agents.FindByMobile(ctx, mobile); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "mobile already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check agent mobile")
	}

	var email *string
	if req.Email != nil {
		if normalized := normalizeEmail(*req.Email); normalized != "" {
			email = &normalized
		}
	}
	agent := &models.DeliveryAgent{
		Name:         name,
		Mobile:       mobile,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		switch {
		case db.IsUniqueViolation(err, agentsMobileConstraint), db.IsUniqueViolation(err, "delivery_agents.mobile"):
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "mobile already registered")
		case db.IsUniqueViolation(err, agentsEmailConstraint), db.IsUniqueViolation(err, "delivery_agents.email"):
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create delivery agent")
	}
	s.logRegistered(ctx, enums.RoleDelivery, agent.ID.String())
	dto := agents.FromModel(*agent)
	return &dto, nil
}

func (s *registerService) hash(password string) (string, error) {
	if err := security.ValidatePassword(password); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return hash, nil
}

func (s *registerService) logRegistered(ctx context.Context, role enums.Role, id string) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"actor_role": string(role), "account_id": id})
	s.logg.Info(ctx, "account.registered")
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
