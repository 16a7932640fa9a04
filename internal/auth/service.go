package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/notenest/notenest/internal/infrastructure/logging"
)

// maxFamilyCodeAttempts bounds the generate-and-insert retry loop. With a
// 36^6 code space collisions are rare; hitting the bound means something is
// badly wrong with the store, not bad luck.
const maxFamilyCodeAttempts = 10

// tokenType is the scheme reported in account bundles.
const tokenType = "Bearer"

// ServiceConfig carries the token signing configuration. It is injected at
// construction; business logic never reads process environment directly.
type ServiceConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Service orchestrates password hashing, token minting, and the account
// repositories for signup, login, refresh, and logout.
type Service struct {
	children ChildRepository
	parents  ParentRepository
	cfg      ServiceConfig
	logger   *logging.Logger
}

// NewService creates an account service.
func NewService(children ChildRepository, parents ParentRepository, cfg ServiceConfig, logger *logging.Logger) *Service {
	return &Service{
		children: children,
		parents:  parents,
		cfg:      cfg,
		logger:   logger.With("component", "auth"),
	}
}

// SignupChild registers a new note-owning account.
//
// It fails with ErrEmailTaken if the email is already registered as a
// child (the same email may still be registered as a parent). The family
// code is generated fresh and regenerated on collision. Tokens are minted
// before the insert, so the single INSERT carries the complete account:
// there is never a child row without its family code and refresh token.
func (s *Service) SignupChild(ctx context.Context, name, email, password string) (*AccountBundle, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if err := validateSignup(name, email, password); err != nil {
		return nil, err
	}

	if _, err := s.children.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("checking child email: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	// The insert carries the refresh token and the tokens need the ID, so
	// the ID is allocated here rather than inside the repository.
	child := &Child{
		ID:           "chd-" + newAccountSuffix(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	var access string
	access, child.RefreshToken, err = s.mintTokenPair(child.ID, email, RoleChild)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		if attempt >= maxFamilyCodeAttempts {
			return nil, fmt.Errorf("allocating family code: retries exhausted")
		}

		child.FamilyCode, err = GenerateFamilyCode()
		if err != nil {
			return nil, err
		}

		err = s.children.Create(ctx, child)
		if err == nil {
			break
		}
		if errors.Is(err, errFamilyCodeCollision) {
			continue
		}
		if errors.Is(err, ErrEmailTaken) {
			// Concurrent signup won the race; same outcome as the pre-check.
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("child signed up", "child_id", child.ID)

	return &AccountBundle{
		User:         childProfile(child),
		AccessToken:  access,
		RefreshToken: child.RefreshToken,
		TokenType:    tokenType,
	}, nil
}

// SignupParent registers a read-only viewing account linked to the child
// that owns familyCode.
//
// It fails with ErrEmailTaken if the email is already registered as a
// parent, and with ErrInvalidFamilyCode if no child owns the code. The
// returned bundle includes the linked child's id, name, and email.
func (s *Service) SignupParent(ctx context.Context, name, email, password, familyCode string) (*AccountBundle, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if err := validateSignup(name, email, password); err != nil {
		return nil, err
	}
	familyCode = strings.ToUpper(strings.TrimSpace(familyCode))
	if !IsValidFamilyCode(familyCode) {
		return nil, fmt.Errorf("%w: family code is required for parent signup", ErrValidation)
	}

	if _, err := s.parents.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("checking parent email: %w", err)
	}

	child, err := s.children.GetByFamilyCode(ctx, familyCode)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidFamilyCode
		}
		return nil, fmt.Errorf("resolving family code: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	parent := &Parent{
		ID:           "par-" + newAccountSuffix(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		ChildID:      child.ID,
	}

	access, refresh, err := s.mintTokenPair(parent.ID, email, RoleParent)
	if err != nil {
		return nil, err
	}
	parent.RefreshToken = refresh

	if err := s.parents.Create(ctx, parent); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("parent signed up", "parent_id", parent.ID, "child_id", child.ID)

	return &AccountBundle{
		User:         parentProfile(parent, child),
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenType,
	}, nil
}

// Login authenticates by email and password. The child email space is
// checked before the parent space; a child match takes precedence if the
// same email somehow exists in both.
//
// Unknown email and wrong password are indistinguishable to the caller:
// both return ErrInvalidCredentials. On success a fresh token pair is
// minted and the stored refresh token is overwritten.
func (s *Service) Login(ctx context.Context, email, password string) (*AccountBundle, error) {
	email = strings.TrimSpace(email)

	child, err := s.children.GetByEmail(ctx, email)
	if err == nil {
		if !VerifyPassword(password, child.PasswordHash) {
			return nil, ErrInvalidCredentials
		}
		access, refresh, err := s.mintTokenPair(child.ID, child.Email, RoleChild)
		if err != nil {
			return nil, err
		}
		if err := s.children.UpdateRefreshToken(ctx, child.ID, refresh); err != nil {
			return nil, err
		}
		child.RefreshToken = refresh

		s.logger.Info("child logged in", "child_id", child.ID)
		return &AccountBundle{
			User:         childProfile(child),
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    tokenType,
		}, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("looking up child by email: %w", err)
	}

	parent, err := s.parents.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up parent by email: %w", err)
	}
	if !VerifyPassword(password, parent.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	access, refresh, err := s.mintTokenPair(parent.ID, parent.Email, RoleParent)
	if err != nil {
		return nil, err
	}
	if err := s.parents.UpdateRefreshToken(ctx, parent.ID, refresh); err != nil {
		return nil, err
	}

	linked, err := s.children.GetByID(ctx, parent.ChildID)
	if err != nil {
		return nil, fmt.Errorf("loading linked child: %w", err)
	}

	s.logger.Info("parent logged in", "parent_id", parent.ID)
	return &AccountBundle{
		User:         parentProfile(parent, linked),
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenType,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
//
// The token must parse as kind refresh and be unexpired, and must exactly
// match the value stored on the account row — a token invalidated by
// logout or by a later login fails with ErrInvalidRefreshToken even though
// its signature and expiry are still good. The refresh token itself is not
// rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := ParseToken(refreshToken, TokenKindRefresh, s.cfg.JWTSecret)
	if err != nil {
		return "", err
	}

	var stored, email string
	switch claims.Role {
	case RoleChild:
		child, err := s.children.GetByID(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return "", ErrInvalidRefreshToken
			}
			return "", err
		}
		stored, email = child.RefreshToken, child.Email
	case RoleParent:
		parent, err := s.parents.GetByID(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return "", ErrInvalidRefreshToken
			}
			return "", err
		}
		stored, email = parent.RefreshToken, parent.Email
	}

	if stored == "" || stored != refreshToken {
		return "", ErrInvalidRefreshToken
	}

	access, err := GenerateAccessToken(claims.Subject, email, claims.Role, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", err
	}

	s.logger.Debug("access token refreshed", "user_id", claims.Subject, "role", claims.Role)
	return access, nil
}

// Logout clears the stored refresh token for an account, revoking the
// current refresh token. Returns whether a matching account was found.
func (s *Service) Logout(ctx context.Context, userID string, role Role) (bool, error) {
	var found bool
	var err error

	switch role {
	case RoleChild:
		found, err = s.children.ClearRefreshToken(ctx, userID)
	case RoleParent:
		found, err = s.parents.ClearRefreshToken(ctx, userID)
	default:
		return false, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if err != nil {
		return false, err
	}

	if found {
		s.logger.Info("logged out", "user_id", userID, "role", role)
	}
	return found, nil
}

// LookupPrincipal loads the account behind an id+role pair. Used by the
// access-control guard after token verification.
func (s *Service) LookupPrincipal(ctx context.Context, userID string, role Role) (*Principal, error) {
	switch role {
	case RoleChild:
		child, err := s.children.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &Principal{
			ID:         child.ID,
			Name:       child.Name,
			Email:      child.Email,
			Role:       RoleChild,
			FamilyCode: child.FamilyCode,
		}, nil
	case RoleParent:
		parent, err := s.parents.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &Principal{
			ID:      parent.ID,
			Name:    parent.Name,
			Email:   parent.Email,
			Role:    RoleParent,
			ChildID: parent.ChildID,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
}

// ChildByFamilyCode resolves a family code to its owning child. Used by
// the parent signup flow to show who the code belongs to before
// committing.
func (s *Service) ChildByFamilyCode(ctx context.Context, code string) (*ChildRef, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !IsValidFamilyCode(code) {
		return nil, ErrInvalidFamilyCode
	}

	child, err := s.children.GetByFamilyCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidFamilyCode
		}
		return nil, err
	}

	return &ChildRef{ID: child.ID, Name: child.Name, Email: child.Email}, nil
}

// ParseAccessToken verifies a bearer token as an access token using the
// service's signing configuration.
func (s *Service) ParseAccessToken(token string) (*Claims, error) {
	return ParseToken(token, TokenKindAccess, s.cfg.JWTSecret)
}

// ParseRefreshToken verifies a token as a refresh token using the service's
// signing configuration.
func (s *Service) ParseRefreshToken(token string) (*Claims, error) {
	return ParseToken(token, TokenKindRefresh, s.cfg.JWTSecret)
}

// newAccountSuffix allocates the random part of an account ID. Prefixes
// ("chd-", "par-") make the owner role obvious in logs and foreign keys.
func newAccountSuffix() string {
	return uuid.NewString()[:8]
}

// mintTokenPair creates a fresh access+refresh token pair for an account.
func (s *Service) mintTokenPair(userID, email string, role Role) (access, refresh string, err error) {
	access, err = GenerateAccessToken(userID, email, role, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = GenerateRefreshToken(userID, email, role, s.cfg.JWTSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// validateSignup applies the shared signup input rules.
func validateSignup(name, email, password string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !IsValidEmail(email) {
		return fmt.Errorf("%w: malformed email address", ErrValidation)
	}
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	return nil
}

func childProfile(c *Child) Profile {
	return Profile{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Role:       RoleChild,
		FamilyCode: c.FamilyCode,
		CreatedAt:  c.CreatedAt,
	}
}

func parentProfile(p *Parent, linked *Child) Profile {
	return Profile{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Role:      RoleParent,
		Child:     &ChildRef{ID: linked.ID, Name: linked.Name, Email: linked.Email},
		CreatedAt: p.CreatedAt,
	}
}
