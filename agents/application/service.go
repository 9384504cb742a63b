package application

import (
	"context"
	"errors"

	"github.com/wadesk/wadesk/agents/domain"
	"github.com/wadesk/wadesk/agents/security"
)

type AuthService struct {
	repo domain.IAgentRepository
}

func NewAuthService(repo domain.IAgentRepository) *AuthService {
	return &AuthService{repo: repo}
}

// Login verifies credentials and returns a JWT token
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.Agent, error) {
	agent, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return "", nil, errors.New("invalid credentials") // Do not reveal if the agent exists
	}

	if !agent.Active {
		return "", nil, errors.New("invalid credentials")
	}

	if !security.CheckPasswordHash(password, agent.PasswordHash) {
		return "", nil, errors.New("invalid credentials")
	}

	token, err := security.GenerateToken(agent.ID, agent.Username)
	if err != nil {
		return "", nil, errors.New("failed to generate token")
	}

	go s.repo.TouchLastLogin(context.Background(), agent.ID)

	return token, agent, nil
}

// Register creates a new agent. Open registration is only allowed for the
// very first agent (bootstrap); after that the caller must hold a valid token.
func (s *AuthService) Register(ctx context.Context, username, password, displayName, email string) (*domain.Agent, error) {
	existing, _ := s.repo.FindByUsername(ctx, username)
	if existing != nil {
		return nil, errors.New("username already exists")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	agent := &domain.Agent{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
		Email:        email,
		Active:       true,
	}

	if err := s.repo.Create(ctx, agent); err != nil {
		return nil, err
	}

	return agent, nil
}

// HasAgents reports whether at least one agent account exists.
func (s *AuthService) HasAgents(ctx context.Context) (bool, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetProfile returns the agent for the given id.
func (s *AuthService) GetProfile(ctx context.Context, id uint) (*domain.Agent, error) {
	return s.repo.FindByID(ctx, id)
}

// Deactivate disables an agent account. Conversations assigned to it keep
// their assignment so history stays intact.
func (s *AuthService) Deactivate(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Deactivate(ctx, id)
}
