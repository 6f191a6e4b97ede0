package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fueldesk/internal/core/apperror"
	appctx "fueldesk/internal/core/context"
	"fueldesk/internal/domain/identity"
	"fueldesk/pkg/logger"
)

// Credentials for login.
type Credentials struct {
	NationalID string `json:"nationalId"`
	Secret     string `json:"secret"`
}

// Token is an issued access token.
type Token struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
}

// Service signs enrolled persons in.
type Service struct {
	persons identity.Store
	jwt     *JWTService
}

func NewService(persons identity.Store, jwt *JWTService) *Service {
	return &Service{persons: persons, jwt: jwt}
}

// Login checks the enrolment secret and issues a token carrying the person's roles.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Token, error) {
	nationalID := strings.TrimSpace(creds.NationalID)
	if nationalID == "" || creds.Secret == "" {
		return nil, apperror.NewValidation("national id and secret are required")
	}

	person, err := s.persons.FindByNationalID(ctx, nationalID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("find person: %w", err)
	}
	if !person.Active {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(person.SecretHash), []byte(creds.Secret)); err != nil {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	roles := make([]string, 0, len(person.Roles))
	for _, r := range person.Roles {
		roles = append(roles, strings.ToUpper(strings.TrimSpace(r)))
	}

	access, expiresAt, err := s.jwt.GenerateAccessToken(appctx.UserContext{
		UserID:     person.ID,
		NationalID: person.NationalID,
		Name:       person.Name,
		Roles:      roles,
		UnitID:     person.UnitID,
	})
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	logger.Info(ctx, "user logged in", "user_id", person.ID, "roles", roles)

	return &Token{AccessToken: access, ExpiresAt: expiresAt, TokenType: "Bearer"}, nil
}
