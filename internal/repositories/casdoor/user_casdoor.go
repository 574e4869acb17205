package casdoor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/SAP-F-2025/lms-assessment-service/internal/cache"
	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
	"github.com/SAP-F-2025/lms-assessment-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// userClient is the part of the Casdoor SDK client used here.
type userClient interface {
	GetUserByUserId(userId string) (*casdoorsdk.User, error)
}

type UserCasdoor struct {
	client userClient
	cache  *cache.CacheHelper
}

func NewUserCasdoor(config CasdoorConfig, cacheManager *cache.CacheManager) repositories.UserRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)
	return newUserCasdoor(client, cacheManager)
}

func newUserCasdoor(client userClient, cacheManager *cache.CacheManager) *UserCasdoor {
	return &UserCasdoor{
		client: client,
		cache:  cacheManager.User,
	}
}

// ToUser converts a Casdoor user to the internal model
func ToUser(casdoorUser *casdoorsdk.User) *models.User {
	if casdoorUser == nil {
		return nil
	}
	return &models.User{
		ID:       casdoorUser.Id,
		FullName: casdoorUser.DisplayName,
		Email:    casdoorUser.Email,
		Role:     RoleOf(casdoorUser),
	}
}

// RoleOf maps Casdoor roles (or the user type as fallback) to a single internal role.
// Admin wins over every other role.
func RoleOf(casdoorUser *casdoorsdk.User) models.UserRole {
	if casdoorUser.IsAdmin {
		return models.RoleAdmin
	}

	var roles []models.UserRole
	for _, r := range casdoorUser.Roles {
		if r != nil {
			roles = append(roles, MapRole(r.Name))
		}
	}
	if slices.Contains(roles, models.RoleAdmin) {
		return models.RoleAdmin
	}
	if slices.Contains(roles, models.RoleTeacher) {
		return models.RoleTeacher
	}
	if len(roles) == 0 && casdoorUser.Type != "" {
		return MapRole(casdoorUser.Type)
	}
	return models.RoleStudent
}

func MapRole(name string) models.UserRole {
	switch strings.ToLower(name) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "teacher", "instructor", "educator", "staff":
		return models.RoleTeacher
	default:
		return models.RoleStudent
	}
}

// GetByID retrieves a user by ID, cache first
func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := u.cache.CacheOrExecute(ctx, "id:"+id, &user, func() (interface{}, error) {
		casdoorUser, err := u.client.GetUserByUserId(id)
		if err != nil {
			return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
		}
		if casdoorUser == nil {
			return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
		}
		return ToUser(casdoorUser), nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDs resolves users one by one; unknown ids are skipped.
func (u *UserCasdoor) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		user, err := u.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}
