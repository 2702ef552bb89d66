package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"sweetshop/internal/auth"
	apperrors "sweetshop/internal/errors"
	"sweetshop/internal/model"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *model.Account) error {
	args := m.Called(ctx, account)
	if args.Error(0) == nil && account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	args := m.Called(ctx, id, isAdmin)
	return args.Error(0)
}

// MockThrottle is a mock implementation of auth.LoginThrottle.
type MockThrottle struct {
	mock.Mock
}

func (m *MockThrottle) Locked(ctx context.Context, email string) bool {
	args := m.Called(ctx, email)
	return args.Bool(0)
}

func (m *MockThrottle) RecordFailure(ctx context.Context, email string) {
	m.Called(ctx, email)
}

func (m *MockThrottle) Reset(ctx context.Context, email string) {
	m.Called(ctx, email)
}

const testSecret = "test-secret"

func newTestAuthService(repo *MockAccountRepository, throttle *MockThrottle) AuthService {
	jwtService := auth.NewJWTService(testSecret, auth.SessionTokenExpiry)
	return NewAuthService(repo, jwtService, throttle, bcrypt.MinCost)
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		isAdmin       bool
		setupMock     func(*MockAccountRepository)
		expectedError error
	}{
		{
			name:     "successful registration",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(m *MockAccountRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.Account")).Return(nil)
			},
		},
		{
			name:     "email is normalized",
			email:    "  Shop@Example.COM ",
			password: "password123",
			isAdmin:  true,
			setupMock: func(m *MockAccountRepository) {
				m.On("FindByEmail", mock.Anything, "shop@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.MatchedBy(func(a *model.Account) bool {
					return a.Email == "shop@example.com" && a.IsAdmin
				})).Return(nil)
			},
		},
		{
			name:     "account already exists",
			email:    "a@x.com",
			password: "password123",
			setupMock: func(m *MockAccountRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.Account{Email: "a@x.com"}, nil)
			},
			expectedError: apperrors.ErrDuplicateIdentity,
		},
		{
			name:     "concurrent registration wins the unique index",
			email:    "race@example.com",
			password: "password123",
			setupMock: func(m *MockAccountRepository) {
				m.On("FindByEmail", mock.Anything, "race@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.Account")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: apperrors.ErrDuplicateIdentity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockAccountRepository)
			tt.setupMock(mockRepo)

			service := newTestAuthService(mockRepo, new(MockThrottle))
			result, err := service.Register(context.Background(), tt.email, tt.password, tt.isAdmin)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				require.NotNil(t, result)
				assert.NotEmpty(t, result.Token)
				assert.Equal(t, NormalizeEmail(tt.email), result.User.Email)
				assert.Equal(t, tt.isAdmin, result.User.IsAdmin)

				claims, err := auth.NewJWTService(testSecret, time.Hour).ValidateToken(result.Token)
				require.NoError(t, err)
				assert.Equal(t, result.User.ID.String(), claims.AccountID)
				assert.Equal(t, tt.isAdmin, claims.IsAdmin)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_RegisterStoresHashNotPassword(t *testing.T) {
	mockRepo := new(MockAccountRepository)
	var stored *model.Account
	mockRepo.On("FindByEmail", mock.Anything, "b@x.com").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Account")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*model.Account) }).
		Return(nil)

	service := newTestAuthService(mockRepo, new(MockThrottle))
	_, err := service.Register(context.Background(), "b@x.com", "secret1", false)
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))
	assert.False(t, stored.IsAdmin)
}

func TestAuthService_PasswordTooLong(t *testing.T) {
	long := strings.Repeat("a", 80)

	t.Run("register", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		mockRepo.On("FindByEmail", mock.Anything, "long@x.com").Return(nil, gorm.ErrRecordNotFound)

		_, err := newTestAuthService(mockRepo, new(MockThrottle)).Register(context.Background(), "long@x.com", long, false)
		var verr *apperrors.ValidationError
		require.True(t, errors.As(err, &verr), "got %v", err)
		assert.Contains(t, verr.Fields, "password")
		assert.Equal(t, http.StatusBadRequest, apperrors.MapErrorToHTTP(err).StatusCode)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("ensure admin", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		mockRepo.On("FindByEmail", mock.Anything, "root@x.com").Return(nil, gorm.ErrRecordNotFound)

		_, err := newTestAuthService(mockRepo, new(MockThrottle)).EnsureAdmin(context.Background(), "root@x.com", long)
		var verr *apperrors.ValidationError
		require.True(t, errors.As(err, &verr), "got %v", err)
		assert.Contains(t, verr.Fields, "password")
	})
}

func TestNewAuthService_ClampsCost(t *testing.T) {
	jwtService := auth.NewJWTService(testSecret, time.Hour)

	low := NewAuthService(new(MockAccountRepository), jwtService, new(MockThrottle), 4).(*authService)
	assert.Equal(t, minBcryptCost, low.bcryptCost)

	high := NewAuthService(new(MockAccountRepository), jwtService, new(MockThrottle), 99).(*authService)
	assert.Equal(t, bcrypt.MaxCost, high.bcryptCost)
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*testing.T, *MockAccountRepository, *MockThrottle)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(t *testing.T, mRepo *MockAccountRepository, mThrottle *MockThrottle) {
				mThrottle.On("Locked", mock.Anything, "test@example.com").Return(false)
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.Account{
					ID:           uuid.New(),
					Email:        "test@example.com",
					PasswordHash: hashed(t, "password123"),
				}, nil)
				mThrottle.On("Reset", mock.Anything, "test@example.com").Return()
			},
		},
		{
			name:     "invalid credentials - account not found",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(t *testing.T, mRepo *MockAccountRepository, mThrottle *MockThrottle) {
				mThrottle.On("Locked", mock.Anything, "notfound@example.com").Return(false)
				mRepo.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, gorm.ErrRecordNotFound)
				mThrottle.On("RecordFailure", mock.Anything, "notfound@example.com").Return()
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "invalid credentials - wrong password",
			email:    "test@example.com",
			password: "wrong-password",
			setupMock: func(t *testing.T, mRepo *MockAccountRepository, mThrottle *MockThrottle) {
				mThrottle.On("Locked", mock.Anything, "test@example.com").Return(false)
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.Account{
					ID:           uuid.New(),
					Email:        "test@example.com",
					PasswordHash: hashed(t, "password123"),
				}, nil)
				mThrottle.On("RecordFailure", mock.Anything, "test@example.com").Return()
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "locked out",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(t *testing.T, mRepo *MockAccountRepository, mThrottle *MockThrottle) {
				mThrottle.On("Locked", mock.Anything, "test@example.com").Return(true)
			},
			expectedError: apperrors.ErrTooManyAttempts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockAccountRepository)
			mockThrottle := new(MockThrottle)
			tt.setupMock(t, mockRepo, mockThrottle)

			service := newTestAuthService(mockRepo, mockThrottle)
			result, err := service.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, result.Token)
				assert.Equal(t, tt.email, result.User.Email)
			}

			mockRepo.AssertExpectations(t)
			mockThrottle.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginUnknownEmailStillHashes(t *testing.T) {
	svc := newTestAuthService(new(MockAccountRepository), new(MockThrottle)).(*authService)

	hash := svc.timingHash()
	cost, err := bcrypt.Cost(hash)
	require.NoError(t, err)
	assert.Equal(t, svc.bcryptCost, cost)
	assert.Equal(t, hash, svc.timingHash())
	assert.ErrorIs(t, bcrypt.CompareHashAndPassword(hash, []byte("password123")), bcrypt.ErrMismatchedHashAndPassword)
}

func TestAuthService_LoginStoreFailure(t *testing.T) {
	mockRepo := new(MockAccountRepository)
	mockThrottle := new(MockThrottle)
	mockThrottle.On("Locked", mock.Anything, "test@example.com").Return(false)
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, errors.New("connection refused"))

	service := newTestAuthService(mockRepo, mockThrottle)
	_, err := service.Login(context.Background(), "test@example.com", "password123")

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrInvalidCredentials)
	mockThrottle.AssertNotCalled(t, "RecordFailure", mock.Anything, mock.Anything)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	t.Run("creates missing account", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		mockRepo.On("FindByEmail", mock.Anything, "admin@x.com").Return(nil, gorm.ErrRecordNotFound)
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *model.Account) bool { return a.IsAdmin })).Return(nil)

		created, err := newTestAuthService(mockRepo, new(MockThrottle)).EnsureAdmin(context.Background(), "admin@x.com", "secret1")
		require.NoError(t, err)
		assert.True(t, created)
		mockRepo.AssertExpectations(t)
	})

	t.Run("refuses short password for new account", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		mockRepo.On("FindByEmail", mock.Anything, "admin@x.com").Return(nil, gorm.ErrRecordNotFound)

		_, err := newTestAuthService(mockRepo, new(MockThrottle)).EnsureAdmin(context.Background(), "admin@x.com", "")
		var verr *apperrors.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "password")
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("promotes existing account", func(t *testing.T) {
		id := uuid.New()
		mockRepo := new(MockAccountRepository)
		mockRepo.On("FindByEmail", mock.Anything, "user@x.com").Return(&model.Account{ID: id, Email: "user@x.com"}, nil)
		mockRepo.On("SetAdmin", mock.Anything, id, true).Return(nil)

		created, err := newTestAuthService(mockRepo, new(MockThrottle)).EnsureAdmin(context.Background(), "user@x.com", "")
		require.NoError(t, err)
		assert.False(t, created)
		mockRepo.AssertExpectations(t)
	})

	t.Run("leaves admin untouched", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		mockRepo.On("FindByEmail", mock.Anything, "root@x.com").Return(&model.Account{ID: uuid.New(), Email: "root@x.com", IsAdmin: true}, nil)

		created, err := newTestAuthService(mockRepo, new(MockThrottle)).EnsureAdmin(context.Background(), "root@x.com", "")
		require.NoError(t, err)
		assert.False(t, created)
		mockRepo.AssertNotCalled(t, "SetAdmin", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_Current(t *testing.T) {
	id := uuid.New()

	t.Run("returns stored account", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		mockRepo.On("FindByID", mock.Anything, id).Return(&model.Account{ID: id, Email: "a@x.com", PasswordHash: "hash", IsAdmin: true}, nil)

		view, err := newTestAuthService(mockRepo, new(MockThrottle)).Current(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, view.ID)
		assert.Equal(t, "a@x.com", view.Email)
		assert.True(t, view.IsAdmin)
	})

	t.Run("deleted account is unauthenticated", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		mockRepo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

		_, err := newTestAuthService(mockRepo, new(MockThrottle)).Current(context.Background(), id)
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		mockRepo.On("FindByID", mock.Anything, id).Return(nil, errors.New("connection refused"))

		_, err := newTestAuthService(mockRepo, new(MockThrottle)).Current(context.Background(), id)
		require.Error(t, err)
		assert.NotErrorIs(t, err, apperrors.ErrUnauthenticated)
	})
}
