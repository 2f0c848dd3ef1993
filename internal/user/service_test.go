package user

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"innovatefund/internal/common"
	"innovatefund/internal/dbmongo"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, u *dbmongo.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil && u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

func (m *MockUserStore) ByID(ctx context.Context, id string) (*dbmongo.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmongo.User), args.Error(1)
}

func (m *MockUserStore) ByEmail(ctx context.Context, email string) (*dbmongo.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmongo.User), args.Error(1)
}

func (m *MockUserStore) TouchLastActive(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// recordingMailer captures welcome emails sent from the registration
// goroutine.
type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	done chan struct{}
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{done: make(chan struct{}, 1)}
}

func (m *recordingMailer) SendTemplate(to, subject, template string, data map[string]any) error {
	m.mu.Lock()
	m.sent = append(m.sent, template+"->"+to)
	m.mu.Unlock()
	select {
	case m.done <- struct{}{}:
	default:
	}
	return nil
}

func validInput() RegisterInput {
	return RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret1",
		UserType: common.UserInnovator,
	}
}

func TestRegister(t *testing.T) {
	common.SetJWTSecret("test-secret")
	store := new(MockUserStore)
	mailer := newRecordingMailer()
	svc := NewService(store, mailer, "https://innovatefund.io")

	store.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	require.NotNil(t, result.User)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.User.NotificationsEnabled, "notifications default on")
	assert.NotEqual(t, "secret1", result.User.PasswordHash)
	assert.True(t, common.CheckPassword(result.User.PasswordHash, "secret1"))

	claims, err := common.ValidToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID.Hex(), claims.UserID)
	assert.Equal(t, common.UserInnovator, claims.UserType)

	select {
	case <-mailer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("welcome email was never sent")
	}
	assert.Contains(t, mailer.sent, "welcome->alice@example.com")
}

func TestRegisterValidation(t *testing.T) {
	store := new(MockUserStore)
	svc := NewService(store, nil, "")

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing name", func(in *RegisterInput) { in.Name = "" }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"short password", func(in *RegisterInput) { in.Password = "abc" }},
		{"bad user type", func(in *RegisterInput) { in.UserType = "admin" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.Register(context.Background(), in)
			assert.True(t, common.IsValidation(err))
		})
	}
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := new(MockUserStore)
	svc := NewService(store, nil, "")

	store.On("Create", mock.Anything, mock.Anything).
		Return(common.NewValidationError("email", "already registered"))

	_, err := svc.Register(context.Background(), validInput())
	assert.True(t, common.IsValidation(err))
}

func TestLogin(t *testing.T) {
	common.SetJWTSecret("test-secret")
	store := new(MockUserStore)
	svc := NewService(store, nil, "")

	hash, err := common.HashPassword("secret1")
	require.NoError(t, err)
	alice := &dbmongo.User{
		ID:           primitive.NewObjectID(),
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		UserType:     common.UserInnovator,
	}

	store.On("ByEmail", mock.Anything, "alice@example.com").Return(alice, nil)
	store.On("TouchLastActive", mock.Anything, alice.ID.Hex()).Return(nil)

	result, err := svc.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	store.AssertCalled(t, "TouchLastActive", mock.Anything, alice.ID.Hex())
}

func TestLoginDoesNotLeakAccountExistence(t *testing.T) {
	store := new(MockUserStore)
	svc := NewService(store, nil, "")

	hash, _ := common.HashPassword("secret1")
	alice := &dbmongo.User{ID: primitive.NewObjectID(), Email: "alice@example.com", PasswordHash: hash}

	store.On("ByEmail", mock.Anything, "alice@example.com").Return(alice, nil)
	store.On("ByEmail", mock.Anything, "nobody@example.com").Return(nil, common.ErrNotFound)

	_, errWrongPassword := svc.Login(context.Background(), "alice@example.com", "wrong")
	_, errNoAccount := svc.Login(context.Background(), "nobody@example.com", "whatever")

	require.Error(t, errWrongPassword)
	require.Error(t, errNoAccount)
	assert.Equal(t, errWrongPassword.Error(), errNoAccount.Error())
	assert.True(t, common.IsAuthentication(errWrongPassword))
	assert.True(t, common.IsAuthentication(errNoAccount))
}
