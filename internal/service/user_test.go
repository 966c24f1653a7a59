package service

import (
	"context"
	"strings"
	"testing"

	"novamall/config"
	"novamall/internal/model"
	"novamall/internal/repository"
	"novamall/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserRepo 内存用户仓库，仅用于测试
type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = r.nextID
	r.nextID++
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if user, ok := r.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByToken(ctx context.Context, token string) (*model.User, error) {
	for _, user := range r.users {
		if user.Token == token {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UpdateToken(ctx context.Context, id int64, token string) error {
	if user, ok := r.users[id]; ok {
		user.Token = token
		return nil
	}
	return repository.ErrNotFound
}

func newTestUserService() (UserService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return NewUserService(repo, logger.New("error", config.LogFileConfig{})), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(user.Token, "nm_"))
	assert.NotEqual(t, "s3cretpass", user.Password, "密码不能明文存储")

	// 用户名登录
	logged, err := svc.Login(ctx, "alice", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	// 邮箱登录
	byEmail, err := svc.Login(ctx, "alice@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	// 登录后Token轮换
	assert.NotEqual(t, logged.Token, byEmail.Token)
}

func TestRegisterDuplicates(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob", "bob@example.com", "password1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "bob", "other@example.com", "password2")
	assert.Error(t, err)

	_, err = svc.Register(ctx, "bobby", "bob@example.com", "password2")
	assert.Error(t, err)
}

func TestLoginFailures(t *testing.T) {
	svc, repo := newTestUserService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "carol", "carol@example.com", "rightpass")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "carol", "wrongpass")
	assert.Error(t, err)

	_, err = svc.Login(ctx, "nobody", "whatever")
	assert.Error(t, err)

	// 禁用账号不能登录
	repo.users[user.ID].Status = 1
	_, err = svc.Login(ctx, "carol", "rightpass")
	assert.Error(t, err)
}

func TestGetByToken(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "dave", "dave@example.com", "password9")
	require.NoError(t, err)

	found, err := svc.GetByToken(ctx, user.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = svc.GetByToken(ctx, "nm_bogus")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
