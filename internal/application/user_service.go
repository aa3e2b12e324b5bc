package application

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/config"
	"github.com/oksasatya/taskhub/internal/domain/entity"
	repo "github.com/oksasatya/taskhub/internal/domain/repository"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

type UserService struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Store  ObjectStore
	Index  SearchIndex
	Mail   *MailOutbox
	Cfg    *config.Config
	Logger *logrus.Logger
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func NewUserService(r repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, store ObjectStore, index SearchIndex, mail *MailOutbox, cfg *config.Config, logger *logrus.Logger) *UserService {
	return &UserService{
		Repo:   r,
		JWT:    jwt,
		Redis:  rdb,
		Store:  store,
		Index:  index,
		Mail:   mail,
		Cfg:    cfg,
		Logger: logger,
	}
}

func (s *UserService) sessionTTL() time.Duration {
	if s.Cfg != nil && s.Cfg.RefreshTTL > 0 {
		return s.Cfg.RefreshTTL
	}
	return 24 * time.Hour
}

func (s *UserService) warn(err error, msg string, fields logrus.Fields) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithFields(fields).Warn(msg)
	}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func genToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *UserService) getUser(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates an unverified user with the default role and sends the
// verification email when mail is enabled.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: hash,
		Role:     entity.RoleUser,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.indexUser(ctx, u)
	if s.Redis != nil {
		if _, _, err := s.InitVerify(ctx, u.ID); err != nil {
			s.warn(err, "issue verify token failed", logrus.Fields{"user_id": u.ID})
		}
	}
	return u, nil
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) tokens(u *entity.User, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, string(u.Role), sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, string(u.Role), sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *UserService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.tokens(u, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		}
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := helpers.KeySession(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"role":       string(u.Role),
			"avatar_url": u.AvatarURL,
			"sid":        sid,
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, s.sessionTTL())
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.warn(rErr, "redis pipeline failed", logrus.Fields{"key": key})
		}
	}
	return pair, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh rotates the session id and both tokens. The presented refresh token
// must belong to the current session.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, *entity.User, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	if s.Redis != nil {
		sid, rErr := s.Redis.HGet(ctx, helpers.KeySession(u.ID), "sid").Result()
		if rErr != nil || sid != claims.SessionID {
			return TokenPair{}, nil, ErrInvalidCredentials
		}
	}
	sid := uuid.NewString()
	pair, err := s.tokens(u, sid)
	if err != nil {
		return TokenPair{}, nil, err
	}
	if s.Redis != nil {
		key := helpers.KeySession(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"role":       string(u.Role),
			"updated_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, s.sessionTTL())
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.warn(rErr, "redis pipeline failed", logrus.Fields{"key": key})
		}
	}
	return pair, u, nil
}

func (s *UserService) Logout(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	return helpers.RedisDel(ctx, s.Redis, helpers.KeySession(userID))
}

// InitVerify issues a one-time verification token (24h) and emails the link.
// already is true when the user is verified.
func (s *UserService) InitVerify(ctx context.Context, userID string) (link string, already bool, err error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return "", false, err
	}
	if u.IsVerified {
		return "", true, nil
	}
	if s.Redis == nil {
		return "", false, ErrUnavailable
	}
	tok, err := genToken(32)
	if err != nil {
		return "", false, err
	}
	if err := s.Redis.Set(ctx, helpers.KeyVerifyToken(tok), u.ID, verifyTokenTTL).Err(); err != nil {
		return "", false, err
	}
	link = s.Cfg.VerifyEmailURL + "?token=" + tok
	s.Mail.VerifyEmail(ctx, u, link)
	return link, false, nil
}

func (s *UserService) ConfirmVerify(ctx context.Context, token string) error {
	if s.Redis == nil {
		return ErrUnavailable
	}
	uid, ok, err := helpers.RedisTake(ctx, s.Redis, helpers.KeyVerifyToken(token))
	if err != nil {
		return err
	}
	if !ok || uid == "" {
		return ErrInvalidToken
	}
	if err := s.Repo.SetVerified(ctx, uid); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	return nil
}

// InitReset issues a reset token (30m) for a known email. Unknown emails get
// an empty link and no error so the endpoint cannot be used for enumeration.
func (s *UserService) InitReset(ctx context.Context, email string) (string, error) {
	if s.Redis == nil {
		return "", ErrUnavailable
	}
	u, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repo.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	tok, err := genToken(32)
	if err != nil {
		return "", err
	}
	if err := s.Redis.Set(ctx, helpers.KeyResetToken(tok), u.ID, resetTokenTTL).Err(); err != nil {
		return "", err
	}
	link := s.Cfg.ResetPasswordURL + "?token=" + tok
	s.Mail.ResetPassword(ctx, u, link)
	return link, nil
}

// ConfirmReset sets the new password and ends the user's session.
func (s *UserService) ConfirmReset(ctx context.Context, token, newPassword string) error {
	if s.Redis == nil {
		return ErrUnavailable
	}
	uid, ok, err := helpers.RedisTake(ctx, s.Redis, helpers.KeyResetToken(token))
	if err != nil {
		return err
	}
	if !ok || uid == "" {
		return ErrInvalidToken
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePassword(ctx, uid, hash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	return s.Logout(ctx, uid)
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return s.getUser(ctx, userID)
}

type UpdateProfileInput struct {
	Name      *string
	AvatarURL *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.AvatarURL != nil {
		u.AvatarURL = strings.TrimSpace(*in.AvatarURL)
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.refreshSession(ctx, u)
	s.indexUser(ctx, u)
	return u, nil
}

// refreshSession copies profile fields into the session hash, keeping its TTL.
func (s *UserService) refreshSession(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	key := helpers.KeySession(u.ID)
	n, err := s.Redis.Exists(ctx, key).Result()
	if err != nil || n == 0 {
		return
	}
	if err := s.Redis.HSet(ctx, key, map[string]any{
		"name":       u.Name,
		"role":       string(u.Role),
		"avatar_url": u.AvatarURL,
		"updated_at": nowRFC3339(),
	}).Err(); err != nil {
		s.warn(err, "refresh session failed", logrus.Fields{"key": key})
	}
}

// UploadAvatar stores the image under avatars/<user>/ and updates the profile.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (*entity.User, error) {
	if s.Store == nil {
		return nil, ErrStorageUnavailable
	}
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	url, err := s.Store.Upload(ctx, helpers.ObjectPath("avatars", userID, filename), contentType, r)
	if err != nil {
		return nil, err
	}
	u.AvatarURL = url
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.refreshSession(ctx, u)
	s.indexUser(ctx, u)
	return u, nil
}

func (s *UserService) List(ctx context.Context, role entity.Role, q string, page, limit int) ([]entity.Public, int64, error) {
	page, limit = clampPage(page, limit)
	users, total, err := s.Repo.List(ctx, repo.UserFilter{Role: role, Query: q, Offset: (page - 1) * limit, Limit: limit})
	if err != nil {
		return nil, 0, err
	}
	return publics(users), total, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.getUser(ctx, id)
}

// SetRole changes a user's global role. Admins cannot change their own role.
func (s *UserService) SetRole(ctx context.Context, actor Actor, id string, role entity.Role) (*entity.User, error) {
	if !actor.IsAdmin() || actor.ID == id {
		return nil, ErrForbidden
	}
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.refreshSession(ctx, u)
	s.indexUser(ctx, u)
	return u, nil
}

// Publics resolves user ids into their public view, skipping unknown ids.
func (s *UserService) Publics(ctx context.Context, ids []string) (map[string]entity.Public, error) {
	users, err := s.Repo.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]entity.Public, len(users))
	for _, u := range users {
		out[u.ID] = u.Public()
	}
	return out, nil
}

func publics(users []*entity.User) []entity.Public {
	out := make([]entity.Public, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

func (s *UserService) indexUser(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	doc := map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"role":       u.Role,
		"avatar_url": u.AvatarURL,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	if err := s.Index.Put(ctx, u.ID, doc); err != nil {
		s.warn(err, "es index failed", logrus.Fields{"user_id": u.ID})
	}
}

// Search runs a multi_match on email and name. Without Elasticsearch it falls
// back to a substring match in the repository.
func (s *UserService) Search(ctx context.Context, q string, size int) ([]entity.Public, error) {
	if size <= 0 || size > 50 {
		size = 10
	}
	if strings.TrimSpace(q) == "" {
		return []entity.Public{}, nil
	}
	if s.Index == nil {
		out, _, err := s.List(ctx, "", q, 1, size)
		return out, err
	}
	hits, err := s.Index.Search(ctx, map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	})
	if err != nil {
		s.warn(err, "user search failed, using repository filter", logrus.Fields{"q": q})
		out, _, err := s.List(ctx, "", q, 1, size)
		return out, err
	}
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	byID, err := s.Publics(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Public, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
