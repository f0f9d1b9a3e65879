package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-auth/config"
	"github.com/oksasatya/go-user-auth/internal/domain/entity"
	repo "github.com/oksasatya/go-user-auth/internal/domain/repository"
	"github.com/oksasatya/go-user-auth/internal/infrastructure/storage"
	"github.com/oksasatya/go-user-auth/pkg/helpers"
	"github.com/oksasatya/go-user-auth/pkg/mailer"
	mailtpl "github.com/oksasatya/go-user-auth/pkg/mailer/templates"
)

const (
	avatarFolder = "avatars"
	coverFolder  = "covers"
)

// Indexer keeps the searchable copy of public profiles.
type Indexer interface {
	Index(ctx context.Context, u entity.PublicUser) error
	Search(ctx context.Context, q string, size int) ([]entity.PublicUser, error)
}

// Notifier hands an email job to the delivery pipeline.
type Notifier interface {
	Enqueue(ctx context.Context, job mailer.EmailJob) error
}

type Service struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Media  storage.Uploader
	Index  Indexer
	Notify Notifier
	Logger *logrus.Logger
	Cfg    *config.Config
}

func NewService(r repo.UserRepository, jwt *helpers.JWTManager, media storage.Uploader, idx Indexer, notify Notifier, logger *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		Repo:   r,
		JWT:    jwt,
		Media:  media,
		Index:  idx,
		Notify: notify,
		Logger: logger,
		Cfg:    cfg,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// RequestMeta is what the HTTP layer knows about the caller; used in notifications.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type RegisterInput struct {
	Username       string
	Email          string
	Fullname       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

type LoginInput struct {
	Username string
	Email    string
	Password string
	Meta     RequestMeta
}

type LoginResult struct {
	User   entity.PublicUser
	Tokens TokenPair
}

var passwordTooLongMsg = fmt.Sprintf("Password must be at most %d bytes", helpers.MaxPasswordBytes)

func hashError(msg string, err error) error {
	if errors.Is(err, helpers.ErrPasswordTooLong) {
		return ValidationError(passwordTooLongMsg)
	}
	return InternalError(msg, err)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register creates a user after uploading the avatar (required) and cover image (optional).
// Local files named in the input are always removed before returning.
func (s *Service) Register(ctx context.Context, in RegisterInput) (entity.PublicUser, error) {
	defer discardLocal(in.AvatarPath, in.CoverImagePath)

	username := normalize(in.Username)
	email := normalize(in.Email)
	fullname := strings.TrimSpace(in.Fullname)
	if username == "" || email == "" || fullname == "" || strings.TrimSpace(in.Password) == "" {
		return entity.PublicUser{}, ValidationError("All fields are required")
	}
	if !helpers.PasswordFits(in.Password) {
		return entity.PublicUser{}, ValidationError(passwordTooLongMsg)
	}

	existing, err := s.Repo.FindByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil && existing != nil:
		return entity.PublicUser{}, ConflictError("User already exists with this username or email")
	case err != nil && !errors.Is(err, repo.ErrNotFound):
		return entity.PublicUser{}, InternalError("User registration failed", err)
	}

	if strings.TrimSpace(in.AvatarPath) == "" {
		return entity.PublicUser{}, ValidationError("Avatar file is required")
	}

	avatar, err := s.upload(ctx, in.AvatarPath, avatarFolder)
	if err != nil || avatar.URL == "" {
		mUploadFailures.Add(1)
		return entity.PublicUser{}, UploadError("Failed to upload avatar image", err)
	}
	uploaded := []storage.Object{avatar}

	var coverURL string
	if in.CoverImagePath != "" {
		cover, err := s.upload(ctx, in.CoverImagePath, coverFolder)
		if err != nil {
			mUploadFailures.Add(1)
			helpers.LogWarn(s.Logger, "cover image upload failed; continuing without it", err, logrus.Fields{"username": username})
		} else {
			coverURL = cover.URL
			uploaded = append(uploaded, cover)
		}
	}

	hash, err := helpers.HashPassword(in.Password, s.Cfg.BcryptCost)
	if err != nil {
		s.compensate(ctx, uploaded)
		return entity.PublicUser{}, hashError("User registration failed", err)
	}

	u := &entity.User{
		Username:      username,
		Email:         email,
		Fullname:      fullname,
		PasswordHash:  hash,
		AvatarURL:     avatar.URL,
		CoverImageURL: coverURL,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		s.compensate(ctx, uploaded)
		if errors.Is(err, repo.ErrDuplicate) {
			return entity.PublicUser{}, ConflictError("User already exists with this username or email")
		}
		return entity.PublicUser{}, InternalError("User registration failed", err)
	}

	mRegistrations.Add(1)
	pub := u.Public()
	s.index(ctx, pub)
	s.notify(ctx, u, mailtpl.Welcome)
	helpers.LogInfo(s.Logger, "user registered", logrus.Fields{"user_id": u.ID})
	return pub, nil
}

func (s *Service) upload(ctx context.Context, path, folder string) (storage.Object, error) {
	if s.Media == nil {
		removeLocal(path)
		return storage.Object{}, storage.ErrNotConfigured
	}
	return s.Media.Upload(ctx, path, folder)
}

// compensate deletes objects uploaded for a registration that did not complete.
func (s *Service) compensate(ctx context.Context, objs []storage.Object) {
	if s.Media == nil {
		return
	}
	for _, o := range objs {
		if o.Key == "" {
			continue
		}
		if err := s.Media.Delete(ctx, o.Key); err != nil {
			helpers.LogWarn(s.Logger, "delete orphaned upload failed", err, logrus.Fields{"key": o.Key})
		}
	}
}

// Login authenticates by username or email and starts a new session,
// replacing any refresh token issued before.
func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	username := normalize(in.Username)
	email := normalize(in.Email)
	if username == "" && email == "" {
		return LoginResult{}, ValidationError("Username or email is required")
	}

	u, err := s.Repo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		mLoginFailure.Add(1)
		if errors.Is(err, repo.ErrNotFound) {
			return LoginResult{}, NotFoundError("User not found with this username or email")
		}
		return LoginResult{}, InternalError("login failed", err)
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, in.Password) {
		mLoginFailure.Add(1)
		return LoginResult{}, AuthError("Invalid user credentials")
	}

	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return LoginResult{}, err
	}

	mLoginSuccess.Add(1)
	s.notify(ctx, u, mailtpl.LoginNotification,
		mailtpl.WithIP(in.Meta.IP),
		mailtpl.WithUserAgent(in.Meta.UserAgent),
		mailtpl.WithTime(time.Now()),
	)
	return LoginResult{User: u.Public(), Tokens: pair}, nil
}

// issueTokens mints a token pair and stores the refresh token on the user.
func (s *Service) issueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	const msg = "Failed to generate access and refresh tokens"
	access, aexp, err := s.JWT.GenerateAccessToken(helpers.Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
		Fullname: u.Fullname,
	})
	if err != nil {
		return TokenPair{}, InternalError(msg, err)
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID)
	if err != nil {
		return TokenPair{}, InternalError(msg, err)
	}
	if err := s.Repo.SetRefreshToken(ctx, u.ID, &refresh); err != nil {
		return TokenPair{}, InternalError(msg, err)
	}
	u.RefreshToken = &refresh
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Logout clears the stored refresh token so it can no longer be rotated.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.Repo.SetRefreshToken(ctx, userID, nil); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return AuthError("Unauthorized request")
		}
		return InternalError("logout failed", err)
	}
	helpers.LogInfo(s.Logger, "user logged out", logrus.Fields{"user_id": userID})
	return nil
}

// Refresh exchanges the current refresh token for a new pair. A token that
// verifies but is no longer the stored one is rejected.
func (s *Service) Refresh(ctx context.Context, token string) (TokenPair, error) {
	if token == "" {
		mRefreshRejected.Add(1)
		return TokenPair{}, AuthError("Unauthorized request")
	}
	claims, err := s.JWT.ParseRefreshToken(token)
	if err != nil {
		mRefreshRejected.Add(1)
		return TokenPair{}, &Error{Kind: KindAuth, Message: err.Error(), Err: err}
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil {
		mRefreshRejected.Add(1)
		if errors.Is(err, repo.ErrNotFound) {
			return TokenPair{}, AuthError("Invalid refresh token")
		}
		return TokenPair{}, InternalError("refresh failed", err)
	}
	if !u.HasRefreshToken(token) {
		mRefreshRejected.Add(1)
		helpers.LogWarn(s.Logger, "superseded refresh token presented", nil, logrus.Fields{"user_id": u.ID})
		return TokenPair{}, AuthError("Invalid or expired refresh token")
	}

	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return TokenPair{}, err
	}
	mRefreshRotated.Add(1)
	return pair, nil
}

// ChangePassword verifies the old password and stores a fresh hash of the new one.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ValidationError("Old and new password are required")
	}
	if !helpers.PasswordFits(newPassword) {
		return ValidationError(passwordTooLongMsg)
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return AuthError("Unauthorized request")
		}
		return InternalError("change password failed", err)
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, oldPassword) {
		return AuthError("Invalid old password")
	}
	hash, err := helpers.HashPassword(newPassword, s.Cfg.BcryptCost)
	if err != nil {
		return hashError("change password failed", err)
	}
	if err := s.Repo.UpdatePassword(ctx, userID, hash); err != nil {
		return InternalError("change password failed", err)
	}
	s.notify(ctx, u, mailtpl.PasswordChanged, mailtpl.WithTime(time.Now()))
	return nil
}

// CurrentUser loads the sanitized record for userID.
func (s *Service) CurrentUser(ctx context.Context, userID string) (entity.PublicUser, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return entity.PublicUser{}, NotFoundError("User not found")
		}
		return entity.PublicUser{}, InternalError("fetch user failed", err)
	}
	return u.Public(), nil
}

// UpdateAccount replaces fullname and email.
func (s *Service) UpdateAccount(ctx context.Context, userID, fullname, email string) (entity.PublicUser, error) {
	fullname = strings.TrimSpace(fullname)
	email = normalize(email)
	if fullname == "" || email == "" {
		return entity.PublicUser{}, ValidationError("All fields are required")
	}

	before, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return entity.PublicUser{}, NotFoundError("User not found")
		}
		return entity.PublicUser{}, InternalError("update account failed", err)
	}

	u, err := s.Repo.UpdateAccount(ctx, userID, fullname, email)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicate):
			return entity.PublicUser{}, ConflictError("Email is already in use")
		case errors.Is(err, repo.ErrNotFound):
			return entity.PublicUser{}, NotFoundError("User not found")
		}
		return entity.PublicUser{}, InternalError("update account failed", err)
	}

	pub := u.Public()
	s.index(ctx, pub)

	changes := map[string]string{}
	if before.Fullname != u.Fullname {
		changes["Full name"] = u.Fullname
	}
	if before.Email != u.Email {
		changes["Email"] = u.Email
	}
	if len(changes) > 0 {
		s.notify(ctx, u, mailtpl.ProfileUpdated, mailtpl.WithChanges(changes), mailtpl.WithTime(time.Now()))
	}
	return pub, nil
}

// UpdateAvatar uploads a new avatar and points the user at it.
func (s *Service) UpdateAvatar(ctx context.Context, userID, localPath string) (entity.PublicUser, error) {
	return s.replaceImage(ctx, userID, localPath, avatarFolder, "Avatar file is required", s.Repo.UpdateAvatar)
}

// UpdateCoverImage uploads a new cover image and points the user at it.
func (s *Service) UpdateCoverImage(ctx context.Context, userID, localPath string) (entity.PublicUser, error) {
	return s.replaceImage(ctx, userID, localPath, coverFolder, "Cover image file is required", s.Repo.UpdateCoverImage)
}

func (s *Service) replaceImage(
	ctx context.Context,
	userID, localPath, folder, missingMsg string,
	save func(ctx context.Context, id, url string) (*entity.User, error),
) (entity.PublicUser, error) {
	defer discardLocal(localPath)
	if strings.TrimSpace(localPath) == "" {
		return entity.PublicUser{}, ValidationError(missingMsg)
	}
	obj, err := s.upload(ctx, localPath, folder)
	if err != nil || obj.URL == "" {
		mUploadFailures.Add(1)
		return entity.PublicUser{}, UploadError("Failed to upload image", err)
	}
	u, err := save(ctx, userID, obj.URL)
	if err != nil {
		s.compensate(ctx, []storage.Object{obj})
		if errors.Is(err, repo.ErrNotFound) {
			return entity.PublicUser{}, NotFoundError("User not found")
		}
		return entity.PublicUser{}, InternalError("update image failed", err)
	}
	pub := u.Public()
	s.index(ctx, pub)
	return pub, nil
}

// SearchUsers queries the profile index; without one it returns no hits.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]entity.PublicUser, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ValidationError("Query is required")
	}
	if s.Index == nil {
		return []entity.PublicUser{}, nil
	}
	out, err := s.Index.Search(ctx, q, size)
	if err != nil {
		return nil, InternalError("search failed", err)
	}
	return out, nil
}

func (s *Service) index(ctx context.Context, u entity.PublicUser) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, u); err != nil {
		helpers.LogWarn(s.Logger, "es index failed", err, logrus.Fields{"user_id": u.ID})
	}
}

func (s *Service) notify(ctx context.Context, u *entity.User, tpl string, opts ...mailtpl.Option) {
	if s.Notify == nil || !s.Cfg.MailSendEnabled {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: tpl,
		Data:     mailtpl.NewData(s.Cfg, tpl, u.Fullname, u.Username, u.Email, opts...),
	}
	if err := s.Notify.Enqueue(ctx, job); err != nil {
		helpers.LogWarn(s.Logger, "enqueue email failed", err, logrus.Fields{"user_id": u.ID, "template": tpl})
	}
}

func removeLocal(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}

func discardLocal(paths ...string) {
	for _, p := range paths {
		removeLocal(p)
	}
}
