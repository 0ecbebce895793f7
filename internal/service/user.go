package service

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"postservice/internal/model"
	"postservice/internal/queue"
	"postservice/internal/repository"
)

// UserDetailPostLimit caps the posts embedded in a user detail.
const UserDetailPostLimit = 50

// PictureStore uploads and removes profile pictures. *MediaService is the
// production implementation.
type PictureStore interface {
	UploadProfilePicture(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error)
	DeleteObject(ctx context.Context, key string) error
}

// UserService handles identity provisioning and profiles.
type UserService struct {
	tx          repository.Transactor
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	followRepo  repository.FollowRepository
	postRepo    repository.PostRepository
	upvoteRepo  repository.UpvoteRepository
	publisher   queue.Publisher
	pictures    PictureStore
	assets      AssetResolver
	paginator   Paginator
	now         func() time.Time
}

type UserServiceDeps struct {
	Tx          repository.Transactor
	UserRepo    repository.UserRepository
	ProfileRepo repository.ProfileRepository
	FollowRepo  repository.FollowRepository
	PostRepo    repository.PostRepository
	UpvoteRepo  repository.UpvoteRepository
	Publisher   queue.Publisher
	// Pictures is nil when object storage is not configured.
	Pictures  PictureStore
	Assets    AssetResolver
	Paginator Paginator
}

func NewUserService(deps UserServiceDeps) *UserService {
	return &UserService{
		tx:          deps.Tx,
		userRepo:    deps.UserRepo,
		profileRepo: deps.ProfileRepo,
		followRepo:  deps.FollowRepo,
		postRepo:    deps.PostRepo,
		upvoteRepo:  deps.UpvoteRepo,
		publisher:   deps.Publisher,
		pictures:    deps.Pictures,
		assets:      deps.Assets,
		paginator:   deps.Paginator,
		now:         time.Now,
	}
}

// EnsureAccount provisions the user and profile rows for an authenticated
// identity on first sight and returns the profile. It is idempotent.
func (s *UserService) EnsureAccount(ctx context.Context, userID int64, username string) (*model.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		username = "user" + strconv.FormatInt(userID, 10)
	}

	var profile *model.Profile
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.userRepo.Upsert(ctx, tx, userID, username); err != nil {
			return err
		}
		p, err := s.profileRepo.EnsureForUser(ctx, tx, userID, username)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}
	return profile, nil
}

// GetUserDetail returns a profile with the profiles it follows, its
// followers and its posts.
func (s *UserService) GetUserDetail(ctx context.Context, profileID int64) (*model.UserDetailView, error) {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, profile)
}

// GetMe is GetUserDetail for the acting user.
func (s *UserService) GetMe(ctx context.Context, userID int64) (*model.UserDetailView, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, profile)
}

// detail loads the three embedded lists concurrently.
func (s *UserService) detail(ctx context.Context, profile *model.Profile) (*model.UserDetailView, error) {
	var (
		following []model.Profile
		followers []model.Profile
		posts     []model.Post
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		following, err = s.followRepo.ListFollowing(gCtx, profile.ID)
		return err
	})
	g.Go(func() (err error) {
		followers, err = s.followRepo.ListFollowers(gCtx, profile.ID)
		return err
	})
	g.Go(func() (err error) {
		posts, err = s.postRepo.ListByUser(gCtx, profile.UserID, UserDetailPostLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &model.UserDetailView{
		UserListView: toUserListView(*profile, s.assets),
		Following:    toUserListViews(following, s.assets),
		Followers:    toUserListViews(followers, s.assets),
		Posts:        toPostListViews(posts, s.assets),
	}, nil
}

// ListUsers returns one page of profiles ordered by name.
func (s *UserService) ListUsers(ctx context.Context, params model.PageParams) (*model.UserPage, error) {
	info, err := s.paginator.resolve(params)
	if err != nil {
		return nil, err
	}

	count, err := s.profileRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.paginator.complete(&info, count); err != nil {
		return nil, err
	}

	profiles, err := s.profileRepo.List(ctx, info.PageSize, info.Offset())
	if err != nil {
		return nil, err
	}

	return &model.UserPage{PageInfo: info, Results: toUserListViews(profiles, s.assets)}, nil
}

// UpdateProfile applies a partial update to the acting user's profile.
// An empty string clears name, bio, birth_date or location.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.UserListView, error) {
	if req.Name == nil && req.Bio == nil && req.BirthDate == nil && req.Location == nil {
		return nil, model.ErrNoFieldsToUpdate
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if utf8.RuneCountInString(name) > model.MaxProfileNameLength {
			return nil, model.ErrNameTooLong
		}
		profile.Name = name
	}
	if req.Bio != nil {
		if utf8.RuneCountInString(*req.Bio) > model.MaxProfileBioLength {
			return nil, model.ErrBioTooLong
		}
		profile.Bio = emptyToNil(req.Bio)
	}
	if req.Location != nil {
		if utf8.RuneCountInString(*req.Location) > model.MaxProfileLocationLength {
			return nil, model.ErrLocationTooLong
		}
		profile.Location = emptyToNil(req.Location)
	}
	if req.BirthDate != nil {
		birthDate, err := s.parseBirthDate(*req.BirthDate)
		if err != nil {
			return nil, err
		}
		profile.BirthDate = birthDate
	}

	updated, err := s.profileRepo.Update(ctx, profile)
	if err != nil {
		return nil, err
	}

	view := toUserListView(*updated, s.assets)
	return &view, nil
}

func (s *UserService) parseBirthDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(model.BirthDateLayout, value)
	if err != nil || t.After(s.now()) {
		return nil, model.ErrInvalidBirthDate
	}
	return &t, nil
}

// UploadPicture replaces the acting user's profile picture. The previous
// object is deleted best-effort.
func (s *UserService) UploadPicture(ctx context.Context, userID int64, file multipart.File, header *multipart.FileHeader) (*model.UserListView, error) {
	if s.pictures == nil {
		return nil, model.ErrStorageUnavailable
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	upload, err := s.pictures.UploadProfilePicture(ctx, file, header)
	if err != nil {
		return nil, err
	}

	previous, err := s.profileRepo.SetPicture(ctx, profile.ID, upload.Key)
	if err != nil {
		s.deletePicture(ctx, upload.Key)
		return nil, err
	}
	if previous != nil {
		s.deletePicture(ctx, *previous)
	}

	profile.PictureKey = &upload.Key
	view := toUserListView(*profile, s.assets)
	return &view, nil
}

// DeleteAccount removes the user and, by cascade, everything they own. The
// user's upvotes are released first in the same transaction so the counters
// of other users' posts stay equal to their upvote rows.
func (s *UserService) DeleteAccount(ctx context.Context, userID int64) error {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	var released int64
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		// Locked first so no upvote can be inserted between the release and
		// the cascade.
		if err := s.userRepo.LockForUpdate(ctx, tx, userID); err != nil {
			return err
		}
		n, err := s.upvoteRepo.ReleaseAllByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		released = n
		return s.userRepo.Delete(ctx, tx, userID)
	})
	if err != nil {
		return err
	}

	log.Printf("[UserService] Deleted account: user=%d released_upvotes=%d", userID, released)

	if profile.PictureKey != nil {
		s.deletePicture(ctx, *profile.PictureKey)
	}

	event := queue.NewUserDeletedEvent(userID)
	if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
		log.Printf("[UserService] Failed to publish %s event: user=%d err=%v", event.Type, userID, err)
	}
	return nil
}

func (s *UserService) deletePicture(ctx context.Context, key string) {
	if s.pictures == nil {
		return
	}
	if err := s.pictures.DeleteObject(ctx, key); err != nil {
		log.Printf("[UserService] Failed to delete picture key=%s: %v", key, err)
	}
}
