package postsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkrupp/postbox/internal/domain"
	"github.com/mkrupp/postbox/internal/infra/logging"
	"github.com/mkrupp/postbox/internal/repo/post"
	"github.com/mkrupp/postbox/internal/util/keylock"
	"github.com/mkrupp/postbox/internal/validate"
)

// RepoPostService implements PostService on top of a post.Repository.
type RepoPostService struct {
	Repo      post.Repository
	Validator *validate.Validator
	Log       logging.Logger
	Now       func() time.Time

	// locks serializes mutations per post id.
	locks keylock.Locker
}

var _ PostService = (*RepoPostService)(nil)

// NewRepoPostService creates a new RepoPostService from the given repository factory.
// Returns an error if the repository cannot be created.
func NewRepoPostService(repoFactory post.RepositoryFactory) (*RepoPostService, error) {
	repo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new post repo: %w", err)
	}

	return &RepoPostService{
		Repo:      repo,
		Validator: validate.New(),
		Log:       logging.GetLogger("svc.postsvc.repo_post_service"),
		Now:       time.Now,
	}, nil
}

func (s *RepoPostService) now() time.Time {
	return s.Now().UTC().Truncate(time.Millisecond)
}

// Create implements PostService.Create.
func (s *RepoPostService) Create(
	ctx context.Context,
	authorID string,
	input validate.PostCreateInput,
) (_ *domain.Post, err error) {
	log := s.Log.With(logging.Group("post", "authorId", authorID))

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "post create failed", "error", err)
		} else {
			log.DebugContext(ctx, "post created")
		}
	}()

	if err := s.Validator.Validate(&input); err != nil {
		return nil, err //nolint:wrapcheck
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate post id: %w", err)
	}

	now := s.now()
	created := &domain.Post{
		ID:        id.String(),
		Title:     input.Title,
		Content:   input.Content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	log = log.With(logging.Group("post", "id", created.ID, "authorId", authorID))

	if err := s.Repo.CreatePost(ctx, created); err != nil {
		return nil, fmt.Errorf("store post: %w", err)
	}

	return created, nil
}

// List implements PostService.List.
func (s *RepoPostService) List(ctx context.Context, authorID string) ([]*domain.Post, error) {
	posts, err := s.Repo.ListPostsByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return posts, nil
}

// Get implements PostService.Get.
func (s *RepoPostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	found, ok, err := s.Repo.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	} else if !ok {
		return nil, domain.ErrPostNotFound
	}

	return found, nil
}

// GetOwned implements PostService.GetOwned.
func (s *RepoPostService) GetOwned(ctx context.Context, id, authorID string) (*domain.Post, error) {
	found, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if found.AuthorID != authorID {
		return nil, domain.ErrForbidden
	}

	return found, nil
}

// Update implements PostService.Update.
func (s *RepoPostService) Update(
	ctx context.Context,
	id, authorID string,
	input validate.PostUpdateInput,
) (_ *domain.Post, err error) {
	log := s.Log.With(logging.Group("post", "id", id, "authorId", authorID))

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "post update failed", "error", err)
		} else {
			log.DebugContext(ctx, "post updated")
		}
	}()

	unlock := s.locks.Lock(id)
	defer unlock()

	found, err := s.GetOwned(ctx, id, authorID)
	if err != nil {
		return nil, err
	}

	if err := s.Validator.Validate(&input); err != nil {
		return nil, err //nolint:wrapcheck
	}

	domain.PostChanges{Title: input.Title, Content: input.Content}.Apply(found)

	// updatedAt must move forward even within the same millisecond.
	now := s.now()
	if !now.After(found.UpdatedAt) {
		now = found.UpdatedAt.Add(time.Millisecond)
	}

	found.UpdatedAt = now

	if err := s.Repo.UpdatePost(ctx, found); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	return found, nil
}

// Delete implements PostService.Delete.
func (s *RepoPostService) Delete(
	ctx context.Context,
	id, authorID string,
) (_ *domain.MessageResponse, err error) {
	log := s.Log.With(logging.Group("post", "id", id, "authorId", authorID))

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "post delete failed", "error", err)
		} else {
			log.DebugContext(ctx, "post deleted")
		}
	}()

	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.GetOwned(ctx, id, authorID); err != nil {
		return nil, err
	}

	if err := s.Repo.DeletePost(ctx, id); err != nil {
		return nil, fmt.Errorf("delete post: %w", err)
	}

	return &domain.MessageResponse{Message: DeletedMessage}, nil
}

// Close implements PostService.Close.
func (s *RepoPostService) Close() error {
	return s.Repo.Close() //nolint:wrapcheck
}
