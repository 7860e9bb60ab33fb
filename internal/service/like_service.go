package service

import (
	"context"

	"contentflow/internal/middleware"
	"contentflow/internal/models"
	"contentflow/internal/repository"
)

type LikeService struct {
	likeRepo repository.LikeRepository
	postRepo repository.PostRepository
}

// ToggleLikeResult is the payload returned to the AJAX caller.
type ToggleLikeResult struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
	PostID     uint  `json:"post_id"`
}

func NewLikeService(likeRepo repository.LikeRepository, postRepo repository.PostRepository) *LikeService {
	return &LikeService{likeRepo: likeRepo, postRepo: postRepo}
}

// ToggleLike flips the caller's like on a post and returns the new state
// with the fresh count. The post must exist; an unknown ID surfaces as
// not-found rather than silently creating a dangling like.
func (s *LikeService) ToggleLike(ctx context.Context, userID, postID uint) (*ToggleLikeResult, error) {
	if userID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}

	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}

	liked, count, err := s.likeRepo.Toggle(ctx, userID, postID)
	if err != nil {
		middleware.LikeToggles.WithLabelValues("error").Inc()
		return nil, err
	}

	if liked {
		middleware.LikeToggles.WithLabelValues("liked").Inc()
	} else {
		middleware.LikeToggles.WithLabelValues("unliked").Inc()
	}

	return &ToggleLikeResult{Liked: liked, LikesCount: count, PostID: postID}, nil
}
