package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	userKeyPrefix    = "user:%d"
	profileKeyPrefix = "profile:%s"
	feedFirstPageKey = "feed:first"
)

const (
	UserTTL = 5 * time.Minute
	FeedTTL = 1 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(userKeyPrefix, userID)
}

func ProfileKey(username string) string {
	return fmt.Sprintf(profileKeyPrefix, username)
}

func FeedFirstPageKey() string {
	return feedFirstPageKey
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateProfile(ctx context.Context, username string) {
	Invalidate(ctx, ProfileKey(username))
}

// InvalidateFeed drops the cached first feed page. Called on every write
// that changes what the anonymous feed page would render.
func InvalidateFeed(ctx context.Context) {
	Invalidate(ctx, feedFirstPageKey)
}
