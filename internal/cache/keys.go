package cache

import (
	"fmt"
	"time"
)

const (
	// RecentListCap bounds each user's cached recent-post list; the oldest
	// entry is evicted when a new post pushes past the cap.
	RecentListCap = 100

	// HomeFeedTTL is how long a cached home-feed snapshot stays valid.
	HomeFeedTTL = 10 * time.Minute

	// trendingKey holds the global trending sorted set.
	trendingKey = "trending:posts"
)

func recentPostsKey(userID string) string {
	return fmt.Sprintf("user:%s:posts", userID)
}

func homeFeedKey(userID string) string {
	return fmt.Sprintf("user:%s:homefeed", userID)
}
