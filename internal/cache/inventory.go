package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	userKeyPrefix     = "user:%d"
	postKeyPrefix     = "post:%d"
	listingKeyPrefix  = "listing:%d"
	scheduleKeyPrefix = "schedule:%s:%s:%s"
)

const (
	UserTTL     = 5 * time.Minute
	PostTTL     = 30 * time.Minute
	ListingTTL  = 10 * time.Minute
	ScheduleTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(userKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(postKeyPrefix, postID)
}

func ListingKey(listingID uint) string {
	return fmt.Sprintf(listingKeyPrefix, listingID)
}

func ScheduleKey(school, email, term string) string {
	return fmt.Sprintf(scheduleKeyPrefix, school, email, term)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidateListing(ctx context.Context, listingID uint) {
	Invalidate(ctx, ListingKey(listingID))
}

func InvalidateSchedule(ctx context.Context, school, email, term string) {
	Invalidate(ctx, ScheduleKey(school, email, term))
}
