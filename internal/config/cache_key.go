package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// BundleProgressChannel returns the Redis PubSub channel name for a
// staging bundle's processing progress (QR read, push).
func (r *CacheKeyStruct) BundleProgressChannel(bundleID string) string {
	return fmt.Sprintf("bundle:%s:progress", bundleID)
}

// LayoutKey returns the cache key for the serialized exam layout snapshot.
func (r *CacheKeyStruct) LayoutKey() string {
	return "exam:layout"
}

var CacheKey = NewCacheKeyStruct()
