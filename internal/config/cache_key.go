package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CompletedSetKey returns the cache key for a student's set of completed
// assessment IDs (the completion ledger).
func (r *CacheKeyStruct) CompletedSetKey(userID int) string {
	return fmt.Sprintf("student:%d:completed_assessments", userID)
}

// LobbyKey returns the cache key for a student's cached upstream listing.
func (r *CacheKeyStruct) LobbyKey(userID int) string {
	return fmt.Sprintf("student:%d:lobby", userID)
}

var CacheKey = NewCacheKeyStruct()
