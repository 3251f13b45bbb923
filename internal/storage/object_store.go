// Package storage keeps uploaded files (profile images) in S3-compatible
// storage or on local disk and hands back a URL clients can fetch.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

type ObjectStore interface {
	// PutObject stores data under key and returns a retrievable URL.
	PutObject(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

const profileImagePrefix = "profile_images/"

// ProfileImageKey is the object key for a new image of userID.
func ProfileImageKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s%s/%s", profileImagePrefix, userID, uuid.New())
}

// ProfileImageKeyFromURL recovers the object key behind a URL returned by
// PutObject. It only accepts keys under userID's own image prefix.
func ProfileImageKeyFromURL(userID uuid.UUID, url string) (string, bool) {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	owned := profileImagePrefix + userID.String() + "/"
	i := strings.Index(url, owned)
	if i < 0 {
		return "", false
	}
	key := url[i:]
	if len(key) == len(owned) || validateKey(key) != nil {
		return "", false
	}
	return key, true
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid object key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("invalid object key %q", key)
		}
	}
	return nil
}
