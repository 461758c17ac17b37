package qdrant

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var collectionNameRe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// EscapeCollectionName squashes a URL or arbitrary label into a valid
// collection name. Anything outside [a-zA-Z0-9_-] becomes an underscore and
// leading or trailing underscores are dropped.
func EscapeCollectionName(raw string) string {
	return strings.Trim(collectionNameRe.ReplaceAllString(raw, "_"), "_")
}

// CodeCollectionName is the sibling collection holding extracted code
// snippets for a prose collection.
func CodeCollectionName(collection string) string {
	return collection + "_code"
}

// PointID derives a stable UUID for a chunk from its source URL and index,
// so re-ingesting the same page overwrites rather than duplicates.
func PointID(url string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url+"_"+strconv.Itoa(index))).String()
}
