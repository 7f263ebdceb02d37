package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDCandidates returns every stored form an identifier may take: the trimmed
// raw string, plus the ObjectID when the string is a valid hex id. Query
// builders match with $in over this set. An empty input yields nil.
func IDCandidates(raw string) []interface{} {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	candidates := []interface{}{raw}
	if oid, err := primitive.ObjectIDFromHex(raw); err == nil {
		candidates = append(candidates, oid)
	}
	return candidates
}

// CanonicalID is the comparable key of an identifier held either as a string
// or as an ObjectID.
func CanonicalID(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case *primitive.ObjectID:
		if id == nil {
			return ""
		}
		return id.Hex()
	case string:
		return strings.TrimSpace(id)
	}
	return ""
}
