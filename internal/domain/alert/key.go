// internal/domain/alert/key.go
package alert

import "strings"

// keySeparator delimits the kind, record id and role segments of an alert
// key. Record ids are UUIDs and roles come from a closed vocabulary, so
// none of the segments can contain the separator; exact concatenation is
// therefore injective and no hashing is needed.
const keySeparator = ":"

// KeyFor derives the stable gateway key for one alert of one record.
// Identical inputs always produce the identical key, and distinct
// (kind, id, role) triples never collide.
func KeyFor(kind Kind, recordID string, role Role) string {
	return string(kind) + keySeparator + recordID + keySeparator + string(role)
}

// KeyPrefix returns the prefix shared by every alert key of one record,
// used for bulk cancellation on record deletion.
func KeyPrefix(kind Kind, recordID string) string {
	return string(kind) + keySeparator + recordID + keySeparator
}

// ParseKey splits a gateway key back into its segments. ok is false for
// keys this application did not produce.
func ParseKey(key string) (kind Kind, recordID string, role Role, ok bool) {
	parts := strings.SplitN(key, keySeparator, 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return Kind(parts[0]), parts[1], Role(parts[2]), true
}
