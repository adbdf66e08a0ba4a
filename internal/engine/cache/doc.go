// Package cache stores API responses and access tokens with TTL expiration.
//
// Two backends implement Store:
//   - FileStore keeps one JSON file per entry under ~/.bizcheck/cache/
//   - RedisStore keeps entries in Redis so several machines can share lookups
//
// Keys are SHA256 hashes of the operation name and its normalized inputs, so
// the same company looked up twice maps to the same entry. Business registry
// data changes slowly; the default TTL is one day.
package cache
