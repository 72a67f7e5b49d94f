package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hoopsight/prop-engine/internal/models"
	"github.com/hoopsight/prop-engine/pkg/utils"
)

// KeyVersion prefixes every cache key. Bump it to invalidate the whole
// keyspace after a format change.
const KeyVersion = "v1"

// PlayerStatsKey builds "v1:{playerId}:{category}:{threshold}:{period}".
func PlayerStatsKey(playerID uint, category models.StatCategory, threshold int, period string) (string, error) {
	if playerID == 0 {
		return "", fmt.Errorf("%w: player stats key requires a positive player id", utils.ErrInvalidInput)
	}
	if category == "" {
		return "", fmt.Errorf("%w: player stats key requires a category", utils.ErrInvalidInput)
	}
	if period == "" {
		return "", fmt.Errorf("%w: player stats key requires a period", utils.ErrInvalidInput)
	}
	return fmt.Sprintf("%s:%d:%s:%d:%s", KeyVersion, playerID, category, threshold, period), nil
}

// GameKey builds "v1:{gameId}:{type}".
func GameKey(gameID uint, keyType string) (string, error) {
	if gameID == 0 {
		return "", fmt.Errorf("%w: game key requires a positive game id", utils.ErrInvalidInput)
	}
	if keyType == "" {
		return "", fmt.Errorf("%w: game key requires a type", utils.ErrInvalidInput)
	}
	return fmt.Sprintf("%s:%d:%s", KeyVersion, gameID, keyType), nil
}

// ConfidenceKey builds "v1:confidence:{playerId}:{category}:{threshold}".
func ConfidenceKey(playerID uint, category models.StatCategory, threshold int) (string, error) {
	if playerID == 0 {
		return "", fmt.Errorf("%w: confidence key requires a positive player id", utils.ErrInvalidInput)
	}
	if category == "" {
		return "", fmt.Errorf("%w: confidence key requires a category", utils.ErrInvalidInput)
	}
	return fmt.Sprintf("%s:confidence:%d:%s:%d", KeyVersion, playerID, category, threshold), nil
}

// DashboardKey builds "v1:{period}:{category}:{threshold}:{sortBy}:{sortDirection}".
func DashboardKey(period string, category models.StatCategory, threshold int, sortBy, sortDirection string) (string, error) {
	if period == "" || sortBy == "" || sortDirection == "" {
		return "", fmt.Errorf("%w: dashboard key requires period, sortBy and sortDirection", utils.ErrInvalidInput)
	}
	if category == "" {
		return "", fmt.Errorf("%w: dashboard key requires a category", utils.ErrInvalidInput)
	}
	return fmt.Sprintf("%s:%s:%s:%d:%s:%s", KeyVersion, period, category, threshold, sortBy, sortDirection), nil
}

// CollectionKey builds "v1:{prefix}:{hash}". Each item is length-prefixed
// before hashing so distinct collections never share a digest, even when
// their items concatenate to the same bytes.
func CollectionKey(prefix string, items []string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: collection key requires a prefix", utils.ErrInvalidInput)
	}
	h := sha256.New()
	for _, item := range items {
		fmt.Fprintf(h, "%d:", len(item))
		h.Write([]byte(item))
	}
	return fmt.Sprintf("%s:%s:%s", KeyVersion, prefix, hex.EncodeToString(h.Sum(nil))[:16]), nil
}

// APIKey builds "v1:{endpoint}[:{param}...]".
func APIKey(endpoint string, params ...string) (string, error) {
	if endpoint == "" {
		return "", fmt.Errorf("%w: api key requires an endpoint", utils.ErrInvalidInput)
	}
	parts := append([]string{KeyVersion, endpoint}, params...)
	return strings.Join(parts, ":"), nil
}
