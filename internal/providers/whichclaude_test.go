package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWhichClaudeCachedIsStableWithinTTL(t *testing.T) {
	InvalidateWhichCache()

	path1, _ := WhichClaudeCached()
	path2, _ := WhichClaudeCached()

	assert.Equal(t, path1, path2)
}

func TestInvalidateWhichCacheForcesReResolution(t *testing.T) {
	InvalidateWhichCache()
	_, _ = WhichClaudeCached()

	claudeBinaryCache.mu.Lock()
	resolvedAt := claudeBinaryCache.resolvedAt
	claudeBinaryCache.mu.Unlock()

	InvalidateWhichCache()
	_, _ = WhichClaudeCached()

	claudeBinaryCache.mu.Lock()
	newResolvedAt := claudeBinaryCache.resolvedAt
	claudeBinaryCache.mu.Unlock()

	assert.True(t, newResolvedAt.After(resolvedAt) || newResolvedAt.Equal(resolvedAt))
}

func TestWhichClaudeCachedExpiresAfterTTL(t *testing.T) {
	InvalidateWhichCache()
	_, _ = WhichClaudeCached()

	claudeBinaryCache.mu.Lock()
	claudeBinaryCache.resolvedAt = time.Now().Add(-claudeBinaryCacheTTL - time.Second)
	claudeBinaryCache.mu.Unlock()

	_, _ = WhichClaudeCached()

	claudeBinaryCache.mu.Lock()
	defer claudeBinaryCache.mu.Unlock()
	assert.WithinDuration(t, time.Now(), claudeBinaryCache.resolvedAt, time.Second)
}
