package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/schmitthub/gantry/internal/logger"
)

// lockRetryInterval is how often a blocked run re-attempts the lock.
const lockRetryInterval = 250 * time.Millisecond

// AcquireServiceLock serializes local runs against the same service. The
// lock lives in locksDir keyed by cluster and service, so concurrent
// deploys of different services proceed in parallel while two runs against
// one service queue up. Runs from other hosts are not covered; the
// orchestrator remains the arbiter for those.
//
// The returned release function must be called when the run ends.
func AcquireServiceLock(ctx context.Context, locksDir, cluster, service string) (func(), error) {
	if err := os.MkdirAll(locksDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating locks directory: %w", err)
	}

	path := filepath.Join(locksDir, cluster+"--"+service+".lock")
	lock := flock.New(path)

	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquiring lock for %s/%s: %w", cluster, service, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock for %s/%s is held by another run", cluster, service)
	}

	logger.Debug().Str("lock", path).Msg("service lock acquired")
	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn().Err(err).Str("lock", path).Msg("failed to release service lock")
		}
	}, nil
}
