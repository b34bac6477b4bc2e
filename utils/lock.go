package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/grcsuite/auditoria_backend/config"
)

// ProgramLock serializes state-machine and association updates on one audit
// program. The caller must invoke the returned release func once the
// transaction has committed or rolled back.
func ProgramLock(ctx context.Context, programId int, moduleName string, funcName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		config.LogError(logger, moduleName, funcName, "Redis lock not initialized", programId, errors.New("redis lock is nil"))
		return nil, errors.New("service not ready (redis lock not initialized)")
	}

	lockKey := fmt.Sprintf("AuditProgram:%d", programId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, funcName, "Could not obtain lock for audit program", programId, err)
		return nil, errors.New("audit program is being modified by another request")
	} else if err != nil {
		config.LogError(logger, moduleName, funcName, "Error obtaining lock for audit program", programId, err)
		return nil, err
	}

	return func() {
		_ = lock.Release(ctx)
	}, nil
}
