package shmreg

import (
	"errors"
	"fmt"
	"log/slog"
)

// Register is the Lifecycle Coordinator's entry point. It resolves userPath
// to a canonical key, constructs a new container via factory, and drives it
// through LOADING -> READY, publishing it into the process-wide registry and
// this Manager's local view on success.
//
// Any panic escaping factory or the container's Init/IsExist/Load is
// recovered: the in-flight handle is destroyed, no entry is left in the
// registry, and Register returns ErrException.
func Register[T Container](m *Manager, userPath string, factory ContainerFactory[T]) (T, error) {
	var zero T

	key, err := canonicalPath(userPath)
	if err != nil {
		return zero, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return zero, ErrClosed
	}

	return registerLocked(m, key, factory)
}

func registerLocked[T Container](m *Manager, key string, factory ContainerFactory[T]) (result T, err error) {
	var (
		handle    T
		handleSet bool
		inserted  bool
	)

	defer func() {
		if r := recover(); r != nil {
			if handleSet {
				handle.Destroy()
			}

			if inserted {
				globalRegistry.removeLoading(key)
			}

			var zero T

			result, err = zero, fmt.Errorf("%w: %v", ErrException, r)
		}
	}()

	handle, err = factory(key, m.groupName, m.appID)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrOOM, err)
	}

	handleSet = true

	entry, err := globalRegistry.insertLoading(key, handle, m.groupName, m.appID)
	if err != nil {
		var zero T
		return zero, err
	}

	inserted = true

	if initErr := initWithRetry(m.logger, m.appID, handle); initErr != nil {
		handle.Destroy()
		globalRegistry.removeLoading(key)

		var zero T

		return zero, initErr
	}

	if !handle.IsExist() {
		if verr := verifyOneFile(m.logger, key); verr != nil {
			handle.Destroy()
			globalRegistry.removeLoading(key)

			var zero T

			return zero, verr
		}

		if lerr := handle.Load(); lerr != nil {
			handle.Destroy()
			globalRegistry.removeLoading(key)

			var zero T

			return zero, lerr
		}
	}

	entry.setStatus(statusReady)
	m.local[key] = struct{}{}

	return handle, nil
}

// initWithRetry calls handle.Init under INIT_EXCL. On ErrOOM it invokes
// Memory-Pressure Recovery (ClearUnregistered) once and retries Init exactly
// once more.
func initWithRetry(logger *slog.Logger, appID int, handle Container) error {
	err := callInit(handle)
	if err != nil && errors.Is(err, ErrOOM) {
		logger.Warn("shmreg: init hit OOM, clearing unregistered segments and retrying", "appID", appID, "error", err)

		_ = ClearUnregistered(appID)
		err = callInit(handle)

		if err != nil {
			logger.Error("shmreg: init retry after OOM recovery failed", "appID", appID, "error", err)
		}
	}

	return err
}

func callInit(handle Container) error {
	initLock.Lock()
	defer initLock.Unlock()

	return handle.Init()
}
