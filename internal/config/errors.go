package config

import "errors"

var (
	errConfigFileNotFound   = errors.New("config file not found")
	errConfigFileRead       = errors.New("cannot read config file")
	errConfigInvalid        = errors.New("invalid config file")
	errWorkerCountNegative  = errors.New("worker_count cannot be negative")
	errSweepIntervalInvalid = errors.New("sweep_interval is not a valid duration")
)
