package observability

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/venue-insights/internal/config"
	"github.com/riskibarqy/venue-insights/internal/platform/logging"
)

// Sampling rates for the mutex and block profiles.
const (
	mutexProfileFraction = 5
	blockProfileRate     = 5
)

// InitPyroscope starts continuous profiling when enabled. The returned stop
// func also resets the runtime contention sampling it turned on.
func InitPyroscope(cfg config.Config, logger *logging.Logger) (func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !cfg.PyroscopeEnabled {
		logger.Info("pyroscope disabled", "reason", "PYROSCOPE_ENABLED=false")
		return func() error { return nil }, nil
	}

	prevMutex := runtime.SetMutexProfileFraction(mutexProfileFraction)
	runtime.SetBlockProfileRate(blockProfileRate)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Logger:            pyroscopeLogger{logger: logger.With("component", "pyroscope")},
		Tags:              profileTags(cfg),
		ProfileTypes:      profileTypes(),
	})
	if err != nil {
		runtime.SetMutexProfileFraction(prevMutex)
		runtime.SetBlockProfileRate(0)
		return nil, err
	}

	logger.Info("pyroscope enabled",
		"server_address", cfg.PyroscopeServerAddress,
		"application", cfg.PyroscopeAppName,
		"upload_rate", cfg.PyroscopeUploadRate,
		"engine_workers", cfg.Engine.Workers,
	)

	return func() error {
		err := profiler.Stop()
		runtime.SetMutexProfileFraction(prevMutex)
		runtime.SetBlockProfileRate(0)
		return err
	}, nil
}

// profileTags labels profiles with the engine's concurrency settings.
func profileTags(cfg config.Config) map[string]string {
	return map[string]string{
		"env":                 cfg.AppEnv,
		"service":             cfg.ServiceName,
		"version":             cfg.ServiceVersion,
		"statsapi_transport":  cfg.StatsAPI.Transport,
		"statsapi_rate_limit": strconv.Itoa(cfg.StatsAPI.RateLimit),
		"engine_workers":      strconv.Itoa(cfg.Engine.Workers),
		"report_store":        cfg.ReportStore,
	}
}

func profileTypes() []pyroscope.ProfileType {
	return []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileAllocSpace,
		pyroscope.ProfileInuseSpace,
		pyroscope.ProfileGoroutines,
		pyroscope.ProfileMutexDuration,
		pyroscope.ProfileBlockDuration,
	}
}

// pyroscopeLogger routes the profiler's own messages through the service logger.
type pyroscopeLogger struct {
	logger *logging.Logger
}

func (l pyroscopeLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l pyroscopeLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l pyroscopeLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}
