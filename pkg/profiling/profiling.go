package profiling

import (
	"fmt"
	"strings"
	"time"

	"github.com/creatorjobs/creatorjobs-api/config"
	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// Labels identify this process in the profiler UI.
type Labels struct {
	Service     string
	Namespace   string
	Version     string
	InstanceID  string
	Environment string
}

var allProfileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileGoroutines,
	pyroscope.ProfileMutexCount,
	pyroscope.ProfileMutexDuration,
	pyroscope.ProfileBlockCount,
	pyroscope.ProfileBlockDuration,
}

var profileTypesByName = map[string][]pyroscope.ProfileType{
	"cpu":           {pyroscope.ProfileCPU},
	"alloc_space":   {pyroscope.ProfileAllocSpace},
	"alloc_objects": {pyroscope.ProfileAllocObjects},
	"goroutines":    {pyroscope.ProfileGoroutines},
	"mutex":         {pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration},
	"block":         {pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration},
}

// Start launches continuous profiling when enabled and returns a stop
// function. When profiling is disabled the stop function is a no-op, so the
// caller can defer it unconditionally.
func Start(cfg config.ProfilingConfig, labels Labels) (func(), error) {
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return func() {}, nil
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("profiling endpoint is required when profiling is enabled")
	}

	uploadInterval := cfg.UploadIntervalSeconds
	if uploadInterval <= 0 {
		uploadInterval = 15
	}

	profileTypes, err := sampleTypesFrom(cfg.SampleTypes)
	if err != nil {
		return nil, err
	}

	appName := applicationName(cfg.AppName, labels)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   endpoint,
		UploadRate:      time.Duration(uploadInterval) * time.Second,
		ProfileTypes:    profileTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start profiler: %w", err)
	}

	logger.Info("Continuous profiling initialized",
		zap.String("application_name", appName),
		zap.String("endpoint", endpoint),
		zap.String("sample_types", cfg.SampleTypes),
		zap.Int("upload_interval_seconds", uploadInterval),
	)

	return func() {
		if stopErr := profiler.Stop(); stopErr != nil {
			logger.Error("Failed to stop profiler", zap.Error(stopErr))
		}
	}, nil
}

// sampleTypesFrom parses the comma-separated sample-type list; an empty list
// means everything.
func sampleTypesFrom(value string) ([]pyroscope.ProfileType, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return allProfileTypes, nil
	}

	seen := make(map[pyroscope.ProfileType]struct{}, len(allProfileTypes))
	types := make([]pyroscope.ProfileType, 0, len(allProfileTypes))

	for _, raw := range strings.Split(value, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		mapped, ok := profileTypesByName[name]
		if !ok {
			return nil, fmt.Errorf("unsupported O11Y_PROFILING_SAMPLE_TYPES value: %q", name)
		}

		for _, t := range mapped {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			types = append(types, t)
		}
	}

	if len(types) == 0 {
		return allProfileTypes, nil
	}
	return types, nil
}

func applicationName(base string, labels Labels) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "creatorjobs-api"
	}

	tags := []string{
		fmt.Sprintf("service_name=%s", labels.Service),
		fmt.Sprintf("namespace=%s", labels.Namespace),
		fmt.Sprintf("environment=%s", labels.Environment),
		fmt.Sprintf("service_version=%s", labels.Version),
		fmt.Sprintf("instance=%s", labels.InstanceID),
	}

	return fmt.Sprintf("%s{%s}", base, strings.Join(tags, ","))
}
