package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"vbuild.dev/pkg/vbuild/internal/domain"
	m "vbuild.dev/pkg/vbuild/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "vbuild"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	dotEnvFileName = ".env"

	rootFlagName        = "root"
	variantFlagName     = "variant"
	kitFlagName         = "kit"
	targetFlagName      = "target"
	parallelFlagName    = "parallel"
	metricsFileFlagName = "metrics-file"
	verboseFlagName     = "verbose"
	logFileFlagName     = "log-file"
	plainFlagName       = "plain"

	rootKey            = "root"
	buildEntryPointKey = "build.entry_point"
	buildKitKey        = "build.kit"
	buildTargetKey     = "build.target"
	buildParallelKey   = "build.parallel"
	retryMaxRetriesKey = "retry.max_retries"
	retryModeKey       = "retry.mode"
	retryInitialKey    = "retry.initial"
	retryMaxKey        = "retry.max"
	retrySignaturesKey = "retry.signatures"
	trackSnapshotKey   = "track.snapshot"
	metricsFileKey     = "metrics.file"
	variantsKey        = "variants"

	defaultRoot          = "."
	defaultBuildKit      = string(m.KitProd)
	defaultBuildTarget   = "all"
	defaultBuildParallel = 1
	defaultRetryInitial  = "10s"
	defaultRetryMax      = "10s"
	defaultTrackSnapshot = ".vbuild/snapshot.gob"

	envPrefix = "VBUILD"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".vbuild.log"
	defaultLogLevel      = "info"
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

// suiteConfig is one entry of the variants list in vbuild.yaml.
type suiteConfig struct {
	Variant    string   `mapstructure:"variant"`
	Components []string `mapstructure:"components"`
	Artifacts  []string `mapstructure:"artifacts"`
	Archive    bool     `mapstructure:"archive"`
	Manifest   bool     `mapstructure:"manifest"`
}

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setConfigDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return
		}

		slog.Warn("Failed to read config file", "path", configFileName, "error", err)
	}
}

func setConfigDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(rootKey, defaultRoot)

	viper.SetDefault(buildEntryPointKey, domain.DefaultEntryPoint())
	viper.SetDefault(buildKitKey, defaultBuildKit)
	viper.SetDefault(buildTargetKey, defaultBuildTarget)
	viper.SetDefault(buildParallelKey, defaultBuildParallel)

	defaultPolicy := domain.DefaultRetryPolicy()
	viper.SetDefault(retryMaxRetriesKey, defaultPolicy.MaxRetries)
	viper.SetDefault(retryModeKey, string(defaultPolicy.Mode))
	viper.SetDefault(retryInitialKey, defaultRetryInitial)
	viper.SetDefault(retryMaxKey, defaultRetryMax)
	viper.SetDefault(retrySignaturesKey, domain.DefaultTransientSignatures)

	viper.SetDefault(trackSnapshotKey, defaultTrackSnapshot)
	viper.SetDefault(metricsFileKey, "")
	viper.SetDefault(variantsKey, []map[string]interface{}{})

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// loadDotEnv exports variables from a .env file in the working directory,
// such as LM_LICENSE_FILE for the toolchain. Variables already set win.
func loadDotEnv() {
	if err := godotenv.Load(dotEnvFileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load env file", "path", dotEnvFileName, "error", err)
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose || viper.GetBool(logVerboseKey) {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

// retryPolicyFromConfig builds the retry policy from the retry.* keys. Zero
// delays fall back to the defaults; negative values are rejected.
func retryPolicyFromConfig() (domain.RetryPolicy, error) {
	mode, err := domain.ParseBackoffMode(viper.GetString(retryModeKey))
	if err != nil {
		return domain.RetryPolicy{}, err
	}

	initial := viper.GetDuration(retryInitialKey)
	maxDelay := viper.GetDuration(retryMaxKey)
	maxRetries := viper.GetInt(retryMaxRetriesKey)

	if maxRetries < 0 || initial < 0 || maxDelay < 0 {
		return domain.RetryPolicy{}, fmt.Errorf("%w: retry values cannot be negative", domain.ErrInvalidRetryPolicy)
	}

	policy := domain.NewRetryPolicy(mode, initial, maxDelay, maxRetries)
	if err := policy.Validate(); err != nil {
		return domain.RetryPolicy{}, err
	}

	return policy, nil
}

// projectRoot returns the absolute project root from --root / root.
func projectRoot() (m.Path, error) {
	root := viper.GetString(rootKey)
	if strings.TrimSpace(root) == "" {
		root = defaultRoot
	}

	return fsAdapter.Abs(m.Path(root))
}

// suitesFromConfig reads the variants list used by verify.
func suitesFromConfig() ([]domain.VariantSuite, error) {
	var entries []suiteConfig
	if err := viper.UnmarshalKey(variantsKey, &entries); err != nil {
		return nil, err
	}

	suites := make([]domain.VariantSuite, 0, len(entries))

	for _, e := range entries {
		if strings.TrimSpace(e.Variant) == "" {
			continue
		}

		suites = append(suites, domain.VariantSuite{
			Variant:                m.ParseVariant(e.Variant),
			ComponentPaths:         toPaths(e.Components),
			ExpectedBuildArtifacts: toPaths(e.Artifacts),
			CreateArchive:          e.Archive,
			CreateManifest:         e.Manifest,
		})
	}

	return suites, nil
}

func toPaths(values []string) []m.Path {
	paths := make([]m.Path, 0, len(values))
	for _, v := range values {
		paths = append(paths, m.Path(filepath.FromSlash(v)))
	}

	return paths
}
