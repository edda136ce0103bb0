package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cache"
	"github.com/justapithecus/stax/cli/config"
	"github.com/justapithecus/stax/lock"
	"github.com/justapithecus/stax/log"
	"github.com/justapithecus/stax/metrics"
	"github.com/justapithecus/stax/notify"
	"github.com/justapithecus/stax/project"
	"github.com/justapithecus/stax/runtime"
	"github.com/justapithecus/stax/stata"
	"github.com/justapithecus/stax/types"
)

// appEnv bundles everything a command needs: user config, the project
// (when one is found), the lockfile, and the package cache.
type appEnv struct {
	Config   *config.Config
	Root     project.Root
	Manifest *project.Manifest
	Lockfile *lock.Lockfile
	Store    *cache.Store
	Logger   *log.Logger
	Meta     *types.RunMeta
	Metrics  *metrics.Collector

	// HasProject is false when no stax.yaml or stax.lock was found;
	// Root.Dir then falls back to the working directory.
	HasProject bool
}

// loadEnv assembles the command environment. Commands that require a
// project check HasProject themselves so `stax add` can bootstrap one.
func loadEnv(c *cli.Context) (*appEnv, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid user config: %v", err), stata.ExitEnvironmentError)
	}

	env := &appEnv{Config: cfg, HasProject: true}

	root, err := project.FindRootFromCwd()
	if errors.Is(err, project.ErrNoProject) {
		cwd, werr := os.Getwd()
		if werr != nil {
			return nil, werr
		}
		root = project.Root{Dir: cwd}
		env.HasProject = false
	} else if err != nil {
		return nil, err
	}
	env.Root = root

	env.Manifest, err = project.Load(root.Dir)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid manifest: %v", err), stata.ExitEnvironmentError)
	}
	env.Lockfile, err = lock.LoadOrNew(root.Dir)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid lockfile: %v", err), stata.ExitEnvironmentError)
	}

	if cfg.CacheDir != "" {
		env.Store = cache.NewStore(cfg.CacheDir)
	} else {
		env.Store, err = cache.DefaultStore()
		if err != nil {
			return nil, cli.Exit(fmt.Sprintf("cannot resolve cache directory: %v", err), stata.ExitInternalError)
		}
	}

	env.Meta = &types.RunMeta{
		RunID:   uuid.NewString(),
		Project: env.Manifest.Project.Name,
	}
	if c.Bool("verbose") {
		env.Logger = log.NewVerboseLogger(env.Meta)
	} else {
		env.Logger = log.NewLogger(env.Meta)
	}
	env.Metrics = metrics.NewCollector(env.Meta.RunID, env.Meta.Project)

	return env, nil
}

// recordBatch folds per-script outcomes into the run counters and
// emits the snapshot at debug level.
func (e *appEnv) recordBatch(batch types.BatchReport) {
	for _, report := range batch.Reports {
		e.Metrics.IncScriptStarted()
		switch {
		case report.Killed:
			e.Metrics.IncScriptKilled()
		case report.Success:
			e.Metrics.IncScriptSucceeded()
		default:
			e.Metrics.IncScriptFailed()
		}
	}
	e.logMetrics()
}

func (e *appEnv) logMetrics() {
	snap := e.Metrics.Snapshot()
	e.Logger.Debug("run metrics", map[string]any{
		"scripts_started":   snap.ScriptsStarted,
		"scripts_succeeded": snap.ScriptsSucceeded,
		"scripts_failed":    snap.ScriptsFailed,
		"scripts_killed":    snap.ScriptsKilled,
		"cache_hits":        snap.CacheHits,
		"cache_misses":      snap.CacheMisses,
		"packages_fetched":  snap.PackagesFetched,
	})
}

// requireProject rejects commands that need an existing project.
func (e *appEnv) requireProject() error {
	if !e.HasProject {
		return cli.Exit("no stax project found (run from a directory with stax.yaml)", stata.ExitEnvironmentError)
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM, so
// in-flight subprocesses are torn down instead of orphaned.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

// resolveBinary locates the interpreter, flag value first.
func resolveBinary(c *cli.Context, env *appEnv) (string, error) {
	binary, err := stata.DetectBinary(c.String("engine"), env.Config.Stata.Binary)
	if err != nil {
		return "", cli.Exit(err.Error(), stata.ExitEnvironmentError)
	}
	return binary, nil
}

// isolationPath builds the S_ADO value for the given dependency
// groups. --no-isolate returns empty, meaning inherit the environment.
func isolationPath(c *cli.Context, env *appEnv, groups ...project.Group) string {
	if c.Bool("no-isolate") {
		return ""
	}
	allowGlobal := c.Bool("allow-global") || env.Config.Run.AllowGlobal
	return runtime.BuildSADO(env.Store, env.Lockfile, groups, allowGlobal)
}

// runTimeout resolves the per-script timeout: flag, then manifest,
// then user config.
func runTimeout(c *cli.Context, env *appEnv) time.Duration {
	if c.Duration("timeout") > 0 {
		return c.Duration("timeout")
	}
	if env.Manifest.Run.Timeout.Duration > 0 {
		return env.Manifest.Run.Timeout.Duration
	}
	return env.Config.Run.Timeout.Duration
}

// newOrchestrator builds the script runner shared by run, task, test,
// and bench.
func newOrchestrator(c *cli.Context, env *appEnv, binary, sado string) *runtime.Orchestrator {
	return &runtime.Orchestrator{
		Binary:  binary,
		SADO:    sado,
		LogDir:  filepath.Join(env.Root.Dir, env.Manifest.Run.LogDir),
		Timeout: runTimeout(c, env),
		Stream:  c.Bool("stream"),
		Logger:  env.Logger,
	}
}

// notifyResult posts the payload to the configured webhook, if any.
// Delivery failures are logged and never fail the command.
func notifyResult(ctx context.Context, c *cli.Context, env *appEnv, payload any) {
	url := c.String("notify")
	if url == "" {
		url = env.Config.Notify.URL
	}
	if url == "" {
		return
	}

	cfg := notify.Config{
		URL:     url,
		Headers: env.Config.Notify.Headers,
		Timeout: env.Config.Notify.Timeout.Duration,
		Retries: notify.DefaultRetries,
	}
	if env.Config.Notify.Retries != nil {
		cfg.Retries = *env.Config.Notify.Retries
	}

	notifier, err := notify.New(cfg)
	if err != nil {
		env.Logger.Warn("notify disabled", map[string]any{"error": err.Error()})
		return
	}
	defer notifier.Close()

	if err := notifier.Publish(ctx, payload); err != nil {
		env.Metrics.IncNotifyFailure()
		env.Logger.Warn("notify failed", map[string]any{"url": url, "error": err.Error()})
		return
	}
	env.Metrics.IncNotifySuccess()
}
