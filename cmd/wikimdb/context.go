package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"wikimdb/internal/cache"
	"wikimdb/internal/config"
	"wikimdb/internal/logging"
	"wikimdb/internal/pipeline"
	"wikimdb/internal/subject"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

// ensureConfig loads .env (if present) into the environment, then the
// config file. Both happen once per invocation.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.configErr = fmt.Errorf("load .env: %w", err)
			return
		}
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
				cfg.Logging.Level = level
			}
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// openStore opens the configured cache backend. Callers close the store.
func (c *commandContext) openStore(ctx context.Context) (*cache.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return cache.Open(ctx, cfg, logger)
}

// withRun assembles a resolution run over the configured cache and closes
// the cache when fn returns.
func (c *commandContext) withRun(cmd *cobra.Command, fn func(*pipeline.Run) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	store, err := c.openStore(ctx)
	if err != nil {
		logging.ErrorWithContext(logger, "cache open failed", "cache_open_failed",
			logging.String("backend", c.configValue().Cache.Backend),
			logging.String(logging.FieldErrorHint, "check the cache section of the config"),
			logging.Error(err))
		return err
	}
	defer store.Close()

	run, err := pipeline.New(c.configValue(), store, pipeline.WithLogger(logger))
	if err != nil {
		logging.ErrorWithContext(logger, "run setup failed", "run_setup_failed", logging.Error(err))
		return err
	}
	return fn(run)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// parseSubject accepts a bare title ("The Matrix") or an article path
// ("/wiki/The_Matrix") and returns the subject as page links spell it.
func parseSubject(arg string) subject.Subject {
	s := subject.FromPath(strings.TrimSpace(arg))
	return subject.Subject(strings.ReplaceAll(string(s), " ", "_"))
}

func parseSubjects(args []string) []subject.Subject {
	out := make([]subject.Subject, 0, len(args))
	for _, arg := range args {
		if s := parseSubject(arg); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
