package dexy

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	env "github.com/netflix/go-env"
)

// Config is everything a scan needs from its caller. Defaults come from the
// struct tags, the environment overrides them and the CLI overrides both.
type Config struct {
	StartDirs []string

	Out                string `env:"DEXY_OUT,default=./"`
	Name               string `env:"DEXY_NAME,default=dexy"`
	ThreadCount        int    `env:"DEXY_THREAD_COUNT,default=0"`
	HashWorkers        int    `env:"DEXY_HASH_WORKERS,default=0"`
	IgnoreEmpty        bool   `env:"DEXY_IGNORE_EMPTY,default=false"`
	IncludeHidden      bool   `env:"DEXY_INCLUDE_HIDDEN,default=false"`
	LoadFileAttributes bool   `env:"DEXY_LOAD_FILE_ATTRIBUTES,default=false"`
	IndexDB            string `env:"DEXY_INDEX_DB"`
	LogFile            string `env:"DEXY_LOG_FILE"`

	// Exclude and UpdateExisting are accepted on the command line so that
	// using them fails loudly; neither is implemented.
	Exclude        []string
	UpdateExisting bool
}

// LoadConfig reads the DEXY_* environment. A zero thread or hash worker
// count becomes the number of CPUs.
func LoadConfig() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if cfg.ThreadCount == 0 {
		cfg.ThreadCount = runtime.NumCPU()
	}
	if cfg.HashWorkers == 0 {
		cfg.HashWorkers = runtime.NumCPU()
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.StartDirs) == 0 {
		return ErrNoStartDirectories
	}
	if c.ThreadCount < 1 {
		return fmt.Errorf("%w: thread count %d", ErrInvalidWorkerCount, c.ThreadCount)
	}
	if c.HashWorkers < 1 {
		return fmt.Errorf("%w: hash workers %d", ErrInvalidWorkerCount, c.HashWorkers)
	}
	if c.Name == "" || c.Name == "." || c.Name == ".." || strings.ContainsAny(c.Name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, c.Name)
	}
	if len(c.Exclude) > 0 {
		return fmt.Errorf("%w: --exclude", ErrUnsupportedOption)
	}
	if c.UpdateExisting {
		return fmt.Errorf("%w: --update-existing", ErrUnsupportedOption)
	}
	return nil
}

// StartDirectories resolves every start directory to an absolute path with
// symlinks evaluated. Repeated directories are kept once. Any path that
// cannot be resolved is an error.
func (c *Config) StartDirectories() ([]string, error) {
	roots := make([]string, 0, len(c.StartDirs))
	seen := make(map[string]struct{}, len(c.StartDirs))

	for _, dir := range c.StartDirs {
		root, err := Canonicalize(dir)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[root]; dup {
			continue
		}
		seen[root] = struct{}{}
		roots = append(roots, root)
	}
	return roots, nil
}

func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize %s: %w", path, err)
	}
	if _, err := os.Stat(resolved); err != nil {
		return "", fmt.Errorf("failed to canonicalize %s: %w", path, err)
	}
	return resolved, nil
}

// OutputPath is <out>/<name>.json.
func (c *Config) OutputPath() string {
	return filepath.Join(c.Out, c.Name+".json")
}

func (c *Config) ScanOptions() ScanOptions {
	return ScanOptions{
		Workers:            c.ThreadCount,
		HashWorkers:        c.HashWorkers,
		IgnoreEmpty:        c.IgnoreEmpty,
		IncludeHidden:      c.IncludeHidden,
		LoadFileAttributes: c.LoadFileAttributes,
	}
}
