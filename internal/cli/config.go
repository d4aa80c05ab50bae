package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flat/pkg/pipeline"
)

// config is the TOML config file. Command-line flags override it.
//
//	redis_url = "redis://localhost:6379/0"
//	addr = ":8080"
//
//	[render]
//	kind = "dag"
//
//	[render.roles]
//	primary = "animal"
//	display = ["animal", "size"]
//
//	[render.chart]
//	width = 100
//	aggregate = "average"
type config struct {
	RedisURL string           `toml:"redis_url"`
	CacheDir string           `toml:"cache_dir"`
	Addr     string           `toml:"addr"`
	Render   pipeline.Options `toml:"render"`
}

// loadConfig reads the config file at path. An empty path reads the
// default location, where a missing file is not an error.
func loadConfig(path string) (config, error) {
	var cfg config
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = configPath(); err != nil {
			return cfg, nil
		}
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return config{}, nil
		}
		return config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("read config %s: unknown keys %v", path, undecoded)
	}
	return cfg, nil
}
