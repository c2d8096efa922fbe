package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/DDNStorage/qosd/errors"
)

// UsersDirName is the drop-in directory, under the user config directory,
// holding one per-UID override file per file (e.g. ~/.qosd/users.d/1001.toml),
// grounded on am/load.go's LoadPluginConfigs drop-in directory pattern but
// using BurntSushi/toml directly rather than Viper, since these files are
// loaded and decoded one at a time rather than merged as a config layer.
const UsersDirName = "users.d"

// loadUserOverrides reads every *.toml file in dir and decodes it as a
// UserOptions, keyed by the file's basename (its UID). A missing
// directory is not an error: drop-in overrides are optional.
func loadUserOverrides(dir string) (map[string]UserOptions, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read user overrides directory %s", dir)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".toml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make(map[string]UserOptions, len(names))
	for _, name := range names {
		uid := strings.TrimSuffix(name, ".toml")

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, errors.Wrapf(err, "read user override %s", name)
		}

		var uo UserOptions
		if err := toml.Unmarshal(data, &uo); err != nil {
			return nil, errors.Wrapf(err, "decode user override %s", name)
		}
		out[uid] = uo
	}

	return out, nil
}

// applyUserOverrides layers drop-in per-UID overrides on top of whatever
// Options.Users the main config cascade already produced; a drop-in file
// wins over an inline [users.<uid>] table, matching the rest of the
// cascade's "more specific source wins" rule.
func applyUserOverrides(opts *Options, overrides map[string]UserOptions) {
	if len(overrides) == 0 {
		return
	}
	if opts.Users == nil {
		opts.Users = make(map[string]UserOptions, len(overrides))
	}
	for uid, uo := range overrides {
		opts.Users[uid] = uo
	}
}
