package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// GlobalConfigDir is the directory under the XDG config home.
	GlobalConfigDir = "nodescope"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// ProjectConfigDir is the project-local config directory.
	ProjectConfigDir = ".nodescope"
	// ProjectConfigFile is the project-local config file name.
	ProjectConfigFile = "config.yaml"
)

// Layer is a config file that may be merged over the defaults.
type Layer struct {
	Name     string // global, project or explicit
	Path     string
	Required bool
}

// Layers lists the candidate files in merge order. explicit is the value of
// --config or NODESCOPE_CONFIG and may be empty.
func Layers(explicit string) []Layer {
	var layers []Layer
	if dir := userConfigDir(); dir != "" {
		layers = append(layers, Layer{
			Name: "global",
			Path: filepath.Join(dir, GlobalConfigDir, GlobalConfigFile),
		})
	}
	layers = append(layers, Layer{
		Name: "project",
		Path: filepath.Join(ProjectConfigDir, ProjectConfigFile),
	})
	if explicit != "" {
		layers = append(layers, Layer{Name: "explicit", Path: explicit, Required: true})
	}
	return layers
}

// LoadConfig builds the effective configuration. Later sources win:
// defaults, the global file, the project file, the --config file, then the
// environment and flags already bound to v. The result is validated.
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg, _, err := LoadConfigSources(v)
	return cfg, err
}

// LoadConfigSources is LoadConfig that also reports which files were merged.
// Optional files that do not exist are skipped.
func LoadConfigSources(v *viper.Viper) (*Config, []Layer, error) {
	cfg := Default()

	defaults, err := structToMap(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := v.MergeConfigMap(defaults); err != nil {
		return nil, nil, err
	}

	var used []Layer
	for _, layer := range Layers(v.GetString("config")) {
		ok, err := mergeFile(v, layer)
		if err != nil {
			return nil, nil, fmt.Errorf("%s config %s: %w", layer.Name, layer.Path, err)
		}
		if ok {
			used = append(used, layer)
		}
	}

	if err := v.Unmarshal(cfg, viperDecodeHook()); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, used, nil
}

func userConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config")
}

// mergeFile reads one YAML layer into v. It reports false when an optional
// file is absent.
func mergeFile(v *viper.Viper, layer Layer) (bool, error) {
	file, err := os.Open(layer.Path)
	if errors.Is(err, fs.ErrNotExist) && !layer.Required {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer func() { _ = file.Close() }()

	fv := viper.New()
	fv.SetConfigType("yaml")
	if err := fv.ReadConfig(file); err != nil {
		return false, err
	}
	return true, v.MergeConfigMap(fv.AllSettings())
}

func viperDecodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}

// structToMap flattens cfg into the map form viper merges. Durations become
// strings so that files and env values decode through the same hook.
func structToMap(cfg *Config) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "mapstructure",
		Result:     &out,
		DecodeHook: durationToString,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	return out, nil
}

func durationToString(from, _ reflect.Type, data interface{}) (interface{}, error) {
	if from != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	return data.(time.Duration).String(), nil
}
