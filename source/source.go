// Package source loads compiler configurations for registry rebuilds.
package source

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_compiler/model"
)

type Source interface {
	Load(ctx context.Context) ([]model.CompilerConfig, error)
}

// ViperSource reads the compiler list under key of a viper config.
type ViperSource struct {
	v   *viper.Viper
	key string
}

func NewViperSource(v *viper.Viper, key string) *ViperSource {
	return &ViperSource{v: v, key: key}
}

func (s *ViperSource) Load(context.Context) ([]model.CompilerConfig, error) {
	var cfgs []model.CompilerConfig
	if err := s.v.UnmarshalKey(s.key, &cfgs); err != nil {
		return nil, fmt.Errorf("unmarshal %s config: %w", s.key, err)
	}
	return cfgs, nil
}

// Watch calls onChange each time the config file changes on disk.
func (s *ViperSource) Watch(onChange func()) {
	s.v.OnConfigChange(func(fsnotify.Event) {
		onChange()
	})
	s.v.WatchConfig()
}
