// Copyright 2024 crossrec Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/reco-labs/crossrec/dataset"
	"github.com/reco-labs/crossrec/model"
	"github.com/spf13/viper"
)

// Config is the configuration of the recommendation engine.
type Config struct {
	Train     TrainConfig     `mapstructure:"train"`
	Recommend RecommendConfig `mapstructure:"recommend"`
}

// TrainConfig holds the hyper-parameters of dataset construction and
// factorization.
type TrainConfig struct {
	NFactors    int     `mapstructure:"n_factors" validate:"gt=0"`
	NEpochs     int     `mapstructure:"n_epochs" validate:"gte=0"`
	Reg         float32 `mapstructure:"reg" validate:"gte=0"`
	Alpha       float32 `mapstructure:"alpha" validate:"gt=0"`
	RandomState int64   `mapstructure:"random_state"`
	Jobs        int     `mapstructure:"jobs" validate:"gte=0"`
	Verbose     int     `mapstructure:"verbose" validate:"gte=0"`
}

// RecommendConfig holds the defaults applied to queries.
type RecommendConfig struct {
	TopN         int  `mapstructure:"top_n" validate:"gt=0"`
	ExcludeKnown bool `mapstructure:"exclude_known"`
}

// GetDefaultConfig returns a configuration with default values.
func GetDefaultConfig() *Config {
	return &Config{
		Train: TrainConfig{
			NFactors: 32,
			NEpochs:  15,
			Reg:      0.01,
			Alpha:    dataset.DefaultAlpha,
			Jobs:     1,
			Verbose:  5,
		},
		Recommend: RecommendConfig{
			TopN:         10,
			ExcludeKnown: true,
		},
	}
}

func setDefault() {
	defaultConfig := GetDefaultConfig()
	viper.SetDefault("train.n_factors", defaultConfig.Train.NFactors)
	viper.SetDefault("train.n_epochs", defaultConfig.Train.NEpochs)
	viper.SetDefault("train.reg", defaultConfig.Train.Reg)
	viper.SetDefault("train.alpha", defaultConfig.Train.Alpha)
	viper.SetDefault("train.random_state", defaultConfig.Train.RandomState)
	viper.SetDefault("train.jobs", defaultConfig.Train.Jobs)
	viper.SetDefault("train.verbose", defaultConfig.Train.Verbose)
	viper.SetDefault("recommend.top_n", defaultConfig.Recommend.TopN)
	viper.SetDefault("recommend.exclude_known", defaultConfig.Recommend.ExcludeKnown)
}

// LoadConfig loads the configuration from a TOML file. Every key can be
// overridden by an environment variable, e.g. CROSSREC_TRAIN_N_FACTORS for
// train.n_factors.
func LoadConfig(path string) (*Config, error) {
	setDefault()
	viper.SetConfigFile(path)
	viper.SetEnvPrefix("crossrec")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Trace(err)
	}
	conf := new(Config)
	// unknown keys are configuration mistakes, not extensions
	if err := viper.Unmarshal(conf, func(c *mapstructure.DecoderConfig) {
		c.ErrorUnused = true
	}); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return conf, nil
}

// Validate checks the configuration against the field constraints.
func (config *Config) Validate() error {
	return errors.Trace(validator.New().Struct(config))
}

// Params converts the training section to model hyper-parameters.
func (config *TrainConfig) Params() model.Params {
	return model.Params{
		model.NFactors:    config.NFactors,
		model.NEpochs:     config.NEpochs,
		model.Reg:         config.Reg,
		model.RandomState: config.RandomState,
	}
}
