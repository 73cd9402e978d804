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
	"os"
	"path/filepath"
	"testing"

	"github.com/reco-labs/crossrec/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfig(t *testing.T) {
	defaultConfig := GetDefaultConfig()
	assert.NoError(t, defaultConfig.Validate())
	assert.Equal(t, 32, defaultConfig.Train.NFactors)
	assert.Equal(t, float32(40), defaultConfig.Train.Alpha)
	assert.Equal(t, 5, defaultConfig.Train.Verbose)
	assert.Equal(t, 10, defaultConfig.Recommend.TopN)
	assert.True(t, defaultConfig.Recommend.ExcludeKnown)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[train]
n_factors = 16
n_epochs = 20
reg = 0.1
alpha = 8.0
random_state = 42
jobs = 4
verbose = 2

[recommend]
top_n = 5
exclude_known = false
`), 0o644))
	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 16, conf.Train.NFactors)
	assert.Equal(t, 20, conf.Train.NEpochs)
	assert.Equal(t, float32(0.1), conf.Train.Reg)
	assert.Equal(t, float32(8), conf.Train.Alpha)
	assert.Equal(t, int64(42), conf.Train.RandomState)
	assert.Equal(t, 4, conf.Train.Jobs)
	assert.Equal(t, 2, conf.Train.Verbose)
	assert.Equal(t, 5, conf.Recommend.TopN)
	assert.False(t, conf.Recommend.ExcludeKnown)

	params := conf.Train.Params()
	assert.Equal(t, 16, params.GetInt(model.NFactors, 0))
	assert.Equal(t, int64(42), params.GetInt64(model.RandomState, 0))
}

func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[train]\nn_factors = 8\n"), 0o644))
	conf, err := LoadConfig(path)
	require.NoError(t, err)
	// unset keys keep their defaults
	assert.Equal(t, 8, conf.Train.NFactors)
	assert.Equal(t, 15, conf.Train.NEpochs)
	assert.Equal(t, 10, conf.Recommend.TopN)
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[train]\nlearning_rate = 0.1\n"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	conf := GetDefaultConfig()
	conf.Train.NFactors = 0
	assert.Error(t, conf.Validate())
	conf = GetDefaultConfig()
	conf.Train.Reg = -1
	assert.Error(t, conf.Validate())
	conf = GetDefaultConfig()
	conf.Train.Verbose = -1
	assert.Error(t, conf.Validate())
	conf = GetDefaultConfig()
	conf.Recommend.TopN = -5
	assert.Error(t, conf.Validate())
}
