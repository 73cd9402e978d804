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

package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.csv")
	content := "customer,product,count\n" +
		"C1,P1,3\n" +
		"\n" +
		"# comment\n" +
		"C1,P2,1\n" +
		"C2,P1,5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	d, err := LoadCSV(path, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, d.CountCustomers())
	assert.Equal(t, 2, d.CountProducts())
	assert.Equal(t, 3, d.CountInteractions())
}

func TestLoadCSVNoHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.csv")
	require.NoError(t, os.WriteFile(path, []byte("C1,P1,2\nC2,P1,1\n"), 0644))
	d, err := LoadCSV(path, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, d.CountInteractions())
}

func TestLoadCSVMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.csv")
	require.NoError(t, os.WriteFile(path, []byte("C1,P1\n"), 0644))
	_, err := LoadCSV(path, 1)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("C1,P1,3\nC2,P2,oops\n"), 0644))
	_, err = LoadCSV(path, 1)
	assert.Error(t, err)
}

func TestLoadAttributesCSV(t *testing.T) {
	dir := t.TempDir()
	interactions := filepath.Join(dir, "interactions.csv")
	attributes := filepath.Join(dir, "attributes.csv")
	require.NoError(t, os.WriteFile(interactions, []byte("C1,P1,3\nC1,P2,1\n"), 0644))
	require.NoError(t, os.WriteFile(attributes, []byte("P1,valves\nP2,fittings\n"), 0644))
	builder := NewBuilder(1)
	require.NoError(t, LoadInteractionsCSV(builder, interactions))
	require.NoError(t, LoadAttributesCSV(builder, attributes))
	d, err := builder.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"valves", "fittings"}, d.Attributes())
}
