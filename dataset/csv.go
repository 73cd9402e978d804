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
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// LoadCSV reads an interaction table from a CSV file and builds a Dataset.
func LoadCSV(path string, alpha float32) (*Dataset, error) {
	builder := NewBuilder(alpha)
	if err := LoadInteractionsCSV(builder, path); err != nil {
		return nil, errors.Trace(err)
	}
	return builder.Build()
}

// LoadInteractionsCSV feeds a Builder from a CSV file with lines of the
// form `customer_id,product_id,raw_count`. Blank lines and lines starting
// with `#` are skipped. A header line is detected by an unparsable count
// field on the first record and skipped.
func LoadInteractionsCSV(builder *Builder, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 3 {
			return errors.Errorf("expect 3 fields, got %d: %q", len(fields), line)
		}
		rawCount, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 32)
		if err != nil {
			if first {
				// header line
				first = false
				continue
			}
			return errors.Annotatef(err, "parse raw count in %q", line)
		}
		first = false
		if err := builder.Add(strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1]), float32(rawCount)); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(scanner.Err())
}

// LoadAttributesCSV attaches product attributes from a CSV file with lines
// of the form `product_id,attribute`. The dataset indices are fixed after
// Build, so this loader feeds a Builder, not a Dataset.
func LoadAttributesCSV(builder *Builder, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, ",", 2)
		if len(fields) != 2 {
			return errors.Errorf("expect 2 fields, got %d: %q", len(fields), line)
		}
		builder.SetProductAttribute(strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1]))
	}
	return errors.Trace(scanner.Err())
}
