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

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/reco-labs/crossrec/base/log"
	"github.com/reco-labs/crossrec/logics"
	"github.com/reco-labs/crossrec/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func loadSnapshot(cmd *cobra.Command) *store.Snapshot {
	path, _ := cmd.Flags().GetString("snapshot")
	file, err := os.Open(path)
	if err != nil {
		log.Logger().Fatal("failed to open snapshot",
			zap.String("path", path), zap.Error(err))
	}
	defer file.Close()
	snapshot, err := store.Unmarshal(bufio.NewReader(file))
	if err != nil {
		log.Logger().Fatal("failed to read snapshot",
			zap.String("path", path), zap.Error(err))
	}
	return snapshot
}

func printResults(header string, results []logics.Result) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"RANK", header, "SCORE"})
	for i, result := range results {
		table.Append([]string{strconv.Itoa(i + 1), result.Id,
			fmt.Sprintf("%.6f", result.Score)})
	}
	table.Render()
}

func topN(cmd *cobra.Command, fallback int) int {
	if cmd.Flags().Changed("top-n") {
		n, _ := cmd.Flags().GetInt("top-n")
		return n
	}
	return fallback
}

var recommendCommand = &cobra.Command{
	Use:   "recommend CUSTOMER_ID",
	Short: "Recommend products for a customer",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig()
		snapshot := loadSnapshot(cmd)
		excludeKnown := conf.Recommend.ExcludeKnown
		if cmd.Flags().Changed("exclude-known") {
			excludeKnown, _ = cmd.Flags().GetBool("exclude-known")
		}
		results, err := logics.Recommend(snapshot, args[0], topN(cmd, conf.Recommend.TopN), excludeKnown)
		if err != nil {
			log.Logger().Fatal("failed to recommend", zap.Error(err))
		}
		printResults("PRODUCT", results)
	},
}

var similarCommand = &cobra.Command{
	Use:   "similar PRODUCT_ID",
	Short: "Find products similar to a product",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig()
		snapshot := loadSnapshot(cmd)
		results, err := logics.SimilarProducts(snapshot, args[0], topN(cmd, conf.Recommend.TopN))
		if err != nil {
			log.Logger().Fatal("failed to find similar products", zap.Error(err))
		}
		printResults("PRODUCT", results)
	},
}

var popularCommand = &cobra.Command{
	Use:   "popular",
	Short: "List popular products for customers without history",
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig()
		snapshot := loadSnapshot(cmd)
		attributes, _ := cmd.Flags().GetStringSlice("attribute")
		results, err := logics.PopularProducts(snapshot, topN(cmd, conf.Recommend.TopN), attributes...)
		if err != nil {
			log.Logger().Fatal("failed to list popular products", zap.Error(err))
		}
		printResults("PRODUCT", results)
	},
}

var targetCommand = &cobra.Command{
	Use:   "target PRODUCT_ID",
	Short: "Find target customers for a product",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig()
		snapshot := loadSnapshot(cmd)
		excludeKnown, _ := cmd.Flags().GetBool("exclude-known")
		results, err := logics.TargetCustomers(snapshot, args[0], topN(cmd, conf.Recommend.TopN), excludeKnown)
		if err != nil {
			log.Logger().Fatal("failed to find target customers", zap.Error(err))
		}
		printResults("CUSTOMER", results)
	},
}

func init() {
	for _, command := range []*cobra.Command{recommendCommand, similarCommand, popularCommand, targetCommand} {
		command.Flags().StringP("snapshot", "s", "crossrec.snapshot", "path of the snapshot file")
		command.Flags().IntP("top-n", "n", 0, "size of the ranking (overrides config)")
	}
	recommendCommand.Flags().Bool("exclude-known", true, "exclude products the customer already bought")
	popularCommand.Flags().StringSlice("attribute", nil, "restrict the ranking to the given product attributes")
	targetCommand.Flags().Bool("exclude-known", false, "exclude customers who already bought the product")
}
