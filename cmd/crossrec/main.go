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
	"fmt"
	"os"

	"github.com/reco-labs/crossrec/base/log"
	"github.com/reco-labs/crossrec/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "0.1.0"

var rootCommand = &cobra.Command{
	Use:   "crossrec",
	Short: "Cross-selling recommendation engine based on implicit feedback",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Root().PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.Root().PersistentFlags(), debug)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println("crossrec version", version)
			return
		}
		_ = cmd.Help()
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().BoolP("version", "v", false, "crossrec version")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.AddCommand(trainCommand)
	rootCommand.AddCommand(recommendCommand)
	rootCommand.AddCommand(similarCommand)
	rootCommand.AddCommand(popularCommand)
	rootCommand.AddCommand(targetCommand)
}

// loadConfig loads the configuration file named by --config, or the default
// configuration when the flag is unset.
func loadConfig() *config.Config {
	configPath, _ := rootCommand.PersistentFlags().GetString("config")
	if configPath == "" {
		return config.GetDefaultConfig()
	}
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		log.Logger().Fatal("failed to load config",
			zap.String("config", configPath), zap.Error(err))
	}
	return conf
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
