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
	"context"
	"os"
	"time"

	"github.com/reco-labs/crossrec/base/log"
	"github.com/reco-labs/crossrec/base/progress"
	"github.com/reco-labs/crossrec/dataset"
	"github.com/reco-labs/crossrec/model/mf"
	"github.com/reco-labs/crossrec/store"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var trainCommand = &cobra.Command{
	Use:   "train",
	Short: "Train the factorization model and write a snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig()
		interactionsPath, _ := cmd.Flags().GetString("interactions")
		attributesPath, _ := cmd.Flags().GetString("attributes")
		outputPath, _ := cmd.Flags().GetString("output")
		if cmd.Flags().Changed("jobs") {
			conf.Train.Jobs, _ = cmd.Flags().GetInt("jobs")
		}

		// build the dataset
		builder := dataset.NewBuilder(conf.Train.Alpha)
		if err := dataset.LoadInteractionsCSV(builder, interactionsPath); err != nil {
			log.Logger().Fatal("failed to load interactions",
				zap.String("path", interactionsPath), zap.Error(err))
		}
		if attributesPath != "" {
			if err := dataset.LoadAttributesCSV(builder, attributesPath); err != nil {
				log.Logger().Fatal("failed to load attributes",
					zap.String("path", attributesPath), zap.Error(err))
			}
		}
		trainSet, err := builder.Build()
		if err != nil {
			log.Logger().Fatal("failed to build dataset", zap.Error(err))
		}

		// fit the model
		als := mf.NewALS(conf.Train.Params())
		fitConfig := mf.NewFitConfig().SetJobs(conf.Train.Jobs).SetVerbose(conf.Train.Verbose)
		ctx, span := progress.Start(context.Background(), "train", 1)
		trainDone := make(chan error)
		go func() {
			trainDone <- als.Fit(ctx, trainSet, fitConfig)
		}()
		bar := progressbar.Default(int64(conf.Train.NEpochs), "fit")
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
	wait:
		for {
			select {
			case err := <-trainDone:
				if err != nil {
					log.Logger().Fatal("failed to fit model", zap.Error(err))
				}
				_ = bar.Finish()
				break wait
			case <-ticker.C:
				for _, child := range span.Children() {
					_ = bar.Set(child.Count)
				}
			}
		}
		span.End()

		// write the snapshot
		snapshot := store.NewSnapshot(als, trainSet)
		file, err := os.Create(outputPath)
		if err != nil {
			log.Logger().Fatal("failed to create snapshot file",
				zap.String("path", outputPath), zap.Error(err))
		}
		defer file.Close()
		writer := bufio.NewWriter(file)
		if err := snapshot.Marshal(writer); err != nil {
			log.Logger().Fatal("failed to write snapshot", zap.Error(err))
		}
		if err := writer.Flush(); err != nil {
			log.Logger().Fatal("failed to write snapshot", zap.Error(err))
		}
		log.Logger().Info("snapshot written",
			zap.String("path", outputPath),
			zap.Int("customers", snapshot.CountCustomers()),
			zap.Int("products", snapshot.CountProducts()),
			zap.Int("factors", snapshot.NumFactors()))
	},
}

func init() {
	trainCommand.Flags().StringP("interactions", "i", "", "path of the interaction CSV file")
	trainCommand.Flags().StringP("attributes", "a", "", "path of the product attribute CSV file")
	trainCommand.Flags().StringP("output", "o", "crossrec.snapshot", "path of the output snapshot")
	trainCommand.Flags().IntP("jobs", "j", 0, "number of fit jobs (overrides config)")
	_ = trainCommand.MarkFlagRequired("interactions")
}
