// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//   This file is part of COLLASSOC.
//
//  COLLASSOC is free software: you can redistribute it and/or modify
//  it under the terms of the GNU General Public License as published by
//  the Free Software Foundation, either version 3 of the License, or
//  (at your option) any later version.
//
//  COLLASSOC is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU General Public License for more details.
//
//  You should have received a copy of the GNU General Public License
//  along with COLLASSOC.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"collassoc/cnf"
	"collassoc/monitoring"
	"collassoc/rdb"
	"collassoc/worker"

	"github.com/rs/zerolog/log"
)

func getWorkerID() (workerID string) {
	workerID = getEnv("WORKER_ID")
	if workerID == "" {
		workerID = strconv.Itoa(os.Getpid())
	}
	return
}

func mkStatusWriter(
	ctx context.Context,
	conf *cnf.Conf,
	radapter *rdb.Adapter,
) monitoring.StatusWriter {
	writers := []monitoring.StatusWriter{monitoring.NewRedisStatusWriter(radapter)}
	if conf.Monitoring != nil {
		tsWriter, err := monitoring.NewTimescaleDBWriter(
			ctx, conf.Monitoring.DB, conf.TimezoneLocation())
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize TimescaleDB writer, operations stats will not be stored")

		} else {
			writers = append(writers, tsWriter)
			log.Info().Msg("enabling TimescaleDB operations stats")
		}
	}
	return monitoring.NewMultiStatusWriter(writers...)
}

func runWorker(conf *cnf.Conf) {
	workerID := getWorkerID()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	radapter := rdb.NewAdapter(ctx, conf.Redis)
	defer radapter.Close()
	if err := radapter.TestConnection(redisConnectionTestTimeout); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
		return
	}

	resultCache, err := worker.NewResultCache(conf.Worker.ResultCacheMaxCost)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start worker")
		return
	}
	statusWriter := mkStatusWriter(ctx, conf, radapter)
	jobLogger := monitoring.NewWorkerJobLogger(statusWriter, conf.TimezoneLocation())
	wrk := worker.NewWorker(
		workerID,
		&conf.Worker,
		radapter,
		radapter.Subscribe(),
		jobLogger,
		resultCache,
	)
	runServices(ctx, statusWriter, jobLogger, wrk)
}
