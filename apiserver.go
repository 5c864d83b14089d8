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
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	assocActions "collassoc/assoc/handlers"
	"collassoc/cnf"
	monitoringActions "collassoc/monitoring/handlers"
	"collassoc/openapi"
	"collassoc/rdb"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type apiServer struct {
	server   *http.Server
	conf     *cnf.Conf
	radapter *rdb.Adapter
	version  versionInfo
}

func mkServerInfo(conf *cnf.Conf, version versionInfo) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		uniresp.WriteJSONResponse(
			ctx.Writer,
			map[string]any{
				"name":      "COLLASSOC",
				"version":   version,
				"publicUrl": conf.PublicURL,
				"measures":  []string{rdb.FuncFishers, rdb.FuncDeltaP, rdb.FuncContingency},
			},
		)
	}
}

func (api *apiServer) Start(ctx context.Context) {
	if !api.conf.Logging.Level.IsDebugMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(additionalLogEvents())
	engine.Use(logging.GinMiddleware())
	engine.Use(uniresp.AlwaysJSONContentType())
	engine.Use(CORSMiddleware(api.conf))
	engine.NoMethod(uniresp.NoMethodHandler)
	engine.NoRoute(uniresp.NotFoundHandler)

	protected := engine.Group("/").Use(AuthRequired(api.conf))

	assocActs := assocActions.NewActions(api.radapter)
	monitoringActs := monitoringActions.NewActions(api.radapter)

	engine.GET("/", mkServerInfo(api.conf, api.version))

	engine.GET("/openapi", openapi.MkHandleRequest(api.conf, api.version.Version))

	protected.POST(
		"/fishers", assocActs.Fishers)

	protected.POST(
		"/delta-p", assocActs.DeltaP)

	protected.POST(
		"/contingency", assocActs.Contingency)

	engine.GET(
		"/monitoring/jobs", monitoringActs.RecentJobs)

	engine.GET(
		"/monitoring/workers-load", monitoringActs.WorkersLoad)

	engine.GET(
		"/monitoring/workers-load/:workerId", monitoringActs.SingleWorkerLoad)

	log.Info().Msgf("starting to listen at %s:%d", api.conf.ListenAddress, api.conf.ListenPort)
	api.server = &http.Server{
		Handler:      engine,
		Addr:         fmt.Sprintf("%s:%d", api.conf.ListenAddress, api.conf.ListenPort),
		WriteTimeout: time.Duration(api.conf.ServerWriteTimeoutSecs) * time.Second,
		ReadTimeout:  time.Duration(api.conf.ServerReadTimeoutSecs) * time.Second,
	}
	go func() {
		if err := api.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()
}

func (api *apiServer) Stop(ctx context.Context) error {
	log.Warn().Msg("shutting down COLLASSOC HTTP API server")
	return api.server.Shutdown(ctx)
}

func runApiServer(conf *cnf.Conf, version versionInfo) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	radapter := rdb.NewAdapter(ctx, conf.Redis)
	defer radapter.Close()
	if err := radapter.TestConnection(redisConnectionTestTimeout); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
		return
	}
	runServices(ctx, newAPIServer(conf, radapter, version))
}

func newAPIServer(
	conf *cnf.Conf,
	radapter *rdb.Adapter,
	version versionInfo,
) *apiServer {
	return &apiServer{
		conf:     conf,
		radapter: radapter,
		version:  version,
	}
}
