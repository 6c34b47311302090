package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/loyara/internal/clock"
	"github.com/smallbiznis/loyara/internal/config"
	"github.com/smallbiznis/loyara/internal/dedup"
	"github.com/smallbiznis/loyara/internal/directory"
	"github.com/smallbiznis/loyara/internal/logger"
	obsmetrics "github.com/smallbiznis/loyara/internal/observability/metrics"
	"github.com/smallbiznis/loyara/internal/qualification"
	"github.com/smallbiznis/loyara/internal/recency"
	"github.com/smallbiznis/loyara/internal/server"
	"github.com/smallbiznis/loyara/internal/sweeper"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		obsmetrics.Module,
		fx.Provide(RegisterSnowflake),

		directory.Module,
		dedup.Module,
		recency.Module,
		qualification.Module,
		sweeper.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
