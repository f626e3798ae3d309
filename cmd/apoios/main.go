package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/municipia/apoios/internal/application"
	"github.com/municipia/apoios/internal/auth"
	"github.com/municipia/apoios/internal/authorization"
	"github.com/municipia/apoios/internal/clock"
	"github.com/municipia/apoios/internal/config"
	"github.com/municipia/apoios/internal/document"
	"github.com/municipia/apoios/internal/entity"
	"github.com/municipia/apoios/internal/history"
	"github.com/municipia/apoios/internal/migration"
	"github.com/municipia/apoios/internal/observability"
	"github.com/municipia/apoios/internal/providers"
	"github.com/municipia/apoios/internal/reference"
	"github.com/municipia/apoios/internal/server"
	"github.com/municipia/apoios/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain services
		authorization.Module,
		auth.Module,
		providers.Module,
		entity.Module,
		reference.Module,
		history.Module,
		application.Module,
		document.Module,

		// HTTP surface
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
