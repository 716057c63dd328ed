package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/vtk-it/declaro/internal/auth"
	"github.com/vtk-it/declaro/internal/bill"
	"github.com/vtk-it/declaro/internal/cache"
	"github.com/vtk-it/declaro/internal/clock"
	"github.com/vtk-it/declaro/internal/config"
	"github.com/vtk-it/declaro/internal/migration"
	"github.com/vtk-it/declaro/internal/observability"
	"github.com/vtk-it/declaro/internal/profile"
	"github.com/vtk-it/declaro/internal/ratelimit"
	"github.com/vtk-it/declaro/internal/report"
	"github.com/vtk-it/declaro/internal/scheduler"
	"github.com/vtk-it/declaro/internal/server"
	"github.com/vtk-it/declaro/internal/storage"
	"github.com/vtk-it/declaro/pkg/db"
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
		storage.Module,
		cache.Module,
		ratelimit.Module,

		// Functional domains
		auth.Module,
		profile.Module,
		bill.Module,
		report.Module,

		migration.Module,
		scheduler.Module,
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
