package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-dashgrid/components/dashboard"
	"github.com/goliatone/go-dashgrid/components/dashboard/commands"
	"github.com/goliatone/go-dashgrid/components/dashboard/gorouter"
	"github.com/goliatone/go-dashgrid/components/dashboard/httpapi"
	"github.com/goliatone/go-dashgrid/components/dashboard/queries"
)

type serveCmd struct {
	Addr     string `default:":9876" help:"Listen address."`
	Manifest string `type:"existingfile" help:"Provisioning manifest loaded before serving."`
	BasePath string `name:"base-path" default:"/api" help:"Route prefix for the dashboard API."`
}

func (cmd *serveCmd) Run(rt *runtime) error {
	server := router.NewFiberAdapter()
	cfg, err := cmd.routes(rt)
	if err != nil {
		return err
	}
	cfg.Router = server.Router()
	if err := gorouter.Register(cfg); err != nil {
		return fmt.Errorf("dashctl: register routes: %w", err)
	}
	rt.okf("serving %s/dashboards on %s", cmd.BasePath, cmd.Addr)
	return server.Serve(cmd.Addr)
}

// routes builds the service behind the server and provisions the manifest,
// if any. The caller fills in the router.
func (cmd *serveCmd) routes(rt *runtime) (gorouter.Config[*fiber.App], error) {
	hook := dashboard.NewBroadcastHook()
	service := dashboard.NewService(dashboard.Options{
		Migrator:   rt.migrator(),
		ChangeHook: hook,
		Logger:     rt.logger,
	})
	if cmd.Manifest != "" {
		manifest, err := dashboard.ReadManifest(cmd.Manifest)
		if err != nil {
			return gorouter.Config[*fiber.App]{}, err
		}
		uids, err := service.Provision(rt.ctx, os.DirFS(filepath.Dir(cmd.Manifest)), manifest)
		if err != nil {
			return gorouter.Config[*fiber.App]{}, err
		}
		rt.logger.Info("dashboards provisioned", "count", len(uids))
	}
	return gorouter.Config[*fiber.App]{
		Handlers: &httpapi.Handlers{
			Load:      commands.NewLoadDocumentCommand(service, nil),
			Select:    commands.NewSelectVariableCommand(service, nil),
			Repeats:   commands.NewProcessRepeatsCommand(service, nil),
			Toggle:    commands.NewToggleRowCommand(service, nil),
			Persist:   commands.NewPersistDocumentCommand(service, nil),
			Panels:    queries.NewPanelsQuery(service),
			Persisted: queries.NewPersistedDocumentQuery(service),
		},
		Broadcast: hook,
		BasePath:  cmd.BasePath,
	}, nil
}
