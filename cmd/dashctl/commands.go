package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/ettle/strcase"

	"github.com/goliatone/go-dashgrid/components/dashboard"
)

type migrateCmd struct {
	Files []string `arg:"" type:"existingfile" help:"Dashboard JSON files to upgrade."`
	Out   string   `type:"path" help:"Output directory (defaults to output_dir from the config)."`
}

func (cmd *migrateCmd) Run(rt *runtime) error {
	migrator := rt.migrator()
	var errs []error
	for _, file := range cmd.Files {
		doc, err := loadFile(file, migrator)
		if err != nil {
			rt.failf("%s: %v", file, err)
			errs = append(errs, err)
			continue
		}
		name := doc.Slug()
		if name == "" {
			name = strcase.ToKebab(strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)))
		}
		target, err := rt.writeJSON(rt.outputDir(cmd.Out), name, doc.PersistedForm())
		if err != nil {
			rt.failf("%s: %v", file, err)
			errs = append(errs, err)
			continue
		}
		report := doc.Migration()
		rt.logger.Debug("dashboard migrated", "file", file, "steps", report.Applied)
		rt.okf("%s: schema %d -> %d (%d steps) written to %s", file, report.From, report.To, len(report.Applied), target)
	}
	return errors.Join(errs...)
}

type repeatCmd struct {
	File string   `arg:"" type:"existingfile" help:"Dashboard JSON file."`
	Var  []string `name:"var" sep:"none" placeholder:"NAME=A,B" help:"Variable selection, repeatable (e.g. --var apps=api,web)."`
	JSON bool     `name:"json" help:"Print the live panel list as JSON instead of a table."`
}

func (cmd *repeatCmd) Run(rt *runtime) error {
	selections, err := parseSelections(cmd.Var)
	if err != nil {
		return err
	}
	doc, err := loadFile(cmd.File, rt.migrator())
	if err != nil {
		return err
	}
	result := doc.ProcessRepeats()
	for _, sel := range selections {
		if result, err = doc.SelectVariable(sel.name, sel.values...); err != nil {
			return fmt.Errorf("dashctl: %w", err)
		}
	}
	if cmd.JSON {
		data, err := rt.encode(dashboard.PanelsView{UID: doc.UID, Iteration: doc.Iteration(), Panels: doc.Panels})
		if err != nil {
			return err
		}
		_, err = rt.out.Write(data)
		return err
	}

	tw := tabwriter.NewWriter(rt.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tTITLE\tX\tY\tW\tH\tSOURCE")
	for _, p := range doc.Panels {
		source := "-"
		if p.IsClone() {
			source = fmt.Sprintf("%d", p.RepeatPanelID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			p.ID, p.Type, p.Title, p.GridPos.X, p.GridPos.Y, p.GridPos.W, p.GridPos.H, source)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	rt.okf("%d panels: %d clones created, %d reused, %d removed", len(doc.Panels), result.Created, result.Reused, result.Removed)
	return nil
}

type selection struct {
	name   string
	values []string
}

// parseSelections reads NAME=A,B pairs. An empty value list clears the
// selection.
func parseSelections(raw []string) ([]selection, error) {
	out := make([]selection, 0, len(raw))
	for _, item := range raw {
		name, values, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("dashctl: --var %q must look like name=a,b", item)
		}
		sel := selection{name: name}
		for _, value := range strings.Split(values, ",") {
			if value = strings.TrimSpace(value); value != "" {
				sel.values = append(sel.values, value)
			}
		}
		out = append(out, sel)
	}
	return out, nil
}

type validateCmd struct {
	Files  []string `arg:"" type:"existingfile" help:"Dashboard JSON files to check."`
	Schema string   `type:"existingfile" help:"Alternative JSON schema for the persisted form."`
}

func (cmd *validateCmd) Run(rt *runtime) error {
	validator := dashboard.NewJSONSchemaValidator()
	if cmd.Schema != "" {
		data, err := os.ReadFile(cmd.Schema)
		if err != nil {
			return fmt.Errorf("dashctl: read schema: %w", err)
		}
		validator = dashboard.NewJSONSchemaValidatorFrom(data)
	}
	migrator := rt.migrator()
	var errs []error
	for _, file := range cmd.Files {
		doc, err := loadFile(file, migrator)
		if err == nil {
			err = validator.Validate(doc.PersistedForm())
		}
		if err != nil {
			rt.failf("%s: %v", file, err)
			errs = append(errs, fmt.Errorf("%s: %w", file, err))
			continue
		}
		rt.okf("%s: valid (%d panels)", file, len(doc.Panels))
	}
	if len(errs) > 0 {
		return fmt.Errorf("dashctl: %d of %d dashboards invalid: %w", len(errs), len(cmd.Files), errors.Join(errs...))
	}
	return nil
}

type provisionCmd struct {
	Manifest string `arg:"" type:"existingfile" help:"Provisioning manifest (YAML)."`
	Out      string `type:"path" help:"Snapshot directory (defaults to output_dir from the config)."`
}

func (cmd *provisionCmd) Run(rt *runtime) error {
	manifest, err := dashboard.ReadManifest(cmd.Manifest)
	if err != nil {
		return err
	}
	store := dashboard.NewInMemoryDocumentStore()
	service := dashboard.NewService(dashboard.Options{
		Store:    store,
		Migrator: rt.migrator(),
		Logger:   rt.logger,
	})
	uids, provisionErr := service.Provision(rt.ctx, os.DirFS(filepath.Dir(cmd.Manifest)), manifest)

	dir := rt.outputDir(cmd.Out)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("dashctl: mkdir %s: %w", dir, err)
	}
	for _, uid := range uids {
		snapshot, err := store.Snapshot(rt.ctx, uid)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, uid+".json")
		if err := os.WriteFile(target, snapshot, 0o644); err != nil { //nolint:gosec
			return fmt.Errorf("dashctl: write %s: %w", target, err)
		}
		rt.okf("%s provisioned to %s", uid, target)
	}
	if provisionErr != nil {
		rt.failf("%d of %d dashboards failed", len(manifest.Dashboards)-len(uids), len(manifest.Dashboards))
	}
	return provisionErr
}
