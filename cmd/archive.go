package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/nibzard/tasklist/internal/archive"
	"github.com/nibzard/tasklist/internal/config"
)

// exportCommand writes every task as a JSON archive.
func exportCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 1 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}

	ctrl, s, err := newController(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	tasks, err := s.List(ctx)
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}
	f := archive.FromTasks(tasks, ctrl.Now())

	path := fs.Arg(0)
	if path == "" || path == "-" {
		data, err := f.Marshal()
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}
	if err := f.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Exported %d tasks to %s\n", len(f.Tasks), path)
	return nil
}

// importCommand adds the tasks of a JSON archive to the store.
func importCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dryRun := fs.Bool("dry-run", false, "Validate the file without importing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) != 1 {
		return fmt.Errorf("usage: tasklist import [-dry-run] <file>")
	}
	path := fs.Arg(0)

	f, err := archive.Load(path)
	if err != nil {
		var verr *archive.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(stderr, "%s is not a valid task archive:\n", path)
		}
		return err
	}
	if *dryRun {
		fmt.Fprintf(stdout, "%s: valid (%d tasks)\n", path, len(f.Tasks))
		return nil
	}

	_, s, err := newController(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := archive.Import(ctx, s, f)
	if err != nil {
		return fmt.Errorf("imported %d of %d tasks: %w", n, len(f.Tasks), err)
	}
	fmt.Fprintf(stdout, "Imported %d tasks from %s\n", n, path)
	return nil
}
