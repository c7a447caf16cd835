package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/harborlight/siteshell/internal/config"
	"github.com/harborlight/siteshell/internal/errors"
)

func checkCmd(configPath *string) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the config, document and modules",
		Long: `Validate the configuration, the host document's mount point and the
route table, then load every routed module.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, nil)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return runCheck(ctx, cfg, io.Discard)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Overall time limit")

	return cmd
}

func runCheck(ctx context.Context, cfg *config.Config, logs io.Writer) error {
	a, _, err := newApp(ctx, cfg, logs)
	if err != nil {
		return err
	}
	defer a.close(context.Background())
	success("Config valid")
	success("Mount point #%s found", cfg.Document.MountID)
	success("%d routes", a.shell.Table().Len())

	l := a.shell.Loader()
	failed := 0
	for _, id := range a.shell.Table().ModuleIDs() {
		if _, err := l.Resolve(id).Wait(ctx); err != nil {
			errorMsg("%s: %v", id, err)
			failed++
			continue
		}
		success("%s", id)
	}
	if failed > 0 {
		return errors.New("E161").WithSubject(fmt.Sprintf("%d of %d modules", failed, len(a.shell.Table().ModuleIDs())))
	}
	return nil
}
