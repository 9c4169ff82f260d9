package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-rsvp/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	var files []string
	var skipServer bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and input files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadedConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result := doctor.Run(doctor.Config{
				Settings:   cfg,
				ConfigFile: cfgFile,
				SkipServer: skipServer,
				TextFiles:  files,
			}, out)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&files, "file", nil, "Text file to check (repeatable)")
	cmd.Flags().BoolVar(&skipServer, "skip-server", false, "Skip server address checks")

	return cmd
}
