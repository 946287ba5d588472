package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/SkyMack/qlthumb/internal/telemetry/metrics"
)

const (
	flagNameFolder  = "folder"
	flagNameSize    = "size"
	flagNameTimeout = "timeout"
	flagNameTool    = "tool"

	defaultTimeout = time.Minute
)

func addCreateFlags(flags *pflag.FlagSet) {
	createFlags := &pflag.FlagSet{}

	createFlags.String(flagNameFolder, "", "Directory the thumbnails are written to (default: the directory of each source file)")
	createFlags.Int(flagNameSize, DefaultSize, "Maximum width/height of the generated thumbnails in pixels")
	createFlags.Duration(flagNameTimeout, defaultTimeout, "Maximum time to wait for the thumbnail tool per file (0 waits forever)")
	createFlags.String(flagNameTool, DefaultTool, "Name or path of the thumbnail tool executable")

	flags.AddFlagSet(createFlags)
}

type createConfig struct {
	folder  string
	size    int
	timeout time.Duration
	tool    string
}

func (c *createConfig) setFromFlags(flags *pflag.FlagSet) error {
	folder, err := flags.GetString(flagNameFolder)
	if err != nil {
		return err
	}
	size, err := flags.GetInt(flagNameSize)
	if err != nil {
		return err
	}
	timeout, err := flags.GetDuration(flagNameTimeout)
	if err != nil {
		return err
	}
	tool, err := flags.GetString(flagNameTool)
	if err != nil {
		return err
	}

	c.folder = folder
	c.size = size
	c.timeout = timeout
	c.tool = tool

	return nil
}

func (c *createConfig) validate() error {
	var result error

	if c.size <= 0 {
		result = multierror.Append(result, fmt.Errorf("invalid %s: must be a positive number of pixels", flagNameSize))
	}
	if c.timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("invalid %s: must not be negative", flagNameTimeout))
	}
	if c.tool == "" {
		result = multierror.Append(result, fmt.Errorf("no %s specified", flagNameTool))
	}

	return result
}

// AddCmdCreate adds the create subcommand to a cobra.Command. opts are applied to the Generator
// after the flag-derived settings.
func AddCmdCreate(parentCmd *cobra.Command, opts ...Option) {
	createCmd := &cobra.Command{
		Use:   "create FILE...",
		Short: "generate a PNG thumbnail next to (or into --folder for) each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := &createConfig{}
			if err := conf.setFromFlags(cmd.Flags()); err != nil {
				return err
			}
			if err := conf.validate(); err != nil {
				return err
			}

			recorder, err := metrics.FromEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := recorder.Shutdown(context.Background()); err != nil {
					log.WithField("error", err).Warn("unable to flush metrics")
				}
			}()

			genOpts := append([]Option{
				WithTool(conf.tool),
				WithTimeout(conf.timeout),
				WithMetrics(recorder),
			}, opts...)
			gen := New(genOpts...)

			var result error
			for _, src := range args {
				thumbPath, err := gen.Create(cmd.Context(), Request{
					Source: src,
					Folder: conf.folder,
					Size:   conf.size,
				})
				if err != nil {
					result = multierror.Append(result, fmt.Errorf("%s: %w", src, err))
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), thumbPath)
			}
			if result != nil {
				log.WithFields(log.Fields{
					"failed.count": len(result.(*multierror.Error).Errors),
					"total.count":  len(args),
				}).Warn("some thumbnails could not be created")
			}

			return result
		},
	}
	addCreateFlags(createCmd.Flags())

	parentCmd.AddCommand(createCmd)
}
