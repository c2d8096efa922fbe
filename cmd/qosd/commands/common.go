// Package commands implements qosd's cobra subcommands: enable, disable,
// status, encode, and run, grounded on the am/pulse command pair's shape
// (--filesystem/--config flags registered on each command, one-shot RunE
// handlers).
package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/DDNStorage/qosd/config"
	"github.com/DDNStorage/qosd/controller"
	"github.com/DDNStorage/qosd/errors"
	"github.com/DDNStorage/qosd/exec"
	"github.com/DDNStorage/qosd/metrics"
)

func addControllerFlags(cmd *cobra.Command) {
	cmd.Flags().String("filesystem", "", "filesystem name this controller instance manages (required)")
	cmd.Flags().String("config", "", "path to a qosd.toml file, bypassing the search-path/env cascade")
	cmd.Flags().StringSlice("data-server", nil, "data (OSS) server hostname, repeatable")
	cmd.Flags().StringSlice("metadata-server", nil, "metadata (MDS) server hostname, repeatable")
	cmd.Flags().String("ssh-user", "", "remote user for the SSH executor (default: current user)")
	cmd.Flags().Float64("rps-limit", 5.0, "max executor RPCs per second per server")
	_ = cmd.MarkFlagRequired("filesystem")
}

// loadConfig resolves the admin/config surface from --config if given,
// else the normal search-path/env cascade (spec §6).
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	filesystem, _ := cmd.Flags().GetString("filesystem")
	configPath, _ := cmd.Flags().GetString("config")

	if configPath != "" {
		return config.LoadFromFile(filesystem, configPath)
	}
	return config.Load(filesystem)
}

// buildController assembles a Controller from CLI flags and the loaded
// config: an SSH-backed Facade doubling as the JobIDConfigurer, a metrics
// Client sized to the configured window, and the server fleet named on
// the command line (filesystem model discovery is out of scope, spec §1).
func buildController(cmd *cobra.Command) (*controller.Controller, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load config")
	}

	dataServers, _ := cmd.Flags().GetStringSlice("data-server")
	metadataServers, _ := cmd.Flags().GetStringSlice("metadata-server")
	sshUser, _ := cmd.Flags().GetString("ssh-user")
	rpsLimit, _ := cmd.Flags().GetFloat64("rps-limit")

	facade := exec.NewSSHFacade(sshUser, rpsLimit)

	windowLength := time.Duration(cfg.Options.IntervalSeconds) * time.Second
	timeout := windowLength - time.Second
	if timeout <= 0 {
		timeout = windowLength
	}
	client := metrics.New(cfg.Options.MetricsServer, timeout)

	c, err := controller.New(*cfg, facade, client, facade, controller.Servers{
		Data:     dataServers,
		Metadata: metadataServers,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, cfg, nil
}
