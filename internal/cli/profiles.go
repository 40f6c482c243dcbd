package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printer(cmd).PrintVersion(map[string]string{
				"version":    Version,
				"commit":     GitCommit,
				"go_version": runtime.Version(),
			})
		},
	}
}

func newListEnvsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list-envs",
		Short: "List the environments in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			return a.printer(cmd).PrintList("environments", cfg.EnvironmentNames())
		},
	}
}

func newListProfilesCommand(a *app) *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "list-profiles",
		Short: "List the profiles of an environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			names, err := cfg.ProfileNames(env)
			if err != nil {
				return err
			}
			return a.printer(cmd).PrintList("profiles", names)
		},
	}
	cmd.Flags().StringVarP(&env, "env", "e", "", "environment to inspect")
	_ = cmd.MarkFlagRequired("env")
	return cmd
}

func newShowProfileCommand(a *app) *cobra.Command {
	var env, profile string
	cmd := &cobra.Command{
		Use:   "show-profile",
		Short: "Show profile settings without key material",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			resolved, err := cfg.Resolve(env, profile)
			if err != nil {
				return err
			}
			return a.printer(cmd).PrintProfile(resolved.Safe())
		},
	}
	cmd.Flags().StringVarP(&env, "env", "e", "", "environment")
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "profile")
	_ = cmd.MarkFlagRequired("env")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}
