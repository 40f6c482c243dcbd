package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jrsaavedra1022/jwtgen"
)

func newDevKeysCommand(a *app) *cobra.Command {
	var (
		commonName string
		validity   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "dev-keys",
		Short: "Generate a throwaway key pair for a local profile",
		Long: `Generate an RSA key and a self-signed certificate as single-line PEM,
ready to paste under a profile's keys section. Never use them outside development.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pair, err := jwtgen.GenerateDevKeyPair(commonName, validity)
			if err != nil {
				return err
			}
			a.logger.Debug("generated dev key pair", "cn", commonName, "validity", validity)

			p := a.printer(cmd)
			if p.format == OutputFormatJSON {
				return p.printJSON(pair)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "keys:\n  public_cer: %q\n  private_pem: %q\n",
				pair.PublicCertPEM, pair.PrivateKeyPEM)
			return err
		},
	}
	cmd.Flags().StringVar(&commonName, "cn", "jwtgen.dev", "certificate common name")
	cmd.Flags().DurationVar(&validity, "validity", 365*24*time.Hour, "certificate validity")
	return cmd
}
