package serve

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scoutdesk/scoutcrm/internal/conf"
	"github.com/scoutdesk/scoutcrm/internal/server"
)

// Command creates the command that runs the HTTP service.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the logo resolution HTTP service",
		Long:  "Start the HTTP server exposing logo resolution, the image proxy and the placeholder renderer.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run(settings)
		},
	}

	// Set up flags specific to the 'serve' command
	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "HTTP listen port")
	cmd.Flags().DurationVar(&settings.Resolver.CacheTTL, "cachettl", viper.GetDuration("resolver.cachettl"), "Freshness window for cached resolutions")
	cmd.Flags().IntVar(&settings.Resolver.ThumbWidth, "thumbwidth", viper.GetInt("resolver.thumbwidth"), "Width hint for thumbnail candidates")
	cmd.Flags().Float64Var(&settings.Resolver.APIRateLimit, "apiratelimit", viper.GetFloat64("resolver.apiratelimit"), "Metadata API requests per second")
	cmd.Flags().StringVar(&settings.Resolver.UserAgentContact, "contact", viper.GetString("resolver.useragentcontact"), "Contact reference for the outbound User-Agent")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
