package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/internal/kernel"
	"github.com/shashiranjanraj/storefront/internal/server"
)

// storefront serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run", "start"},
	Short:   "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			config.Set("APP_PORT", port)
		}
		return server.Start()
	},
}

// storefront route:list
var routeListCmd = &cobra.Command{
	Use:     "route:list",
	Aliases: []string{"routes"},
	Short:   "List all named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printRoutes(os.Stdout)
	},
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "port to listen on (overrides APP_PORT)")
}

// printRoutes builds the kernel over in-memory stores; listing routes
// needs no database.
func printRoutes(out io.Writer) error {
	svc := services.NewCartService(repositories.NewMemoryCartRepository(), repositories.NewMemoryProductRepository())
	infos := kernel.NewHTTPKernel(controllers.NewCartController(svc)).Router().Routes()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No named routes registered.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}
