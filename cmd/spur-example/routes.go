package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/gomarten/spur/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route table",
	Long: `Print every route with the number of actions, validator rules and
defers compiled into it.`,
	RunE: runRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

func runRoutes(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}
	app := newApp(cfg, zerolog.Nop(), newNoteStore())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tACTIONS\tRULES\tDEFERS")
	for _, r := range app.Routes() {
		actions, defers := 0, 0
		for _, seg := range r.Actions() {
			actions += len(seg)
		}
		for _, seg := range r.Defers() {
			defers += len(seg)
		}
		method := r.Method()
		if method == "" {
			method = "ANY"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", method, r.Path(), actions, len(r.Validator()), defers)
	}
	return w.Flush()
}
