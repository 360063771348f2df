package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"montecarlo-mcp/internal/configstore"
	"montecarlo-mcp/internal/model"

	"github.com/spf13/cobra"
)

var (
	showFormat string
	exportOut  string
	importID   string
)

var configsCmd = &cobra.Command{
	Use:   "configs",
	Short: "Manage stored simulation configurations",
}

// withStore opens the configured store for the duration of fn.
func withStore(fn func(store configstore.Store) error) error {
	store, err := configstore.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

var configsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored configurations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store configstore.Store) error {
			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tVERSION\tUPDATED")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.ID, s.Name, s.Version, s.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		})
	},
}

var configsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store configstore.Store) error {
			rec, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return model.Encode(cmd.OutOrStdout(), rec, model.Format(showFormat))
		})
	},
}

var configsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store configstore.Store) error {
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		})
	},
}

var configsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store the configuration in a JSON or YAML file",
	Long:  "Store the configuration in a JSON or YAML file. With --id the stored configuration is replaced and its version bumped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := readRecord(args[0])
		if err != nil {
			return err
		}
		return withStore(func(store configstore.Store) error {
			var saved *model.Record
			if importID != "" {
				saved, err = store.Update(cmd.Context(), importID, rec.Config)
			} else {
				saved, err = store.Save(cmd.Context(), rec.Name, rec.Description, rec.Config)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (version %d)\n", saved.ID, saved.Version)
			return nil
		})
	},
}

var configsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a stored configuration to a file; the extension picks JSON or YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store configstore.Store) error {
			rec, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if exportOut == "" {
				return model.Encode(cmd.OutOrStdout(), rec, model.FormatJSON)
			}
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			if err := model.Encode(f, rec, model.FormatFromPath(exportOut)); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
	},
}

func init() {
	configsShowCmd.Flags().StringVarP(&showFormat, "format", "f", string(model.FormatYAML), "output format: json or yaml")
	configsExportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "destination file (default stdout as JSON)")
	configsImportCmd.Flags().StringVar(&importID, "id", "", "replace the configuration with this id instead of adding one")

	configsCmd.AddCommand(configsListCmd, configsShowCmd, configsDeleteCmd, configsImportCmd, configsExportCmd)
	rootCmd.AddCommand(configsCmd)
}
