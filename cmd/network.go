package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/metroplan/infra/network"
)

var (
	networkDB     string
	networkFormat string
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Network catalog commands",
}

var networkImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Copy a YAML or JSON network file into the SQLite catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runNetworkImport,
}

var networkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configured network catalog",
	RunE:  runNetworkShow,
}

func init() {
	networkImportCmd.Flags().StringVar(&networkDB, "db", "", "SQLite database (defaults to network.sqlite from the config)")
	networkShowCmd.Flags().StringVarP(&networkFormat, "format", "f", "yaml", "output format: yaml or json")
	networkCmd.AddCommand(networkImportCmd, networkShowCmd)
	rootCmd.AddCommand(networkCmd)
}

func runNetworkImport(cmd *cobra.Command, args []string) error {
	db := networkDB
	if db == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		db = cfg.Network.SQLite
	}
	if db == "" {
		return fmt.Errorf("no SQLite database: set --db or network.sqlite")
	}
	n, err := network.LoadFile(args[0])
	if err != nil {
		return err
	}
	st, err := network.NewSQLiteStore(db)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	if err := st.Save(cmd.Context(), n); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d lines and %d depots into %s\n", len(n.Lines), len(n.Depots), db)
	return err
}

func runNetworkShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, closeFn, err := network.Open(cfg.Network)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()
	n, err := src.Network(cmd.Context())
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return err
	}
	switch networkFormat {
	case "json":
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return err
	case "yaml":
		var node yaml.Node
		if err := yaml.Unmarshal(raw, &node); err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", networkFormat)
	}
}
