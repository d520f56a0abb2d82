package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/SEMOSS/procode-training/internal/pixel"
)

var pixelCmd = &cobra.Command{
	Use:   "pixel <expression>",
	Short: "Run one pixel and print its output as JSON",
	Example: `  procode pixel 'GetAnimals()'
  procode pixel 'HelloUser(name="Ada")'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		out, err := client.Run(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, out, "", "  "); err != nil {
			buf.Reset()
			buf.Write(out)
		}
		fmt.Fprintln(cmd.OutOrStdout(), buf.String())
		return nil
	},
}

var uploadPath string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload files to the insight and print where they were stored",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := make([]pixel.File, 0, len(args))
		for _, a := range args {
			f, err := pixel.FileFromPath(a)
			if err != nil {
				return err
			}
			files = append(files, f)
		}
		client, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		uploaded, err := client.Upload(cmd.Context(), uploadPath, files...)
		if err != nil {
			return err
		}
		for _, u := range uploaded {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", u.Name, u.Location)
		}
		return nil
	},
}

var (
	engineTypes []string
	engineTag   string
)

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List the engines you can access",
	RunE: func(cmd *cobra.Command, args []string) error {
		query := pixel.MyEngines{}
		for _, t := range engineTypes {
			query.Types = append(query.Types, pixel.EngineType(strings.ToUpper(strings.TrimSpace(t))))
		}
		if engineTag != "" {
			query.MetaFilters = map[string]string{"tag": engineTag}
		}

		client, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		engines, err := pixel.RunAs[[]pixel.Engine](cmd.Context(), client, query)
		if err != nil {
			return err
		}
		if len(engines) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no engines")
			return nil
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("ID", "NAME", "TYPE")
		for _, e := range engines {
			t.Row(e.ID, e.Name, e.Type)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.String())
		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadPath, "path", "", "directory inside the insight space")
	enginesCmd.Flags().StringSliceVar(&engineTypes, "type", nil, "engine types to list (MODEL, DATABASE, VECTOR, ...)")
	enginesCmd.Flags().StringVar(&engineTag, "tag", "", "only engines carrying this tag")
}
