package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/simonhull/heron/pkg/config"
	"github.com/simonhull/heron/pkg/output"
)

var (
	initForce   bool
	initProject string
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a default heron.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		path := filepath.Join(dir, config.DefaultFileName)

		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		defaults := config.DefaultConfig()
		id, err := projectID(initProject, dir)
		if err != nil {
			return err
		}
		defaults.Project.ID = id

		if err := config.Save(path, defaults); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		output.Success(fmt.Sprintf("Created %s", path))
		output.Info("Next steps:")
		output.Step("heron scan . --record")
		output.Step("heron trend")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing heron.yaml")
	initCmd.Flags().StringVar(&initProject, "project", "", "Project identifier (default: directory name)")

	RootCmd.AddCommand(initCmd)
}
