package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civicdata/inspection-cli/internal/model"
	"github.com/civicdata/inspection-cli/internal/publish"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Commit and push the published dataset if it changed",
	Long: `Commit the published dataset file to the local git repository and push
it to the remote. A no-op when the file has no uncommitted changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := cfg.Paths.DatasetFile

		git := publish.NewGit(".")
		changed, err := git.HasChanges(ctx, path)
		if err != nil {
			return err
		}
		if !changed {
			fmt.Printf("%s unchanged; nothing to publish.\n", path)
			return nil
		}

		message := fmt.Sprintf("Update inspection dataset (%s)", model.Today())
		if err := git.CommitAndPush(ctx, path, message); err != nil {
			return err
		}
		fmt.Printf("Published %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
}
