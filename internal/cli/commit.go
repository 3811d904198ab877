package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomsboren/aivc/internal/models"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Create a version on the current branch",
	Long: `Commit a content change to the version graph. The version number is
allocated per branch, starting at 1.

Example:
  aivc commit -m "Update intro" --content-id c1 --content-type article --change modified`,
	Run: runCommit,
}

var (
	commitMessage    string
	commitAuthor     string
	commitContentID  string
	commitContent    string
	commitTitle      string
	commitChangeType string
	commitFiles      string
)

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "Commit message")
	commitCmd.Flags().StringVar(&commitAuthor, "author", "", "Commit author (defaults to config)")
	commitCmd.Flags().StringVar(&commitContentID, "content-id", "", "Content identifier")
	commitCmd.Flags().StringVar(&commitContent, "content-type", "article", "Content type")
	commitCmd.Flags().StringVar(&commitTitle, "title", "", "Content title")
	commitCmd.Flags().StringVar(&commitChangeType, "change", "modified", "Change type (added, modified, deleted)")
	commitCmd.Flags().StringVar(&commitFiles, "files", "", "Comma-separated list of changed files")
	commitCmd.MarkFlagRequired("message")
	commitCmd.MarkFlagRequired("content-id")
}

func runCommit(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	author := commitAuthor
	if author == "" {
		author = c.Config.DefaultAuthor
	}

	var files []string
	if commitFiles != "" {
		files = strings.Split(commitFiles, ",")
	}

	changes := []models.VersionChange{{
		ContentID:    commitContentID,
		ContentType:  commitContent,
		ContentTitle: commitTitle,
		ChangeType:   models.ChangeType(commitChangeType),
		FilesChanged: files,
	}}

	commit, err := c.Versions.CreateVersion(c.Session, changes, author, commitMessage)
	if err != nil {
		exitError("%v", err)
	}

	fmt.Printf("[%s v%d %s] %s\n", commit.Branch, commit.Version, commit.ShortHash(), commit.Message)
}
