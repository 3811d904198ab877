package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout <branch>",
	Short: "Switch to a branch",
	Args:  cobra.ExactArgs(1),
	Run:   runCheckout,
}

func runCheckout(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	ok, err := c.Versions.Checkout(c.Session, args[0])
	if err != nil {
		exitError("%v", err)
	}
	if !ok {
		exitError("branch not found: %s", args[0])
	}
	c.saveSession()
	fmt.Printf("Switched to branch '%s'\n", args[0])
}
