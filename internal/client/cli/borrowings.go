package cli

import (
	"github.com/spf13/cobra"
)

func (r *root) borrowingsCmd() *cobra.Command {
	var returnID int64

	cmd := &cobra.Command{
		Use:   "borrowings",
		Short: "List your borrowings, or return one with --return",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("return") {
				return r.returnBorrowing(cmd, returnID)
			}
			if err := r.requireAuth("see your borrowings"); err != nil {
				return err
			}
			items, err := r.app.Client.MyBorrowings(cmd.Context())
			if err != nil {
				return r.apiFailure(err, "Failed to load borrowings")
			}
			return r.out.borrowings(items)
		},
	}
	cmd.Flags().Int64Var(&returnID, "return", 0, "Return the borrowing with this ID")
	return cmd
}
