package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func contactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Manage the contact directory",
	}
	cmd.AddCommand(contactAddCmd(), contactListCmd(), contactRemoveCmd())
	return cmd
}

func contactAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <public-key-hex>",
		Short: "Add a contact",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := db.CreateContact(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func contactListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List contacts as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := db.ListContacts()
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func contactRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <contact-id>",
		Short: "Remove a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := db.DeleteContact(args[0]); err != nil {
				return err
			}
			fmt.Println("removed")
			return nil
		},
	}
}
