package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meeseeks/nuntius/pkg/exchange"
	"github.com/meeseeks/nuntius/pkg/keyValStore"
)

func roomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Manage exchange identities",
	}
	cmd.AddCommand(roomCreateCmd(), roomListCmd(), roomFingerprintCmd(), roomMnemonicCmd(), roomRecoverCmd())
	return cmd
}

func roomCreateCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a room with a fresh keypair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := db.CreateRoom(args[0], description)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "room description")
	return cmd
}

func roomListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rooms as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := db.ListRooms()
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func loadRoom(id string) (*exchange.Room, error) {
	room, err := keyValStore.LoadEntity[exchange.Room](db.Store(), id)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("room %s not found", id)
	}
	return room, nil
}

func roomFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <room-id>",
		Short: "Print the room's public key fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := loadRoom(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Fingerprint: %s\n", room.Fingerprint())
			fmt.Printf("Public key:  %s\n", room.PublicKey())
			return nil
		},
	}
}

func roomMnemonicCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mnemonic <room-id>",
		Short: "Print the recovery phrase of a room's secret key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := loadRoom(args[0])
			if err != nil {
				return err
			}
			words, err := room.Mnemonic()
			if err != nil {
				return err
			}
			fmt.Println(words)
			return nil
		},
	}
}

func roomRecoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover <name> <word>...",
		Short: "Recreate a room from its recovery phrase",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := exchange.FromMnemonic(args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if _, err := keyValStore.SaveEntity(db.Store(), room); err != nil {
				return err
			}
			out, err := room.ToJSON()
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}
