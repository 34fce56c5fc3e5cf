package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

// send <room-id> <recipient> <message>: encrypt and print the wire envelope.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <room-id> <recipient-public-key-hex> <message>",
		Short: "Encrypt a message and print the envelope as hex",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, wire, err := db.SendMessage(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Println(hex.EncodeToString(wire))
			return nil
		},
	}
}

// recv <room-id> <envelope-hex>: decrypt an envelope addressed to the room.
func recvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recv <room-id> <envelope-hex>",
		Short: "Decrypt a hex envelope with a room's key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wire, err := hex.DecodeString(args[1])
			if err != nil {
				return fmt.Errorf("envelope is not hex: %w", err)
			}
			text, err := db.ReceiveMessage(args[0], wire)
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
}
