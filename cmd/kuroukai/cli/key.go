package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Kuroukai/Kuroukai-api/internal/store"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage access keys",
		Long:  "Create, list, validate, revoke, and delete access keys in the local store.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyValidateCmd())
	cmd.AddCommand(newKeyRevokeCmd())
	cmd.AddCommand(newKeyDeleteCmd())

	return cmd
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var (
		owner    string
		ttlHours int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new access key",
		Example: `  kuroukai key create --owner ci-bot --ttl 24
  kuroukai key create --owner alice --ttl 168`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(owner, ttlHours)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner id the key belongs to (required)")
	cmd.Flags().IntVar(&ttlHours, "ttl", 24, "Key lifetime in hours")
	cmd.MarkFlagRequired("owner")

	return cmd
}

func runKeyCreate(owner string, ttlHours int) error {
	st, err := openKeyStore()
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer st.Close()

	key, err := newKeyService(st).Create(context.Background(), owner, ttlHours)
	if err != nil {
		return err
	}

	fmt.Println("Access key created:")
	fmt.Println()
	fmt.Printf("  ID:      %s\n", key.ID)
	fmt.Printf("  Owner:   %s\n", key.OwnerID)
	fmt.Printf("  Expires: %s\n", key.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var (
		owner      string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an owner's access keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(owner, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner id to list keys for (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.MarkFlagRequired("owner")

	return cmd
}

func runKeyList(owner string, jsonOutput bool) error {
	st, err := openKeyStore()
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer st.Close()

	list, err := newKeyService(st).ListByOwner(context.Background(), owner)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Printf("No keys for owner %q.\n", owner)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tCREATED\tEXPIRES")
	for _, key := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			key.ID,
			key.Status,
			key.CreatedAt.Format("2006-01-02 15:04"),
			key.ExpiresAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

// ---------- key validate ----------

func newKeyValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <key-id>",
		Short: "Check whether a key is still valid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyValidate(args[0])
		},
	}
	return cmd
}

func runKeyValidate(id string) error {
	st, err := openKeyStore()
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer st.Close()

	validity, err := newKeyService(st).Validate(context.Background(), id)
	if err != nil {
		return err
	}

	fmt.Println(validity)
	return nil
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Revoke a key (terminal; it never becomes active again)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyRevoke(args[0])
		},
	}
	return cmd
}

func runKeyRevoke(id string) error {
	st, err := openKeyStore()
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer st.Close()

	if err := newKeyService(st).Revoke(context.Background(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("key %q not found", id)
		}
		return err
	}

	fmt.Printf("Key %s revoked.\n", id)
	return nil
}

// ---------- key delete ----------

func newKeyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <key-id>",
		Short: "Delete a key permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyDelete(args[0])
		},
	}
	return cmd
}

func runKeyDelete(id string) error {
	st, err := openKeyStore()
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer st.Close()

	if err := newKeyService(st).Delete(context.Background(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("key %q not found", id)
		}
		return err
	}

	fmt.Printf("Key %s deleted.\n", id)
	return nil
}
