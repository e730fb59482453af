package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/zx06/xacct/internal/account"
	"github.com/zx06/xacct/internal/errors"
	"github.com/zx06/xacct/internal/output"
)

const storeTimeout = 30 * time.Second

// AccountFlags holds the flags for the account commands
type AccountFlags struct {
	StoreFlags
	Reveal bool
}

// AccountUpdateFlags holds the field flags for account update
type AccountUpdateFlags struct {
	AccountFlags
	Type     string
	Login    string
	Password string
	Labels   string
}

// NewAccountCommand creates the account command group
func NewAccountCommand(w *output.Writer) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage stored accounts",
	}

	accountCmd.AddCommand(newAccountListCommand(w))
	accountCmd.AddCommand(newAccountShowCommand(w))
	accountCmd.AddCommand(newAccountCreateCommand(w))
	accountCmd.AddCommand(newAccountUpdateCommand(w))
	accountCmd.AddCommand(newAccountDeleteCommand(w))

	return accountCmd
}

func addAccountFlags(cmd *cobra.Command, flags *AccountFlags) {
	addStoreFlags(cmd, &flags.StoreFlags)
	cmd.Flags().BoolVar(&flags.Reveal, "reveal", false, "Show passwords instead of ***")
}

func newAccountListCommand(w *output.Writer) *cobra.Command {
	flags := &AccountFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored accounts in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountList(flags, w)
		},
	}
	addAccountFlags(cmd, flags)
	return cmd
}

func newAccountShowCommand(w *output.Writer) *cobra.Command {
	flags := &AccountFlags{}
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountShow(args[0], flags, w)
		},
	}
	addAccountFlags(cmd, flags)
	return cmd
}

func newAccountCreateCommand(w *output.Writer) *cobra.Command {
	flags := &AccountFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Append a new empty LOCAL account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountCreate(flags, w)
		},
	}
	addAccountFlags(cmd, flags)
	return cmd
}

func newAccountUpdateCommand(w *output.Writer) *cobra.Command {
	flags := &AccountUpdateFlags{}
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update fields of an account; LDAP accounts never keep a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes := accountChanges{}
			if cmd.Flags().Changed("type") {
				changes.Type = &flags.Type
			}
			if cmd.Flags().Changed("login") {
				changes.Login = &flags.Login
			}
			if cmd.Flags().Changed("password") {
				changes.Password = &flags.Password
			}
			if cmd.Flags().Changed("labels") {
				changes.Labels = &flags.Labels
			}
			return runAccountUpdate(args[0], changes, &flags.AccountFlags, w)
		},
	}
	addAccountFlags(cmd, &flags.AccountFlags)
	cmd.Flags().StringVar(&flags.Type, "type", "", "Account type: LDAP|LOCAL")
	cmd.Flags().StringVar(&flags.Login, "login", "", "Login name")
	cmd.Flags().StringVar(&flags.Password, "password", "", "Password (ignored for LDAP)")
	cmd.Flags().StringVar(&flags.Labels, "labels", "", "Labels separated by ';'")
	return cmd
}

func newAccountDeleteCommand(w *output.Writer) *cobra.Command {
	flags := &StoreFlags{}
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Remove every account with the id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountDelete(args[0], flags, w)
		},
	}
	addStoreFlags(cmd, flags)
	return cmd
}

func runAccountList(flags *AccountFlags, w *output.Writer) error {
	format, err := parseOutputFormat(GlobalConfig.FormatStr)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	repo, conn, err := openRepository(ctx, &flags.StoreFlags)
	if err != nil {
		return err
	}
	defer conn.Close()

	return w.WriteOK(format, account.NewTable(repo.List(), flags.Reveal))
}

func runAccountShow(id string, flags *AccountFlags, w *output.Writer) error {
	format, err := parseOutputFormat(GlobalConfig.FormatStr)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	repo, conn, err := openRepository(ctx, &flags.StoreFlags)
	if err != nil {
		return err
	}
	defer conn.Close()

	a, ok := repo.Get(id)
	if !ok {
		return errors.New(errors.CodeAccountNotFound, "account not found", map[string]any{"id": id})
	}
	return writeAccount(w, format, a, flags.Reveal)
}

func runAccountCreate(flags *AccountFlags, w *output.Writer) error {
	format, err := parseOutputFormat(GlobalConfig.FormatStr)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	repo, conn, err := openRepository(ctx, &flags.StoreFlags)
	if err != nil {
		return err
	}
	defer conn.Close()

	a, xe := repo.Create(ctx)
	if xe != nil {
		return xe
	}
	return writeAccount(w, format, a, flags.Reveal)
}

// accountChanges holds the fields to change; nil keeps the stored value
type accountChanges struct {
	Type     *string
	Login    *string
	Password *string
	Labels   *string
}

// apply returns a copy of a with the changes applied.
// LOCAL accounts never end up with a null password.
func (c accountChanges) apply(a account.Account) (account.Account, *errors.XError) {
	out := a.Clone()
	if c.Type != nil {
		typ, err := account.ParseType(*c.Type)
		if err != nil {
			return account.Account{}, errors.Wrap(errors.CodeCfgInvalid, "invalid account type", map[string]any{"type": *c.Type}, err)
		}
		out.Type = typ
	}
	if c.Login != nil {
		out.Login = *c.Login
	}
	if c.Password != nil {
		out.Password = account.StringPtr(*c.Password)
	}
	if c.Labels != nil {
		out.Labels = account.ParseLabels(*c.Labels)
	}
	if out.Type == account.TypeLocal && out.Password == nil {
		out.Password = account.StringPtr("")
	}
	return out, nil
}

func runAccountUpdate(id string, changes accountChanges, flags *AccountFlags, w *output.Writer) error {
	format, err := parseOutputFormat(GlobalConfig.FormatStr)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	repo, conn, err := openRepository(ctx, &flags.StoreFlags)
	if err != nil {
		return err
	}
	defer conn.Close()

	stored, ok := repo.Get(id)
	if !ok {
		return errors.New(errors.CodeAccountNotFound, "account not found", map[string]any{"id": id})
	}
	next, xe := changes.apply(stored)
	if xe != nil {
		return xe
	}
	if _, xe := repo.Update(ctx, &next); xe != nil {
		return xe
	}
	return writeAccount(w, format, next, flags.Reveal)
}

func runAccountDelete(id string, flags *StoreFlags, w *output.Writer) error {
	format, err := parseOutputFormat(GlobalConfig.FormatStr)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	repo, conn, err := openRepository(ctx, flags)
	if err != nil {
		return err
	}
	defer conn.Close()

	n, xe := repo.Delete(ctx, id)
	if xe != nil {
		return xe
	}
	return w.WriteOK(format, map[string]any{"id": id, "removed": n})
}

// writeAccount renders one account; table/csv use the row layout of account list
func writeAccount(w *output.Writer, format output.Format, a account.Account, reveal bool) error {
	switch format {
	case output.FormatTable, output.FormatCSV:
		return w.WriteOK(format, account.NewTable([]account.Account{a}, reveal))
	}
	if !reveal {
		a = account.Redact(a)
	}
	return w.WriteOK(format, a)
}
