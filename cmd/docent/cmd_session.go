package main

import (
	"fmt"

	"docent/internal/types"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	loginToken  string
	loginUserID int64
)

// sessionCmd manages the stored credential
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the stored sign-in",
	RunE:  runSessionStatus,
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the guide will resume a signed-in session",
	RunE:  runSessionStatus,
}

var sessionLoginCmd = &cobra.Command{
	Use:   "login <nickname>",
	Short: "Store a credential without starting the guide",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionLogin,
}

var sessionLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored credential",
	RunE:  runSessionLogout,
}

func runSessionStatus(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	outcome, err := newGate(st).CheckAutoLogin(cmdContext(cmd))
	if err != nil {
		return err
	}
	if outcome.User.IsZero() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", outcome.Status)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s as %s (id %d)\n", outcome.Status, outcome.User.Nickname, outcome.User.ID)
	return nil
}

func runSessionLogin(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	token := loginToken
	if token == "" {
		token = uuid.NewString()
	}
	user := types.UserInfo{ID: loginUserID, Nickname: args[0]}
	if err := newGate(st).Login(cmdContext(cmd), token, user); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", user.Nickname)
	return nil
}

func runSessionLogout(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := newGate(st).Logout(cmdContext(cmd)); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "signed out")
	return nil
}
