package main

import (
	"github.com/spf13/cobra"

	"github.com/denchenko/gitar/internal/core"
	"github.com/denchenko/gitar/internal/core/domain"
	"github.com/denchenko/gitar/internal/format"
	"github.com/denchenko/gitar/internal/log"
)

// newUSCommand builds the `us` verb, resolving the identity behind the
// configured token (CurrentUser has no App-level wrapper since it needs no
// cross-cutting logic beyond the pass-through Provider already gives us).
func newUSCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "us",
		Short: "Show the authenticated user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, _, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			var user *domain.User
			err = log.WithSpinner("Fetching current user...", func() error {
				var err error
				user, err = a.Provider().CurrentUser(withContext(cmd))

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.MembersTable([]*domain.User{user}))
		},
	}
}
