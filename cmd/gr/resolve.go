package main

import (
	"github.com/spf13/cobra"

	"github.com/denchenko/gitar/internal/core"
	"github.com/denchenko/gitar/internal/core/app"
)

// resolveApp resolves --domain/--project (falling back to git) and builds
// the App for that domain, applying any --throttle/--throttle-range
// override from the command's flags.
func resolveApp(cmd *cobra.Command, resolver *core.Resolver) (a *app.App, domainName, project string, err error) {
	domainName, project, err = resolveDomainProject(cmd)
	if err != nil {
		return nil, "", "", err
	}

	strategy, err := throttleStrategyFromFlags(cmd)
	if err != nil {
		return nil, "", "", err
	}

	a, err = resolver.App(domainName, strategy)
	if err != nil {
		return nil, "", "", err
	}

	return a, domainName, project, nil
}
