package cmd

import "github.com/warpdl/warpvpn/pkg/warpcli"

// newClient is swapped by tests to talk to an in-memory daemon.
var newClient = func() (*warpcli.Client, error) {
	client, err := warpcli.NewClient()
	if err != nil {
		return nil, err
	}
	client.CheckVersionMismatch(currentBuildArgs.Version)
	return client, nil
}
