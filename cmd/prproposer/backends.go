/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newBackendsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the backend fallback chain in the order it is tried",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := descriptors(a.cfg, a.lookup)
			if err != nil {
				return err
			}
			r := newReport(number("#"), text("Name"), text("Provider"), text("Model"), text("Endpoint"), text("Key"))
			for i, d := range ds {
				endpoint := d.BaseURL
				if endpoint == "" {
					endpoint = "(provider default)"
				}
				key := d.APIKeyEnv
				if v, ok := a.lookup(d.APIKeyEnv); !ok || v == "" {
					key += " (missing)"
				}
				r.add(strconv.Itoa(i+1), d.Name, string(d.Provider), d.Model, endpoint, key)
			}
			r.caption("Backends are tried in this order until one returns a usable change set.")
			return r.write(cmd.OutOrStdout())
		},
	}
}
