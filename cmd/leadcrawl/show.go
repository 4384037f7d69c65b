package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/leadcrawl"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	lead, err := deps.Leads.FindLeadByUID(deps.Ctx, c.UID)
	if err != nil {
		if leadcrawl.ErrorCode(err) == leadcrawl.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: lead %q not found. Use 'leadcrawl leads' to see stored leads.\n", c.UID)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", leadcrawl.ErrorMessage(err))
		}
		return err
	}

	data, err := json.MarshalIndent(lead, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, string(data))

	return nil
}
