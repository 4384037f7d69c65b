package main

import (
	"fmt"

	"github.com/fwojciec/leadcrawl"
)

// Run executes the campaigns command.
func (c *CampaignsCmd) Run(deps *Dependencies) error {
	names := deps.Campaigns.List()
	if len(names) == 0 {
		fmt.Fprintln(deps.Stdout, "No campaigns found. Add campaign YAML files to the campaigns directory.")
		return nil
	}

	for _, name := range names {
		campaign, err := deps.Campaigns.Get(name)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", leadcrawl.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "%s  links=%d pagination=%d fields=%d\n", campaign.Name,
			len(campaign.ListLinkSelectors), len(campaign.PaginationSelectors),
			len(campaign.ProfileFieldSelectors))
	}

	return nil
}
