package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/leadcrawl"
)

// Run executes the leads command.
func (c *LeadsCmd) Run(deps *Dependencies) error {
	filter := leadcrawl.LeadFilter{
		Limit:  c.Limit,
		Offset: c.Offset,
	}
	if c.Domain != "" {
		filter.Domain = &c.Domain
	}
	if c.RunID != "" {
		filter.RunID = &c.RunID
	}
	if c.MinScore > 0 {
		filter.MinScore = &c.MinScore
	}
	if c.Flag != "" {
		flag := leadcrawl.Flag(c.Flag)
		filter.Flag = &flag
	}

	leads, err := deps.Leads.FindLeads(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", leadcrawl.ErrorMessage(err))
		return err
	}

	if len(leads) == 0 {
		fmt.Fprintln(deps.Stdout, "No leads found. Use 'leadcrawl crawl' to extract some.")
		return nil
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		for _, lead := range leads {
			if err := enc.Encode(lead); err != nil {
				return err
			}
		}
		return nil
	}

	for _, lead := range leads {
		fmt.Fprintf(deps.Stdout, "%3d  %-24s %-30s %s", lead.Confidence,
			truncate(lead.Name, 24), truncate(lead.Email, 30), lead.UID)
		if len(lead.Flags) > 0 {
			flags := make([]string, len(lead.Flags))
			for i, f := range lead.Flags {
				flags[i] = string(f)
			}
			fmt.Fprintf(deps.Stdout, "  [%s]", strings.Join(flags, ","))
		}
		fmt.Fprintln(deps.Stdout)
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
