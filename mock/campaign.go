package mock

import "github.com/fwojciec/leadcrawl"

var _ leadcrawl.CampaignRegistry = (*CampaignRegistry)(nil)

// CampaignRegistry is a mock implementation of leadcrawl.CampaignRegistry.
type CampaignRegistry struct {
	GetFn  func(name string) (*leadcrawl.CampaignConfig, error)
	ListFn func() []string
}

func (r *CampaignRegistry) Get(name string) (*leadcrawl.CampaignConfig, error) {
	return r.GetFn(name)
}

func (r *CampaignRegistry) List() []string {
	return r.ListFn()
}
