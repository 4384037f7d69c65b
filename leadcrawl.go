// Package leadcrawl extracts structured lead records (person and business
// contact data) from websites. It crawls a bounded set of listing and profile
// pages, applies data-driven selector packs to extract partial candidates,
// and merges candidates from multiple extraction passes into canonical,
// deduplicated, confidence-scored leads.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, rod/) or their
// concern (crawl/, merge/).
package leadcrawl
