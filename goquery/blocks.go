package goquery

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/leadcrawl"
	"golang.org/x/net/html"
)

// minBlockRepetition is the smallest sibling group treated as a block unit.
const minBlockRepetition = 2

// ProximityFunc picks the candidate match belonging to a block's name token
// when a block contains several contact matches. It returns the index of the
// chosen match. The name node may be nil when the block has no name.
type ProximityFunc func(name *html.Node, candidates []Match) int

// DOMDistanceProximity chooses the match whose node is nearest to the name
// node in DOM-subtree distance (steps to the lowest common ancestor). Matches
// without nodes (regex hits) and absent name nodes fall back to the first
// match in document order.
func DOMDistanceProximity(name *html.Node, candidates []Match) int {
	if name == nil {
		return 0
	}
	best, bestDist := 0, -1
	for i, c := range candidates {
		if c.Node == nil {
			continue
		}
		d := domDistance(name, c.Node)
		if bestDist == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// domDistance counts the steps from each node to their lowest common
// ancestor.
func domDistance(a, b *html.Node) int {
	depth := func(n *html.Node) int {
		d := 0
		for p := n.Parent; p != nil; p = p.Parent {
			d++
		}
		return d
	}
	da, db := depth(a), depth(b)
	dist := 0
	for da > db {
		a = a.Parent
		da--
		dist++
	}
	for db > da {
		b = b.Parent
		db--
		dist++
	}
	for a != b && a != nil && b != nil {
		a = a.Parent
		b = b.Parent
		dist += 2
	}
	return dist
}

// ExtractBlocks splits a listing page without individual profile links into
// repeating sibling blocks and extracts one candidate per block. When no
// repeating structure is found, the whole page is treated as a single block
// so downstream flagging stays uniform.
func (e *Extractor) ExtractBlocks(page *leadcrawl.Page, campaign *leadcrawl.CampaignConfig) ([]*leadcrawl.LeadCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, leadcrawl.Errorf(leadcrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	blocks := findRepeatingBlocks(doc)
	if len(blocks) == 0 {
		if root := doc.Selection.Find("body").First(); root.Length() > 0 {
			blocks = []*html.Node{root.Get(0)}
		} else if len(doc.Selection.Nodes) > 0 {
			blocks = []*html.Node{doc.Selection.Nodes[0]}
		}
	}

	candidates := make([]*leadcrawl.LeadCandidate, 0, len(blocks))
	for i, block := range blocks {
		idx := i
		cand := e.extractBlock(goquery.NewDocumentFromNode(block).Selection, campaign, page.URL)
		cand.BlockIndex = &idx
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// extractBlock runs the field pass scoped to one block subtree. Contact
// matches are disambiguated by proximity to the block's name token.
func (e *Extractor) extractBlock(scope *goquery.Selection, campaign *leadcrawl.CampaignConfig, pageURL string) *leadcrawl.LeadCandidate {
	text := ""
	if len(scope.Nodes) > 0 {
		text = textOf(scope.Nodes[0])
	}

	cand := &leadcrawl.LeadCandidate{
		PageURL:     pageURL,
		ProfileLink: pageURL,
		RawPageText: text,
		SourceURLs:  make(map[leadcrawl.FieldName][]string),
		Stage:       leadcrawl.StageBlock,
	}
	e.populateFields(cand, campaign, scope, text, pageURL)
	if cand.RawPageText != "" {
		cand.SourceURLs[leadcrawl.FieldRawPageText] = []string{pageURL}
	}

	// When the block holds several contact matches, re-resolve email and
	// phone against the match nearest to the name token.
	nameNode := e.nameNode(scope, campaign, text)
	e.refineContact(cand, campaign, scope, text, nameNode, pageURL)

	return cand
}

// nameNode locates the node that produced the block's name, if any.
func (e *Extractor) nameNode(scope *goquery.Selection, campaign *leadcrawl.CampaignConfig, text string) *html.Node {
	matches := firstMatching(campaign.ProfileFieldSelectors[leadcrawl.FieldPersonName], scope, text)
	if len(matches) == 0 {
		return nil
	}
	return matches[0].Node
}

// refineContact replaces the default first-match contact assignment with the
// proximity-chosen one when a block yields multiple matches.
func (e *Extractor) refineContact(cand *leadcrawl.LeadCandidate, campaign *leadcrawl.CampaignConfig, scope *goquery.Selection, text string, nameNode *html.Node, pageURL string) {
	proximity := e.Proximity
	if proximity == nil {
		proximity = DOMDistanceProximity
	}

	matches := firstMatching(campaign.ProfileFieldSelectors[leadcrawl.FieldEmail], scope, text)
	switch {
	case len(matches) > 1:
		if email := emailFromMatch(matches[proximity(nameNode, matches)]); email != "" {
			cand.Email = email
			cand.SourceURLs[leadcrawl.FieldEmail] = []string{pageURL}
		}
	case len(matches) == 0:
		// The email came from the regex fallback, whose matches carry no
		// nodes; disambiguate by distance in the block's text instead.
		if m, _ := evaluateRegex(emailPattern, text); len(m) > 1 {
			cand.Email = strings.ToLower(m[nearestByOffset(text, cand.Name, m)].Text)
			cand.SourceURLs[leadcrawl.FieldEmail] = []string{pageURL}
		}
	}

	if matches := firstMatching(campaign.ProfileFieldSelectors[leadcrawl.FieldPhone], scope, text); len(matches) > 1 {
		if phone := phoneFromMatch(matches[proximity(nameNode, matches)]); phone != "" {
			cand.Phone = phone
			cand.SourceURLs[leadcrawl.FieldPhone] = []string{pageURL}
		}
	}
}

// nearestByOffset picks the match whose occurrence in text lies closest to
// the name's occurrence. Falls back to the first match when the name is empty
// or not found in the text.
func nearestByOffset(text, name string, matches []Match) int {
	nameOff := -1
	if name != "" {
		nameOff = strings.Index(text, name)
	}
	if nameOff < 0 {
		return 0
	}
	best, bestDist := 0, -1
	from := 0
	for i, m := range matches {
		off := strings.Index(text[from:], m.Text)
		if off < 0 {
			continue
		}
		off += from
		from = off + len(m.Text)
		d := off - nameOff
		if d < 0 {
			d = -d
		}
		if bestDist == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// blockSignature identifies structurally identical siblings: same tag plus
// the same sorted class list.
func blockSignature(n *html.Node) string {
	classes := strings.Fields(attrValue(n, "class"))
	sort.Strings(classes)
	return n.Data + "." + strings.Join(classes, ".")
}

// findRepeatingBlocks walks the document and returns the group of sibling
// elements sharing a tag and class signature that most plausibly holds the
// roster: groups are ranked by how many of their blocks contain an email
// token, then by size, then by document order. Groups smaller than
// minBlockRepetition are ignored.
func findRepeatingBlocks(doc *goquery.Document) []*html.Node {
	var best []*html.Node
	bestSignal := -1

	emailRe, _ := compileCached(emailPattern)

	signal := func(group []*html.Node) int {
		n := 0
		for _, b := range group {
			if emailRe.MatchString(textOf(b)) {
				n++
			}
		}
		return n
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode || n.Type == html.DocumentNode {
			groups := make(map[string][]*html.Node)
			var order []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode {
					continue
				}
				sig := blockSignature(c)
				if _, seen := groups[sig]; !seen {
					order = append(order, sig)
				}
				groups[sig] = append(groups[sig], c)
			}
			for _, sig := range order {
				group := groups[sig]
				if len(group) < minBlockRepetition {
					continue
				}
				s := signal(group)
				if s > bestSignal || (s == bestSignal && len(group) > len(best)) {
					best, bestSignal = group, s
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, root := range doc.Selection.Nodes {
		walk(root)
	}
	return best
}
