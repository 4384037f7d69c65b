// Package goquery implements selector-driven lead extraction on parsed HTML.
// It evaluates the closed selector variants (CSS via goquery, XPath via
// htmlquery, regex over visible text) through a single evaluation path and
// provides the profile, block-split, and link extractors.
package goquery

import (
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/fwojciec/leadcrawl"
	"golang.org/x/net/html"
)

// Match is a single selector hit in document order.
type Match struct {
	// Text is the trimmed text content of the matched node, or the matched
	// substring for regex selectors.
	Text string

	// Href is the href attribute when the matched node is an anchor.
	Href string

	// Node is the underlying HTML node. Nil for regex matches.
	Node *html.Node
}

// regexCache avoids recompiling selector regexes for every page.
var regexCache sync.Map // expr string -> *regexp.Regexp

func compileCached(expr string) (*regexp.Regexp, error) {
	if re, ok := regexCache.Load(expr); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, leadcrawl.Errorf(leadcrawl.EINVALID, "invalid regex selector %q: %v", expr, err)
	}
	regexCache.Store(expr, re)
	return re, nil
}

// evaluate applies one selector within a scope. The scope is a goquery
// selection (whole document or one block subtree); text is the scope's
// visible text, used only by regex selectors.
func evaluate(sel leadcrawl.Selector, scope *goquery.Selection, text string) ([]Match, error) {
	switch sel.Kind {
	case leadcrawl.SelectorCSS:
		return evaluateCSS(sel.Expr, scope), nil
	case leadcrawl.SelectorXPath:
		return evaluateXPath(sel.Expr, scope)
	case leadcrawl.SelectorRegexOnText:
		return evaluateRegex(sel.Expr, text)
	default:
		return nil, leadcrawl.Errorf(leadcrawl.EINVALID, "unknown selector kind %q", sel.Kind)
	}
}

func evaluateCSS(expr string, scope *goquery.Selection) []Match {
	var matches []Match
	scope.Find(expr).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		matches = append(matches, Match{
			Text: strings.TrimSpace(s.Text()),
			Href: href,
			Node: s.Get(0),
		})
	})
	return matches
}

func evaluateXPath(expr string, scope *goquery.Selection) ([]Match, error) {
	var matches []Match
	for _, root := range scope.Nodes {
		nodes, err := htmlquery.QueryAll(root, expr)
		if err != nil {
			return nil, leadcrawl.Errorf(leadcrawl.EINVALID, "invalid xpath selector %q: %v", expr, err)
		}
		for _, n := range nodes {
			matches = append(matches, Match{
				Text: strings.TrimSpace(htmlquery.InnerText(n)),
				Href: attrValue(n, "href"),
				Node: n,
			})
		}
	}
	return matches, nil
}

func evaluateRegex(expr, text string) ([]Match, error) {
	re, err := compileCached(expr)
	if err != nil {
		return nil, err
	}
	var matches []Match
	for _, m := range re.FindAllString(text, -1) {
		matches = append(matches, Match{Text: strings.TrimSpace(m)})
	}
	return matches, nil
}

// firstMatching evaluates selectors in order and returns the matches of the
// first selector producing at least one. An invalid selector is skipped, not
// fatal: a selector miss never aborts the page.
func firstMatching(sels []leadcrawl.Selector, scope *goquery.Selection, text string) []Match {
	for _, sel := range sels {
		matches, err := evaluate(sel, scope, text)
		if err != nil {
			continue
		}
		if len(matches) > 0 {
			return matches
		}
	}
	return nil
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
