// Package pagescan finds the article links on a rendered encyclopedia page
// and groups them by subject so each subject is resolved once.
package pagescan

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"wikimdb/internal/rating"
	"wikimdb/internal/subject"
)

// Link is one anchor on the page that points at an article.
type Link struct {
	Href string
	Text string
}

// Group is every link on the page sharing a subject.
type Group struct {
	Subject subject.Subject
	Links   []Link
}

// Page is the scan result: the current page subject plus one group per
// linked subject, in first-seen order.
type Page struct {
	Current subject.Subject
	Groups  []Group
}

// Subjects lists the linked subjects in first-seen order.
func (p Page) Subjects() []subject.Subject {
	out := make([]subject.Subject, 0, len(p.Groups))
	for _, g := range p.Groups {
		out = append(out, g.Subject)
	}
	return out
}

// LinkCount is the number of article links across all groups.
func (p Page) LinkCount() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Links)
	}
	return n
}

// Scan parses html and collects article links. Links back to current and
// links that do not map to an article are skipped.
func Scan(html []byte, current subject.Subject) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return Page{}, fmt.Errorf("parse page: %w", err)
	}

	page := Page{Current: current}
	index := make(map[subject.Subject]int)
	doc.Find("a[href^='/wiki/']").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		subj, ok := subject.FromHref(href)
		if !ok || subj == current {
			return
		}
		link := Link{Href: href, Text: strings.Join(strings.Fields(s.Text()), " ")}
		if i, seen := index[subj]; seen {
			page.Groups[i].Links = append(page.Groups[i].Links, link)
			return
		}
		index[subj] = len(page.Groups)
		page.Groups = append(page.Groups, Group{Subject: subj, Links: []Link{link}})
	})
	return page, nil
}

// Row is one annotated subject.
type Row struct {
	Subject subject.Subject
	Links   int
	Badge   string
}

// Annotate pairs every group with its badge. Subjects without a rating get
// an empty badge; nothing is rendered for them.
func Annotate(page Page, results map[subject.Subject]*string) []Row {
	rows := make([]Row, 0, len(page.Groups))
	for _, g := range page.Groups {
		row := Row{Subject: g.Subject, Links: len(g.Links)}
		if value := results[g.Subject]; value != nil {
			row.Badge = rating.Badge(*value)
		}
		rows = append(rows, row)
	}
	return rows
}
