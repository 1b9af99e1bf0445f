package fetcher

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"

	"github.com/civicdata/inspection-cli/internal/model"
)

// linkKeywords mark a PDF href as an inspection report. The department
// publishes several PDFs on the same page; only the inspection one is
// wanted.
var linkKeywords = []string{"food", "retail", "inspection"}

// DiscoverPDFLink fetches pageURL and returns the absolute URL of the
// first PDF link that looks like an inspection report.
func DiscoverPDFLink(ctx context.Context, f Fetcher, pageURL string) (string, error) {
	body, err := f.Download(ctx, pageURL)
	if err != nil {
		return "", err
	}
	defer body.Close() //nolint:errcheck

	link, err := findPDFLink(body)
	if err != nil {
		return "", model.WrapKind(model.KindFetch, eris.Wrapf(err, "scan %s", pageURL))
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", model.WrapKind(model.KindFetch, eris.Wrapf(err, "parse page url %s", pageURL))
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", model.WrapKind(model.KindFetch, eris.Wrapf(err, "parse pdf link %q", link))
	}
	return base.ResolveReference(ref).String(), nil
}

// findPDFLink walks the page's anchor tags for a matching .pdf href.
func findPDFLink(r io.Reader) (string, error) {
	tok := html.NewTokenizer(r)
	for {
		switch tok.Next() {
		case html.ErrorToken:
			if tok.Err() == io.EOF {
				return "", eris.New("no inspection PDF link found on page")
			}
			return "", eris.Wrap(tok.Err(), "parse html")
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tok.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := tok.TagAttr()
				if string(key) == "href" {
					if href := string(val); isInspectionPDF(href) {
						return href, nil
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

func isInspectionPDF(href string) bool {
	lower := strings.ToLower(href)
	if !strings.HasSuffix(lower, ".pdf") {
		return false
	}
	for _, kw := range linkKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
