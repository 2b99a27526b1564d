package extract

import "github.com/PuerkitoBio/goquery"

var (
	listingLink   = []string{`a[href*="/book/"]`, ".title a", ".novel-title a", ".book-title a", "h3 a", "h4 a", "h5 a", "a[title]"}
	listingAuthor = []string{".author", ".novel-author", ".book-author", `[class*="author"]`, ".by", ".writer"}
	listingDesc   = []string{".description", ".summary", ".synopsis", ".novel-desc", ".book-desc", `[class*="desc"]`}
	listingCover  = []string{`img[src*=".jpg"]`, `img[src*=".png"]`, `img[src*=".webp"]`, ".cover img", ".image img", ".thumbnail img"}
)

// ListingItem is one entry of a search results page.
type ListingItem struct {
	Title       string
	Author      string
	URL         string
	Description string
	CoverURL    string
}

// ParseListingItem reads one search result container with generic
// selectors. Relative links are resolved against base.
func ParseListingItem(item *goquery.Selection, base string) ListingItem {
	var out ListingItem

	for _, s := range listingLink {
		a := Find(item, s).First()
		if a.Length() == 0 {
			continue
		}
		out.Title = Text(a)
		if t, ok := a.Attr("title"); ok && out.Title == "" {
			out.Title = t
		}
		if href, ok := a.Attr("href"); ok && href != "" {
			out.URL = Join(base, href)
		}
		break
	}

	out.Author, _ = Resolve(item, listingAuthor, func(string) bool { return true })
	out.Description, _ = Resolve(item, listingDesc, func(string) bool { return true })

	for _, s := range listingCover {
		img := Find(item, s).First()
		if img.Length() == 0 {
			continue
		}
		if src := ImageSource(img); src != "" {
			out.CoverURL = Join(base, src)
			break
		}
	}

	return out
}
