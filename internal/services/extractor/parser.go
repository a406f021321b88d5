package extractor

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/scrutor/internal/models"
)

var (
	breaksRe      = regexp.MustCompile(`[\n\r\t]+`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	contentAreaRe = regexp.MustCompile(`(?i)content|main|body`)
	ctaClassRe    = regexp.MustCompile(`(?i)btn|button|cta|call.to.action|signup|register|buy|purchase|order|download`)
	heroRe        = regexp.MustCompile(`(?i)hero|banner|jumbotron`)
	pricingRe     = regexp.MustCompile(`(?i)price|pricing|plan`)
	testimonialRe = regexp.MustCompile(`(?i)testimonial|review|customer`)
	featureRe     = regexp.MustCompile(`(?i)feature|benefit|advantage`)
	ctaButtonRe   = regexp.MustCompile(`(?i)btn|cta|call`)
)

// parsePage parses a rendered document into a PageContent. The second return
// is the main content region's HTML, kept for markdown conversion.
func parsePage(html, pageURL string) (*models.PageContent, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	content := &models.PageContent{
		URL:             pageURL,
		Title:           extractTitle(doc),
		MetaDescription: extractMetaDescription(doc),
		Headings:        extractHeadings(doc),
		CTAElements:     extractCTAElements(doc),
		Forms:           extractForms(doc),
		Images:          extractImages(doc, base),
		Links:           extractLinks(doc, base),
		StructuredData:  extractStructuredData(doc),
		PageStructure:   analyzePageStructure(doc),
	}

	mainText, mainHTML := extractMainContent(html)
	content.MainText = mainText

	return content, mainHTML, nil
}

func extractTitle(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func extractMetaDescription(doc *goquery.Document) string {
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		return strings.TrimSpace(desc)
	}
	if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		return strings.TrimSpace(desc)
	}
	return ""
}

// extractHeadings collects h1-h6 texts keyed by level; levels with no
// headings are omitted.
func extractHeadings(doc *goquery.Document) map[string][]string {
	headings := make(map[string][]string)

	for level := 1; level <= 6; level++ {
		tag := fmt.Sprintf("h%d", level)
		var texts []string
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			texts = append(texts, cleanText(s.Text()))
		})
		if len(texts) > 0 {
			headings[tag] = texts
		}
	}

	return headings
}

// extractMainContent strips non-content elements, then returns the cleaned
// visible text of the page's main region and that region's HTML. It parses
// its own copy of the document so the removals never affect the other
// extractors.
func extractMainContent(html string) (string, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}

	doc.Find("script, style, nav, header, footer, aside").Remove()

	main := findMainRegion(doc)
	text := cleanText(collectText(main))

	mainHTML, err := goquery.OuterHtml(main)
	if err != nil {
		mainHTML = ""
	}

	return text, mainHTML
}

// findMainRegion picks the most content-like region: main, then article,
// then the first div or section with a content-ish class, then body.
func findMainRegion(doc *goquery.Document) *goquery.Selection {
	if sel := doc.Find("main").First(); sel.Length() > 0 {
		return sel
	}
	if sel := doc.Find("article").First(); sel.Length() > 0 {
		return sel
	}
	for _, tag := range []string{"div", "section"} {
		if sel := firstWithClass(doc, tag, contentAreaRe); sel != nil {
			return sel
		}
	}
	if sel := doc.Find("body").First(); sel.Length() > 0 {
		return sel
	}
	return doc.Selection
}

func firstWithClass(doc *goquery.Document, tag string, pattern *regexp.Regexp) *goquery.Selection {
	var found *goquery.Selection
	doc.Find(tag).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if class, ok := s.Attr("class"); ok && pattern.MatchString(class) {
			found = s
			return false
		}
		return true
	})
	return found
}

// collectText joins the selection's text nodes with spaces so words from
// adjacent elements never run together.
func collectText(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#text" {
			if text := strings.TrimSpace(s.Text()); text != "" {
				b.WriteString(text)
				b.WriteString(" ")
			}
		} else {
			b.WriteString(collectText(s))
		}
	})
	return b.String()
}

// extractCTAElements finds buttons and button-styled anchors. Elements with
// no visible text are skipped.
func extractCTAElements(doc *goquery.Document) []models.CTAElement {
	ctas := []models.CTAElement{}

	doc.Find(`button, input[type="button"], input[type="submit"]`).Each(func(_ int, s *goquery.Selection) {
		text := cleanText(s.Text())
		if text == "" {
			text = cleanText(s.AttrOr("value", ""))
		}
		if text == "" {
			return
		}
		ctas = append(ctas, models.CTAElement{
			Type:  "button",
			Text:  text,
			Class: s.AttrOr("class", ""),
			ID:    s.AttrOr("id", ""),
		})
	})

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		class, ok := s.Attr("class")
		if !ok || !ctaClassRe.MatchString(class) {
			return
		}
		text := cleanText(s.Text())
		if text == "" {
			return
		}
		ctas = append(ctas, models.CTAElement{
			Type:  "link_button",
			Text:  text,
			Href:  s.AttrOr("href", ""),
			Class: class,
			ID:    s.AttrOr("id", ""),
		})
	})

	return ctas
}

func extractForms(doc *goquery.Document) []models.FormInfo {
	forms := []models.FormInfo{}

	doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		info := models.FormInfo{
			Action: form.AttrOr("action", ""),
			Method: strings.ToUpper(form.AttrOr("method", "get")),
			Class:  form.AttrOr("class", ""),
			ID:     form.AttrOr("id", ""),
			Fields: []models.FormField{},
		}

		form.Find("input, textarea, select").Each(func(_ int, field *goquery.Selection) {
			fieldID := field.AttrOr("id", "")
			label := ""
			if fieldID != "" {
				label = cleanText(doc.Find(fmt.Sprintf(`label[for=%q]`, fieldID)).First().Text())
			}
			_, required := field.Attr("required")

			info.Fields = append(info.Fields, models.FormField{
				Type:        field.AttrOr("type", "text"),
				Name:        field.AttrOr("name", ""),
				ID:          fieldID,
				Label:       label,
				Placeholder: field.AttrOr("placeholder", ""),
				Required:    required,
			})
		})

		forms = append(forms, info)
	})

	return forms
}

func extractImages(doc *goquery.Document, base *url.URL) []models.ImageInfo {
	images := []models.ImageInfo{}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		if src == "" {
			return
		}
		images = append(images, models.ImageInfo{
			Src:   resolveURL(base, src),
			Alt:   s.AttrOr("alt", ""),
			Title: s.AttrOr("title", ""),
			Class: s.AttrOr("class", ""),
		})
	})

	return images
}

// extractLinks collects anchors that carry both an href and visible text,
// with relative hrefs resolved against the page URL.
func extractLinks(doc *goquery.Document, base *url.URL) []models.LinkInfo {
	links := []models.LinkInfo{}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		text := cleanText(s.Text())
		if href == "" || text == "" {
			return
		}
		links = append(links, models.LinkInfo{
			Href:  resolveURL(base, href),
			Text:  text,
			Title: s.AttrOr("title", ""),
			Class: s.AttrOr("class", ""),
		})
	})

	return links
}

// extractStructuredData collects JSON-LD blocks (objects or arrays of
// objects; unparseable blocks skipped) and a light microdata summary.
func extractStructuredData(doc *goquery.Document) []map[string]interface{} {
	data := []map[string]interface{}{}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var decoded interface{}
		if err := json.Unmarshal([]byte(s.Text()), &decoded); err != nil {
			return
		}
		switch v := decoded.(type) {
		case map[string]interface{}:
			data = append(data, v)
		case []interface{}:
			for _, item := range v {
				if m, ok := item.(map[string]interface{}); ok {
					data = append(data, m)
				}
			}
		}
	})

	doc.Find("[itemscope]").Each(func(_ int, s *goquery.Selection) {
		itemType := s.AttrOr("itemtype", "")
		if itemType == "" {
			return
		}
		data = append(data, map[string]interface{}{
			"type":     "microdata",
			"itemtype": itemType,
			"element":  goquery.NodeName(s),
		})
	})

	return data
}

func analyzePageStructure(doc *goquery.Document) models.PageStructure {
	return models.PageStructure{
		HasHeader:     doc.Find("header").Length() > 0,
		HasNav:        doc.Find("nav").Length() > 0,
		HasMain:       doc.Find("main").Length() > 0,
		HasAside:      doc.Find("aside").Length() > 0,
		HasFooter:     doc.Find("footer").Length() > 0,
		SectionCount:  doc.Find("section").Length(),
		ArticleCount:  doc.Find("article").Length(),
		DivCount:      doc.Find("div").Length(),
		TotalElements: doc.Find("*").Length(),
		LPIndicators: models.LPIndicators{
			HasHeroSection:  countClassMatch(doc, "section, div", heroRe) > 0,
			HasPricing:      countClassMatch(doc, "section, div", pricingRe) > 0,
			HasTestimonials: countClassMatch(doc, "section, div", testimonialRe) > 0,
			HasFeatures:     countClassMatch(doc, "section, div", featureRe) > 0,
			FormCount:       doc.Find("form").Length(),
			CTAButtonCount:  countClassMatch(doc, "button, a", ctaButtonRe),
		},
	}
}

func countClassMatch(doc *goquery.Document, selector string, pattern *regexp.Regexp) int {
	count := 0
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if class, ok := s.Attr("class"); ok && pattern.MatchString(class) {
			count++
		}
	})
	return count
}

func resolveURL(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	resolved, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return resolved.String()
}

func cleanText(text string) string {
	if text == "" {
		return ""
	}
	text = breaksRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
