package usecase

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"ccms/internal/domain"
)

// RenderInput is everything the post body is built from.
type RenderInput struct {
	Article    domain.GeneratedArticle
	SEO        domain.SEOData
	Media      domain.MediaBundle
	Facts      domain.ResearchFact
	Compliance domain.ComplianceSettings
	Publish    domain.PublishSettings
	Content    domain.ContentSettings
}

// RenderHTML turns the Markdown article into WordPress-ready HTML blocks.
func RenderHTML(in RenderInput) string {
	var b strings.Builder

	tablesPlaced := map[string]bool{}
	for _, section := range in.Article.Sections {
		if section.Name != "Introduction" {
			fmt.Fprintf(&b, "<h2>%s</h2>\n", html.EscapeString(section.Name))
		}
		renderMarkdown(&b, section.Body)

		name := strings.ToLower(section.Name)
		if in.Content.IncludeComparisonTables {
			if strings.Contains(name, "bonus") && !tablesPlaced["bonus"] {
				renderBonusBlock(&b, in)
				tablesPlaced["bonus"] = true
			}
			if strings.Contains(name, "payment") && !tablesPlaced["payment"] {
				renderTable(&b, "Payment Methods", [2]string{"Method", "Type"}, in.SEO.Tables.PaymentMethods)
				tablesPlaced["payment"] = true
			}
		}
	}

	if in.Content.IncludeComparisonTables {
		if !tablesPlaced["bonus"] {
			renderBonusBlock(&b, in)
		}
		if !tablesPlaced["payment"] {
			renderTable(&b, "Payment Methods", [2]string{"Method", "Type"}, in.SEO.Tables.PaymentMethods)
		}
	}

	renderGallery(&b, in.Media)
	renderLinks(&b, in.SEO.InternalLinks)
	renderFooter(&b, in.Compliance)
	return b.String()
}

// markdown renders section bodies. Raw HTML in model output is dropped.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func renderMarkdown(b *strings.Builder, text string) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		fmt.Fprintf(b, "<p>%s</p>\n", html.EscapeString(text))
		return
	}
	b.Write(buf.Bytes())
}

func renderBonusBlock(b *strings.Builder, in RenderInput) {
	renderTable(b, "Bonus Terms", [2]string{"Term", "Details"}, in.SEO.Tables.BonusTerms)
	if in.Publish.AffiliateURL == "" {
		return
	}
	label := in.Publish.CTALabel
	if label == "" {
		label = "Visit " + in.Facts.CasinoName()
	}
	fmt.Fprintf(b, "<p class=\"ccms-cta\"><a href=\"%s\" rel=\"nofollow sponsored noopener\" target=\"_blank\">%s</a></p>\n",
		html.EscapeString(in.Publish.AffiliateURL), html.EscapeString(label))
}

func renderTable(b *strings.Builder, caption string, header [2]string, rows [][2]string) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(b, "<table class=\"ccms-table\">\n<caption>%s</caption>\n", html.EscapeString(caption))
	fmt.Fprintf(b, "<thead><tr><th>%s</th><th>%s</th></tr></thead>\n<tbody>\n", html.EscapeString(header[0]), html.EscapeString(header[1]))
	for _, row := range rows {
		fmt.Fprintf(b, "<tr><td>%s</td><td>%s</td></tr>\n", html.EscapeString(row[0]), html.EscapeString(row[1]))
	}
	b.WriteString("</tbody>\n</table>\n")
}

func renderGallery(b *strings.Builder, media domain.MediaBundle) {
	var figures []string
	for _, a := range media.Assets {
		src := a.MediaURL
		if src == "" {
			src = a.SourceURL
		}
		if src == "" {
			continue
		}
		figures = append(figures, fmt.Sprintf("<figure><img src=\"%s\" alt=\"%s\" loading=\"lazy\"><figcaption>%s</figcaption></figure>",
			html.EscapeString(src), html.EscapeString(a.Alt), html.EscapeString(a.Caption)))
	}
	if len(figures) == 0 {
		return
	}
	b.WriteString("<h2>Screenshots</h2>\n<div class=\"ccms-gallery\">\n")
	b.WriteString(strings.Join(figures, "\n"))
	b.WriteString("\n</div>\n")
}

func renderLinks(b *strings.Builder, links []domain.InternalLink) {
	if len(links) == 0 {
		return
	}
	b.WriteString("<h3>Related Reading</h3>\n<ul class=\"ccms-links\">\n")
	for _, l := range links {
		fmt.Fprintf(b, "<li><a href=\"%s\">%s</a></li>\n", html.EscapeString(l.URL), html.EscapeString(l.Anchor))
	}
	b.WriteString("</ul>\n")
}

// renderFooter writes only the notices the tenant configured.
func renderFooter(b *strings.Builder, c domain.ComplianceSettings) {
	if c.AgeNotice == "" && len(c.RGLinks) == 0 && c.AffiliateDisclosure == "" {
		return
	}
	b.WriteString("<div class=\"ccms-rg-footer\">\n")
	if c.AgeNotice != "" {
		fmt.Fprintf(b, "<p><strong>%s</strong></p>\n", html.EscapeString(c.AgeNotice))
	}
	if len(c.RGLinks) > 0 {
		b.WriteString("<p>Responsible gambling support: ")
		for i, link := range c.RGLinks {
			if i > 0 {
				b.WriteString(" | ")
			}
			fmt.Fprintf(b, "<a href=\"%s\" rel=\"nofollow noopener\" target=\"_blank\">%s</a>", html.EscapeString(link), html.EscapeString(linkLabel(link)))
		}
		b.WriteString("</p>\n")
	}
	if c.AffiliateDisclosure != "" {
		fmt.Fprintf(b, "<p class=\"ccms-disclosure\">%s</p>\n", html.EscapeString(c.AffiliateDisclosure))
	}
	b.WriteString("</div>\n")
}

func linkLabel(link string) string {
	label := strings.TrimPrefix(strings.TrimPrefix(link, "https://"), "http://")
	label = strings.TrimPrefix(label, "www.")
	return strings.TrimSuffix(label, "/")
}
