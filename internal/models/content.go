package models

import "time"

// CTAElement is a call-to-action control found on the page
type CTAElement struct {
	Type  string `json:"type"` // "button" or "link_button"
	Text  string `json:"text"`
	Href  string `json:"href,omitempty"`
	Class string `json:"class,omitempty"`
	ID    string `json:"id,omitempty"`
}

// FormField describes one input within a form
type FormField struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	ID          string `json:"id,omitempty"`
	Label       string `json:"label,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Required    bool   `json:"required"`
}

// FormInfo describes a form and its fields
type FormInfo struct {
	Action string      `json:"action"`
	Method string      `json:"method"`
	Class  string      `json:"class,omitempty"`
	ID     string      `json:"id,omitempty"`
	Fields []FormField `json:"fields"`
}

// ImageInfo describes an image with its resolved absolute URL
type ImageInfo struct {
	Src   string `json:"src"`
	Alt   string `json:"alt"`
	Title string `json:"title,omitempty"`
	Class string `json:"class,omitempty"`
}

// LinkInfo describes an anchor with its resolved absolute URL
type LinkInfo struct {
	Href  string `json:"href"`
	Text  string `json:"text"`
	Title string `json:"title,omitempty"`
	Class string `json:"class,omitempty"`
}

// LPIndicators flags landing-page patterns detected from class names
type LPIndicators struct {
	HasHeroSection  bool `json:"has_hero_section"`
	HasPricing      bool `json:"has_pricing"`
	HasTestimonials bool `json:"has_testimonials"`
	HasFeatures     bool `json:"has_features"`
	FormCount       int  `json:"form_count"`
	CTAButtonCount  int  `json:"cta_button_count"`
}

// PageStructure summarizes the document's element layout
type PageStructure struct {
	HasHeader     bool         `json:"has_header"`
	HasNav        bool         `json:"has_nav"`
	HasMain       bool         `json:"has_main"`
	HasAside      bool         `json:"has_aside"`
	HasFooter     bool         `json:"has_footer"`
	SectionCount  int          `json:"section_count"`
	ArticleCount  int          `json:"article_count"`
	DivCount      int          `json:"div_count"`
	TotalElements int          `json:"total_elements"`
	LPIndicators  LPIndicators `json:"lp_indicators"`
}

// HeadingStats summarizes one heading level
type HeadingStats struct {
	Count         int     `json:"count"`
	AverageLength float64 `json:"average_length"`
}

// SEOElements holds basic on-page SEO checks
type SEOElements struct {
	HasTitle                bool    `json:"has_title"`
	HasMetaDescription      bool    `json:"has_meta_description"`
	HasH1                   bool    `json:"has_h1"`
	TitleLengthOK           bool    `json:"title_length_ok"`            // 30-60 chars
	MetaDescriptionLengthOK bool    `json:"meta_description_length_ok"` // 120-160 chars
	ImagesWithAlt           float64 `json:"images_with_alt"`            // ratio 0..1
}

// ContentQuality holds heuristic quality metrics computed from extracted content
type ContentQuality struct {
	TitleLength           int                     `json:"title_length"`
	MetaDescriptionLength int                     `json:"meta_description_length"`
	MainTextLength        int                     `json:"main_text_length"`
	WordCount             int                     `json:"word_count"`
	HeadingStructure      map[string]HeadingStats `json:"heading_structure"`
	CTACount              int                     `json:"cta_count"`
	FormCount             int                     `json:"form_count"`
	ImageCount            int                     `json:"image_count"`
	LinkCount             int                     `json:"link_count"`
	SEO                   SEOElements             `json:"seo_elements"`
}

// PageContent is the extraction result for one URL.
// MainText is the cleaned visible text; Markdown is the converted main
// content used for analysis prompts and report rendering.
type PageContent struct {
	URL             string                   `json:"url"`
	Title           string                   `json:"title"`
	MetaDescription string                   `json:"meta_description"`
	Headings        map[string][]string      `json:"headings"` // "h1".."h6" -> texts
	MainText        string                   `json:"main_text"`
	Markdown        string                   `json:"markdown,omitempty"`
	CTAElements     []CTAElement             `json:"cta_elements"`
	Forms           []FormInfo               `json:"form_elements"`
	Images          []ImageInfo              `json:"images"`
	Links           []LinkInfo               `json:"links"`
	StructuredData  []map[string]interface{} `json:"structured_data,omitempty"`
	PageStructure   PageStructure            `json:"page_structure"`
	FetchedAt       time.Time                `json:"fetched_at"`
}
