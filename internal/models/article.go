package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"catalog/internal/excerpt"
)

// Theme is an article's visual theme.
type Theme string

const (
	ThemeGray   Theme = "gray"
	ThemeWarm   Theme = "warm"
	ThemeBlue   Theme = "blue"
	ThemeGreen  Theme = "green"
	ThemePurple Theme = "purple"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeGray, ThemeWarm, ThemeBlue, ThemeGreen, ThemePurple:
		return true
	}
	return false
}

// Language selects one of the two content languages.
type Language string

const (
	LanguageTamil   Language = "tamil"
	LanguageEnglish Language = "english"
)

// Valid reports whether l is a known language.
func (l Language) Valid() bool {
	return l == LanguageTamil || l == LanguageEnglish
}

// ContentType classifies a content block.
type ContentType string

const (
	ContentMainText   ContentType = "mainText"
	ContentScripture  ContentType = "scripture"
	ContentReflection ContentType = "reflection"
)

// ContentBlock is one typed block of article body text. Order within its
// list is meaningful: excerpt extraction scans blocks in order.
type ContentBlock struct {
	Type  ContentType `json:"type" validate:"required,oneof=mainText scripture reflection"`
	Value string      `json:"value"`
}

// LocalizedTitle holds the article title in both languages.
type LocalizedTitle struct {
	Tamil   string `json:"tamil"`
	English string `json:"english"`
}

// LocalizedContent holds one ordered block list per language.
type LocalizedContent struct {
	Tamil   []ContentBlock `json:"tamil" validate:"omitempty,dive"`
	English []ContentBlock `json:"english" validate:"omitempty,dive"`
}

// Article represents one bilingual article. The ID is caller-assigned.
// Content is persisted as a single JSON document column; SearchTamil and
// SearchEnglish are derived lowercase plain-text columns maintained on save
// so substring search over block values stays expressible as SQL.
type Article struct {
	ID            string           `json:"id" gorm:"primaryKey;type:varchar(100)" validate:"required,min=1,max=100"`
	Title         LocalizedTitle   `json:"title" gorm:"embedded;embeddedPrefix:title_"`
	Theme         Theme            `json:"theme" gorm:"type:varchar(20);index" validate:"omitempty,oneof=gray warm blue green purple"`
	Content       LocalizedContent `json:"content" gorm:"type:text;serializer:json"`
	SearchTamil   string           `json:"-" gorm:"type:text"`
	SearchEnglish string           `json:"-" gorm:"type:text"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Normalize applies defaults for fields absent in older records:
// theme -> gray, content lists -> empty.
func (a *Article) Normalize() {
	if a.Theme == "" {
		a.Theme = ThemeGray
	}
	if a.Content.Tamil == nil {
		a.Content.Tamil = []ContentBlock{}
	}
	if a.Content.English == nil {
		a.Content.English = []ContentBlock{}
	}
}

// AfterFind runs Normalize once at the deserialization boundary.
func (a *Article) AfterFind(*gorm.DB) error {
	a.Normalize()
	return nil
}

// BeforeSave normalizes the record and refreshes the derived search columns.
func (a *Article) BeforeSave(*gorm.DB) error {
	a.Normalize()
	a.SearchTamil = searchText(a.Content.Tamil)
	a.SearchEnglish = searchText(a.Content.English)
	return nil
}

// searchText flattens block values into one lowercase string for LIKE search.
func searchText(blocks []ContentBlock) string {
	values := make([]string, 0, len(blocks))
	for _, b := range blocks {
		values = append(values, strings.ToLower(b.Value))
	}
	return strings.Join(values, "\n")
}

// LocalizedExcerpt holds the derived per-language excerpts of a summary.
type LocalizedExcerpt struct {
	Tamil   string `json:"tamil"`
	English string `json:"english"`
}

// ArticleSummary is the listing/search projection of an article: full title,
// theme and timestamp, with excerpts standing in for the full content.
type ArticleSummary struct {
	ID        string           `json:"id"`
	Title     LocalizedTitle   `json:"title"`
	Theme     Theme            `json:"theme"`
	Excerpt   LocalizedExcerpt `json:"excerpt"`
	CreatedAt time.Time        `json:"created_at"`
}

// Summary projects the article to its summary shape, deriving per-language excerpts
// bounded by maxLen characters.
func (a Article) Summary(maxLen int) ArticleSummary {
	return ArticleSummary{
		ID:    a.ID,
		Title: a.Title,
		Theme: a.Theme,
		Excerpt: LocalizedExcerpt{
			Tamil:   excerpt.FromBlocks(excerptBlocks(a.Content.Tamil), maxLen),
			English: excerpt.FromBlocks(excerptBlocks(a.Content.English), maxLen),
		},
		CreatedAt: a.CreatedAt,
	}
}

func excerptBlocks(blocks []ContentBlock) []excerpt.Block {
	out := make([]excerpt.Block, len(blocks))
	for i, b := range blocks {
		out[i] = excerpt.Block{Type: string(b.Type), Value: b.Value}
	}
	return out
}

// ArticleUpdate carries the optional fields of a partial article update.
type ArticleUpdate struct {
	Title   *LocalizedTitle   `json:"title"`
	Theme   *Theme            `json:"theme" validate:"omitempty,oneof=gray warm blue green purple"`
	Content *LocalizedContent `json:"content" validate:"omitempty"`
}

// Changes returns the names of the set fields, or ErrNoFieldsToUpdate when
// nothing is set.
func (u ArticleUpdate) Changes() ([]string, error) {
	var fields []string
	if u.Title != nil {
		fields = append(fields, "title")
	}
	if u.Theme != nil {
		fields = append(fields, "theme")
	}
	if u.Content != nil {
		fields = append(fields, "content")
	}
	if len(fields) == 0 {
		return nil, ErrNoFieldsToUpdate
	}
	return fields, nil
}

// Apply merges the set fields into article and re-stamps UpdatedAt.
// CreatedAt is preserved from the original record.
func (u ArticleUpdate) Apply(article *Article) error {
	if _, err := u.Changes(); err != nil {
		return err
	}
	if u.Title != nil {
		article.Title = *u.Title
	}
	if u.Theme != nil {
		article.Theme = *u.Theme
	}
	if u.Content != nil {
		article.Content = *u.Content
	}
	article.UpdatedAt = time.Now().UTC()
	return nil
}

// ArticleFilter describes the optional constraints of an article listing or
// search. When Language is set, text search is restricted to that language's
// title and content fields.
type ArticleFilter struct {
	Theme    Theme
	Search   string
	Language Language
}

// Matches reports whether article satisfies every present constraint.
// Text search is a case-insensitive substring match over the scoped title
// and content block values, a disjunction across the eligible fields.
func (f ArticleFilter) Matches(article Article) bool {
	if f.Theme != "" && article.Theme != f.Theme {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	tamil := strings.Contains(strings.ToLower(article.Title.Tamil), q) ||
		blocksContain(article.Content.Tamil, q)
	english := strings.Contains(strings.ToLower(article.Title.English), q) ||
		blocksContain(article.Content.English, q)
	switch f.Language {
	case LanguageTamil:
		return tamil
	case LanguageEnglish:
		return english
	default:
		return tamil || english
	}
}

func blocksContain(blocks []ContentBlock, loweredQuery string) bool {
	for _, b := range blocks {
		if strings.Contains(strings.ToLower(b.Value), loweredQuery) {
			return true
		}
	}
	return false
}

// UploadDocument is the bulk-load format: a JSON document with a pages array
// where each entry maps to one article.
type UploadDocument struct {
	Pages []UploadPage `json:"pages"`
}

// UploadPage is one entry of an upload document. Missing title, theme or
// content fall back to the documented defaults.
type UploadPage struct {
	ID      string            `json:"id"`
	Title   *LocalizedTitle   `json:"title"`
	Theme   Theme             `json:"theme"`
	Content *LocalizedContent `json:"content"`
}

// ToArticle converts the page to an article record stamped at now.
func (p UploadPage) ToArticle(now time.Time) Article {
	article := Article{
		ID:        p.ID,
		Theme:     p.Theme,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.Title != nil {
		article.Title = *p.Title
	}
	if p.Content != nil {
		article.Content = *p.Content
	}
	article.Normalize()
	return article
}

// ThemeStat aggregates articles of one theme.
type ThemeStat struct {
	Theme Theme `json:"theme"`
	Count int64 `json:"count"`
}

// ArticleStats is the /stats/articles response.
type ArticleStats struct {
	TotalArticles      int64       `json:"total_articles"`
	ByTheme            []ThemeStat `json:"by_theme"`
	AvailableLanguages []Language  `json:"available_languages"`
}
