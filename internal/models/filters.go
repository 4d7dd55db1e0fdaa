package models

// ArticleFilter narrows article listings. Zero values mean "no constraint".
type ArticleFilter struct {
	Category    string
	SectionSlug string
	Tag         string
	Status      ArticleStatus
}

// Pagination defaults and bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)
