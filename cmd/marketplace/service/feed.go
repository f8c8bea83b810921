package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/feeds"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/models"
)

// FeedService renders an Atom feed of recently approved extensions
type FeedService struct {
	store   ExtensionStore
	title   string
	baseURL string
	limit   int
}

// NewFeedService creates a feed service
func NewFeedService(store ExtensionStore, title, baseURL string, limit int) *FeedService {
	return &FeedService{
		store:   store,
		title:   title,
		baseURL: baseURL,
		limit:   limit,
	}
}

// Atom returns the feed serialized as Atom XML
func (s *FeedService) Atom(ctx context.Context) (string, error) {
	extensions, err := s.store.ListRecentlyApproved(ctx, s.limit)
	if err != nil {
		return "", err
	}

	feed := &feeds.Feed{
		Title:       s.title,
		Link:        &feeds.Link{Href: s.baseURL},
		Description: "Recently approved extensions",
		Updated:     time.Now().UTC(),
	}
	if len(extensions) > 0 && extensions[0].ReviewedAt != nil {
		feed.Updated = *extensions[0].ReviewedAt
	}

	for _, ext := range extensions {
		item := &feeds.Item{
			Id:          itemURL(s.baseURL, ext),
			Title:       ext.DisplayName,
			Link:        &feeds.Link{Href: itemURL(s.baseURL, ext)},
			Description: ext.Description,
			Author:      &feeds.Author{Name: ext.Author.Name},
			Created:     ext.CreatedAt,
		}
		if ext.ReviewedAt != nil {
			item.Updated = *ext.ReviewedAt
		}
		feed.Items = append(feed.Items, item)
	}

	return feed.ToAtom()
}

func itemURL(baseURL string, ext *models.Extension) string {
	return fmt.Sprintf("%s/extensions/%s", baseURL, ext.ProductID)
}
