package service

import (
	"encoding/json"
	"fmt"
	"html"
	"log"
	"strings"

	"anoa.com/linkbio/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const linksIndex = "links"

type LinkIndex interface {
	IndexLink(link *entity.Link) error
	DeleteLink(id string) error
	DeleteLinks(ids []string) error
	// SearchLinkIDs returns the ids of matching links, best match first.
	// A nil owner searches every user's links.
	SearchLinkIDs(query string, owner *uuid.UUID, limit int64) ([]uuid.UUID, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliSearchService(client meilisearch.ServiceManager) LinkIndex {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterableAttrs := []string{"user_id", "is_bio_link"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index(linksIndex).UpdateFilterableAttributes(&filterableInterface); err != nil {
		log.Printf("Failed to update links filterable attributes: %v", err)
	}

	sortableAttrs := []string{"created_at", "clicks"}
	if _, err := s.client.Index(linksIndex).UpdateSortableAttributes(&sortableAttrs); err != nil {
		log.Printf("Failed to update links sortable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

type meiliLinkDoc struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	Slug           string `json:"slug"`
	Title          string `json:"title"`
	DestinationURL string `json:"destination_url"`
	IsBioLink      bool   `json:"is_bio_link"`
	Clicks         int64  `json:"clicks"`
	CreatedAt      int64  `json:"created_at"`
}

func (s *meiliSearchService) cleanText(text string) string {
	cleanText := html.UnescapeString(s.sanitizer.Sanitize(text))
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) IndexLink(link *entity.Link) error {
	doc := meiliLinkDoc{
		ID:             link.ID.String(),
		UserID:         link.UserID.String(),
		Slug:           link.Slug,
		Title:          s.cleanText(link.Title),
		DestinationURL: link.DestinationURL,
		IsBioLink:      link.IsBioLink,
		Clicks:         link.Clicks,
		CreatedAt:      link.CreatedAt.Unix(),
	}

	task, err := s.client.Index(linksIndex).AddDocuments([]meiliLinkDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed link %s, task id: %d", link.ID, task.TaskUID)
	return nil
}

func (s *meiliSearchService) DeleteLink(id string) error {
	_, err := s.client.Index(linksIndex).DeleteDocument(id)
	return err
}

func (s *meiliSearchService) DeleteLinks(ids []string) error {
	_, err := s.client.Index(linksIndex).DeleteDocuments(ids)
	return err
}

func (s *meiliSearchService) SearchLinkIDs(query string, owner *uuid.UUID, limit int64) ([]uuid.UUID, error) {
	filter := "is_bio_link = false"
	if owner != nil {
		filter = fmt.Sprintf("%s AND user_id = '%s'", filter, owner.String())
	}

	raw, err := s.client.Index(linksIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Filter:               filter,
		Limit:                limit,
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, err
	}

	var res struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &res); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}
