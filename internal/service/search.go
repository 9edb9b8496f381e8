package service

import (
	"context"
	"unicode/utf8"

	"github.com/Ry1and/flockr/internal/database"
	"github.com/Ry1and/flockr/internal/models"
)

// SearchService handles message search.
type SearchService struct {
	messages  database.MessageRepository
	reactions database.ReactionRepository
}

// NewSearchService creates a SearchService.
func NewSearchService(messages database.MessageRepository, reactions database.ReactionRepository) *SearchService {
	return &SearchService{messages: messages, reactions: reactions}
}

// SearchMessages returns messages containing query, case-sensitively, from
// every channel the caller belongs to, oldest first.
func (s *SearchService) SearchMessages(ctx context.Context, userID int64, query string) ([]models.Message, error) {
	if utf8.RuneCountInString(query) > maxSearchQuery {
		return nil, BadRequest("INVALID_QUERY", "query must be at most 1000 characters")
	}

	results, err := s.messages.Search(ctx, userID, query)
	if err != nil {
		return nil, internalError("messages.Search", err)
	}
	if results == nil {
		results = []models.Message{}
	}
	if err := attachReacts(ctx, s.reactions, results, userID); err != nil {
		return nil, internalError("attachReacts", err)
	}
	return results, nil
}
