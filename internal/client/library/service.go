// Package library manages the user's saved citations.
package library

import (
	"context"
	"strings"
	"sync"

	"github.com/ilmai/ilmcli/internal/client/api"
	"github.com/ilmai/ilmcli/internal/client/models"
	"github.com/ilmai/ilmcli/internal/logging"
)

// Service mirrors the backend library locally so the UI can render and filter
// without a round trip per keystroke. The backend copy is authoritative; the
// mirror is replaced wholesale on Refresh.
type Service struct {
	client api.Client
	log    logging.Logger

	mu        sync.Mutex
	citations []models.LibraryCitation
}

func NewService(client api.Client, log logging.Logger) *Service {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Service{client: client, log: log}
}

// Refresh refetches the saved citations. A failure leaves the previous mirror
// in place.
func (s *Service) Refresh(ctx context.Context) error {
	citations, err := s.client.Library(ctx)
	if err != nil {
		s.log.Warn(ctx, "library fetch failed", "err", err)
		return err
	}
	s.mu.Lock()
	s.citations = citations
	s.mu.Unlock()
	return nil
}

// Citations returns a copy of the mirror, optionally filtered by source type
// (quran, hadith, fiqh). An empty filter returns everything.
func (s *Service) Citations(sourceType string) []models.LibraryCitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sourceType == "" {
		return append([]models.LibraryCitation(nil), s.citations...)
	}
	var out []models.LibraryCitation
	for _, c := range s.citations {
		if strings.EqualFold(c.SourceType, sourceType) {
			out = append(out, c)
		}
	}
	return out
}

// Save stores a citation on the backend and appends the server's copy to the
// mirror. The server assigns the id and resolves the content text.
func (s *Service) Save(ctx context.Context, sourceType, sourceID string) (*models.LibraryCitation, error) {
	citation, err := s.client.SaveCitation(ctx, sourceType, sourceID)
	if err != nil {
		s.log.Warn(ctx, "citation save failed", "source_type", sourceType, "source_id", sourceID, "err", err)
		return nil, err
	}
	s.mu.Lock()
	s.citations = append(s.citations, *citation)
	s.mu.Unlock()
	s.log.Info(ctx, "citation saved", "citation_id", citation.ID)
	return citation, nil
}

// Delete removes a citation on the backend and from the mirror.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.client.DeleteCitation(ctx, id); err != nil {
		s.log.Warn(ctx, "citation delete failed", "citation_id", id, "err", err)
		return err
	}
	s.mu.Lock()
	kept := s.citations[:0]
	for _, c := range s.citations {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.citations = kept
	s.mu.Unlock()
	return nil
}
