package service

import (
	"context"

	"github.com/xela07ax/agentmarket-console/internal/audit"
)

// JournalReader — чтение журнала операций (Postgres).
type JournalReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Entry, error)
}

type JournalService struct {
	reader JournalReader
}

func NewJournalService(reader JournalReader) *JournalService {
	return &JournalService{reader: reader}
}

// Enabled — false, когда консоль запущена без базы и журнал пишется только в лог.
func (s *JournalService) Enabled() bool { return s.reader != nil }

func (s *JournalService) Recent(ctx context.Context, limit int) ([]audit.Entry, error) {
	if s.reader == nil {
		return []audit.Entry{}, nil
	}
	return s.reader.ListRecent(ctx, limit)
}
