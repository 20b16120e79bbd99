package services

import (
	"context"
	"strings"

	"github.com/trailblaize/outreach-engine/internal/model"
	"github.com/trailblaize/outreach-engine/pkg/logger"
)

// ImportContactRepository is the slice of contact persistence the importer
// needs.
type ImportContactRepository interface {
	ExistingPhones(ctx context.Context, chapterID string) (map[string]bool, error)
	InsertBatch(ctx context.Context, contacts []*model.Contact) (int, error)
}

// Partitioner queues freshly imported contacts onto sending lines.
type Partitioner interface {
	Assign(ctx context.Context, params model.AssignRequest) (*model.AssignResult, error)
}

// ImportService normalizes and dedupes parsed contact rows before insert,
// then hands the new contacts to the partitioner.
type ImportService struct {
	contactRepo ImportContactRepository
	partitioner Partitioner
}

func NewImportService(contactRepo ImportContactRepository, partitioner Partitioner) *ImportService {
	return &ImportService{
		contactRepo: contactRepo,
		partitioner: partitioner,
	}
}

// Import loads contact rows into a chapter. Phones are normalized to E.164;
// rows whose primary phone cannot be normalized are reported with their
// 1-based row index; duplicates against the chapter or within the batch are
// dropped silently. Inserted contacts are queued right away; an assignment
// failure does not undo the committed import. Exact counts come back so the
// caller can reconcile the upload.
func (s *ImportService) Import(ctx context.Context, params model.ImportRequest) (*model.ImportResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.contactRepo.ExistingPhones(ctx, params.ChapterID)
	if err != nil {
		return nil, err
	}

	result := &model.ImportResult{Errors: []model.RowError{}}
	seen := make(map[string]bool, len(params.Rows))
	var contacts []*model.Contact

	for i, row := range params.Rows {
		phone, ok := model.NormalizePhone(row.Phone)
		if !ok {
			result.Skipped++
			result.Errors = append(result.Errors, model.RowError{
				Row:     i + 1,
				Message: model.InvalidPhoneError(row.Phone),
			})
			continue
		}
		if existing[phone] || seen[phone] {
			result.Duplicates++
			continue
		}
		seen[phone] = true

		contact := &model.Contact{
			ChapterID:      params.ChapterID,
			FirstName:      strings.TrimSpace(row.FirstName),
			LastName:       strings.TrimSpace(row.LastName),
			PhonePrimary:   &phone,
			Year:           model.BoundYear(row.Year),
			OutreachStatus: model.OutreachStatusNotContacted,
		}
		// an unusable secondary phone is dropped, only the primary gates a row
		if secondary, ok := model.NormalizePhone(row.SecondaryPhone); ok && secondary != phone {
			contact.PhoneSecondary = &secondary
			result.DualPhone++
		}
		if email := strings.TrimSpace(row.Email); email != "" {
			contact.Email = &email
		}
		contacts = append(contacts, contact)
	}

	inserted, err := s.contactRepo.InsertBatch(ctx, contacts)
	if err != nil {
		return nil, err
	}
	result.Imported = inserted

	if s.partitioner != nil && inserted > 0 {
		assigned, err := s.partitioner.Assign(ctx, model.AssignRequest{ChapterID: params.ChapterID})
		if err != nil {
			logger.Warn("imported contacts not queued", "chapter", params.ChapterID, "error", err)
		} else {
			result.QueueAssigned = assigned.QueueAssigned
		}
	}

	logger.Info("contacts imported",
		"chapter", params.ChapterID,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"duplicates", result.Duplicates,
		"queued", result.QueueAssigned)

	return result, nil
}
