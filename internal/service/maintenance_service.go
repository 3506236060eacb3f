package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Default retention windows applied by the nightly housekeeping run.
const (
	DefaultOccurrenceRetention       = 5 * 365 * 24 * time.Hour
	DefaultArchivedDocumentRetention = 10 * 365 * 24 * time.Hour
)

type storedFileLister interface {
	List() ([]string, error)
	Delete(name string) error
}

type attachmentPathLister interface {
	ListPaths(ctx context.Context) ([]string, error)
}

type occurrencePurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type documentPurger interface {
	StampPurged(ctx context.Context, cutoff, now time.Time) (int64, error)
}

type reservationExpirer interface {
	ExpireReservations(ctx context.Context, schoolID string) (int64, error)
}

// MaintenanceReport summarises one housekeeping pass.
type MaintenanceReport struct {
	OrphanFilesRemoved   int   `json:"orphan_files_removed"`
	OccurrencesPurged    int64 `json:"occurrences_purged"`
	DocumentsPurged      int64 `json:"documents_purged"`
	ReservationsReleased int64 `json:"reservations_released"`
}

// MaintenanceServiceParams groups the collaborators of MaintenanceService.
type MaintenanceServiceParams struct {
	Files                     storedFileLister
	Attachments               attachmentPathLister
	Occurrences               occurrencePurger
	Documents                 documentPurger
	Numbering                 reservationExpirer
	OccurrenceRetention       time.Duration
	ArchivedDocumentRetention time.Duration
	Logger                    *zap.Logger
}

// MaintenanceService removes orphan uploads and applies retention windows.
type MaintenanceService struct {
	files               storedFileLister
	attachments         attachmentPathLister
	occurrences         occurrencePurger
	documents           documentPurger
	numbering           reservationExpirer
	occurrenceRetention time.Duration
	documentRetention   time.Duration
	logger              *zap.Logger
	now                 func() time.Time
}

// NewMaintenanceService constructs the service. Zero retentions fall back to the defaults.
func NewMaintenanceService(params MaintenanceServiceParams) *MaintenanceService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	occurrenceRetention := params.OccurrenceRetention
	if occurrenceRetention <= 0 {
		occurrenceRetention = DefaultOccurrenceRetention
	}
	documentRetention := params.ArchivedDocumentRetention
	if documentRetention <= 0 {
		documentRetention = DefaultArchivedDocumentRetention
	}
	return &MaintenanceService{
		files:               params.Files,
		attachments:         params.Attachments,
		occurrences:         params.Occurrences,
		documents:           params.Documents,
		numbering:           params.Numbering,
		occurrenceRetention: occurrenceRetention,
		documentRetention:   documentRetention,
		logger:              logger,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

// Run executes every housekeeping task. Tasks run concurrently and the first failure is returned
// once all of them have finished.
func (s *MaintenanceService) Run(ctx context.Context) (MaintenanceReport, error) {
	var report MaintenanceReport
	now := s.now()

	var g errgroup.Group
	g.Go(func() error {
		removed, err := s.removeOrphans(ctx)
		report.OrphanFilesRemoved = removed
		return err
	})
	g.Go(func() error {
		purged, err := s.occurrences.PurgeBefore(ctx, now.Add(-s.occurrenceRetention))
		report.OccurrencesPurged = purged
		return err
	})
	g.Go(func() error {
		purged, err := s.documents.StampPurged(ctx, now.Add(-s.documentRetention), now)
		report.DocumentsPurged = purged
		return err
	})
	g.Go(func() error {
		released, err := s.numbering.ExpireReservations(ctx, "")
		report.ReservationsReleased = released
		return err
	})
	err := g.Wait()

	s.logger.Info("maintenance finished",
		zap.Int("orphan_files_removed", report.OrphanFilesRemoved),
		zap.Int64("occurrences_purged", report.OccurrencesPurged),
		zap.Int64("documents_purged", report.DocumentsPurged),
		zap.Int64("reservations_released", report.ReservationsReleased),
		zap.Error(err),
	)
	return report, err
}

func (s *MaintenanceService) removeOrphans(ctx context.Context) (int, error) {
	known, err := s.attachments.ListPaths(ctx)
	if err != nil {
		return 0, err
	}
	referenced := make(map[string]struct{}, len(known))
	for _, path := range known {
		referenced[path] = struct{}{}
	}
	stored, err := s.files.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range stored {
		if _, ok := referenced[name]; ok {
			continue
		}
		if err := s.files.Delete(name); err != nil {
			s.logger.Warn("remove orphan upload", zap.String("path", name), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}
