package assets

import (
	"context"

	"github.com/code19m/errx"

	"github.com/meridiancms/mediacore/events"
	"github.com/meridiancms/mediacore/records"
)

// DeleteOne removes a single file and its stored objects.
func (s *Service) DeleteOne(ctx context.Context, id string) (string, error) {
	ids, err := s.Delete(ctx, []string{id})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// Delete removes the records for ids and sweeps their stored objects.
//
// The rows are deleted first so the database stops referencing files
// before any object disappears; the object sweep then removes every
// path under each id, previews included. Sweep failures are logged and
// skipped. When the policy-guarded read resolves none of the ids the
// call fails with an access error so existence is not leaked.
func (s *Service) Delete(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, errx.New(
			"no file ids given",
			errx.WithCode(CodeNoFilesGiven),
			errx.WithType(errx.T_Validation),
		)
	}

	rows, err := s.store.GetByIDs(ctx, ids, "id", "storage")
	if err != nil {
		return nil, errx.Wrap(err)
	}
	if len(rows) == 0 {
		return nil, errx.New(
			"access denied",
			errx.WithCode(records.CodeAccessDenied),
			errx.WithType(errx.T_Forbidden),
		)
	}

	if _, err := s.store.Delete(ctx, ids); err != nil {
		return nil, errx.Wrap(err)
	}

	for _, row := range rows {
		disk, err := s.disks.Get(row.Storage)
		if err != nil {
			s.log.WithContext(ctx).With("error", err, "storage", row.Storage).Warn("[assets]: resolving disk for sweep failed")
			continue
		}
		s.purgeObjects(ctx, disk, row.ID)
	}

	s.clearCache(ctx)
	s.publishFile(ctx, events.FileEvent{Action: events.FileDeleted, IDs: ids})

	return ids, nil
}
