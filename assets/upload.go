package assets

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/code19m/errx"
	"github.com/gabriel-vasile/mimetype"

	"github.com/meridiancms/mediacore/events"
	"github.com/meridiancms/mediacore/filestore"
	"github.com/meridiancms/mediacore/meta"
	"github.com/meridiancms/mediacore/metadata"
	"github.com/meridiancms/mediacore/records"
)

// designExt marks legacy design-document bundles that carry an
// embedded preview image.
const designExt = ".xd"

// Upload streams file content to the configured disk and records it.
//
// With an empty existingID a new record is created; otherwise the
// upload replaces the record's content in place and previously stored
// objects under the same id are purged first. The record row always
// exists before bytes start flowing, so a crashed upload leaves a
// traceable row rather than an orphaned object.
//
// Storage and metadata failures after the record exists are logged and
// absorbed: the upload still finishes with whatever could be captured.
// Only record-store failures abort.
func (s *Service) Upload(ctx context.Context, stream io.Reader, payload records.FileRecord, existingID string) (string, error) {
	if payload.Storage == "" {
		return "", errx.New(
			"storage is required",
			errx.WithCode(CodeMissingStorage),
			errx.WithType(errx.T_Validation),
		)
	}
	if payload.FilenameDownload == "" {
		return "", errx.New(
			"filename_download is required",
			errx.WithCode(CodeMissingFilename),
			errx.WithType(errx.T_Validation),
		)
	}

	disk, err := s.disks.Get(payload.Storage)
	if err != nil {
		return "", err
	}

	if payload.Type == "" {
		payload.Type = filestore.ContentTypeOctetStream
	}
	if payload.UploadedBy == nil {
		if actor := meta.Find(ctx, meta.RequestUserID); actor != "" {
			payload.UploadedBy = &actor
		}
	}

	// Caller intent is checked against the pre-merge payload so a
	// replace does not mistake previously autofilled values for it.
	callerTitle, callerDescription := payload.Title, payload.Description

	action := events.FileUploaded
	rec := payload
	if existingID != "" {
		action = events.FileReplaced
		s.purgeObjects(ctx, disk, existingID)

		rec.ID = existingID
		if err := s.store.Update(ctx, &rec); err != nil {
			return "", errx.Wrap(err)
		}
	} else {
		if _, err := s.store.Create(ctx, &rec); err != nil {
			return "", errx.Wrap(err)
		}
	}
	id := rec.ID

	rec.FilenameDisk = id + "." + extensionFor(payload.Type, payload.FilenameDownload)

	switch payload.Type {
	case filestore.ContentTypeJPEG, filestore.ContentTypePNG, filestore.ContentTypeGIF,
		filestore.ContentTypeWebP, filestore.ContentTypeTIFF:
		s.storeImage(ctx, disk, stream, &rec, callerTitle, callerDescription)
	default:
		s.storeGeneric(ctx, disk, stream, &rec)
	}

	final := rec
	if err := s.system.Update(ctx, &final); err != nil {
		return "", errx.Wrap(err)
	}

	s.clearCache(ctx)
	s.publishFile(ctx, events.FileEvent{Action: action, ID: id, Storage: rec.Storage})

	return id, nil
}

// storeImage writes the stream to disk while a second pass extracts
// dimensions and embedded metadata from the head of the same bytes.
// The two passes share one read of the source.
func (s *Service) storeImage(ctx context.Context, disk filestore.Disk, stream io.Reader, rec *records.FileRecord, callerTitle, callerDescription string) {
	type extraction struct {
		summary metadata.Summary
		results []metadata.Result
		size    int64
		err     error
	}

	pr, pw := io.Pipe()
	done := make(chan extraction, 1)

	go func() {
		head, err := io.ReadAll(io.LimitReader(pr, s.cfg.MetadataReadLimit))
		if err != nil {
			done <- extraction{err: err}
			return
		}
		rest, err := io.Copy(io.Discard, pr)
		if err != nil {
			done <- extraction{err: err}
			return
		}

		summary, results := s.extractor.ImageSummary(head)
		done <- extraction{summary: summary, results: results, size: int64(len(head)) + rest}
	}()

	// Closing with the put error releases the metadata side: a failed
	// write surfaces there as a read error, so no summary derived from
	// bytes that never stored makes it onto the record.
	putErr := disk.Put(ctx, rec.FilenameDisk, io.TeeReader(stream, pw))
	_ = pw.CloseWithError(putErr)
	ext := <-done

	log := s.log.WithContext(ctx)
	if putErr != nil {
		log.With("error", putErr, "path", rec.FilenameDisk).Warn("[assets]: storing image failed")
	}
	if ext.err != nil {
		log.With("error", ext.err).Warn("[assets]: reading image for metadata failed")
		return
	}

	// Most images carry only a subset of the metadata stages, so a
	// failed stage is routine and logged at debug.
	for _, res := range ext.results {
		if res.Err != nil {
			log.With("error", res.Err, "stage", res.Name).Debug("[assets]: image metadata stage failed")
		}
	}

	rec.Filesize = &ext.size
	rec.Width = ext.summary.Width
	rec.Height = ext.summary.Height

	md := make(map[string]any)
	if ext.summary.EXIF != nil {
		md["exif"] = ext.summary.EXIF
	}
	if ext.summary.IPTC != nil {
		md["iptc"] = ext.summary.IPTC
	}
	if ext.summary.ICC != nil {
		md["icc"] = ext.summary.ICC
	}
	if len(md) > 0 {
		rec.Metadata = md
	}

	if callerTitle == "" && ext.summary.Title != "" {
		rec.Title = ext.summary.Title
	}
	if callerDescription == "" && ext.summary.Description != "" {
		rec.Description = ext.summary.Description
	}
}

// storeGeneric writes the stream to disk and sizes it with a stat call
// afterwards. Design-document bundles additionally get a preview
// extracted and stored next to the original.
func (s *Service) storeGeneric(ctx context.Context, disk filestore.Disk, stream io.Reader, rec *records.FileRecord) {
	log := s.log.WithContext(ctx)

	if err := disk.Put(ctx, rec.FilenameDisk, stream); err != nil {
		log.With("error", err, "path", rec.FilenameDisk).Warn("[assets]: storing file failed")
	}

	stat, err := disk.GetStat(ctx, rec.FilenameDisk)
	if err != nil {
		log.With("error", err, "path", rec.FilenameDisk).Warn("[assets]: sizing stored file failed")
	} else {
		rec.Filesize = &stat.Size
	}

	if rec.Type == filestore.ContentTypeOctetStream && strings.HasSuffix(strings.ToLower(rec.FilenameDownload), designExt) {
		s.storeDesignPreview(ctx, disk, rec.ID, rec.FilenameDisk)
	}
}

// storeDesignPreview reopens the stored bundle, extracts its preview
// and saves it as {id}.png beside the original.
func (s *Service) storeDesignPreview(ctx context.Context, disk filestore.Disk, id, path string) {
	log := s.log.WithContext(ctx)

	rc, err := disk.GetStream(ctx, path)
	if err != nil {
		log.With("error", err, "path", path).Warn("[assets]: reopening design bundle failed")
		return
	}
	defer func() { _ = rc.Close() }()

	preview, err := s.extractor.XDPreview(ctx, rc)
	if err != nil {
		log.With("error", err, "path", path).Warn("[assets]: extracting design preview failed")
		return
	}

	if err := disk.Put(ctx, id+".png", bytes.NewReader(preview)); err != nil {
		log.With("error", err).Warn("[assets]: storing design preview failed")
	}
}

// extensionFor derives the on-disk extension from the declared content
// type, falling back to the download name and finally to "bin".
func extensionFor(contentType, downloadName string) string {
	if m := mimetype.Lookup(contentType); m != nil {
		if ext := strings.TrimPrefix(m.Extension(), "."); ext != "" {
			return ext
		}
	}
	if ext := strings.TrimPrefix(filepath.Ext(downloadName), "."); ext != "" {
		return strings.ToLower(ext)
	}
	return "bin"
}
