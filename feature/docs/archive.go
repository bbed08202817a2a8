package docs

import (
	"context"
	"fmt"
	"strings"

	"doc-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ArchiveMover relocates a published document's draft files from the active
// prefix to the archive prefix in object storage.
type ArchiveMover struct {
	client        storage.Client
	bucket        string
	draftPrefix   string
	archivePrefix string
	logger        *zap.Logger
}

// NewArchiveMover creates an archive mover over the given storage client.
func NewArchiveMover(client storage.Client, bucket, draftPrefix, archivePrefix string, logger *zap.Logger) *ArchiveMover {
	return &ArchiveMover{
		client:        client,
		bucket:        bucket,
		draftPrefix:   strings.TrimSuffix(draftPrefix, "/"),
		archivePrefix: strings.TrimSuffix(archivePrefix, "/"),
		logger:        logger,
	}
}

// MoveDraftFilesToArchive moves every stored file of the document (all
// revisions and formats) into the archive prefix. Copy-then-remove per
// object; the first failure aborts and is returned.
func (m *ArchiveMover) MoveDraftFilesToArchive(ctx context.Context, doc *Document) error {
	prefix := fmt.Sprintf("%s/%s", m.draftPrefix, doc.Name)

	moved := 0
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list draft files for %s: %w", doc.Name, obj.Err)
		}

		base := obj.Key[strings.LastIndex(obj.Key, "/")+1:]
		dstKey := fmt.Sprintf("%s/%s", m.archivePrefix, base)

		_, err := m.client.CopyObject(ctx,
			minio.CopyDestOptions{Bucket: m.bucket, Object: dstKey},
			minio.CopySrcOptions{Bucket: m.bucket, Object: obj.Key},
		)
		if err != nil {
			return fmt.Errorf("failed to copy %s to archive: %w", obj.Key, err)
		}

		if err := m.client.RemoveObject(ctx, m.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to remove %s after archiving: %w", obj.Key, err)
		}

		moved++
	}

	if moved > 0 {
		m.logger.Info("Moved draft files to archive",
			zap.String("doc", doc.Name),
			zap.Int("files", moved))
	}
	return nil
}
