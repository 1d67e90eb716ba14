package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"shiptrack/internal/model"
)

var (
	// ErrUnsealed is returned when an operation needs a fingerprint the
	// document does not have yet.
	ErrUnsealed = errors.New("document has no fingerprint")
	// ErrObjectNotFound is returned when no stored copy exists for a
	// fingerprint.
	ErrObjectNotFound = errors.New("no stored document for fingerprint")
)

// OffChainStore is the adapter contract the services consume for
// off-chain document storage.
type OffChainStore interface {
	UploadFile(ctx context.Context, doc *model.Document) (string, error)
	RetrieveFile(ctx context.Context, fingerprint string) (*model.Document, error)
	VerifyIntegrity(ctx context.Context, doc *model.Document) bool
}

// OffChain adapts the object store to the contract the services
// consume: documents are keyed by their fingerprint, so the hash both
// addresses the stored copy and anchors its integrity.
type OffChain struct {
	store Storage
}

// NewOffChain wraps an object store in the off-chain adapter.
func NewOffChain(store Storage) *OffChain {
	return &OffChain{store: store}
}

var _ OffChainStore = (*OffChain)(nil)

func objectKey(fingerprint string) string {
	return path.Join("documents", fingerprint)
}

// UploadFile stores the document's content under its fingerprint and
// returns the fingerprint. The document is sealed first if needed;
// sealing twice over unchanged content is a no-op.
func (o *OffChain) UploadFile(ctx context.Context, doc *model.Document) (string, error) {
	if doc == nil {
		return "", errors.New("document is nil")
	}
	if !doc.Sealed() {
		doc.Seal()
	}
	if !doc.Sealed() {
		return "", ErrUnsealed
	}

	_, err := o.store.Put(ctx, objectKey(doc.Fingerprint), bytes.NewReader(doc.Content), PutObjectOptions{
		Size:        int64(len(doc.Content)),
		ContentType: "application/octet-stream",
		Metadata: map[string]string{
			"document-name": doc.Name,
			"document-id":   doc.ID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload to off-chain storage: %w", err)
	}
	return doc.Fingerprint, nil
}

// RetrieveFile fetches the stored copy addressed by fingerprint and
// rebuilds a document from it.
func (o *OffChain) RetrieveFile(ctx context.Context, fingerprint string) (*model.Document, error) {
	if fingerprint == "" {
		return nil, ErrUnsealed
	}
	rc, info, err := o.store.Get(ctx, objectKey(fingerprint))
	if err != nil {
		return nil, ErrObjectNotFound
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read stored document: %w", err)
	}

	return &model.Document{
		ID:          info.Metadata["document-id"],
		Name:        info.Metadata["document-name"],
		Fingerprint: fingerprint,
		StoragePath: info.Key,
		Content:     content,
		CreatedAt:   info.LastModified,
	}, nil
}

// VerifyIntegrity retrieves the stored copy for the document's
// fingerprint and recomputes its hash. False on any absence or
// mismatch; true only when the stored bytes still hash to the
// fingerprint.
func (o *OffChain) VerifyIntegrity(ctx context.Context, doc *model.Document) bool {
	if doc == nil || !doc.Sealed() {
		return false
	}
	stored, err := o.RetrieveFile(ctx, doc.Fingerprint)
	if err != nil {
		return false
	}
	return stored.Verify()
}
