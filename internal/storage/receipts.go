package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const placeholderScheme = "local://"

// Receipts stores uploaded receipt images. Storage failures never fail the caller:
// the expense records a placeholder URL instead.
type Receipts struct {
	store  Store
	logger *slog.Logger
}

func NewReceipts(store Store, logger *slog.Logger) *Receipts {
	return &Receipts{store: store, logger: logger}
}

// ObjectKey builds receipts/<user>/<user>_<uuid><ext>.
func ObjectKey(userID int64, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("receipts/%d/%d_%s%s", userID, userID, uuid.NewString(), ext)
}

// Placeholder is recorded when the upload could not be stored.
func Placeholder(userID int64, originalName string) string {
	return fmt.Sprintf("%sreceipts/%d/%s", placeholderScheme, userID, filepath.Base(originalName))
}

func (r *Receipts) Save(ctx context.Context, userID int64, originalName string, data []byte) string {
	key := ObjectKey(userID, originalName)
	url, err := r.store.Put(ctx, key, data, ContentType(originalName))
	if err != nil {
		r.logger.Warn("receipt upload failed, using placeholder", "user_id", userID, "file", originalName, "error", err)
		return Placeholder(userID, originalName)
	}
	r.logger.Debug("receipt stored", "user_id", userID, "url", url)
	return url
}

// Delete removes a stored receipt. Placeholders and failures are logged and ignored.
func (r *Receipts) Delete(ctx context.Context, url string) {
	if url == "" || strings.HasPrefix(url, placeholderScheme) {
		return
	}
	if err := r.store.Delete(ctx, url); err != nil {
		r.logger.Warn("receipt delete failed", "url", url, "error", err)
	}
}
