package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/frahmantamala/expense-reporting/internal/storage"
	"github.com/frahmantamala/expense-reporting/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type failingStore struct {
	deletes []string
}

func (f *failingStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "", errors.New("bucket unavailable")
}

func (f *failingStore) Delete(ctx context.Context, url string) error {
	f.deletes = append(f.deletes, url)
	return errors.New("bucket unavailable")
}

var _ = Describe("Receipts", func() {
	var (
		ctx context.Context
		dir string
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
	})

	It("should store receipts on disk under the user's folder", func() {
		local, err := storage.NewLocalStore(dir)
		Expect(err).NotTo(HaveOccurred())
		receipts := storage.NewReceipts(local, logger.Discard())

		url := receipts.Save(ctx, 7, "Lunch.JPG", []byte("image-bytes"))

		Expect(url).To(MatchRegexp(`^receipts/7/7_[0-9a-f-]{36}\.jpg$`))
		content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(url)))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(Equal("image-bytes"))

		receipts.Delete(ctx, url)
		_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(url)))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("should fall back to a placeholder when the store fails", func() {
		receipts := storage.NewReceipts(&failingStore{}, logger.Discard())

		url := receipts.Save(ctx, 3, "taxi.png", []byte("x"))

		Expect(url).To(Equal("local://receipts/3/taxi.png"))
	})

	It("should skip placeholders on delete", func() {
		store := &failingStore{}
		receipts := storage.NewReceipts(store, logger.Discard())

		receipts.Delete(ctx, "local://receipts/3/taxi.png")
		receipts.Delete(ctx, "https://storage.googleapis.com/bucket/receipts/3/x.png")

		Expect(store.deletes).To(Equal([]string{"https://storage.googleapis.com/bucket/receipts/3/x.png"}))
	})

	It("should refuse keys that escape the storage dir", func() {
		local, err := storage.NewLocalStore(dir)
		Expect(err).NotTo(HaveOccurred())

		_, err = local.Put(ctx, "../outside.png", []byte("x"), "image/png")
		Expect(err).To(MatchError(storage.ErrNotManaged))
	})

	DescribeTable("extensions",
		func(name string, allowed bool, contentType string) {
			Expect(storage.AllowedExtension(name)).To(Equal(allowed))
			Expect(storage.ContentType(name)).To(Equal(contentType))
		},
		Entry("jpeg", "a.jpeg", true, "image/jpeg"),
		Entry("upper case webp", "b.WEBP", true, "image/webp"),
		Entry("pdf", "c.pdf", false, "application/octet-stream"),
		Entry("no extension", "receipt", false, "application/octet-stream"),
	)
})
