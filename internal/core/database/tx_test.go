package database_test

import (
	"context"
	"errors"

	"github.com/frahmantamala/expense-reporting/internal/core/database"
	categoryDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/category"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TransactionManager", func() {
	var (
		conns *database.Connections
		txm   database.TransactionManager
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		conns, err = database.OpenSQLiteMemory()
		Expect(err).NotTo(HaveOccurred())
		txm = database.NewTransactionManager(conns.Gorm)
		ctx = context.Background()
	})

	AfterEach(func() {
		conns.Close()
	})

	count := func() int64 {
		var n int64
		Expect(conns.Gorm.Model(&categoryDatamodel.Category{}).Count(&n).Error).NotTo(HaveOccurred())
		return n
	}

	It("commits when the callback succeeds", func() {
		err := txm.RunInTx(ctx, func(txCtx context.Context) error {
			return database.GetDB(txCtx, conns.Gorm).Create(&categoryDatamodel.Category{Name: "Meals", IsActive: true}).Error
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(count()).To(Equal(int64(1)))
	})

	It("rolls back every write when the callback fails", func() {
		boom := errors.New("boom")
		err := txm.RunInTx(ctx, func(txCtx context.Context) error {
			db := database.GetDB(txCtx, conns.Gorm)
			Expect(db.Create(&categoryDatamodel.Category{Name: "Meals", IsActive: true}).Error).NotTo(HaveOccurred())
			Expect(db.Create(&categoryDatamodel.Category{Name: "Lodging", IsActive: true}).Error).NotTo(HaveOccurred())
			return boom
		})
		Expect(err).To(MatchError(boom))
		Expect(count()).To(BeZero())
	})

	It("joins an outer transaction when nested", func() {
		boom := errors.New("boom")
		err := txm.RunInTx(ctx, func(outer context.Context) error {
			inner := txm.RunInTx(outer, func(innerCtx context.Context) error {
				return database.GetDB(innerCtx, conns.Gorm).Create(&categoryDatamodel.Category{Name: "Meals", IsActive: true}).Error
			})
			Expect(inner).NotTo(HaveOccurred())
			return boom
		})
		Expect(err).To(MatchError(boom))
		Expect(count()).To(BeZero())
	})
})
