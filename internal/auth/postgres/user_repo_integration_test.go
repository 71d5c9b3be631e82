// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

//go:build integration

package postgres_test

import (
	"sync"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/userportal/userportal/internal/auth"
	"github.com/userportal/userportal/internal/auth/postgres"
)

var _ = Describe("UserRepository", func() {
	var repo *postgres.UserRepository

	BeforeEach(func() {
		repo = postgres.NewUserRepository(testPool)
		_, err := testPool.Exec(suiteCtx, `TRUNCATE users`)
		Expect(err).NotTo(HaveOccurred())
	})

	newUser := func(email string) *auth.User {
		u, err := auth.NewUser("John", "Doe", email, "$2a$10$digest")
		Expect(err).NotTo(HaveOccurred())
		return u
	}

	It("round-trips a user", func() {
		user := newUser("user@example.com")
		Expect(repo.Create(suiteCtx, user)).To(Succeed())

		byEmail, err := repo.GetByEmail(suiteCtx, "user@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(byEmail.ID).To(Equal(user.ID))
		Expect(byEmail.PasswordHash).To(Equal("$2a$10$digest"))

		byID, err := repo.GetByID(suiteCtx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.Email).To(Equal("user@example.com"))
	})

	It("treats email as case-sensitive", func() {
		Expect(repo.Create(suiteCtx, newUser("user@example.com"))).To(Succeed())
		_, err := repo.GetByEmail(suiteCtx, "USER@example.com")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("maps the unique index to ErrDuplicateEmail", func() {
		Expect(repo.Create(suiteCtx, newUser("dup@example.com"))).To(Succeed())
		err := repo.Create(suiteCtx, newUser("dup@example.com"))
		Expect(err).To(MatchError(auth.ErrDuplicateEmail))
	})

	It("lets exactly one concurrent insert win", func() {
		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			dupes     int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				err := repo.Create(suiteCtx, newUser("race@example.com"))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case auth.OutcomeOf(err) == auth.OutcomeDuplicate:
					dupes++
				}
			}()
		}
		wg.Wait()
		Expect(succeeded).To(Equal(1))
		Expect(dupes).To(Equal(workers - 1))
	})

	It("updates names and optionally the digest", func() {
		user := newUser("edit@example.com")
		Expect(repo.Create(suiteCtx, user)).To(Succeed())

		Expect(repo.Update(suiteCtx, user.ID, auth.UserUpdate{FirstName: "Jane", LastName: "Roe"})).To(Succeed())
		got, err := repo.GetByID(suiteCtx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.FirstName).To(Equal("Jane"))
		Expect(got.PasswordHash).To(Equal("$2a$10$digest"))

		digest := "$2a$10$changed"
		Expect(repo.Update(suiteCtx, user.ID, auth.UserUpdate{FirstName: "Jane", LastName: "Roe", PasswordHash: &digest})).To(Succeed())
		got, err = repo.GetByID(suiteCtx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.PasswordHash).To(Equal(digest))
	})

	It("reports missing users as not found", func() {
		_, err := repo.GetByID(suiteCtx, ulid.Make())
		Expect(err).To(MatchError(auth.ErrNotFound))

		err = repo.Update(suiteCtx, ulid.Make(), auth.UserUpdate{FirstName: "a", LastName: "b"})
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})
