package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"todolist/models"
	"todolist/store"
)

func newAccount(t *testing.T, s store.Store, email string) models.Account {
	t.Helper()
	a, err := s.CreateAccount(context.Background(), models.Account{
		Username:     "tester",
		Email:        email,
		PasswordHash: []byte("hash"),
	})
	if err != nil {
		t.Fatalf("CreateAccount(%s) error = %v", email, err)
	}
	return a
}

// testStore runs the behaviour every backend must share.
func testStore(t *testing.T, s store.Store) {
	ctx := context.Background()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	suffix := uuid.NewString()[:8]
	alice := newAccount(t, s, "alice-"+suffix+"@example.com")
	bob := newAccount(t, s, "bob-"+suffix+"@example.com")

	t.Run("Insert assigns id and timestamps", func(t *testing.T) {
		due := models.Date{Year: 2025, Month: 5, Day: 17}
		got, err := s.Insert(ctx, alice.ID, models.Task{Title: "Buy milk", Priority: models.PriorityHigh, DueDate: &due})
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if _, err := uuid.Parse(got.ID); err != nil {
			t.Errorf("Insert() id = %q, want a uuid", got.ID)
		}
		if got.OwnerID != alice.ID || got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
			t.Errorf("Insert() = %+v", got)
		}
		if got.DueDate == nil || *got.DueDate != due {
			t.Errorf("Insert() due date = %v, want %v", got.DueDate, due)
		}

		fetched, err := s.Get(ctx, alice.ID, got.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if fetched.Title != "Buy milk" || fetched.Priority != models.PriorityHigh || fetched.Completed {
			t.Errorf("Get() = %+v", fetched)
		}
	})

	t.Run("Update applies only supplied fields", func(t *testing.T) {
		created, err := s.Insert(ctx, alice.ID, models.Task{Title: "Walk dog", Priority: models.PriorityLow})
		if err != nil {
			t.Fatal(err)
		}

		done := true
		got, err := s.Update(ctx, alice.ID, created.ID, models.TaskPatch{Completed: &done})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if !got.Completed || got.Title != "Walk dog" || got.Priority != models.PriorityLow || got.DueDate != nil {
			t.Errorf("Update() = %+v", got)
		}
		if got.ID != created.ID {
			t.Errorf("Update() changed id from %s to %s", created.ID, got.ID)
		}

		due := models.Date{Year: 2030, Month: 1, Day: 1}
		got, err = s.Update(ctx, alice.ID, created.ID, models.TaskPatch{DueDate: models.SetDate(due)})
		if err != nil {
			t.Fatal(err)
		}
		if got.DueDate == nil || *got.DueDate != due || !got.Completed {
			t.Errorf("Update() due date = %+v", got)
		}

		got, err = s.Update(ctx, alice.ID, created.ID, models.TaskPatch{DueDate: models.ClearDate()})
		if err != nil {
			t.Fatal(err)
		}
		if got.DueDate != nil {
			t.Errorf("Update() did not clear due date: %v", got.DueDate)
		}
	})

	t.Run("Delete then Get is NotFound", func(t *testing.T) {
		created, err := s.Insert(ctx, alice.ID, models.Task{Title: "Temporary", Priority: models.PriorityMedium})
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Delete(ctx, alice.ID, created.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := s.Get(ctx, alice.ID, created.ID); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
		}
		if err := s.Delete(ctx, alice.ID, created.ID); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("second Delete() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Other owners see NotFound", func(t *testing.T) {
		created, err := s.Insert(ctx, alice.ID, models.Task{Title: "Private", Priority: models.PriorityMedium})
		if err != nil {
			t.Fatal(err)
		}
		title := "hijacked"

		if _, err := s.Get(ctx, bob.ID, created.ID); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Get() by other owner error = %v", err)
		}
		if _, err := s.Update(ctx, bob.ID, created.ID, models.TaskPatch{Title: &title}); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Update() by other owner error = %v", err)
		}
		if err := s.Delete(ctx, bob.ID, created.ID); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Delete() by other owner error = %v", err)
		}

		list, err := s.ListAll(ctx, bob.ID)
		if err != nil {
			t.Fatal(err)
		}
		for _, task := range list {
			if task.ID == created.ID {
				t.Errorf("ListAll() leaked a task of another owner")
			}
		}

		still, err := s.Get(ctx, alice.ID, created.ID)
		if err != nil || still.Title != "Private" {
			t.Errorf("task changed by other owner: %+v, %v", still, err)
		}
	})

	t.Run("Malformed ids are NotFound", func(t *testing.T) {
		if _, err := s.Get(ctx, alice.ID, "not-a-uuid"); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Get() error = %v", err)
		}
		if err := s.Delete(ctx, alice.ID, ""); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Delete() error = %v", err)
		}
	})

	t.Run("ListAll is oldest first", func(t *testing.T) {
		carol := newAccount(t, s, "carol-"+suffix+"@example.com")
		var want []string
		for _, title := range []string{"one", "two", "three"} {
			created, err := s.Insert(ctx, carol.ID, models.Task{Title: title, Priority: models.PriorityMedium})
			if err != nil {
				t.Fatal(err)
			}
			want = append(want, created.ID)
		}

		list, err := s.ListAll(ctx, carol.ID)
		if err != nil {
			t.Fatalf("ListAll() error = %v", err)
		}
		if len(list) != len(want) {
			t.Fatalf("ListAll() returned %d tasks, want %d", len(list), len(want))
		}
		for i := range want {
			if list[i].ID != want[i] {
				t.Errorf("ListAll()[%d] = %s, want %s", i, list[i].Title, want[i])
			}
		}
	})

	t.Run("Accounts", func(t *testing.T) {
		email := "Dana-" + suffix + "@Example.com"
		created := newAccount(t, s, email)

		_, err := s.CreateAccount(ctx, models.Account{Username: "dup", Email: email, PasswordHash: []byte("x")})
		if !errors.Is(err, models.ErrDuplicateEmail) {
			t.Errorf("duplicate CreateAccount() error = %v, want ErrDuplicateEmail", err)
		}

		byEmail, err := s.AccountByEmail(ctx, email)
		if err != nil || byEmail.ID != created.ID {
			t.Errorf("AccountByEmail() = %+v, %v", byEmail, err)
		}
		byID, err := s.AccountByID(ctx, created.ID)
		if err != nil || string(byID.PasswordHash) != "hash" {
			t.Errorf("AccountByID() = %+v, %v", byID, err)
		}
		if _, err := s.AccountByEmail(ctx, "nobody-"+suffix+"@example.com"); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("AccountByEmail(unknown) error = %v", err)
		}
		if _, err := s.AccountByID(ctx, uuid.New()); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("AccountByID(unknown) error = %v", err)
		}
	})

	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
