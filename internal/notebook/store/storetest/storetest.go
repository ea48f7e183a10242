// Package storetest is a driver-independent conformance suite for
// store.Store implementations.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
	"github.com/aussiebroadwan/notebook/internal/notebook/store"
	"github.com/aussiebroadwan/notebook/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Factory returns a migrated, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Store

// Run exercises every repository against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("notes ownership", func(t *testing.T) { testNotesOwnership(t, newStore(t)) })
	t.Run("notes ordering", func(t *testing.T) { testNotesOrdering(t, newStore(t)) })
	t.Run("activity", func(t *testing.T) { testActivity(t, newStore(t)) })
	t.Run("stats", func(t *testing.T) { testStats(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("text round trip", func(t *testing.T) { testTextRoundTrip(t, newStore(t)) })
}

// Base is a fixed instant with a fractional part, so drivers that truncate
// sub-second precision get caught.
var Base = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

// MustUser inserts a user and returns it.
func MustUser(t *testing.T, st store.Store, name, email string, role domain.Role) domain.User {
	t.Helper()
	u := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Role:         role,
		CreatedAt:    Base,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

// MustNote inserts a note owned by ownerID at the given time.
func MustNote(t *testing.T, st store.Store, ownerID, title string, at time.Time) domain.Note {
	t.Helper()
	n := domain.Note{
		ID:        idx.NewAt(at).String(),
		Title:     title,
		Content:   "content of " + title,
		UserID:    ownerID,
		CreatedAt: at,
		UpdatedAt: at,
	}
	require.NoError(t, st.Notes().CreateNote(context.Background(), n))
	return n
}

func testUsers(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := MustUser(t, st, "Alice", "alice@example.com", domain.RoleUser)

	got, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)
	require.Equal(t, "Alice", got.Name)
	require.Equal(t, domain.RoleUser, got.Role)
	require.Nil(t, got.LastLogin)
	require.True(t, Base.Equal(got.CreatedAt), "created_at %s", got.CreatedAt)

	_, err = st.Users().GetUserByEmail(ctx, "ALICE@example.com")
	require.ErrorIs(t, err, store.ErrNotFound, "email lookup is exact")

	dup := alice
	dup.ID = idx.New().String()
	err = st.Users().CreateUser(ctx, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	at := Base.Add(time.Hour)
	require.NoError(t, st.Users().UpdateLastLogin(ctx, alice.ID, at))
	require.NoError(t, st.Users().UpdatePasswordHash(ctx, alice.ID, "new-hash"))

	got, err = st.Users().GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	require.True(t, at.Equal(*got.LastLogin))
	require.Equal(t, "new-hash", got.PasswordHash)

	err = st.Users().UpdateLastLogin(ctx, "missing", at)
	require.ErrorIs(t, err, store.ErrNotFound)

	bob := domain.User{
		ID: idx.New().String(), Name: "Bob", Email: "bob@example.com",
		PasswordHash: "x", Role: domain.RoleAdmin, CreatedAt: Base.Add(time.Minute),
	}
	require.NoError(t, st.Users().CreateUser(ctx, bob))

	all, err := st.Users().ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, bob.ID, all[0].ID, "newest first")
	require.Equal(t, domain.RoleAdmin, all[0].Role)
}

func testNotesOwnership(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := MustUser(t, st, "Alice", "alice@example.com", domain.RoleUser)
	bob := MustUser(t, st, "Bob", "bob@example.com", domain.RoleUser)

	n := MustNote(t, st, alice.ID, "Groceries", Base)

	_, err := st.Notes().GetNote(ctx, bob.ID, n.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	ok, err := st.Notes().UpdateNote(ctx, bob.ID, n.ID, "hijack", "x", Base.Add(time.Minute))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = st.Notes().DeleteNote(ctx, bob.ID, n.ID)
	require.NoError(t, err)
	require.False(t, ok)

	deleted, err := st.Notes().DeleteNotesByOwner(ctx, bob.ID)
	require.NoError(t, err)
	require.Zero(t, deleted)

	got, err := st.Notes().GetNote(ctx, alice.ID, n.ID)
	require.NoError(t, err)
	require.Equal(t, "Groceries", got.Title)

	later := Base.Add(2 * time.Minute)
	ok, err = st.Notes().UpdateNote(ctx, alice.ID, n.ID, "Groceries", "content of Groceries", later)
	require.NoError(t, err)
	require.True(t, ok, "an update with identical text still matches the row")

	got, err = st.Notes().GetNote(ctx, alice.ID, n.ID)
	require.NoError(t, err)
	require.True(t, later.Equal(got.UpdatedAt))
	require.True(t, Base.Equal(got.CreatedAt))

	count, err := st.Notes().CountNotesByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	ok, err = st.Notes().DeleteNote(ctx, alice.ID, n.ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = st.Notes().GetNote(ctx, alice.ID, n.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testNotesOrdering(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := MustUser(t, st, "Alice", "alice@example.com", domain.RoleUser)
	bob := MustUser(t, st, "Bob", "bob@example.com", domain.RoleUser)

	first := MustNote(t, st, alice.ID, "first", Base)
	second := MustNote(t, st, alice.ID, "second", Base.Add(500*time.Millisecond))
	third := MustNote(t, st, bob.ID, "third", Base.Add(time.Second))

	notes, err := st.Notes().ListNotesByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, second.ID, notes[0].ID)
	require.Equal(t, first.ID, notes[1].ID)

	// Touching the older note moves it to the front.
	_, err = st.Notes().UpdateNote(ctx, alice.ID, first.ID, "first", "edited", Base.Add(2*time.Second))
	require.NoError(t, err)

	notes, err = st.Notes().ListNotesByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, notes[0].ID)

	all, err := st.Notes().ListAllNotes(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, first.ID, all[0].ID)
	require.Equal(t, "alice@example.com", all[0].OwnerEmail)
	require.Equal(t, third.ID, all[1].ID)
	require.Equal(t, "Bob", all[1].OwnerName)

	deleted, err := st.Notes().DeleteNotesByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	notes, err = st.Notes().ListNotesByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Empty(t, notes)
}

func testActivity(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := MustUser(t, st, "Alice", "alice@example.com", domain.RoleUser)
	bob := MustUser(t, st, "Bob", "bob@example.com", domain.RoleUser)

	appendAt := func(u domain.User, kind domain.ActivityKind, ip string, at time.Time) {
		require.NoError(t, st.Activity().AppendActivity(ctx, domain.ActivityEntry{
			ID:          idx.NewAt(at).String(),
			UserID:      u.ID,
			Kind:        kind,
			Description: string(kind),
			IPAddress:   ip,
			CreatedAt:   at,
		}))
	}

	appendAt(alice, domain.ActivityRegistration, "", Base)
	appendAt(alice, domain.ActivityLogin, "10.0.0.1", Base.Add(time.Second))
	appendAt(bob, domain.ActivityFailedLogin, "10.0.0.2", Base.Add(2*time.Second))
	// Same timestamp as the previous entry: the ID breaks the tie.
	appendAt(alice, domain.ActivityCreateNote, "", Base.Add(2*time.Second))

	recent, err := st.Activity().ListRecentActivity(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, domain.ActivityCreateNote, recent[0].Kind)
	require.Equal(t, "Alice", recent[0].UserName)
	require.Equal(t, domain.ActivityFailedLogin, recent[1].Kind)
	require.Equal(t, "bob@example.com", recent[1].UserEmail)
	require.Equal(t, "10.0.0.2", recent[1].IPAddress)
	require.Equal(t, domain.ActivityLogin, recent[2].Kind)

	mine, err := st.Activity().ListUserActivity(ctx, alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	require.Equal(t, domain.ActivityCreateNote, mine[0].Kind)
	require.Equal(t, domain.ActivityRegistration, mine[2].Kind)
	require.Empty(t, mine[2].IPAddress)

	one, err := st.Activity().ListUserActivity(ctx, alice.ID, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
}

func testStats(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := MustUser(t, st, "Alice", "alice@example.com", domain.RoleUser)
	bob := MustUser(t, st, "Bob", "bob@example.com", domain.RoleUser)
	MustUser(t, st, "Carol", "carol@example.com", domain.RoleUser)

	MustNote(t, st, alice.ID, "a", Base)
	MustNote(t, st, bob.ID, "b", Base)

	for i, u := range []domain.User{alice, alice, bob} {
		at := Base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, st.Activity().AppendActivity(ctx, domain.ActivityEntry{
			ID: idx.NewAt(at).String(), UserID: u.ID, Kind: domain.ActivityLogin,
			Description: "login", CreatedAt: at,
		}))
	}

	users, err := st.Stats().CountUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, users)

	notes, err := st.Stats().CountNotes(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, notes)

	active, err := st.Stats().CountActiveUsersSince(ctx, Base)
	require.NoError(t, err)
	require.Equal(t, 2, active)

	active, err = st.Stats().CountActiveUsersSince(ctx, Base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, active)
}

func testTransactions(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := MustUser(t, st, "Alice", "alice@example.com", domain.RoleUser)

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		MustNote(t, tx, alice.ID, "rolled back", Base)
		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := st.Notes().CountNotesByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Zero(t, count, "rollback must discard the note")

	err = st.WithTx(ctx, func(tx store.Tx) error {
		MustNote(t, tx, alice.ID, "kept", Base)

		// Nested transactions are refused.
		require.Error(t, tx.WithTx(ctx, func(store.Tx) error { return nil }))
		return nil
	})
	require.NoError(t, err)

	count, err = st.Notes().CountNotesByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, st.Ping(ctx))
	require.NoError(t, st.Optimize(ctx))
}

func testTextRoundTrip(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := MustUser(t, st, "Анна Каренина", "anna@example.com", domain.RoleUser)

	n := domain.Note{
		ID:        idx.New().String(),
		Title:     `Заметка "с кавычками" 📝`,
		Content:   "строка 1\nline 2\t'quoted' -- not a comment; DROP TABLE notes;",
		UserID:    u.ID,
		CreatedAt: Base,
		UpdatedAt: Base,
	}
	require.NoError(t, st.Notes().CreateNote(ctx, n))

	got, err := st.Notes().GetNote(ctx, u.ID, n.ID)
	require.NoError(t, err)
	require.Equal(t, n.Title, got.Title)
	require.Equal(t, n.Content, got.Content)

	owner, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Анна Каренина", owner.Name)
}
