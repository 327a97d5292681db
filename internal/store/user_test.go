package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nanogen/studio/internal/logging"
	"github.com/nanogen/studio/internal/slot"
	"github.com/nanogen/studio/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T) (*UserStore, *slot.Memory) {
	t.Helper()
	mem := slot.NewMemory()
	return NewUserStore(mem, DefaultKey, BcryptHasher{Cost: bcrypt.MinCost}, nil), mem
}

func image(id string) types.GeneratedImage {
	return types.GeneratedImage{ID: id, URL: "data:image/png;base64,AAAA", Prompt: "p", Style: types.StyleNone}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)

	_, err = s.Register(ctx, "alice", "other@x.com", "pw123456")
	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.Equal(t, "Username already taken", err.Error())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)

	_, err = s.Register(ctx, "bob", "a@x.com", "pw123456")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Len(t, s.List(ctx), 1)
}

func TestRegister_ThenLogin(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)

	res, err := s.Login(ctx, "alice", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, types.RoleUser, res.Role)
	require.NotNil(t, res.User)
	assert.Equal(t, types.StatusActive, res.User.Status)
	assert.Empty(t, res.User.History)
	assert.Equal(t, types.SubscriptionFree, res.User.Subscription)
	assert.NotEqual(t, "pw123456", res.User.Password)

	byEmail, err := s.Login(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "alice", byEmail.User.Username)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)

	_, err = s.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, "nobody", "pw123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_AdminNeverPersisted(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)

	for _, id := range []string{AdminUsername, AdminEmail} {
		res, err := s.Login(ctx, id, AdminPassword)
		require.NoError(t, err)
		assert.Equal(t, types.RoleAdmin, res.Role)
		assert.Nil(t, res.User)
	}

	_, err := mem.Load(ctx, DefaultKey)
	assert.ErrorIs(t, err, slot.ErrNotFound)
	assert.Empty(t, s.List(ctx))
}

func TestLogin_AdminWrongPasswordFallsThrough(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Login(context.Background(), AdminUsername, "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestToggleStatus_SuspendsAndRestoresLogin(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)

	users, err := s.ToggleStatus(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, types.StatusSuspended, users[0].Status)

	_, err = s.Login(ctx, "alice", "pw123456")
	assert.ErrorIs(t, err, ErrAccountSuspended)

	_, err = s.ToggleStatus(ctx, "alice")
	require.NoError(t, err)
	_, err = s.Login(ctx, "alice", "pw123456")
	assert.NoError(t, err)
}

func TestToggleStatus_UnknownUserIsNoop(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)

	users, err := s.ToggleStatus(ctx, "ghost")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, types.StatusActive, users[0].Status)
}

func TestAppendHistory_KeepsNewestTwenty(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		require.NoError(t, s.AppendHistory(ctx, "alice", image(fmt.Sprintf("img-%02d", i))))
	}

	user, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, user.History, HistoryLimit)
	for i, img := range user.History {
		assert.Equal(t, fmt.Sprintf("img-%02d", 24-i), img.ID)
	}
}

func TestAppendHistory_UnknownUserIsNoop(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	require.NoError(t, s.AppendHistory(ctx, "ghost", image("x")))

	_, err := mem.Load(ctx, DefaultKey)
	assert.ErrorIs(t, err, slot.ErrNotFound)
}

func TestClearHistory(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)
	require.NoError(t, s.AppendHistory(ctx, "alice", image("a")))

	require.NoError(t, s.ClearHistory(ctx, "alice"))
	user, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, user.History)
}

func TestUpdate_SubscriptionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	before, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)

	creator := types.SubscriptionCreator
	_, err = s.Update(ctx, "alice", UserPatch{Subscription: &creator})
	require.NoError(t, err)

	users := s.List(ctx)
	require.Len(t, users, 1)
	after := users[0]
	assert.Equal(t, types.SubscriptionCreator, after.Subscription)
	assert.Equal(t, before.Username, after.Username)
	assert.Equal(t, before.Email, after.Email)
	assert.Equal(t, before.Password, after.Password)
	assert.True(t, before.JoinedAt.Equal(after.JoinedAt))
	assert.Equal(t, before.Status, after.Status)
	assert.Empty(t, after.History)
}

func TestUpdate_Errors(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)
	_, err = s.Register(ctx, "bob", "b@x.com", "pw123456")
	require.NoError(t, err)

	name := "carol"
	_, err = s.Update(ctx, "ghost", UserPatch{Username: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)

	taken := "bob"
	_, err = s.Update(ctx, "alice", UserPatch{Username: &taken})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	takenEmail := "b@x.com"
	_, err = s.Update(ctx, "alice", UserPatch{Email: &takenEmail})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	same := "alice"
	_, err = s.Update(ctx, "alice", UserPatch{Username: &same})
	assert.NoError(t, err)
}

func TestUpdate_RenameAndPassword(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)

	name, pw := "alicia", "newpass99"
	updated, err := s.Update(ctx, "alice", UserPatch{Username: &name, Password: &pw})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)

	_, err = s.Login(ctx, "alicia", "newpass99")
	assert.NoError(t, err)
	_, err = s.Login(ctx, "alice", "pw123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)
	_, err = s.Register(ctx, "bob", "b@x.com", "pw123456")
	require.NoError(t, err)

	users, err := s.Delete(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)

	users, err = s.Delete(ctx, "ghost")
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestList_UnparseableSlotIsEmpty(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	require.NoError(t, mem.Save(ctx, DefaultKey, []byte("{not json")))

	assert.Empty(t, s.List(ctx))

	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)
	assert.Len(t, s.List(ctx), 1)
}

func TestSearchAndStats(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.Register(ctx, "Alice", "alice@x.com", "pw123456")
	require.NoError(t, err)
	_, err = s.Register(ctx, "bob", "bob@example.org", "pw123456")
	require.NoError(t, err)
	_, err = s.ToggleStatus(ctx, "bob")
	require.NoError(t, err)

	found := s.Search(ctx, "ALI")
	require.Len(t, found, 1)
	assert.Equal(t, "Alice", found[0].Username)
	assert.Len(t, s.Search(ctx, "example"), 1)
	assert.Len(t, s.Search(ctx, ""), 2)

	stats := s.Stats(ctx)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 1, stats.ActiveUsers)
	assert.Equal(t, 1, stats.SuspendedUsers)
	assert.Positive(t, stats.StorageBytes)
	assert.True(t, strings.HasSuffix(stats.StorageHuman, "B"))
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", HumanBytes(512))
	assert.Equal(t, "1.50 KB", HumanBytes(1536))
	assert.Equal(t, "2.00 MB", HumanBytes(2*1024*1024))
}

func TestFindImage(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)
	require.NoError(t, s.AppendHistory(ctx, "alice", image("one")))

	img, err := s.FindImage(ctx, "alice", "one")
	require.NoError(t, err)
	assert.Equal(t, "one", img.ID)

	_, err = s.FindImage(ctx, "alice", "two")
	assert.ErrorIs(t, err, ErrImageNotFound)
	_, err = s.FindImage(ctx, "ghost", "one")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// quotaSlot fails writes above a size until failures run out.
type quotaSlot struct {
	*slot.Memory
	maxBytes int
	saves    int
}

func (q *quotaSlot) Save(ctx context.Context, key string, data []byte) error {
	q.saves++
	if len(data) > q.maxBytes {
		return fmt.Errorf("write %d: %w", q.saves, slot.ErrQuotaExceeded)
	}
	return q.Memory.Save(ctx, key, data)
}

func TestSave_QuotaFallbackTruncatesHistories(t *testing.T) {
	ctx := context.Background()
	q := &quotaSlot{Memory: slot.NewMemory(), maxBytes: 1 << 20}
	s := NewUserStore(q, DefaultKey, PlainHasher{}, nil)

	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)
	_, err = s.Register(ctx, "bob", "b@x.com", "pw123456")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, s.AppendHistory(ctx, "alice", image(fmt.Sprintf("a-%d", i))))
		require.NoError(t, s.AppendHistory(ctx, "bob", image(fmt.Sprintf("b-%d", i))))
	}

	current, err := q.Memory.Load(ctx, DefaultKey)
	require.NoError(t, err)
	q.maxBytes = len(current)
	q.saves = 0

	require.NoError(t, s.AppendHistory(ctx, "alice", image("a-new")))
	assert.Equal(t, 2, q.saves)

	alice, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice.History, DegradedHistoryLimit)
	assert.Equal(t, "a-new", alice.History[0].ID)

	bob, err := s.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bob.History, DegradedHistoryLimit)
}

func TestSave_QuotaFallbackSecondFailurePropagates(t *testing.T) {
	ctx := context.Background()
	q := &quotaSlot{Memory: slot.NewMemory(), maxBytes: 10}
	s := NewUserStore(q, DefaultKey, PlainHasher{}, nil)

	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, slot.ErrQuotaExceeded))
	assert.Equal(t, 2, q.saves)
}

func TestPlainHasher_ExactEquality(t *testing.T) {
	h := PlainHasher{}
	stored, err := h.Hash("pw123456")
	require.NoError(t, err)
	assert.Equal(t, "pw123456", stored)
	assert.True(t, h.Compare(stored, "pw123456"))
	assert.False(t, h.Compare(stored, "pw12345"))
}

func TestNewPasswordHasher(t *testing.T) {
	h, err := NewPasswordHasher("plain")
	require.NoError(t, err)
	assert.IsType(t, PlainHasher{}, h)

	h, err = NewPasswordHasher("")
	require.NoError(t, err)
	assert.IsType(t, BcryptHasher{}, h)

	_, err = NewPasswordHasher("md5")
	assert.Error(t, err)
}

// flakySlot fails reads with loadErr while it is set.
type flakySlot struct {
	*slot.Memory
	loadErr error
}

func (f *flakySlot) Load(ctx context.Context, key string) ([]byte, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.Memory.Load(ctx, key)
}

func TestMutations_ReadFailureKeepsExistingRecords(t *testing.T) {
	ctx := context.Background()
	flaky := &flakySlot{Memory: slot.NewMemory()}
	s := NewUserStore(flaky, DefaultKey, PlainHasher{}, nil)
	for _, name := range []string{"alice", "bob", "carol"} {
		_, err := s.Register(ctx, name, name+"@x.com", "pw123456")
		require.NoError(t, err)
	}

	flaky.loadErr = errors.New("dial tcp: connection reset")

	_, err := s.Register(ctx, "dave", "dave@x.com", "pw123456")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorContains(t, err, "connection reset")

	name := "alicia"
	_, err = s.Update(ctx, "alice", UserPatch{Username: &name})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.AppendHistory(ctx, "alice", image("x")), ErrUnavailable)
	assert.ErrorIs(t, s.ClearHistory(ctx, "alice"), ErrUnavailable)
	_, err = s.ToggleStatus(ctx, "bob")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = s.Delete(ctx, "carol")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = s.Get(ctx, "alice")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = s.Login(ctx, "alice", "pw123456")
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.Empty(t, s.List(ctx))
	assert.Equal(t, 0, s.Stats(ctx).TotalUsers)

	flaky.loadErr = nil
	users := s.List(ctx)
	require.Len(t, users, 3)
	for i, name := range []string{"alice", "bob", "carol"} {
		assert.Equal(t, name, users[i].Username)
		assert.Equal(t, types.StatusActive, users[i].Status)
	}
}

func TestRegister_AssignsStableID(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	alice, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)
	bob, err := s.Register(ctx, "bob", "b@x.com", "pw123456")
	require.NoError(t, err)
	require.NotEmpty(t, alice.ID)
	assert.NotEqual(t, alice.ID, bob.ID)

	name := "alicia"
	renamed, err := s.Update(ctx, "alice", UserPatch{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, renamed.ID)

	byID, err := s.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", byID.Username)

	_, err = s.GetByID(ctx, "")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.Delete(ctx, "bob")
	require.NoError(t, err)
	_, err = s.GetByID(ctx, bob.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLogin_BackfillsMissingID(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	s.hasher = PlainHasher{}
	require.NoError(t, mem.Save(ctx, DefaultKey, []byte(`[{"username":"old","email":"old@x.com","password":"pw123456","status":"active","history":[]}]`)))

	res, err := s.Login(ctx, "old", "pw123456")
	require.NoError(t, err)
	require.NotEmpty(t, res.User.ID)

	again, err := s.Login(ctx, "old@x.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, again.User.ID)
}

func TestSave_QuotaWarningReportsBudget(t *testing.T) {
	ctx := context.Background()
	var buf strings.Builder
	log := logging.New(&buf, "warn")
	s := NewUserStore(slot.Limit(slot.NewMemory(), 600), DefaultKey, PlainHasher{}, log)

	_, err := s.Register(ctx, "alice", "a@x.com", "pw123456")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_ = s.AppendHistory(ctx, "alice", image(fmt.Sprintf("a-%d", i)))
	}

	assert.Contains(t, buf.String(), "user slot full")
	assert.Contains(t, buf.String(), `"max_bytes":600`)
}
