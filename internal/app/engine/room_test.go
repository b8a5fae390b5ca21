package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"peerchat/internal/app/wire"
)

func TestNewRoomCreatorIsAdmin(t *testing.T) {
	room := NewRoom("dev", "alice")

	require.Equal(t, "alice", room.Admin)
	require.Equal(t, []string{"alice"}, room.Members())
	require.True(t, room.Contains("alice"))
}

func TestNewRoomWithoutCreator(t *testing.T) {
	room := NewRoom(LobbyName, "")

	require.Empty(t, room.Admin)
	require.Zero(t, room.MemberCount())
}

func TestAddMemberPreservesJoinOrder(t *testing.T) {
	room := NewRoom("dev", "alice")
	room.AddMember("bob")
	room.AddMember("carol")
	room.AddMember("bob") // duplicate join is a no-op

	require.Equal(t, []string{"alice", "bob", "carol"}, room.Members())
	require.Equal(t, "alice", room.Admin)
}

func TestFirstMemberOfEmptyRoomBecomesAdmin(t *testing.T) {
	room := NewRoom("dev", "")
	room.AddMember("bob")

	require.Equal(t, "bob", room.Admin)
}

func TestRemoveMemberAdminSuccession(t *testing.T) {
	room := NewRoom("dev", "alice")
	room.AddMember("bob")
	room.AddMember("carol")

	// Removing a non-admin does not touch adminship.
	require.False(t, room.RemoveMember("carol"))
	require.Equal(t, "alice", room.Admin)

	room.AddMember("carol")

	// The earliest-joined remaining member succeeds the admin.
	require.True(t, room.RemoveMember("alice"))
	require.Equal(t, "bob", room.Admin)

	require.True(t, room.RemoveMember("bob"))
	require.Equal(t, "carol", room.Admin)

	// Last member out clears the admin.
	require.True(t, room.RemoveMember("carol"))
	require.Empty(t, room.Admin)
	require.Zero(t, room.MemberCount())
}

func TestRemoveMemberUnknownIsNoOp(t *testing.T) {
	room := NewRoom("dev", "alice")

	require.False(t, room.RemoveMember("ghost"))
	require.Equal(t, []string{"alice"}, room.Members())
}

func TestPostFileSetSemantics(t *testing.T) {
	room := NewRoom("dev", "alice")
	file := wire.FileDescription{ID: "f1", Name: "notes.txt", Owner: "alice", Size: 42}

	require.True(t, room.PostFile(file))
	require.False(t, room.PostFile(file)) // identical posting, set unchanged
	require.Len(t, room.Files(), 1)

	// A description differing in any field is a distinct posting.
	other := file
	other.Size = 43
	require.True(t, room.PostFile(other))
	require.Len(t, room.Files(), 2)
}

func TestRemoveFileByValue(t *testing.T) {
	room := NewRoom("dev", "alice")
	file := wire.FileDescription{ID: "f1", Name: "notes.txt", Owner: "alice"}
	room.PostFile(file)

	require.True(t, room.RemoveFile(file))
	require.False(t, room.RemoveFile(file))
	require.Empty(t, room.Files())
}

func TestFindFileByID(t *testing.T) {
	room := NewRoom("dev", "alice")
	file := wire.FileDescription{ID: "f1", Name: "notes.txt", Owner: "alice"}
	room.PostFile(file)

	found, ok := room.FindFileByID("f1")
	require.True(t, ok)
	require.Equal(t, file, found)

	_, ok = room.FindFileByID("missing")
	require.False(t, ok)
}

func TestRoomInfoSnapshot(t *testing.T) {
	room := NewRoom("dev", "alice")
	room.AddMember("bob")

	info := room.Info()
	require.Equal(t, "dev", info.Name)
	require.Equal(t, "alice", info.Admin)
	require.Equal(t, []string{"alice", "bob"}, info.Members)

	// The snapshot is detached from the live room.
	info.Members[0] = "mallory"
	require.Equal(t, []string{"alice", "bob"}, room.Members())
}
