package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"peerchat/internal/pkg/errs"
)

func TestNewStorageContainsLobby(t *testing.T) {
	s := NewStorage()

	sc := s.Open()
	defer sc.Close()

	lobby := sc.Lobby()
	require.NotNil(t, lobby)
	require.Equal(t, LobbyName, lobby.Name)
	require.Equal(t, 1, sc.RoomCount())
	require.Zero(t, sc.UserCount())
}

func TestCreateRoomRejectsDuplicateName(t *testing.T) {
	s := NewStorage()

	sc := s.Open()
	defer sc.Close()

	room, cerr := sc.CreateRoom("dev", "alice")
	require.Nil(t, cerr)
	require.Equal(t, "alice", room.Admin)

	_, cerr = sc.CreateRoom("dev", "bob")
	require.NotNil(t, cerr)
	require.Equal(t, errs.ErrRoomNameTaken, cerr.Code)

	_, cerr = sc.CreateRoom(LobbyName, "bob")
	require.NotNil(t, cerr)
	require.Equal(t, errs.ErrRoomNameTaken, cerr.Code)
}

func TestDeleteRoomGuards(t *testing.T) {
	s := NewStorage()

	sc := s.Open()
	defer sc.Close()

	cerr := sc.DeleteRoom(LobbyName)
	require.NotNil(t, cerr)
	require.Equal(t, errs.ErrLobbyImmutable, cerr.Code)

	cerr = sc.DeleteRoom("missing")
	require.NotNil(t, cerr)
	require.Equal(t, errs.ErrRoomNotFound, cerr.Code)

	room, _ := sc.CreateRoom("dev", "alice")
	cerr = sc.DeleteRoom("dev")
	require.NotNil(t, cerr)
	require.Equal(t, errs.ErrRoomNotEmpty, cerr.Code)

	room.RemoveMember("alice")
	require.Nil(t, sc.DeleteRoom("dev"))
	require.Equal(t, 1, sc.RoomCount())
}

func TestRoomsWithSortedByName(t *testing.T) {
	s := NewStorage()

	sc := s.Open()
	defer sc.Close()

	sc.Lobby().AddMember("alice")
	sc.CreateRoom("zeta", "alice")
	sc.CreateRoom("alpha", "alice")
	sc.CreateRoom("other", "bob")

	rooms := sc.RoomsWith("alice")
	require.Len(t, rooms, 3)
	require.Equal(t, LobbyName, rooms[0].Name)
	require.Equal(t, "alpha", rooms[1].Name)
	require.Equal(t, "zeta", rooms[2].Name)
}

func TestUserRegistry(t *testing.T) {
	s := NewStorage()

	sc := s.Open()
	defer sc.Close()

	_, ok := sc.User("alice")
	require.False(t, ok)

	sc.AddUser(&User{Nick: "alice"})
	u, ok := sc.User("alice")
	require.True(t, ok)
	require.Equal(t, "alice", u.Nick)
	require.Equal(t, 1, sc.UserCount())

	sc.RemoveUser("alice")
	require.Zero(t, sc.UserCount())

	// Removing an absent user is a no-op.
	sc.RemoveUser("alice")
}

func TestScopeCloseIsIdempotent(t *testing.T) {
	s := NewStorage()

	sc := s.Open()
	sc.Close()
	sc.Close() // early release plus deferred release must not panic

	sc = s.Open()
	sc.Close()
}

func TestScopeExcludesConcurrentAccess(t *testing.T) {
	s := NewStorage()

	const goroutines = 16
	const iterations = 100

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				sc := s.Open()
				n := sc.UserCount()
				sc.AddUser(&User{Nick: "u"})
				require.Equal(t, n+1, sc.UserCount())
				sc.RemoveUser("u")
				sc.Close()
			}
		}()
	}
	wg.Wait()

	sc := s.Open()
	defer sc.Close()
	require.Zero(t, sc.UserCount())
}
