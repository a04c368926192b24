// Package repository maps entities and their secondary indices onto kvstore namespaces.
//
// Key scheme per namespace:
//
//	users:      id_<id> -> User, email_<email> -> user id, refresh_<refresh id> -> user id
//	challenges: id_<id> -> Challenge
//	foodnotes:  id_<id> -> Foodnote, author_<author id> -> []foodnote id (creation order)
package repository

import (
	"github.com/nkiryanov/foodrhapsody/internal/kvstore"
)

const (
	NamespaceUsers      = "users"
	NamespaceChallenges = "challenges"
	NamespaceFoodnotes  = "foodnotes"
)

const idPrefix = "id_"

func idKey(id string) string {
	return idPrefix + id
}

type Storage struct {
	users      *UserRepo
	challenges *ChallengeRepo
	foodnotes  *FoodnoteRepo
}

func NewStorage(backend kvstore.Backend, codec kvstore.Codec) *Storage {
	return &Storage{
		users:      &UserRepo{ns: kvstore.NewNamespace(NamespaceUsers, backend, codec)},
		challenges: &ChallengeRepo{ns: kvstore.NewNamespace(NamespaceChallenges, backend, codec)},
		foodnotes:  &FoodnoteRepo{ns: kvstore.NewNamespace(NamespaceFoodnotes, backend, codec)},
	}
}

func (s *Storage) User() *UserRepo {
	return s.users
}

func (s *Storage) Challenge() *ChallengeRepo {
	return s.challenges
}

func (s *Storage) Foodnote() *FoodnoteRepo {
	return s.foodnotes
}
